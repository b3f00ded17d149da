// Package postgres provides PostgreSQL implementations of storage interfaces.
package postgres

// Schema creates the icons table. Every statement is idempotent so it can be
// applied on each start against a database that was provisioned elsewhere.
const Schema = `
CREATE TABLE IF NOT EXISTS icons (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT 'objects',
    tags TEXT[] NOT NULL DEFAULT '{}',
    path TEXT NOT NULL,
    generated BOOLEAN NOT NULL DEFAULT FALSE,
    generated_at BIGINT
);

CREATE INDEX IF NOT EXISTS idx_icons_generated ON icons(generated, generated_at);
`
