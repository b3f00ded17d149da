// Package sqlite provides an embedded SQLite implementation of
// storage.IconStore for single-node deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite" // SQLite driver
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Adalene/glyph/internal/storage"
	"github.com/Adalene/glyph/pkg/types"
)

// Schema creates the icons table. Tags are stored as a JSON array.
const Schema = `
CREATE TABLE IF NOT EXISTS icons (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT 'objects',
    tags TEXT NOT NULL DEFAULT '[]',
    path TEXT NOT NULL,
    generated INTEGER NOT NULL DEFAULT 0,
    generated_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_icons_generated ON icons(generated, generated_at);
`

// IconStore implements storage.IconStore using SQLite.
type IconStore struct {
	db *sql.DB
}

// NewIconStore opens (or creates) the database at dsn, configures WAL mode
// and applies the schema. Use ":memory:" for a throwaway store.
func NewIconStore(dsn string) (*IconStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serialises writes and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &IconStore{db: db}, nil
}

// GetDB returns the underlying database connection.
func (s *IconStore) GetDB() *sql.DB {
	return s.db
}

// Close releases any resources held by the store.
func (s *IconStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *IconStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return nil
}

// List returns all icons, curated records before generated ones.
func (s *IconStore) List(ctx context.Context) ([]types.Icon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, tags, path, generated, generated_at
		FROM icons
		ORDER BY generated ASC, generated_at IS NOT NULL, generated_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list icons: %w", err)
	}
	defer rows.Close()

	icons := make([]types.Icon, 0)
	for rows.Next() {
		var icon types.Icon
		var tagsJSON string
		var generatedAt sql.NullInt64

		if err := rows.Scan(
			&icon.ID,
			&icon.Name,
			&icon.Category,
			&tagsJSON,
			&icon.Path,
			&icon.Generated,
			&generatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan icon: %w", err)
		}

		icon.Tags = []string{}
		if tagsJSON != "" {
			if err := json.Unmarshal([]byte(tagsJSON), &icon.Tags); err != nil {
				return nil, fmt.Errorf("sqlite: icon %q has malformed tags: %w", icon.ID, err)
			}
		}
		if generatedAt.Valid {
			icon.GeneratedAt = generatedAt.Int64
		}
		icons = append(icons, icon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate icons: %w", err)
	}
	return icons, nil
}

// Insert creates a new icon; an existing id is reported as storage.ErrDuplicate.
func (s *IconStore) Insert(ctx context.Context, icon types.Icon) error {
	args, err := iconArgs(icon)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO icons (id, name, category, tags, path, generated, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("sqlite: icon %q: %w", icon.ID, storage.ErrDuplicate)
		}
		return fmt.Errorf("sqlite: failed to insert icon: %w", err)
	}
	return nil
}

// UpsertBatch writes icons inside one transaction, replacing rows that share
// an id.
func (s *IconStore) UpsertBatch(ctx context.Context, icons []types.Icon) error {
	if len(icons) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, icon := range icons {
		args, err := iconArgs(icon)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO icons (id, name, category, tags, path, generated, generated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				category = excluded.category,
				tags = excluded.tags,
				path = excluded.path,
				generated = excluded.generated,
				generated_at = excluded.generated_at
		`, args...); err != nil {
			return fmt.Errorf("sqlite: failed to upsert icon %q: %w", icon.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit upsert: %w", err)
	}
	return nil
}

// iconArgs validates icon and returns the column values in insert order.
func iconArgs(icon types.Icon) ([]interface{}, error) {
	if err := icon.Validate(); err != nil {
		return nil, fmt.Errorf("%w: icon %q: %v", storage.ErrInvalidInput, icon.ID, err)
	}
	icon.Normalize()

	tagsJSON, err := json.Marshal(icon.Tags)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to marshal tags: %w", err)
	}

	var generatedAt interface{}
	if icon.GeneratedAt != 0 {
		generatedAt = icon.GeneratedAt
	}

	return []interface{}{
		icon.ID,
		icon.Name,
		icon.Category,
		string(tagsJSON),
		icon.Path,
		icon.Generated,
		generatedAt,
	}, nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Compile-time assertion.
var _ storage.IconStore = (*IconStore)(nil)
