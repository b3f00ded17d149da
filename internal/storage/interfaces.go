// Package storage defines the remote icon store contract shared by the
// Postgres and SQLite backends.
//
// The remote store is the system of record. Implementations must enforce
// uniqueness of the icon id and report collisions as ErrDuplicate so callers
// can distinguish them from availability failures.
package storage

import (
	"context"

	"github.com/Adalene/glyph/pkg/types"
)

// IconStore provides the operations the service needs from a remote store.
type IconStore interface {
	// List returns every stored icon, curated records first, then generated
	// records oldest to newest.
	List(ctx context.Context) ([]types.Icon, error)

	// Insert creates a new icon. It never overwrites: an existing id yields
	// an error wrapping ErrDuplicate.
	Insert(ctx context.Context, icon types.Icon) error

	// UpsertBatch writes icons in a single transaction, replacing any
	// existing rows with the same id. Used by the offline seeder only.
	UpsertBatch(ctx context.Context, icons []types.Icon) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
