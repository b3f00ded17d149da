// Package catalog is the data store adapter for icon records. It reads the
// unioned view of the local baseline snapshot and the remote store, and
// accepts new records into the remote store with a snapshot fallback.
//
// Neither operation fails a request on persistence problems: errors are
// logged and reported back as fields of Listing and SaveResult so callers
// can decide what to surface.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Adalene/glyph/internal/storage"
	"github.com/Adalene/glyph/internal/storage/snapshot"
	"github.com/Adalene/glyph/pkg/types"
)

// Paths a saved record can take.
const (
	ViaRemote   = "remote"
	ViaSnapshot = "snapshot"
)

// Catalog combines an optional remote store with the local snapshot.
type Catalog struct {
	remote   storage.IconStore
	snapshot *snapshot.File
	logger   *zap.Logger
	now      func() time.Time
	onAccept []func(types.Icon)
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for swallowed persistence errors.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp saved records.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// WithAcceptHook registers fn to be called with every record Save accepts.
// Hooks run synchronously on the saving goroutine.
func WithAcceptHook(fn func(types.Icon)) Option {
	return func(c *Catalog) {
		if fn != nil {
			c.onAccept = append(c.onAccept, fn)
		}
	}
}

// New creates a Catalog. remote may be nil, in which case the service runs
// in local-file-only mode. A nil snapshot behaves as an empty, read-only one.
func New(remote storage.IconStore, snap *snapshot.File, opts ...Option) *Catalog {
	if snap == nil {
		snap = snapshot.New("", false)
	}
	c := &Catalog{
		remote:   remote,
		snapshot: snap,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Listing is the result of FetchAll. Icons is always usable; the error fields
// record sources that were skipped.
type Listing struct {
	Icons       []types.Icon
	BaselineErr error // snapshot unreadable or malformed; baseline treated as empty
	RemoteErr   error // remote store failed; listing is baseline-only
}

// Degraded reports whether any source was skipped.
func (l Listing) Degraded() bool {
	return l.BaselineErr != nil || l.RemoteErr != nil
}

// FetchAll returns the baseline records followed by the remote records whose
// id is not in the baseline.
func (c *Catalog) FetchAll(ctx context.Context) Listing {
	var listing Listing

	baseline, err := c.snapshot.Load()
	if err != nil {
		c.logger.Error("baseline snapshot unreadable, continuing without it",
			zap.String("path", c.snapshot.Path()),
			zap.Error(err))
		listing.BaselineErr = err
		baseline = nil
	}

	if c.remote == nil {
		listing.Icons = Reconcile(baseline, nil)
		return listing
	}

	stored, err := c.remote.List(ctx)
	if err != nil {
		c.logger.Error("remote store list failed, serving baseline only", zap.Error(err))
		listing.RemoteErr = err
		stored = nil
	}

	listing.Icons = Reconcile(baseline, stored)
	return listing
}

// SaveResult describes what happened to a record passed to Save.
type SaveResult struct {
	Icon        types.Icon // record as stamped and normalized
	Accepted    bool       // record is now part of the catalog
	Existing    bool       // rejected because the id is already taken
	Via         string     // ViaRemote or ViaSnapshot when accepted
	RemoteErr   error      // insert failure that triggered the fallback
	SnapshotErr error      // snapshot write failure or snapshot.ErrReadOnly
}

// Save accepts a new record. The record is stamped as generated with the
// current time and inserted into the remote store. Any insert failure,
// including an id collision, falls back to the merged view: an existing id
// rejects the record, otherwise it is appended and the merged list is
// written to the snapshot when the snapshot is writable.
//
// The returned error is non-nil only for records that fail validation.
func (c *Catalog) Save(ctx context.Context, icon types.Icon) (SaveResult, error) {
	if err := icon.Validate(); err != nil {
		return SaveResult{Icon: icon}, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	icon.Generated = true
	icon.GeneratedAt = c.now().UnixMilli()
	icon.Normalize()
	result := SaveResult{Icon: icon}

	if c.remote != nil {
		err := c.remote.Insert(ctx, icon)
		if err == nil {
			result.Accepted = true
			result.Via = ViaRemote
			c.accepted(icon)
			return result, nil
		}
		result.RemoteErr = err
		if errors.Is(err, storage.ErrDuplicate) {
			c.logger.Info("remote insert collided, checking merged view", zap.String("id", icon.ID))
		} else {
			c.logger.Error("remote insert failed, falling back to snapshot",
				zap.String("id", icon.ID),
				zap.Error(err))
		}
	}

	listing := c.FetchAll(ctx)
	for _, existing := range listing.Icons {
		if existing.ID == icon.ID {
			result.Existing = true
			c.logger.Info("icon already exists", zap.String("id", icon.ID))
			return result, nil
		}
	}

	updated := append(listing.Icons, icon)
	if err := c.snapshot.Save(updated); err != nil {
		result.SnapshotErr = err
		if errors.Is(err, snapshot.ErrReadOnly) {
			c.logger.Warn("snapshot is read-only, icon accepted but not persisted locally",
				zap.String("id", icon.ID))
		} else {
			c.logger.Error("snapshot write failed",
				zap.String("id", icon.ID),
				zap.String("path", c.snapshot.Path()),
				zap.Error(err))
		}
	}

	result.Accepted = true
	result.Via = ViaSnapshot
	c.accepted(icon)
	return result, nil
}

func (c *Catalog) accepted(icon types.Icon) {
	for _, fn := range c.onAccept {
		fn(icon)
	}
}

// Health summarises the state of both sources.
type Health struct {
	Remote   string `json:"remote"`   // "ok", "unavailable" or "disabled"
	Snapshot string `json:"snapshot"` // "writable" or "read-only"
}

// Health pings the remote store and reports snapshot mode.
func (c *Catalog) Health(ctx context.Context) Health {
	h := Health{Remote: "disabled", Snapshot: "read-only"}
	if c.snapshot.Writable() {
		h.Snapshot = "writable"
	}
	if c.remote != nil {
		h.Remote = "ok"
		if err := c.remote.Ping(ctx); err != nil {
			c.logger.Warn("remote store ping failed", zap.Error(err))
			h.Remote = "unavailable"
		}
	}
	return h
}
