// Package backend opens the remote icon store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Adalene/glyph/internal/config"
	"github.com/Adalene/glyph/internal/storage"
	"github.com/Adalene/glyph/internal/storage/postgres"
	"github.com/Adalene/glyph/internal/storage/sqlite"
)

// connectTimeout bounds the startup connection attempt.
const connectTimeout = 10 * time.Second

// Open returns the configured remote store, or nil when the service runs in
// local-file-only mode (engine none, or postgres without a database URL).
// A postgres store is returned even when the database cannot be reached.
func Open(cfg *config.Config, logger *zap.Logger) (storage.IconStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Storage.Engine {
	case storage.EnginePostgres:
		if cfg.Storage.DatabaseURL == "" {
			logger.Info("no database URL configured, running in local-file-only mode")
			return nil, nil
		}
		dsn, err := cfg.PostgresDSN()
		if err != nil {
			return nil, err
		}
		store, err := postgres.NewIconStore(dsn)
		if err != nil {
			return nil, err
		}

		// An unreachable database must not stop the service: requests
		// degrade to the local snapshot until it comes back.
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Warn("remote store unreachable, serving local snapshot until it recovers",
				zap.String("engine", storage.EnginePostgres),
				zap.Error(err))
			return store, nil
		}
		logger.Info("remote store opened", zap.String("engine", storage.EnginePostgres))
		return store, nil

	case storage.EngineSQLite:
		path := cfg.Storage.SQLitePath
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("backend: failed to create %s: %w", filepath.Dir(path), err)
			}
		}
		store, err := sqlite.NewIconStore(path)
		if err != nil {
			return nil, err
		}
		logger.Info("remote store opened",
			zap.String("engine", storage.EngineSQLite),
			zap.String("path", path))
		return store, nil

	case storage.EngineNone:
		logger.Info("remote store disabled, running in local-file-only mode")
		return nil, nil

	default:
		return nil, fmt.Errorf("backend: %w: %q", storage.ErrUnknownEngine, cfg.Storage.Engine)
	}
}
