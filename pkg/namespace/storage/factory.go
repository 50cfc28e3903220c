package storage

import (
	"fmt"
	"log/slog"

	"mercator-hq/backupkeeper/pkg/config"
	"mercator-hq/backupkeeper/pkg/namespace"
)

// Open creates the backend selected by cfg.Backend.
//
// Supported backends:
//   - "memory": process-local, lost on exit; for tests and dry runs
//   - "sqlite": a local database file
//   - "redis": a shared Redis instance
//
// Example:
//
//	backend, err := storage.Open(cfg.Store)
//	if err != nil {
//	    return err
//	}
//	defer backend.Close()
func Open(cfg config.StoreConfig) (namespace.Backend, error) {
	slog.Debug("opening namespace store", "backend", cfg.Backend)

	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil

	case "sqlite":
		store, err := NewSQLiteStore(&SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil

	case "redis":
		store, err := NewRedisStore(RedisConfig{
			URL:       cfg.Redis.URL,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q (supported: memory, sqlite, redis)", cfg.Backend)
	}
}
