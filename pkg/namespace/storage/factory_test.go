package storage

import (
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"mercator-hq/backupkeeper/pkg/config"
)

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		backend, err := Open(config.StoreConfig{Backend: "memory"})
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		defer backend.Close()
		if _, ok := backend.(*MemoryStore); !ok {
			t.Errorf("Expected *MemoryStore, got %T", backend)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.NewDefault().Store
		cfg.SQLite.Path = filepath.Join(t.TempDir(), "backups.db")

		backend, err := Open(cfg)
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		defer backend.Close()
		if _, ok := backend.(*SQLiteStore); !ok {
			t.Errorf("Expected *SQLiteStore, got %T", backend)
		}
	})

	t.Run("redis", func(t *testing.T) {
		srv, err := miniredis.Run()
		if err != nil {
			t.Skipf("miniredis unavailable: %v", err)
		}
		defer srv.Close()

		backend, err := Open(config.StoreConfig{
			Backend: "redis",
			Redis:   config.RedisStoreConfig{URL: "redis://" + srv.Addr(), KeyPrefix: "bk"},
		})
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		defer backend.Close()
		if _, ok := backend.(*RedisStore); !ok {
			t.Errorf("Expected *RedisStore, got %T", backend)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if _, err := Open(config.StoreConfig{Backend: "s3"}); err == nil {
			t.Error("Expected error for unsupported backend")
		}
	})
}
