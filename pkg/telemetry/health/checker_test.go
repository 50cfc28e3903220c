package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/backupkeeper/pkg/namespace"
	"mercator-hq/backupkeeper/pkg/namespace/storage"
)

func TestChecker_Run(t *testing.T) {
	c := New(time.Second)
	c.Register("b", func(ctx context.Context) error { return nil })
	c.Register("a", func(ctx context.Context) error { return errors.New("down") })

	status := c.Run(context.Background())

	if status.Healthy {
		t.Error("Expected unhealthy status")
	}
	if len(status.Checks) != 2 || status.Checks[0].Name != "a" {
		t.Fatalf("Expected results sorted by name, got %+v", status.Checks)
	}
	if status.Checks[0].Status != StatusUnhealthy || status.Checks[0].Message != "down" {
		t.Errorf("Unexpected result for a: %+v", status.Checks[0])
	}
	if status.Checks[1].Status != StatusOK {
		t.Errorf("Unexpected result for b: %+v", status.Checks[1])
	}
}

func TestChecker_Empty(t *testing.T) {
	status := New(0).Run(context.Background())
	if !status.Healthy || len(status.Checks) != 0 {
		t.Errorf("Expected healthy empty status, got %+v", status)
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Register("slow", func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	status := c.Run(context.Background())
	if status.Healthy || status.Checks[0].Message != ErrCheckTimeout.Error() {
		t.Errorf("Expected timeout, got %+v", status.Checks)
	}
}

func TestChecker_RegisterReplaces(t *testing.T) {
	c := New(0)
	c.Register("x", func(ctx context.Context) error { return errors.New("old") })
	c.Register("x", func(ctx context.Context) error { return nil })

	if names := c.Names(); len(names) != 1 {
		t.Errorf("Expected one check, got %v", names)
	}
	if !c.Run(context.Background()).Healthy {
		t.Error("Expected replacement check to run")
	}
}

func TestStoreCheck(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	if err := StoreCheck(store)(ctx); err != nil {
		t.Errorf("Expected healthy store, got %v", err)
	}

	store.InjectFault(namespace.OpListChildren, storage.AnyNode, errors.New("connection refused"))
	if err := StoreCheck(store)(ctx); err == nil {
		t.Error("Expected error from failing store")
	}
}

func TestPolicyCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("rules:\n  - keep_every: 1d\n    duration: null\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := PolicyCheck(good)(context.Background()); err != nil {
		t.Errorf("Expected valid policy, got %v", err)
	}
	if err := PolicyCheck(filepath.Join(dir, "missing.yaml"))(context.Background()); err == nil {
		t.Error("Expected error for missing policy")
	}
}

func TestDirCheck(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := DirCheck(dir)(context.Background()); err != nil {
		t.Errorf("Expected directory ok, got %v", err)
	}
	if err := DirCheck(file)(context.Background()); err == nil {
		t.Error("Expected error for a file")
	}
	if err := DirCheck(filepath.Join(dir, "missing"))(context.Background()); err == nil {
		t.Error("Expected error for a missing path")
	}
}
