package config

import (
	"sync"
	"testing"
)

func resetSingleton() {
	SetConfig(nil)
	initOnce = sync.Once{}
}

func TestInitialize(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	path := writeConfig(t, "sweep:\n  concurrency: 3\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Sweep.Concurrency != 3 {
		t.Errorf("expected concurrency 3, got %d", cfg.Sweep.Concurrency)
	}

	// Later calls are ignored.
	if err := Initialize(writeConfig(t, "sweep:\n  concurrency: 9\n")); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	if GetConfig().Sweep.Concurrency != 3 {
		t.Error("expected first configuration to stick")
	}
}

func TestInitialize_FromEnvPath(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	t.Setenv(PathEnv, writeConfig(t, "store:\n  backend: memory\n"))
	if err := Initialize(""); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}
	if GetConfig().Store.Backend != "memory" {
		t.Errorf("expected config from %s", PathEnv)
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustGetConfig()
}
