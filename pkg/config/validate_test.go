package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(NewDefault()); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty backend", func(c *Config) { c.Store.Backend = "" }, "store.backend"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, "store.backend"},
		{"sqlite path", func(c *Config) { c.Store.SQLite.Path = "" }, "store.sqlite.path"},
		{"sqlite conns", func(c *Config) { c.Store.SQLite.MaxOpenConns = 0 }, "store.sqlite.max_open_conns"},
		{"redis url", func(c *Config) { c.Store.Backend = "redis" }, "store.redis.url"},
		{"redis scheme", func(c *Config) {
			c.Store.Backend = "redis"
			c.Store.Redis.URL = "http://localhost:6379"
		}, "store.redis.url"},
		{"policy path", func(c *Config) { c.Retention.PolicyPath = "" }, "retention.policy_path"},
		{"concurrency", func(c *Config) { c.Sweep.Concurrency = 0 }, "sweep.concurrency"},
		{"timeout", func(c *Config) { c.Sweep.Timeout = -1 }, "sweep.timeout"},
		{"spool dir", func(c *Config) { c.Backup.SpoolDir = "" }, "backup.spool_dir"},
		{"history path", func(c *Config) { c.History.Path = "" }, "history.path"},
		{"log format", func(c *Config) { c.Telemetry.Logging.Format = "console" }, "telemetry.logging.format"},
		{"metrics textfile", func(c *Config) { c.Telemetry.Metrics.Enabled = true }, "telemetry.metrics.textfile_path"},
		{"tracing endpoint", func(c *Config) {
			c.Telemetry.Tracing.Enabled = true
			c.Telemetry.Tracing.Endpoint = ""
		}, "telemetry.tracing.endpoint"},
		{"sample ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, "telemetry.tracing.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.modify(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for %s, got %v", tt.field, verr.Errors)
			}
		})
	}
}

func TestValidate_MemoryBackendIgnoresSQLite(t *testing.T) {
	cfg := NewDefault()
	cfg.Store.Backend = "memory"
	cfg.Store.SQLite.Path = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("expected memory backend valid, got %v", err)
	}
}

func TestValidate_HistoryDisabled(t *testing.T) {
	cfg := NewDefault()
	cfg.History.Enabled = false
	cfg.History.Path = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("expected disabled history valid, got %v", err)
	}
}

func TestValidationError_Aggregates(t *testing.T) {
	cfg := NewDefault()
	cfg.Store.Backend = "s3"
	cfg.Sweep.Concurrency = -1
	cfg.Telemetry.Logging.Level = "trace"

	err := Validate(cfg)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(err.Error(), "with 3 errors") {
		t.Errorf("unexpected message: %s", err)
	}
}
