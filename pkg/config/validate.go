package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "store.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateSweep(&cfg.Sweep)...)
	errs = append(errs, validateBackup(&cfg.Backup)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.path",
				Message: "path is required for the sqlite backend",
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.max_open_conns",
				Message: fmt.Sprintf("must be at least 1, got %d", cfg.SQLite.MaxOpenConns),
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.busy_timeout",
				Message: "busy timeout cannot be negative",
			})
		}
	case "redis":
		errs = append(errs, validateRedisURL(cfg.Redis.URL)...)
	case "":
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: "backend is required",
		})
	default:
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory', 'sqlite', or 'redis'", cfg.Backend),
		})
	}

	return errs
}

func validateRedisURL(raw string) []FieldError {
	if raw == "" {
		return []FieldError{{
			Field:   "store.redis.url",
			Message: "url is required for the redis backend",
		}}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return []FieldError{{
			Field:   "store.redis.url",
			Message: "invalid URL format",
		}}
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return []FieldError{{
			Field:   "store.redis.url",
			Message: fmt.Sprintf("invalid scheme %q: must be 'redis' or 'rediss'", u.Scheme),
		}}
	}
	return nil
}

func validateRetention(cfg *RetentionConfig) []FieldError {
	if cfg.PolicyPath == "" {
		return []FieldError{{
			Field:   "retention.policy_path",
			Message: "policy path is required",
		}}
	}
	return nil
}

func validateSweep(cfg *SweepConfig) []FieldError {
	var errs []FieldError

	if cfg.Concurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "sweep.concurrency",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Concurrency),
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "sweep.timeout",
			Message: "timeout cannot be negative",
		})
	}

	return errs
}

func validateBackup(cfg *BackupConfig) []FieldError {
	if cfg.SpoolDir == "" {
		return []FieldError{{
			Field:   "backup.spool_dir",
			Message: "spool directory is required",
		}}
	}
	return nil
}

func validateHistory(cfg *HistoryConfig) []FieldError {
	if cfg.Enabled && cfg.Path == "" {
		return []FieldError{{
			Field:   "history.path",
			Message: "path is required when history is enabled",
		}}
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.TextfilePath == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.textfile_path",
			Message: "textfile path is required when metrics are enabled",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
