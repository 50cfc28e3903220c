package config

import "time"

// Config is the root configuration structure for backupkeeper.
type Config struct {
	// Store selects and configures the namespace backend.
	Store StoreConfig `yaml:"store" envPrefix:"STORE_"`

	// Retention points at the retention policy document.
	Retention RetentionConfig `yaml:"retention" envPrefix:"RETENTION_"`

	// Sweep tunes the retention sweep.
	Sweep SweepConfig `yaml:"sweep" envPrefix:"SWEEP_"`

	// Backup configures where dumps are picked up from.
	Backup BackupConfig `yaml:"backup" envPrefix:"BACKUP_"`

	// History configures the local run ledger.
	History HistoryConfig `yaml:"history" envPrefix:"HISTORY_"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// StoreConfig contains namespace backend configuration.
type StoreConfig struct {
	// Backend is the store implementation.
	// Options: "memory", "sqlite", "redis"
	// Default: "sqlite"
	Backend string `yaml:"backend" env:"BACKEND"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteStoreConfig `yaml:"sqlite" envPrefix:"SQLITE_"`

	// Redis contains Redis backend configuration.
	Redis RedisStoreConfig `yaml:"redis" envPrefix:"REDIS_"`
}

// SQLiteStoreConfig contains SQLite backend configuration.
type SQLiteStoreConfig struct {
	// Path is the database file path.
	// Default: "data/backups.db"
	Path string `yaml:"path" env:"PATH"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode" env:"WAL_MODE"`

	// BusyTimeout is how long a locked database is retried.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`
}

// RedisStoreConfig contains Redis backend configuration.
type RedisStoreConfig struct {
	// URL is the Redis connection URL, e.g. "redis://localhost:6379/0".
	URL string `yaml:"url" env:"URL"`

	// KeyPrefix namespaces all keys.
	// Default: "backupkeeper"
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// RetentionConfig locates the retention policy.
type RetentionConfig struct {
	// PolicyPath is the JSON or YAML policy document.
	// Default: "retention.yaml"
	PolicyPath string `yaml:"policy_path" env:"POLICY_PATH"`
}

// SweepConfig tunes the retention sweep.
type SweepConfig struct {
	// Concurrency is the number of subtrees swept in parallel.
	// Default: 1
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`

	// DryRun reports evictions without deleting anything.
	// Default: false
	DryRun bool `yaml:"dry_run" env:"DRY_RUN"`

	// Timeout bounds a whole run, uploads included. Zero disables it.
	// Default: 30m
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// BackupConfig configures dump ingestion.
type BackupConfig struct {
	// SpoolDir is the directory an external dump tool writes into.
	// Default: "spool"
	SpoolDir string `yaml:"spool_dir" env:"SPOOL_DIR"`

	// RemoveAfterUpload deletes spool files once stored instead of
	// marking them uploaded.
	// Default: false
	RemoveAfterUpload bool `yaml:"remove_after_upload" env:"REMOVE_AFTER_UPLOAD"`
}

// HistoryConfig configures the run ledger.
type HistoryConfig struct {
	// Enabled records every run and sweep.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Path is the ledger database file.
	// Default: "data/history.db"
	Path string `yaml:"path" env:"PATH"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing TracingConfig `yaml:"tracing" envPrefix:"TRACING_"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" env:"LEVEL"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format" env:"FORMAT"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source" env:"ADD_SOURCE"`
}

// MetricsConfig contains metrics configuration. A run-once process has no
// scrape endpoint, so metrics are written to a node_exporter textfile.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and written.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Namespace is the metric name prefix.
	// Default: "backupkeeper"
	Namespace string `yaml:"namespace" env:"NAMESPACE"`

	// TextfilePath is where metrics are written after each run,
	// e.g. "/var/lib/node_exporter/textfile/backupkeeper.prom".
	TextfilePath string `yaml:"textfile_path" env:"TEXTFILE_PATH"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure" env:"INSECURE"`

	// SampleRatio is the fraction of traces sampled (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO"`

	// ServiceName is reported as service.name.
	// Default: "backupkeeper"
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}
