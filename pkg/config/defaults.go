package config

import "time"

// Default values for configuration fields.
const (
	// Store defaults
	DefaultStoreBackend       = "sqlite"
	DefaultSQLitePath         = "data/backups.db"
	DefaultSQLiteMaxOpenConns = 4
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second
	DefaultRedisKeyPrefix     = "backupkeeper"

	// Retention defaults
	DefaultPolicyPath = "retention.yaml"

	// Sweep defaults
	DefaultSweepConcurrency = 1
	DefaultSweepTimeout     = 30 * time.Minute

	// Backup defaults
	DefaultSpoolDir = "spool"

	// History defaults
	DefaultHistoryEnabled = true
	DefaultHistoryPath    = "data/history.db"

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
	DefaultMetricsNamespace   = "backupkeeper"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "backupkeeper"
)

// NewDefault returns a configuration with every default applied.
func NewDefault() *Config {
	cfg := &Config{
		Store: StoreConfig{
			SQLite: SQLiteStoreConfig{WALMode: DefaultSQLiteWALMode},
		},
		History: HistoryConfig{Enabled: DefaultHistoryEnabled},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Booleans
// whose default is true cannot be told apart from an explicit false here;
// they are seeded by NewDefault before the file is decoded.
func ApplyDefaults(cfg *Config) {
	applyStoreDefaults(&cfg.Store)
	applyRetentionDefaults(&cfg.Retention)
	applySweepDefaults(&cfg.Sweep)
	applyBackupDefaults(&cfg.Backup)
	applyHistoryDefaults(&cfg.History)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultStoreBackend
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultSQLitePath
	}
	if cfg.SQLite.MaxOpenConns == 0 {
		cfg.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
}

func applyRetentionDefaults(cfg *RetentionConfig) {
	if cfg.PolicyPath == "" {
		cfg.PolicyPath = DefaultPolicyPath
	}
}

func applySweepDefaults(cfg *SweepConfig) {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultSweepConcurrency
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultSweepTimeout
	}
}

func applyBackupDefaults(cfg *BackupConfig) {
	if cfg.SpoolDir == "" {
		cfg.SpoolDir = DefaultSpoolDir
	}
}

func applyHistoryDefaults(cfg *HistoryConfig) {
	if cfg.Path == "" {
		cfg.Path = DefaultHistoryPath
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
}
