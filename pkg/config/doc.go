// Package config provides configuration management for backupkeeper.
//
// Configuration is read from a YAML file, completed with defaults, and
// overridden by environment variables before it is validated.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides(config.ResolvePath(flagValue))
//
// ResolvePath prefers an explicit path, then $BACKUP_CONFIG_PATH, then
// config.yaml in the working directory.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention BACKUPKEEPER_SECTION_FIELD:
//
//   - BACKUPKEEPER_STORE_BACKEND overrides store.backend
//   - BACKUPKEEPER_STORE_REDIS_URL overrides store.redis.url
//   - BACKUPKEEPER_SWEEP_DRY_RUN overrides sweep.dry_run
//   - BACKUPKEEPER_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast, listing every invalid field)
//
// # Singleton Pattern
//
//	if err := config.Initialize(path); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// For testing, prefer passing explicit Config instances.
package config
