package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/cli"
	"mercator-hq/backupkeeper/pkg/config"
	"mercator-hq/backupkeeper/pkg/history"
	"mercator-hq/backupkeeper/pkg/namespace"
	"mercator-hq/backupkeeper/pkg/namespace/storage"
	"mercator-hq/backupkeeper/pkg/retention"
	"mercator-hq/backupkeeper/pkg/telemetry/logging"
	"mercator-hq/backupkeeper/pkg/telemetry/metrics"
	"mercator-hq/backupkeeper/pkg/telemetry/tracing"
)

// app holds what a command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracer  *tracing.Tracer
	metrics *metrics.Collector
	format  cli.OutputFormat

	store  namespace.Backend
	ledger *history.Ledger
}

// loadConfig returns the process configuration. A configuration already
// installed with config.SetConfig is reused. When no path was given and the
// default file does not exist, configuration comes from the environment.
func loadConfig() (*config.Config, error) {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg, nil
	}

	path := config.ResolvePath(cfgFile)
	explicit := cfgFile != "" || os.Getenv(config.PathEnv) != ""

	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(path); !explicit && errors.Is(statErr, fs.ErrNotExist) {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.LoadConfigWithEnvOverrides(path)
	}
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}

	config.SetConfig(cfg)
	return cfg, nil
}

// newApp loads configuration and sets up logging, tracing and metrics.
// Logs go to the command's error stream so stdout carries only results.
func newApp(cmd *cobra.Command) (*app, error) {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return nil, cli.NewConfigError("output", err.Error())
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Telemetry.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.Setup(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		tracer:  tracer,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
		format:  format,
	}, nil
}

// openStore opens the configured namespace backend.
func (a *app) openStore() (namespace.Backend, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := storage.Open(a.cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// openLedger opens the run history. It returns nil when history is disabled.
func (a *app) openLedger() (*history.Ledger, error) {
	if !a.cfg.History.Enabled {
		return nil, nil
	}
	if a.ledger != nil {
		return a.ledger, nil
	}
	ledger, err := history.Open(a.cfg.History.Path)
	if err != nil {
		return nil, err
	}
	a.ledger = ledger
	return ledger, nil
}

// loadPolicy reads the policy at path, or the configured policy if path is
// empty.
func (a *app) loadPolicy(path string) (*retention.Policy, error) {
	if path == "" {
		path = a.cfg.Retention.PolicyPath
	}
	policy, err := retention.LoadPolicyFile(path)
	if err != nil {
		return nil, cli.NewConfigError("retention.policy_path", err.Error())
	}
	a.logger.Debug("loaded retention policy", "path", path, "rules", len(policy.Rules()))
	return policy, nil
}

// record stores run in the ledger. Failures are logged, never returned.
// Interrupted runs are still recorded.
func (a *app) record(ctx context.Context, run *history.Run) {
	ctx = context.WithoutCancel(ctx)

	ledger, err := a.openLedger()
	if err != nil {
		a.logger.Warn("failed to open run history", "error", err)
		return
	}
	if ledger == nil {
		return
	}
	if err := ledger.Record(ctx, run); err != nil {
		a.logger.Warn("failed to record run", "run_id", run.ID, "error", err)
	}
}

// flushMetrics writes the metrics textfile if metrics are enabled.
func (a *app) flushMetrics() {
	if err := a.metrics.WriteTextfile(); err != nil {
		a.logger.Warn("failed to write metrics", "error", err)
	}
}

// print writes result to out in the selected format.
func (a *app) print(out io.Writer, result interface{}) error {
	return cli.NewFormatter(a.format).FormatTo(out, result)
}

// close releases the store, the ledger and the tracer.
func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close store", "error", err)
		}
	}
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.logger.Warn("failed to close run history", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to flush traces", "error", err)
	}
}

// commandContext returns the command's context, canceled on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return cli.SetupSignalHandler(parent)
}

// parseInstant accepts RFC 3339 timestamps and bare YYYY-MM-DD dates (UTC
// midnight). An empty string yields fallback.
func parseInstant(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
