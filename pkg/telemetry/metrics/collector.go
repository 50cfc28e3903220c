package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/backupkeeper/pkg/backup"
	"mercator-hq/backupkeeper/pkg/config"
	"mercator-hq/backupkeeper/pkg/namespace"
)

// Collector owns the Prometheus registry for one backupkeeper process.
//
// backupkeeper runs once and exits, so nothing scrapes it. Instead the
// collector is flushed to a textfile that node_exporter's textfile
// collector picks up.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	sweepMetrics  *SweepMetrics
	backupMetrics *BackupMetrics

	// now is replaceable in tests.
	now func() time.Time
}

// NewCollector creates a collector. If registry is nil, a fresh registry is
// used.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordSweep(report)
//	err := collector.WriteTextfile()
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:        cfg,
		registry:      registry,
		sweepMetrics:  NewSweepMetrics(cfg, registry),
		backupMetrics: NewBackupMetrics(cfg, registry),
		now:           time.Now,
	}
}

// RecordSweep records a retention sweep report.
func (c *Collector) RecordSweep(report *namespace.Report) {
	if !c.config.Enabled || report == nil {
		return
	}
	c.sweepMetrics.Record(report, float64(c.now().Unix()))
}

// RecordRun records a backup run, including the sweep that followed it.
func (c *Collector) RecordRun(result *backup.RunResult) {
	if !c.config.Enabled || result == nil {
		return
	}
	c.backupMetrics.Record(result)
	c.RecordSweep(result.Report)
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes all metrics to the configured textfile path. It is a
// no-op when metrics are disabled.
func (c *Collector) WriteTextfile() error {
	if !c.config.Enabled {
		return nil
	}
	path := c.config.TextfilePath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	// WriteToTextfile writes to a temporary file and renames it, so
	// node_exporter never reads a partial file.
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
