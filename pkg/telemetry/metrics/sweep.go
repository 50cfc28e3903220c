package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/backupkeeper/pkg/config"
	"mercator-hq/backupkeeper/pkg/namespace"
)

// SweepMetrics tracks retention sweeps.
//
// Metrics:
//   - backupkeeper_artifacts_evicted_total: Artifacts evicted by the policy
//   - backupkeeper_artifacts_kept_total: Artifacts the policy retained
//   - backupkeeper_nodes_pruned_total: Empty nodes deleted
//   - backupkeeper_prune_failures_total: Empty nodes that could not be deleted
//   - backupkeeper_store_errors_total: Failed store operations by operation
//   - backupkeeper_sweep_duration_seconds: Sweep duration
//   - backupkeeper_last_sweep_timestamp_seconds: When the last sweep finished
type SweepMetrics struct {
	evictedTotal       prometheus.Counter
	keptTotal          prometheus.Counter
	prunedTotal        prometheus.Counter
	pruneFailuresTotal prometheus.Counter
	storeErrorsTotal   *prometheus.CounterVec
	duration           prometheus.Histogram
	lastSweep          prometheus.Gauge
}

// NewSweepMetrics creates and registers sweep metrics with the provided registry.
func NewSweepMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SweepMetrics {
	sm := &SweepMetrics{
		evictedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "artifacts_evicted_total",
			Help:      "Total number of artifacts evicted by the retention policy",
		}),

		keptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "artifacts_kept_total",
			Help:      "Total number of artifacts retained by the retention policy",
		}),

		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "nodes_pruned_total",
			Help:      "Total number of empty namespace nodes deleted",
		}),

		pruneFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "prune_failures_total",
			Help:      "Total number of empty namespace nodes that could not be deleted",
		}),

		storeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "store_errors_total",
				Help:      "Total number of failed store operations",
			},
			[]string{"operation"},
		),

		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of retention sweeps in seconds",
			// Small trees finish in milliseconds, remote stores in minutes.
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 9), // 10ms to ~11m
		}),

		lastSweep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time the last retention sweep finished",
		}),
	}

	registry.MustRegister(
		sm.evictedTotal,
		sm.keptTotal,
		sm.prunedTotal,
		sm.pruneFailuresTotal,
		sm.storeErrorsTotal,
		sm.duration,
		sm.lastSweep,
	)

	return sm
}

// Record adds one sweep report. Dry runs change nothing in the store, so
// only their duration and timestamp are recorded.
func (sm *SweepMetrics) Record(report *namespace.Report, finishedAt float64) {
	sm.duration.Observe(report.Duration.Seconds())
	sm.lastSweep.Set(finishedAt)

	for _, err := range report.StoreErrors {
		sm.storeErrorsTotal.WithLabelValues(err.Operation).Inc()
	}
	for _, err := range report.ArtifactFailures {
		sm.storeErrorsTotal.WithLabelValues(err.Operation).Inc()
	}

	if report.DryRun {
		return
	}

	sm.keptTotal.Add(float64(report.Kept))
	sm.evictedTotal.Add(float64(len(report.Evicted)))
	sm.prunedTotal.Add(float64(len(report.Pruned)))
	sm.pruneFailuresTotal.Add(float64(len(report.PruneFailures)))
}
