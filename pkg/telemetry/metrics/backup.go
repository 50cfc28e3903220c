package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/backupkeeper/pkg/backup"
	"mercator-hq/backupkeeper/pkg/config"
)

// BackupMetrics tracks dump uploads.
//
// Metrics:
//   - backupkeeper_backups_uploaded_total: Dumps stored
//   - backupkeeper_backup_failures_total: Sources whose dump could not be stored
//   - backupkeeper_backup_bytes_total: Bytes uploaded
type BackupMetrics struct {
	uploadedTotal prometheus.Counter
	failuresTotal prometheus.Counter
	bytesTotal    prometheus.Counter
}

// NewBackupMetrics creates and registers backup metrics with the provided registry.
func NewBackupMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BackupMetrics {
	bm := &BackupMetrics{
		uploadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "backups_uploaded_total",
			Help:      "Total number of backup dumps stored",
		}),
		failuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "backup_failures_total",
			Help:      "Total number of backup sources that could not be stored",
		}),
		bytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "backup_bytes_total",
			Help:      "Total number of bytes uploaded",
		}),
	}

	registry.MustRegister(bm.uploadedTotal, bm.failuresTotal, bm.bytesTotal)
	return bm
}

// Record adds the uploads of one run.
func (bm *BackupMetrics) Record(result *backup.RunResult) {
	bm.uploadedTotal.Add(float64(len(result.Uploaded)))
	bm.failuresTotal.Add(float64(len(result.Failures)))

	var total int64
	for _, u := range result.Uploaded {
		total += u.Size
	}
	bm.bytesTotal.Add(float64(total))
}
