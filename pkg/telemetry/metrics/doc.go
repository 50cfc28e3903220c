// Package metrics collects Prometheus metrics for backup runs and retention
// sweeps.
//
// The namespace package stays free of metrics: callers hand the finished
// namespace.Report (or backup.RunResult) to the Collector, which turns it
// into counters. Because backupkeeper exits after each run, metrics are
// written with prometheus.WriteToTextfile for node_exporter's textfile
// collector rather than served over HTTP.
//
// # Metrics
//
//   - backupkeeper_artifacts_evicted_total
//   - backupkeeper_artifacts_kept_total
//   - backupkeeper_nodes_pruned_total
//   - backupkeeper_prune_failures_total
//   - backupkeeper_store_errors_total{operation}
//   - backupkeeper_sweep_duration_seconds
//   - backupkeeper_last_sweep_timestamp_seconds
//   - backupkeeper_backups_uploaded_total
//   - backupkeeper_backup_failures_total
//   - backupkeeper_backup_bytes_total
package metrics
