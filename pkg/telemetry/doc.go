// Package telemetry groups backupkeeper's observability packages.
//
//   - logging: slog handler setup with credential redaction
//   - metrics: Prometheus counters flushed to a node_exporter textfile
//   - tracing: OpenTelemetry provider setup and OTLP export
//   - health: preflight checks for the store, policy and spool directory
//
// A command wires them up once at startup:
//
//	logging.Setup(cfg.Telemetry.Logging, os.Stderr)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(ctx)
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	defer collector.WriteTextfile()
package telemetry
