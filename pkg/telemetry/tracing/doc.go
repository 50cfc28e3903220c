// Package tracing sets up OpenTelemetry for backupkeeper.
//
// New installs a global TracerProvider exporting over OTLP gRPC. The
// namespace and backup packages start their spans through otel.Tracer, so
// nothing else has to be passed around:
//
//	backup.run
//	├── namespace.resolve
//	└── namespace.sweep
//	    └── namespace.sweep_node (one per visited node, nested like the tree)
//
// With tracing disabled New returns a noop tracer and leaves the global
// provider untouched.
//
// # Sampling
//
// sample_ratio 1.0 samples every run and 0.0 none. Values in between sample
// by trace ID, wrapped in ParentBased so a run is sampled whole or not at
// all.
package tracing
