package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// createSampler creates a parent-based sampler for ratio.
//
// A ratio of 1.0 samples every run, 0.0 none; anything between samples by
// trace ID hash, so a decision made for a run covers every span in it.
func createSampler(ratio float64) (sdktrace.Sampler, error) {
	var baseSampler sdktrace.Sampler

	switch {
	case ratio < 0.0 || ratio > 1.0:
		return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
	case ratio == 1.0:
		baseSampler = sdktrace.AlwaysSample()
	case ratio == 0.0:
		baseSampler = sdktrace.NeverSample()
	default:
		baseSampler = sdktrace.TraceIDRatioBased(ratio)
	}

	return sdktrace.ParentBased(baseSampler), nil
}
