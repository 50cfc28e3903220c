package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/backupkeeper/pkg/namespace"
)

func tracer() trace.Tracer {
	return otel.Tracer("mercator-hq/backupkeeper/pkg/backup")
}

// Target is the store a run uploads into.
type Target interface {
	namespace.Store
	namespace.ArtifactWriter
}

// UploadedArtifact describes one stored dump.
type UploadedArtifact struct {
	Source     string `json:"source"`
	ArtifactID string `json:"artifact_id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
}

// SourceFailure records a source whose dump could not be stored.
type SourceFailure struct {
	Source string `json:"source"`
	Err    error  `json:"-"`
}

func (f SourceFailure) Error() string {
	return fmt.Sprintf("backup of %s failed: %v", f.Source, f.Err)
}

func (f SourceFailure) Unwrap() error {
	return f.Err
}

// RunResult is the outcome of one backup run.
type RunResult struct {
	Now      time.Time
	NodeID   string
	Uploaded []UploadedArtifact
	Failures []SourceFailure

	// Report is the retention sweep that followed the uploads. It is nil
	// when the run stopped before sweeping.
	Report *namespace.Report

	// SweepErr holds store failures from the sweep. They do not fail the run.
	SweepErr error
}

// Orchestrator uploads the producer's dumps into today's node and then
// applies retention.
type Orchestrator struct {
	producer Producer
	target   Target
	resolver *namespace.Resolver
	sweeper  *namespace.Sweeper
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator. A nil sweeper skips retention.
func NewOrchestrator(producer Producer, target Target, sweeper *namespace.Sweeper) *Orchestrator {
	return &Orchestrator{
		producer: producer,
		target:   target,
		resolver: namespace.NewResolver(target),
		sweeper:  sweeper,
		logger:   slog.Default().With("component", "backup.orchestrator"),
	}
}

// Run performs a backup run at the current time.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	return o.RunAt(ctx, time.Now().UTC())
}

// RunAt performs a backup run as of now. Failing to resolve the day node or
// to list sources aborts the run; a failing source is logged and skipped.
// Retention is evaluated with the same now the uploads were dated with.
func (o *Orchestrator) RunAt(ctx context.Context, now time.Time) (*RunResult, error) {
	ctx, span := tracer().Start(ctx, "backup.run", trace.WithAttributes(
		attribute.String("backup.now", now.Format(time.RFC3339)),
	))
	defer span.End()

	result := &RunResult{Now: now}
	o.logger.Info("starting backup run", "now", now)

	nodeID, err := o.resolver.Resolve(ctx, now)
	if err != nil {
		return result, o.abort(span, fmt.Errorf("failed to resolve backup node: %w", err))
	}
	result.NodeID = nodeID

	sources, err := o.producer.Sources(ctx)
	if err != nil {
		return result, o.abort(span, fmt.Errorf("failed to list backup sources: %w", err))
	}
	o.logger.Info("found backup sources", "count", len(sources), "node_id", nodeID)

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return result, o.abort(span, fmt.Errorf("backup run interrupted: %w", err))
		}

		uploaded, err := o.upload(ctx, nodeID, source, now)
		if err != nil {
			o.logger.Error("backup failed", "source", source, "error", err)
			result.Failures = append(result.Failures, SourceFailure{Source: source, Err: err})
			continue
		}
		o.logger.Info("backup stored",
			"source", source,
			"artifact_id", uploaded.ArtifactID,
			"name", uploaded.Name,
			"size", uploaded.Size,
		)
		result.Uploaded = append(result.Uploaded, uploaded)
	}

	span.SetAttributes(
		attribute.Int("backup.uploaded", len(result.Uploaded)),
		attribute.Int("backup.failures", len(result.Failures)),
	)

	if o.sweeper != nil {
		result.Report, result.SweepErr = o.sweeper.Sweep(ctx, now)
		if result.SweepErr != nil {
			o.logger.Warn("retention sweep finished with errors", "error", result.SweepErr)
		}
	}

	o.logger.Info("completed backup run",
		"uploaded", len(result.Uploaded),
		"failures", len(result.Failures),
	)
	return result, nil
}

func (o *Orchestrator) upload(ctx context.Context, nodeID, source string, now time.Time) (UploadedArtifact, error) {
	dump, err := o.producer.Open(ctx, source)
	if err != nil {
		return UploadedArtifact{}, fmt.Errorf("failed to open dump: %w", err)
	}
	defer dump.Reader.Close()

	counter := &countingReader{r: dump.Reader}
	id, err := o.target.PutArtifact(ctx, nodeID, dump.Name, now, counter)
	if err != nil {
		return UploadedArtifact{}, namespace.NewStoreOperationError(namespace.OpPutArtifact, nodeID, err)
	}

	uploaded := UploadedArtifact{Source: source, ArtifactID: id, Name: dump.Name, Size: counter.n}

	// Stored already; a source whose Done fails is offered again next run.
	if err := o.producer.Done(ctx, source); err != nil {
		o.logger.Warn("failed to finalize backup source", "source", source, "error", err)
	}
	return uploaded, nil
}

func (o *Orchestrator) abort(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.logger.Error("backup run aborted", "error", err)
	return err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
