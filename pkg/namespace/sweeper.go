package namespace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"mercator-hq/backupkeeper/pkg/retention"
)

// SweepOptions tunes a Sweeper.
type SweepOptions struct {
	// Concurrency is the number of subtrees swept in parallel.
	// Values below 2 sweep sequentially.
	Concurrency int

	// DryRun evaluates the policy and reports what would be evicted and
	// pruned without modifying the store.
	DryRun bool
}

// Sweeper applies a retention policy to every artifact in the namespace and
// removes nodes left empty.
type Sweeper struct {
	store  Store
	policy *retention.Policy
	opts   SweepOptions
	logger *slog.Logger
}

// NewSweeper creates a sweeper.
func NewSweeper(store Store, policy *retention.Policy, opts SweepOptions) *Sweeper {
	return &Sweeper{
		store:  store,
		policy: policy,
		opts:   opts,
		logger: slog.Default().With("component", "namespace.sweeper"),
	}
}

// Sweep sweeps every top-level node of the namespace at now.
//
// The returned report is never nil. Store failures stop only the subtree
// they occur in; all of them are joined into the returned error.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (*Report, error) {
	roots, err := s.store.ListChildren(ctx, RootID)
	if err != nil {
		report := newReport(now, s.opts.DryRun)
		opErr := NewStoreOperationError(OpListChildren, RootID, err)
		report.storeError(opErr)
		return report, opErr
	}
	return s.SweepNodes(ctx, roots, now)
}

// SweepNodes sweeps the given subtrees at now. Each node is visited in
// post-order: its own artifacts first, then its children, then the node
// itself is pruned if it ended up empty.
func (s *Sweeper) SweepNodes(ctx context.Context, nodes []Node, now time.Time) (*Report, error) {
	report := newReport(now, s.opts.DryRun)
	start := time.Now()

	ctx, span := tracer().Start(ctx, "namespace.sweep", trace.WithAttributes(
		attribute.Int("namespace.roots", len(nodes)),
		attribute.Bool("namespace.dry_run", s.opts.DryRun),
	))
	defer span.End()

	run := &sweep{
		Sweeper: s,
		now:     now,
		report:  report,
	}
	if s.opts.Concurrency > 1 {
		run.slots = semaphore.NewWeighted(int64(s.opts.Concurrency - 1))
	}

	_, err := run.siblings(ctx, nodes)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.Join(fmt.Errorf("sweep interrupted after %d nodes: %w", report.Visited, ctxErr), err)
	}

	report.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("namespace.evicted", len(report.Evicted)),
		attribute.Int("namespace.pruned", len(report.Pruned)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	s.logger.Info("retention sweep completed",
		"now", now,
		"dry_run", s.opts.DryRun,
		"visited", report.Visited,
		"kept", report.Kept,
		"evicted", len(report.Evicted),
		"pruned", len(report.Pruned),
		"prune_failures", len(report.PruneFailures),
		"artifact_failures", len(report.ArtifactFailures),
		"store_errors", len(report.StoreErrors),
		"duration", report.Duration,
	)

	return report, err
}

// sweep carries the state of one SweepNodes call.
type sweep struct {
	*Sweeper
	now    time.Time
	report *Report

	// slots bounds the extra goroutines of a parallel sweep. Nil when
	// sequential.
	slots *semaphore.Weighted
}

// siblings sweeps nodes and reports whether every one of them was (or, in
// a dry run, would be) pruned. A sibling that fails does not stop the
// others.
func (w *sweep) siblings(ctx context.Context, nodes []Node) (bool, error) {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		errs    []error
		removed = true
	)

	visit := func(node Node) {
		gone, err := w.node(ctx, node)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
		if !gone {
			removed = false
		}
	}

	for _, node := range nodes {
		if ctx.Err() != nil {
			removed = false
			break
		}
		if w.slots != nil && w.slots.TryAcquire(1) {
			g.Go(func() error {
				defer w.slots.Release(1)
				visit(node)
				return nil
			})
			continue
		}
		visit(node)
	}
	_ = g.Wait()

	return removed, errors.Join(errs...)
}

// node sweeps one subtree and reports whether the node itself was removed.
func (w *sweep) node(ctx context.Context, node Node) (bool, error) {
	if ctx.Err() != nil {
		return false, nil
	}

	ctx, span := tracer().Start(ctx, "namespace.sweep_node", trace.WithAttributes(
		attribute.String("namespace.node_id", node.ID),
		attribute.String("namespace.display_name", node.DisplayName),
	))
	defer span.End()

	w.report.visit()

	artifacts, err := w.store.ListArtifacts(ctx, node.ID)
	if err != nil {
		return false, w.fail(span, NewStoreOperationError(OpListArtifacts, node.ID, err))
	}

	evicted := 0
	for _, artifact := range artifacts {
		decision := w.policy.Evaluate(artifact.CreatedAt, w.now)
		if decision.Keep {
			w.report.keep()
			continue
		}

		if !w.opts.DryRun {
			if err := w.store.DeleteArtifact(ctx, node.ID, artifact.ID); err != nil {
				opErr := NewStoreOperationError(OpDeleteArtifact, node.ID, err)
				w.report.artifactFailure(opErr)
				w.logger.Warn("failed to evict artifact",
					"node_id", node.ID,
					"artifact_id", artifact.ID,
					"artifact_name", artifact.Name,
					"error", err,
				)
				continue
			}
		}

		evicted++
		w.report.evict(node, artifact, decision.Reason())
		w.logger.Debug("evicted artifact",
			"node_id", node.ID,
			"artifact_name", artifact.Name,
			"created_at", artifact.CreatedAt,
			"reason", decision.Reason(),
			"dry_run", w.opts.DryRun,
		)
	}

	children, err := w.store.ListChildren(ctx, node.ID)
	if err != nil {
		return false, w.fail(span, NewStoreOperationError(OpListChildren, node.ID, err))
	}

	childrenRemoved, childErr := w.siblings(ctx, children)
	if childErr != nil {
		span.RecordError(childErr)
	}

	// A node that kept every artifact it had cannot have become empty.
	if evicted == 0 && len(artifacts) > 0 {
		return false, childErr
	}
	if ctx.Err() != nil {
		return false, childErr
	}

	if w.opts.DryRun {
		if evicted == len(artifacts) && childrenRemoved {
			w.report.prune(node)
			return true, childErr
		}
		return false, childErr
	}

	empty, opErr := w.empty(ctx, node.ID)
	if opErr != nil {
		return false, errors.Join(childErr, w.fail(span, opErr))
	}
	if !empty {
		return false, childErr
	}

	if err := w.store.DeleteNode(ctx, node.ID); err != nil {
		pruneErr := NewPruneDeleteError(node, err)
		w.report.pruneFailure(pruneErr)
		span.RecordError(pruneErr)
		w.logger.Warn("failed to prune empty node",
			"node_id", node.ID,
			"display_name", node.DisplayName,
			"error", err,
		)
		return false, childErr
	}

	w.report.prune(node)
	w.logger.Debug("pruned empty node", "node_id", node.ID, "display_name", node.DisplayName)
	return true, childErr
}

// empty re-reads a node after its artifacts and children were swept.
func (w *sweep) empty(ctx context.Context, nodeID string) (bool, *StoreOperationError) {
	remaining, err := w.store.ListArtifacts(ctx, nodeID)
	if err != nil {
		return false, NewStoreOperationError(OpListArtifacts, nodeID, err)
	}
	if len(remaining) > 0 {
		return false, nil
	}

	children, err := w.store.ListChildren(ctx, nodeID)
	if err != nil {
		return false, NewStoreOperationError(OpListChildren, nodeID, err)
	}
	return len(children) == 0, nil
}

func (w *sweep) fail(span trace.Span, err *StoreOperationError) error {
	w.report.storeError(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	w.logger.Error("store operation failed, skipping subtree",
		"operation", err.Operation,
		"node_id", err.NodeID,
		"error", err.Cause,
	)
	return err
}
