package namespace

import (
	"sync"
	"time"
)

// EvictedArtifact records one artifact removed (or, in a dry run, selected
// for removal) by a sweep.
type EvictedArtifact struct {
	NodeID   string   `json:"node_id"`
	Artifact Artifact `json:"artifact"`
	Reason   string   `json:"reason"`
}

// Report is the outcome of a sweep. Fields are safe to read once the sweep
// has returned.
type Report struct {
	Now      time.Time
	DryRun   bool
	Duration time.Duration

	// Visited counts nodes whose artifacts were listed.
	Visited int

	// Kept counts artifacts the policy retained.
	Kept int

	Evicted []EvictedArtifact
	Pruned  []Node

	// PruneFailures lists empty nodes that could not be deleted.
	PruneFailures []*PruneDeleteError

	// ArtifactFailures lists evictions the store rejected.
	ArtifactFailures []*StoreOperationError

	// StoreErrors lists list/create failures that cut a subtree short.
	StoreErrors []*StoreOperationError

	mu sync.Mutex
}

// Summary is the JSON-friendly digest of a Report.
type Summary struct {
	Now              time.Time `json:"now"`
	DryRun           bool      `json:"dry_run"`
	DurationMS       int64     `json:"duration_ms"`
	Visited          int       `json:"visited"`
	Kept             int       `json:"kept"`
	Evicted          int       `json:"evicted"`
	Pruned           int       `json:"pruned"`
	PruneFailures    int       `json:"prune_failures"`
	ArtifactFailures int       `json:"artifact_failures"`
	StoreErrors      int       `json:"store_errors"`
}

func newReport(now time.Time, dryRun bool) *Report {
	return &Report{Now: now, DryRun: dryRun}
}

// Summary returns the report's counters.
func (r *Report) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Summary{
		Now:              r.Now,
		DryRun:           r.DryRun,
		DurationMS:       r.Duration.Milliseconds(),
		Visited:          r.Visited,
		Kept:             r.Kept,
		Evicted:          len(r.Evicted),
		Pruned:           len(r.Pruned),
		PruneFailures:    len(r.PruneFailures),
		ArtifactFailures: len(r.ArtifactFailures),
		StoreErrors:      len(r.StoreErrors),
	}
}

func (r *Report) visit() {
	r.mu.Lock()
	r.Visited++
	r.mu.Unlock()
}

func (r *Report) keep() {
	r.mu.Lock()
	r.Kept++
	r.mu.Unlock()
}

func (r *Report) evict(node Node, artifact Artifact, reason string) {
	r.mu.Lock()
	r.Evicted = append(r.Evicted, EvictedArtifact{NodeID: node.ID, Artifact: artifact, Reason: reason})
	r.mu.Unlock()
}

func (r *Report) prune(node Node) {
	r.mu.Lock()
	r.Pruned = append(r.Pruned, node)
	r.mu.Unlock()
}

func (r *Report) pruneFailure(err *PruneDeleteError) {
	r.mu.Lock()
	r.PruneFailures = append(r.PruneFailures, err)
	r.mu.Unlock()
}

func (r *Report) artifactFailure(err *StoreOperationError) {
	r.mu.Lock()
	r.ArtifactFailures = append(r.ArtifactFailures, err)
	r.mu.Unlock()
}

func (r *Report) storeError(err *StoreOperationError) {
	r.mu.Lock()
	r.StoreErrors = append(r.StoreErrors, err)
	r.mu.Unlock()
}
