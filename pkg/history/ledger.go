package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/backupkeeper/pkg/namespace"
)

// Kind distinguishes full backup runs from retention-only sweeps.
type Kind string

const (
	KindRun   Kind = "run"
	KindSweep Kind = "sweep"
)

// Run is one recorded invocation.
type Run struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// EvaluatedAt is the "now" the retention policy was evaluated at.
	EvaluatedAt time.Time `json:"evaluated_at"`
	DryRun      bool      `json:"dry_run"`

	Uploaded       int `json:"uploaded"`
	UploadFailures int `json:"upload_failures"`
	Kept           int `json:"kept"`
	Evicted        int `json:"evicted"`
	Pruned         int `json:"pruned"`
	PruneFailures  int `json:"prune_failures"`
	StoreErrors    int `json:"store_errors"`

	// Error is the run's terminal error message, empty on success.
	Error string `json:"error,omitempty"`
}

// NewRun starts a run record with a fresh ID.
func NewRun(kind Kind, evaluatedAt time.Time) *Run {
	return &Run{
		ID:          uuid.NewString(),
		Kind:        kind,
		StartedAt:   time.Now().UTC(),
		EvaluatedAt: evaluatedAt,
	}
}

// ApplyReport copies sweep counters into the run.
func (r *Run) ApplyReport(report *namespace.Report) {
	if report == nil {
		return
	}
	s := report.Summary()
	r.DryRun = s.DryRun
	r.Kept = s.Kept
	r.Evicted = s.Evicted
	r.Pruned = s.Pruned
	r.PruneFailures = s.PruneFailures
	r.StoreErrors = s.StoreErrors
}

// Finish stamps the end time and terminal error.
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Error = err.Error()
	}
}

// Ledger persists run records in SQLite.
type Ledger struct {
	db         *sql.DB
	path       string
	logger     *slog.Logger
	insertStmt *sql.Stmt
	recentStmt *sql.Stmt
	closeOnce  sync.Once
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, 5000)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	l := &Ledger{
		db:     db,
		path:   path,
		logger: slog.Default().With("component", "history.ledger"),
	}

	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := l.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return l, nil
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		evaluated_at INTEGER NOT NULL,
		dry_run INTEGER NOT NULL,
		uploaded INTEGER NOT NULL,
		upload_failures INTEGER NOT NULL,
		kept INTEGER NOT NULL,
		evicted INTEGER NOT NULL,
		pruned INTEGER NOT NULL,
		prune_failures INTEGER NOT NULL,
		store_errors INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
	`
	_, err := l.db.Exec(schema)
	return err
}

func (l *Ledger) prepareStatements() error {
	var err error

	l.insertStmt, err = l.db.Prepare(`
		INSERT INTO runs (id, kind, started_at, finished_at, evaluated_at, dry_run,
			uploaded, upload_failures, kept, evicted, pruned, prune_failures, store_errors, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	l.recentStmt, err = l.db.Prepare(`
		SELECT id, kind, started_at, finished_at, evaluated_at, dry_run,
			uploaded, upload_failures, kept, evicted, pruned, prune_failures, store_errors, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare recent statement: %w", err)
	}

	return nil
}

// Record persists a run. A missing ID is assigned.
func (l *Ledger) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	_, err := l.insertStmt.ExecContext(ctx,
		run.ID, string(run.Kind),
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(), run.EvaluatedAt.UnixNano(),
		boolToInt(run.DryRun),
		run.Uploaded, run.UploadFailures, run.Kept, run.Evicted, run.Pruned,
		run.PruneFailures, run.StoreErrors, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}

	l.logger.Debug("run recorded", "run_id", run.ID, "kind", run.Kind)
	return nil
}

// Recent returns up to limit runs, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.recentStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run    Run
			kind   string
			dryRun int

			startedAt, finishedAt, evaluatedAt int64
		)
		if err := rows.Scan(&run.ID, &kind, &startedAt, &finishedAt, &evaluatedAt, &dryRun,
			&run.Uploaded, &run.UploadFailures, &run.Kept, &run.Evicted, &run.Pruned,
			&run.PruneFailures, &run.StoreErrors, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Kind = Kind(kind)
		run.StartedAt = time.Unix(0, startedAt).UTC()
		run.FinishedAt = time.Unix(0, finishedAt).UTC()
		run.EvaluatedAt = time.Unix(0, evaluatedAt).UTC()
		run.DryRun = dryRun != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.insertStmt != nil {
			l.insertStmt.Close()
		}
		if l.recentStmt != nil {
			l.recentStmt.Close()
		}
		err = l.db.Close()
	})
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
