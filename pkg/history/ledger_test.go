package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLedger_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	base := time.Date(2024, time.March, 1, 2, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		run := &Run{
			Kind:        KindSweep,
			StartedAt:   base.Add(time.Duration(i) * time.Hour),
			FinishedAt:  base.Add(time.Duration(i)*time.Hour + time.Minute),
			EvaluatedAt: base,
			Evicted:     i,
		}
		if err := l.Record(ctx, run); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
		if run.ID == "" {
			t.Error("Expected Record to assign an ID")
		}
	}

	runs, err := l.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].Evicted != 2 || runs[1].Evicted != 1 {
		t.Errorf("Expected newest first, got %+v", runs)
	}
	if !runs[0].EvaluatedAt.Equal(base) || runs[0].Kind != KindSweep {
		t.Errorf("Unexpected round trip: %+v", runs[0])
	}
}

func TestRun_Finish(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	run := NewRun(KindRun, time.Now())
	run.Uploaded = 2
	run.UploadFailures = 1
	run.DryRun = true
	run.Finish(errors.New("resolve failed"))

	if err := l.Record(ctx, run); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	runs, err := l.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID || got.Error != "resolve failed" || !got.DryRun || got.Uploaded != 2 || got.UploadFailures != 1 {
		t.Errorf("Unexpected run: %+v", got)
	}
	if got.FinishedAt.Before(got.StartedAt) {
		t.Error("Expected FinishedAt after StartedAt")
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Expected error for empty path")
	}
}
