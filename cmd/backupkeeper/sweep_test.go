package main

import (
	"testing"

	"mercator-hq/backupkeeper/pkg/cli"
)

// seedDays runs one backup on each of the given days.
func seedDays(t *testing.T, env *testEnv, days ...string) {
	t.Helper()
	for _, day := range days {
		env.spoolDump(t, "db.sql", "-- dump "+day)
		runFlags.now = day + "T02:00:00Z"
		if _, err := execute(t, runBackup); err != nil {
			t.Fatalf("runBackup(%s) error = %v", day, err)
		}
	}
	runFlags.now = ""
}

func TestSweepDryRunThenApply(t *testing.T) {
	env := setupTestEnv(t)
	seedDays(t, env, "2024-01-01", "2024-01-02", "2024-01-03")

	sweepFlags.now = "2024-02-01"
	sweepFlags.dryRun = true

	out, err := execute(t, sweepNamespace)
	if err != nil {
		t.Fatalf("dry run error = %v", err)
	}
	var dry sweepOutput
	decode(t, out, &dry)

	if !dry.Summary.DryRun || dry.Summary.Evicted != 2 || dry.Summary.Kept != 1 {
		t.Errorf("Unexpected dry-run summary: %+v", dry.Summary)
	}

	sweepFlags.dryRun = false
	out, err = execute(t, sweepNamespace)
	if err != nil {
		t.Fatalf("sweep error = %v", err)
	}
	var applied sweepOutput
	decode(t, out, &applied)

	if applied.Summary.Evicted != 2 || applied.Summary.Pruned != 2 {
		t.Errorf("Unexpected sweep summary: %+v", applied.Summary)
	}

	// Nothing left to evict.
	out, err = execute(t, sweepNamespace)
	if err != nil {
		t.Fatalf("second sweep error = %v", err)
	}
	var again sweepOutput
	decode(t, out, &again)
	if again.Summary.Evicted != 0 || again.Summary.Kept != 1 {
		t.Errorf("Expected idempotent sweep, got %+v", again.Summary)
	}
}

func TestSweepPolicyOverride(t *testing.T) {
	env := setupTestEnv(t)
	seedDays(t, env, "2024-01-01")

	sweepFlags.policy = env.dir + "/missing.yaml"
	_, err := execute(t, sweepNamespace)
	if code := cli.ExitCode(err); code != cli.ExitUsage {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitUsage)
	}
}

func TestSweepOptions(t *testing.T) {
	env := setupTestEnv(t)
	env.cfg.Sweep.Concurrency = 2

	a := &app{cfg: env.cfg}

	opts := sweepOptions(a, false, 0)
	if opts.Concurrency != 2 || opts.DryRun {
		t.Errorf("Expected configured options, got %+v", opts)
	}

	opts = sweepOptions(a, true, 8)
	if opts.Concurrency != 8 || !opts.DryRun {
		t.Errorf("Expected overrides to win, got %+v", opts)
	}
}
