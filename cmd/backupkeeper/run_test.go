package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/backupkeeper/pkg/backup"
	"mercator-hq/backupkeeper/pkg/cli"
)

func TestRunBackup(t *testing.T) {
	env := setupTestEnv(t)
	env.spoolDump(t, "orders.sql", "-- orders dump")
	env.spoolDump(t, "users_2024-01-01_02-00-00.sql", "-- users dump")
	runFlags.now = "2024-01-01T02:00:00Z"

	out, err := execute(t, runBackup)
	if err != nil {
		t.Fatalf("runBackup() error = %v", err)
	}

	var result runOutput
	decode(t, out, &result)

	if result.RunID == "" || result.NodeID == "" {
		t.Errorf("Expected run and node ids, got %+v", result)
	}
	if len(result.Uploaded) != 2 {
		t.Fatalf("Expected 2 uploads, got %+v", result.Uploaded)
	}
	if result.Sweep == nil || result.Sweep.Summary.Kept != 2 {
		t.Errorf("Expected sweep keeping both uploads, got %+v", result.Sweep)
	}

	for _, name := range []string{"orders.sql", "users_2024-01-01_02-00-00.sql"} {
		if _, err := os.Stat(filepath.Join(env.spool, name+backup.UploadedSuffix)); err != nil {
			t.Errorf("Expected %s to be marked uploaded: %v", name, err)
		}
	}
}

func TestRunBackupTextOutput(t *testing.T) {
	env := setupTestEnv(t)
	env.spoolDump(t, "orders.sql", "-- orders dump")
	runFlags.now = "2024-01-01"
	outputFormat = "text"

	out, err := execute(t, runBackup)
	if err != nil {
		t.Fatalf("runBackup() error = %v", err)
	}
	if !strings.Contains(out, "Uploaded 1 dumps") || !strings.Contains(out, "Retention sweep") {
		t.Errorf("Unexpected text output:\n%s", out)
	}
}

func TestRunBackupMissingSpool(t *testing.T) {
	env := setupTestEnv(t)
	if err := os.RemoveAll(env.spool); err != nil {
		t.Fatal(err)
	}
	runFlags.now = "2024-01-01"

	_, err := execute(t, runBackup)
	if err == nil {
		t.Fatal("Expected error when the spool cannot be listed")
	}
	if code := cli.ExitCode(err); code != cli.ExitFailure {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitFailure)
	}
}

func TestRunBackupInvalidPolicy(t *testing.T) {
	env := setupTestEnv(t)
	if err := os.WriteFile(env.policy, []byte("rules:\n  - keep_every: 0d\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, runBackup)
	if code := cli.ExitCode(err); code != cli.ExitUsage {
		t.Errorf("ExitCode() = %d, want %d (err = %v)", code, cli.ExitUsage, err)
	}
}

func TestRunBackupInvalidNow(t *testing.T) {
	setupTestEnv(t)
	runFlags.now = "yesterday"

	_, err := execute(t, runBackup)
	if code := cli.ExitCode(err); code != cli.ExitUsage {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitUsage)
	}
}
