package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/config"
)

const tieredPolicy = `rules:
  - keep_every: 1d
    duration: 7d
  - keep_every: 7d
    duration: null
`

type testEnv struct {
	dir    string
	cfg    *config.Config
	policy string
	spool  string
}

// setupTestEnv installs a configuration backed by files under a temp dir and
// resets every command flag.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		policy: filepath.Join(dir, "retention.yaml"),
		spool:  filepath.Join(dir, "spool"),
	}
	if err := os.WriteFile(env.policy, []byte(tieredPolicy), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(env.spool, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewDefault()
	cfg.Store.SQLite.Path = filepath.Join(dir, "backups.db")
	cfg.Retention.PolicyPath = env.policy
	cfg.Backup.SpoolDir = env.spool
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.Telemetry.Logging.Level = "error"
	env.cfg = cfg

	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(nil) })

	cfgFile = ""
	verbose = false
	outputFormat = "json"
	policyFile = ""
	runFlags.now = ""
	runFlags.dryRun = false
	runFlags.concurrency = 0
	sweepFlags.now = ""
	sweepFlags.dryRun = false
	sweepFlags.concurrency = 0
	sweepFlags.policy = ""
	resolveFlags.date = ""
	treeFlags.artifacts = false
	treeFlags.depth = 0
	lintFlags.strict = false
	lintFlags.watch = false
	explainFlags.date = ""
	explainFlags.now = ""
	historyFlags.limit = 20
	simulateFlags.days = 365
	simulateFlags.perDay = 1
	simulateFlags.seed = 1
	simulateFlags.start = ""
	simulateFlags.progress = false
	simulateFlags.list = false
	checkFlags.timeout = 5 * time.Second

	return env
}

// spool writes a dump file into the spool directory.
func (e *testEnv) spoolDump(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.spool, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// execute runs a command function with its output captured.
func execute(t *testing.T, fn func(*cobra.Command, []string) error) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)

	err := fn(cmd, nil)
	return buf.String(), err
}

func decode(t *testing.T, out string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("failed to decode output %q: %v", out, err)
	}
}
