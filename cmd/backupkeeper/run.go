package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/backup"
	"mercator-hq/backupkeeper/pkg/cli"
	"mercator-hq/backupkeeper/pkg/history"
	"mercator-hq/backupkeeper/pkg/namespace"
)

var runFlags struct {
	now         string
	dryRun      bool
	concurrency int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload spooled dumps and apply retention",
	Long: `Upload every dump in the spool directory into today's day node, then apply
the retention policy to the whole namespace.

The day node (year/month/day) is created if needed. A dump that fails to
upload is logged and left in the spool for the next run; the other dumps
are still uploaded. Retention is evaluated with the same "now" the uploads
were dated with.

The command fails only if the day node cannot be resolved or the spool
cannot be listed. Eviction and prune failures are reported, not fatal.

Examples:
  # Regular run
  backupkeeper run

  # Upload, but only report what retention would remove
  backupkeeper run --dry-run

  # Backfill as of a past date
  backupkeeper run --now 2025-03-14T02:00:00Z`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.now, "now", "", "evaluate the run at this time (RFC 3339 or YYYY-MM-DD)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "report retention evictions without deleting")
	runCmd.Flags().IntVar(&runFlags.concurrency, "concurrency", 0, "override sweep.concurrency")
}

func runBackup(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	now, err := parseInstant(runFlags.now, time.Now().UTC())
	if err != nil {
		return cli.NewConfigError("now", err.Error())
	}

	policy, err := a.loadPolicy("")
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()
	ctx, cancel := cli.WithTimeout(ctx, a.cfg.Sweep.Timeout)
	defer cancel()

	sweeper := namespace.NewSweeper(store, policy, sweepOptions(a, runFlags.dryRun, runFlags.concurrency))
	producer := backup.NewSpoolProducer(a.cfg.Backup.SpoolDir, a.cfg.Backup.RemoveAfterUpload)
	orchestrator := backup.NewOrchestrator(producer, store, sweeper)

	run := history.NewRun(history.KindRun, now)
	result, runErr := orchestrator.RunAt(ctx, now)

	run.Uploaded = len(result.Uploaded)
	run.UploadFailures = len(result.Failures)
	run.ApplyReport(result.Report)
	run.Finish(runErr)
	a.record(ctx, run)

	a.metrics.RecordRun(result)
	a.flushMetrics()

	if runErr != nil {
		return runErr
	}
	return a.print(cmd.OutOrStdout(), newRunOutput(run.ID, result))
}

// sweepOptions merges configuration with command-line overrides.
func sweepOptions(a *app, dryRun bool, concurrency int) namespace.SweepOptions {
	opts := namespace.SweepOptions{
		Concurrency: a.cfg.Sweep.Concurrency,
		DryRun:      a.cfg.Sweep.DryRun,
	}
	if concurrency > 0 {
		opts.Concurrency = concurrency
	}
	if dryRun {
		opts.DryRun = true
	}
	return opts
}

type failureOutput struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type runOutput struct {
	RunID    string                    `json:"run_id"`
	Now      time.Time                 `json:"now"`
	NodeID   string                    `json:"node_id"`
	Uploaded []backup.UploadedArtifact `json:"uploaded"`
	Failures []failureOutput           `json:"failures,omitempty"`
	Sweep    *sweepOutput              `json:"sweep,omitempty"`
}

func newRunOutput(runID string, result *backup.RunResult) *runOutput {
	out := &runOutput{
		RunID:    runID,
		Now:      result.Now,
		NodeID:   result.NodeID,
		Uploaded: result.Uploaded,
		Sweep:    newSweepOutput("", result.Report),
	}
	for _, f := range result.Failures {
		out.Failures = append(out.Failures, failureOutput{Source: f.Source, Error: f.Err.Error()})
	}
	return out
}

func (r *runOutput) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Backup run %s at %s\n", r.RunID, r.Now.Format(time.RFC3339))
	fmt.Fprintf(w, "✓ Uploaded %d dumps into node %s\n", len(r.Uploaded), r.NodeID)
	for _, u := range r.Uploaded {
		fmt.Fprintf(w, "  - %s (%d bytes) from %s\n", u.Name, u.Size, u.Source)
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(w, "✗ %d dumps failed:\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  - %s: %s\n", f.Source, f.Error)
		}
	}
	if r.Sweep != nil {
		fmt.Fprintln(w)
		return r.Sweep.RenderText(w)
	}
	return nil
}
