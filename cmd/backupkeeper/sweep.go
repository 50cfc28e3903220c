package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/cli"
	"mercator-hq/backupkeeper/pkg/history"
	"mercator-hq/backupkeeper/pkg/namespace"
)

var sweepFlags struct {
	now         string
	dryRun      bool
	concurrency int
	policy      string
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Apply the retention policy without uploading",
	Long: `Apply the retention policy to every artifact in the namespace and remove
nodes left empty. Nothing is uploaded.

Store failures stop only the subtree they occur in. If any occurred the
command prints the report and exits with status 3.

Examples:
  # Show what the policy would remove today
  backupkeeper sweep --dry-run

  # Evaluate as of a future date
  backupkeeper sweep --dry-run --now 2026-01-01

  # Try a candidate policy against the live namespace
  backupkeeper sweep --dry-run --policy candidate.yaml`,
	RunE: sweepNamespace,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepFlags.now, "now", "", "evaluate the policy at this time (RFC 3339 or YYYY-MM-DD)")
	sweepCmd.Flags().BoolVar(&sweepFlags.dryRun, "dry-run", false, "report evictions without deleting")
	sweepCmd.Flags().IntVar(&sweepFlags.concurrency, "concurrency", 0, "override sweep.concurrency")
	sweepCmd.Flags().StringVar(&sweepFlags.policy, "policy", "", "policy file (default retention.policy_path)")
}

func sweepNamespace(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	now, err := parseInstant(sweepFlags.now, time.Now().UTC())
	if err != nil {
		return cli.NewConfigError("now", err.Error())
	}

	policy, err := a.loadPolicy(sweepFlags.policy)
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

	sweeper := namespace.NewSweeper(store, policy, sweepOptions(a, sweepFlags.dryRun, sweepFlags.concurrency))

	run := history.NewRun(history.KindSweep, now)
	report, sweepErr := sweeper.Sweep(ctx, now)
	run.ApplyReport(report)
	run.Finish(sweepErr)
	a.record(ctx, run)

	a.metrics.RecordSweep(report)
	a.flushMetrics()

	if err := a.print(cmd.OutOrStdout(), newSweepOutput(run.ID, report)); err != nil {
		return err
	}
	if sweepErr != nil {
		return cli.NewExitError(cli.ExitPartial, fmt.Errorf("sweep finished with errors: %w", sweepErr))
	}
	return nil
}
