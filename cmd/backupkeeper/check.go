package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/cli"
	"mercator-hq/backupkeeper/pkg/telemetry/health"
)

var checkFlags struct {
	timeout time.Duration
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the store, policy and spool are usable",
	Long: `Run preflight checks before scheduling backupkeeper: the store answers, the
retention policy loads, and the spool directory exists.

Exits with status 1 if any check fails.

Examples:
  backupkeeper check
  backupkeeper check --timeout 2s --output json`,
	RunE: runChecks,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkFlags.timeout, "timeout", 5*time.Second, "timeout per check")
}

type checkOutput struct {
	health.Status
}

func (c checkOutput) RenderText(w io.Writer) error {
	for _, r := range c.Checks {
		mark := "✓"
		if r.Status != health.StatusOK {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %-8s %s", mark, r.Name, r.Duration.Round(time.Millisecond))
		if r.Message != "" {
			fmt.Fprintf(w, "  %s", r.Message)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func runChecks(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	checker := health.New(checkFlags.timeout)
	checker.Register("policy", health.PolicyCheck(a.cfg.Retention.PolicyPath))
	checker.Register("spool", health.DirCheck(a.cfg.Backup.SpoolDir))

	if store, err := a.openStore(); err != nil {
		openErr := err
		checker.Register("store", func(ctx context.Context) error { return openErr })
	} else {
		checker.Register("store", health.StoreCheck(store))
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	status := checker.Run(ctx)
	if err := a.print(cmd.OutOrStdout(), checkOutput{Status: status}); err != nil {
		return err
	}
	if !status.Healthy {
		return cli.NewExitError(cli.ExitFailure, errors.New("preflight checks failed"))
	}
	return nil
}
