package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/cli"
	"mercator-hq/backupkeeper/pkg/history"
)

var historyFlags struct {
	limit int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs and sweeps",
	Long: `List the most recent runs and sweeps recorded in the history ledger,
newest first.

Examples:
  backupkeeper history
  backupkeeper history --limit 5 --output json`,
	RunE: listHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "number of runs to show")
}

type historyOutput struct {
	Runs []history.Run `json:"runs"`
}

func (h historyOutput) RenderText(w io.Writer) error {
	if len(h.Runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}
	for _, r := range h.Runs {
		status := "✓"
		if r.Error != "" {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s  %-5s  %s", status, r.StartedAt.Format(time.RFC3339), r.Kind, r.ID)
		if r.DryRun {
			fmt.Fprint(w, "  (dry run)")
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "    uploaded=%d failed=%d kept=%d evicted=%d pruned=%d store_errors=%d\n",
			r.Uploaded, r.UploadFailures, r.Kept, r.Evicted, r.Pruned, r.StoreErrors)
		if r.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", r.Error)
		}
	}
	return nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ledger, err := a.openLedger()
	if err != nil {
		return err
	}
	if ledger == nil {
		return cli.NewConfigError("history.enabled", "run history is disabled")
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	runs, err := ledger.Recent(ctx, historyFlags.limit)
	if err != nil {
		return err
	}
	return a.print(cmd.OutOrStdout(), historyOutput{Runs: runs})
}
