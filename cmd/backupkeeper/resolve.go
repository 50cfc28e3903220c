package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/cli"
	"mercator-hq/backupkeeper/pkg/namespace"
)

var resolveFlags struct {
	date string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Get or create the node for a date",
	Long: `Resolve the year/month/day node for a date, creating missing levels, and
print its id. Resolving the same date again returns the same node.

Examples:
  backupkeeper resolve
  backupkeeper resolve --date 2025-03-14`,
	RunE: resolveDate,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveFlags.date, "date", "", "date to resolve (default today, UTC)")
}

type resolveOutput struct {
	Date   string `json:"date"`
	Path   string `json:"path"`
	NodeID string `json:"node_id"`
}

func (r resolveOutput) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s  %s\n", r.Path, r.NodeID)
	return err
}

func resolveDate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	date, err := parseInstant(resolveFlags.date, time.Now().UTC())
	if err != nil {
		return cli.NewConfigError("date", err.Error())
	}
	date = date.UTC()

	store, err := a.openStore()
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	resolver := namespace.NewResolver(store)
	nodeID, err := resolver.Resolve(ctx, date)
	if err != nil {
		return err
	}

	return a.print(cmd.OutOrStdout(), resolveOutput{
		Date:   date.Format(time.DateOnly),
		Path:   strings.Join(resolver.Path(date), "/"),
		NodeID: nodeID,
	})
}
