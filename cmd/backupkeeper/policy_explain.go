package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/cli"
	"mercator-hq/backupkeeper/pkg/retention"
)

var explainFlags struct {
	date string
	now  string
}

var policyExplainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain the retention decision for a date",
	Long: `Show which rule governs a backup date and whether backups from that date
are kept.

Examples:
  backupkeeper policy explain --date 2025-03-14
  backupkeeper policy explain --date 2025-03-14 --now 2025-06-01 --output json`,
	RunE: explainPolicy,
}

func init() {
	policyCmd.AddCommand(policyExplainCmd)

	policyExplainCmd.Flags().StringVar(&explainFlags.date, "date", "", "backup date (RFC 3339 or YYYY-MM-DD)")
	policyExplainCmd.Flags().StringVar(&explainFlags.now, "now", "", "evaluation time (default now)")
	_ = policyExplainCmd.MarkFlagRequired("date")
}

type explainOutput struct {
	Date           time.Time   `json:"date"`
	Now            time.Time   `json:"now"`
	Keep           bool        `json:"keep"`
	RuleIndex      int         `json:"rule_index"`
	Rule           *ruleOutput `json:"rule,omitempty"`
	DaysSinceEpoch int64       `json:"days_since_epoch"`
	Reason         string      `json:"reason"`
}

func (e *explainOutput) RenderText(w io.Writer) error {
	verdict := "EVICT"
	if e.Keep {
		verdict = "KEEP"
	}
	fmt.Fprintf(w, "%s as of %s: %s\n", e.Date.Format(time.DateOnly), e.Now.Format(time.RFC3339), verdict)
	_, err := fmt.Fprintf(w, "  %s\n", e.Reason)
	return err
}

func explainPolicy(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}
	date, err := parseInstant(explainFlags.date, time.Time{})
	if err != nil || date.IsZero() {
		return cli.NewConfigError("date", "a backup date is required (YYYY-MM-DD or RFC 3339)")
	}
	now, err := parseInstant(explainFlags.now, time.Now().UTC())
	if err != nil {
		return cli.NewConfigError("now", err.Error())
	}

	path, err := policyPath()
	if err != nil {
		return err
	}
	policy, err := retention.LoadPolicyFile(path)
	if err != nil {
		return cli.NewConfigError("file", err.Error())
	}

	decision := policy.Evaluate(date, now)
	out := &explainOutput{
		Date:           date,
		Now:            now,
		Keep:           decision.Keep,
		RuleIndex:      decision.RuleIndex,
		DaysSinceEpoch: decision.DaysSinceEpoch,
		Reason:         decision.Reason(),
	}
	if decision.RuleIndex >= 0 {
		rule := newRuleOutput(decision.Rule)
		out.Rule = &rule
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), out)
}
