package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/cli"
	"mercator-hq/backupkeeper/pkg/retention"
)

var simulateFlags struct {
	days     int
	perDay   int
	seed     int64
	start    string
	progress bool
	list     bool
}

var policySimulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a policy over many days of backups",
	Long: `Simulate a backup job: each day, create backups at random times, apply the
policy, and advance the clock. Report how many backups survive and which
rule governs them.

The random source is seeded, so a given seed always produces the same
result.

Examples:
  # A year of daily backups
  backupkeeper policy simulate --days 365

  # Three backups a day for two years, listing survivors
  backupkeeper policy simulate --days 730 --per-day 3 --list`,
	RunE: simulatePolicy,
}

func init() {
	policyCmd.AddCommand(policySimulateCmd)

	policySimulateCmd.Flags().IntVar(&simulateFlags.days, "days", 365, "number of days to simulate")
	policySimulateCmd.Flags().IntVar(&simulateFlags.perDay, "per-day", 1, "backups created per day")
	policySimulateCmd.Flags().Int64Var(&simulateFlags.seed, "seed", 1, "random seed")
	policySimulateCmd.Flags().StringVar(&simulateFlags.start, "start", "", "first simulated day (default 2024-01-01)")
	policySimulateCmd.Flags().BoolVar(&simulateFlags.progress, "progress", false, "show a progress bar on stderr")
	policySimulateCmd.Flags().BoolVar(&simulateFlags.list, "list", false, "list every surviving backup")
}

type ruleSurvivors struct {
	RuleIndex   int    `json:"rule_index"`
	Description string `json:"description"`
	Survivors   int    `json:"survivors"`
}

type survivorOutput struct {
	CreatedAt time.Time `json:"created_at"`
	AgeDays   int64     `json:"age_days"`
}

type simulateOutput struct {
	Start     time.Time        `json:"start"`
	AsOf      time.Time        `json:"as_of"`
	Days      int              `json:"days"`
	PerDay    int              `json:"per_day"`
	Seed      int64            `json:"seed"`
	Created   int              `json:"created"`
	Evicted   int              `json:"evicted"`
	Surviving int              `json:"surviving"`
	ByRule    []ruleSurvivors  `json:"by_rule"`
	Uncovered int              `json:"uncovered"`
	Survivors []survivorOutput `json:"survivors,omitempty"`
}

func (s *simulateOutput) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Simulated %d days from %s (%d per day, seed %d)\n",
		s.Days, s.Start.Format(time.DateOnly), s.PerDay, s.Seed)
	fmt.Fprintf(w, "  Created:   %d\n", s.Created)
	fmt.Fprintf(w, "  Evicted:   %d\n", s.Evicted)
	fmt.Fprintf(w, "  Surviving: %d as of %s\n", s.Surviving, s.AsOf.Format(time.DateOnly))
	for _, r := range s.ByRule {
		fmt.Fprintf(w, "    rules[%d] %s: %d\n", r.RuleIndex, r.Description, r.Survivors)
	}
	if s.Uncovered > 0 {
		fmt.Fprintf(w, "    not covered by any rule: %d\n", s.Uncovered)
	}
	for _, sv := range s.Survivors {
		fmt.Fprintf(w, "  - %s (%dd old)\n", sv.CreatedAt.Format(time.RFC3339), sv.AgeDays)
	}
	return nil
}

func simulatePolicy(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}
	if simulateFlags.days < 1 {
		return cli.NewConfigError("days", "must be at least 1")
	}
	if simulateFlags.perDay < 0 {
		return cli.NewConfigError("per-day", "cannot be negative")
	}
	start, err := parseInstant(simulateFlags.start, retention.ReferenceEpoch)
	if err != nil {
		return cli.NewConfigError("start", err.Error())
	}

	path, err := policyPath()
	if err != nil {
		return err
	}
	policy, err := retention.LoadPolicyFile(path)
	if err != nil {
		return cli.NewConfigError("file", err.Error())
	}

	var progress cli.ProgressReporter = cli.NopProgress{}
	if simulateFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "days")
	}

	sim := retention.NewSimulator(policy, start, simulateFlags.seed)
	progress.Start(int64(simulateFlags.days))
	for day := 1; day <= simulateFlags.days; day++ {
		sim.Step(simulateFlags.perDay)
		progress.Update(int64(day))
	}
	progress.Finish()

	// The last policy application happened the day before the clock now reads.
	asOf := sim.Now().Add(-retention.Day)
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), summarizeSimulation(policy, sim, start, asOf))
}

func summarizeSimulation(policy *retention.Policy, sim *retention.Simulator, start, asOf time.Time) *simulateOutput {
	survivors := sim.Survivors()
	out := &simulateOutput{
		Start:     start,
		AsOf:      asOf,
		Days:      simulateFlags.days,
		PerDay:    simulateFlags.perDay,
		Seed:      simulateFlags.seed,
		Created:   simulateFlags.days * simulateFlags.perDay,
		Evicted:   sim.Evicted(),
		Surviving: len(survivors),
	}

	rules := policy.Rules()
	counts := make([]int, len(rules))
	for _, at := range survivors {
		decision := policy.Evaluate(at, asOf)
		if decision.RuleIndex < 0 {
			out.Uncovered++
		} else {
			counts[decision.RuleIndex]++
		}
		if simulateFlags.list {
			out.Survivors = append(out.Survivors, survivorOutput{
				CreatedAt: at,
				AgeDays:   int64(asOf.Sub(at) / retention.Day),
			})
		}
	}
	for i, rule := range rules {
		out.ByRule = append(out.ByRule, ruleSurvivors{RuleIndex: i, Description: rule.String(), Survivors: counts[i]})
	}
	return out
}
