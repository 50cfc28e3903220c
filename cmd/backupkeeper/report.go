package main

import (
	"fmt"
	"io"
	"time"

	"mercator-hq/backupkeeper/pkg/namespace"
	"mercator-hq/backupkeeper/pkg/retention"
)

// sweepOutput is the printable form of a namespace.Report.
type sweepOutput struct {
	RunID   string                      `json:"run_id,omitempty"`
	Summary namespace.Summary           `json:"summary"`
	Evicted []namespace.EvictedArtifact `json:"evicted"`
	Pruned  []namespace.Node            `json:"pruned"`
	Errors  []string                    `json:"errors,omitempty"`
}

func newSweepOutput(runID string, report *namespace.Report) *sweepOutput {
	if report == nil {
		return nil
	}
	return &sweepOutput{
		RunID:   runID,
		Summary: report.Summary(),
		Evicted: report.Evicted,
		Pruned:  report.Pruned,
		Errors:  reportErrors(report),
	}
}

func reportErrors(report *namespace.Report) []string {
	var out []string
	for _, err := range report.StoreErrors {
		out = append(out, err.Error())
	}
	for _, err := range report.ArtifactFailures {
		out = append(out, err.Error())
	}
	for _, err := range report.PruneFailures {
		out = append(out, err.Error())
	}
	return out
}

func (s *sweepOutput) RenderText(w io.Writer) error {
	verb := "Evicted"
	if s.Summary.DryRun {
		verb = "Would evict"
	}

	fmt.Fprintf(w, "Retention sweep at %s", s.Summary.Now.Format(time.RFC3339))
	if s.Summary.DryRun {
		fmt.Fprint(w, " (dry run)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Nodes visited:     %d\n", s.Summary.Visited)
	fmt.Fprintf(w, "  Artifacts kept:    %d\n", s.Summary.Kept)
	fmt.Fprintf(w, "  %-18s %d\n", verb+":", s.Summary.Evicted)
	fmt.Fprintf(w, "  Nodes pruned:      %d\n", s.Summary.Pruned)
	fmt.Fprintf(w, "  Duration:          %dms\n", s.Summary.DurationMS)

	for _, e := range s.Evicted {
		fmt.Fprintf(w, "  - %s %s (%s): %s\n",
			e.Artifact.Name, e.Artifact.CreatedAt.Format(time.DateOnly), e.NodeID, e.Reason)
	}
	for _, n := range s.Pruned {
		fmt.Fprintf(w, "  - pruned node %s (%s)\n", n.DisplayName, n.ID)
	}

	if len(s.Errors) > 0 {
		fmt.Fprintf(w, "✗ %d errors:\n", len(s.Errors))
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	return nil
}

// ruleOutput is the printable form of a retention.Rule.
type ruleOutput struct {
	KeepEvery   string `json:"keep_every"`
	Window      string `json:"duration,omitempty"`
	Unbounded   bool   `json:"unbounded"`
	Description string `json:"description"`
}

func newRuleOutput(rule retention.Rule) ruleOutput {
	out := ruleOutput{
		KeepEvery:   retention.FormatDays(rule.KeepEvery),
		Unbounded:   rule.IsUnbounded(),
		Description: rule.String(),
	}
	if !rule.IsUnbounded() {
		out.Window = retention.FormatDays(rule.Window)
	}
	return out
}
