package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/backupkeeper/pkg/cli"
)

func writePolicy(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLintPolicy(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		strict    bool
		wantValid bool
		wantWarn  bool
		wantCode  int
	}{
		{
			name:      "valid tiered policy",
			content:   tieredPolicy,
			wantValid: true,
			wantCode:  cli.ExitOK,
		},
		{
			name:      "bounded last rule warns",
			content:   "rules:\n  - keep_every: 1d\n    duration: 7d\n",
			wantValid: true,
			wantWarn:  true,
			wantCode:  cli.ExitOK,
		},
		{
			name:      "warning fails in strict mode",
			content:   "rules:\n  - keep_every: 1d\n    duration: 7d\n",
			strict:    true,
			wantValid: true,
			wantWarn:  true,
			wantCode:  cli.ExitFailure,
		},
		{
			name:      "interval not a multiple of the previous",
			content:   "rules:\n  - keep_every: 2d\n    duration: 7d\n  - keep_every: 3d\n    duration: null\n",
			wantValid: false,
			wantCode:  cli.ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			policyFile = writePolicy(t, env.dir, "policy.yaml", tt.content)
			lintFlags.strict = tt.strict

			out, err := execute(t, lintPolicy)
			if code := cli.ExitCode(err); code != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d (err = %v)", code, tt.wantCode, err)
			}

			var result LintResult
			decode(t, out, &result)
			if result.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.Errors)
			}
			if (len(result.Warnings) > 0) != tt.wantWarn {
				t.Errorf("Warnings = %v, want warnings: %v", result.Warnings, tt.wantWarn)
			}
			if !result.Valid && len(result.Errors) == 0 {
				t.Error("Expected errors for an invalid policy")
			}
		})
	}
}

func TestLintPolicyUsesConfiguredPath(t *testing.T) {
	env := setupTestEnv(t)
	outputFormat = "text"

	out, err := execute(t, lintPolicy)
	if err != nil {
		t.Fatalf("lintPolicy() error = %v", err)
	}
	if !strings.Contains(out, env.policy) || !strings.Contains(out, "keep every 7d indefinitely") {
		t.Errorf("Unexpected lint output:\n%s", out)
	}
}

func TestExplainPolicy(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		now      string
		wantKeep bool
		wantRule int
	}{
		{name: "recent day kept by daily rule", date: "2024-01-30", now: "2024-02-01", wantKeep: true, wantRule: 0},
		{name: "old day off the weekly grid", date: "2024-01-02", now: "2024-02-01", wantKeep: false, wantRule: 1},
		{name: "old day on the weekly grid", date: "2024-01-08", now: "2024-02-01", wantKeep: true, wantRule: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestEnv(t)
			explainFlags.date = tt.date
			explainFlags.now = tt.now

			out, err := execute(t, explainPolicy)
			if err != nil {
				t.Fatalf("explainPolicy() error = %v", err)
			}

			var result explainOutput
			decode(t, out, &result)
			if result.Keep != tt.wantKeep || result.RuleIndex != tt.wantRule {
				t.Errorf("Got keep=%v rule=%d, want keep=%v rule=%d (%s)",
					result.Keep, result.RuleIndex, tt.wantKeep, tt.wantRule, result.Reason)
			}
			if result.Rule == nil {
				t.Error("Expected the governing rule in the output")
			}
		})
	}
}

func TestExplainPolicyRequiresDate(t *testing.T) {
	setupTestEnv(t)

	_, err := execute(t, explainPolicy)
	if code := cli.ExitCode(err); code != cli.ExitUsage {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitUsage)
	}
}

func TestSimulatePolicy(t *testing.T) {
	setupTestEnv(t)
	simulateFlags.days = 60
	simulateFlags.seed = 42

	out, err := execute(t, simulatePolicy)
	if err != nil {
		t.Fatalf("simulatePolicy() error = %v", err)
	}
	var first simulateOutput
	decode(t, out, &first)

	if first.Created != 60 {
		t.Errorf("Created = %d, want 60", first.Created)
	}
	if first.Surviving+first.Evicted != first.Created {
		t.Errorf("Surviving %d + Evicted %d != Created %d", first.Surviving, first.Evicted, first.Created)
	}
	if len(first.ByRule) != 2 || first.ByRule[0].Survivors < 7 {
		t.Errorf("Expected the daily rule to hold the last week, got %+v", first.ByRule)
	}
	if first.Uncovered != 0 {
		t.Errorf("Uncovered = %d, want 0 with a trailing unbounded rule", first.Uncovered)
	}

	out, err = execute(t, simulatePolicy)
	if err != nil {
		t.Fatalf("second simulatePolicy() error = %v", err)
	}
	var second simulateOutput
	decode(t, out, &second)
	if second.Surviving != first.Surviving || second.Evicted != first.Evicted {
		t.Errorf("Expected a reproducible simulation for a fixed seed")
	}
}

func TestSimulatePolicyListsSurvivors(t *testing.T) {
	setupTestEnv(t)
	simulateFlags.days = 10
	simulateFlags.perDay = 2
	simulateFlags.list = true

	out, err := execute(t, simulatePolicy)
	if err != nil {
		t.Fatalf("simulatePolicy() error = %v", err)
	}
	var result simulateOutput
	decode(t, out, &result)
	if len(result.Survivors) != result.Surviving {
		t.Errorf("Listed %d survivors, want %d", len(result.Survivors), result.Surviving)
	}
}

func TestSimulatePolicyRejectsBadFlags(t *testing.T) {
	setupTestEnv(t)
	simulateFlags.days = 0

	_, err := execute(t, simulatePolicy)
	if code := cli.ExitCode(err); code != cli.ExitUsage {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitUsage)
	}
}
