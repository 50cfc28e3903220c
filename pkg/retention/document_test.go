package retention

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParsePolicy_YAML(t *testing.T) {
	doc := `
rules:
  - keep_every: P1D
    duration: P14D
  - keep_every: 2d
    duration: 28.00:00:00
  - keep_every: 4
    duration: null
`
	p, err := ParsePolicy([]byte(doc), "policy.yaml")
	if err != nil {
		t.Fatalf("ParsePolicy() failed: %v", err)
	}

	want := []Rule{
		NewRule(Day, 14*Day),
		NewRule(2*Day, 28*Day),
		NewUnboundedRule(4 * Day),
	}
	got := p.Rules()
	if len(got) != len(want) {
		t.Fatalf("Expected %d rules, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rules[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestParsePolicy_PascalCaseJSON(t *testing.T) {
	doc := `{
  "Rules": [
    {"KeepEvery": "1.00:00:00", "Duration": "14.00:00:00"},
    {"KeepEvery": "7.00:00:00", "Duration": null}
  ]
}`
	p, err := ParsePolicy([]byte(doc), "")
	if err != nil {
		t.Fatalf("ParsePolicy() failed: %v", err)
	}

	rules := p.Rules()
	if len(rules) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(rules))
	}
	if rules[0].KeepEvery != Day || rules[0].Window != 14*Day {
		t.Errorf("Unexpected first rule: %s", rules[0])
	}
	if !rules[1].IsUnbounded() || rules[1].KeepEvery != 7*Day {
		t.Errorf("Unexpected second rule: %s", rules[1])
	}
}

func TestParsePolicy_BareListWithAliases(t *testing.T) {
	doc := `[
  {"sampleInterval": "P1D", "validityWindow": "P7D"},
  {"sample-interval": "P7D"}
]`
	p, err := ParsePolicy([]byte(doc), "")
	if err != nil {
		t.Fatalf("ParsePolicy() failed: %v", err)
	}

	rules := p.Rules()
	if len(rules) != 2 || rules[0].Window != 7*Day || !rules[1].IsUnbounded() {
		t.Errorf("Unexpected rules: %v", rules)
	}
}

func TestParsePolicy_AbsentDurationIsUnbounded(t *testing.T) {
	p, err := ParsePolicy([]byte("rules:\n  - keep_every: 3d\n"), "")
	if err != nil {
		t.Fatalf("ParsePolicy() failed: %v", err)
	}
	if !p.Rules()[0].IsUnbounded() {
		t.Error("Expected a rule without duration to be unbounded")
	}
}

func TestParsePolicy_AggregatesErrors(t *testing.T) {
	doc := `
rules:
  - keep_every: abc
  - keep_every: 3d
    duration: P1Y
  - keep_every: 5d
    bogus: 1
`
	_, err := ParsePolicy([]byte(doc), "broken.yaml")

	var cfgErr *PolicyConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected PolicyConfigurationError, got %v", err)
	}
	if cfgErr.Source != "broken.yaml" {
		t.Errorf("Expected source to be recorded, got %q", cfgErr.Source)
	}
	if len(cfgErr.Violations) < 3 {
		t.Errorf("Expected at least 3 violations, got %d: %v", len(cfgErr.Violations), err)
	}
	for _, index := range []int{0, 1, 2} {
		if !cfgErr.HasViolation(index) {
			t.Errorf("Expected a violation for rules[%d], got %v", index, err)
		}
	}
}

func TestParsePolicy_ChainViolation(t *testing.T) {
	doc := `{"rules": [{"keep_every": "1d"}, {"keep_every": "3d"}, {"keep_every": "4d"}]}`

	_, err := ParsePolicy([]byte(doc), "")

	var cfgErr *PolicyConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected PolicyConfigurationError, got %v", err)
	}
	if len(cfgErr.Violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", err)
	}
	if v := cfgErr.Violations[0]; v.Index != 2 || v.Field != "keep_every" {
		t.Errorf("Expected rules[2].keep_every, got %+v", v)
	}
}

func TestParsePolicy_InvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"scalar", "42"},
		{"no rules", "rules: []"},
		{"missing keep_every", "rules:\n  - duration: 7d\n"},
		{"fractional days", `{"rules": [{"keep_every": 1.5}]}`},
		{"not yaml", "rules: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(tt.doc), "")
			var cfgErr *PolicyConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected PolicyConfigurationError, got %v", err)
			}
		})
	}
}

func TestLoadPolicyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "retention.yaml")
	if err := os.WriteFile(path, []byte("- keep_every: 1d\n  duration: 7d\n- keep_every: 7d\n"), 0o644); err != nil {
		t.Fatalf("Failed to write policy: %v", err)
	}

	p, err := LoadPolicyFile(path)
	if err != nil {
		t.Fatalf("LoadPolicyFile() failed: %v", err)
	}
	if len(p.Rules()) != 2 {
		t.Errorf("Expected 2 rules, got %d", len(p.Rules()))
	}

	if _, err := LoadPolicyFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParsePolicy_DurationOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"day count", "rules:\n  - keep_every: 2d\n    duration: 300000\n  - keep_every: 4d\n"},
		{"shorthand", "rules:\n  - keep_every: 2d\n    duration: 300000d\n  - keep_every: 4d\n"},
		{"json number", `{"rules": [{"keep_every": 1, "duration": 1000000}, {"keep_every": 2}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(tt.doc), "")

			var cfgErr *PolicyConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected PolicyConfigurationError, got %v", err)
			}
			if !cfgErr.HasViolation(0) {
				t.Errorf("Expected a violation for rules[0], got %v", err)
			}
			if !strings.Contains(err.Error(), "out of range") {
				t.Errorf("Expected out of range message, got %q", err.Error())
			}
		})
	}
}

func TestParsePolicy_FractionalWindowRejected(t *testing.T) {
	doc := "rules:\n  - keep_every: 1d\n    duration: P1DT12H\n  - keep_every: 2d\n"

	_, err := ParsePolicy([]byte(doc), "")

	var cfgErr *PolicyConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected PolicyConfigurationError, got %v", err)
	}
	if len(cfgErr.Violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", err)
	}
	if v := cfgErr.Violations[0]; v.Index != 0 || v.Field != "duration" {
		t.Errorf("Expected rules[0].duration, got %+v", v)
	}
}
