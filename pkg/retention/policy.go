package retention

import (
	"fmt"
	"time"
)

// ReferenceEpoch anchors the sampling grid. It is fixed rather than relative
// to "now" so that the keep/evict decision for a date never shifts as time
// advances; only the active rule changes when a date crosses a window edge.
var ReferenceEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Policy is an ordered, validated list of rules. It is immutable once built
// and safe for concurrent use.
type Policy struct {
	rules []Rule
}

// NewPolicy validates rules and builds a policy. All violations are
// collected into a single *PolicyConfigurationError.
//
// Each rule's KeepEvery must be a whole multiple of the previous rule's, so
// that a date kept under a coarser rule was also kept under every finer rule
// before it. Without this, a date could be evicted by one rule and then be
// needed by the next when it ages across the window boundary.
func NewPolicy(rules []Rule) (*Policy, error) {
	if violations := validateRules(rules); len(violations) > 0 {
		return nil, &PolicyConfigurationError{Violations: violations}
	}

	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Policy{rules: copied}, nil
}

// MustNewPolicy is like NewPolicy but panics on invalid rules.
// Intended for tests and package-level defaults.
func MustNewPolicy(rules []Rule) *Policy {
	p, err := NewPolicy(rules)
	if err != nil {
		panic(err)
	}
	return p
}

func validateRules(rules []Rule) []RuleViolation {
	if len(rules) == 0 {
		return []RuleViolation{{Index: -1, Message: "policy must contain at least one rule"}}
	}

	var violations []RuleViolation
	for i, rule := range rules {
		violations = append(violations, validateRule(i, rule)...)
	}

	for i := 1; i < len(rules); i++ {
		prev, next := rules[i-1].KeepEvery, rules[i].KeepEvery
		if !isWholeDays(prev) || !isWholeDays(next) {
			continue
		}
		if next%prev != 0 {
			violations = append(violations, RuleViolation{
				Index: i,
				Field: "keep_every",
				Message: fmt.Sprintf("interval %s is not a whole multiple of rules[%d].keep_every %s",
					FormatDays(next), i-1, FormatDays(prev)),
			})
		}
	}

	return violations
}

func validateRule(i int, rule Rule) []RuleViolation {
	var violations []RuleViolation

	switch {
	case rule.KeepEvery <= 0:
		violations = append(violations, RuleViolation{
			Index:   i,
			Field:   "keep_every",
			Message: fmt.Sprintf("must be greater than zero, got %s", rule.KeepEvery),
		})
	case rule.KeepEvery%Day != 0:
		violations = append(violations, RuleViolation{
			Index:   i,
			Field:   "keep_every",
			Message: fmt.Sprintf("must be a whole number of days, got %s", rule.KeepEvery),
		})
	}

	switch {
	case rule.IsUnbounded():
	case rule.Window <= 0:
		violations = append(violations, RuleViolation{
			Index:   i,
			Field:   "duration",
			Message: fmt.Sprintf("must be greater than zero or null, got %s", rule.Window),
		})
	case rule.Window%Day != 0:
		violations = append(violations, RuleViolation{
			Index:   i,
			Field:   "duration",
			Message: fmt.Sprintf("must be a whole number of days, got %s", rule.Window),
		})
	}

	return violations
}

func isWholeDays(d time.Duration) bool {
	return d > 0 && d%Day == 0
}

// Rules returns a copy of the policy's rules in evaluation order.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// ActiveRule returns the first rule whose window covers date. Rules are
// priority-ordered: later rules are never consulted once one applies.
func (p *Policy) ActiveRule(date, now time.Time) (Rule, bool) {
	_, rule, ok := p.activeRule(date, now)
	return rule, ok
}

func (p *Policy) activeRule(date, now time.Time) (int, Rule, bool) {
	for i, rule := range p.rules {
		if rule.Covers(date, now) {
			return i, rule, true
		}
	}
	return -1, Rule{}, false
}

// ShouldKeep reports whether an artifact dated date survives at now.
//
// A date that no rule covers is kept. Policies meant to impose a hard
// ceiling must therefore end with an unbounded rule; see Lint.
func (p *Policy) ShouldKeep(date, now time.Time) bool {
	return p.Evaluate(date, now).Keep
}

// Decision explains a keep/evict verdict.
type Decision struct {
	Keep bool

	// RuleIndex is the index of the governing rule, or -1 if none applied.
	RuleIndex int

	// Rule is the governing rule. Zero when RuleIndex is -1.
	Rule Rule

	// DaysSinceEpoch is the whole-day offset of the date from ReferenceEpoch.
	DaysSinceEpoch int64
}

// Reason renders the decision for humans.
func (d Decision) Reason() string {
	if d.RuleIndex < 0 {
		return "no rule covers this date, kept by default"
	}
	verdict := "evict"
	if d.Keep {
		verdict = "keep"
	}
	return fmt.Sprintf("rules[%d] (%s): day %d mod %d = %d, %s",
		d.RuleIndex, d.Rule, d.DaysSinceEpoch, d.Rule.IntervalDays(),
		floorMod(d.DaysSinceEpoch, d.Rule.IntervalDays()), verdict)
}

// Evaluate returns the full decision for date at now.
func (p *Policy) Evaluate(date, now time.Time) Decision {
	days := DaysSinceEpoch(date)

	i, rule, ok := p.activeRule(date, now)
	if !ok {
		return Decision{Keep: true, RuleIndex: -1, DaysSinceEpoch: days}
	}

	return Decision{
		Keep:           floorMod(days, rule.IntervalDays()) == 0,
		RuleIndex:      i,
		Rule:           rule,
		DaysSinceEpoch: days,
	}
}

// DaysSinceEpoch returns the number of whole days between ReferenceEpoch and
// date, rounding toward negative infinity for dates before the epoch.
func DaysSinceEpoch(date time.Time) int64 {
	d := date.Sub(ReferenceEpoch)
	days := int64(d / Day)
	if d < 0 && d%Day != 0 {
		days--
	}
	return days
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Lint returns advisory warnings about a valid policy: rules that can never
// become active, and the absence of a trailing unbounded rule.
func (p *Policy) Lint() []string {
	var warnings []string

	for i, rule := range p.rules {
		if rule.IsUnbounded() && i < len(p.rules)-1 {
			warnings = append(warnings, fmt.Sprintf(
				"rules[%d] is unbounded, so rules[%d..%d] can never become active",
				i, i+1, len(p.rules)-1))
			break
		}
		if i > 0 && !p.rules[i-1].IsUnbounded() && !rule.IsUnbounded() && rule.Window <= p.rules[i-1].Window {
			warnings = append(warnings, fmt.Sprintf(
				"rules[%d] window %s does not extend past rules[%d] window %s, so it is shadowed",
				i, FormatDays(rule.Window), i-1, FormatDays(p.rules[i-1].Window)))
		}
	}

	if last := p.rules[len(p.rules)-1]; !last.IsUnbounded() {
		warnings = append(warnings, fmt.Sprintf(
			"last rule is bounded to %s: artifacts older than that are never evicted; "+
				"end the policy with an unbounded rule to cap retention", FormatDays(last.Window)))
	}

	return warnings
}

// String lists the rules, one per line.
func (p *Policy) String() string {
	s := ""
	for i, rule := range p.rules {
		s += fmt.Sprintf("%d. %s\n", i+1, rule)
	}
	return s
}
