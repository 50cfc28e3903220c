package retention

import (
	"fmt"
	"math"
	"time"
)

// Unbounded is the validity window of a rule that applies to every date,
// however far in the past.
const Unbounded time.Duration = math.MaxInt64

// Rule keeps one artifact every KeepEvery for dates no older than Window.
type Rule struct {
	// KeepEvery is the sampling interval. It must be a positive whole
	// number of days.
	KeepEvery time.Duration

	// Window is how far back from "now" the rule is in effect, in whole
	// days.
	// Unbounded means the rule is always eligible.
	Window time.Duration
}

// NewRule returns a rule bounded to the given window.
func NewRule(keepEvery, window time.Duration) Rule {
	return Rule{KeepEvery: keepEvery, Window: window}
}

// NewUnboundedRule returns a rule that applies to every date.
func NewUnboundedRule(keepEvery time.Duration) Rule {
	return Rule{KeepEvery: keepEvery, Window: Unbounded}
}

// IsUnbounded reports whether the rule applies regardless of age.
func (r Rule) IsUnbounded() bool {
	return r.Window == Unbounded
}

// IntervalDays returns KeepEvery as a whole number of days.
func (r Rule) IntervalDays() int64 {
	return int64(r.KeepEvery / Day)
}

// Covers reports whether date falls inside the rule's validity window as
// seen from now. The window boundary itself is inclusive.
func (r Rule) Covers(date, now time.Time) bool {
	if r.IsUnbounded() {
		return true
	}
	return !date.Before(now.Add(-r.Window))
}

// String describes the rule, e.g. "keep every 2d for 28d".
func (r Rule) String() string {
	if r.IsUnbounded() {
		return fmt.Sprintf("keep every %s indefinitely", FormatDays(r.KeepEvery))
	}
	return fmt.Sprintf("keep every %s for %s", FormatDays(r.KeepEvery), FormatDays(r.Window))
}
