package retention

import (
	"fmt"
	"strings"
)

// RuleViolation describes one problem with one rule of a policy.
type RuleViolation struct {
	// Index is the zero-based position of the offending rule.
	// -1 means the violation concerns the policy as a whole.
	Index int

	// Field is the rule field at fault ("keep_every", "duration").
	// Empty when the violation concerns the whole rule or policy.
	Field string

	// Message is a human-readable description of the violation.
	Message string
}

// Error returns the violation formatted as "rules[i].field: message".
func (v RuleViolation) Error() string {
	switch {
	case v.Index < 0:
		return v.Message
	case v.Field == "":
		return fmt.Sprintf("rules[%d]: %s", v.Index, v.Message)
	default:
		return fmt.Sprintf("rules[%d].%s: %s", v.Index, v.Field, v.Message)
	}
}

// PolicyConfigurationError reports every violation found while building a
// policy. A policy that produced this error must not be used.
type PolicyConfigurationError struct {
	// Source names where the rules came from (a file path), if known.
	Source string

	// Violations lists every malformed or order-violating rule.
	Violations []RuleViolation
}

// Error returns a formatted string containing all violations.
func (e *PolicyConfigurationError) Error() string {
	prefix := "retention policy invalid"
	if e.Source != "" {
		prefix = fmt.Sprintf("retention policy %q invalid", e.Source)
	}

	if len(e.Violations) == 0 {
		return prefix
	}
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s: %s", prefix, e.Violations[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s with %d errors:\n", prefix, len(e.Violations)))
	for _, v := range e.Violations {
		sb.WriteString(fmt.Sprintf("  - %s\n", v.Error()))
	}
	return sb.String()
}

// HasViolation reports whether a violation exists for the given rule index.
func (e *PolicyConfigurationError) HasViolation(index int) bool {
	for _, v := range e.Violations {
		if v.Index == index {
			return true
		}
	}
	return false
}
