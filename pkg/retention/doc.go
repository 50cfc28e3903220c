// Package retention decides which dated backups to keep.
//
// # Rules and Policies
//
// A Rule keeps one artifact every KeepEvery (a whole number of days) for
// artifacts no older than its Window. A Policy is an ordered list of rules;
// the first rule whose window covers a date governs that date:
//
//	policy, err := retention.NewPolicy([]retention.Rule{
//	    retention.NewRule(1*retention.Day, 14*retention.Day), // daily for two weeks
//	    retention.NewRule(2*retention.Day, 28*retention.Day), // every other day for four weeks
//	    retention.NewUnboundedRule(4 * retention.Day),         // every fourth day forever
//	})
//
// Each rule's interval must be a whole multiple of the previous rule's.
// NewPolicy reports every violation at once in a *PolicyConfigurationError.
//
// # Sampling Grid
//
// A date is kept when its whole-day offset from ReferenceEpoch
// (2024-01-01 UTC) is a multiple of the active rule's interval. The epoch is
// fixed, so the grid never moves: a date kept today under the 2-day rule
// stays kept until it ages into a coarser rule's window, and because
// intervals nest, dates kept by the coarser rule were kept all along.
//
// # Uncovered Dates
//
// A date that no rule covers is kept. A policy whose last rule is bounded
// therefore never evicts anything older than that window. Policy.Lint warns
// about this; end the policy with an unbounded rule to cap retention.
//
// # Policy Documents
//
// Policies are loaded from JSON or YAML:
//
//	rules:
//	  - keep_every: P1D
//	    duration: P14D
//	  - keep_every: 2d
//	    duration: 28.00:00:00
//	  - keep_every: 4d
//	    duration: null
//
// See ParseDuration for the accepted duration syntaxes.
package retention
