package main

import (
	"github.com/spf13/cobra"
)

var policyFile string

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect retention policies",
	Long: `Validate, explain and simulate retention policies.

A policy document is YAML or JSON:

  rules:
    - keep_every: 1d
      duration: 7d
    - keep_every: 7d
      duration: 90d
    - keep_every: 30d
      duration: null

Durations are whole days, written as "7d", "7.00:00:00" or ISO 8601 "P7D".
A null duration makes the rule unbounded. The first rule whose window
covers a date governs it; each interval must be a multiple of the one
before it.`,
}

func init() {
	rootCmd.AddCommand(policyCmd)

	policyCmd.PersistentFlags().StringVarP(&policyFile, "file", "f", "", "policy file (default retention.policy_path)")
}
