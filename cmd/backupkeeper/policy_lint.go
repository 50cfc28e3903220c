package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/cli"
	"mercator-hq/backupkeeper/pkg/retention"
)

var lintFlags struct {
	strict bool
	watch  bool
}

var policyLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate a policy file",
	Long: `Validate a retention policy and report advisory warnings.

Errors make the policy unusable: malformed durations, intervals or
windows that are not whole days, or an interval that is not a multiple of
the previous rule's. Warnings flag valid but suspicious policies: rules shadowed by an
earlier one, and a policy with no trailing unbounded rule, which never
evicts anything older than its last window.

Examples:
  # Lint the configured policy
  backupkeeper policy lint

  # Lint a file, failing on warnings (for CI)
  backupkeeper policy lint --file retention.yaml --strict

  # Re-lint on every save
  backupkeeper policy lint --file retention.yaml --watch`,
	RunE: lintPolicy,
}

func init() {
	policyCmd.AddCommand(policyLintCmd)

	policyLintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	policyLintCmd.Flags().BoolVarP(&lintFlags.watch, "watch", "w", false, "re-lint whenever the file changes")
}

// LintResult is the outcome of linting one policy file.
type LintResult struct {
	File     string       `json:"file"`
	Valid    bool         `json:"valid"`
	Rules    []ruleOutput `json:"rules,omitempty"`
	Errors   []string     `json:"errors,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

func (r *LintResult) failed(strict bool) bool {
	return !r.Valid || (strict && len(r.Warnings) > 0)
}

func (r *LintResult) RenderText(w io.Writer) error {
	if r.Valid {
		fmt.Fprintf(w, "✓ %s: valid (%d rules)\n", r.File, len(r.Rules))
		for i, rule := range r.Rules {
			fmt.Fprintf(w, "  %d. %s\n", i+1, rule.Description)
		}
	} else {
		fmt.Fprintf(w, "✗ %s: invalid\n", r.File)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	return nil
}

// newLintResult builds a result from a load attempt.
func newLintResult(path string, policy *retention.Policy, err error) *LintResult {
	result := &LintResult{File: path, Valid: err == nil}
	if err != nil {
		var cfgErr *retention.PolicyConfigurationError
		if errors.As(err, &cfgErr) && len(cfgErr.Violations) > 0 {
			for _, v := range cfgErr.Violations {
				result.Errors = append(result.Errors, v.Error())
			}
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
		return result
	}

	for _, rule := range policy.Rules() {
		result.Rules = append(result.Rules, newRuleOutput(rule))
	}
	result.Warnings = policy.Lint()
	return result
}

// policyPath returns --file, or the configured policy path.
func policyPath() (string, error) {
	if policyFile != "" {
		return policyFile, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Retention.PolicyPath, nil
}

func lintPolicy(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}
	path, err := policyPath()
	if err != nil {
		return err
	}

	formatter := cli.NewFormatter(format)
	out := cmd.OutOrStdout()

	policy, loadErr := retention.LoadPolicyFile(path)
	result := newLintResult(path, policy, loadErr)
	if err := formatter.FormatTo(out, result); err != nil {
		return err
	}

	if lintFlags.watch {
		return watchPolicy(cmd, path, formatter)
	}

	if result.failed(lintFlags.strict) {
		return cli.NewExitError(cli.ExitFailure, fmt.Errorf("policy %s failed lint", path))
	}
	return nil
}

// watchPolicy re-lints path on every change until interrupted.
func watchPolicy(cmd *cobra.Command, path string, formatter cli.Formatter) error {
	watcher, err := retention.NewWatcher(path, 0, nil)
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	out := cmd.OutOrStdout()
	return watcher.Watch(ctx, func(policy *retention.Policy, err error) {
		if ferr := formatter.FormatTo(out, newLintResult(path, policy, err)); ferr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "failed to print lint result:", ferr)
		}
	})
}
