package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/cli"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "backupkeeper",
	Short: "backupkeeper - dated backup storage with rule-based retention",
	Long: `backupkeeper uploads database dumps into a year/month/day namespace and
applies a retention policy to everything stored there.

A retention policy is an ordered list of rules. Each rule keeps one backup
every N days for dates no older than its window; the first rule whose window
covers a date decides whether that date's backups are kept. Nodes emptied by
retention are removed.

Configuration is read from --config, then $BACKUP_CONFIG_PATH, then
config.yaml. Any setting can be overridden with a BACKUPKEEPER_* variable.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the command's status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default $BACKUP_CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json")
}
