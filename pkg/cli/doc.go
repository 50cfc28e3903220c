/*
Package cli provides command-line interface utilities for backupkeeper.

The cli package includes output formatters, progress reporters, exit codes
and signal handling used by the backupkeeper command.

Output Formatting:

Command results are printed as text or JSON:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Results that implement TextRenderer control their own text layout.

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr, "days")
	progress.Start(int64(days))
	for i := 0; i < days; i++ {
		// Do work
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

ExitCode maps a command error to the process status. ExitPartial marks a
run that finished but left per-item failures behind.
*/
package cli
