// Package history keeps a ledger of backup runs and retention sweeps in a
// local SQLite database, so operators can see what each invocation did
// after the process has exited.
package history
