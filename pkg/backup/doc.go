// Package backup runs a backup: it stores every dump a Producer offers under
// the day node for the run's date and then sweeps the namespace with the
// retention policy, evaluated at that same instant.
//
// Producing the dumps is left to an external tool. SpoolProducer picks up
// whatever that tool wrote into a spool directory:
//
//	producer := backup.NewSpoolProducer("/var/spool/backupkeeper", false)
//	orch := backup.NewOrchestrator(producer, store, sweeper)
//	result, err := orch.Run(ctx)
//
// Run only returns an error when it cannot start storing dumps at all. A
// source that fails is recorded in RunResult.Failures and the run goes on
// with the next one.
package backup
