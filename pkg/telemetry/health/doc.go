// Package health runs preflight checks before a backup run: is the store
// reachable, does the retention policy load, does the spool directory
// exist.
//
//	checker := health.New(5 * time.Second)
//	checker.Register("store", health.StoreCheck(store))
//	checker.Register("policy", health.PolicyCheck(cfg.Retention.PolicyPath))
//	status := checker.Run(ctx)
//
// Checks run concurrently, each under its own timeout.
package health
