// backupkeeper stores database dumps in a dated year/month/day namespace and
// thins them out according to a retention policy.
//
// Usage:
//
//	# Upload spooled dumps, then apply retention
//	backupkeeper run
//
//	# Apply retention only, reporting what would be removed
//	backupkeeper sweep --dry-run
//
//	# Validate a policy and watch it for changes
//	backupkeeper policy lint --file retention.yaml --watch
//
//	# Explain the decision for one date
//	backupkeeper policy explain --date 2025-03-14
//
//	# Simulate a year of daily backups
//	backupkeeper policy simulate --days 365 --per-day 1
//
//	# Render the stored namespace
//	backupkeeper tree --artifacts
package main

func main() {
	Execute()
}
