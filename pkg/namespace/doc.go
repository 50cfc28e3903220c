// Package namespace organizes backups in a year/month/day tree and applies
// retention to it.
//
// The tree lives in a Store. Top-level nodes are years ("2024"), their
// children months ("03 March"), and theirs days ("17"); artifacts hang off
// day nodes. Resolver finds or creates the day node for a date:
//
//	resolver := namespace.NewResolver(store)
//	dayID, err := resolver.Resolve(ctx, time.Now())
//
// Sweeper walks the tree in post-order, evicts every artifact the
// retention.Policy rejects, and deletes nodes left with neither artifacts
// nor children:
//
//	sweeper := namespace.NewSweeper(store, policy, namespace.SweepOptions{})
//	report, err := sweeper.Sweep(ctx, time.Now())
//
// A failed list or create stops only the affected subtree; the sweep
// continues with its siblings and joins the failures into the returned
// error. Failures to delete an artifact or an empty node are recorded in
// the Report and logged, but never returned.
//
// Store implementations live in the storage subpackage.
package namespace
