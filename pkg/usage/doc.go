// Package usage implements the usage ledger: an append-only log of metered
// events plus incrementally maintained per-period aggregate summaries.
//
// Every metered action produces one immutable Event and bumps two Summary
// rows, one daily and one monthly, in a single atomic read-modify-write per
// row. The summaries are what quota checks read; the raw events exist for
// audit and for RecomputeSummary, the repair operation that rebuilds a
// summary from scratch after suspected drift.
//
// Raw events are deleted by a retention sweep after a configured horizon
// (90 days by default). Summaries survive the sweep: they are the durable
// record of consumption.
//
// # Usage
//
//	ledger := usage.NewLedger(usage.NewPGStore(pool))
//
//	// after the gated action succeeded:
//	id, err := ledger.Record(ctx, scope, usage.EventUpload,
//		usage.WithResourceRef(resumeID),
//	)
package usage
