// Package audit provides the append-only audit trail for the control plane.
//
// Every mutation of tenant-owned state (subscription transitions, billing
// ingestion, sweeps) passes through a Logger that records the action, the
// acting identity, and before/after snapshots. Entries attribute themselves
// from the tenant scope in the context: tenant scopes record the tenant id,
// system scopes record the named system actor.
package audit
