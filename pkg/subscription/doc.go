// Package subscription implements the subscription lifecycle manager: the
// single owner of each tenant's current subscription state.
//
// A subscription moves through trialing, active, past_due, unpaid, and the
// terminal canceled status; the transition graph is enforced on every
// mutation. At most one subscription per tenant occupies the "current" slot
// (any non-canceled status), and that invariant is enforced at the storage
// layer — a partial unique index in PostgreSQL — so concurrent activation
// attempts fail all but one and are resolved by the service's
// insert-and-retry loop.
//
// Transitions are driven by external billing events (UpsertFromExternalEvent),
// by explicit user actions (Cancel, ChangePlan), and by the scheduled trial
// expiry sweep (ExpireTrials). Every transition writes a before/after audit
// entry; canceled rows are kept forever for billing history.
package subscription
