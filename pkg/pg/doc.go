// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// startup retries, goose schema migrations, a health probe, and error
// classification helpers.
//
// The control plane leans on PostgreSQL constraints for its hard invariants
// (one active subscription per tenant, unique billing event ids, unique
// usage-summary periods), so IsDuplicateKeyError is part of the business
// error flow rather than a debugging aid: stores translate 23505 conflicts
// into domain results such as "already processed".
package pg
