// Package quota enforces plan limits against recorded usage.
//
// Enforcer is the read side: it resolves the tenant's effective plan
// (falling back to the free plan when no subscription is current) and
// compares consumption counters against the plan ceiling. Gate is the
// write side: it serializes check-then-record per (tenant, limit) so
// concurrent requests cannot overshoot the ceiling.
//
// Monthly limits read the usage ledger; the hourly api_calls limit
// consults a RateWindow (see package ratelimit).
package quota
