// Package report builds the operator-facing summaries: revenue and
// activations over a date range, churn, and cross-tenant usage totals.
// All reports are read-only and require system scope.
package report
