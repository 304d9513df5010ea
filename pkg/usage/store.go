package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/tenant"
)

// Store defines the persistence contract for the usage ledger. Implementations
// must enforce two properties the quota machinery depends on:
//
//   - IncrementSummary is a single atomic read-modify-write against the
//     (tenant, period) summary row: concurrent increments for the same tenant
//     never lose updates.
//   - Summary rows are uniquely keyed by (tenant, period).
//
// Every method takes the caller's scope; a tenant scope only reaches its own
// rows, and cross-tenant access reads as not-found.
type Store interface {
	// AppendEvent persists one immutable usage event.
	AppendEvent(ctx context.Context, scope tenant.Scope, ev *Event) error

	// IncrementSummary atomically upserts the summary row for the event:
	// create-with-count-1 when absent, increment otherwise. storageDelta is
	// added to the row's StorageBytes.
	IncrementSummary(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, period Period, eventType EventType, storageDelta int64) error

	// GetSummary returns the summary row, or ErrSummaryNotFound when no event
	// has been recorded for the period yet.
	GetSummary(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, period Period) (*Summary, error)

	// ListEvents returns the tenant's events inside [from, to) in append order.
	ListEvents(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, from, to time.Time) ([]Event, error)

	// ReplaceSummary overwrites the summary row, used only by the
	// recompute-from-events repair path.
	ReplaceSummary(ctx context.Context, scope tenant.Scope, summary *Summary) error

	// DeleteEventsBefore removes events older than cutoff across all tenants.
	// Summaries are untouched: they are the durable record. System scope only.
	DeleteEventsBefore(ctx context.Context, scope tenant.Scope, cutoff time.Time) (int64, error)

	// ListSummaries returns every tenant's summary row for the period,
	// used by administrative reporting. System scope only.
	ListSummaries(ctx context.Context, scope tenant.Scope, period Period) ([]Summary, error)
}
