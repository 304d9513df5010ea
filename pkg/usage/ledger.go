package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/tenant"
)

// DefaultRetention is how long raw events are kept before the sweep removes
// them. Summaries are the durable record and are never swept.
const DefaultRetention = 90 * 24 * time.Hour

// RecordOption configures an event before it is persisted.
type RecordOption func(*Event)

// WithResourceRef attaches the identifier of the resource the event concerns.
func WithResourceRef(ref string) RecordOption {
	return func(ev *Event) { ev.ResourceRef = ref }
}

// WithMetadata adds one metadata entry to the event.
func WithMetadata(key string, value any) RecordOption {
	return func(ev *Event) {
		if ev.Metadata == nil {
			ev.Metadata = make(map[string]any)
		}
		ev.Metadata[key] = value
	}
}

// WithStorageDelta sets the signed byte delta for storage_delta events.
func WithStorageDelta(bytes int64) RecordOption {
	return func(ev *Event) { ev.StorageDelta = bytes }
}

// Ledger is the usage metering service: it appends immutable events and
// keeps the per-period aggregate summaries in step.
type Ledger struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// LedgerOption configures optional Ledger settings.
type LedgerOption func(*Ledger)

// WithClock overrides the time source, used by tests for deterministic periods.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the structured logger for sweep and repair reporting.
func WithLogger(log *slog.Logger) LedgerOption {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLedger creates a Ledger backed by the given store.
// Panics if store is nil to fail fast during initialization.
func NewLedger(store Store, opts ...LedgerOption) *Ledger {
	if store == nil {
		panic("usage: Store is required")
	}

	l := &Ledger{
		store: store,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends a usage event for the scoped tenant and increments the
// daily and monthly summary rows. Daily and monthly counters are maintained
// independently per event rather than derived from one another, so each can
// be audited against the raw events on its own.
//
// Callers gate the action with the quota enforcer first and record only
// after the action actually succeeded.
func (l *Ledger) Record(ctx context.Context, scope tenant.Scope, eventType EventType, opts ...RecordOption) (uuid.UUID, error) {
	if scope.IsZero() {
		return uuid.Nil, ErrScopeRequired
	}
	tenantID := scope.TenantID
	if scope.System {
		return uuid.Nil, fmt.Errorf("%w: system scope carries no tenant to meter", ErrInvalidEvent)
	}

	ev := &Event{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Type:       eventType,
		OccurredAt: l.now(),
	}
	for _, opt := range opts {
		opt(ev)
	}

	if ev.Type == "" {
		return uuid.Nil, fmt.Errorf("%w: event type is required", ErrInvalidEvent)
	}

	if err := l.store.AppendEvent(ctx, scope, ev); err != nil {
		return uuid.Nil, err
	}

	for _, g := range []plan.Granularity{plan.GranularityDaily, plan.GranularityMonthly} {
		period := PeriodFor(g, ev.OccurredAt)
		if err := l.store.IncrementSummary(ctx, scope, tenantID, period, ev.Type, ev.StorageDelta); err != nil {
			return uuid.Nil, fmt.Errorf("increment %s summary: %w", g, err)
		}
	}

	return ev.ID, nil
}

// CurrentCount returns the scoped tenant's counter for the event type in the
// period containing now at the limit's granularity. A missing summary row
// reads as zero: no events have been recorded yet.
func (l *Ledger) CurrentCount(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, eventType EventType, g plan.Granularity) (int64, error) {
	sum, err := l.store.GetSummary(ctx, scope, tenantID, PeriodFor(g, l.now()))
	if errors.Is(err, ErrSummaryNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return sum.Count(eventType), nil
}

// StorageBytes returns the scoped tenant's storage usage for the current
// monthly period.
func (l *Ledger) StorageBytes(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID) (int64, error) {
	sum, err := l.store.GetSummary(ctx, scope, tenantID, PeriodFor(plan.GranularityMonthly, l.now()))
	if errors.Is(err, ErrSummaryNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return sum.StorageBytes, nil
}

// RecomputeSummary rebuilds a summary row purely from the underlying events,
// used for repair after suspected drift. The rebuilt row replaces whatever
// the incremental path accumulated.
func (l *Ledger) RecomputeSummary(ctx context.Context, scope tenant.Scope, tenantID uuid.UUID, period Period) (*Summary, error) {
	from, to, err := period.Bounds()
	if err != nil {
		return nil, err
	}

	events, err := l.store.ListEvents(ctx, scope, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		TenantID: tenantID,
		Period:   period,
		Counters: make(map[EventType]int64),
	}
	for _, ev := range events {
		sum.Counters[ev.Type]++
		sum.StorageBytes += ev.StorageDelta
	}

	if err := l.store.ReplaceSummary(ctx, scope, sum); err != nil {
		return nil, err
	}

	l.log.InfoContext(ctx, "usage summary recomputed",
		"tenant_id", tenantID, "period", period.String(), "events", len(events))
	return sum, nil
}

// SweepRetention deletes events older than the given horizon. Zero horizon
// applies DefaultRetention. Runs under a system scope only.
func (l *Ledger) SweepRetention(ctx context.Context, scope tenant.Scope, horizon time.Duration) (int64, error) {
	if !scope.System {
		return 0, ErrSystemScopeOnly
	}
	if horizon <= 0 {
		horizon = DefaultRetention
	}

	cutoff := l.now().Add(-horizon)
	removed, err := l.store.DeleteEventsBefore(ctx, scope, cutoff)
	if err != nil {
		return 0, err
	}

	l.log.InfoContext(ctx, "usage retention sweep complete",
		"cutoff", cutoff, "removed", removed)
	return removed, nil
}
