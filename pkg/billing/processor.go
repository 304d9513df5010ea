package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/audit"
	"github.com/hirelens/billingkit/pkg/subscription"
	"github.com/hirelens/billingkit/pkg/tenant"
)

const (
	defaultMaxAttempts = 5
	retryBatchSize     = 100
)

// Lifecycle is the slice of the subscription service the processor
// drives. *subscription.Service satisfies it.
type Lifecycle interface {
	UpsertFromExternalEvent(ctx context.Context, scope tenant.Scope, upd subscription.ExternalUpdate) (*subscription.Subscription, error)
}

// IngestResult reports what ingestion did with an event.
type IngestResult struct {
	Event *Event

	// AlreadyProcessed means the external id was seen before and the
	// event was not reprocessed. Webhook handlers answer 200 so the
	// provider stops redelivering.
	AlreadyProcessed bool
}

// RetryStats summarizes one retry sweep.
type RetryStats struct {
	Examined  int
	Retried   int
	Succeeded int
	Escalated int
}

// Processor ingests provider billing events exactly once and drives the
// subscription lifecycle from them.
type Processor struct {
	store       Store
	lifecycle   Lifecycle
	auditor     audit.Logger
	review      ReviewQueue
	backoff     ExponentialBackoff
	maxAttempts int
	log         *slog.Logger
	now         func() time.Time
}

// ProcessorOption configures optional Processor settings.
type ProcessorOption func(*Processor)

// WithBackoff overrides the retry schedule.
func WithBackoff(b ExponentialBackoff) ProcessorOption {
	return func(p *Processor) { p.backoff = b }
}

// WithMaxAttempts bounds processing attempts before an event is marked
// terminal and escalated for review.
func WithMaxAttempts(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithReviewQueue sets the operator escalation target.
func WithReviewQueue(q ReviewQueue) ProcessorOption {
	return func(p *Processor) {
		if q != nil {
			p.review = q
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProcessor panics if any required dependency is nil.
func NewProcessor(store Store, lifecycle Lifecycle, auditor audit.Logger, opts ...ProcessorOption) *Processor {
	if store == nil {
		panic("billing: store is required")
	}
	if lifecycle == nil {
		panic("billing: lifecycle service is required")
	}
	if auditor == nil {
		panic("billing: audit logger is required")
	}

	p := &Processor{
		store:       store,
		lifecycle:   lifecycle,
		auditor:     auditor,
		review:      NewMemoryReviewQueue(),
		backoff:     DefaultBackoff,
		maxAttempts: defaultMaxAttempts,
		log:         slog.Default(),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest records a provider event and processes it. Redelivery of an
// already-processed external id is a no-op reported through
// AlreadyProcessed; a redelivered id whose first processing failed is
// retried in place. Insert-or-conflict on the unique external id, not a
// prior existence check, decides which path runs, so two concurrent
// deliveries of the same id cannot both process: a conflicting row with
// no recorded attempt belongs to a delivery still in flight and is
// acknowledged as a duplicate, not raced.
func (p *Processor) Ingest(ctx context.Context, scope tenant.Scope, externalID string, typ EventType, payload []byte) (IngestResult, error) {
	if !scope.System {
		return IngestResult{}, ErrSystemScopeOnly
	}
	if externalID == "" {
		return IngestResult{}, fmt.Errorf("%w: external event id is required", ErrInvalidPayload)
	}
	if typ == "" {
		return IngestResult{}, fmt.Errorf("%w: event type is required", ErrInvalidPayload)
	}

	ev := &Event{
		ID:         uuid.New(),
		ExternalID: externalID,
		Type:       typ,
		Payload:    payload,
		ReceivedAt: p.now(),
	}

	err := p.store.Create(ctx, ev)
	switch {
	case err == nil:
		// fresh event, fall through to processing
	case errors.Is(err, ErrDuplicateEvent):
		existing, getErr := p.store.GetByExternalID(ctx, externalID)
		if getErr != nil {
			return IngestResult{}, getErr
		}
		if !existing.Retryable() || existing.Attempts == 0 {
			// Attempts == 0 means the first delivery has not finished a
			// dispatch yet; rows it leaves behind on a crash are swept
			// up by RetryFailed.
			return IngestResult{Event: existing, AlreadyProcessed: true}, nil
		}
		// Retry the stored event with the payload just delivered; a
		// provider redelivering after our failure may have corrected it.
		existing.Payload = payload
		ev = existing
	default:
		return IngestResult{}, err
	}

	if err := p.process(ctx, scope, ev); err != nil {
		return IngestResult{Event: ev}, err
	}
	return IngestResult{Event: ev}, nil
}

// RetryFailed reprocesses events whose backoff interval has elapsed.
// Per-event failures do not abort the sweep.
func (p *Processor) RetryFailed(ctx context.Context, scope tenant.Scope) (RetryStats, error) {
	if !scope.System {
		return RetryStats{}, ErrSystemScopeOnly
	}

	now := p.now()
	events, err := p.store.ListRetryable(ctx, now, retryBatchSize)
	if err != nil {
		return RetryStats{}, err
	}

	var stats RetryStats
	stats.Examined = len(events)
	for i := range events {
		ev := events[i]
		if ev.LastAttemptAt != nil {
			due := ev.LastAttemptAt.Add(p.backoff.NextInterval(ev.Attempts))
			if due.After(now) {
				continue
			}
		}

		stats.Retried++
		switch err := p.process(ctx, scope, &ev); {
		case err == nil:
			stats.Succeeded++
		case ev.Terminal:
			stats.Escalated++
		}
	}
	return stats, nil
}

func (p *Processor) process(ctx context.Context, scope tenant.Scope, ev *Event) error {
	attemptAt := p.now()
	ev.Attempts++
	ev.LastAttemptAt = &attemptAt

	dispatchErr := p.dispatch(ctx, scope, ev)
	if dispatchErr == nil {
		ev.Processed = true
		ev.ProcessedAt = &attemptAt
		ev.ProcessingError = ""
		if err := p.store.Update(ctx, ev); err != nil {
			return err
		}

		_ = p.auditor.Log(ctx, "billing.event.processed",
			audit.WithAfter(ev.Snapshot()),
		)
		return nil
	}

	ev.ProcessingError = dispatchErr.Error()
	if ev.Attempts >= p.maxAttempts {
		ev.Terminal = true
	}
	if err := p.store.Update(ctx, ev); err != nil {
		return errors.Join(err, dispatchErr)
	}

	if ev.Terminal {
		p.log.ErrorContext(ctx, "billing event permanently failed",
			slog.String("external_id", ev.ExternalID),
			slog.String("type", string(ev.Type)),
			slog.Int("attempts", ev.Attempts),
		)
		if err := p.review.Enqueue(ctx, ReviewItem{Event: *ev, Reason: dispatchErr.Error()}); err != nil {
			p.log.ErrorContext(ctx, "failed to enqueue billing event for review", slog.Any("error", err))
		}
		_ = p.auditor.LogError(ctx, "billing.event.terminal", dispatchErr,
			audit.WithAfter(ev.Snapshot()),
		)
		return errors.Join(ErrEventTerminal, dispatchErr)
	}

	_ = p.auditor.LogError(ctx, "billing.event.failed", dispatchErr,
		audit.WithAfter(ev.Snapshot()),
	)
	return errors.Join(ErrProcessingFailed, dispatchErr)
}

// providerPayload is the subscription snapshot providers embed in their
// lifecycle notifications.
type providerPayload struct {
	TenantID       uuid.UUID  `json:"tenant_id"`
	SubscriptionID string     `json:"subscription_id"`
	Plan           string     `json:"plan"`
	Status         string     `json:"status"`
	PeriodStart    time.Time  `json:"period_start"`
	PeriodEnd      time.Time  `json:"period_end"`
	TrialEnd       *time.Time `json:"trial_end,omitempty"`
}

func (p *Processor) dispatch(ctx context.Context, scope tenant.Scope, ev *Event) error {
	switch ev.Type {
	case TypeSubscriptionCreated, TypeSubscriptionUpdated:
		pl, err := decodePayload(ev.Payload)
		if err != nil {
			return err
		}
		status := subscription.Status(pl.Status)
		if pl.Status == "" && ev.Type == TypeSubscriptionCreated {
			status = subscription.StatusActive
			if pl.TrialEnd != nil {
				status = subscription.StatusTrialing
			}
		}
		return p.upsert(ctx, scope, pl, status)

	case TypeSubscriptionCanceled:
		pl, err := decodePayload(ev.Payload)
		if err != nil {
			return err
		}
		return p.upsert(ctx, scope, pl, subscription.StatusCanceled)

	case TypePaymentFailed:
		pl, err := decodePayload(ev.Payload)
		if err != nil {
			return err
		}
		return p.upsert(ctx, scope, pl, subscription.StatusPastDue)

	case TypeTrialWillEnd:
		pl, err := decodePayload(ev.Payload)
		if err != nil {
			return err
		}
		// Advisory only: no lifecycle change, just a trace for support.
		p.log.InfoContext(ctx, "trial ending soon",
			slog.String("tenant_id", pl.TenantID.String()),
			slog.String("subscription_id", pl.SubscriptionID),
		)
		return p.auditor.Log(ctx, "billing.trial_will_end",
			audit.WithTenant(pl.TenantID),
			audit.WithMetadata("subscription_id", pl.SubscriptionID),
		)

	default:
		// Unknown types are recorded and acknowledged so providers can
		// roll out new notifications without breaking us.
		p.log.InfoContext(ctx, "ignoring unknown billing event type",
			slog.String("type", string(ev.Type)),
			slog.String("external_id", ev.ExternalID),
		)
		return nil
	}
}

func (p *Processor) upsert(ctx context.Context, scope tenant.Scope, pl providerPayload, status subscription.Status) error {
	_, err := p.lifecycle.UpsertFromExternalEvent(ctx, scope, subscription.ExternalUpdate{
		TenantID:    pl.TenantID,
		ExternalID:  pl.SubscriptionID,
		PlanSlug:    pl.Plan,
		Status:      status,
		PeriodStart: pl.PeriodStart,
		PeriodEnd:   pl.PeriodEnd,
		TrialEnd:    pl.TrialEnd,
	})
	return err
}

func decodePayload(raw []byte) (providerPayload, error) {
	var pl providerPayload
	if err := json.Unmarshal(raw, &pl); err != nil {
		return providerPayload{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if pl.TenantID == uuid.Nil {
		return providerPayload{}, fmt.Errorf("%w: tenant_id is required", ErrInvalidPayload)
	}
	if pl.SubscriptionID == "" {
		return providerPayload{}, fmt.Errorf("%w: subscription_id is required", ErrInvalidPayload)
	}
	return pl, nil
}
