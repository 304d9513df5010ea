package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/plan"
)

// Status represents the lifecycle state of a subscription.
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusUnpaid   Status = "unpaid"
)

// currentStatuses are the states in which a subscription occupies the
// tenant's exclusive "current subscription" slot. At most one subscription
// per tenant may be in any of them, enforced at the storage layer.
var currentStatuses = map[Status]bool{
	StatusTrialing: true,
	StatusActive:   true,
	StatusPastDue:  true,
	StatusUnpaid:   true,
}

// transitions is the allowed state graph. canceled is terminal.
var transitions = map[Status][]Status{
	StatusTrialing: {StatusActive, StatusPastDue, StatusCanceled},
	StatusActive:   {StatusPastDue, StatusCanceled},
	StatusPastDue:  {StatusActive, StatusCanceled, StatusUnpaid},
	StatusUnpaid:   {StatusActive, StatusCanceled},
	StatusCanceled: {},
}

// CanTransition reports whether moving from one status to another is legal.
// Same-status updates (period refreshes) are always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is a known status value.
func IsValidStatus(s Status) bool {
	_, known := transitions[s]
	return known
}

// Subscription binds a tenant to a plan over a billing period.
// Rows are never hard-deleted: canceled subscriptions remain for audit and
// billing history.
type Subscription struct {
	ID                 uuid.UUID         `json:"id"`
	TenantID           uuid.UUID         `json:"tenant_id"`
	PlanSlug           string            `json:"plan_slug"`
	Cycle              plan.BillingCycle `json:"cycle"`
	ExternalID         string            `json:"external_id,omitempty"` // provider's id, empty for free plans
	Status             Status            `json:"status"`
	CurrentPeriodStart time.Time         `json:"current_period_start"`
	CurrentPeriodEnd   time.Time         `json:"current_period_end"`
	TrialEndsAt        *time.Time        `json:"trial_ends_at,omitempty"`
	CancelAt           *time.Time        `json:"cancel_at,omitempty"`
	CanceledAt         *time.Time        `json:"canceled_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// IsCurrent reports whether the subscription occupies the tenant's current
// subscription slot.
func (s *Subscription) IsCurrent() bool {
	return currentStatuses[s.Status]
}

// IsActive reports whether the subscription grants paid access right now.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive || s.Status == StatusTrialing
}

// TrialDaysRemainingAt returns full days left in the trial at the given time,
// rounding partial days up. Zero when not trialing.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if s.Status != StatusTrialing || s.TrialEndsAt == nil {
		return 0
	}
	remaining := s.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours()/24 + 0.5)
}

// Snapshot returns the audit-log representation of the subscription state.
func (s *Subscription) Snapshot() map[string]any {
	if s == nil {
		return nil
	}
	snap := map[string]any{
		"id":                   s.ID.String(),
		"plan_slug":            s.PlanSlug,
		"status":               string(s.Status),
		"current_period_start": s.CurrentPeriodStart,
		"current_period_end":   s.CurrentPeriodEnd,
	}
	if s.ExternalID != "" {
		snap["external_id"] = s.ExternalID
	}
	if s.TrialEndsAt != nil {
		snap["trial_ends_at"] = *s.TrialEndsAt
	}
	return snap
}
