package subscription

import "errors"

var (
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrNoCurrentSubscription = errors.New("no current subscription for tenant")
	ErrCurrentSlotTaken      = errors.New("tenant already has a current subscription")
	ErrInvalidTransition     = errors.New("invalid subscription status transition")
	ErrInvalidStatus         = errors.New("unknown subscription status")
	ErrUnknownPlan           = errors.New("unknown plan slug")
	ErrDowngradeNotPossible  = errors.New("downgrade not possible with current usage")
	ErrSystemScopeOnly       = errors.New("operation requires system scope")
)
