package quota

import "errors"

var (
	// ErrQuotaExceeded is a normal decision outcome, not a failure: callers
	// translate it into a user-visible upgrade prompt.
	ErrQuotaExceeded = errors.New("quota exceeded")

	ErrUnknownLimit   = errors.New("unknown limit type")
	ErrNoRateWindow   = errors.New("no rate window configured for hourly limit")
	ErrPlanResolution = errors.New("failed to resolve tenant plan")
)
