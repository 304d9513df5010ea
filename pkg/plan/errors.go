package plan

import "errors"

var (
	ErrPlanNotFound             = errors.New("plan not found")
	ErrInvalidPlanConfiguration = errors.New("invalid plan configuration")
	ErrNoFreePlan               = errors.New("catalog has no free plan")
	ErrFailedToLoadPlans        = errors.New("failed to load plans")
)
