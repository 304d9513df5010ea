package usage

import "errors"

var (
	ErrSummaryNotFound = errors.New("usage summary not found")
	ErrInvalidPeriod   = errors.New("invalid usage period")
	ErrInvalidEvent    = errors.New("invalid usage event")
	ErrScopeRequired   = errors.New("tenant scope required for usage operation")
	ErrSystemScopeOnly = errors.New("operation requires system scope")
)
