package audit

import "errors"

var (
	ErrEntryValidation = errors.New("audit entry validation failed")
	ErrStorageFailure  = errors.New("audit storage failure")
)
