package billing

import "errors"

var (
	ErrEventNotFound    = errors.New("billing event not found")
	ErrDuplicateEvent   = errors.New("billing event already recorded")
	ErrInvalidPayload   = errors.New("invalid billing payload")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrSignatureExpired = errors.New("webhook signature outside accepted window")
	ErrSecretRequired   = errors.New("webhook secret is required")
	ErrEventTerminal    = errors.New("billing event permanently failed")
	ErrSystemScopeOnly  = errors.New("billing processing requires system scope")
	ErrProcessingFailed = errors.New("billing event processing failed")
)
