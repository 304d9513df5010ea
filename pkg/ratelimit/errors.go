package ratelimit

import "errors"

var (
	ErrKeyRequired    = errors.New("key is required")
	ErrClientRequired = errors.New("redis client is required")
)
