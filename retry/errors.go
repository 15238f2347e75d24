package retry

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a policy's MaxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
