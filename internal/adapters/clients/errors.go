// Package clients provides the instrumented HTTP client used to reach the quote source.
package clients

import (
	"errors"
	"fmt"
)

// Client errors represent failures in the HTTP client layer.
// Adapters translate them into domain errors.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded is returned after all retry attempts have been exhausted.
	// The last attempt's error is wrapped alongside it.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrRateLimited is returned when the outbound request budget could not be
	// acquired before the context ended.
	ErrRateLimited = errors.New("rate limit wait aborted")
)

// StatusError carries a retryable HTTP status that persisted through every attempt.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
}

// StatusCode extracts the HTTP status from err, or 0 if none is present.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}

	return 0
}
