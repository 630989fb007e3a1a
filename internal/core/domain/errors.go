package domain

import "errors"

var (
	// ErrBreakerOpen is returned when the circuit breaker rejects a call
	// before it reaches the remote service. It is never retried.
	ErrBreakerOpen = errors.New("circuit breaker is open")

	// ErrJobNotFound indicates the remote service has no job with the given id.
	ErrJobNotFound = errors.New("job not found")

	// ErrWaitTimeout indicates a batch wait did not drain before its deadline.
	ErrWaitTimeout = errors.New("timed out waiting for jobs")

	// ErrFutureCancelled indicates a job future was cancelled before completion.
	ErrFutureCancelled = errors.New("job cancelled")
)

// IsBreakerOpen reports whether err is a breaker-open rejection.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, ErrBreakerOpen)
}
