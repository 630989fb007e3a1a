package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
	"github.com/hiq-lab/arvak-go/internal/metrics"
)

// Executor wraps a single remote operation with retry and optional circuit
// breaker gating. The zero breaker means no gating.
type Executor struct {
	policy  Policy
	breaker *Breaker

	// sleep waits out a backoff delay; injectable for tests. It must
	// return early with ctx.Err() on cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor. breaker may be nil.
func NewExecutor(policy Policy, breaker *Breaker) *Executor {
	return &Executor{
		policy:  policy,
		breaker: breaker,
		sleep:   sleepCtx,
	}
}

// Do invokes op with retry. Before each attempt the breaker (if any) is
// consulted; a rejection fails immediately with domain.ErrBreakerOpen and no
// further attempts. Every completed attempt reports its outcome to the
// breaker, whether or not the error is retryable. When attempts are
// exhausted the last observed error is surfaced.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < e.policy.MaxAttempts; attempt++ {
		if e.breaker != nil && !e.breaker.CanProceed() {
			return fmt.Errorf("%w (state %s)", domain.ErrBreakerOpen, e.breaker.State())
		}

		err := op(ctx)
		if err == nil {
			if e.breaker != nil {
				e.breaker.RecordSuccess()
			}
			return nil
		}

		if e.breaker != nil {
			e.breaker.RecordFailure()
		}
		lastErr = err

		if !e.policy.ShouldRetry(err, attempt) {
			return err
		}
		if attempt == e.policy.MaxAttempts-1 {
			break
		}

		metrics.RetrySleeps.Inc()
		if serr := e.sleep(ctx, e.policy.Delay(attempt)); serr != nil {
			return serr
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", e.policy.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
