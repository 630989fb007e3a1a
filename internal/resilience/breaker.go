package resilience

import (
	"sync"
	"time"

	"github.com/hiq-lab/arvak-go/internal/metrics"
)

// BreakerState represents the circuit breaker state.
type BreakerState int

const (
	StateClosed   BreakerState = iota // normal operation
	StateOpen                         // rejecting calls
	StateHalfOpen                     // probing whether the service recovered
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig struct {
	FailureThreshold int           // consecutive-ish failures before opening
	SuccessThreshold int           // successes in half-open before closing
	OpenTimeout      time.Duration // how long to stay open before probing
	HalfOpenMaxCalls int           // probe calls allowed while half-open
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Breaker prevents cascading failures by rejecting calls after sustained
// errors. Safe for concurrent use; one mutex guards all counters.
//
// Every error reported via RecordFailure counts toward opening the breaker,
// including permanent (non-retryable) remote errors: a rejected request still
// means the remote path is misbehaving from this client's point of view.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu            sync.Mutex
	state         BreakerState
	failureCount  int
	successCount  int
	halfOpenCalls int
	lastFailure   time.Time
}

// NewBreaker creates a circuit breaker in the closed state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg, now: time.Now}
}

// State returns the current state, applying the open->half-open timeout check.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeProbe()
	return b.state
}

// CanProceed is the admission gate. Callers must follow each admitted call
// with exactly one RecordSuccess or RecordFailure. While half-open it
// consumes one probe slot per admission.
func (b *Breaker) CanProceed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.maybeProbe()

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.halfOpenCalls < b.cfg.HalfOpenMaxCalls {
			b.halfOpenCalls++
			return true
		}
		metrics.BreakerRejections.Inc()
		return false
	default: // StateOpen
		metrics.BreakerRejections.Inc()
		return false
	}
}

// RecordSuccess records a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.toClosed()
		}
	case StateClosed:
		if b.failureCount > 0 {
			b.failureCount--
		}
	}
}

// RecordFailure records a failed call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailure = b.now()

	switch b.state {
	case StateHalfOpen:
		b.toOpen()
	case StateClosed:
		if b.failureCount >= b.cfg.FailureThreshold {
			b.toOpen()
		}
	}
}

// maybeProbe transitions open -> half-open once the open timeout elapses.
// Callers must hold b.mu.
func (b *Breaker) maybeProbe() {
	if b.state != StateOpen {
		return
	}
	if b.now().Sub(b.lastFailure) >= b.cfg.OpenTimeout {
		b.state = StateHalfOpen
		b.halfOpenCalls = 0
		b.successCount = 0
		metrics.BreakerTransitions.WithLabelValues("half_open").Inc()
	}
}

func (b *Breaker) toOpen() {
	b.state = StateOpen
	b.successCount = 0
	b.halfOpenCalls = 0
	metrics.BreakerTransitions.WithLabelValues("open").Inc()
}

func (b *Breaker) toClosed() {
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.halfOpenCalls = 0
	metrics.BreakerTransitions.WithLabelValues("closed").Inc()
}
