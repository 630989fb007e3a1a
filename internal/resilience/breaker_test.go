package resilience

import (
	"testing"
	"time"
)

// fakeClock lets tests advance breaker time manually.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg BreakerConfig) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := NewBreaker(cfg)
	b.now = clock.Now
	return b, clock
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxCalls: 1,
	})

	if b.State() != StateClosed {
		t.Fatalf("new breaker state = %v, want closed", b.State())
	}

	b.RecordFailure()
	b.RecordFailure()
	if b.State() != StateClosed {
		t.Fatalf("state after 2 failures = %v, want closed", b.State())
	}

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("state after 3 failures = %v, want open", b.State())
	}
	if b.CanProceed() {
		t.Error("CanProceed() = true immediately after opening")
	}
}

func TestBreakerRecoveryCycle(t *testing.T) {
	// Concrete scenario: threshold 3, success threshold 2, timeout 5s.
	b, clock := newTestBreaker(BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxCalls: 5,
	})

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	if b.CanProceed() {
		t.Fatal("CanProceed() = true at t=0 after opening")
	}

	clock.Advance(5 * time.Second)
	if !b.CanProceed() {
		t.Fatal("CanProceed() = false after open timeout elapsed")
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("state after timeout = %v, want half_open", b.State())
	}

	b.RecordSuccess()
	if b.State() != StateHalfOpen {
		t.Fatalf("state after 1 success = %v, want half_open", b.State())
	}

	b.RecordSuccess()
	if b.State() != StateClosed {
		t.Fatalf("state after 2 successes = %v, want closed", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(BreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 2,
		OpenTimeout:      time.Second,
		HalfOpenMaxCalls: 1,
	})

	b.RecordFailure()
	b.RecordFailure()
	clock.Advance(time.Second)

	if !b.CanProceed() {
		t.Fatal("expected probe admission in half-open")
	}
	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("state after half-open failure = %v, want open", b.State())
	}
	if b.CanProceed() {
		t.Error("CanProceed() = true right after reopening")
	}
}

func TestBreakerHalfOpenProbeQuota(t *testing.T) {
	b, clock := newTestBreaker(BreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 3,
		OpenTimeout:      time.Second,
		HalfOpenMaxCalls: 2,
	})

	b.RecordFailure()
	clock.Advance(time.Second)

	if !b.CanProceed() {
		t.Fatal("first probe should be admitted")
	}
	if !b.CanProceed() {
		t.Fatal("second probe should be admitted")
	}
	if b.CanProceed() {
		t.Error("third probe admitted, want rejection after quota exhausted")
	}
}

func TestBreakerClosedSuccessDecaysFailures(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      time.Second,
		HalfOpenMaxCalls: 1,
	})

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess() // decays one failure
	b.RecordFailure() // back to 2, still below threshold
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed (success should decay failure count)", b.State())
	}

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
}

func TestBreakerConcurrentAccess(t *testing.T) {
	b := NewBreaker(DefaultBreakerConfig())

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				if b.CanProceed() {
					if j%2 == 0 {
						b.RecordSuccess()
					} else {
						b.RecordFailure()
					}
				}
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	// State must be one of the three valid states; the race detector
	// covers the rest.
	switch b.State() {
	case StateClosed, StateOpen, StateHalfOpen:
	default:
		t.Fatalf("invalid breaker state %v", b.State())
	}
}
