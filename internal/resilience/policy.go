package resilience

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// Strategy selects how backoff delays grow between attempts.
type Strategy int

const (
	StrategyExponential Strategy = iota // initial * multiplier^attempt
	StrategyLinear                      // initial * (attempt+1)
	StrategyConstant                    // initial
)

func (s Strategy) String() string {
	switch s {
	case StrategyLinear:
		return "linear"
	case StrategyConstant:
		return "constant"
	default:
		return "exponential"
	}
}

// ParseStrategy maps a config string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "exponential":
		return StrategyExponential, nil
	case "linear":
		return StrategyLinear, nil
	case "constant":
		return StrategyConstant, nil
	}
	return StrategyExponential, errors.New("unknown retry strategy: " + s)
}

// Policy defines retry behavior for remote calls. It is immutable once
// constructed; methods have no side effects beyond drawing from Rand.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
	Strategy     Strategy

	// Retryable classifies errors. Nil means every error is retryable;
	// callers wiring a transport should set this to its classifier.
	Retryable func(error) bool

	// Rand supplies the jitter factor source. Nil uses math/rand's
	// shared source; tests inject a fixed function.
	Rand func() float64
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		Strategy:     StrategyExponential,
	}
}

// Delay calculates the backoff delay for the given attempt (0-indexed).
// The raw delay is clamped to MaxDelay, then jitter multiplies it by a
// uniform factor in [0.5, 1.5).
func (p Policy) Delay(attempt int) time.Duration {
	var delay float64
	switch p.Strategy {
	case StrategyLinear:
		delay = float64(p.InitialDelay) * float64(attempt+1)
	case StrategyConstant:
		delay = float64(p.InitialDelay)
	default:
		delay = float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	}

	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	if p.Jitter {
		delay *= 0.5 + p.randFloat()
	}

	return time.Duration(delay)
}

// ShouldRetry reports whether the given error at the given attempt
// (0-indexed) warrants another try.
func (p Policy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	if err == nil {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return true
}

// Validate checks the policy configuration.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return errors.New("MaxAttempts must be at least 1")
	}
	if p.InitialDelay <= 0 {
		return errors.New("InitialDelay must be positive")
	}
	if p.MaxDelay < p.InitialDelay {
		return errors.New("MaxDelay cannot be less than InitialDelay")
	}
	if p.Multiplier < 1 {
		return errors.New("Multiplier must be at least 1")
	}
	return nil
}

func (p Policy) randFloat() float64 {
	if p.Rand != nil {
		return p.Rand()
	}
	return rand.Float64()
}
