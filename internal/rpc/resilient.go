package rpc

import (
	"context"
	"time"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
	"github.com/hiq-lab/arvak-go/internal/metrics"
	"github.com/hiq-lab/arvak-go/internal/resilience"
)

// ResilientService wraps a JobService with retry and circuit-breaker gating.
// Each operation is wrapped explicitly rather than through any generic
// forwarding, so the compiler checks the full delegated surface. All
// operations share one breaker: sustained failures on any of them open it.
type ResilientService struct {
	inner   JobService
	exec    *resilience.Executor
	breaker *resilience.Breaker
}

// NewResilientService builds the wrapper. breaker may be nil to disable
// gating. A policy without a Retryable classifier gets the transport's
// transient-error classifier.
func NewResilientService(inner JobService, policy resilience.Policy, breaker *resilience.Breaker) *ResilientService {
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}
	return &ResilientService{
		inner:   inner,
		exec:    resilience.NewExecutor(policy, breaker),
		breaker: breaker,
	}
}

// Breaker returns the shared breaker, or nil.
func (s *ResilientService) Breaker() *resilience.Breaker { return s.breaker }

func (s *ResilientService) Submit(ctx context.Context, payload string, backend string, shots uint64) (string, error) {
	var jobID string
	err := s.exec.Do(ctx, func(ctx context.Context) error {
		var err error
		jobID, err = s.inner.Submit(ctx, payload, backend, shots)
		return err
	})
	if err != nil {
		return "", err
	}
	metrics.JobsSubmitted.Inc()
	return jobID, nil
}

func (s *ResilientService) Poll(ctx context.Context, jobID string) (PollStatus, error) {
	var st PollStatus
	start := time.Now()
	err := s.exec.Do(ctx, func(ctx context.Context) error {
		var err error
		st, err = s.inner.Poll(ctx, jobID)
		return err
	})
	metrics.PollLatency.Observe(time.Since(start).Seconds())
	return st, err
}

func (s *ResilientService) Cancel(ctx context.Context, jobID string) error {
	return s.exec.Do(ctx, func(ctx context.Context) error {
		return s.inner.Cancel(ctx, jobID)
	})
}

func (s *ResilientService) Result(ctx context.Context, jobID string) (*domain.JobResult, error) {
	var result *domain.JobResult
	err := s.exec.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.inner.Result(ctx, jobID)
		return err
	})
	return result, err
}

func (s *ResilientService) Close() error {
	return s.inner.Close()
}
