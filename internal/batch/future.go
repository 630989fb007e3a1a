// Package batch runs many Arvak jobs concurrently with a bounded worker
// pool and tracks each job through a JobFuture.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
	"github.com/hiq-lab/arvak-go/internal/rpc"
)

// JobFuture is a handle to one submitted job. It caches the terminal
// result so repeated Result calls never hit the service twice.
type JobFuture struct {
	svc rpc.JobService

	mu     sync.Mutex
	jobID  string
	state  domain.JobState
	result *domain.JobResult
	err    error
}

// NewJobFuture wraps an already-submitted job id.
func NewJobFuture(svc rpc.JobService, jobID string) *JobFuture {
	return &JobFuture{svc: svc, jobID: jobID, state: domain.JobStatePending}
}

// JobID returns the remote job identifier.
func (f *JobFuture) JobID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobID
}

// State returns the last observed job state without touching the service.
func (f *JobFuture) State() domain.JobState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Done reports whether the job reached a terminal state.
func (f *JobFuture) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Terminal()
}

// Running reports whether the job is currently executing.
func (f *JobFuture) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == domain.JobStateRunning
}

// Err returns the terminal error, nil while pending or on success.
func (f *JobFuture) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Poll refreshes the job state with a single service round trip. Once
// the job is terminal Poll is a no-op.
func (f *JobFuture) Poll(ctx context.Context) (domain.JobState, error) {
	f.mu.Lock()
	if f.state.Terminal() {
		st := f.state
		f.mu.Unlock()
		return st, nil
	}
	jobID := f.jobID
	f.mu.Unlock()

	status, err := f.svc.Poll(ctx, jobID)
	if err != nil {
		return domain.JobStatePending, fmt.Errorf("failed to poll job %s: %w", jobID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = status.State
	switch status.State {
	case domain.JobStateDone:
		f.result = status.Result
	case domain.JobStateFailed:
		f.err = fmt.Errorf("job %s failed: %s", jobID, status.Error)
	case domain.JobStateCancelled:
		f.err = fmt.Errorf("job %s: %w", jobID, domain.ErrFutureCancelled)
	}
	return f.state, nil
}

// Result blocks until the job completes, polling at the given interval,
// and returns the execution result. A zero interval defaults to one second.
func (f *JobFuture) Result(ctx context.Context, interval time.Duration) (*domain.JobResult, error) {
	if interval <= 0 {
		interval = time.Second
	}
	for {
		f.mu.Lock()
		if f.state.Terminal() {
			res, err := f.result, f.err
			f.mu.Unlock()
			return res, err
		}
		f.mu.Unlock()

		if _, err := f.Poll(ctx); err != nil {
			return nil, err
		}

		f.mu.Lock()
		terminal := f.state.Terminal()
		f.mu.Unlock()
		if terminal {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Cancel asks the service to cancel the job. Futures that never got a
// job id are discarded locally.
func (f *JobFuture) Cancel(ctx context.Context) error {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		return nil
	}
	jobID := f.jobID
	if jobID == "" {
		f.state = domain.JobStateCancelled
		f.err = domain.ErrFutureCancelled
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	if err := f.svc.Cancel(ctx, jobID); err != nil {
		return fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = domain.JobStateCancelled
	f.err = domain.ErrFutureCancelled
	return nil
}

// resolved returns the terminal snapshot, valid only after Done.
func (f *JobFuture) resolved() (*domain.JobResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}
