package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
	"github.com/hiq-lab/arvak-go/internal/metrics"
	"github.com/hiq-lab/arvak-go/internal/rpc"
)

// Recorder persists the outcome of a finished batch. Implementations
// live in the storage layer; a nil recorder disables persistence.
type Recorder interface {
	RecordBatch(ctx context.Context, batchID, backend string, result *BatchResult) error
}

// Config tunes the batch manager.
type Config struct {
	MaxWorkers   int           `yaml:"max_workers"`
	PollInterval time.Duration `yaml:"poll_interval"`
	ScanInterval time.Duration `yaml:"scan_interval"`
}

// DefaultConfig returns the manager defaults: ten workers, one second
// between polls of the same job, 100ms between scans of the pending set.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:   10,
		PollInterval: time.Second,
		ScanInterval: 100 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = d.MaxWorkers
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.ScanInterval <= 0 {
		c.ScanInterval = d.ScanInterval
	}
	return c
}

// WaitOptions controls WaitAll behavior.
type WaitOptions struct {
	// Timeout bounds the whole wait. Zero means wait indefinitely.
	Timeout time.Duration
	// OnProgress fires once before the first scan and again after every
	// individual job resolution.
	OnProgress func(BatchProgress)
	// FailFast cancels the remaining jobs as soon as one fails.
	FailFast bool
}

// Manager submits circuits in bulk and drives their futures to completion.
type Manager struct {
	svc      rpc.JobService
	cfg      Config
	recorder Recorder
	log      *slog.Logger
}

// NewManager builds a Manager over the given service.
func NewManager(svc rpc.JobService, cfg Config, recorder Recorder, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{svc: svc, cfg: cfg.withDefaults(), recorder: recorder, log: log}
}

// SubmitMany submits the circuits through a bounded worker pool. A
// circuit whose submission is rejected after its own retries is logged
// and dropped, so the returned set may be smaller than the input.
// Futures must be correlated by job id, not by position.
func (m *Manager) SubmitMany(ctx context.Context, backend string, circuits []domain.CircuitSpec) []*JobFuture {
	slots := make([]*JobFuture, len(circuits))

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < m.cfg.MaxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				spec := circuits[i]
				jobID, err := m.svc.Submit(ctx, spec.Payload, backend, spec.Shots)
				if err != nil {
					m.log.Warn("dropping circuit, submission failed", "index", i, "error", err)
					continue
				}
				slots[i] = NewJobFuture(m.svc, jobID)
			}
		}()
	}

dispatch:
	for i := range circuits {
		select {
		case work <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(work)
	wg.Wait()

	futures := make([]*JobFuture, 0, len(circuits))
	for _, f := range slots {
		if f != nil {
			futures = append(futures, f)
		}
	}
	if dropped := len(circuits) - len(futures); dropped > 0 {
		m.log.Warn("some circuits were dropped", "dropped", dropped, "submitted", len(futures))
	}
	return futures
}

// WaitAll drives every future to a terminal state and returns the final
// accounting, with successes and failures ordered by completion time.
// On timeout the remaining jobs are cancelled and the partial result is
// still returned, non-nil, alongside domain.ErrWaitTimeout; callers that
// discard the result on error lose the completed portion of the batch.
func (m *Manager) WaitAll(ctx context.Context, futures []*JobFuture, opts WaitOptions) (*BatchResult, error) {
	start := time.Now()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	result := &BatchResult{}
	collected := make(map[*JobFuture]bool, len(futures))
	// Jobs are polled at most once per PollInterval; the pending set is
	// rescanned every ScanInterval so resolutions surface quickly.
	lastPoll := make(map[*JobFuture]time.Time, len(futures))

	if opts.OnProgress != nil {
		opts.OnProgress(snapshotProgress(futures, start))
	}

	for {
		timedOut := ctx.Err() != nil

		if !timedOut {
			for _, f := range futures {
				if f.Done() {
					continue
				}
				if !lastPoll[f].IsZero() && time.Since(lastPoll[f]) < m.cfg.PollInterval {
					continue
				}
				lastPoll[f] = time.Now()
				if _, err := f.Poll(ctx); err != nil {
					if ctx.Err() != nil {
						timedOut = true
						break
					}
					m.log.Warn("poll failed", "job_id", f.JobID(), "error", err)
				}
			}
		}

		// Collect newly terminal futures in completion order, reporting
		// progress after each individual resolution.
		failedNow := false
		for _, f := range futures {
			if !f.Done() || collected[f] {
				continue
			}
			collected[f] = true
			m.observe(f)
			if res, err := f.resolved(); err != nil {
				result.Failures = append(result.Failures, JobFailure{JobID: f.JobID(), Err: err})
				failedNow = true
			} else if res != nil {
				result.Successes = append(result.Successes, f)
			}
			if opts.OnProgress != nil {
				opts.OnProgress(snapshotProgress(futures, start))
			}
		}

		if timedOut {
			m.abandon(futures, collected, result)
			m.finalize(result, futures, start)
			return result, fmt.Errorf("%w after %s", domain.ErrWaitTimeout, time.Since(start).Round(time.Millisecond))
		}

		if failedNow && opts.FailFast {
			m.cancelRemaining(ctx, futures)
		}

		if len(collected) == len(futures) {
			m.finalize(result, futures, start)
			return result, nil
		}

		select {
		case <-ctx.Done():
			// Collected on the next pass.
		case <-time.After(m.cfg.ScanInterval):
		}
	}
}

// AsCompleted yields futures in completion order. The error channel
// delivers at most one error (timeout or context cancellation) and both
// channels are closed when iteration ends.
func (m *Manager) AsCompleted(ctx context.Context, futures []*JobFuture, timeout time.Duration) (<-chan *JobFuture, <-chan error) {
	out := make(chan *JobFuture, len(futures))
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		parent := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		// Caller-initiated cancellation is surfaced as-is; only the
		// iteration's own deadline reads as a timeout.
		abort := func() error {
			if err := parent.Err(); err != nil {
				return err
			}
			return domain.ErrWaitTimeout
		}

		lastPoll := make(map[*JobFuture]time.Time, len(futures))
		delivered := make(map[*JobFuture]bool, len(futures))

		for len(delivered) < len(futures) {
			for _, f := range futures {
				if delivered[f] {
					continue
				}
				if f.Done() {
					delivered[f] = true
					m.observe(f)
					out <- f
					continue
				}
				if !lastPoll[f].IsZero() && time.Since(lastPoll[f]) < m.cfg.PollInterval {
					continue
				}
				lastPoll[f] = time.Now()
				if _, err := f.Poll(ctx); err != nil && ctx.Err() != nil {
					errc <- abort()
					return
				}
				if f.Done() {
					delivered[f] = true
					m.observe(f)
					out <- f
				}
			}
			if len(delivered) == len(futures) {
				return
			}
			select {
			case <-ctx.Done():
				errc <- abort()
				return
			case <-time.After(m.cfg.ScanInterval):
			}
		}
	}()

	return out, errc
}

// ExecuteBatch submits, waits, and records a whole batch in one call.
func (m *Manager) ExecuteBatch(ctx context.Context, backend string, circuits []domain.CircuitSpec, opts WaitOptions) (*BatchResult, error) {
	batchID := uuid.NewString()
	m.log.Info("starting batch", "batch_id", batchID, "backend", backend, "jobs", len(circuits))

	futures := m.SubmitMany(ctx, backend, circuits)
	result, waitErr := m.WaitAll(ctx, futures, opts)

	if m.recorder != nil {
		if err := m.recorder.RecordBatch(ctx, batchID, backend, result); err != nil {
			m.log.Error("failed to record batch", "batch_id", batchID, "error", err)
		}
	}

	m.log.Info("batch finished",
		"batch_id", batchID,
		"status", result.Status,
		"succeeded", result.SuccessCount(),
		"failed", result.FailureCount(),
		"elapsed", result.TotalTime.Round(time.Millisecond))

	return result, waitErr
}

// Map submits the circuits and applies fn to each successful result as
// it completes, in completion order. Jobs that fail are silently
// skipped; callers needing the failure detail should use ExecuteBatch.
func Map[T any](ctx context.Context, m *Manager, backend string, circuits []domain.CircuitSpec, timeout time.Duration, fn func(*domain.JobResult) T) ([]T, error) {
	futures := m.SubmitMany(ctx, backend, circuits)
	done, errc := m.AsCompleted(ctx, futures, timeout)

	mapped := make([]T, 0, len(futures))
	for f := range done {
		res, err := f.resolved()
		if err != nil || res == nil {
			continue
		}
		mapped = append(mapped, fn(res))
	}
	if err := <-errc; err != nil {
		return mapped, err
	}
	return mapped, nil
}

// abandon cancels and collects every future still pending after a
// timeout. Cancellation gets a fresh context since the wait's own
// deadline has already expired.
func (m *Manager) abandon(futures []*JobFuture, collected map[*JobFuture]bool, result *BatchResult) {
	cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.cancelRemaining(cancelCtx, futures)

	for _, f := range futures {
		if collected[f] {
			continue
		}
		collected[f] = true
		err := f.Err()
		if err == nil {
			err = domain.ErrWaitTimeout
		}
		result.Failures = append(result.Failures, JobFailure{JobID: f.JobID(), Err: err})
	}
}

// finalize stamps the final progress, status, and elapsed time. The
// counts come from the collected lists so they balance even when a
// cancellation could not reach the remote service.
func (m *Manager) finalize(result *BatchResult, futures []*JobFuture, start time.Time) {
	result.TotalTime = time.Since(start)
	result.Progress = BatchProgress{
		Total:     len(futures),
		Completed: len(result.Successes),
		Failed:    len(result.Failures),
		Elapsed:   result.TotalTime,
	}
	result.Status = statusFor(result.Progress)
}

// observe bumps the completion metrics for one resolved future.
func (m *Manager) observe(f *JobFuture) {
	if f.Err() != nil {
		metrics.JobsFailed.Inc()
		return
	}
	metrics.JobsCompleted.Inc()
}

// cancelRemaining best-effort cancels every unresolved future.
func (m *Manager) cancelRemaining(ctx context.Context, futures []*JobFuture) {
	for _, f := range futures {
		if f.Done() {
			continue
		}
		if err := f.Cancel(ctx); err != nil {
			m.log.Warn("failed to cancel job", "job_id", f.JobID(), "error", err)
		}
	}
}
