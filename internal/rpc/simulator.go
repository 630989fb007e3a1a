package rpc

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

// SimulatorConfig configures the in-process backend.
type SimulatorConfig struct {
	Latency     time.Duration // simulated execution time per job
	Qubits      int           // width of measured bitstrings
	FailureRate float64       // fraction of jobs that fail during execution
	Seed        int64         // 0 seeds from the clock
}

// DefaultSimulatorConfig returns a fast two-qubit simulator.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Latency: 50 * time.Millisecond,
		Qubits:  2,
	}
}

type simJob struct {
	id          string
	backend     string
	shots       uint64
	submittedAt time.Time
	cancelled   bool
	fail        bool
}

// Simulator is an in-process JobService. It backs the demo binary and tests
// with Bell-state-like histograms and optional failure injection.
type Simulator struct {
	cfg SimulatorConfig
	now func() time.Time

	mu          sync.Mutex
	rng         *rand.Rand
	jobs        map[string]*simJob
	failSubmits int
}

// NewSimulator creates a simulator backend.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.Qubits <= 0 {
		cfg.Qubits = 2
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		cfg:  cfg,
		now:  time.Now,
		rng:  rand.New(rand.NewSource(seed)),
		jobs: make(map[string]*simJob),
	}
}

// FailNextSubmits makes the next n Submit calls fail with Unavailable.
func (s *Simulator) FailNextSubmits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSubmits = n
}

func (s *Simulator) Submit(ctx context.Context, payload string, backend string, shots uint64) (string, error) {
	if payload == "" {
		return "", status.Error(codes.InvalidArgument, "empty circuit payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSubmits > 0 {
		s.failSubmits--
		return "", status.Error(codes.Unavailable, "simulated submit failure")
	}

	job := &simJob{
		id:          uuid.New().String(),
		backend:     backend,
		shots:       shots,
		submittedAt: s.now(),
		fail:        s.cfg.FailureRate > 0 && s.rng.Float64() < s.cfg.FailureRate,
	}
	s.jobs[job.id] = job
	return job.id, nil
}

func (s *Simulator) Poll(ctx context.Context, jobID string) (PollStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return PollStatus{}, status.Errorf(codes.NotFound, "job %s not found", jobID)
	}

	st := PollStatus{JobID: jobID, State: s.stateLocked(job)}
	switch st.State {
	case domain.JobStateFailed:
		st.Error = "simulated backend failure"
	case domain.JobStateDone:
		st.Result = s.resultLocked(job)
	}
	return st, nil
}

func (s *Simulator) Cancel(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return status.Errorf(codes.NotFound, "job %s not found", jobID)
	}
	if !s.stateLocked(job).Terminal() {
		job.cancelled = true
	}
	return nil
}

func (s *Simulator) Result(ctx context.Context, jobID string) (*domain.JobResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "job %s not found", jobID)
	}
	switch s.stateLocked(job) {
	case domain.JobStateDone:
		return s.resultLocked(job), nil
	case domain.JobStateFailed:
		return nil, status.Errorf(codes.Internal, "job %s failed", jobID)
	case domain.JobStateCancelled:
		return nil, status.Errorf(codes.Aborted, "job %s cancelled", jobID)
	}
	return nil, status.Errorf(codes.FailedPrecondition, "job %s not finished", jobID)
}

func (s *Simulator) Close() error { return nil }

// stateLocked derives the job state from elapsed time. Callers hold s.mu.
func (s *Simulator) stateLocked(job *simJob) domain.JobState {
	if job.cancelled {
		return domain.JobStateCancelled
	}
	if s.now().Sub(job.submittedAt) < s.cfg.Latency {
		return domain.JobStateRunning
	}
	if job.fail {
		return domain.JobStateFailed
	}
	return domain.JobStateDone
}

// resultLocked produces a Bell-state-like histogram: shots split between the
// all-zeros and all-ones bitstrings, deterministic per job id.
func (s *Simulator) resultLocked(job *simJob) *domain.JobResult {
	h := fnv.New64a()
	h.Write([]byte(job.id))
	skew := h.Sum64() % (job.shots/10 + 1)

	zeros := job.shots/2 + skew/2
	if zeros > job.shots {
		zeros = job.shots
	}
	counts := map[string]uint64{
		strings.Repeat("0", s.cfg.Qubits): zeros,
		strings.Repeat("1", s.cfg.Qubits): job.shots - zeros,
	}
	return &domain.JobResult{
		JobID:         job.id,
		Counts:        counts,
		Shots:         job.shots,
		Backend:       job.backend,
		ExecutionTime: s.cfg.Latency,
	}
}
