// Package rpc defines the boundary to the remote Arvak execution service:
// the JobService contract, gRPC connection management, error classification,
// and the resilient/cached wrappers layered over a concrete transport.
package rpc

import (
	"context"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

// PollStatus is one observation of a remote job.
type PollStatus struct {
	JobID  string
	State  domain.JobState
	Result *domain.JobResult // set when State is done and the service inlines it
	Error  string            // remote failure message when State is failed
}

// JobService is the remote job API consumed by this client. The concrete
// implementation is the generated Arvak gRPC stub (owned by the server
// repo); this package ships the Simulator for in-process use and wrappers
// that compose over any implementation.
type JobService interface {
	// Submit sends a circuit for execution and returns the remote job id.
	Submit(ctx context.Context, payload string, backend string, shots uint64) (string, error)

	// Poll fetches the current state of a job.
	Poll(ctx context.Context, jobID string) (PollStatus, error)

	// Cancel requests cancellation. Best-effort: the remote job may
	// still run to completion.
	Cancel(ctx context.Context, jobID string) error

	// Result fetches the result of a completed job.
	Result(ctx context.Context, jobID string) (*domain.JobResult, error)

	// Close releases the underlying transport.
	Close() error
}
