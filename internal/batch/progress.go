package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

// BatchStatus summarizes the outcome of a whole batch.
type BatchStatus string

const (
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
	BatchPartial   BatchStatus = "partial"
)

// BatchProgress is a point-in-time snapshot of a running batch.
type BatchProgress struct {
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Running   int           `json:"running"`
	Pending   int           `json:"pending"`
	Elapsed   time.Duration `json:"elapsed"`
}

// PercentComplete returns resolution progress in the range [0, 100].
func (p BatchProgress) PercentComplete() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Completed+p.Failed) / float64(p.Total) * 100
}

// IsComplete reports whether every job has reached a terminal state.
func (p BatchProgress) IsComplete() bool {
	return p.Completed+p.Failed >= p.Total
}

// SuccessRate returns the fraction of resolved jobs that succeeded.
func (p BatchProgress) SuccessRate() float64 {
	resolved := p.Completed + p.Failed
	if resolved == 0 {
		return 0
	}
	return float64(p.Completed) / float64(resolved)
}

// JobFailure pairs a failed job with its terminal error.
type JobFailure struct {
	JobID string
	Err   error
}

// BatchResult is the final accounting for one batch run.
type BatchResult struct {
	Successes []*JobFuture
	Failures  []JobFailure
	Progress  BatchProgress
	Status    BatchStatus
	TotalTime time.Duration
}

// SuccessCount returns the number of jobs that completed.
func (r *BatchResult) SuccessCount() int { return len(r.Successes) }

// FailureCount returns the number of jobs that failed.
func (r *BatchResult) FailureCount() int { return len(r.Failures) }

// snapshotProgress tallies future states into a progress snapshot,
// stamped with the time elapsed since the wait began.
func snapshotProgress(futures []*JobFuture, start time.Time) BatchProgress {
	p := BatchProgress{Total: len(futures), Elapsed: time.Since(start)}
	for _, f := range futures {
		switch {
		case f.State() == domain.JobStateDone:
			p.Completed++
		case f.Done():
			p.Failed++
		case f.Running():
			p.Running++
		default:
			p.Pending++
		}
	}
	return p
}

// statusFor derives the batch status from final counts.
func statusFor(p BatchProgress) BatchStatus {
	switch {
	case !p.IsComplete():
		return BatchRunning
	case p.Failed == 0:
		return BatchCompleted
	case p.Completed == 0:
		return BatchFailed
	default:
		return BatchPartial
	}
}

// ProgressBar renders a fixed-width text bar, handy for CLI output.
func ProgressBar(p BatchProgress, width int) string {
	if width <= 0 {
		width = 40
	}
	filled := int(p.PercentComplete() / 100 * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)
	return fmt.Sprintf("[%s] %d/%d (%.0f%%)", bar, p.Completed+p.Failed, p.Total, p.PercentComplete())
}
