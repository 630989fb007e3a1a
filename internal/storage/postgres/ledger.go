package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hiq-lab/arvak-go/internal/batch"
	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

// BatchRun is one persisted batch record.
type BatchRun struct {
	BatchID     string    `db:"batch_id"`
	Backend     string    `db:"backend"`
	Status      string    `db:"status"`
	TotalJobs   int       `db:"total_jobs"`
	Succeeded   int       `db:"succeeded"`
	Failed      int       `db:"failed"`
	TotalTimeMS int64     `db:"total_time_ms"`
	CreatedAt   time.Time `db:"created_at"`
}

// LedgerRepo records finished batches. It implements batch.Recorder.
type LedgerRepo struct {
	db *DB
}

// NewLedgerRepo creates the ledger over an open connection.
func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// RecordBatch writes the run summary and one row per job in a single
// transaction.
func (r *LedgerRepo) RecordBatch(ctx context.Context, batchID, backend string, result *batch.BatchResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batch_runs (batch_id, backend, status, total_jobs, succeeded, failed, total_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		batchID,
		backend,
		string(result.Status),
		result.Progress.Total,
		result.SuccessCount(),
		result.FailureCount(),
		result.TotalTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch run: %w", err)
	}

	jobQuery := `
		INSERT INTO batch_jobs (batch_id, job_id, state, shots, error)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, f := range result.Successes {
		res, _ := f.Result(ctx, 0)
		var shots uint64
		if res != nil {
			shots = res.Shots
		}
		if _, err := tx.ExecContext(ctx, jobQuery,
			batchID, f.JobID(), string(domain.JobStateDone), int64(shots), "",
		); err != nil {
			return fmt.Errorf("failed to insert batch job: %w", err)
		}
	}
	for _, jf := range result.Failures {
		if _, err := tx.ExecContext(ctx, jobQuery,
			batchID, jf.JobID, string(domain.JobStateFailed), 0, jf.Err.Error(),
		); err != nil {
			return fmt.Errorf("failed to insert batch job: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch record: %w", err)
	}
	return nil
}

// RecentRuns returns the newest runs first, at most limit rows.
func (r *LedgerRepo) RecentRuns(ctx context.Context, limit int) ([]BatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []BatchRun
	err := r.db.SelectContext(ctx, &runs, `
		SELECT batch_id, backend, status, total_jobs, succeeded, failed, total_time_ms, created_at
		FROM batch_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch runs: %w", err)
	}
	return runs, nil
}

var _ batch.Recorder = (*LedgerRepo)(nil)
