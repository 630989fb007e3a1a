package domain

import "time"

type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateDone      JobState = "done"
	JobStateFailed    JobState = "failed"
	JobStateCancelled JobState = "cancelled"
)

// Terminal reports whether a job can no longer change state.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateDone, JobStateFailed, JobStateCancelled:
		return true
	}
	return false
}

// JobResult represents the outcome of one executed circuit.
type JobResult struct {
	JobID         string            `json:"job_id"`
	Counts        map[string]uint64 `json:"counts"`
	Shots         uint64            `json:"shots"`
	Backend       string            `json:"backend"`
	ExecutionTime time.Duration     `json:"execution_time"`
}

// CircuitSpec is one unit of work to submit: circuit source plus shot count.
type CircuitSpec struct {
	Payload string
	Shots   uint64
}
