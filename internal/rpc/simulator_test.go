package rpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

func newInstantSimulator() *Simulator {
	sim := NewSimulator(SimulatorConfig{Latency: 0, Qubits: 2, Seed: 42})
	return sim
}

func TestSimulatorSubmitPollResult(t *testing.T) {
	sim := newInstantSimulator()
	ctx := context.Background()

	jobID, err := sim.Submit(ctx, "OPENQASM 3; qubit[2] q;", "simulator", 1000)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if jobID == "" {
		t.Fatal("empty job id")
	}

	st, err := sim.Poll(ctx, jobID)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if st.State != domain.JobStateDone {
		t.Fatalf("state = %v, want done", st.State)
	}

	result, err := sim.Result(ctx, jobID)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	var total uint64
	for _, n := range result.Counts {
		total += n
	}
	if total != 1000 {
		t.Errorf("counts sum = %d, want shots = 1000", total)
	}
}

func TestSimulatorRunningBeforeLatency(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{Latency: time.Hour, Qubits: 2, Seed: 1})

	jobID, err := sim.Submit(context.Background(), "circuit", "simulator", 10)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	st, err := sim.Poll(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if st.State != domain.JobStateRunning {
		t.Errorf("state = %v, want running before latency elapses", st.State)
	}

	if _, err := sim.Result(context.Background(), jobID); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("Result before completion error = %v, want FailedPrecondition", err)
	}
}

func TestSimulatorCancel(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{Latency: time.Hour, Qubits: 2, Seed: 1})

	jobID, _ := sim.Submit(context.Background(), "circuit", "simulator", 10)
	if err := sim.Cancel(context.Background(), jobID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	st, _ := sim.Poll(context.Background(), jobID)
	if st.State != domain.JobStateCancelled {
		t.Errorf("state = %v, want cancelled", st.State)
	}
}

func TestSimulatorUnknownJob(t *testing.T) {
	sim := newInstantSimulator()

	if _, err := sim.Poll(context.Background(), "ghost"); status.Code(err) != codes.NotFound {
		t.Errorf("Poll error = %v, want NotFound", err)
	}
	if _, err := sim.Result(context.Background(), "ghost"); status.Code(err) != codes.NotFound {
		t.Errorf("Result error = %v, want NotFound", err)
	}
}

func TestSimulatorEmptyPayloadRejected(t *testing.T) {
	sim := newInstantSimulator()

	if _, err := sim.Submit(context.Background(), "", "simulator", 10); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Submit error = %v, want InvalidArgument", err)
	}
}

func TestSimulatorFailureInjection(t *testing.T) {
	sim := newInstantSimulator()
	sim.FailNextSubmits(1)

	_, err := sim.Submit(context.Background(), "circuit", "simulator", 10)
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("Submit error = %v, want Unavailable", err)
	}
	if !IsTransient(err) {
		t.Error("injected submit failure should classify as transient")
	}

	// The next submit succeeds.
	if _, err := sim.Submit(context.Background(), "circuit", "simulator", 10); err != nil {
		t.Errorf("Submit after injection: %v", err)
	}
}

func TestSimulatorFailedJobs(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{Latency: 0, Qubits: 2, FailureRate: 1.0, Seed: 7})

	jobID, err := sim.Submit(context.Background(), "circuit", "simulator", 10)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	st, err := sim.Poll(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if st.State != domain.JobStateFailed {
		t.Fatalf("state = %v, want failed with FailureRate=1", st.State)
	}
	if st.Error == "" {
		t.Error("failed poll status should carry an error message")
	}
}
