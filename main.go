package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/hiq-lab/arvak-go/internal/batch"
	"github.com/hiq-lab/arvak-go/internal/core/domain"
	"github.com/hiq-lab/arvak-go/internal/resilience"
	"github.com/hiq-lab/arvak-go/internal/rpc"
)

// Quick demo against the in-process simulator: transient submit
// failures are retried, results stream back in completion order, and a
// re-fetched result comes from the cache.
func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	ctx := context.Background()

	// 1. Simulator with some latency so jobs overlap
	sim := rpc.NewSimulator(rpc.SimulatorConfig{
		Latency: 200 * time.Millisecond,
		Qubits:  2,
	})
	sim.FailNextSubmits(2)

	// 2. Retry + breaker wrapper
	policy := resilience.DefaultPolicy()
	policy.InitialDelay = 50 * time.Millisecond
	breaker := resilience.NewBreaker(resilience.DefaultBreakerConfig())
	svc := rpc.NewResilientService(sim, policy, breaker)

	// 3. Batch manager
	manager := batch.NewManager(svc, batch.Config{
		MaxWorkers:   4,
		PollInterval: 100 * time.Millisecond,
		ScanInterval: 50 * time.Millisecond,
	}, nil, nil)

	circuits := []domain.CircuitSpec{
		{Payload: "h q[0]; cx q[0],q[1]; measure q -> c;", Shots: 1024},
		{Payload: "x q[0]; measure q -> c;", Shots: 1024},
		{Payload: "h q[0]; h q[1]; measure q -> c;", Shots: 1024},
		{Payload: "h q[0]; measure q -> c;", Shots: 2048},
	}

	fmt.Println("=== Submitting batch ===")
	futures := manager.SubmitMany(ctx, "simulator", circuits)
	for i, f := range futures {
		fmt.Printf("circuit %d -> job %s\n", i, f.JobID())
	}

	// 4. Stream results as they finish
	fmt.Println("\n=== Results in completion order ===")
	done, errc := manager.AsCompleted(ctx, futures, 30*time.Second)
	for f := range done {
		if f.Err() != nil {
			fmt.Printf("job %s failed: %v\n", f.JobID(), f.Err())
			continue
		}
		res, _ := f.Result(ctx, 0)
		fmt.Printf("job %s: %v (%d shots)\n", f.JobID(), res.Counts, res.Shots)
	}
	if err := <-errc; err != nil {
		log.Fatalf("batch did not finish: %v", err)
	}

	fmt.Printf("\nbreaker state: %s\n", breaker.State())
}
