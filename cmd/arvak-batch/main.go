package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"

	"github.com/hiq-lab/arvak-go/internal/batch"
	"github.com/hiq-lab/arvak-go/internal/control"
	"github.com/hiq-lab/arvak-go/internal/core/config"
	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	circuitPath := flag.String("circuits", "", "File with one circuit per line")
	shots := flag.Uint64("shots", 1024, "Shots per circuit")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	// Load configuration first (before setting up logger)
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			stylelog.InitDefault()
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	slogLevel := slog.LevelInfo
	if *isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(
		&tint.Options{
			Level:      slogLevel,
			TimeFormat: time.RFC3339,
		})
	slog.Info("Logger initialized", "level", slogLevel.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := control.NewApp(ctx, control.Config{App: cfg})
	if err != nil {
		slog.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("Received signal, shutting down...", "signal", sig)
		cancel()
	}()

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start app", "error", err)
		os.Exit(1)
	}

	circuits, err := loadCircuits(*circuitPath, *shots)
	if err != nil {
		slog.Error("Failed to load circuits", "error", err)
		os.Exit(1)
	}

	result, err := app.Manager().ExecuteBatch(ctx, cfg.Arvak.Backend, circuits, batch.WaitOptions{
		OnProgress: func(p batch.BatchProgress) {
			fmt.Println(batch.ProgressBar(p, 40))
		},
	})
	if err != nil {
		slog.Error("Batch did not complete", "error", err)
	}
	if result != nil {
		printResult(result)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}

// loadCircuits reads one circuit per line, or falls back to a small
// built-in demo set when no file is given.
func loadCircuits(path string, shots uint64) ([]domain.CircuitSpec, error) {
	if path == "" {
		return []domain.CircuitSpec{
			{Payload: "h q[0]; cx q[0],q[1]; measure q -> c;", Shots: shots},
			{Payload: "x q[0]; measure q -> c;", Shots: shots},
			{Payload: "h q[0]; h q[1]; measure q -> c;", Shots: shots},
		}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read circuits file: %w", err)
	}

	var specs []domain.CircuitSpec
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		specs = append(specs, domain.CircuitSpec{Payload: line, Shots: shots})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no circuits in %s", path)
	}
	return specs, nil
}

func printResult(r *batch.BatchResult) {
	fmt.Printf("\nBatch %s: %d succeeded, %d failed in %s\n",
		r.Status, r.SuccessCount(), r.FailureCount(), r.TotalTime.Round(time.Millisecond))
	for _, fail := range r.Failures {
		fmt.Printf("  failed %s: %v\n", fail.JobID, fail.Err)
	}
}
