// arvak-history lists recent batch runs from the PostgreSQL ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/hiq-lab/arvak-go/internal/storage/postgres"
)

func main() {
	limit := flag.Int("limit", 20, "Maximum number of runs to show")
	flag.Parse()

	_ = godotenv.Load()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.NewDB(ctx, postgres.Config{URL: url})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	runs, err := postgres.NewLedgerRepo(db).RecentRuns(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to query runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("no batch runs recorded")
		return
	}

	fmt.Printf("%-36s  %-16s  %-9s  %5s  %5s  %8s  %s\n",
		"BATCH", "BACKEND", "STATUS", "OK", "FAIL", "TIME", "CREATED")
	for _, r := range runs {
		fmt.Printf("%-36s  %-16s  %-9s  %5d  %5d  %7dms  %s\n",
			r.BatchID, r.Backend, r.Status, r.Succeeded, r.Failed,
			r.TotalTimeMS, r.CreatedAt.Format(time.RFC3339))
	}
}
