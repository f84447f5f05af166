/*
main.go - Year-end carry-over batch CLI

PURPOSE:
  Runs the year-end carry-over batch against the configured database and
  prints a per-employee report. Intended for cron or manual year-close
  operation; re-running is safe.

COMMAND-LINE FLAGS:
  -config  Path to YAML config file (optional)
  -year    Closing year to process (default: last calendar year)

EXIT CODE:
  0 when the run completes, even with per-employee errors (they are
  reported in the output); 1 when the run itself cannot start.

EXAMPLES:
  # Close out last year
  ./yearend

  # Close out a specific year
  ./yearend -year=2024 -config=configs/leave.yaml

SEE ALSO:
  - leave/batch.go: Batch semantics (idempotency, partial failure)
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	year := flag.Int("year", leave.Today().Year()-1, "closing year to process")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	engine := leave.NewEngine(store, logger, leave.Options{
		BatchWorkers: cfg.YearEnd.Workers,
	})

	result, err := engine.YearEnd.ProcessYear(context.Background(), *year)
	if err != nil {
		logger.Fatal("year-end batch failed", zap.Error(err))
	}

	fmt.Printf("year-end carry-over for %d -> %d\n", result.TargetYear, result.TargetYear+1)
	fmt.Printf("  processed: %d  already_exists: %d  no_carry_over: %d  errors: %d\n\n",
		result.Processed, result.AlreadyExists, result.NoCarryOver, result.Errors)

	for _, er := range result.Results {
		switch er.Status {
		case leave.BatchProcessed:
			fmt.Printf("  %-20s %-15s entitlement=%s used=%s carried=%s\n",
				er.EmployeeID, er.Status, er.Entitlement, er.Used, er.CarryOver)
		case leave.BatchError:
			fmt.Printf("  %-20s %-15s %v\n", er.EmployeeID, er.Status, er.Err)
		default:
			fmt.Printf("  %-20s %-15s\n", er.EmployeeID, er.Status)
		}
	}

	if result.Errors > 0 {
		fmt.Printf("\n%d employee(s) failed; re-run after fixing their records\n", result.Errors)
	}
}
