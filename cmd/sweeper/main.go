// Package main is the entry point for the HiveWatch sweeper.
//
// The sweeper is a long-running process that fires two jobs on cron
// schedules:
//
//   - sweep_overdue (SWEEP_SCHEDULE): hives whose next inspection date has
//     passed are queued for the reassessor, moving their scores and next
//     inspection dates on with the calendar.
//   - cleanup_idempotency_keys (hourly): idempotency keys past their TTL are
//     deleted.
//
// With -run the named job executes once and the process exits; -at sets the
// reference time for backfills.
//
// Usage:
//
//	sweeper
//	sweeper -run sweep_overdue -at 2026-06-01T06:00:00Z
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"hivewatch/internal/config"
	"hivewatch/internal/db"
	"hivewatch/internal/queue"
	"hivewatch/internal/scheduler"
	"hivewatch/internal/types"
)

const (
	cleanupSchedule = "@hourly"
	taskTimeout     = 5 * time.Minute
)

func main() {
	runFlag := flag.String("run", "", "Run one task now and exit (sweep_overdue, cleanup_idempotency_keys)")
	atFlag := flag.String("at", "", "Reference time for -run in RFC 3339 (default: now)")
	flag.Parse()

	if err := run(*runFlag, *atFlag); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(task, at string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(config.ProviderFromEnv())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	awsCfg, err := cfg.AWS.LoadAWS(ctx)
	if err != nil {
		return err
	}

	clock := types.RealClock{}
	trigger := queue.NewReassessTrigger(sqs.NewFromConfig(awsCfg), cfg.AWS, clock, logger)

	runner, err := newRunner(cfg, db.NewHiveRepository(pool), trigger, db.NewIdempotencyRepository(pool), clock, logger)
	if err != nil {
		return err
	}

	if task != "" {
		now, err := referenceTime(at, clock)
		if err != nil {
			return err
		}
		return runner.RunTask(ctx, scheduler.TaskType(task), now)
	}

	logger.Info("sweeper starting",
		"version", cfg.Build.Version,
		"sweep_schedule", cfg.Sweeper.Schedule,
		"batch_size", cfg.Sweeper.BatchSize,
		"max_hives", cfg.Sweeper.MaxHives,
	)
	runner.Start()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info("shutdown signal received, waiting for running tasks", "signal", sig.String())

	<-runner.Stop().Done()
	logger.Info("sweeper stopped cleanly")
	return nil
}

// newRunner registers every sweeper job on its schedule.
func newRunner(
	cfg *config.Config,
	hives scheduler.DueHiveLister,
	trigger scheduler.ReassessEnqueuer,
	idempotency scheduler.IdempotencyPurger,
	clock types.Clock,
	logger *slog.Logger,
) (*scheduler.Runner, error) {
	runner := scheduler.NewRunner(clock, taskTimeout, logger)

	sweeper := scheduler.NewOverdueSweeper(hives, trigger, cfg.Sweeper, logger)
	if err := runner.Register(cfg.Sweeper.Schedule, scheduler.TaskSweepOverdue, sweeper.Sweep); err != nil {
		return nil, err
	}

	cleanup := scheduler.NewCleanupService(idempotency, logger)
	if err := runner.Register(cleanupSchedule, scheduler.TaskCleanupIdempotencyKeys, cleanup.PurgeExpiredIdempotencyKeys); err != nil {
		return nil, err
	}
	return runner, nil
}

// referenceTime parses at, defaulting to the clock's now.
func referenceTime(at string, clock types.Clock) (time.Time, error) {
	if at == "" {
		return clock.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -at %q: %w", at, err)
	}
	return t.UTC(), nil
}
