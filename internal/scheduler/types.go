// Package scheduler runs HiveWatch's periodic jobs: the overdue inspection
// sweep and idempotency key cleanup.
//
// Each job is a Task registered under a TaskType. The sweeper process runs
// them on cron schedules, and an operator can run any one of them by name
// with an explicit reference time for backfills.
package scheduler

import (
	"context"
	"time"
)

// TaskType names a scheduled job.
type TaskType string

const (
	TaskSweepOverdue           TaskType = "sweep_overdue"
	TaskCleanupIdempotencyKeys TaskType = "cleanup_idempotency_keys"
)

// Task runs one job as of now and returns how many items it handled.
type Task func(ctx context.Context, now time.Time) (int, error)
