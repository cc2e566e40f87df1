package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"hivewatch/internal/types"
)

// Runner schedules Tasks on cron specs. A run that is still going when its
// next tick fires is skipped, and a panicking task is logged and recovered.
type Runner struct {
	cron    *cron.Cron
	tasks   map[TaskType]Task
	clock   types.Clock
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner creates a Runner whose runs are each bounded by timeout.
func NewRunner(clock types.Clock, timeout time.Duration, logger *slog.Logger) *Runner {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	return &Runner{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		tasks:   make(map[TaskType]Task),
		clock:   clock,
		timeout: timeout,
		logger:  logger,
	}
}

// Register schedules task under name on a standard five-field cron spec or
// a descriptor such as @hourly.
func (r *Runner) Register(spec string, name TaskType, task Task) error {
	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("scheduler: task %q already registered", name)
	}
	if _, err := r.cron.AddFunc(spec, func() {
		_ = r.RunTask(context.Background(), name, r.clock.Now())
	}); err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q for %s: %w", spec, name, err)
	}
	r.tasks[name] = task
	return nil
}

// RunTask runs the named task once as of now.
func (r *Runner) RunTask(ctx context.Context, name TaskType, now time.Time) error {
	task, ok := r.tasks[name]
	if !ok {
		return fmt.Errorf("scheduler: unknown task %q", name)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := task(ctx, now)
	log := r.logger.With("task", string(name), "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		log.ErrorContext(ctx, "scheduled task failed", "handled", n, "error", err.Error())
		return err
	}
	log.InfoContext(ctx, "scheduled task complete", "handled", n)
	return nil
}

// Start begins firing schedules in the background.
func (r *Runner) Start() { r.cron.Start() }

// Stop halts the schedules. The returned context is done once running tasks
// have finished.
func (r *Runner) Stop() context.Context { return r.cron.Stop() }

// cronLogger routes robfig/cron's logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
