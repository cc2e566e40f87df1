package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hivewatch/internal/config"
	"hivewatch/internal/types"
)

// DueHiveLister finds hives whose next inspection date has passed.
// *db.HiveRepository satisfies it.
type DueHiveLister interface {
	ListDueForInspection(ctx context.Context, cutoff time.Time, limit int) ([]types.HiveRef, error)
}

// ReassessEnqueuer queues hives for the reassessor. *queue.ReassessTrigger
// satisfies it.
type ReassessEnqueuer interface {
	TriggerReassessment(ctx context.Context, hives []types.HiveRef, reason string) (int, error)
}

// OverdueSweeper re-queues overdue hives so their assessment, and with it
// the next inspection date, reflects the time that has passed.
type OverdueSweeper struct {
	hives   DueHiveLister
	trigger ReassessEnqueuer
	cfg     config.SweeperConfig
	logger  *slog.Logger
}

// NewOverdueSweeper creates an OverdueSweeper. Non-positive batch sizes
// fall back to the configuration defaults.
func NewOverdueSweeper(hives DueHiveLister, trigger ReassessEnqueuer, cfg config.SweeperConfig, logger *slog.Logger) *OverdueSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 25
	}
	if cfg.MaxHives < 1 {
		cfg.MaxHives = 1000
	}
	return &OverdueSweeper{hives: hives, trigger: trigger, cfg: cfg, logger: logger}
}

// Sweep enqueues up to MaxHives overdue hives, BatchSize at a time, most
// overdue first. It returns the number of hives enqueued. A failed batch
// stops the sweep; batches already sent stay sent and the rest are picked
// up by the next run.
func (s *OverdueSweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	due, err := s.hives.ListDueForInspection(ctx, now, s.cfg.MaxHives)
	if err != nil {
		return 0, fmt.Errorf("listing overdue hives: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	enqueued := 0
	for start := 0; start < len(due); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(due))
		if _, err := s.trigger.TriggerReassessment(ctx, due[start:end], types.ReassessReasonOverdue); err != nil {
			s.logger.ErrorContext(ctx, "overdue sweep interrupted",
				"enqueued", enqueued,
				"remaining", len(due)-enqueued,
				"error", err.Error(),
			)
			return enqueued, fmt.Errorf("enqueueing overdue hives: %w", err)
		}
		enqueued = end
	}

	s.logger.InfoContext(ctx, "overdue hives enqueued",
		"hives", enqueued,
		"capped", len(due) == s.cfg.MaxHives,
	)
	return enqueued, nil
}
