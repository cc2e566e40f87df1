package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// IdempotencyPurger deletes expired idempotency records.
// *db.IdempotencyRepository satisfies it.
type IdempotencyPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CleanupService removes data that has outlived its use.
type CleanupService struct {
	idempotency IdempotencyPurger
	logger      *slog.Logger
}

// NewCleanupService creates a CleanupService.
func NewCleanupService(idempotency IdempotencyPurger, logger *slog.Logger) *CleanupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupService{idempotency: idempotency, logger: logger}
}

// PurgeExpiredIdempotencyKeys deletes idempotency keys past their 24 hour
// TTL. The cutoff is evaluated by the database, so now is only logged.
func (c *CleanupService) PurgeExpiredIdempotencyKeys(ctx context.Context, now time.Time) (int, error) {
	count, err := c.idempotency.PurgeExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("deleting expired idempotency keys: %w", err)
	}

	if count > 0 {
		c.logger.InfoContext(ctx, "purged expired idempotency keys",
			"count", count,
			"as_of", now.Format(time.RFC3339),
		)
	}
	return int(count), nil
}
