// Package db provides PostgreSQL-backed repositories for apiaries, hives,
// inspections, stored assessments and API keys. Every repository accepts a
// DBTX, which both *pgxpool.Pool and pgx.Tx satisfy, so the same code runs
// inside or outside a transaction.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hivewatch/internal/config"
	"hivewatch/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool opens a connection pool tuned from cfg and verifies it with a ping.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	pc.MaxConns = int32(cfg.MaxConns)
	pc.MinConns = int32(cfg.MinConns)
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.AcquireTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// nilIfEmpty returns nil for an empty string so nullable text columns store NULL.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nilIfZeroTime lets the column default (NOW()) apply when no time is set.
func nilIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isForeignKeyViolation reports a PostgreSQL 23503 error.
func isForeignKeyViolation(err error) bool { return pgErrorCode(err) == "23503" }

// parseCursor decodes a created_at pagination cursor.
func parseCursor(cursor string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, cursor)
	if err != nil {
		return time.Time{}, types.NewAppError(
			types.ErrCodeValidationInvalidCursor,
			"invalid cursor format; expected RFC3339 timestamp",
			err,
		)
	}
	return t, nil
}

// trimPage applies the limit+1 strategy: when one extra row was fetched there
// is another page, and its cursor is the created_at of the last row kept.
func trimPage[T any](rows []T, limit int, createdAt func(T) time.Time) ([]T, types.PageInfo) {
	if len(rows) <= limit {
		return rows, types.PageInfo{}
	}
	rows = rows[:limit]
	return rows, types.PageInfo{
		HasMore:    true,
		NextCursor: createdAt(rows[limit-1]).Format(time.RFC3339Nano),
	}
}
