package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"hivewatch/internal/types"
)

// IdempotencyRepository stores Idempotency-Key outcomes in the
// idempotency_keys table, unique on (account_id, key). Keys older than
// idempotencyTTL are treated as absent.
type IdempotencyRepository struct {
	db DBTX
}

// NewIdempotencyRepository creates a new IdempotencyRepository.
func NewIdempotencyRepository(db DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

const idempotencyTTL = `INTERVAL '24 hours'`

// Get returns the live record for key, or (nil, nil).
func (r *IdempotencyRepository) Get(ctx context.Context, key, accountID string) (*types.IdempotencyRecord, error) {
	var rec types.IdempotencyRecord
	var code *int
	err := r.db.QueryRow(ctx,
		`SELECT key, account_id, status, request_path, response_code, response_body, created_at
		 FROM idempotency_keys
		 WHERE key = $1 AND account_id = $2 AND created_at > NOW() - `+idempotencyTTL,
		key, accountID,
	).Scan(
		&rec.Key,
		&rec.AccountID,
		&rec.Status,
		&rec.RequestPath,
		&code,
		&rec.ResponseBody,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read idempotency key", err)
	}
	if code != nil {
		rec.ResponseCode = *code
	}
	return &rec, nil
}

// Create claims key for a new request. A failed or expired record is
// reclaimed; a live processing or completed one yields a conflict.
func (r *IdempotencyRepository) Create(ctx context.Context, key, accountID, path string) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO idempotency_keys (key, account_id, status, request_path, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (account_id, key) DO UPDATE
		 SET status = EXCLUDED.status,
		     request_path = EXCLUDED.request_path,
		     response_code = NULL,
		     response_body = NULL,
		     created_at = NOW()
		 WHERE idempotency_keys.status = $5
		    OR idempotency_keys.created_at <= NOW() - `+idempotencyTTL,
		key, accountID, types.IdempotencyStatusProcessing, path, types.IdempotencyStatusFailed,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeConflictConcurrent, "idempotency key is already in use", nil)
	}
	return nil
}

// Complete stores the response for replay.
func (r *IdempotencyRepository) Complete(ctx context.Context, key, accountID string, code int, body []byte) error {
	return r.finish(ctx,
		`UPDATE idempotency_keys SET status = $3, response_code = $4, response_body = $5
		 WHERE key = $1 AND account_id = $2`,
		key, accountID, types.IdempotencyStatusCompleted, code, body,
	)
}

// Fail releases key so the client may retry.
func (r *IdempotencyRepository) Fail(ctx context.Context, key, accountID string) error {
	return r.finish(ctx,
		`UPDATE idempotency_keys SET status = $3 WHERE key = $1 AND account_id = $2`,
		key, accountID, types.IdempotencyStatusFailed,
	)
}

func (r *IdempotencyRepository) finish(ctx context.Context, sql string, args ...any) error {
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update idempotency key", err)
	}
	return nil
}

// PurgeExpired deletes records past their TTL and returns how many went.
func (r *IdempotencyRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at <= NOW() - `+idempotencyTTL)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to purge idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
