package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hivewatch/internal/types"
)

// APIKeyRepository provides data access for the api_keys table. Only bcrypt
// hashes are stored; the plaintext secret never reaches this layer.
type APIKeyRepository struct {
	db DBTX
}

// NewAPIKeyRepository creates a new APIKeyRepository.
func NewAPIKeyRepository(db DBTX) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// key_hash is selected for authentication and must never be serialized.
const apiKeyColumns = `id, account_id, name, key_prefix, key_hash, scopes,
	last_used_at, expires_at, revoked_at, created_at`

func scanAPIKey(row pgx.Row) (*types.APIKey, error) {
	var key types.APIKey
	err := row.Scan(
		&key.ID,
		&key.AccountID,
		&key.Name,
		&key.KeyPrefix,
		&key.KeyHash,
		&key.Scopes,
		&key.LastUsedAt,
		&key.ExpiresAt,
		&key.RevokedAt,
		&key.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// Create inserts a new API key.
func (r *APIKeyRepository) Create(ctx context.Context, key *types.APIKey) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO api_keys (id, account_id, name, key_prefix, key_hash, scopes, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))`,
		key.ID,
		key.AccountID,
		key.Name,
		key.KeyPrefix,
		key.KeyHash,
		key.Scopes,
		key.ExpiresAt,
		nilIfZeroTime(key.CreatedAt),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create API key", err)
	}
	return nil
}

// ListByPrefix returns every key sharing the visible prefix, including
// revoked and expired ones so the caller can report why a key was refused.
func (r *APIKeyRepository) ListByPrefix(ctx context.Context, prefix string) ([]*types.APIKey, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1`,
		prefix,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query API keys by prefix", err)
	}
	defer rows.Close()
	return collectAPIKeys(rows)
}

// List returns an account's keys newest first.
func (r *APIKeyRepository) List(ctx context.Context, accountID string, activeOnly bool, now time.Time) ([]*types.APIKey, error) {
	conditions := []string{"account_id = $1"}
	args := []any{accountID}
	if activeOnly {
		args = append(args, now)
		conditions = append(conditions, "revoked_at IS NULL", fmt.Sprintf("(expires_at IS NULL OR expires_at > $%d)", len(args)))
	}

	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM api_keys WHERE %s ORDER BY created_at DESC`, apiKeyColumns, strings.Join(conditions, " AND ")),
		args...,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list API keys", err)
	}
	defer rows.Close()
	return collectAPIKeys(rows)
}

func collectAPIKeys(rows pgx.Rows) ([]*types.APIKey, error) {
	var keys []*types.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan API key row", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating API key rows", err)
	}
	return keys, nil
}

// Revoke sets revoked_at on an active key.
func (r *APIKeyRepository) Revoke(ctx context.Context, id, accountID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE api_keys SET revoked_at = NOW() WHERE id = $1 AND account_id = $2 AND revoked_at IS NULL`,
		id, accountID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to revoke API key", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundAPIKey, "API key not found or already revoked", nil)
	}
	return nil
}

// TouchLastUsed records that a key authenticated a request.
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update API key last_used_at", err)
	}
	return nil
}
