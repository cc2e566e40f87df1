package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hivewatch/internal/types"
)

func apiKeyRow(id string, revokedAt *time.Time) []any {
	return []any{id, "acct_1", "ci", "hw_live_abcd", "$2a$12$hash", []string{types.ScopeRead}, nil, nil, revokedAt, time.Now()}
}

func TestAPIKeyRepository_ListByPrefix(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAPIKeyRepository(db)
	revoked := time.Now().Add(-time.Hour)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), []any{"hw_live_abcd"}).
		Return(newMockRows([][]any{
			apiKeyRow("key_1", nil),
			apiKeyRow("key_2", &revoked),
		}), nil)

	keys, err := repo.ListByPrefix(context.Background(), "hw_live_abcd")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "$2a$12$hash", keys[0].KeyHash)
	assert.Nil(t, keys[0].RevokedAt)
	require.NotNil(t, keys[1].RevokedAt)
}

func TestAPIKeyRepository_List_ActiveOnly(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAPIKeyRepository(db)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), []any{"acct_1", now}).
		Run(func(args mock.Arguments) {
			sql := args.Get(1).(string)
			assert.Contains(t, sql, "revoked_at IS NULL")
			assert.Contains(t, sql, "expires_at > $2")
		}).
		Return(newMockRows(nil), nil)

	keys, err := repo.List(context.Background(), "acct_1", true, now)
	require.NoError(t, err)
	assert.Empty(t, keys)
	db.AssertExpectations(t)
}

func TestAPIKeyRepository_Revoke(t *testing.T) {
	t.Run("active key", func(t *testing.T) {
		db := new(mockDBTX)
		repo := NewAPIKeyRepository(db)
		db.On("Exec", mock.Anything, mock.AnythingOfType("string"), []any{"key_1", "acct_1"}).
			Return(pgconn.NewCommandTag("UPDATE 1"), nil)

		require.NoError(t, repo.Revoke(context.Background(), "key_1", "acct_1"))
	})

	t.Run("already revoked", func(t *testing.T) {
		db := new(mockDBTX)
		repo := NewAPIKeyRepository(db)
		db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return(pgconn.NewCommandTag("UPDATE 0"), nil)

		err := repo.Revoke(context.Background(), "key_1", "acct_1")
		requireAppCode(t, err, types.ErrCodeNotFoundAPIKey)
	})
}

func TestAPIKeyRepository_TouchLastUsed_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAPIKeyRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("timeout"))

	err := repo.TouchLastUsed(context.Background(), "key_1")
	requireAppCode(t, err, types.ErrCodeInternalDB)
}
