package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hivewatch/internal/auth"
	"hivewatch/internal/types"
)

type mockAPIKeyRepo struct {
	keys        []*types.APIKey
	activeOnly  bool
	lastCreated *types.APIKey
	revokeErr   error
	revoked     []string
}

func (m *mockAPIKeyRepo) Create(_ context.Context, key *types.APIKey) error {
	m.lastCreated = key
	return nil
}

func (m *mockAPIKeyRepo) List(_ context.Context, _ string, activeOnly bool, _ time.Time) ([]*types.APIKey, error) {
	m.activeOnly = activeOnly
	return m.keys, nil
}

func (m *mockAPIKeyRepo) Revoke(_ context.Context, id, _ string) error {
	m.revoked = append(m.revoked, id)
	return m.revokeErr
}

// plainHasher keeps tests fast; bcrypt is covered by the auth package.
type plainHasher struct{}

func (plainHasher) Hash(secret string) (string, error) { return "h:" + secret, nil }
func (plainHasher) Compare(hash, secret string) error { return nil }

func newTestAPIKeyHandler() (*APIKeyHandler, *mockAPIKeyRepo) {
	repo := &mockAPIKeyRepo{}
	return NewAPIKeyHandler(repo, plainHasher{}, testValidator(), fixedClock{testNow}, testLogger()), repo
}

func TestAPIKeyHandler_Create(t *testing.T) {
	h, repo := newTestAPIKeyHandler()
	actor := testActor()

	rec := serve(t, h, &actor, http.MethodPost, "/api-keys", map[string]any{
		"name":            "field tablet",
		"scopes":          []string{types.ScopeRead, types.ScopeWrite},
		"expires_in_days": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	key := repo.lastCreated
	require.NotNil(t, key)
	assert.True(t, strings.HasPrefix(key.ID, "key_"))
	assert.Equal(t, "acct_1", key.AccountID)
	require.NotNil(t, key.ExpiresAt)
	assert.Equal(t, testNow.AddDate(0, 0, 30), *key.ExpiresAt)

	var got struct {
		ID        string `json:"id"`
		Key       string `json:"key"`
		KeyPrefix string `json:"key_prefix"`
		KeyHash   string `json:"key_hash"`
	}
	decodeData(t, rec, &got)
	assert.True(t, strings.HasPrefix(got.Key, auth.LiveKeyTag))
	assert.True(t, strings.HasPrefix(got.Key, got.KeyPrefix))
	assert.Equal(t, "h:"+got.Key, key.KeyHash)
	assert.Empty(t, got.KeyHash, "hash is never serialized")
}

func TestAPIKeyHandler_Create_TestModeInherited(t *testing.T) {
	h, repo := newTestAPIKeyHandler()
	actor := testActor()
	actor.IsTestMode = true

	rec := serve(t, h, &actor, http.MethodPost, "/api-keys", map[string]any{"name": "ci", "scopes": []string{types.ScopeRead}})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, strings.HasPrefix(repo.lastCreated.KeyPrefix, auth.TestKeyTag))
}

func TestAPIKeyHandler_Create_ScopeEscalation(t *testing.T) {
	h, repo := newTestAPIKeyHandler()
	actor := testActor(types.ScopeRead, types.ScopeKeys)

	rec := serve(t, h, &actor, http.MethodPost, "/api-keys", map[string]any{"name": "x", "scopes": []string{types.ScopeWrite}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, repo.lastCreated)
}

func TestAPIKeyHandler_Create_UnknownScope(t *testing.T) {
	h, _ := newTestAPIKeyHandler()
	actor := testActor()

	rec := serve(t, h, &actor, http.MethodPost, "/api-keys", map[string]any{"name": "x", "scopes": []string{"admin"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidEnum), errorCode(t, rec))
}

func TestAPIKeyHandler_RequiresKeysScope(t *testing.T) {
	h, _ := newTestAPIKeyHandler()
	actor := testActor(types.ScopeRead, types.ScopeWrite)

	assert.Equal(t, http.StatusForbidden, serve(t, h, &actor, http.MethodGet, "/api-keys", nil).Code)
}

func TestAPIKeyHandler_List(t *testing.T) {
	h, repo := newTestAPIKeyHandler()
	actor := testActor()

	rec := serve(t, h, &actor, http.MethodGet, "/api-keys?active=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, repo.activeOnly)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestAPIKeyHandler_Revoke(t *testing.T) {
	h, repo := newTestAPIKeyHandler()
	actor := testActor()

	rec := serve(t, h, &actor, http.MethodDelete, "/api-keys/key_1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"key_1"}, repo.revoked)

	repo.revokeErr = types.NewAppError(types.ErrCodeNotFoundAPIKey, "API key not found or already revoked", nil)
	rec = serve(t, h, &actor, http.MethodDelete, "/api-keys/key_1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
