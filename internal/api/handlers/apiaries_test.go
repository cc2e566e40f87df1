package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hivewatch/internal/types"
)

func newTestApiaryHandler() (*ApiaryHandler, *mockApiaryRepo) {
	repo := &mockApiaryRepo{}
	return NewApiaryHandler(repo, testValidator(), testLogger()), repo
}

func TestApiaryHandler_Create(t *testing.T) {
	h, repo := newTestApiaryHandler()
	actor := testActor()

	rec := serve(t, h, &actor, http.MethodPost, "/apiaries", map[string]any{
		"name":      "Orchard",
		"location":  "North field",
		"latitude":  -33.9,
		"longitude": 18.4,
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, repo.lastCreated)
	assert.True(t, strings.HasPrefix(repo.lastCreated.ID, "apiary_"))
	assert.Equal(t, "acct_1", repo.lastCreated.AccountID)
	assert.True(t, repo.lastCreated.SouthernHemisphere())

	var got types.Apiary
	decodeData(t, rec, &got)
	assert.Equal(t, repo.lastCreated.ID, got.ID)
	assert.Equal(t, "Orchard", got.Name)
}

func TestApiaryHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		body any
		code types.ErrorCode
	}{
		{"missing name", map[string]any{"location": "x"}, types.ErrCodeValidationMissingField},
		{"latitude out of range", map[string]any{"name": "A", "latitude": 91.0, "longitude": 0.0}, types.ErrCodeValidationOutOfRange},
		{"latitude without longitude", map[string]any{"name": "A", "latitude": 10.0}, types.ErrCodeValidationMissingField},
		{"unknown field", map[string]any{"name": "A", "owner": "x"}, types.ErrCodeValidationInvalidJSON},
		{"malformed", "{", types.ErrCodeValidationInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo := newTestApiaryHandler()
			actor := testActor()
			rec := serve(t, h, &actor, http.MethodPost, "/apiaries", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(tt.code), errorCode(t, rec))
			assert.Nil(t, repo.lastCreated)
		})
	}
}

func TestApiaryHandler_Scopes(t *testing.T) {
	h, repo := newTestApiaryHandler()
	reader := testActor(types.ScopeRead)

	rec := serve(t, h, &reader, http.MethodPost, "/apiaries", map[string]any{"name": "A"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, repo.lastCreated)

	rec = serve(t, h, &reader, http.MethodGet, "/apiaries", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApiaryHandler_Get_NotFound(t *testing.T) {
	h, repo := newTestApiaryHandler()
	repo.getByIDFn = notFoundApiary
	actor := testActor()

	rec := serve(t, h, &actor, http.MethodGet, "/apiaries/apiary_x", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(types.ErrCodeNotFoundApiary), errorCode(t, rec))
}

func TestApiaryHandler_Update_Partial(t *testing.T) {
	h, repo := newTestApiaryHandler()
	actor := testActor()

	rec := serve(t, h, &actor, http.MethodPatch, "/apiaries/apiary_1", map[string]any{"notes": "moved bees"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, repo.lastUpdated)
	assert.Equal(t, "Home yard", repo.lastUpdated.Name, "untouched fields are kept")
	assert.Equal(t, "moved bees", repo.lastUpdated.Notes)
	require.NotNil(t, repo.lastUpdated.Latitude)
	assert.InDelta(t, 51.5, *repo.lastUpdated.Latitude, 1e-9)
}

func TestApiaryHandler_Delete(t *testing.T) {
	t.Run("empty apiary", func(t *testing.T) {
		h, _ := newTestApiaryHandler()
		actor := testActor()
		rec := serve(t, h, &actor, http.MethodDelete, "/apiaries/apiary_1", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("apiary with hives", func(t *testing.T) {
		h, repo := newTestApiaryHandler()
		repo.deleteFn = func(context.Context, string, string) error {
			return types.NewAppError(types.ErrCodeConflictApiaryNotEmpty, "apiary still contains hives", nil)
		}
		actor := testActor()
		rec := serve(t, h, &actor, http.MethodDelete, "/apiaries/apiary_1", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, string(types.ErrCodeConflictApiaryNotEmpty), errorCode(t, rec))
	})
}

func TestApiaryHandler_List(t *testing.T) {
	h, repo := newTestApiaryHandler()
	var gotParams types.ListParams
	repo.listFn = func(_ context.Context, accountID string, params types.ListParams) ([]*types.Apiary, types.PageInfo, error) {
		gotParams = params
		return []*types.Apiary{{ID: "apiary_1", AccountID: accountID, Name: "A"}},
			types.PageInfo{HasMore: true, NextCursor: "c1"}, nil
	}
	actor := testActor()

	rec := serve(t, h, &actor, http.MethodGet, "/apiaries?limit=1&cursor=c0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.ListParams{Limit: 1, Cursor: "c0"}, gotParams)
	assert.JSONEq(t,
		`{"data":[{"id":"apiary_1","account_id":"acct_1","name":"A","hive_count":0,"created_at":"0001-01-01T00:00:00Z","updated_at":"0001-01-01T00:00:00Z"}],"pagination":{"has_more":true,"next_cursor":"c1"}}`,
		rec.Body.String())

	rec = serve(t, h, &actor, http.MethodGet, "/apiaries?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApiaryHandler_Unauthenticated(t *testing.T) {
	h, _ := newTestApiaryHandler()
	rec := serve(t, h, nil, http.MethodGet, "/apiaries", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "scope middleware rejects requests without an actor")
}
