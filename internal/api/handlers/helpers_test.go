package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"hivewatch/internal/core"
	"hivewatch/internal/types"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValidator() *core.Validator {
	return core.NewValidator(testLogger())
}

// scopeCheck mirrors core.Server.RequireScope closely enough for routing
// tests: it rejects actors without the scope with 403.
func scopeCheck(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, _ := types.GetActor(r.Context())
			if !actor.HasScope(scope) {
				core.Error(w, r, types.NewAppError(types.ErrCodePermissionScope, "missing "+scope, nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func testActor(scopes ...string) types.Actor {
	if len(scopes) == 0 {
		scopes = []string{types.ScopeRead, types.ScopeWrite, types.ScopeKeys}
	}
	return types.Actor{ID: "key_caller", Type: types.ActorTypeAPIKey, AccountID: "acct_1", Scopes: scopes}
}

type routeRegistrar interface {
	RegisterRoutes(r chi.Router, scope ScopeMiddleware)
}

// serve routes one request through a chi router with h mounted. A nil actor
// sends the request unauthenticated.
func serve(t *testing.T, h routeRegistrar, actor *types.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r, scopeCheck)

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if actor != nil {
		req = req.WithContext(types.WithActor(context.Background(), *actor))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func ptr[T any](v T) *T { return &v }

// decodeData unmarshals the {"data": ...} envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage     `json:"data"`
		Meta *types.ResponseMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env core.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Code
}

// --- shared mocks ---

type mockApiaryRepo struct {
	createFn  func(ctx context.Context, a *types.Apiary) error
	getByIDFn func(ctx context.Context, id, accountID string) (*types.Apiary, error)
	updateFn  func(ctx context.Context, a *types.Apiary) error
	deleteFn  func(ctx context.Context, id, accountID string) error
	listFn    func(ctx context.Context, accountID string, params types.ListParams) ([]*types.Apiary, types.PageInfo, error)

	lastCreated *types.Apiary
	lastUpdated *types.Apiary
}

func (m *mockApiaryRepo) Create(ctx context.Context, a *types.Apiary) error {
	m.lastCreated = a
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}

func (m *mockApiaryRepo) GetByID(ctx context.Context, id, accountID string) (*types.Apiary, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id, accountID)
	}
	lat, lon := 51.5, -0.12
	return &types.Apiary{ID: id, AccountID: accountID, Name: "Home yard", Latitude: &lat, Longitude: &lon}, nil
}

func (m *mockApiaryRepo) Update(ctx context.Context, a *types.Apiary) error {
	m.lastUpdated = a
	if m.updateFn != nil {
		return m.updateFn(ctx, a)
	}
	return nil
}

func (m *mockApiaryRepo) Delete(ctx context.Context, id, accountID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, accountID)
	}
	return nil
}

func (m *mockApiaryRepo) List(ctx context.Context, accountID string, params types.ListParams) ([]*types.Apiary, types.PageInfo, error) {
	if m.listFn != nil {
		return m.listFn(ctx, accountID, params)
	}
	return nil, types.PageInfo{}, nil
}

func notFoundApiary(context.Context, string, string) (*types.Apiary, error) {
	return nil, types.NewAppError(types.ErrCodeNotFoundApiary, "apiary not found", nil)
}

type mockHiveRepo struct {
	createFn  func(ctx context.Context, h *types.Hive) error
	getByIDFn func(ctx context.Context, id, accountID string) (*types.Hive, error)
	updateFn  func(ctx context.Context, h *types.Hive) error
	deleteFn  func(ctx context.Context, id, accountID string) error
	listFn    func(ctx context.Context, accountID, apiaryID string, params types.ListParams) ([]*types.Hive, types.PageInfo, error)

	lastCreated *types.Hive
	lastUpdated *types.Hive
}

func (m *mockHiveRepo) Create(ctx context.Context, h *types.Hive) error {
	m.lastCreated = h
	if m.createFn != nil {
		return m.createFn(ctx, h)
	}
	return nil
}

func (m *mockHiveRepo) GetByID(ctx context.Context, id, accountID string) (*types.Hive, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id, accountID)
	}
	return &types.Hive{
		ID:         id,
		AccountID:  accountID,
		ApiaryID:   "apiary_1",
		Name:       "Hive A",
		HiveType:   types.HiveLangstroth,
		FrameCount: 10,
		Status:     types.HiveStatusActive,
	}, nil
}

func (m *mockHiveRepo) Update(ctx context.Context, h *types.Hive) error {
	m.lastUpdated = h
	if m.updateFn != nil {
		return m.updateFn(ctx, h)
	}
	return nil
}

func (m *mockHiveRepo) Delete(ctx context.Context, id, accountID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, accountID)
	}
	return nil
}

func (m *mockHiveRepo) ListByApiary(ctx context.Context, accountID, apiaryID string, params types.ListParams) ([]*types.Hive, types.PageInfo, error) {
	if m.listFn != nil {
		return m.listFn(ctx, accountID, apiaryID, params)
	}
	return nil, types.PageInfo{}, nil
}

func notFoundHive(context.Context, string, string) (*types.Hive, error) {
	return nil, types.NewAppError(types.ErrCodeNotFoundHive, "hive not found", nil)
}

func jsonUnmarshal(rec *httptest.ResponseRecorder, dst any) error {
	return json.Unmarshal(rec.Body.Bytes(), dst)
}
