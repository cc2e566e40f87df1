package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hivewatch/internal/auth"
	"hivewatch/internal/core"
	"hivewatch/internal/types"
)

// APIKeyRepo is the key persistence used by APIKeyHandler.
type APIKeyRepo interface {
	Create(ctx context.Context, key *types.APIKey) error
	List(ctx context.Context, accountID string, activeOnly bool, now time.Time) ([]*types.APIKey, error)
	Revoke(ctx context.Context, id, accountID string) error
}

// CreateAPIKeyRequest is the body of POST /v1/api-keys.
type CreateAPIKeyRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Scopes        []string `json:"scopes" validate:"required,min=1,dive,oneof=hives:read hives:write keys:manage"`
	ExpiresInDays int      `json:"expires_in_days" validate:"min=0,max=365"`
}

// APIKeySecretResponse is returned once, on creation. Key is never
// retrievable again.
type APIKeySecretResponse struct {
	*types.APIKey
	Key string `json:"key"`
}

// APIKeyHandler manages the account's API keys.
type APIKeyHandler struct {
	repo      APIKeyRepo
	hasher    auth.Hasher
	validator *core.Validator
	clock     types.Clock
	logger    *slog.Logger
}

// NewAPIKeyHandler creates an APIKeyHandler.
func NewAPIKeyHandler(repo APIKeyRepo, hasher auth.Hasher, v *core.Validator, clock types.Clock, l *slog.Logger) *APIKeyHandler {
	if l == nil {
		l = slog.Default()
	}
	if hasher == nil {
		hasher = auth.BcryptHasher{}
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &APIKeyHandler{repo: repo, hasher: hasher, validator: v, clock: clock, logger: l}
}

// RegisterRoutes mounts the key routes. All of them need keys:manage.
func (h *APIKeyHandler) RegisterRoutes(r chi.Router, scope ScopeMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(scope(types.ScopeKeys))
		r.Get("/api-keys", h.List)
		r.Post("/api-keys", h.Create)
		r.Delete("/api-keys/{keyID}", h.Revoke)
	})
}

// List handles GET /v1/api-keys. ?active=true hides revoked and expired keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"
	keys, err := h.repo.List(r.Context(), acct, activeOnly, h.clock.Now().UTC())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if keys == nil {
		keys = []*types.APIKey{}
	}
	core.Data(w, r, http.StatusOK, keys)
}

// Create handles POST /v1/api-keys. A key can only carry scopes its creator
// holds, and inherits the creator's live or test mode.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil))
		return
	}

	var req CreateAPIKeyRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	for _, s := range req.Scopes {
		if !actor.HasScope(s) {
			core.Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodePermissionScope,
				"cannot grant a scope the caller does not hold",
				nil,
				map[string]any{"scope": s},
			))
			return
		}
	}

	generated, err := auth.GenerateAPIKey(actor.IsTestMode, h.hasher)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to generate API key", "error", err)
		core.Error(w, r, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to generate API key", err))
		return
	}

	now := h.clock.Now().UTC()
	key := &types.APIKey{
		ID:        "key_" + uuid.New().String(),
		AccountID: actor.AccountID,
		Name:      req.Name,
		KeyPrefix: generated.Prefix,
		KeyHash:   generated.Hash,
		Scopes:    req.Scopes,
		CreatedAt: now,
	}
	if req.ExpiresInDays > 0 {
		exp := now.AddDate(0, 0, req.ExpiresInDays)
		key.ExpiresAt = &exp
	}

	if err := h.repo.Create(r.Context(), key); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "api key created",
		"key_id", key.ID,
		"key_prefix", key.KeyPrefix,
		"created_by", actor.ID,
	)
	core.Data(w, r, http.StatusCreated, APIKeySecretResponse{APIKey: key, Key: generated.Plaintext})
}

// Revoke handles DELETE /v1/api-keys/{keyID}. The calling key may revoke
// itself.
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "keyID")
	if err := h.repo.Revoke(r.Context(), id, acct); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "api key revoked", "key_id", id, "account_id", acct)
	w.WriteHeader(http.StatusNoContent)
}
