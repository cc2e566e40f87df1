package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hivewatch/internal/core"
	"hivewatch/internal/types"
)

// HiveRepo is the hive persistence used by HiveHandler.
type HiveRepo interface {
	Create(ctx context.Context, h *types.Hive) error
	GetByID(ctx context.Context, id, accountID string) (*types.Hive, error)
	Update(ctx context.Context, h *types.Hive) error
	Delete(ctx context.Context, id, accountID string) error
	ListByApiary(ctx context.Context, accountID, apiaryID string, params types.ListParams) ([]*types.Hive, types.PageInfo, error)
}

// ApiaryLookup resolves the parent apiary of hive routes.
type ApiaryLookup interface {
	GetByID(ctx context.Context, id, accountID string) (*types.Apiary, error)
}

// CreateHiveRequest is the body of POST /v1/apiaries/{apiaryID}/hives.
// FrameCount zero records an unknown capacity.
type CreateHiveRequest struct {
	Name              string           `json:"name" validate:"required,max=100"`
	HiveType          types.HiveType   `json:"hive_type" validate:"required,hive_type"`
	FrameCount        int              `json:"frame_count" validate:"min=0,max=40"`
	Status            types.HiveStatus `json:"status" validate:"omitempty,hive_status"`
	ColonyEstablished *time.Time       `json:"colony_established"`
	QueenIntroduced   *time.Time       `json:"queen_introduced"`
}

// UpdateHiveRequest is the body of PATCH /v1/hives/{hiveID}. Setting
// apiary_id moves the hive to another apiary of the same account.
type UpdateHiveRequest struct {
	ApiaryID          *string           `json:"apiary_id" validate:"omitempty,min=1"`
	Name              *string           `json:"name" validate:"omitempty,min=1,max=100"`
	HiveType          *types.HiveType   `json:"hive_type" validate:"omitempty,hive_type"`
	FrameCount        *int              `json:"frame_count" validate:"omitempty,min=0,max=40"`
	Status            *types.HiveStatus `json:"status" validate:"omitempty,hive_status"`
	ColonyEstablished *time.Time        `json:"colony_established"`
	QueenIntroduced   *time.Time        `json:"queen_introduced"`
}

// HiveHandler serves hive records nested under apiaries and at /v1/hives.
type HiveHandler struct {
	hives     HiveRepo
	apiaries  ApiaryLookup
	validator *core.Validator
	logger    *slog.Logger
}

// NewHiveHandler creates a HiveHandler.
func NewHiveHandler(hives HiveRepo, apiaries ApiaryLookup, v *core.Validator, l *slog.Logger) *HiveHandler {
	if l == nil {
		l = slog.Default()
	}
	return &HiveHandler{hives: hives, apiaries: apiaries, validator: v, logger: l}
}

// RegisterRoutes mounts the hive routes.
func (h *HiveHandler) RegisterRoutes(r chi.Router, scope ScopeMiddleware) {
	r.With(scope(types.ScopeWrite)).Post("/apiaries/{apiaryID}/hives", h.Create)
	r.With(scope(types.ScopeRead)).Get("/apiaries/{apiaryID}/hives", h.List)
	r.With(scope(types.ScopeRead)).Get("/hives/{hiveID}", h.Get)
	r.With(scope(types.ScopeWrite)).Patch("/hives/{hiveID}", h.Update)
	r.With(scope(types.ScopeWrite)).Delete("/hives/{hiveID}", h.Delete)
}

// Create handles POST /v1/apiaries/{apiaryID}/hives.
func (h *HiveHandler) Create(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	var req CreateHiveRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	status := req.Status
	if status == "" {
		status = types.HiveStatusActive
	}

	now := nowUTC()
	hive := &types.Hive{
		ID:                "hive_" + uuid.New().String(),
		AccountID:         acct,
		ApiaryID:          chi.URLParam(r, "apiaryID"),
		Name:              req.Name,
		HiveType:          req.HiveType,
		FrameCount:        req.FrameCount,
		Status:            status,
		ColonyEstablished: utcPtr(req.ColonyEstablished),
		QueenIntroduced:   utcPtr(req.QueenIntroduced),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// The apiary must belong to the caller; the foreign key alone would
	// accept another account's apiary.
	if _, err := h.apiaries.GetByID(r.Context(), hive.ApiaryID, acct); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.hives.Create(r.Context(), hive); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "hive created",
		"hive_id", hive.ID,
		"apiary_id", hive.ApiaryID,
		"account_id", acct,
	)
	core.Data(w, r, http.StatusCreated, hive)
}

// List handles GET /v1/apiaries/{apiaryID}/hives.
func (h *HiveHandler) List(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	params, err := core.ParseListParams(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	apiaryID := chi.URLParam(r, "apiaryID")
	if _, err := h.apiaries.GetByID(r.Context(), apiaryID, acct); err != nil {
		core.Error(w, r, err)
		return
	}

	hives, page, err := h.hives.ListByApiary(r.Context(), acct, apiaryID, params)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.List(w, r, hives, page)
}

// Get handles GET /v1/hives/{hiveID}. The response carries the summary of
// the latest assessment.
func (h *HiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	hive, err := h.hives.GetByID(r.Context(), chi.URLParam(r, "hiveID"), acct)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, hive)
}

// Update handles PATCH /v1/hives/{hiveID}.
func (h *HiveHandler) Update(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	var req UpdateHiveRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	hive, err := h.hives.GetByID(r.Context(), chi.URLParam(r, "hiveID"), acct)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if req.ApiaryID != nil && *req.ApiaryID != hive.ApiaryID {
		if _, err := h.apiaries.GetByID(r.Context(), *req.ApiaryID, acct); err != nil {
			core.Error(w, r, err)
			return
		}
		hive.ApiaryID = *req.ApiaryID
	}
	if req.Name != nil {
		hive.Name = *req.Name
	}
	if req.HiveType != nil {
		hive.HiveType = *req.HiveType
	}
	if req.FrameCount != nil {
		hive.FrameCount = *req.FrameCount
	}
	if req.Status != nil {
		hive.Status = *req.Status
	}
	if req.ColonyEstablished != nil {
		hive.ColonyEstablished = utcPtr(req.ColonyEstablished)
	}
	if req.QueenIntroduced != nil {
		hive.QueenIntroduced = utcPtr(req.QueenIntroduced)
	}
	hive.UpdatedAt = nowUTC()

	if err := h.hives.Update(r.Context(), hive); err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, hive)
}

// Delete handles DELETE /v1/hives/{hiveID}.
func (h *HiveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "hiveID")
	if err := h.hives.Delete(r.Context(), id, acct); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "hive deleted", "hive_id", id, "account_id", acct)
	w.WriteHeader(http.StatusNoContent)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
