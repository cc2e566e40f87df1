package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hivewatch/internal/core"
	"hivewatch/internal/types"
)

// ApiaryRepo is the apiary persistence used by ApiaryHandler.
type ApiaryRepo interface {
	Create(ctx context.Context, a *types.Apiary) error
	GetByID(ctx context.Context, id, accountID string) (*types.Apiary, error)
	Update(ctx context.Context, a *types.Apiary) error
	Delete(ctx context.Context, id, accountID string) error
	List(ctx context.Context, accountID string, params types.ListParams) ([]*types.Apiary, types.PageInfo, error)
}

// CreateApiaryRequest is the body of POST /v1/apiaries. Coordinates are
// optional but must be supplied together.
type CreateApiaryRequest struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Location  string   `json:"location" validate:"max=200"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	Notes     string   `json:"notes" validate:"max=2000"`
}

// UpdateApiaryRequest is the body of PATCH /v1/apiaries/{apiaryID}. Absent
// fields are left unchanged.
type UpdateApiaryRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Location  *string  `json:"location" validate:"omitempty,max=200"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	Notes     *string  `json:"notes" validate:"omitempty,max=2000"`
}

// ApiaryHandler serves /v1/apiaries.
type ApiaryHandler struct {
	repo      ApiaryRepo
	validator *core.Validator
	logger    *slog.Logger
}

// NewApiaryHandler creates an ApiaryHandler.
func NewApiaryHandler(repo ApiaryRepo, v *core.Validator, l *slog.Logger) *ApiaryHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ApiaryHandler{repo: repo, validator: v, logger: l}
}

// RegisterRoutes mounts the apiary routes.
func (h *ApiaryHandler) RegisterRoutes(r chi.Router, scope ScopeMiddleware) {
	r.With(scope(types.ScopeRead)).Get("/apiaries", h.List)
	r.With(scope(types.ScopeWrite)).Post("/apiaries", h.Create)
	r.With(scope(types.ScopeRead)).Get("/apiaries/{apiaryID}", h.Get)
	r.With(scope(types.ScopeWrite)).Patch("/apiaries/{apiaryID}", h.Update)
	r.With(scope(types.ScopeWrite)).Delete("/apiaries/{apiaryID}", h.Delete)
}

// Create handles POST /v1/apiaries.
func (h *ApiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	var req CreateApiaryRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	if err := checkCoordinates(req.Latitude, req.Longitude); err != nil {
		core.Error(w, r, err)
		return
	}

	now := nowUTC()
	a := &types.Apiary{
		ID:        "apiary_" + uuid.New().String(),
		AccountID: acct,
		Name:      req.Name,
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repo.Create(r.Context(), a); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "apiary created", "apiary_id", a.ID, "account_id", acct)
	core.Data(w, r, http.StatusCreated, a)
}

// Get handles GET /v1/apiaries/{apiaryID}.
func (h *ApiaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	a, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "apiaryID"), acct)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, a)
}

// Update handles PATCH /v1/apiaries/{apiaryID}.
func (h *ApiaryHandler) Update(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	var req UpdateApiaryRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	if err := checkCoordinates(req.Latitude, req.Longitude); err != nil {
		core.Error(w, r, err)
		return
	}

	a, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "apiaryID"), acct)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Location != nil {
		a.Location = *req.Location
	}
	if req.Latitude != nil {
		a.Latitude, a.Longitude = req.Latitude, req.Longitude
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
	a.UpdatedAt = nowUTC()

	if err := h.repo.Update(r.Context(), a); err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, a)
}

// Delete handles DELETE /v1/apiaries/{apiaryID}. Apiaries that still hold
// hives are refused with 409.
func (h *ApiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "apiaryID")
	if err := h.repo.Delete(r.Context(), id, acct); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "apiary deleted", "apiary_id", id, "account_id", acct)
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /v1/apiaries.
func (h *ApiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	params, err := core.ParseListParams(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	apiaries, page, err := h.repo.List(r.Context(), acct, params)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.List(w, r, apiaries, page)
}

func checkCoordinates(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationMissingField,
			"latitude and longitude must be provided together",
			nil,
			map[string]any{"fields": []string{"latitude", "longitude"}},
		)
	}
	return nil
}
