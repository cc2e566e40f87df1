package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hivewatch/internal/core"
	"hivewatch/internal/types"
)

// AssessmentReader loads archived assessments.
type AssessmentReader interface {
	GetLatest(ctx context.Context, hiveID, accountID string) (*types.AssessmentRecord, error)
}

// ReassessTrigger enqueues hives for reassessment. *queue.ReassessTrigger
// satisfies it.
type ReassessTrigger interface {
	TriggerReassessment(ctx context.Context, hives []types.HiveRef, reason string) (int, error)
}

// PreviewAssessmentRequest is the body of
// POST /v1/hives/{hiveID}/assessment/preview.
type PreviewAssessmentRequest struct {
	Snapshot types.Snapshot `json:"snapshot"`
	AsOf     *time.Time     `json:"as_of"`
}

// ReassessResponse is returned by POST /v1/hives/{hiveID}/reassess.
type ReassessResponse struct {
	HiveID string `json:"hive_id"`
	Queued bool   `json:"queued"`
}

// AssessmentHandler exposes stored assessments and runs previews.
type AssessmentHandler struct {
	hives       HiveLookup
	assessments AssessmentReader
	trigger     ReassessTrigger
	engine      engineRunner
	validator   *core.Validator
	clock       types.Clock
	logger      *slog.Logger
}

// NewAssessmentHandler creates an AssessmentHandler. A nil trigger leaves
// the manual reassess route unmounted.
func NewAssessmentHandler(
	hives HiveLookup,
	apiaries ApiaryLookup,
	history HistoryReader,
	assessments AssessmentReader,
	analyzer Analyzer,
	trigger ReassessTrigger,
	historyDepth int,
	v *core.Validator,
	clock types.Clock,
	l *slog.Logger,
) *AssessmentHandler {
	if l == nil {
		l = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &AssessmentHandler{
		hives:       hives,
		assessments: assessments,
		trigger:     trigger,
		engine: engineRunner{
			apiaries:     apiaries,
			history:      history,
			analyzer:     analyzer,
			historyDepth: historyDepth,
			logger:       l,
		},
		validator: v,
		clock:     clock,
		logger:    l,
	}
}

// RegisterRoutes mounts the assessment routes.
func (h *AssessmentHandler) RegisterRoutes(r chi.Router, scope ScopeMiddleware) {
	r.With(scope(types.ScopeRead)).Get("/hives/{hiveID}/assessment", h.GetLatest)
	r.With(scope(types.ScopeRead)).Post("/hives/{hiveID}/assessment/preview", h.Preview)
	if h.trigger != nil {
		r.With(scope(types.ScopeWrite)).Post("/hives/{hiveID}/reassess", h.Reassess)
	}
}

// GetLatest handles GET /v1/hives/{hiveID}/assessment.
func (h *AssessmentHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	rec, err := h.assessments.GetLatest(r.Context(), chi.URLParam(r, "hiveID"), acct)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, rec)
}

// Preview handles POST /v1/hives/{hiveID}/assessment/preview. The analysis
// uses the hive's stored context and history but nothing is persisted.
func (h *AssessmentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	var req PreviewAssessmentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	hive, err := h.hives.GetByID(r.Context(), chi.URLParam(r, "hiveID"), acct)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	asOf := h.clock.Now().UTC()
	if req.AsOf != nil {
		asOf = req.AsOf.UTC()
	}

	core.Data(w, r, http.StatusOK, h.engine.run(r.Context(), hive, req.Snapshot, asOf))
}

// Reassess handles POST /v1/hives/{hiveID}/reassess by queueing the hive for
// the reassessor.
func (h *AssessmentHandler) Reassess(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	hive, err := h.hives.GetByID(r.Context(), chi.URLParam(r, "hiveID"), acct)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	ref := types.HiveRef{AccountID: acct, HiveID: hive.ID}
	if _, err := h.trigger.TriggerReassessment(r.Context(), []types.HiveRef{ref}, types.ReassessReasonManual); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "reassessment queued", "hive_id", hive.ID, "account_id", acct)
	core.Data(w, r, http.StatusAccepted, ReassessResponse{HiveID: hive.ID, Queued: true})
}
