package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hivewatch/internal/assessment"
	"hivewatch/internal/core"
	"hivewatch/internal/types"
)

// inspectionClockSkew tolerates client clocks running slightly ahead.
const inspectionClockSkew = 5 * time.Minute

// InspectionRepo is the inspection persistence used by InspectionHandler.
type InspectionRepo interface {
	HistoryReader
	Create(ctx context.Context, in *types.Inspection) error
	List(ctx context.Context, accountID, hiveID string, params types.ListParams) ([]*types.Inspection, types.PageInfo, error)
}

// HiveLookup resolves the hive of nested routes.
type HiveLookup interface {
	GetByID(ctx context.Context, id, accountID string) (*types.Hive, error)
}

// AssessmentRecorder persists an analysis and its side effects.
// *reassess.Recorder satisfies it.
type AssessmentRecorder interface {
	Record(ctx context.Context, hive *types.Hive, inspection *types.Inspection, result *assessment.AnalysisResult) (*types.AssessmentRecord, error)
}

// CreateInspectionRequest is the body of POST /v1/hives/{hiveID}/inspections.
// InspectedAt defaults to the time of the request.
type CreateInspectionRequest struct {
	InspectedAt      *time.Time     `json:"inspected_at"`
	Snapshot         types.Snapshot `json:"snapshot"`
	SwarmingObserved bool           `json:"swarming_observed"`
}

// InspectionResponse is returned by POST /v1/hives/{hiveID}/inspections.
// AssessmentID is empty when the analysis could not be recorded.
type InspectionResponse struct {
	Inspection   *types.Inspection          `json:"inspection"`
	AssessmentID string                     `json:"assessment_id,omitempty"`
	Assessment   *assessment.AnalysisResult `json:"assessment"`
}

// InspectionHandler records inspections and runs the engine on them.
type InspectionHandler struct {
	hives       HiveLookup
	inspections InspectionRepo
	recorder    AssessmentRecorder
	engine      engineRunner
	validator   *core.Validator
	clock       types.Clock
	logger      *slog.Logger
}

// NewInspectionHandler creates an InspectionHandler.
func NewInspectionHandler(
	hives HiveLookup,
	apiaries ApiaryLookup,
	inspections InspectionRepo,
	analyzer Analyzer,
	recorder AssessmentRecorder,
	historyDepth int,
	v *core.Validator,
	clock types.Clock,
	l *slog.Logger,
) *InspectionHandler {
	if l == nil {
		l = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &InspectionHandler{
		hives:       hives,
		inspections: inspections,
		recorder:    recorder,
		engine: engineRunner{
			apiaries:     apiaries,
			history:      inspections,
			analyzer:     analyzer,
			historyDepth: historyDepth,
			logger:       l,
		},
		validator: v,
		clock:     clock,
		logger:    l,
	}
}

// RegisterRoutes mounts the inspection routes.
func (h *InspectionHandler) RegisterRoutes(r chi.Router, scope ScopeMiddleware) {
	r.With(scope(types.ScopeWrite)).Post("/hives/{hiveID}/inspections", h.Create)
	r.With(scope(types.ScopeRead)).Get("/hives/{hiveID}/inspections", h.List)
}

// Create handles POST /v1/hives/{hiveID}/inspections.
//
// The engine runs as of the inspection time. Once the inspection is stored
// the request succeeds: a failure to record the assessment is reported as a
// warning. An inspection older than the hive's latest one is stored and
// analysed but does not replace the hive's current assessment.
func (h *InspectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	var req CreateInspectionRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	now := h.clock.Now().UTC()
	inspectedAt := now
	if req.InspectedAt != nil {
		inspectedAt = req.InspectedAt.UTC()
		if inspectedAt.After(now.Add(inspectionClockSkew)) {
			core.Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodeValidationOutOfRange,
				"inspected_at must not be in the future",
				nil,
				map[string]any{"field": "inspected_at"},
			))
			return
		}
	}

	hive, err := h.hives.GetByID(r.Context(), chi.URLParam(r, "hiveID"), acct)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	result := h.engine.run(r.Context(), hive, req.Snapshot, inspectedAt)

	inspection := &types.Inspection{
		ID:               "insp_" + uuid.New().String(),
		AccountID:        acct,
		HiveID:           hive.ID,
		InspectedAt:      inspectedAt,
		Snapshot:         req.Snapshot,
		SwarmingObserved: req.SwarmingObserved,
		CreatedAt:        now,
	}
	// Fallback scores are placeholders and must not feed later trends.
	if !result.Fallback {
		score := result.ScoreAnalysis.WeightedScore
		inspection.CompositeScore = &score
	}
	if err := h.inspections.Create(r.Context(), inspection); err != nil {
		core.Error(w, r, err)
		return
	}

	resp := InspectionResponse{Inspection: inspection, Assessment: result}
	var warnings []string

	if hive.LastInspectedAt != nil && inspectedAt.Before(*hive.LastInspectedAt) {
		warnings = append(warnings, "inspection is older than the hive's latest; current assessment unchanged")
	} else {
		rec, err := h.recorder.Record(r.Context(), hive, inspection, result)
		if rec != nil {
			resp.AssessmentID = rec.ID
		}
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to record assessment",
				"hive_id", hive.ID,
				"inspection_id", inspection.ID,
				"error", err,
			)
			warnings = append(warnings, "assessment could not be recorded; it will be recomputed on the next reassessment")
		}
	}

	h.logger.InfoContext(r.Context(), "inspection recorded",
		"hive_id", hive.ID,
		"inspection_id", inspection.ID,
		"weighted_score", result.ScoreAnalysis.WeightedScore,
		"risk_level", string(result.RiskAnalysis.OverallRiskLevel),
		"fallback", result.Fallback,
	)

	var meta *types.ResponseMeta
	if len(warnings) > 0 {
		meta = &types.ResponseMeta{Warnings: warnings}
	}
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: resp, Meta: meta})
}

// List handles GET /v1/hives/{hiveID}/inspections, newest first.
func (h *InspectionHandler) List(w http.ResponseWriter, r *http.Request) {
	acct, ok := accountID(w, r)
	if !ok {
		return
	}

	params, err := core.ParseListParams(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	hive, err := h.hives.GetByID(r.Context(), chi.URLParam(r, "hiveID"), acct)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	inspections, page, err := h.inspections.List(r.Context(), acct, hive.ID, params)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.List(w, r, inspections, page)
}
