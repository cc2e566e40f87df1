// Package reassess runs the assessment engine against stored inspections and
// records the outcome. The inspections API and the reassessor Lambda share
// the Recorder so both paths persist, summarize and alert the same way.
package reassess

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"hivewatch/internal/assessment"
	notifcore "hivewatch/internal/notifications/core"
	"hivewatch/internal/types"
)

// AssessmentStore archives full analysis results.
type AssessmentStore interface {
	Create(ctx context.Context, rec *types.AssessmentRecord) error
}

// SummaryStore writes the assessment summary back onto the hive.
type SummaryStore interface {
	UpdateAssessmentSummary(ctx context.Context, id, accountID string, sum types.AssessmentSummary) error
}

// AlertPublisher hands alerts to the alert worker.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, msg types.AlertMessage) error
}

// Recorder persists an AnalysisResult and fans out its side effects.
type Recorder struct {
	assessments AssessmentStore
	hives       SummaryStore
	alerts      AlertPublisher
	metrics     notifcore.AssessmentMetrics
	clock       types.Clock
	logger      *slog.Logger
}

// NewRecorder creates a Recorder. A nil alerts publisher disables alert
// publishing; nil metrics, clock and logger get no-op or default values.
func NewRecorder(
	assessments AssessmentStore,
	hives SummaryStore,
	alerts AlertPublisher,
	metrics notifcore.AssessmentMetrics,
	clock types.Clock,
	logger *slog.Logger,
) *Recorder {
	if metrics == nil {
		metrics = notifcore.NopMetrics{}
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		assessments: assessments,
		hives:       hives,
		alerts:      alerts,
		metrics:     metrics,
		clock:       clock,
		logger:      logger,
	}
}

// Record stores result as the hive's latest assessment for inspection and
// updates the hive summary. Alert publishing failures are logged and do not
// fail the call: the assessment is already durable by then.
func (r *Recorder) Record(ctx context.Context, hive *types.Hive, inspection *types.Inspection, result *assessment.AnalysisResult) (*types.AssessmentRecord, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode assessment", err)
	}

	rec := &types.AssessmentRecord{
		ID:               "asm_" + uuid.New().String(),
		AccountID:        hive.AccountID,
		HiveID:           hive.ID,
		InspectionID:     inspection.ID,
		WeightedScore:    result.ScoreAnalysis.WeightedScore,
		OverallRiskLevel: result.RiskAnalysis.OverallRiskLevel,
		Fallback:         result.Fallback,
		Result:           payload,
		CreatedAt:        r.clock.Now().UTC(),
	}
	if err := r.assessments.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("storing assessment: %w", err)
	}

	if err := r.hives.UpdateAssessmentSummary(ctx, hive.ID, hive.AccountID, result.Summary(inspection.InspectedAt)); err != nil {
		return rec, fmt.Errorf("updating hive summary: %w", err)
	}

	r.metrics.RecordAssessment(ctx, result.ScoreAnalysis.Grade, result.RiskAnalysis.OverallRiskLevel, result.Fallback)
	r.publish(ctx, hive, rec, result.Alerts)

	return rec, nil
}

func (r *Recorder) publish(ctx context.Context, hive *types.Hive, rec *types.AssessmentRecord, alerts []types.Alert) {
	if r.alerts == nil || len(alerts) == 0 {
		return
	}

	msg := types.AlertMessage{
		AccountID:    hive.AccountID,
		HiveID:       hive.ID,
		HiveName:     hive.Name,
		AssessmentID: rec.ID,
		Alerts:       alerts,
		AssessedAt:   rec.CreatedAt,
	}
	if err := r.alerts.PublishAlerts(ctx, msg); err != nil {
		r.logger.ErrorContext(ctx, "failed to publish alerts",
			slog.String("hive_id", hive.ID),
			slog.String("assessment_id", rec.ID),
			slog.Int("alerts", len(alerts)),
			slog.String("error", err.Error()),
		)
		return
	}
	r.metrics.RecordAlertsPublished(ctx, len(alerts))
}
