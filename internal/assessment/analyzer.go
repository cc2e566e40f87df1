package assessment

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"hivewatch/internal/types"
)

// Fallback values used when the analysis cannot be completed.
const (
	fallbackScore                  = 70
	fallbackInspectionIntervalDays = 14
	fallbackOverallConfidence      = 50
	fallbackDataCompleteness       = 60
	fallbackPredictionReliability  = 40
)

// Input is everything one analysis needs. Now is supplied by the caller; the
// engine never reads the clock.
type Input struct {
	HiveID   string
	Snapshot types.Snapshot
	Context  types.HiveContext
	History  types.HistorySeries
	Now      time.Time
}

// Predictions groups the forward-looking models.
type Predictions struct {
	Swarming         *SwarmingPrediction `json:"swarming,omitempty"`
	Production       *ProductionForecast `json:"production,omitempty"`
	HealthTrajectory *HealthTrajectory   `json:"health_trajectory,omitempty"`
	Interventions    *InterventionPlan   `json:"interventions,omitempty"`
}

// ConfidenceMetrics describes how much the analysis can be trusted.
type ConfidenceMetrics struct {
	OverallConfidence     int `json:"overall_confidence"`
	DataCompleteness      int `json:"data_completeness"`
	PredictionReliability int `json:"prediction_reliability"`
}

// AnalysisResult is the complete output of one analysis.
type AnalysisResult struct {
	ScoreAnalysis      ScoreAnalysis          `json:"score_analysis"`
	RiskAnalysis       RiskAnalysis           `json:"risk_analysis"`
	TrendAnalysis      TrendAnalysis          `json:"trend_analysis"`
	Predictions        Predictions            `json:"predictions"`
	Recommendations    []types.Recommendation `json:"recommendations"`
	Alerts             []types.Alert          `json:"alerts"`
	NextInspectionDate time.Time              `json:"next_inspection_date"`
	ConfidenceMetrics  ConfidenceMetrics      `json:"confidence_metrics"`
	AnalyzedAt         time.Time              `json:"analyzed_at"`
	Fallback           bool                   `json:"fallback,omitempty"`
	FallbackReason     string                 `json:"fallback_reason,omitempty"`
}

// Summary returns the fields written back onto the hive record for the
// inspection taken at inspectedAt.
func (r *AnalysisResult) Summary(inspectedAt time.Time) types.AssessmentSummary {
	return types.AssessmentSummary{
		WeightedScore:      r.ScoreAnalysis.WeightedScore,
		OverallRiskLevel:   r.RiskAnalysis.OverallRiskLevel,
		Recommendations:    r.Recommendations,
		NextInspectionDate: r.NextInspectionDate,
		InspectedAt:        inspectedAt,
	}
}

// Analyzer runs the full assessment pipeline. It holds no per-call state and
// is safe for concurrent use.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer. A nil logger falls back to slog.Default().
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// Analyze never returns nil and never panics. Any internal failure produces
// the fallback analysis, flagged with Fallback=true.
func (a *Analyzer) Analyze(in Input) (result *AnalysisResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = a.fallback(in, fmt.Errorf("panic: %v", rec))
		}
	}()

	res, err := analyze(in)
	if err != nil {
		return a.fallback(in, err)
	}
	return res
}

func analyze(in Input) (*AnalysisResult, error) {
	score := CalculateScore(in.Snapshot)
	risk := AnalyzeRisks(in.Snapshot, in.Context, in.Now)
	trend, err := AnalyzeTrends(score.WeightedScore, in.History)
	if err != nil {
		return nil, fmt.Errorf("trend analysis: %w", err)
	}

	swarm := PredictSwarming(in.Snapshot, in.Context, in.History, in.Now)
	production := ForecastProduction(in.Snapshot, in.Context, in.Now)
	trajectory := ProjectHealthTrajectory(score, risk, trend)
	interventions := OptimizeInterventions(in.Snapshot, in.Context, swarm, in.Now)

	return &AnalysisResult{
		ScoreAnalysis: score,
		RiskAnalysis:  risk,
		TrendAnalysis: trend,
		Predictions: Predictions{
			Swarming:         &swarm,
			Production:       &production,
			HealthTrajectory: &trajectory,
			Interventions:    &interventions,
		},
		Recommendations:    BuildRecommendations(in.Snapshot, in.Context, score, swarm, in.Now),
		Alerts:             BuildAlerts(risk),
		NextInspectionDate: NextInspectionDate(in.Now, score.WeightedScore, risk.OverallRiskLevel),
		ConfidenceMetrics: ConfidenceMetrics{
			OverallConfidence:     overallConfidence(score, trend),
			DataCompleteness:      dataCompleteness(in.Snapshot),
			PredictionReliability: predictionReliability(len(in.History)),
		},
		AnalyzedAt: in.Now,
	}, nil
}

func (a *Analyzer) fallback(in Input, cause error) *AnalysisResult {
	a.logger.Error("hive analysis failed, returning fallback",
		"hive_id", in.HiveID,
		"error", cause,
	)

	composite := lastKnownScore(in.History)
	grade := GradeFor(composite)
	color, level := gradeBand(grade)

	return &AnalysisResult{
		ScoreAnalysis: ScoreAnalysis{
			WeightedScore:    composite,
			Grade:            grade,
			ColorCode:        color,
			PerformanceLevel: level,
			ConfidenceLevel:  minConfidenceLevel,
			ScoreBreakdown:   map[Dimension]DimensionScore{},
			Strengths:        []Dimension{},
			ImprovementAreas: []ImprovementArea{},
		},
		RiskAnalysis: RiskAnalysis{
			OverallRiskLevel:   types.RiskMedium,
			IdentifiedRisks:    []types.Risk{},
			RiskMatrix:         buildRiskMatrix(nil),
			MonitoringSchedule: map[types.Timeframe]MonitoringCadence{},
		},
		TrendAnalysis: TrendAnalysis{TrendAvailable: false},
		Recommendations: []types.Recommendation{{
			Type:     "general",
			Priority: types.RiskMedium,
			Action:   "Automated analysis was unavailable; review this inspection manually and re-inspect within two weeks",
		}},
		Alerts:             []types.Alert{},
		NextInspectionDate: in.Now.AddDate(0, 0, fallbackInspectionIntervalDays),
		ConfidenceMetrics: ConfidenceMetrics{
			OverallConfidence:     fallbackOverallConfidence,
			DataCompleteness:      fallbackDataCompleteness,
			PredictionReliability: fallbackPredictionReliability,
		},
		AnalyzedAt:     in.Now,
		Fallback:       true,
		FallbackReason: cause.Error(),
	}
}

// lastKnownScore returns the most recent usable score in the history, or 70.
func lastKnownScore(history types.HistorySeries) int {
	var latest *types.HistoryPoint
	for i := range history {
		p := &history[i]
		if math.IsNaN(p.CompositeScore) || p.CompositeScore < 0 || p.CompositeScore > 100 {
			continue
		}
		if latest == nil || p.Date.After(latest.Date) {
			latest = p
		}
	}
	if latest == nil {
		return fallbackScore
	}
	return int(math.Round(latest.CompositeScore))
}

// overallConfidence is 70, plus 5 for each of up to three dimensions above
// 80%, plus 10 when a trend is available.
func overallConfidence(score ScoreAnalysis, trend TrendAnalysis) int {
	strong := 0
	for _, dim := range dimensionOrder {
		if score.ScoreBreakdown[dim].Percentage > 80 {
			strong++
		}
	}
	confidence := 70 + 5*min(strong, 3)
	if trend.TrendAvailable {
		confidence += 10
	}
	return min(confidence, 100)
}

// dataCompleteness weights the five required fields at 70% and the four
// optional detail blocks at 30%.
func dataCompleteness(s types.Snapshot) int {
	required := 0
	for _, v := range requiredFields(s) {
		if v != "" {
			required++
		}
	}
	optional := 0
	for _, present := range []bool{s.Weather != nil, s.Notes != "", s.Frames != nil, s.Temperament != nil} {
		if present {
			optional++
		}
	}
	return int(math.Round(float64(required)/5*70 + float64(optional)/4*30))
}

func predictionReliability(historyLen int) int {
	switch {
	case historyLen == 0:
		return 40
	case historyLen < 3:
		return 60
	case historyLen < 5:
		return 75
	default:
		return 90
	}
}
