package assessment

import (
	"fmt"
	"math"

	"hivewatch/internal/types"
)

// Health states by composite score.
const (
	StateThriving = "thriving"
	StateStable   = "stable"
	StateStressed = "stressed"
	StateCritical = "critical"
)

const (
	shortTermWeeks  = 2
	mediumTermWeeks = 6
	// crossings further out than this are not reported
	thresholdHorizonWeeks = 26
)

// trajectoryThresholds are the scores below which the colony enters a worse state.
var trajectoryThresholds = []struct {
	score int
	state string
}{
	{65, StateStressed},
	{50, StateCritical},
}

// Projection is the expected score a number of weeks ahead.
type Projection struct {
	Weeks          int    `json:"weeks"`
	ProjectedScore int    `json:"projected_score"`
	State          string `json:"state"`
}

// ThresholdCrossing reports when the score is expected to fall below a threshold.
// WeeksUntil is zero when it is already below.
type ThresholdCrossing struct {
	Threshold  int    `json:"threshold"`
	State      string `json:"state"`
	WeeksUntil int    `json:"weeks_until"`
}

// InterventionPoint is a recommended moment to act.
type InterventionPoint struct {
	Timing string `json:"timing"`
	Reason string `json:"reason"`
}

// HealthTrajectory extrapolates the composite score forward.
type HealthTrajectory struct {
	CurrentState              string              `json:"current_state"`
	CurrentScore              int                 `json:"current_score"`
	WeeklyChange              float64             `json:"weekly_change"`
	ShortTermForecast         Projection          `json:"short_term_forecast"`
	MediumTermForecast        Projection          `json:"medium_term_forecast"`
	CriticalThresholds        []ThresholdCrossing `json:"critical_thresholds"`
	OptimalInterventionPoints []InterventionPoint `json:"optimal_intervention_points"`
	RiskFactors               []string            `json:"risk_factors"`
}

// ProjectHealthTrajectory classifies the current state and projects it from
// the health trend and the overall risk level.
func ProjectHealthTrajectory(score ScoreAnalysis, risk RiskAnalysis, trend TrendAnalysis) HealthTrajectory {
	current := score.WeightedScore
	weekly := trendWeeklyDelta(trend) - riskWeeklyPenalty(risk.OverallRiskLevel)

	t := HealthTrajectory{
		CurrentState:              healthState(current),
		CurrentScore:              current,
		WeeklyChange:              weekly,
		ShortTermForecast:         project(current, weekly, shortTermWeeks),
		MediumTermForecast:        project(current, weekly, mediumTermWeeks),
		CriticalThresholds:        []ThresholdCrossing{},
		OptimalInterventionPoints: []InterventionPoint{},
		RiskFactors:               []string{},
	}

	for _, r := range risk.IdentifiedRisks {
		if r.Level == types.RiskCritical || r.Level == types.RiskHigh {
			t.RiskFactors = append(t.RiskFactors, r.Type)
		}
	}

	for _, th := range trajectoryThresholds {
		if current < th.score {
			t.CriticalThresholds = append(t.CriticalThresholds, ThresholdCrossing{Threshold: th.score, State: th.state})
			continue
		}
		if weekly >= 0 {
			continue
		}
		weeks := int(math.Floor(float64(current-th.score)/-weekly)) + 1
		if weeks <= thresholdHorizonWeeks {
			t.CriticalThresholds = append(t.CriticalThresholds, ThresholdCrossing{Threshold: th.score, State: th.state, WeeksUntil: weeks})
		}
	}

	t.OptimalInterventionPoints = interventionPoints(t, risk.OverallRiskLevel)
	return t
}

func healthState(score int) string {
	switch {
	case score >= 80:
		return StateThriving
	case score >= 65:
		return StateStable
	case score >= 50:
		return StateStressed
	default:
		return StateCritical
	}
}

func trendWeeklyDelta(trend TrendAnalysis) float64 {
	if !trend.TrendAvailable || trend.HealthTrend == nil {
		return 0
	}
	switch trend.HealthTrend.Direction {
	case types.TrendImproving:
		return 1.5
	case types.TrendDeclining:
		return -2
	default:
		return 0
	}
}

func riskWeeklyPenalty(level types.RiskLevel) float64 {
	switch level {
	case types.RiskCritical:
		return 3
	case types.RiskHigh:
		return 2
	case types.RiskMedium:
		return 1
	default:
		return 0
	}
}

func project(current int, weekly float64, weeks int) Projection {
	projected := int(math.Round(float64(current) + weekly*float64(weeks)))
	projected = min(max(projected, 0), 100)
	return Projection{Weeks: weeks, ProjectedScore: projected, State: healthState(projected)}
}

func interventionPoints(t HealthTrajectory, level types.RiskLevel) []InterventionPoint {
	var points []InterventionPoint
	if level == types.RiskCritical || t.CurrentState == StateCritical {
		points = append(points, InterventionPoint{Timing: "immediate", Reason: "colony is in or near critical condition"})
	} else if t.CurrentState == StateStressed {
		points = append(points, InterventionPoint{Timing: "within 1 week", Reason: "colony is stressed"})
	}
	for _, c := range t.CriticalThresholds {
		if c.WeeksUntil == 0 {
			continue
		}
		timing := "now"
		switch lead := c.WeeksUntil - 1; {
		case lead == 1:
			timing = "within 1 week"
		case lead > 1:
			timing = fmt.Sprintf("within %d weeks", lead)
		}
		points = append(points, InterventionPoint{
			Timing: timing,
			Reason: fmt.Sprintf("score projected to fall below %d (%s)", c.Threshold, c.State),
		})
	}
	if len(points) == 0 {
		points = append(points, InterventionPoint{Timing: "next scheduled inspection", Reason: "maintain routine management"})
	}
	return points
}
