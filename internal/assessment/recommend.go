package assessment

import (
	"sort"
	"strings"
	"time"

	"hivewatch/internal/types"
)

// Recommendation categories.
const (
	CategoryQueenManagement      = "queen_management"
	CategoryPopulationManagement = "population_management"
	CategoryFeeding              = "feeding"
	CategoryHealthTreatment      = "health_treatment"
	CategorySpaceManagement      = "space_management"
	CategoryBestPractice         = "best_practice"
)

// BuildRecommendations maps the triggered conditions to action items,
// appends seasonal best practice, removes duplicate actions and orders the
// result from most to least urgent. Equal priorities keep insertion order.
func BuildRecommendations(s types.Snapshot, hc types.HiveContext, score ScoreAnalysis, swarm SwarmingPrediction, now time.Time) []types.Recommendation {
	var recs []types.Recommendation
	add := func(category string, priority types.RiskLevel, action string) {
		recs = append(recs, types.Recommendation{Type: category, Priority: priority, Action: action})
	}

	switch {
	case s.QueenPresent == types.QueenAbsent:
		add(CategoryQueenManagement, types.RiskCritical, "Requeen immediately with a mated queen or give the colony a frame of eggs")
	case s.QueenLaying == types.LayingNo || s.QueenLaying == types.LayingPoor:
		add(CategoryQueenManagement, types.RiskHigh, "Evaluate queen performance and plan to requeen")
	case s.QueenPresent == types.QueenNotSeen:
		add(CategoryQueenManagement, types.RiskMedium, "Look for eggs and young larvae to confirm the queen is present")
	}
	if hc.QueenAgeMonths > 24 && s.QueenPresent != types.QueenAbsent {
		add(CategoryQueenManagement, types.RiskLow, "Plan to replace the queen; she is over two years old")
	}

	if s.PopulationStrength == types.PopulationWeak || s.PopulationStrength == types.PopulationVeryWeak {
		add(CategoryPopulationManagement, types.RiskHigh, "Reduce the entrance and consider combining with a stronger colony")
	}

	switch s.FoodStores {
	case types.FoodCritical, types.FoodNone:
		add(CategoryFeeding, types.RiskCritical, "Feed 2:1 sugar syrup or fondant immediately")
	case types.FoodLow:
		add(CategoryFeeding, types.RiskHigh, "Begin supplemental feeding with 1:1 sugar syrup")
	}

	if count := len(s.DiseasesFound) + len(s.PestsFound); count > 0 {
		priority := types.RiskMedium
		if count > 2 {
			priority = types.RiskHigh
		}
		found := append(append([]string{}, s.DiseasesFound...), s.PestsFound...)
		add(CategoryHealthTreatment, priority, "Treat for identified issues: "+strings.Join(found, ", "))
	}

	switch swarm.RiskLevel {
	case types.RiskCritical:
		add(CategorySpaceManagement, types.RiskHigh, "Split the colony or perform an artificial swarm")
	case types.RiskHigh:
		add(CategorySpaceManagement, types.RiskHigh, "Add a super to relieve congestion")
	}

	switch seasonOf(localMonth(now, hc.SouthernHemisphere)) {
	case SeasonSpring:
		add(CategoryBestPractice, types.RiskLow, "Inspect every 7 to 10 days during swarm season")
	case SeasonSummer:
		add(CategoryBestPractice, types.RiskLow, "Monitor varroa levels with a sugar roll or alcohol wash")
	case SeasonAutumn:
		add(CategoryBestPractice, types.RiskLow, "Make sure the colony has at least 20 kg of stores before winter")
	case SeasonWinter:
		add(CategoryBestPractice, types.RiskLow, "Avoid opening the hive below 10°C; heft it to check stores")
	}
	if score.WeightedScore >= 85 {
		add(CategoryBestPractice, types.RiskLow, "Maintain the current management routine")
	}

	return dedupeAndSort(recs)
}

func dedupeAndSort(recs []types.Recommendation) []types.Recommendation {
	out := make([]types.Recommendation, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		if seen[r.Action] {
			continue
		}
		seen[r.Action] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out
}

var alertTitles = map[string]string{
	RiskQueenLoss:         "Queen loss detected",
	RiskQueenFailure:      "Queen failing",
	RiskPopulationDecline: "Colony population declining",
	RiskStarvation:        "Colony at risk of starvation",
	RiskFoodShortage:      "Food stores running low",
	RiskHealthIssues:      "Health issues detected",
}

// BuildAlerts produces a user-facing alert for every critical or high risk,
// in the order the risks were identified.
func BuildAlerts(risk RiskAnalysis) []types.Alert {
	alerts := []types.Alert{}
	for _, r := range risk.IdentifiedRisks {
		var level types.AlertLevel
		var timeline string
		switch r.Level {
		case types.RiskCritical:
			level, timeline = types.AlertCritical, "immediate"
		case types.RiskHigh:
			level, timeline = types.AlertWarning, timelineFor(r.Timeframe)
		default:
			continue
		}
		title, ok := alertTitles[r.Type]
		if !ok {
			title = strings.ReplaceAll(r.Type, "_", " ")
		}
		alerts = append(alerts, types.Alert{
			Level:          level,
			Type:           r.Type,
			Title:          title,
			Message:        r.Description,
			ActionRequired: true,
			Timeline:       timeline,
		})
	}
	return alerts
}

func timelineFor(tf types.Timeframe) string {
	switch tf {
	case types.TimeframeImmediate:
		return "immediate"
	case types.TimeframeShortTerm:
		return "within 1-2 weeks"
	case types.TimeframeMediumTerm:
		return "within 1 month"
	default:
		return "this season"
	}
}
