package assessment

import (
	"math"

	"hivewatch/internal/types"
)

// Dimension names one of the five scored aspects of a colony.
type Dimension string

const (
	DimensionQueen      Dimension = "queen"
	DimensionBrood      Dimension = "brood"
	DimensionPopulation Dimension = "population"
	DimensionFood       Dimension = "food"
	DimensionHealth     Dimension = "health"
)

// dimensionOrder fixes iteration order for strengths and improvement areas.
var dimensionOrder = []Dimension{DimensionQueen, DimensionBrood, DimensionPopulation, DimensionFood, DimensionHealth}

// Maximum points per dimension. They sum to 100.
const (
	maxQueenPoints      = 25
	maxBroodPoints      = 25
	maxPopulationPoints = 20
	maxFoodPoints       = 15
	maxHealthPoints     = 15
)

// Confidence penalties. A value of "unknown" falls into both buckets.
const (
	missingFieldPenalty   = 15
	uncertainFieldPenalty = 10
	minConfidenceLevel    = 50
)

const (
	strengthThreshold    = 80.0
	improvementThreshold = 60.0
	highPriorityBelow    = 40.0
)

// DimensionScore is one row of the score breakdown.
type DimensionScore struct {
	Score      int     `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
}

// ImprovementArea is a dimension scoring under 60% of its maximum.
type ImprovementArea struct {
	Dimension            Dimension       `json:"dimension"`
	Score                int             `json:"score"`
	MaxScore             int             `json:"max_score"`
	Percentage           float64         `json:"percentage"`
	ImprovementPotential int             `json:"improvement_potential"`
	Priority             types.RiskLevel `json:"priority"`
}

// ScoreAnalysis is the composite score of a snapshot along with its weighted view.
type ScoreAnalysis struct {
	WeightedScore    int                          `json:"weighted_score"`
	Grade            types.Grade                  `json:"grade"`
	ColorCode        string                       `json:"color_code"`
	PerformanceLevel string                       `json:"performance_level"`
	ConfidenceLevel  int                          `json:"confidence_level"`
	ScoreBreakdown   map[Dimension]DimensionScore `json:"score_breakdown"`
	Strengths        []Dimension                  `json:"strengths"`
	ImprovementAreas []ImprovementArea            `json:"improvement_areas"`
}

// CalculateScore scores a snapshot across the five dimensions.
func CalculateScore(s types.Snapshot) ScoreAnalysis {
	points := map[Dimension]int{
		DimensionQueen:      queenPoints(s.QueenPresent, s.QueenLaying),
		DimensionBrood:      broodPoints(s.BroodPattern),
		DimensionPopulation: populationPoints(s.PopulationStrength),
		DimensionFood:       foodPoints(s.FoodStores),
		DimensionHealth:     healthPoints(len(s.DiseasesFound), len(s.PestsFound)),
	}

	result := ScoreAnalysis{
		ScoreBreakdown:   make(map[Dimension]DimensionScore, len(dimensionOrder)),
		Strengths:        []Dimension{},
		ImprovementAreas: []ImprovementArea{},
		ConfidenceLevel:  confidenceLevel(s),
	}

	for _, dim := range dimensionOrder {
		score, maxScore := points[dim], maxPoints(dim)
		pct := percentage(score, maxScore)
		result.ScoreBreakdown[dim] = DimensionScore{Score: score, MaxScore: maxScore, Percentage: pct}
		result.WeightedScore += score

		switch {
		case pct >= strengthThreshold:
			result.Strengths = append(result.Strengths, dim)
		case pct < improvementThreshold:
			priority := types.RiskMedium
			if pct < highPriorityBelow {
				priority = types.RiskHigh
			}
			result.ImprovementAreas = append(result.ImprovementAreas, ImprovementArea{
				Dimension:            dim,
				Score:                score,
				MaxScore:             maxScore,
				Percentage:           pct,
				ImprovementPotential: maxScore - score,
				Priority:             priority,
			})
		}
	}

	result.Grade = GradeFor(result.WeightedScore)
	result.ColorCode, result.PerformanceLevel = gradeBand(result.Grade)
	return result
}

// GradeFor maps a composite score onto the letter scale.
// Each threshold is an inclusive lower bound.
func GradeFor(score int) types.Grade {
	switch {
	case score >= 90:
		return types.GradeAPlus
	case score >= 85:
		return types.GradeA
	case score >= 80:
		return types.GradeBPlus
	case score >= 75:
		return types.GradeB
	case score >= 70:
		return types.GradeCPlus
	case score >= 65:
		return types.GradeC
	case score >= 60:
		return types.GradeDPlus
	case score >= 55:
		return types.GradeD
	default:
		return types.GradeF
	}
}

func gradeBand(g types.Grade) (color, level string) {
	switch g {
	case types.GradeAPlus, types.GradeA:
		return "#2e7d32", "excellent"
	case types.GradeBPlus, types.GradeB:
		return "#558b2f", "good"
	case types.GradeCPlus, types.GradeC:
		return "#f9a825", "fair"
	case types.GradeDPlus, types.GradeD:
		return "#ef6c00", "poor"
	default:
		return "#c62828", "critical"
	}
}

func queenPoints(present types.QueenPresence, laying types.QueenLaying) int {
	switch present {
	case types.QueenPresent:
		switch laying {
		case types.LayingYes:
			return 25
		case types.LayingPoor:
			return 20
		default:
			return 15
		}
	case types.QueenNotSeen:
		return 8
	default:
		return 0
	}
}

func broodPoints(b types.BroodPattern) int {
	switch b {
	case types.BroodExcellent:
		return 25
	case types.BroodGood:
		return 20
	case types.BroodFair:
		return 15
	case types.BroodPoor:
		return 8
	default:
		return 0
	}
}

func populationPoints(p types.PopulationStrength) int {
	switch p {
	case types.PopulationVeryStrong:
		return 20
	case types.PopulationStrong:
		return 16
	case types.PopulationModerate:
		return 12
	case types.PopulationWeak:
		return 6
	case types.PopulationVeryWeak:
		return 2
	default:
		return 0
	}
}

func foodPoints(f types.FoodStores) int {
	switch f {
	case types.FoodAbundant:
		return 15
	case types.FoodAdequate:
		return 12
	case types.FoodLow:
		return 6
	case types.FoodCritical:
		return 2
	default:
		return 0
	}
}

func healthPoints(diseases, pests int) int {
	score := maxHealthPoints - min(3*diseases, 10) - min(2*pests, 5)
	return max(score, 0)
}

func maxPoints(d Dimension) int {
	switch d {
	case DimensionQueen:
		return maxQueenPoints
	case DimensionBrood:
		return maxBroodPoints
	case DimensionPopulation:
		return maxPopulationPoints
	case DimensionFood:
		return maxFoodPoints
	default:
		return maxHealthPoints
	}
}

// requiredFields returns the five required snapshot values as strings, in a fixed order.
func requiredFields(s types.Snapshot) []string {
	return []string{
		string(s.QueenPresent),
		string(s.QueenLaying),
		string(s.BroodPattern),
		string(s.PopulationStrength),
		string(s.FoodStores),
	}
}

// confidenceLevel starts at 100 and subtracts 15 for every missing or
// "unknown" field and a further 10 for every "not_seen" or "unknown" field.
// An "unknown" value therefore costs 25 while "not_seen" costs 10.
func confidenceLevel(s types.Snapshot) int {
	confidence := 100
	for _, v := range requiredFields(s) {
		if v == "" || v == "unknown" {
			confidence -= missingFieldPenalty
		}
		if v == "not_seen" || v == "unknown" {
			confidence -= uncertainFieldPenalty
		}
	}
	return max(confidence, minConfidenceLevel)
}

func percentage(score, maxScore int) float64 {
	if maxScore == 0 {
		return 0
	}
	return round2(float64(score) / float64(maxScore) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
