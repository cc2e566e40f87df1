package assessment

import (
	"sort"
	"time"

	"hivewatch/internal/types"
)

// Intervention types.
const (
	InterventionFeeding   = "feeding"
	InterventionTreatment = "treatment"
	InterventionSpace     = "space"
	InterventionQueen     = "queen"
)

// Intervention is the output of one timing sub-model. Lower Priority is more urgent.
type Intervention struct {
	Type        string   `json:"type"`
	Recommended bool     `json:"recommended"`
	Priority    int      `json:"priority"`
	Window      string   `json:"window"`
	Reason      string   `json:"reason,omitempty"`
	LaborHours  float64  `json:"labor_hours"`
	Materials   []string `json:"materials"`
}

// InterventionPlan aggregates the recommended interventions in priority order.
type InterventionPlan struct {
	Interventions   []Intervention `json:"interventions"`
	TotalLaborHours float64        `json:"total_labor_hours"`
	Materials       []string       `json:"materials"`
}

type interventionModel func(s types.Snapshot, hc types.HiveContext, swarm SwarmingPrediction, season Season) Intervention

var interventionModels = []interventionModel{
	feedingIntervention,
	treatmentIntervention,
	spaceIntervention,
	queenIntervention,
}

// OptimizeInterventions evaluates the four sub-models and keeps the recommended ones.
// Ties in priority keep sub-model order.
func OptimizeInterventions(s types.Snapshot, hc types.HiveContext, swarm SwarmingPrediction, now time.Time) InterventionPlan {
	season := seasonOf(localMonth(now, hc.SouthernHemisphere))

	plan := InterventionPlan{Interventions: []Intervention{}, Materials: []string{}}
	for _, model := range interventionModels {
		if iv := model(s, hc, swarm, season); iv.Recommended {
			plan.Interventions = append(plan.Interventions, iv)
		}
	}
	sort.SliceStable(plan.Interventions, func(i, j int) bool {
		return plan.Interventions[i].Priority < plan.Interventions[j].Priority
	})

	seen := make(map[string]bool)
	for _, iv := range plan.Interventions {
		plan.TotalLaborHours += iv.LaborHours
		for _, m := range iv.Materials {
			if !seen[m] {
				seen[m] = true
				plan.Materials = append(plan.Materials, m)
			}
		}
	}
	plan.TotalLaborHours = round2(plan.TotalLaborHours)
	return plan
}

func feedingIntervention(s types.Snapshot, _ types.HiveContext, _ SwarmingPrediction, season Season) Intervention {
	iv := Intervention{Type: InterventionFeeding, Materials: []string{}}
	switch {
	case s.FoodStores == types.FoodCritical || s.FoodStores == types.FoodNone:
		iv.Recommended, iv.Priority, iv.Window = true, 1, "immediately"
		iv.Reason = "stores are exhausted"
		iv.LaborHours = 0.5
		iv.Materials = []string{"sugar syrup (2:1)", "feeder"}
	case s.FoodStores == types.FoodLow:
		iv.Recommended, iv.Priority, iv.Window = true, 2, "within 1 week"
		iv.Reason = "stores are low"
		iv.LaborHours = 0.5
		iv.Materials = []string{"sugar syrup (1:1)", "feeder"}
	case s.FoodStores == types.FoodAdequate && season == SeasonAutumn:
		iv.Recommended, iv.Priority, iv.Window = true, 4, "before the first frost"
		iv.Reason = "top up stores for winter"
		iv.LaborHours = 0.25
		iv.Materials = []string{"fondant"}
	}
	return iv
}

func treatmentIntervention(s types.Snapshot, _ types.HiveContext, _ SwarmingPrediction, season Season) Intervention {
	iv := Intervention{Type: InterventionTreatment, Materials: []string{}}
	count := len(s.DiseasesFound) + len(s.PestsFound)
	switch {
	case count > 2:
		iv.Recommended, iv.Priority, iv.Window = true, 1, "within 3 days"
		iv.Reason = "multiple diseases or pests found"
		iv.LaborHours = 1.5
		iv.Materials = []string{"approved treatment", "protective gloves"}
	case count > 0:
		iv.Recommended, iv.Priority, iv.Window = true, 2, "within 1 week"
		iv.Reason = "disease or pest found"
		iv.LaborHours = 1
		iv.Materials = []string{"approved treatment", "protective gloves"}
	case season == SeasonSummer:
		iv.Recommended, iv.Priority, iv.Window = true, 5, "late summer"
		iv.Reason = "routine mite count before winter bees are raised"
		iv.LaborHours = 0.5
		iv.Materials = []string{"sugar roll kit"}
	}
	return iv
}

func spaceIntervention(s types.Snapshot, hc types.HiveContext, swarm SwarmingPrediction, _ Season) Intervention {
	iv := Intervention{Type: InterventionSpace, Materials: []string{}}
	ratio, known := spaceRatio(s.PopulationStrength, hc.FrameCount)
	crowded := known && ratio >= 0.8 &&
		(s.PopulationStrength == types.PopulationStrong || s.PopulationStrength == types.PopulationVeryStrong)

	switch {
	case swarm.ProbabilityPercentage >= 70:
		iv.Recommended, iv.Priority, iv.Window = true, 1, "within 3 days"
		iv.Reason = "swarming is imminent"
	case swarm.ProbabilityPercentage >= 50 || crowded:
		iv.Recommended, iv.Priority, iv.Window = true, 2, "within 1 week"
		iv.Reason = "colony is running out of space"
	default:
		return iv
	}
	iv.LaborHours = 0.75
	iv.Materials = []string{"super with drawn comb", "queen excluder"}
	return iv
}

func queenIntervention(s types.Snapshot, hc types.HiveContext, _ SwarmingPrediction, _ Season) Intervention {
	iv := Intervention{Type: InterventionQueen, Materials: []string{}}
	switch {
	case s.QueenPresent == types.QueenAbsent:
		iv.Recommended, iv.Priority, iv.Window = true, 1, "immediately"
		iv.Reason = "colony is queenless"
		iv.LaborHours = 1
		iv.Materials = []string{"mated queen", "queen cage"}
	case s.QueenLaying == types.LayingNo:
		iv.Recommended, iv.Priority, iv.Window = true, 2, "within 1 week"
		iv.Reason = "queen is not laying"
		iv.LaborHours = 1
		iv.Materials = []string{"mated queen", "queen cage"}
	case s.QueenLaying == types.LayingPoor || hc.QueenAgeMonths > 24:
		iv.Recommended, iv.Priority, iv.Window = true, 3, "within 2 weeks"
		iv.Reason = "queen is failing or ageing"
		iv.LaborHours = 1
		iv.Materials = []string{"mated queen", "queen cage"}
	case s.QueenPresent == types.QueenNotSeen:
		iv.Recommended, iv.Priority, iv.Window = true, 3, "next inspection"
		iv.Reason = "confirm eggs and young larvae are present"
		iv.LaborHours = 0.25
	}
	return iv
}
