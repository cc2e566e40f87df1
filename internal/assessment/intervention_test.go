package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hivewatch/internal/types"
)

func interventionTypes(plan InterventionPlan) []string {
	out := make([]string, len(plan.Interventions))
	for i, iv := range plan.Interventions {
		out[i] = iv.Type
	}
	return out
}

func TestOptimizeInterventions_OrderedByPriority(t *testing.T) {
	s := types.Snapshot{
		QueenPresent:       types.QueenAbsent,
		QueenLaying:        types.LayingNo,
		BroodPattern:       types.BroodNone,
		PopulationStrength: types.PopulationModerate,
		FoodStores:         types.FoodCritical,
		DiseasesFound:      []string{"nosema"},
	}
	swarm := SwarmingPrediction{ProbabilityPercentage: 10}

	plan := OptimizeInterventions(s, types.HiveContext{FrameCount: 10}, swarm, winterDay)

	assert.Equal(t, []string{InterventionFeeding, InterventionQueen, InterventionTreatment}, interventionTypes(plan))
	assert.Equal(t, []int{1, 1, 2}, []int{plan.Interventions[0].Priority, plan.Interventions[1].Priority, plan.Interventions[2].Priority})
	assert.Equal(t, 2.5, plan.TotalLaborHours)
	assert.Equal(t, []string{
		"sugar syrup (2:1)", "feeder", "mated queen", "queen cage", "approved treatment", "protective gloves",
	}, plan.Materials)
}

func TestOptimizeInterventions_HealthyWinterColonyNeedsNothing(t *testing.T) {
	plan := OptimizeInterventions(perfectSnapshot(), types.HiveContext{FrameCount: 20}, SwarmingPrediction{}, winterDay)

	assert.Empty(t, plan.Interventions)
	assert.Empty(t, plan.Materials)
	assert.Zero(t, plan.TotalLaborHours)
}

func TestOptimizeInterventions_SeasonalModels(t *testing.T) {
	s := perfectSnapshot()
	s.FoodStores = types.FoodAdequate

	autumn := OptimizeInterventions(s, types.HiveContext{FrameCount: 20}, SwarmingPrediction{}, autumnDay)
	assert.Equal(t, []string{InterventionFeeding}, interventionTypes(autumn))
	assert.Equal(t, []string{"fondant"}, autumn.Materials)

	summer := OptimizeInterventions(s, types.HiveContext{FrameCount: 20}, SwarmingPrediction{}, summerDay)
	require.Equal(t, []string{InterventionTreatment}, interventionTypes(summer))
	assert.Equal(t, 5, summer.Interventions[0].Priority)
}

func TestSpaceIntervention(t *testing.T) {
	tests := []struct {
		name        string
		pop         types.PopulationStrength
		frames      int
		probability int
		wantRec     bool
		wantPrio    int
	}{
		{"imminent swarm", types.PopulationModerate, 20, 75, true, 1},
		{"likely swarm", types.PopulationModerate, 20, 55, true, 2},
		{"crowded strong colony", types.PopulationStrong, 10, 10, true, 2},
		{"crowded weak colony", types.PopulationWeak, 4, 10, false, 0},
		{"unknown capacity", types.PopulationVeryStrong, 0, 10, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := types.Snapshot{PopulationStrength: tt.pop}
			iv := spaceIntervention(s, types.HiveContext{FrameCount: tt.frames}, SwarmingPrediction{ProbabilityPercentage: tt.probability}, SeasonSpring)
			assert.Equal(t, tt.wantRec, iv.Recommended)
			assert.Equal(t, tt.wantPrio, iv.Priority)
		})
	}
}

func TestQueenIntervention(t *testing.T) {
	old := queenIntervention(perfectSnapshot(), types.HiveContext{QueenAgeMonths: 30}, SwarmingPrediction{}, SeasonSpring)
	assert.True(t, old.Recommended)
	assert.Equal(t, 3, old.Priority)

	s := perfectSnapshot()
	s.QueenPresent = types.QueenNotSeen
	check := queenIntervention(s, types.HiveContext{}, SwarmingPrediction{}, SeasonSpring)
	assert.Equal(t, "next inspection", check.Window)
	assert.Empty(t, check.Materials)
}
