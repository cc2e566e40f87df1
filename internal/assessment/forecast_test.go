package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hivewatch/internal/types"
)

func TestSwarmRiskLevel_Boundaries(t *testing.T) {
	tests := []struct {
		probability int
		want        types.RiskLevel
	}{
		{100, types.RiskCritical},
		{70, types.RiskCritical},
		{69, types.RiskHigh},
		{50, types.RiskHigh},
		{49, types.RiskMedium},
		{30, types.RiskMedium},
		{29, types.RiskLow},
		{0, types.RiskLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, swarmRiskLevel(tt.probability), "probability %d", tt.probability)
	}
}

func TestPredictSwarming_CrowdedColonyInMay(t *testing.T) {
	may := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)
	s := perfectSnapshot()
	s.BroodPattern = types.BroodGood
	hc := types.HiveContext{FrameCount: 10, QueenAgeMonths: 30}

	p := PredictSwarming(s, hc, nil, may)

	assert.Equal(t, SwarmingFactors{Population: 25, Space: 20, Queen: 10, Seasonal: 15}, p.Factors)
	assert.Equal(t, 70, p.ProbabilityPercentage)
	assert.Equal(t, types.RiskCritical, p.RiskLevel)
	assert.Equal(t, "every 3-4 days", p.MonitoringCadence)
	assert.NotEmpty(t, p.PreventionMeasures)

	hc.QueenAgeMonths = 13
	p = PredictSwarming(s, hc, nil, may)
	assert.Equal(t, 66, p.ProbabilityPercentage)
	assert.Equal(t, types.RiskHigh, p.RiskLevel)
	assert.Equal(t, "within 2-4 weeks", p.EstimatedTimeframe)
}

func TestPredictSwarming_ComboAndHistory(t *testing.T) {
	h := series(80, 80, 80, 80)
	for i := range h {
		h[i].SwarmingObserved = true
	}
	p := PredictSwarming(perfectSnapshot(), types.HiveContext{}, h, winterDay)

	assert.Equal(t, swarmComboBonus, p.Factors.Combo)
	assert.Equal(t, swarmHistoryCap, p.Factors.History)
	assert.Equal(t, swarmUnknownSpaceScore, p.Factors.Space)
	assert.Equal(t, p.Factors.Sum(), p.ProbabilityPercentage)
}

func TestPredictSwarming_QueenFactor(t *testing.T) {
	tests := []struct {
		name    string
		present types.QueenPresence
		laying  types.QueenLaying
		age     int
		want    int
	}{
		{"young laying queen", types.QueenPresent, types.LayingYes, 6, 2},
		{"second season", types.QueenPresent, types.LayingYes, 18, 6},
		{"old queen", types.QueenPresent, types.LayingYes, 30, 10},
		{"old failing queen", types.QueenPresent, types.LayingPoor, 30, 15},
		{"queenless", types.QueenAbsent, types.LayingNo, 30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := types.Snapshot{QueenPresent: tt.present, QueenLaying: tt.laying}
			assert.Equal(t, tt.want, swarmQueenFactor(s, tt.age))
		})
	}
}

func TestPredictSwarming_ProbabilityBoundedForAllSnapshots(t *testing.T) {
	h := series(70, 70, 70)
	for i := range h {
		h[i].SwarmingObserved = true
	}
	forEachSnapshot(func(s types.Snapshot) {
		for _, frames := range []int{0, 5, 10} {
			p := PredictSwarming(s, types.HiveContext{FrameCount: frames, QueenAgeMonths: 40}, h, springDay)
			require.GreaterOrEqual(t, p.ProbabilityPercentage, 0)
			require.LessOrEqual(t, p.ProbabilityPercentage, 100)
		}
	})
}

func TestForecastProduction(t *testing.T) {
	march := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	s := types.Snapshot{
		QueenPresent:       types.QueenPresent,
		QueenLaying:        types.LayingUnknown,
		PopulationStrength: types.PopulationModerate,
		DiseasesFound:      []string{"chalkbrood"},
	}
	f := ForecastProduction(s, types.HiveContext{HiveType: types.HiveDadant}, march)

	assert.Equal(t, 30.0, f.BaseProductionKg)
	assert.Equal(t, ProductionMultipliers{Population: 1, Queen: 1, Health: 0.9}, f.Multipliers)
	assert.InDelta(t, 27.0, f.AnnualProjectionKg, 0.001)
	assert.InDelta(t, 27.0, f.CurrentSeasonKg, 0.001)
	assert.Equal(t, 20, f.ConfidenceInterval.WidthPercent)
	assert.InDelta(t, 21.6, f.ConfidenceInterval.LowKg, 0.001)
	assert.InDelta(t, 32.4, f.ConfidenceInterval.HighKg, 0.001)
	assert.Equal(t, time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC), f.NextHarvest.Date)
	assert.InDelta(t, 16.2, f.NextHarvest.EstimatedKg, 0.001)
}

func TestForecastProduction_HealthMultiplierFloor(t *testing.T) {
	s := perfectSnapshot()
	s.DiseasesFound = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	f := ForecastProduction(s, types.HiveContext{HiveType: types.HiveLangstroth}, springDay)
	assert.Equal(t, 0.5, f.Multipliers.Health)
}

func TestForecastProduction_UnknownInputsWidenInterval(t *testing.T) {
	f := ForecastProduction(types.Snapshot{}, types.HiveContext{}, springDay)
	assert.Equal(t, 50, f.ConfidenceInterval.WidthPercent)
	assert.Equal(t, 20.0, f.BaseProductionKg)
}

func TestNextHarvest(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		southern  bool
		wantDate  time.Time
		wantShare float64
	}{
		{"between harvests", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), false, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), 0.4},
		{"after the last harvest", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), false, time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC), 0.6},
		{"southern late summer", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), true, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), 0.4},
		{"southern winter", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, share := nextHarvest(tt.now, tt.southern)
			assert.Equal(t, tt.wantDate, date)
			assert.Equal(t, tt.wantShare, share)
		})
	}
}
