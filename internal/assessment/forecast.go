package assessment

import (
	"time"

	"hivewatch/internal/types"
)

// seasonalSwarmRate is the base swarming contribution by northern-hemisphere month, January first.
var seasonalSwarmRate = [12]int{0, 2, 8, 15, 15, 12, 6, 3, 2, 0, 0, 0}

const (
	swarmComboBonus        = 10
	swarmHistoryPerEvent   = 5
	swarmHistoryCap        = 15
	swarmQueenFactorCap    = 15
	swarmUnknownSpaceScore = 10
)

// SwarmingFactors is the additive breakdown of the swarming score.
type SwarmingFactors struct {
	Population int `json:"population"`
	Space      int `json:"space"`
	Queen      int `json:"queen"`
	Seasonal   int `json:"seasonal"`
	Combo      int `json:"combo"`
	History    int `json:"history"`
}

// Sum returns the total of every factor.
func (f SwarmingFactors) Sum() int {
	return f.Population + f.Space + f.Queen + f.Seasonal + f.Combo + f.History
}

// SwarmingPrediction estimates how likely the colony is to swarm.
type SwarmingPrediction struct {
	ProbabilityPercentage int             `json:"probability_percentage"`
	RiskLevel             types.RiskLevel `json:"risk_level"`
	EstimatedTimeframe    string          `json:"estimated_timeframe"`
	Factors               SwarmingFactors `json:"factors"`
	PreventionMeasures    []string        `json:"prevention_measures"`
	MonitoringCadence     string          `json:"monitoring_cadence"`
}

// PredictSwarming scores the six swarming factors.
func PredictSwarming(s types.Snapshot, hc types.HiveContext, history types.HistorySeries, now time.Time) SwarmingPrediction {
	month := localMonth(now, hc.SouthernHemisphere)

	f := SwarmingFactors{
		Population: swarmPopulationFactor(s.PopulationStrength),
		Space:      swarmSpaceFactor(s.PopulationStrength, hc.FrameCount),
		Queen:      swarmQueenFactor(s, hc.QueenAgeMonths),
		Seasonal:   seasonalSwarmRate[month-1],
		History:    swarmHistoryFactor(history),
	}
	if s.BroodPattern == types.BroodExcellent && s.PopulationStrength == types.PopulationVeryStrong {
		f.Combo = swarmComboBonus
	}

	probability := min(100, f.Sum())
	level := swarmRiskLevel(probability)
	return SwarmingPrediction{
		ProbabilityPercentage: probability,
		RiskLevel:             level,
		EstimatedTimeframe:    swarmTimeframe(probability),
		Factors:               f,
		PreventionMeasures:    swarmPrevention(level),
		MonitoringCadence:     swarmMonitoring(level),
	}
}

func swarmPopulationFactor(p types.PopulationStrength) int {
	switch p {
	case types.PopulationVeryStrong:
		return 25
	case types.PopulationStrong:
		return 20
	case types.PopulationModerate:
		return 10
	case types.PopulationWeak:
		return 3
	default:
		return 0
	}
}

// framesNeeded is the number of occupied frames a colony of the given strength fills.
func framesNeeded(p types.PopulationStrength) int {
	switch p {
	case types.PopulationVeryStrong:
		return 10
	case types.PopulationStrong:
		return 8
	case types.PopulationModerate:
		return 6
	case types.PopulationWeak:
		return 4
	case types.PopulationVeryWeak:
		return 2
	default:
		return 0
	}
}

// spaceRatio is how full the hive is. Zero capacity means unknown and returns ok=false.
func spaceRatio(p types.PopulationStrength, frameCount int) (float64, bool) {
	if frameCount <= 0 {
		return 0, false
	}
	return float64(framesNeeded(p)) / float64(frameCount), true
}

func swarmSpaceFactor(p types.PopulationStrength, frameCount int) int {
	ratio, ok := spaceRatio(p, frameCount)
	if !ok {
		return swarmUnknownSpaceScore
	}
	switch {
	case ratio >= 1.0:
		return 20
	case ratio >= 0.8:
		return 15
	case ratio >= 0.6:
		return 8
	default:
		return 0
	}
}

func swarmQueenFactor(s types.Snapshot, queenAgeMonths int) int {
	if s.QueenPresent == types.QueenAbsent {
		return 0
	}
	score := 2
	switch {
	case queenAgeMonths > 24:
		score = 10
	case queenAgeMonths > 12:
		score = 6
	}
	if s.QueenLaying == types.LayingPoor || s.QueenLaying == types.LayingNo {
		score += 5
	}
	return min(score, swarmQueenFactorCap)
}

func swarmHistoryFactor(history types.HistorySeries) int {
	events := 0
	for _, p := range history {
		if p.SwarmingObserved {
			events++
		}
	}
	return min(events*swarmHistoryPerEvent, swarmHistoryCap)
}

func swarmRiskLevel(probability int) types.RiskLevel {
	switch {
	case probability >= 70:
		return types.RiskCritical
	case probability >= 50:
		return types.RiskHigh
	case probability >= 30:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

func swarmTimeframe(probability int) string {
	switch {
	case probability >= 70:
		return "within 1-2 weeks"
	case probability >= 50:
		return "within 2-4 weeks"
	case probability >= 30:
		return "within 1-2 months"
	default:
		return "unlikely this season"
	}
}

func swarmPrevention(level types.RiskLevel) []string {
	switch level {
	case types.RiskCritical:
		return []string{
			"Perform an artificial swarm or split the colony now",
			"Remove or use capped queen cells",
			"Add a super with drawn comb",
		}
	case types.RiskHigh:
		return []string{
			"Add space ahead of the colony's needs",
			"Check every brood frame for queen cells",
			"Prepare equipment for a split",
		}
	case types.RiskMedium:
		return []string{
			"Add a super before the next nectar flow",
			"Watch for queen cups being charged with eggs",
		}
	default:
		return []string{"Continue routine inspections"}
	}
}

func swarmMonitoring(level types.RiskLevel) string {
	switch level {
	case types.RiskCritical:
		return "every 3-4 days"
	case types.RiskHigh:
		return "weekly"
	case types.RiskMedium:
		return "every 10 days"
	default:
		return "every 2 weeks"
	}
}

// baseProductionKg is the expected yearly honey yield of a healthy colony by hive type.
func baseProductionKg(t types.HiveType) (float64, bool) {
	switch t {
	case types.HiveLangstroth:
		return 25, true
	case types.HiveDadant:
		return 30, true
	case types.HiveNational:
		return 20, true
	case types.HiveWarre:
		return 12, true
	case types.HiveTopBar:
		return 15, true
	case types.HiveLayens:
		return 18, true
	case types.HiveFlow:
		return 22, true
	default:
		return 20, false
	}
}

// remainingSeasonShare is the fraction of the annual crop still to come, by northern month.
var remainingSeasonShare = [12]float64{1, 1, 1, 0.95, 0.85, 0.65, 0.4, 0.2, 0.1, 0, 0, 0}

// harvests are the northern-hemisphere harvest dates (month, day) and their share of the annual crop.
var harvests = []struct {
	month time.Month
	day   int
	share float64
}{
	{time.July, 15, 0.6},
	{time.September, 15, 0.4},
}

// ProductionMultipliers records each adjustment applied to the base yield.
type ProductionMultipliers struct {
	Population float64 `json:"population"`
	Queen      float64 `json:"queen"`
	Health     float64 `json:"health"`
}

// NextHarvest is the upcoming harvest and its expected yield.
type NextHarvest struct {
	Date        time.Time `json:"date"`
	EstimatedKg float64   `json:"estimated_kg"`
}

// ConfidenceInterval brackets the annual projection.
type ConfidenceInterval struct {
	LowKg        float64 `json:"low_kg"`
	HighKg       float64 `json:"high_kg"`
	WidthPercent int     `json:"width_percent"`
}

// ProductionForecast projects honey yield in kilograms.
type ProductionForecast struct {
	BaseProductionKg   float64               `json:"base_production_kg"`
	Multipliers        ProductionMultipliers `json:"multipliers"`
	AnnualProjectionKg float64               `json:"annual_projection_kg"`
	CurrentSeasonKg    float64               `json:"current_season_kg"`
	NextHarvest        NextHarvest           `json:"next_harvest"`
	ConfidenceInterval ConfidenceInterval    `json:"confidence_interval"`
}

// ForecastProduction projects honey yield from the hive type and colony condition.
func ForecastProduction(s types.Snapshot, hc types.HiveContext, now time.Time) ProductionForecast {
	base, hiveKnown := baseProductionKg(hc.HiveType)
	popMult, popKnown := populationMultiplier(s.PopulationStrength)
	queenMult, queenKnown := queenMultiplier(s.QueenLaying)
	healthMult := max(0.5, 1-0.1*float64(len(s.DiseasesFound))-0.05*float64(len(s.PestsFound)))
	healthKnown := s.DiseasesFound != nil || s.PestsFound != nil

	annual := base * popMult * queenMult * healthMult
	month := localMonth(now, hc.SouthernHemisphere)

	unknown := 0
	for _, known := range []bool{hiveKnown, popKnown, queenKnown, healthKnown} {
		if !known {
			unknown++
		}
	}
	width := 10 + 10*unknown

	harvestDate, harvestShare := nextHarvest(now, hc.SouthernHemisphere)

	return ProductionForecast{
		BaseProductionKg: base,
		Multipliers: ProductionMultipliers{
			Population: popMult,
			Queen:      queenMult,
			Health:     round2(healthMult),
		},
		AnnualProjectionKg: round1(annual),
		CurrentSeasonKg:    round1(annual * remainingSeasonShare[month-1]),
		NextHarvest: NextHarvest{
			Date:        harvestDate,
			EstimatedKg: round1(annual * harvestShare),
		},
		ConfidenceInterval: ConfidenceInterval{
			LowKg:        round1(annual * (1 - float64(width)/100)),
			HighKg:       round1(annual * (1 + float64(width)/100)),
			WidthPercent: width,
		},
	}
}

func populationMultiplier(p types.PopulationStrength) (float64, bool) {
	switch p {
	case types.PopulationVeryStrong:
		return 1.3, true
	case types.PopulationStrong:
		return 1.1, true
	case types.PopulationModerate:
		return 1.0, true
	case types.PopulationWeak:
		return 0.7, true
	case types.PopulationVeryWeak:
		return 0.4, true
	default:
		return 1.0, false
	}
}

func queenMultiplier(l types.QueenLaying) (float64, bool) {
	switch l {
	case types.LayingYes:
		return 1.1, true
	case types.LayingPoor:
		return 0.8, true
	case types.LayingNo:
		return 0.3, true
	default:
		return 1.0, false
	}
}

// nextHarvest returns the first harvest date strictly after now. Southern
// hemisphere dates are shifted six months.
func nextHarvest(now time.Time, southern bool) (time.Time, float64) {
	shift := time.Month(0)
	if southern {
		shift = 6
	}
	var best time.Time
	var share float64
	for year := now.Year() - 1; year <= now.Year()+1; year++ {
		for _, h := range harvests {
			d := time.Date(year, h.month+shift, h.day, 0, 0, 0, 0, time.UTC)
			if d.After(now) && (best.IsZero() || d.Before(best)) {
				best, share = d, h.share
			}
		}
	}
	return best, share
}
