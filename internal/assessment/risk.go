package assessment

import (
	"fmt"
	"strings"
	"time"

	"hivewatch/internal/types"
)

// Risk type identifiers.
const (
	RiskQueenLoss         = "queen_loss"
	RiskQueenFailure      = "queen_failure"
	RiskPopulationDecline = "population_decline"
	RiskStarvation        = "starvation"
	RiskFoodShortage      = "food_shortage"
	RiskHealthIssues      = "health_issues"
	RiskSwarmSeason       = "swarm_season"
	RiskPestPressure      = "pest_pressure"
	RiskWinterPreparation = "winter_preparation"
	RiskWinterSurvival    = "winter_survival"
)

// RiskMatrix buckets risk types by level and timeframe.
type RiskMatrix map[types.RiskLevel]map[types.Timeframe][]string

// MonitoringCadence is how often to re-check while risks in a timeframe are open.
type MonitoringCadence struct {
	Frequency string   `json:"frequency"`
	Duration  string   `json:"duration"`
	RiskTypes []string `json:"risk_types"`
}

// RiskAnalysis is the outcome of evaluating every risk rule against a snapshot.
type RiskAnalysis struct {
	OverallRiskLevel   types.RiskLevel                       `json:"overall_risk_level"`
	RiskScore          int                                   `json:"risk_score"`
	IdentifiedRisks    []types.Risk                          `json:"identified_risks"`
	RiskMatrix         RiskMatrix                            `json:"risk_matrix"`
	MonitoringSchedule map[types.Timeframe]MonitoringCadence `json:"monitoring_schedule"`
}

// riskRule inspects the inputs and may produce a risk. The returned level is
// merged into the overall level with MaxRiskLevel; an empty level leaves it unchanged.
type riskRule func(s types.Snapshot, hc types.HiveContext, month time.Month) (*types.Risk, types.RiskLevel)

// riskRules run in this order. Later rules can only raise the overall level.
var riskRules = []riskRule{
	queenRule,
	populationRule,
	foodRule,
	healthRule,
	seasonalRule,
}

// AnalyzeRisks evaluates the risk rules for a snapshot as of now.
func AnalyzeRisks(s types.Snapshot, hc types.HiveContext, now time.Time) RiskAnalysis {
	month := localMonth(now, hc.SouthernHemisphere)

	analysis := RiskAnalysis{
		OverallRiskLevel: types.RiskLow,
		IdentifiedRisks:  []types.Risk{},
	}
	for _, rule := range riskRules {
		risk, escalate := rule(s, hc, month)
		if risk != nil {
			analysis.IdentifiedRisks = append(analysis.IdentifiedRisks, *risk)
			analysis.RiskScore += riskWeight(risk.Level)
		}
		if escalate != "" {
			analysis.OverallRiskLevel = types.MaxRiskLevel(analysis.OverallRiskLevel, escalate)
		}
	}

	analysis.RiskMatrix = buildRiskMatrix(analysis.IdentifiedRisks)
	analysis.MonitoringSchedule = buildMonitoringSchedule(analysis.IdentifiedRisks)
	return analysis
}

func riskWeight(l types.RiskLevel) int {
	switch l {
	case types.RiskCritical:
		return 10
	case types.RiskHigh:
		return 7
	case types.RiskMedium:
		return 4
	default:
		return 1
	}
}

func queenRule(s types.Snapshot, _ types.HiveContext, _ time.Month) (*types.Risk, types.RiskLevel) {
	if s.QueenPresent == types.QueenAbsent {
		return &types.Risk{
			Type:        RiskQueenLoss,
			Level:       types.RiskCritical,
			Probability: 90,
			Impact:      "colony cannot raise new workers and will dwindle within weeks",
			Description: "No queen was found in the colony.",
			Timeframe:   types.TimeframeImmediate,
			Mitigation: []string{
				"Confirm queenlessness by checking for eggs and young larvae",
				"Introduce a mated queen or a frame of eggs from a strong colony",
				"Combine with a queenright colony if it is late in the season",
			},
		}, types.RiskCritical
	}
	if s.QueenLaying == types.LayingNo || s.QueenLaying == types.LayingPoor {
		return &types.Risk{
			Type:        RiskQueenFailure,
			Level:       types.RiskHigh,
			Probability: 70,
			Impact:      "brood production falls and the population will not be replaced",
			Description: fmt.Sprintf("Queen laying performance is %s.", s.QueenLaying),
			Timeframe:   types.TimeframeShortTerm,
			Mitigation: []string{
				"Check for supersedure or emergency queen cells",
				"Plan to requeen with a mated queen",
			},
		}, types.RiskHigh
	}
	return nil, ""
}

func populationRule(s types.Snapshot, _ types.HiveContext, _ time.Month) (*types.Risk, types.RiskLevel) {
	if s.PopulationStrength != types.PopulationWeak && s.PopulationStrength != types.PopulationVeryWeak {
		return nil, ""
	}
	return &types.Risk{
		Type:        RiskPopulationDecline,
		Level:       types.RiskHigh,
		Probability: 65,
		Impact:      "a small cluster cannot defend the hive or regulate brood temperature",
		Description: fmt.Sprintf("Colony population is %s.", strings.ReplaceAll(string(s.PopulationStrength), "_", " ")),
		Timeframe:   types.TimeframeShortTerm,
		Mitigation: []string{
			"Reduce the entrance to limit robbing",
			"Add a frame of capped brood from a strong colony",
			"Consider combining with another colony",
		},
	}, types.RiskMedium
}

func foodRule(s types.Snapshot, _ types.HiveContext, _ time.Month) (*types.Risk, types.RiskLevel) {
	switch s.FoodStores {
	case types.FoodCritical, types.FoodNone:
		return &types.Risk{
			Type:        RiskStarvation,
			Level:       types.RiskCritical,
			Probability: 95,
			Impact:      "the colony can starve within days",
			Description: fmt.Sprintf("Food stores are %s.", s.FoodStores),
			Timeframe:   types.TimeframeImmediate,
			Mitigation: []string{
				"Feed 2:1 sugar syrup or fondant immediately",
				"Move a frame of honey from a strong colony next to the cluster",
			},
		}, types.RiskCritical
	case types.FoodLow:
		return &types.Risk{
			Type:        RiskFoodShortage,
			Level:       types.RiskMedium,
			Probability: 60,
			Impact:      "brood rearing slows and the colony may need emergency feeding",
			Description: "Food stores are low.",
			Timeframe:   types.TimeframeShortTerm,
			Mitigation: []string{
				"Begin supplemental feeding with 1:1 sugar syrup",
				"Re-check stores at the next inspection",
			},
		}, types.RiskMedium
	}
	return nil, ""
}

func healthRule(s types.Snapshot, _ types.HiveContext, _ time.Month) (*types.Risk, types.RiskLevel) {
	count := len(s.DiseasesFound) + len(s.PestsFound)
	if count == 0 {
		return nil, ""
	}
	level := types.RiskMedium
	if count > 2 {
		level = types.RiskHigh
	}
	found := append(append([]string{}, s.DiseasesFound...), s.PestsFound...)
	return &types.Risk{
		Type:        RiskHealthIssues,
		Level:       level,
		Probability: min(90, 40+10*count),
		Impact:      "disease and pest load weakens the colony and can spread to neighbouring hives",
		Description: "Found: " + strings.Join(found, ", ") + ".",
		Timeframe:   types.TimeframeShortTerm,
		Mitigation: []string{
			"Confirm the diagnosis and apply an approved treatment",
			"Isolate equipment from this hive until resolved",
		},
	}, types.RiskMedium
}

// seasonalRule never changes the overall level.
func seasonalRule(s types.Snapshot, _ types.HiveContext, month time.Month) (*types.Risk, types.RiskLevel) {
	switch seasonOf(month) {
	case SeasonSpring:
		level, prob := types.RiskLow, 25
		if s.PopulationStrength == types.PopulationStrong || s.PopulationStrength == types.PopulationVeryStrong {
			level, prob = types.RiskMedium, 40
		}
		return &types.Risk{
			Type:        RiskSwarmSeason,
			Level:       level,
			Probability: prob,
			Impact:      "a swarm takes roughly half the bees and the laying queen",
			Description: "Spring build-up is the main swarming period.",
			Timeframe:   types.TimeframeShortTerm,
			Mitigation:  []string{"Inspect for queen cells every 7 to 10 days", "Provide space ahead of the nectar flow"},
		}, ""
	case SeasonSummer:
		return &types.Risk{
			Type:        RiskPestPressure,
			Level:       types.RiskLow,
			Probability: 35,
			Impact:      "varroa populations peak in late summer",
			Description: "Summer brings peak mite and wasp pressure.",
			Timeframe:   types.TimeframeMediumTerm,
			Mitigation:  []string{"Run a mite count", "Fit entrance reducers against wasps"},
		}, ""
	case SeasonAutumn:
		level, prob := types.RiskMedium, 45
		if s.FoodStores == types.FoodAbundant || s.FoodStores == types.FoodAdequate {
			level, prob = types.RiskLow, 20
		}
		return &types.Risk{
			Type:        RiskWinterPreparation,
			Level:       level,
			Probability: prob,
			Impact:      "colonies entering winter light on stores or bees rarely survive",
			Description: "The colony needs to be prepared for winter.",
			Timeframe:   types.TimeframeMediumTerm,
			Mitigation:  []string{"Ensure sufficient winter stores", "Treat for varroa before the winter bees are raised"},
		}, ""
	default:
		return &types.Risk{
			Type:        RiskWinterSurvival,
			Level:       types.RiskLow,
			Probability: 20,
			Impact:      "cluster may become isolated from stores in cold spells",
			Description: "Winter cluster period.",
			Timeframe:   types.TimeframeLongTerm,
			Mitigation:  []string{"Heft the hive to check stores without opening it", "Keep the entrance clear"},
		}, ""
	}
}

// buildRiskMatrix returns a fully populated level x timeframe grid.
func buildRiskMatrix(risks []types.Risk) RiskMatrix {
	matrix := make(RiskMatrix, len(types.RiskLevels))
	for _, level := range types.RiskLevels {
		row := make(map[types.Timeframe][]string, len(types.Timeframes))
		for _, tf := range types.Timeframes {
			row[tf] = []string{}
		}
		matrix[level] = row
	}
	for _, r := range risks {
		matrix[r.Level][r.Timeframe] = append(matrix[r.Level][r.Timeframe], r.Type)
	}
	return matrix
}

func cadenceFor(tf types.Timeframe) (frequency, duration string) {
	switch tf {
	case types.TimeframeImmediate:
		return "daily", "1-3 days"
	case types.TimeframeShortTerm:
		return "every_3_days", "1-2 weeks"
	case types.TimeframeMediumTerm:
		return "weekly", "1 month"
	default:
		return "monthly", "3 months"
	}
}

func buildMonitoringSchedule(risks []types.Risk) map[types.Timeframe]MonitoringCadence {
	schedule := make(map[types.Timeframe]MonitoringCadence)
	for _, r := range risks {
		entry, ok := schedule[r.Timeframe]
		if !ok {
			entry.Frequency, entry.Duration = cadenceFor(r.Timeframe)
		}
		entry.RiskTypes = append(entry.RiskTypes, r.Type)
		schedule[r.Timeframe] = entry
	}
	return schedule
}
