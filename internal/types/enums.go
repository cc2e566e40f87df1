package types

// QueenPresence records whether the queen was observed during an inspection.
type QueenPresence string

const (
	QueenPresent         QueenPresence = "yes"
	QueenAbsent          QueenPresence = "no"
	QueenNotSeen         QueenPresence = "not_seen"
	QueenPresenceUnknown QueenPresence = "unknown"
)

// Valid reports whether q is a member of the enumeration.
func (q QueenPresence) Valid() bool {
	switch q {
	case QueenPresent, QueenAbsent, QueenNotSeen, QueenPresenceUnknown:
		return true
	}
	return false
}

// QueenLaying records the observed laying performance of the queen.
type QueenLaying string

const (
	LayingYes     QueenLaying = "yes"
	LayingNo      QueenLaying = "no"
	LayingPoor    QueenLaying = "poor"
	LayingUnknown QueenLaying = "unknown"
)

func (q QueenLaying) Valid() bool {
	switch q {
	case LayingYes, LayingNo, LayingPoor, LayingUnknown:
		return true
	}
	return false
}

// BroodPattern grades the brood frames.
type BroodPattern string

const (
	BroodExcellent BroodPattern = "excellent"
	BroodGood      BroodPattern = "good"
	BroodFair      BroodPattern = "fair"
	BroodPoor      BroodPattern = "poor"
	BroodNone      BroodPattern = "none"
)

func (b BroodPattern) Valid() bool {
	switch b {
	case BroodExcellent, BroodGood, BroodFair, BroodPoor, BroodNone:
		return true
	}
	return false
}

// PopulationStrength grades the size of the colony.
type PopulationStrength string

const (
	PopulationVeryStrong PopulationStrength = "very_strong"
	PopulationStrong     PopulationStrength = "strong"
	PopulationModerate   PopulationStrength = "moderate"
	PopulationWeak       PopulationStrength = "weak"
	PopulationVeryWeak   PopulationStrength = "very_weak"
)

func (p PopulationStrength) Valid() bool {
	switch p {
	case PopulationVeryStrong, PopulationStrong, PopulationModerate, PopulationWeak, PopulationVeryWeak:
		return true
	}
	return false
}

// FoodStores grades honey and pollen reserves.
type FoodStores string

const (
	FoodAbundant FoodStores = "abundant"
	FoodAdequate FoodStores = "adequate"
	FoodLow      FoodStores = "low"
	FoodCritical FoodStores = "critical"
	FoodNone     FoodStores = "none"
)

func (f FoodStores) Valid() bool {
	switch f {
	case FoodAbundant, FoodAdequate, FoodLow, FoodCritical, FoodNone:
		return true
	}
	return false
}

// RiskLevel is totally ordered: critical > high > medium > low.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank returns the position of the level in the total order. Unknown values rank below low.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

func (l RiskLevel) Valid() bool { return l.Rank() > 0 }

// MaxRiskLevel returns the higher-ranked of a and b.
func MaxRiskLevel(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// RiskLevels lists all levels from most to least severe.
var RiskLevels = []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow}

// Timeframe describes how soon a risk is expected to materialize.
type Timeframe string

const (
	TimeframeImmediate  Timeframe = "immediate"
	TimeframeShortTerm  Timeframe = "short_term"
	TimeframeMediumTerm Timeframe = "medium_term"
	TimeframeLongTerm   Timeframe = "long_term"
)

// Timeframes lists all timeframes from nearest to furthest.
var Timeframes = []Timeframe{TimeframeImmediate, TimeframeShortTerm, TimeframeMediumTerm, TimeframeLongTerm}

// TrendDirection classifies movement of a metric across inspections.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// Grade is the letter label for a composite score.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeDPlus Grade = "D+"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// HiveType labels the physical hive design.
type HiveType string

const (
	HiveLangstroth HiveType = "langstroth"
	HiveDadant     HiveType = "dadant"
	HiveNational   HiveType = "national"
	HiveWarre      HiveType = "warre"
	HiveTopBar     HiveType = "top_bar"
	HiveLayens     HiveType = "layens"
	HiveFlow       HiveType = "flow"
)

func (h HiveType) Valid() bool {
	switch h {
	case HiveLangstroth, HiveDadant, HiveNational, HiveWarre, HiveTopBar, HiveLayens, HiveFlow:
		return true
	}
	return false
}

// HiveStatus is the lifecycle state of a hive record.
type HiveStatus string

const (
	HiveStatusActive   HiveStatus = "active"
	HiveStatusDead     HiveStatus = "dead"
	HiveStatusArchived HiveStatus = "archived"
)

func (s HiveStatus) Valid() bool {
	switch s {
	case HiveStatusActive, HiveStatusDead, HiveStatusArchived:
		return true
	}
	return false
}

// AlertLevel is the severity of a user-facing alert.
type AlertLevel string

const (
	AlertCritical AlertLevel = "critical"
	AlertWarning  AlertLevel = "warning"
)
