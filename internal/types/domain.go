package types

import (
	"encoding/json"
	"time"
)

// Apiary is a physical site holding one or more hives.
type Apiary struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	HiveCount int       `json:"hive_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SouthernHemisphere reports whether the apiary lies south of the equator.
// Apiaries without coordinates are treated as northern.
func (a *Apiary) SouthernHemisphere() bool {
	return a != nil && a.Latitude != nil && *a.Latitude < 0
}

// Hive is a single colony record. The assessment summary fields are written
// back after every inspection.
type Hive struct {
	ID                string     `json:"id"`
	AccountID         string     `json:"account_id"`
	ApiaryID          string     `json:"apiary_id"`
	Name              string     `json:"name"`
	HiveType          HiveType   `json:"hive_type"`
	FrameCount        int        `json:"frame_count"`
	Status            HiveStatus `json:"status"`
	ColonyEstablished *time.Time `json:"colony_established,omitempty"`
	QueenIntroduced   *time.Time `json:"queen_introduced,omitempty"`

	WeightedScore      *int               `json:"weighted_score,omitempty"`
	OverallRiskLevel   RiskLevel          `json:"overall_risk_level,omitempty"`
	Recommendations    RecommendationList `json:"recommendations,omitempty"`
	NextInspectionDate *time.Time         `json:"next_inspection_date,omitempty"`
	LastInspectedAt    *time.Time         `json:"last_inspected_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Context builds the engine input describing the hive as of now.
func (h *Hive) Context(apiary *Apiary, now time.Time) HiveContext {
	hc := HiveContext{
		FrameCount:         h.FrameCount,
		ColonyAgeMonths:    monthsBetween(h.ColonyEstablished, now),
		QueenAgeMonths:     monthsBetween(h.QueenIntroduced, now),
		HiveType:           h.HiveType,
		SouthernHemisphere: apiary.SouthernHemisphere(),
	}
	if apiary != nil {
		hc.Location = apiary.Location
	}
	return hc
}

func monthsBetween(from *time.Time, to time.Time) int {
	if from == nil || from.After(to) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// WeatherObservation records conditions at inspection time.
type WeatherObservation struct {
	TemperatureC *float64 `json:"temperature_c,omitempty"`
	Conditions   string   `json:"conditions,omitempty"`
	WindKmh      *float64 `json:"wind_kmh,omitempty"`
}

// FrameObservation records the frame-by-frame contents counted during an inspection.
type FrameObservation struct {
	BroodFrames int `json:"brood_frames" validate:"min=0,max=100"`
	HoneyFrames int `json:"honey_frames" validate:"min=0,max=100"`
	EmptyFrames int `json:"empty_frames" validate:"min=0,max=100"`
}

// TemperamentObservation records colony behaviour during an inspection.
type TemperamentObservation struct {
	Temperament    string `json:"temperament,omitempty" validate:"omitempty,oneof=calm nervous defensive aggressive"`
	QueenCellsSeen bool   `json:"queen_cells_seen"`
}

// Snapshot is the structured observation of a hive at one inspection.
// An empty required field means the beekeeper did not record it.
type Snapshot struct {
	QueenPresent       QueenPresence      `json:"queen_present" validate:"omitempty,queen_presence"`
	QueenLaying        QueenLaying        `json:"queen_laying" validate:"omitempty,queen_laying"`
	BroodPattern       BroodPattern       `json:"brood_pattern" validate:"omitempty,brood_pattern"`
	PopulationStrength PopulationStrength `json:"population_strength" validate:"omitempty,population_strength"`
	FoodStores         FoodStores         `json:"food_stores" validate:"omitempty,food_stores"`
	DiseasesFound      []string           `json:"diseases_found" validate:"max=20,dive,min=1,max=64"`
	PestsFound         []string           `json:"pests_found" validate:"max=20,dive,min=1,max=64"`

	Weather     *WeatherObservation     `json:"weather,omitempty"`
	Notes       string                  `json:"notes,omitempty" validate:"max=4000"`
	Frames      *FrameObservation       `json:"frames,omitempty"`
	Temperament *TemperamentObservation `json:"temperament,omitempty"`
}

// HiveContext carries the static facts about a hive needed for assessment.
// FrameCount of zero means the capacity is unknown.
type HiveContext struct {
	FrameCount         int      `json:"frame_count"`
	ColonyAgeMonths    int      `json:"colony_age_months"`
	QueenAgeMonths     int      `json:"queen_age_months"`
	Location           string   `json:"location,omitempty"`
	HiveType           HiveType `json:"hive_type"`
	SouthernHemisphere bool     `json:"southern_hemisphere"`
}

// HistoryPoint is one prior inspection's composite score.
type HistoryPoint struct {
	Date             time.Time `json:"date"`
	CompositeScore   float64   `json:"composite_score"`
	SwarmingObserved bool      `json:"swarming_observed,omitempty"`
}

// HistorySeries is a consistently ordered (newest-first or oldest-first) list of prior points.
type HistorySeries []HistoryPoint

// Inspection is a persisted snapshot of a hive.
type Inspection struct {
	ID               string    `json:"id"`
	AccountID        string    `json:"account_id"`
	HiveID           string    `json:"hive_id"`
	InspectedAt      time.Time `json:"inspected_at"`
	Snapshot         Snapshot  `json:"snapshot"`
	SwarmingObserved bool      `json:"swarming_observed"`
	CompositeScore   *int      `json:"composite_score,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Risk is a typed, leveled hazard with suggested mitigations.
type Risk struct {
	Type        string    `json:"type"`
	Level       RiskLevel `json:"level"`
	Probability int       `json:"probability"`
	Impact      string    `json:"impact"`
	Description string    `json:"description"`
	Timeframe   Timeframe `json:"timeframe"`
	Mitigation  []string  `json:"mitigation"`
}

// Recommendation is a single prioritized action item.
type Recommendation struct {
	Type     string    `json:"type"`
	Priority RiskLevel `json:"priority"`
	Action   string    `json:"action"`
}

// RecommendationList is stored as JSONB on the hive record.
type RecommendationList []Recommendation

// Alert is a user-facing notice derived from a severe risk.
type Alert struct {
	Level          AlertLevel `json:"level"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	ActionRequired bool       `json:"action_required"`
	Timeline       string     `json:"timeline"`
}

// AssessmentSummary is the subset of an analysis written back onto the hive.
type AssessmentSummary struct {
	WeightedScore      int
	OverallRiskLevel   RiskLevel
	Recommendations    RecommendationList
	NextInspectionDate time.Time
	InspectedAt        time.Time
}

// AssessmentRecord is a persisted analysis. Result holds the full analysis as
// JSON; it is compressed at rest.
type AssessmentRecord struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	HiveID           string          `json:"hive_id"`
	InspectionID     string          `json:"inspection_id,omitempty"`
	WeightedScore    int             `json:"weighted_score"`
	OverallRiskLevel RiskLevel       `json:"overall_risk_level"`
	Fallback         bool            `json:"fallback"`
	Result           json.RawMessage `json:"result"`
	CreatedAt        time.Time       `json:"created_at"`
}

// APIKey authenticates API requests on behalf of an account. Only the bcrypt
// hash of the secret is stored.
type APIKey struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"account_id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"`
	KeyHash    string     `json:"-"`
	Scopes     []string   `json:"scopes"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
