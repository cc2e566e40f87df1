package types

import (
	"testing"
	"time"
)

func TestRiskLevel_RankIsTotalOrder(t *testing.T) {
	for i := 0; i < len(RiskLevels)-1; i++ {
		hi, lo := RiskLevels[i], RiskLevels[i+1]
		if hi.Rank() <= lo.Rank() {
			t.Errorf("%s should outrank %s", hi, lo)
		}
	}
	if RiskLevel("extreme").Valid() {
		t.Error("unknown level should be invalid")
	}
}

func TestMaxRiskLevel(t *testing.T) {
	tests := []struct {
		a, b, want RiskLevel
	}{
		{RiskLow, RiskMedium, RiskMedium},
		{RiskCritical, RiskMedium, RiskCritical},
		{RiskHigh, RiskHigh, RiskHigh},
		{RiskMedium, RiskLow, RiskMedium},
	}
	for _, tt := range tests {
		if got := MaxRiskLevel(tt.a, tt.b); got != tt.want {
			t.Errorf("MaxRiskLevel(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEnumValid(t *testing.T) {
	if !QueenNotSeen.Valid() || QueenPresence("maybe").Valid() {
		t.Error("QueenPresence.Valid mismatch")
	}
	if !LayingPoor.Valid() || QueenLaying("").Valid() {
		t.Error("QueenLaying.Valid mismatch")
	}
	if !BroodNone.Valid() || BroodPattern("spotty").Valid() {
		t.Error("BroodPattern.Valid mismatch")
	}
	if !PopulationVeryWeak.Valid() || PopulationStrength("huge").Valid() {
		t.Error("PopulationStrength.Valid mismatch")
	}
	if !FoodCritical.Valid() || FoodStores("plenty").Valid() {
		t.Error("FoodStores.Valid mismatch")
	}
}

func TestHive_Context(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	established := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	queen := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	lat := -33.9

	hive := &Hive{HiveType: HiveLangstroth, FrameCount: 10, ColonyEstablished: &established, QueenIntroduced: &queen}
	apiary := &Apiary{Location: "Cape Town", Latitude: &lat}

	hc := hive.Context(apiary, now)

	if hc.ColonyAgeMonths != 23 {
		t.Errorf("ColonyAgeMonths = %d, want 23", hc.ColonyAgeMonths)
	}
	if hc.QueenAgeMonths != 6 {
		t.Errorf("QueenAgeMonths = %d, want 6", hc.QueenAgeMonths)
	}
	if !hc.SouthernHemisphere {
		t.Error("negative latitude should be southern hemisphere")
	}
	if hc.Location != "Cape Town" || hc.FrameCount != 10 || hc.HiveType != HiveLangstroth {
		t.Errorf("unexpected context %+v", hc)
	}
}

func TestHive_Context_NoDatesNoApiary(t *testing.T) {
	hc := (&Hive{HiveType: HiveWarre}).Context(nil, time.Now())
	if hc.ColonyAgeMonths != 0 || hc.QueenAgeMonths != 0 || hc.SouthernHemisphere {
		t.Errorf("unexpected context %+v", hc)
	}
}

func TestRecommendationList_ScanValue(t *testing.T) {
	list := RecommendationList{{Type: "feeding", Priority: RiskHigh, Action: "Feed 2:1 syrup"}}
	v, err := list.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var got RecommendationList
	if err := got.Scan(v); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(got) != 1 || got[0].Action != "Feed 2:1 syrup" {
		t.Errorf("Scan() = %+v", got)
	}

	var empty RecommendationList
	if err := empty.Scan(nil); err != nil || empty != nil {
		t.Errorf("Scan(nil) = %v, %v", empty, err)
	}
	if err := empty.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}
