package assessment

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"hivewatch/internal/types"
)

// ErrMalformedHistory is returned when a history series is not consistently
// ordered or carries an impossible score.
var ErrMalformedHistory = errors.New("assessment: malformed history")

// Direction margins, in composite-score points.
const (
	healthTrendMargin       = 5.0
	populationTrendMargin   = 8.0
	productivityTrendMargin = 10.0

	anomalySigmas         = 2.0
	anomalyMinPrecedingPt = 3
)

// TrendDetail is the direction of one metric between the older and newer halves of the series.
type TrendDetail struct {
	Direction      types.TrendDirection `json:"direction"`
	Change         float64              `json:"change"`
	FirstHalfMean  float64              `json:"first_half_mean"`
	SecondHalfMean float64              `json:"second_half_mean"`
}

// Anomaly is a historical score outside the trailing mean +/- 2 sigma.
type Anomaly struct {
	Date         time.Time `json:"date"`
	Score        float64   `json:"score"`
	ExpectedLow  float64   `json:"expected_low"`
	ExpectedHigh float64   `json:"expected_high"`
}

// TrendAnalysis compares the current score with prior inspections.
// When TrendAvailable is false no other field is set.
type TrendAnalysis struct {
	TrendAvailable    bool         `json:"trend_available"`
	DataPoints        int          `json:"data_points,omitempty"`
	HealthTrend       *TrendDetail `json:"health_trend,omitempty"`
	PopulationTrend   *TrendDetail `json:"population_trend,omitempty"`
	ProductivityTrend *TrendDetail `json:"productivity_trend,omitempty"`
	Anomalies         []Anomaly    `json:"anomalies,omitempty"`
}

// AnalyzeTrends classifies how the hive's composite score has moved. The
// history is put in chronological order and the current score appended as
// the newest point before the series is split into halves.
func AnalyzeTrends(current int, history types.HistorySeries) (TrendAnalysis, error) {
	if len(history) == 0 {
		return TrendAnalysis{TrendAvailable: false}, nil
	}

	chrono, err := chronological(history)
	if err != nil {
		return TrendAnalysis{}, err
	}

	series := make([]float64, 0, len(chrono)+1)
	for _, p := range chrono {
		series = append(series, p.CompositeScore)
	}
	series = append(series, float64(current))

	half := len(series) / 2
	first, second := mean(series[:half]), mean(series[half:])

	return TrendAnalysis{
		TrendAvailable:    true,
		DataPoints:        len(series),
		HealthTrend:       trendDetail(first, second, healthTrendMargin),
		PopulationTrend:   trendDetail(first, second, populationTrendMargin),
		ProductivityTrend: trendDetail(first, second, productivityTrendMargin),
		Anomalies:         findAnomalies(chrono),
	}, nil
}

// chronological validates the series and returns a copy ordered oldest first.
func chronological(history types.HistorySeries) (types.HistorySeries, error) {
	for i, p := range history {
		if math.IsNaN(p.CompositeScore) || math.IsInf(p.CompositeScore, 0) || p.CompositeScore < 0 || p.CompositeScore > 100 {
			return nil, fmt.Errorf("%w: point %d has score %v", ErrMalformedHistory, i, p.CompositeScore)
		}
	}

	out := slices.Clone(history)
	if len(out) < 2 {
		return out, nil
	}
	if out[0].Date.After(out[len(out)-1].Date) {
		slices.Reverse(out)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Date.Before(out[i-1].Date) {
			return nil, fmt.Errorf("%w: dates are not consistently ordered at point %d", ErrMalformedHistory, i)
		}
	}
	return out, nil
}

func trendDetail(first, second, margin float64) *TrendDetail {
	change := second - first
	dir := types.TrendStable
	switch {
	case change > margin:
		dir = types.TrendImproving
	case change < -margin:
		dir = types.TrendDeclining
	}
	return &TrendDetail{
		Direction:      dir,
		Change:         round2(change),
		FirstHalfMean:  round2(first),
		SecondHalfMean: round2(second),
	}
}

// findAnomalies flags points outside the mean +/- 2 sigma of all points before them.
// A point needs at least three predecessors to be judged.
func findAnomalies(chrono types.HistorySeries) []Anomaly {
	var out []Anomaly
	for i := anomalyMinPrecedingPt; i < len(chrono); i++ {
		window := make([]float64, i)
		for j := 0; j < i; j++ {
			window[j] = chrono[j].CompositeScore
		}
		m, sd := mean(window), stddev(window)
		lo, hi := m-anomalySigmas*sd, m+anomalySigmas*sd
		if score := chrono[i].CompositeScore; score < lo || score > hi {
			out = append(out, Anomaly{
				Date:         chrono[i].Date,
				Score:        score,
				ExpectedLow:  round2(lo),
				ExpectedHigh: round2(hi),
			})
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}
