package assessment

import (
	"time"

	"hivewatch/internal/types"
)

// NextInspectionDate picks the interval from the score band, then shortens it
// (never lengthens it) for critical or high risk.
func NextInspectionDate(now time.Time, compositeScore int, risk types.RiskLevel) time.Time {
	return now.AddDate(0, 0, inspectionIntervalDays(compositeScore, risk))
}

func inspectionIntervalDays(compositeScore int, risk types.RiskLevel) int {
	var interval int
	switch {
	case compositeScore < 50:
		interval = 3
	case compositeScore < 70:
		interval = 7
	case compositeScore < 85:
		interval = 10
	default:
		interval = 21
	}

	switch risk {
	case types.RiskCritical:
		interval = min(interval, 2)
	case types.RiskHigh:
		interval = min(interval, 5)
	}
	return interval
}
