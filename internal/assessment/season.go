package assessment

import "time"

// Season is the beekeeping season at the hive's location.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// localMonth returns the month of now as it would fall in the northern
// hemisphere calendar, so every seasonal table can be indexed the same way.
func localMonth(now time.Time, southern bool) time.Month {
	m := now.Month()
	if southern {
		m = (m+5)%12 + 1
	}
	return m
}

func seasonOf(month time.Month) Season {
	switch month {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}
