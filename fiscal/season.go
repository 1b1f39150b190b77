package fiscal

import "time"

// Season is a demand tier derived from the calendar month alone.
type Season string

const (
	SeasonHigh     Season = "High"
	SeasonModerate Season = "Moderate"
	SeasonLow      Season = "Low"
)

// ClassifySeason maps a calendar month to its season. It ignores fiscal years.
func ClassifySeason(m time.Month) Season {
	switch m {
	case time.November, time.December, time.January:
		return SeasonHigh
	case time.June, time.July, time.August:
		return SeasonLow
	default:
		return SeasonModerate
	}
}

// Label is the display form used by the dashboard ("High Season").
func (s Season) Label() string { return string(s) + " Season" }
