package fiscal

import "time"

// =============================================================================
// FISCAL CALENDAR - July -> June years, Friday -> Thursday weeks
// =============================================================================

const (
	// FiscalYearStartMonth is the first month of every fiscal year.
	FiscalYearStartMonth = time.July

	// WeekStartDay is the first day of every fiscal week.
	WeekStartDay = time.Friday

	// MaxWeekNumber caps the within-year week index.
	MaxWeekNumber = 53
)

// Period is an inclusive range of days.
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// FiscalYearOf names the fiscal year containing d by its starting calendar year.
// The split is a pure month comparison: 30 June belongs to the previous fiscal
// year and 1 July to the new one, whatever week they fall in.
func FiscalYearOf(d Date) int {
	if d.Month() >= FiscalYearStartMonth {
		return d.Year()
	}
	return d.Year() - 1
}

// FiscalYearPeriod returns 1 July fy through 30 June fy+1.
func FiscalYearPeriod(fy int) Period {
	start := NewDate(fy, FiscalYearStartMonth, 1)
	return Period{Start: start, End: NewDate(fy+1, FiscalYearStartMonth, 1).AddDays(-1)}
}

// FiscalWeekStart returns the Friday on or before d.
func FiscalWeekStart(d Date) Date {
	daysSinceFriday := (d.MondayIndex() + 3) % 7
	return d.AddDays(-daysSinceFriday)
}

// FiscalWeek returns the Friday..Thursday week containing d.
func FiscalWeek(d Date) Period {
	start := FiscalWeekStart(d)
	return Period{Start: start, End: start.AddDays(6)}
}

// FirstFriday returns the first Friday on or after 1 July of fy.
func FirstFriday(fy int) Date {
	start := NewDate(fy, FiscalYearStartMonth, 1)
	ahead := (int(WeekStartDay) - int(start.Weekday()) + 7) % 7
	return start.AddDays(ahead)
}

// WeekNumber returns the 1-based index of weekStart within fiscal year fy,
// counted from FirstFriday(fy) and clamped to [1, MaxWeekNumber].
//
// A week start before the first Friday (the tail of June, or the leading days of
// July before the first Friday) has no computed index; it gets 1 and floored is
// true.
func WeekNumber(weekStart Date, fy int) (week int, floored bool) {
	first := FirstFriday(fy)
	if weekStart.Before(first) {
		return 1, true
	}
	week = DaysBetween(first, weekStart)/7 + 1
	if week > MaxWeekNumber {
		week = MaxWeekNumber
	}
	return week, false
}
