package fiscal

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (UTC midnight)
// =============================================================================

// Date is a calendar day. The zero value is not a valid posting date.
type Date struct {
	Time time.Time
}

// NewDate builds a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates any time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int              { return d.Time.Year() }
func (d Date) Month() time.Month      { return d.Time.Month() }
func (d Date) Day() int               { return d.Time.Day() }
func (d Date) Weekday() time.Weekday  { return d.Time.Weekday() }
func (d Date) IsZero() bool           { return d.Time.IsZero() }
func (d Date) String() string         { return d.Time.Format("2006-01-02") }

// MondayIndex returns the weekday with Monday=0 .. Sunday=6.
func (d Date) MondayIndex() int {
	return (int(d.Weekday()) + 6) % 7
}

// DaysBetween returns the whole days from -> to. Both are UTC midnights so the
// division is exact across DST-free UTC.
func DaysBetween(from, to Date) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}
