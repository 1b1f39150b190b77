package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateOrder declares how the two leading fields of a D/M/Y style date are read.
// It is fixed by whoever loads the data; the parser never infers it.
type DateOrder int

const (
	DayFirst DateOrder = iota
	MonthFirst
)

func (o DateOrder) String() string {
	switch o {
	case DayFirst:
		return "day_first"
	case MonthFirst:
		return "month_first"
	default:
		return fmt.Sprintf("DateOrder(%d)", int(o))
	}
}

// ParseDateOrder accepts "day_first"/"dayfirst"/"dmy" and "month_first"/"monthfirst"/"mdy".
func ParseDateOrder(s string) (DateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))) {
	case "day_first", "dayfirst", "dmy":
		return DayFirst, nil
	case "month_first", "monthfirst", "mdy":
		return MonthFirst, nil
	default:
		return DayFirst, fmt.Errorf("unknown date order %q (use day_first or month_first)", s)
	}
}

// ParseDate reads a posting date under the declared order.
//
// Accepted shapes:
//   - D-M-YYYY or M-D-YYYY (per order) with '-', '/' or '.' separators
//   - YYYY-MM-DD, which is unambiguous and read the same under either order
//
// A trailing time of day ("2022-07-01 00:00:00", "2022-07-01T00:00:00Z") is
// dropped. Out-of-range fields are rejected rather than swapped.
func ParseDate(s string, order DateOrder) (Date, error) {
	raw := s
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	fail := func(reason string) (Date, error) {
		return Date{}, &DateParseError{Input: raw, Order: order, Reason: reason}
	}
	if s == "" {
		return fail("empty")
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' || r == '.' })
	if len(parts) != 3 {
		return fail("expected three date fields")
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if strings.TrimLeft(p, "0123456789") != "" {
			return fail(fmt.Sprintf("field %q is not a number", p))
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fail(fmt.Sprintf("field %q is not a number", p))
		}
		nums[i] = n
	}

	var year, month, day int
	switch {
	case len(parts[0]) == 4:
		year, month, day = nums[0], nums[1], nums[2]
	case len(parts[2]) == 4:
		if nums[0] > 12 && nums[1] > 12 {
			return fail("day and month both exceed 12")
		}
		year = nums[2]
		if order == MonthFirst {
			month, day = nums[0], nums[1]
		} else {
			day, month = nums[0], nums[1]
		}
	default:
		return fail("year must have four digits")
	}

	if month < 1 || month > 12 {
		return fail(fmt.Sprintf("month %d out of range", month))
	}
	d := NewDate(year, time.Month(month), day)
	// time.Date normalizes 31 April into 1 May; reject instead.
	if day < 1 || d.Day() != day || d.Month() != time.Month(month) {
		return fail(fmt.Sprintf("day %d out of range for %s %d", day, time.Month(month), year))
	}
	return d, nil
}
