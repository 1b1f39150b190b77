package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AllValue is the selector value meaning "no restriction".
const AllValue = "All"

// FilterSpec restricts a record set. Unset fields impose no restriction.
type FilterSpec struct {
	Customer      string // "" or "All" = any customer
	CalendarYear  *int
	CalendarMonth *time.Month
	FiscalYear    *int

	// Inclusive posting-date bounds; either may be nil.
	DateFrom *Date
	DateTo   *Date
}

// ParseFilterSpec builds a FilterSpec from selector strings. Empty strings and
// "All" leave a dimension unrestricted. Months are English month names.
func ParseFilterSpec(customer, year, month, fiscalYear string) (FilterSpec, error) {
	var spec FilterSpec
	if c := strings.TrimSpace(customer); !isAll(c) {
		spec.Customer = c
	}
	if y := strings.TrimSpace(year); !isAll(y) {
		n, err := strconv.Atoi(y)
		if err != nil {
			return FilterSpec{}, fmt.Errorf("%w: year %q", ErrInvalidFilter, year)
		}
		spec.CalendarYear = &n
	}
	if m := strings.TrimSpace(month); !isAll(m) {
		mm, err := ParseMonth(m)
		if err != nil {
			return FilterSpec{}, err
		}
		spec.CalendarMonth = &mm
	}
	if fy := strings.TrimSpace(fiscalYear); !isAll(fy) {
		n, err := strconv.Atoi(fy)
		if err != nil {
			return FilterSpec{}, fmt.Errorf("%w: fiscal year %q", ErrInvalidFilter, fiscalYear)
		}
		spec.FiscalYear = &n
	}
	return spec, nil
}

// WithDateRange returns a copy of s bounded to [from, to]. Both are
// YYYY-MM-DD; an empty string leaves that side open.
func (s FilterSpec) WithDateRange(from, to string) (FilterSpec, error) {
	parse := func(name, v string) (*Date, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s date %q (use YYYY-MM-DD)", ErrInvalidFilter, name, v)
		}
		d := DateOf(t)
		return &d, nil
	}
	fromDate, err := parse("from", from)
	if err != nil {
		return FilterSpec{}, err
	}
	toDate, err := parse("to", to)
	if err != nil {
		return FilterSpec{}, err
	}
	if fromDate != nil && toDate != nil && toDate.Before(*fromDate) {
		return FilterSpec{}, fmt.Errorf("%w: date range %s to %s is reversed", ErrInvalidFilter, fromDate, toDate)
	}
	s.DateFrom, s.DateTo = fromDate, toDate
	return s, nil
}

// ParseMonth accepts a full English month name, case-insensitive.
func ParseMonth(s string) (time.Month, error) {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: month %q", ErrInvalidFilter, s)
}

func isAll(s string) bool {
	return s == "" || strings.EqualFold(s, AllValue)
}

// IsZero reports whether the filter restricts nothing.
func (s FilterSpec) IsZero() bool {
	return isAll(s.Customer) && s.CalendarYear == nil && s.CalendarMonth == nil && s.FiscalYear == nil &&
		s.DateFrom == nil && s.DateTo == nil
}

// Match reports whether r satisfies every set dimension.
func (s FilterSpec) Match(r NormalizedRecord) bool {
	if !isAll(s.Customer) && r.Customer != s.Customer {
		return false
	}
	if s.CalendarYear != nil && r.Year != *s.CalendarYear {
		return false
	}
	if s.CalendarMonth != nil && r.Month != *s.CalendarMonth {
		return false
	}
	if s.FiscalYear != nil && r.FiscalYear != *s.FiscalYear {
		return false
	}
	if s.DateFrom != nil && r.Date.Before(*s.DateFrom) {
		return false
	}
	if s.DateTo != nil && r.Date.After(*s.DateTo) {
		return false
	}
	return true
}

// Key is a canonical rendering used as a cache key. Equal specs produce
// equal keys.
func (s FilterSpec) Key() string {
	part := func(p *int) string {
		if p == nil {
			return AllValue
		}
		return strconv.Itoa(*p)
	}
	customer, month := AllValue, AllValue
	if !isAll(s.Customer) {
		customer = strconv.Quote(s.Customer)
	}
	if s.CalendarMonth != nil {
		month = s.CalendarMonth.String()
	}
	key := "customer=" + customer + ";year=" + part(s.CalendarYear) +
		";month=" + month + ";fy=" + part(s.FiscalYear)
	if s.DateFrom != nil {
		key += ";from=" + s.DateFrom.String()
	}
	if s.DateTo != nil {
		key += ";to=" + s.DateTo.String()
	}
	return key
}

// Describe lists the active filters in display order, e.g.
// ["Customer: Acme", "FY: 2022"]. It is empty when nothing is restricted.
func (s FilterSpec) Describe() []string {
	var parts []string
	if !isAll(s.Customer) {
		parts = append(parts, "Customer: "+s.Customer)
	}
	if s.FiscalYear != nil {
		parts = append(parts, fmt.Sprintf("FY: %d", *s.FiscalYear))
	}
	if s.CalendarYear != nil {
		parts = append(parts, fmt.Sprintf("Year: %d", *s.CalendarYear))
	}
	if s.CalendarMonth != nil {
		parts = append(parts, "Month: "+s.CalendarMonth.String())
	}
	if s.DateFrom != nil {
		parts = append(parts, "From: "+s.DateFrom.String())
	}
	if s.DateTo != nil {
		parts = append(parts, "To: "+s.DateTo.String())
	}
	return parts
}

// Filter returns the records matching spec, in input order, as a new slice.
// The input is never modified.
func Filter(records []NormalizedRecord, spec FilterSpec) []NormalizedRecord {
	out := make([]NormalizedRecord, 0, len(records))
	for _, r := range records {
		if spec.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
