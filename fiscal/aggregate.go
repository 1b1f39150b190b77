package fiscal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROLLUP ROWS
// =============================================================================

// WeekRow is one fiscal week bucket.
type WeekRow struct {
	WeekStart  Date
	WeekNumber int
	Totals
}

// Label renders the chart axis label, e.g. "Week 1 (Jul 01)".
func (w WeekRow) Label() string {
	return fmt.Sprintf("Week %d (%s)", w.WeekNumber, w.WeekStart.Time.Format("Jan 02"))
}

// MonthRow is one calendar month bucket across all years.
type MonthRow struct {
	Month  time.Month
	Season Season
	Totals
}

// FiscalYearMonthRow is one calendar month bucket within one fiscal year.
type FiscalYearMonthRow struct {
	FiscalYear int
	Month      time.Month
	Season     Season
	Totals
}

// =============================================================================
// ROLLUPS
// =============================================================================
// Each rollup sums AbsAmount and the signed Quantity of its group. None of
// them return an error; an empty input gives an empty, non-nil slice.

type weekKey struct {
	start Date
	week  int
}

// AggregateByWeek groups by (FiscalWeekStart, WeekNumber), ascending by week start.
func AggregateByWeek(records []NormalizedRecord) []WeekRow {
	groups := make(map[weekKey]Totals)
	for _, r := range records {
		k := weekKey{start: r.FiscalWeekStart, week: r.WeekNumber}
		groups[k] = groups[k].Add(r)
	}

	rows := make([]WeekRow, 0, len(groups))
	for k, t := range groups {
		rows = append(rows, WeekRow{WeekStart: k.start, WeekNumber: k.week, Totals: t})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].WeekStart.Equal(rows[j].WeekStart) {
			return rows[i].WeekStart.Before(rows[j].WeekStart)
		}
		return rows[i].WeekNumber < rows[j].WeekNumber
	})
	return rows
}

// AggregateByMonth groups by calendar month, ordered January..December.
func AggregateByMonth(records []NormalizedRecord) []MonthRow {
	groups := make(map[time.Month]Totals)
	for _, r := range records {
		groups[r.Month] = groups[r.Month].Add(r)
	}

	rows := make([]MonthRow, 0, len(groups))
	for m, t := range groups {
		rows = append(rows, MonthRow{Month: m, Season: ClassifySeason(m), Totals: t})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}

type fiscalMonthKey struct {
	fy    int
	month time.Month
}

// AggregateByFiscalYearMonth groups by (FiscalYear, Month), ordered by fiscal
// year then calendar month. Each month appears once per fiscal year present.
func AggregateByFiscalYearMonth(records []NormalizedRecord) []FiscalYearMonthRow {
	groups := make(map[fiscalMonthKey]Totals)
	for _, r := range records {
		k := fiscalMonthKey{fy: r.FiscalYear, month: r.Month}
		groups[k] = groups[k].Add(r)
	}

	rows := make([]FiscalYearMonthRow, 0, len(groups))
	for k, t := range groups {
		rows = append(rows, FiscalYearMonthRow{
			FiscalYear: k.fy,
			Month:      k.month,
			Season:     ClassifySeason(k.month),
			Totals:     t,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].FiscalYear != rows[j].FiscalYear {
			return rows[i].FiscalYear < rows[j].FiscalYear
		}
		return rows[i].Month < rows[j].Month
	})
	return rows
}

// =============================================================================
// REPORT - Filter once, roll up three ways
// =============================================================================

// Report is the full output surface for one filter spec.
type Report struct {
	Spec             FilterSpec
	Records          []NormalizedRecord
	Weekly           []WeekRow
	Monthly          []MonthRow
	FiscalYearMonths []FiscalYearMonthRow
	Totals           Totals

	// Dashboard headline figures over Records.
	UniqueItems   int
	AvgOrderValue decimal.Decimal

	// Empty is set when the filter matched nothing. It is a valid state,
	// not a failure.
	Empty bool
}

// NewReport fills everything but the rollups for an already filtered subset.
func NewReport(spec FilterSpec, subset []NormalizedRecord) *Report {
	totals := Total(subset)
	return &Report{
		Spec:          spec,
		Records:       subset,
		Totals:        totals,
		UniqueItems:   UniqueItems(subset),
		AvgOrderValue: AverageOrderValue(totals),
		Empty:         len(subset) == 0,
	}
}

// BuildReport filters records and computes every rollup sequentially.
func BuildReport(records []NormalizedRecord, spec FilterSpec) Report {
	rep := NewReport(spec, Filter(records, spec))
	rep.Weekly = AggregateByWeek(rep.Records)
	rep.Monthly = AggregateByMonth(rep.Records)
	rep.FiscalYearMonths = AggregateByFiscalYearMonth(rep.Records)
	return *rep
}

// Title is the weekly chart title with the active filters appended.
func (r Report) Title() string {
	title := "Weekly Sales Trend (Friday to Thursday)"
	if parts := r.Spec.Describe(); len(parts) > 0 {
		title += " - " + strings.Join(parts, " | ")
	}
	return title
}
