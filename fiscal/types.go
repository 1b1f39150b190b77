/*
Package fiscal is the calendar normalization and aggregation engine.

PURPOSE:
  Sales are reported on a non-standard calendar: fiscal years run July to
  June (named by the starting calendar year) and fiscal weeks run Friday to
  Thursday. This package derives those keys from a posting date and rolls
  transaction rows up by week, by calendar month and by fiscal-year x month.

KEY CONCEPTS IN THIS FILE (types.go):
  - TransactionRecord: one raw sales row, as loaded
  - NormalizedRecord:  the same row with its derived calendar keys
  - Totals:            summed absolute amount and signed quantity

DESIGN PRINCIPLES:
  1. Pure: no I/O, no clocks, no package-level mutable state
  2. Immutable: normalized records are derived once and never patched
  3. Precision: amounts are decimal.Decimal
  4. Explicit: the day/month order of input dates is declared, never guessed

USAGE:
  n := fiscal.Normalizer{Order: fiscal.DayFirst}
  res := n.NormalizeAll(records)
  report := fiscal.BuildReport(res.Records, fiscal.FilterSpec{Customer: "Acme"})

SEE ALSO:
  - period.go:    fiscal year / week math
  - normalize.go: record normalization
  - aggregate.go: rollups
  - filter.go:    filter specification
*/
package fiscal

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTION RECORD - Raw input row
// =============================================================================

// TransactionRecord is one sales row as it arrives from the loader.
// Quantity and Amount are negative for shipped/sold units in the source
// convention; only the magnitude of Amount is used for sales value.
type TransactionRecord struct {
	Row         int    // 1-based line in the source (header is line 1), 0 if unknown
	PostingDate string // raw, parsed under the normalizer's DateOrder
	ItemID      string
	Description string
	SourceID    string
	Customer    string
	Quantity    int64
	Amount      decimal.Decimal
}

// =============================================================================
// NORMALIZED RECORD - Row with derived calendar keys
// =============================================================================

// NormalizedRecord carries a TransactionRecord together with every key the
// rollups and filters need. All derived fields are functions of Date alone.
type NormalizedRecord struct {
	TransactionRecord

	Date            Date
	Year            int
	Month           time.Month
	FiscalYear      int
	FiscalWeekStart Date
	WeekNumber      int
	WeekFloored     bool // WeekNumber is the floor value, not a computed index
	Season          Season
	AbsAmount       decimal.Decimal
}

// =============================================================================
// TOTALS - Summed measures of a bucket
// =============================================================================

type Totals struct {
	AbsAmount decimal.Decimal
	Quantity  int64
	Records   int
}

// Add folds one record into the totals.
func (t Totals) Add(r NormalizedRecord) Totals {
	return Totals{
		AbsAmount: t.AbsAmount.Add(r.AbsAmount),
		Quantity:  t.Quantity + r.Quantity,
		Records:   t.Records + 1,
	}
}

// Total sums every record.
func Total(records []NormalizedRecord) Totals {
	var t Totals
	for _, r := range records {
		t = t.Add(r)
	}
	return t
}

// UniqueItems counts the distinct item numbers in records.
func UniqueItems(records []NormalizedRecord) int {
	return len(lo.Uniq(lo.Map(records, func(r NormalizedRecord, _ int) string { return r.ItemID })))
}

// AverageOrderValue is the sales value per row, zero for no rows.
func AverageOrderValue(t Totals) decimal.Decimal {
	if t.Records == 0 {
		return decimal.Zero
	}
	return t.AbsAmount.Div(decimal.NewFromInt(int64(t.Records)))
}
