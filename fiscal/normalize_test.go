package fiscal_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-trends/fiscal"
)

func rec(date, customer string, qty int64, amount string) fiscal.TransactionRecord {
	return fiscal.TransactionRecord{
		PostingDate: date,
		ItemID:      "BOG-50101",
		Description: "Organic Whole Milk - 420mL",
		SourceID:    "10000",
		Customer:    customer,
		Quantity:    qty,
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestNormalize_FirstDayOfFiscalYear(t *testing.T) {
	// GIVEN: a sale on Friday 1 July 2022 for -700
	n := fiscal.Normalizer{Order: fiscal.DayFirst}

	// WHEN: normalized
	got, err := n.Normalize(rec("1-7-2022", "Online Subscription", -4, "-700"))
	require.NoError(t, err)

	// THEN: it opens week 1 of FY2022
	assert.Equal(t, 2022, got.FiscalYear)
	assert.Equal(t, "2022-07-01", got.FiscalWeekStart.String())
	assert.Equal(t, 1, got.WeekNumber)
	assert.False(t, got.WeekFloored)
	assert.Equal(t, fiscal.SeasonModerate, got.Season)
	assert.True(t, got.AbsAmount.Equal(decimal.NewFromInt(700)), "abs amount %s", got.AbsAmount)
	assert.Equal(t, int64(-4), got.Quantity, "quantity keeps its sign")
	assert.Equal(t, time.July, got.Month)
	assert.Equal(t, 2022, got.Year)
}

func TestNormalize_LastDayOfFiscalYear(t *testing.T) {
	n := fiscal.Normalizer{Order: fiscal.DayFirst}
	got, err := n.Normalize(rec("30-6-2022", "Online Subscription", -1, "-172.41"))
	require.NoError(t, err)

	assert.Equal(t, 2021, got.FiscalYear)
	assert.Equal(t, fiscal.SeasonLow, got.Season)
	assert.Equal(t, "2022-06-24", got.FiscalWeekStart.String())
	// FY2021's first Friday is 2 July 2021; 24 June 2022 is 51 weeks later.
	assert.Equal(t, 52, got.WeekNumber)
}

func TestNormalize_DateOrderIsHonoured(t *testing.T) {
	// "1-3-2022" is 1 March day-first and 3 January month-first.
	dayFirst, err := fiscal.Normalizer{Order: fiscal.DayFirst}.Normalize(rec("1-3-2022", "A", -1, "-1"))
	require.NoError(t, err)
	monthFirst, err := fiscal.Normalizer{Order: fiscal.MonthFirst}.Normalize(rec("1-3-2022", "A", -1, "-1"))
	require.NoError(t, err)

	assert.Equal(t, time.March, dayFirst.Month)
	assert.Equal(t, time.January, monthFirst.Month)
	assert.Equal(t, fiscal.SeasonModerate, dayFirst.Season)
	assert.Equal(t, fiscal.SeasonHigh, monthFirst.Season)
}

func TestNormalize_UnparseableDate(t *testing.T) {
	_, err := fiscal.Normalizer{Order: fiscal.DayFirst}.Normalize(rec("31-31-2022", "A", -1, "-1"))
	assert.ErrorIs(t, err, fiscal.ErrDateParse)
}

func TestNormalizeAll_CollectsSkippedRows(t *testing.T) {
	// GIVEN: four rows, two with bad dates
	records := []fiscal.TransactionRecord{
		rec("1-7-2022", "A", -1, "-10"),
		rec("not a date", "A", -1, "-10"),
		rec("2-7-2022", "B", -2, "-20"),
		rec("13-13-2022", "B", -1, "-5"),
	}
	records[3].Row = 42

	// WHEN: normalizing the batch
	res := fiscal.Normalizer{Order: fiscal.DayFirst}.NormalizeAll(records)

	// THEN: good rows survive in order, bad rows are reported, nothing aborts
	require.Len(t, res.Records, 2)
	assert.Equal(t, "A", res.Records[0].Customer)
	assert.Equal(t, "B", res.Records[1].Customer)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 2, res.Skipped[0].Row, "row defaults to the 1-based position")
	assert.Equal(t, 42, res.Skipped[1].Row, "row keeps the loader's number")
	assert.ErrorIs(t, res.Skipped[0], fiscal.ErrDateParse)

	assert.Equal(t, "2 of 4 rows skipped due to unparseable dates", res.Summary())
	assert.ErrorIs(t, res.Err(), fiscal.ErrDateParse)
}

func TestNormalizeAll_NoSkips(t *testing.T) {
	res := fiscal.Normalizer{}.NormalizeAll([]fiscal.TransactionRecord{rec("1-7-2022", "A", -1, "-1")})
	assert.Empty(t, res.Skipped)
	assert.NoError(t, res.Err())
	assert.Equal(t, "1 of 1 rows normalized", res.Summary())
}

func TestNormalizeAll_Idempotent(t *testing.T) {
	// Re-deriving from the same source dates yields identical records.
	records := []fiscal.TransactionRecord{
		rec("1-7-2022", "A", -1, "-10.50"),
		rec("30-6-2023", "B", 3, "12.25"),
		rec("29-2-2024", "C", -2, "-0.01"),
	}
	n := fiscal.Normalizer{Order: fiscal.DayFirst}
	first := n.NormalizeAll(records)
	second := n.NormalizeAll(records)
	assert.Equal(t, first, second)

	for _, r := range first.Records {
		again := fiscal.Derive(r.TransactionRecord, r.Date)
		assert.Equal(t, r, again)
	}
}

func TestClassifySeason_Exhaustive(t *testing.T) {
	want := map[time.Month]fiscal.Season{
		time.January: fiscal.SeasonHigh, time.February: fiscal.SeasonModerate,
		time.March: fiscal.SeasonModerate, time.April: fiscal.SeasonModerate,
		time.May: fiscal.SeasonModerate, time.June: fiscal.SeasonLow,
		time.July: fiscal.SeasonLow, time.August: fiscal.SeasonLow,
		time.September: fiscal.SeasonModerate, time.October: fiscal.SeasonModerate,
		time.November: fiscal.SeasonHigh, time.December: fiscal.SeasonHigh,
	}
	counts := map[fiscal.Season]int{}
	for m := time.January; m <= time.December; m++ {
		s := fiscal.ClassifySeason(m)
		assert.Equal(t, want[m], s, "month %s", m)
		counts[s]++
	}
	assert.Equal(t, 3, counts[fiscal.SeasonHigh])
	assert.Equal(t, 3, counts[fiscal.SeasonLow])
	assert.Equal(t, 6, counts[fiscal.SeasonModerate])
	assert.Equal(t, "High Season", fiscal.SeasonHigh.Label())
}
