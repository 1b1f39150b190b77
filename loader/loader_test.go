package loader

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/fiscal-trends/fiscal"
)

const header = "Posting Date,Item No,Description,Source No,Name,Invoiced Quantity,Sales Amount\n"

func newLoader(order fiscal.DateOrder, policy Policy) *Loader {
	return New(Options{Order: order, Policy: policy}, zerolog.Nop())
}

func TestLoad_CSV(t *testing.T) {
	// GIVEN: a day-first CSV with a BOM, quoted headers and a trailing blank line
	input := "\ufeff\"Posting Date\", Item No ,Description,Source No,Name,Invoiced Quantity,Sales Amount\n" +
		"1-7-2022,BCH-12201,Gouda Portion 200g,10000,Cafe Roma,-1,301.72\n" +
		"30-6-2022,BCH-16301,\"Paneer, 250g\",10000,Online Subscription,-2.0,\"1,344.83\"\n" +
		",,,,,,\n"

	// WHEN
	res, err := newLoader(fiscal.DayFirst, SkipInvalid).Load(context.Background(), FormatCSV, strings.NewReader(input))

	// THEN
	require.NoError(t, err)
	require.Len(t, res.Normalized, 2)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 2, res.Total)

	first := res.Normalized[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, "2022-07-01", first.Date.String())
	assert.Equal(t, 2022, first.FiscalYear)
	assert.Equal(t, "Cafe Roma", first.Customer)

	second := res.Normalized[1]
	assert.Equal(t, "Paneer, 250g", second.Description)
	assert.Equal(t, int64(-2), second.Quantity)
	assert.True(t, decimal.RequireFromString("1344.83").Equal(second.Amount))
	assert.Equal(t, 2021, second.FiscalYear)
	assert.Equal(t, "2 of 2 rows loaded", res.Summary())
}

func TestLoad_MissingColumns(t *testing.T) {
	// GIVEN: a sheet without quantity and amount columns
	input := "Posting Date,Item No,Description,Source No,Name\n1-7-2022,A,B,C,D\n"

	// WHEN
	_, err := newLoader(fiscal.DayFirst, SkipInvalid).Load(context.Background(), FormatCSV, strings.NewReader(input))

	// THEN: the batch fails naming every missing column
	require.Error(t, err)
	var schemaErr *fiscal.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{ColQuantity, ColAmount}, schemaErr.Missing)
	assert.True(t, errors.Is(err, fiscal.ErrSchema))
	assert.True(t, fiscal.IsClientError(err))
}

func TestLoad_EmptyInputIsSchemaError(t *testing.T) {
	_, err := newLoader(fiscal.DayFirst, SkipInvalid).Load(context.Background(), FormatCSV, strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fiscal.ErrSchema))
}

func TestLoad_SkipInvalidRows(t *testing.T) {
	// GIVEN: one good row, then a bad date, a fractional quantity and a bad amount
	input := header +
		"1-7-2022,A,Good,1,Cafe Roma,-1,10\n" +
		"31-31-2022,B,Bad date,1,Cafe Roma,-1,10\n" +
		"2-7-2022,C,Half unit,1,Cafe Roma,-1.5,10\n" +
		"3-7-2022,D,Bad amount,1,Cafe Roma,-1,ten\n"

	// WHEN
	res, err := newLoader(fiscal.DayFirst, SkipInvalid).Load(context.Background(), FormatCSV, strings.NewReader(input))

	// THEN: the good row survives and the rest are reported in line order
	require.NoError(t, err)
	require.Len(t, res.Normalized, 1)
	require.Len(t, res.Skipped, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{res.Skipped[0].Row, res.Skipped[1].Row, res.Skipped[2].Row})
	assert.True(t, errors.Is(res.Skipped[0], fiscal.ErrDateParse))
	assert.True(t, errors.Is(res.Skipped[1], fiscal.ErrInvalidValue))
	assert.True(t, errors.Is(res.Skipped[2], fiscal.ErrInvalidValue))
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, "1 of 4 rows loaded, 3 skipped (1 unparseable dates, 2 invalid values)", res.Summary())
}

func TestLoad_QuantityOutOfRange(t *testing.T) {
	// GIVEN: quantities past either end of int64
	input := header +
		"1-7-2022,A,Good,1,Cafe Roma,9223372036854775807,10\n" +
		"2-7-2022,B,Too many,1,Cafe Roma,99999999999999999999,10\n" +
		"3-7-2022,C,Too few,1,Cafe Roma,-9223372036854775809,10\n"

	// WHEN
	res, err := newLoader(fiscal.DayFirst, SkipInvalid).Load(context.Background(), FormatCSV, strings.NewReader(input))

	// THEN: the overflowing rows are reported instead of wrapping
	require.NoError(t, err)
	require.Len(t, res.Normalized, 1)
	assert.Equal(t, int64(9223372036854775807), res.Normalized[0].Quantity)
	require.Len(t, res.Skipped, 2)
	for _, e := range res.Skipped {
		assert.True(t, errors.Is(e, fiscal.ErrInvalidValue))
		assert.Contains(t, e.Error(), "out of range")
	}
}

func TestLoad_RejectBatch(t *testing.T) {
	// GIVEN: a reject policy and one unparseable date
	input := header +
		"1-7-2022,A,Good,1,Cafe Roma,-1,10\n" +
		"not a date,B,Bad,1,Cafe Roma,-1,10\n"

	// WHEN
	res, err := newLoader(fiscal.DayFirst, RejectBatch).Load(context.Background(), FormatCSV, strings.NewReader(input))

	// THEN
	require.Error(t, err)
	assert.Nil(t, res)
	var batchErr *BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Len(t, batchErr.Errors, 1)
	assert.Equal(t, 2, batchErr.Total)
	assert.True(t, errors.Is(err, fiscal.ErrDateParse))
	assert.True(t, fiscal.IsClientError(err))
}

func TestLoad_MonthFirst(t *testing.T) {
	input := header + "12/25/2022,A,Xmas,1,Cafe Roma,-3,99.99\n"

	res, err := newLoader(fiscal.MonthFirst, SkipInvalid).Load(context.Background(), FormatCSV, strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Normalized, 1)
	assert.Equal(t, "2022-12-25", res.Normalized[0].Date.String())
	assert.Equal(t, fiscal.SeasonHigh, res.Normalized[0].Season)
	assert.Equal(t, fiscal.MonthFirst, res.Order)

	// The same text under day-first is rejected, never swapped.
	res, err = newLoader(fiscal.DayFirst, SkipInvalid).Load(context.Background(), FormatCSV, strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, res.Normalized)
	assert.Len(t, res.Skipped, 1)
}

func TestLoad_XLSX(t *testing.T) {
	// GIVEN: a workbook whose posting dates are real Excel dates
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{
		"Posting Date", "Item No", "Description", "Source No", "Name", "Invoiced Quantity", "Sales Amount",
	}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{
		time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC), "BCH-12201", "Gouda Portion 200g", "10000", "Cafe Roma", -1, 301.72,
	}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{
		"2023-01-06", "BCH-16301", "Paneer 250g", "10000", "Cafe Roma", -2, 689.66,
	}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	// WHEN: loading with a month-first order, which ISO output must not disturb
	res, err := newLoader(fiscal.MonthFirst, RejectBatch).Load(context.Background(), FormatXLSX, bytes.NewReader(buf.Bytes()))

	// THEN
	require.NoError(t, err)
	require.Len(t, res.Normalized, 2)
	assert.Equal(t, "2022-07-01", res.Normalized[0].Date.String())
	assert.Equal(t, 1, res.Normalized[0].WeekNumber)
	assert.True(t, decimal.RequireFromString("301.72").Equal(res.Normalized[0].Amount))
	assert.Equal(t, "2023-01-06", res.Normalized[1].Date.String())
	assert.Equal(t, int64(-2), res.Normalized[1].Quantity)
}

func TestLoad_XLSXRejectsGarbage(t *testing.T) {
	_, err := newLoader(fiscal.DayFirst, SkipInvalid).Load(context.Background(), FormatXLSX, strings.NewReader("not a zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read xlsx")
}

func TestLoad_JSON(t *testing.T) {
	input := `[
		{"Posting Date": "2022-11-04", "Item No": "A", "Description": "Milk", "Source No": 10000,
		 "Name": "Cafe Roma", "Invoiced Quantity": -4, "Sales Amount": 700.10},
		{"Posting Date": "5-11-2022", "Item No": "B", "Description": "Butter", "Source No": "10000",
		 "Name": "Cafe Roma", "Invoiced Quantity": -1, "Sales Amount": "603.45", "Extra": true}
	]`

	res, err := newLoader(fiscal.DayFirst, RejectBatch).Load(context.Background(), FormatJSON, strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Normalized, 2)
	assert.Equal(t, "10000", res.Normalized[0].SourceID)
	assert.True(t, decimal.RequireFromString("700.10").Equal(res.Normalized[0].Amount))
	assert.Equal(t, "2022-11-05", res.Normalized[1].Date.String())
	assert.Equal(t, res.Normalized[0].FiscalWeekStart, res.Normalized[1].FiscalWeekStart)
}

func TestLoad_JSONMissingColumns(t *testing.T) {
	_, err := newLoader(fiscal.DayFirst, SkipInvalid).Load(context.Background(), FormatJSON, strings.NewReader(`[{"Name": "x"}]`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fiscal.ErrSchema))
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newLoader(fiscal.DayFirst, SkipInvalid).Load(ctx, FormatCSV, strings.NewReader(header))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadSample(t *testing.T) {
	// GIVEN: a loader configured month-first; the sample is always day-first
	l := newLoader(fiscal.MonthFirst, RejectBatch)

	// WHEN
	res, err := l.LoadSample(context.Background())

	// THEN
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	assert.Len(t, res.Normalized, 36)
	assert.Equal(t, fiscal.DayFirst, res.Order)

	totals := fiscal.Total(res.Normalized)
	assert.True(t, decimal.RequireFromString("18462").Equal(totals.AbsAmount), totals.AbsAmount.String())
	assert.Equal(t, int64(-52), totals.Quantity)

	first := res.Normalized[0]
	assert.Equal(t, "2022-03-01", first.Date.String())
	assert.Equal(t, 2021, first.FiscalYear)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"csv", FormatCSV, true},
		{"sales.XLSX", FormatXLSX, true},
		{".json", FormatJSON, true},
		{"report.xlsm", FormatXLSX, true},
		{"xls", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, SkipInvalid, p)

	p, err = ParsePolicy(" Reject ")
	require.NoError(t, err)
	assert.Equal(t, RejectBatch, p)
	assert.Equal(t, "reject", p.String())

	_, err = ParsePolicy("ignore")
	assert.Error(t, err)
}
