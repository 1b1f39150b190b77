package fiscal_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-trends/fiscal"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		order fiscal.DateOrder
		want  string
	}{
		{"day first dash", "1-7-2022", fiscal.DayFirst, "2022-07-01"},
		{"month first dash", "1-7-2022", fiscal.MonthFirst, "2022-01-07"},
		{"day first slash", "15/09/2022", fiscal.DayFirst, "2022-09-15"},
		{"month first slash", "09/15/2022", fiscal.MonthFirst, "2022-09-15"},
		{"dotted", "30.06.2022", fiscal.DayFirst, "2022-06-30"},
		{"iso under day first", "2022-07-01", fiscal.DayFirst, "2022-07-01"},
		{"iso under month first", "2022-07-01", fiscal.MonthFirst, "2022-07-01"},
		{"time suffix", "2022-07-01 00:00:00", fiscal.DayFirst, "2022-07-01"},
		{"rfc3339", "2022-07-01T00:00:00Z", fiscal.MonthFirst, "2022-07-01"},
		{"padded", "  1-3-2022 ", fiscal.DayFirst, "2022-03-01"},
		{"leap day", "29-2-2024", fiscal.DayFirst, "2024-02-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fiscal.ParseDate(tt.input, tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseDate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		order fiscal.DateOrder
	}{
		{"empty", "", fiscal.DayFirst},
		{"both over 12", "13-13-2022", fiscal.DayFirst},
		{"month out of range for day first", "1-13-2022", fiscal.DayFirst},
		{"month out of range for month first", "15-9-2022", fiscal.MonthFirst},
		{"not a leap year", "29-2-2023", fiscal.DayFirst},
		{"31 april", "31-4-2022", fiscal.DayFirst},
		{"two digit year", "1-7-22", fiscal.DayFirst},
		{"words", "July 1 2022", fiscal.DayFirst},
		{"two fields", "1-7", fiscal.DayFirst},
		{"day zero", "0-7-2022", fiscal.DayFirst},
		{"signed fields", "+1/+7/2022", fiscal.DayFirst},
		{"signed iso month", "2022-+7-01", fiscal.MonthFirst},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fiscal.ParseDate(tt.input, tt.order)
			require.Error(t, err)
			assert.True(t, errors.Is(err, fiscal.ErrDateParse))

			var dpe *fiscal.DateParseError
			require.ErrorAs(t, err, &dpe)
			assert.Equal(t, tt.input, dpe.Input)
			assert.Equal(t, tt.order, dpe.Order)
		})
	}
}

func TestParseDateOrder(t *testing.T) {
	o, err := fiscal.ParseDateOrder("day_first")
	require.NoError(t, err)
	assert.Equal(t, fiscal.DayFirst, o)

	o, err = fiscal.ParseDateOrder("month-first")
	require.NoError(t, err)
	assert.Equal(t, fiscal.MonthFirst, o)

	_, err = fiscal.ParseDateOrder("guess")
	assert.Error(t, err)
}
