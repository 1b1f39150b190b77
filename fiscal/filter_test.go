package fiscal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-trends/fiscal"
)

func TestParseFilterSpec_AllMeansUnrestricted(t *testing.T) {
	spec, err := fiscal.ParseFilterSpec("All", "", "all", "ALL")
	require.NoError(t, err)
	assert.True(t, spec.IsZero())
	assert.Equal(t, fiscal.FilterSpec{}.Key(), spec.Key())
	assert.Empty(t, spec.Describe())
}

func TestParseFilterSpec_Values(t *testing.T) {
	spec, err := fiscal.ParseFilterSpec(" Cafe Roma ", "2023", "december", "2022")
	require.NoError(t, err)

	assert.Equal(t, "Cafe Roma", spec.Customer)
	require.NotNil(t, spec.CalendarYear)
	assert.Equal(t, 2023, *spec.CalendarYear)
	require.NotNil(t, spec.CalendarMonth)
	assert.Equal(t, time.December, *spec.CalendarMonth)
	require.NotNil(t, spec.FiscalYear)
	assert.Equal(t, 2022, *spec.FiscalYear)
	assert.Equal(t, `customer="Cafe Roma";year=2023;month=December;fy=2022`, spec.Key())
}

func TestParseFilterSpec_Invalid(t *testing.T) {
	cases := [][4]string{
		{"", "twenty", "", ""},
		{"", "", "Juli", ""},
		{"", "", "", "FY22"},
	}
	for _, c := range cases {
		_, err := fiscal.ParseFilterSpec(c[0], c[1], c[2], c[3])
		assert.ErrorIs(t, err, fiscal.ErrInvalidFilter, "%v", c)
		assert.True(t, fiscal.IsClientError(err))
	}
}

func TestFilter_PreservesOrderAndInput(t *testing.T) {
	records := fixture(t)
	before := make([]fiscal.NormalizedRecord, len(records))
	copy(before, records)

	got := fiscal.Filter(records, fiscal.FilterSpec{Customer: "Online Subscription"})

	assert.Equal(t, before, records, "input must not be mutated")
	require.Len(t, got, 6)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Date.Before(got[i-1].Date), "fixture order is chronological and must be kept")
	}
	for _, r := range got {
		assert.Equal(t, "Online Subscription", r.Customer)
	}
}

func TestFilter_Conjunction(t *testing.T) {
	records := fixture(t)

	got := fiscal.Filter(records, fiscal.FilterSpec{
		Customer:     "Online Subscription",
		CalendarYear: intp(2022),
		FiscalYear:   intp(2021),
	})
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, time.June, r.Month)
	}

	got = fiscal.Filter(records, fiscal.FilterSpec{CalendarMonth: monthp(time.December)})
	assert.Len(t, got, 2)
}

func TestFilter_EmptySpecKeepsEverything(t *testing.T) {
	records := fixture(t)
	assert.Equal(t, records, fiscal.Filter(records, fiscal.FilterSpec{}))
	assert.Equal(t, records, fiscal.Filter(records, fiscal.FilterSpec{Customer: "All"}))
	assert.NotNil(t, fiscal.Filter(nil, fiscal.FilterSpec{}))
}

func TestWithDateRange_InclusiveBounds(t *testing.T) {
	// GIVEN: a range spanning the FY2021/FY2022 boundary week
	spec, err := fiscal.FilterSpec{}.WithDateRange("2022-06-30", "2022-07-07")
	require.NoError(t, err)

	// WHEN
	got := fiscal.Filter(fixture(t), spec)

	// THEN: both end days are kept
	require.Len(t, got, 4)
	assert.Equal(t, "2022-06-30", got[0].Date.String())
	assert.Equal(t, "2022-07-07", got[3].Date.String())
	assert.False(t, spec.IsZero())
	assert.Equal(t, "customer=All;year=All;month=All;fy=All;from=2022-06-30;to=2022-07-07", spec.Key())
	assert.Equal(t, []string{"From: 2022-06-30", "To: 2022-07-07"}, spec.Describe())
}

func TestWithDateRange_OpenEnded(t *testing.T) {
	base, err := fiscal.ParseFilterSpec("Cafe Roma", "", "", "")
	require.NoError(t, err)

	spec, err := base.WithDateRange("2023-01-01", "")
	require.NoError(t, err)
	assert.Nil(t, spec.DateTo)
	assert.Equal(t, "Cafe Roma", spec.Customer)
	assert.Len(t, fiscal.Filter(fixture(t), spec), 2)

	spec, err = base.WithDateRange("", "2022-07-03")
	require.NoError(t, err)
	assert.Nil(t, spec.DateFrom)
	assert.Len(t, fiscal.Filter(fixture(t), spec), 1)
}

func TestWithDateRange_Invalid(t *testing.T) {
	cases := [][2]string{
		{"01/07/2022", ""},
		{"", "2022-13-01"},
		{"2022-07-08", "2022-07-01"},
	}
	for _, c := range cases {
		_, err := fiscal.FilterSpec{}.WithDateRange(c[0], c[1])
		assert.ErrorIs(t, err, fiscal.ErrInvalidFilter, "%v", c)
	}
}
