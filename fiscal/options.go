package fiscal

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// FilterOptions are the selectable values for each FilterSpec dimension.
// Customers and Months are headed by AllValue.
type FilterOptions struct {
	Customers   []string
	Years       []int // descending
	FiscalYears []int // descending
	Months      []string
}

// Options derives selector values from a record set.
func Options(records []NormalizedRecord) FilterOptions {
	customers := lo.Uniq(lo.Map(records, func(r NormalizedRecord, _ int) string { return r.Customer }))
	sort.Strings(customers)

	years := lo.Uniq(lo.Map(records, func(r NormalizedRecord, _ int) int { return r.Year }))
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	fiscalYears := lo.Uniq(lo.Map(records, func(r NormalizedRecord, _ int) int { return r.FiscalYear }))
	sort.Sort(sort.Reverse(sort.IntSlice(fiscalYears)))

	return FilterOptions{
		Customers:   append([]string{AllValue}, customers...),
		Years:       years,
		FiscalYears: fiscalYears,
		Months:      MonthNames(),
	}
}

// MonthNames returns "All" followed by January..December.
func MonthNames() []string {
	names := []string{AllValue}
	for m := time.January; m <= time.December; m++ {
		names = append(names, m.String())
	}
	return names
}
