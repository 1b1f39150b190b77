package fiscal

import (
	"errors"
	"fmt"
)

// Normalizer derives NormalizedRecords. Order is the declared day/month order
// of every PostingDate it sees.
type Normalizer struct {
	Order DateOrder
}

// Normalize parses the posting date and derives the calendar keys.
// It fails only with a *DateParseError.
func (n Normalizer) Normalize(rec TransactionRecord) (NormalizedRecord, error) {
	d, err := ParseDate(rec.PostingDate, n.Order)
	if err != nil {
		return NormalizedRecord{}, err
	}
	return Derive(rec, d), nil
}

// Derive computes the calendar keys for an already parsed date.
func Derive(rec TransactionRecord, d Date) NormalizedRecord {
	fy := FiscalYearOf(d)
	weekStart := FiscalWeekStart(d)
	week, floored := WeekNumber(weekStart, fy)

	return NormalizedRecord{
		TransactionRecord: rec,
		Date:              d,
		Year:              d.Year(),
		Month:             d.Month(),
		FiscalYear:        fy,
		FiscalWeekStart:   weekStart,
		WeekNumber:        week,
		WeekFloored:       floored,
		Season:            ClassifySeason(d.Month()),
		AbsAmount:         rec.Amount.Abs(),
	}
}

// =============================================================================
// BATCH NORMALIZATION
// =============================================================================

// NormalizeResult holds the records that normalized and the rows that did not.
type NormalizeResult struct {
	Records []NormalizedRecord
	Skipped []*RowError
	Total   int
}

// NormalizeAll normalizes every record, collecting failures per row instead of
// stopping at the first one. Input order is preserved.
func (n Normalizer) NormalizeAll(records []TransactionRecord) NormalizeResult {
	res := NormalizeResult{
		Records: make([]NormalizedRecord, 0, len(records)),
		Total:   len(records),
	}
	for i, rec := range records {
		nr, err := n.Normalize(rec)
		if err != nil {
			row := rec.Row
			if row == 0 {
				row = i + 1
			}
			res.Skipped = append(res.Skipped, &RowError{Row: row, Err: err})
			continue
		}
		res.Records = append(res.Records, nr)
	}
	return res
}

// Summary reports how many rows were dropped, e.g.
// "2 of 40 rows skipped due to unparseable dates".
func (r NormalizeResult) Summary() string {
	if len(r.Skipped) == 0 {
		return fmt.Sprintf("%d of %d rows normalized", len(r.Records), r.Total)
	}
	return fmt.Sprintf("%d of %d rows skipped due to unparseable dates", len(r.Skipped), r.Total)
}

// Err joins the skipped row errors, or returns nil when none were skipped.
func (r NormalizeResult) Err() error {
	if len(r.Skipped) == 0 {
		return nil
	}
	errs := make([]error, len(r.Skipped))
	for i, e := range r.Skipped {
		errs[i] = e
	}
	return errors.Join(errs...)
}
