package loader

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV reads a comma-separated table. Ragged rows are tolerated; the
// schema check decides what is missing.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}
