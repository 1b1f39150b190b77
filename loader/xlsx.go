package loader

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first sheet of a workbook.
//
// Cells are read raw so amounts keep their stored precision. Posting dates
// stored as Excel serial numbers are rendered as ISO dates, which every
// DateOrder accepts.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	dateCol := -1
	for i, h := range rows[0] {
		if normalizeHeader(h) == ColPostingDate {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return rows, nil
	}
	for _, row := range rows[1:] {
		if dateCol < len(row) {
			row[dateCol] = serialToISO(row[dateCol])
		}
	}
	return rows, nil
}

// serialToISO converts an Excel date serial to YYYY-MM-DD, leaving any
// other text untouched.
func serialToISO(cell string) string {
	serial, err := strconv.ParseFloat(cell, 64)
	if err != nil || serial <= 0 {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell
	}
	return t.Format("2006-01-02")
}
