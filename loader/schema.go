package loader

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/warp/fiscal-trends/fiscal"
)

// Column names of the required schema.
const (
	ColPostingDate = "Posting Date"
	ColItemID      = "Item No"
	ColDescription = "Description"
	ColSourceID    = "Source No"
	ColCustomer    = "Name"
	ColQuantity    = "Invoiced Quantity"
	ColAmount      = "Sales Amount"
)

// RequiredColumns is the schema every dataset must carry, in report order.
var RequiredColumns = []string{
	ColPostingDate, ColItemID, ColDescription, ColSourceID,
	ColCustomer, ColQuantity, ColAmount,
}

// normalizeHeader trims whitespace, quotes and a UTF-8 BOM from a header cell.
func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// columnIndex maps each required column to its position in header.
// The first occurrence wins when a header repeats.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	missing := lo.Filter(RequiredColumns, func(col string, _ int) bool {
		_, ok := idx[col]
		return !ok
	})
	if len(missing) > 0 {
		return nil, &fiscal.SchemaError{Missing: missing}
	}
	return idx, nil
}

// ParseTable reads a header row plus data rows into transaction records.
//
// A missing column fails the whole table with *fiscal.SchemaError. Rows whose
// quantity or amount cannot be parsed are returned as row errors; dates are
// left raw for the normalizer. Blank rows are ignored. Row numbers are source
// lines with the header on line 1.
func ParseTable(table [][]string) ([]fiscal.TransactionRecord, []*fiscal.RowError, error) {
	if len(table) == 0 {
		return nil, nil, &fiscal.SchemaError{Missing: append([]string(nil), RequiredColumns...)}
	}
	idx, err := columnIndex(table[0])
	if err != nil {
		return nil, nil, err
	}

	records := make([]fiscal.TransactionRecord, 0, len(table)-1)
	var rowErrs []*fiscal.RowError

	for i, row := range table[1:] {
		if isBlank(row) {
			continue
		}
		line := i + 2
		cell := func(col string) string {
			if j := idx[col]; j < len(row) {
				return strings.TrimSpace(row[j])
			}
			return ""
		}

		qty, err := parseQuantity(cell(ColQuantity))
		if err != nil {
			rowErrs = append(rowErrs, &fiscal.RowError{Row: line, Err: err})
			continue
		}
		amount, err := parseAmount(cell(ColAmount))
		if err != nil {
			rowErrs = append(rowErrs, &fiscal.RowError{Row: line, Err: err})
			continue
		}

		records = append(records, fiscal.TransactionRecord{
			Row:         line,
			PostingDate: cell(ColPostingDate),
			ItemID:      cell(ColItemID),
			Description: cell(ColDescription),
			SourceID:    cell(ColSourceID),
			Customer:    cell(ColCustomer),
			Quantity:    qty,
			Amount:      amount,
		})
	}
	return records, rowErrs, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var (
	maxQuantity = decimal.NewFromInt(math.MaxInt64)
	minQuantity = decimal.NewFromInt(math.MinInt64)
)

// parseQuantity accepts whole numbers, including spreadsheet renderings like "-1.0".
func parseQuantity(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty %s", fiscal.ErrInvalidValue, ColQuantity)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", fiscal.ErrInvalidValue, ColQuantity, s)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %s %q is not a whole number", fiscal.ErrInvalidValue, ColQuantity, s)
	}
	if d.GreaterThan(maxQuantity) || d.LessThan(minQuantity) {
		return 0, fmt.Errorf("%w: %s %q is out of range", fiscal.ErrInvalidValue, ColQuantity, s)
	}
	return d.IntPart(), nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty %s", fiscal.ErrInvalidValue, ColAmount)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a number", fiscal.ErrInvalidValue, ColAmount, s)
	}
	return d, nil
}
