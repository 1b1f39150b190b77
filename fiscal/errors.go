/*
errors.go - Error taxonomy for loading and normalizing sales records

ERROR CATEGORIES:
  1. Date errors   - a posting date that cannot be read under the declared order
  2. Schema errors - a dataset missing required columns (batch-fatal)
  3. Value errors  - a quantity or amount cell that is not a number

  An empty filter result is NOT an error. See Report.Empty.

USAGE:
  if errors.Is(err, fiscal.ErrSchema) {
      // reject the whole upload
  }

  var rowErr *fiscal.RowError
  if errors.As(err, &rowErr) {
      log.Printf("row %d skipped: %v", rowErr.Row, rowErr.Err)
  }
*/
package fiscal

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDateParse is returned when a posting date cannot be parsed, or is
	// ambiguous under the declared day/month order.
	ErrDateParse = errors.New("unparseable posting date")

	// ErrSchema is returned when required columns are absent.
	ErrSchema = errors.New("missing required columns")

	// ErrInvalidValue is returned when a numeric cell cannot be parsed.
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidFilter is returned when a filter value cannot be parsed.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrNoDataset is returned when a rollup is requested before any load.
	ErrNoDataset = errors.New("no dataset loaded")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// DateParseError describes a rejected posting date.
type DateParseError struct {
	Input  string
	Order  DateOrder
	Reason string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("cannot parse date %q as %s: %s", e.Input, e.Order, e.Reason)
}

func (e *DateParseError) Unwrap() error { return ErrDateParse }

// SchemaError lists the required columns a dataset is missing.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// RowError ties a per-record failure to its 1-based source row.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// IsClientError returns true if the error is due to bad input data or filters.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDateParse) ||
		errors.Is(err, ErrSchema) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrInvalidFilter)
}
