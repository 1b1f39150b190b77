/*
Package loader turns uploaded sales sheets into fiscal.TransactionRecords.

PURPOSE:
  Everything upstream of the engine: reading CSV, XLSX or JSON, enforcing
  the required-column schema, parsing quantities and amounts, and running
  the normalizer under the caller's declared date order.

REQUIRED COLUMNS:
  Posting Date, Item No, Description, Source No, Name,
  Invoiced Quantity, Sales Amount

  A dataset missing any of these is rejected with *fiscal.SchemaError
  before a single row is read.

ROW ERRORS:
  Bad dates, quantities or amounts are collected per row. Policy decides
  what happens next:
    SkipInvalid: drop the rows, report them in Result.Skipped
    RejectBatch: fail the whole load with *BatchError

USAGE:
  l := loader.New(loader.Options{Order: fiscal.DayFirst}, log)
  res, err := l.Load(ctx, loader.FormatCSV, file)
  if err != nil {
      return err
  }
  log.Info().Msg(res.Summary())

SEE ALSO:
  - fiscal/normalize.go: what happens to each record after parsing
  - dataset/dataset.go:  wraps a Result into an immutable dataset
*/
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/warp/fiscal-trends/fiscal"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Format is the encoding of an uploaded dataset.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name or a file name / extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[i+1:]
	}
	switch s {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use csv, xlsx or json)", s)
	}
}

// Policy decides what a row-level error does to the batch.
type Policy int

const (
	SkipInvalid Policy = iota
	RejectBatch
)

func (p Policy) String() string {
	if p == RejectBatch {
		return "reject"
	}
	return "skip"
}

// ParsePolicy accepts "skip" or "reject".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipInvalid, nil
	case "reject":
		return RejectBatch, nil
	default:
		return SkipInvalid, fmt.Errorf("unknown row policy %q (use skip or reject)", s)
	}
}

type Options struct {
	Order  fiscal.DateOrder
	Policy Policy
}

// =============================================================================
// RESULT
// =============================================================================

// Result is one successful load.
type Result struct {
	Order      fiscal.DateOrder
	Raw        []fiscal.TransactionRecord // rows whose values parsed, before normalization
	Normalized []fiscal.NormalizedRecord
	Skipped    []*fiscal.RowError
	Total      int // data rows read
}

// Summary reports the rows kept and dropped.
func (r *Result) Summary() string {
	if len(r.Skipped) == 0 {
		return fmt.Sprintf("%d of %d rows loaded", len(r.Normalized), r.Total)
	}
	return fmt.Sprintf("%d of %d rows loaded, %d skipped (%s)",
		len(r.Normalized), r.Total, len(r.Skipped), skipReasons(r.Skipped))
}

func skipReasons(errs []*fiscal.RowError) string {
	dates, values := 0, 0
	for _, e := range errs {
		if errors.Is(e, fiscal.ErrDateParse) {
			dates++
		} else {
			values++
		}
	}
	var parts []string
	if dates > 0 {
		parts = append(parts, fmt.Sprintf("%d unparseable dates", dates))
	}
	if values > 0 {
		parts = append(parts, fmt.Sprintf("%d invalid values", values))
	}
	return strings.Join(parts, ", ")
}

// BatchError fails a RejectBatch load that hit row errors.
type BatchError struct {
	Errors []*fiscal.RowError
	Total  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d rows invalid, batch rejected; first: %v", len(e.Errors), e.Total, e.Errors[0])
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, re := range e.Errors {
		errs[i] = re
	}
	return errs
}

// =============================================================================
// LOADER
// =============================================================================

type Loader struct {
	opts Options
	log  zerolog.Logger
}

func New(opts Options, log zerolog.Logger) *Loader {
	return &Loader{opts: opts, log: log.With().Str("component", "loader").Logger()}
}

// Options returns the loader's configured options.
func (l *Loader) Options() Options { return l.opts }

// WithOptions returns a copy using different options, e.g. a per-upload date order.
func (l *Loader) WithOptions(opts Options) *Loader {
	return &Loader{opts: opts, log: l.log}
}

// Load reads a dataset of the given format and normalizes it.
func (l *Loader) Load(ctx context.Context, format Format, r io.Reader) (*Result, error) {
	var (
		table [][]string
		err   error
	)
	switch format {
	case FormatCSV:
		table, err = ReadCSV(r)
	case FormatXLSX:
		table, err = ReadXLSX(r)
	case FormatJSON:
		table, err = ReadJSON(r)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", format, err)
	}
	return l.LoadTable(ctx, table)
}

// LoadSample loads the built-in demonstration dataset. Its dates are day-first
// regardless of the loader's configured order.
func (l *Loader) LoadSample(ctx context.Context) (*Result, error) {
	sample := l.WithOptions(Options{Order: fiscal.DayFirst, Policy: l.opts.Policy})
	return sample.LoadTable(ctx, SampleTable())
}

// LoadTable parses a header row plus data rows.
func (l *Loader) LoadTable(ctx context.Context, table [][]string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, rowErrs, err := ParseTable(table)
	if err != nil {
		return nil, err
	}

	n := fiscal.Normalizer{Order: l.opts.Order}
	norm := n.NormalizeAll(records)

	skipped := append(rowErrs, norm.Skipped...)
	sort.SliceStable(skipped, func(i, j int) bool { return skipped[i].Row < skipped[j].Row })
	total := len(records) + len(rowErrs)

	if len(skipped) > 0 && l.opts.Policy == RejectBatch {
		l.log.Warn().Int("invalid", len(skipped)).Int("total", total).Msg("batch rejected")
		return nil, &BatchError{Errors: skipped, Total: total}
	}

	res := &Result{
		Order:      l.opts.Order,
		Raw:        records,
		Normalized: norm.Records,
		Skipped:    skipped,
		Total:      total,
	}
	evt := l.log.Info()
	if len(skipped) > 0 {
		evt = l.log.Warn()
	}
	evt.Int("rows", total).Int("skipped", len(skipped)).Str("date_order", l.opts.Order.String()).Msg(res.Summary())
	return res, nil
}
