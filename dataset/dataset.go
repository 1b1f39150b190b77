/*
Package dataset holds the loaded sales data and serves rollups over it.

PURPOSE:
  A Dataset is an immutable snapshot of one load: the normalized records
  plus the rows that were skipped. The Registry holds exactly one current
  Dataset; loading a new file replaces it whole and drops every cached
  rollup computed against the old one.

CONCURRENCY:
  One producer (the loader) swaps datasets; any number of readers request
  reports. Readers never see a half-built dataset because the swap is a
  single pointer assignment under a write lock.

USAGE:
  reg := dataset.NewRegistry(128, log)
  reg.Replace(dataset.New("sales.xlsx", result, time.Now()))
  report, ds, err := reg.Report(ctx, spec)

SEE ALSO:
  - loader/loader.go: produces the Result a Dataset wraps
  - fiscal/aggregate.go: the rollups
*/
package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/warp/fiscal-trends/fiscal"
	"github.com/warp/fiscal-trends/loader"
)

// =============================================================================
// DATASET - Immutable snapshot of one load
// =============================================================================

type Dataset struct {
	ID       string    // content fingerprint; equal inputs give equal IDs
	LoadID   uuid.UUID // unique per load, even for identical content
	Name     string
	Order    fiscal.DateOrder
	LoadedAt time.Time

	Records []fiscal.NormalizedRecord
	Skipped []*fiscal.RowError
	Total   int // data rows read, including skipped ones
}

// New wraps a loader result. The result must not be modified afterwards.
func New(name string, res *loader.Result, loadedAt time.Time) *Dataset {
	return &Dataset{
		ID:       Fingerprint(res.Order, res.Raw),
		LoadID:   uuid.New(),
		Name:     name,
		Order:    res.Order,
		LoadedAt: loadedAt.UTC(),
		Records:  res.Normalized,
		Skipped:  res.Skipped,
		Total:    res.Total,
	}
}

// ShortID is the first 12 hex digits of the fingerprint.
func (d *Dataset) ShortID() string {
	if len(d.ID) <= 12 {
		return d.ID
	}
	return d.ID[:12]
}

// Summary reports how much of the source survived loading.
func (d *Dataset) Summary() string {
	if len(d.Skipped) == 0 {
		return fmt.Sprintf("%d of %d rows loaded", len(d.Records), d.Total)
	}
	return fmt.Sprintf("%d of %d rows loaded, %d skipped", len(d.Records), d.Total, len(d.Skipped))
}

// Options lists the filter values present in the dataset.
func (d *Dataset) Options() fiscal.FilterOptions {
	return fiscal.Options(d.Records)
}

// DateRange returns the earliest and latest posting dates. ok is false for
// an empty dataset.
func (d *Dataset) DateRange() (from, to fiscal.Date, ok bool) {
	for i, r := range d.Records {
		if i == 0 || r.Date.Before(from) {
			from = r.Date
		}
		if i == 0 || r.Date.After(to) {
			to = r.Date
		}
	}
	return from, to, len(d.Records) > 0
}

// =============================================================================
// FINGERPRINT
// =============================================================================

// Fingerprint hashes the raw rows and the date order they were read under.
// Row numbers are excluded so a re-export with different blank lines
// fingerprints the same.
func Fingerprint(order fiscal.DateOrder, raw []fiscal.TransactionRecord) string {
	h := sha256.New()
	io.WriteString(h, order.String())
	for _, r := range raw {
		fmt.Fprintf(h, "\n%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%d\x1f%s",
			r.PostingDate, r.ItemID, r.Description, r.SourceID, r.Customer,
			r.Quantity, r.Amount.String())
	}
	return hex.EncodeToString(h.Sum(nil))
}
