/*
Package sqlite exports a dataset and its rollups into a SQLite file.

PURPOSE:
  Downstream tools (spreadsheets, BI, ad-hoc SQL) want the derived fiscal
  keys and rollups without re-implementing the calendar. An export is a
  snapshot: every write replaces the previous contents in one transaction.
  The engine never reads these tables back.

KEY TABLES:
  exports:             one row describing the dataset and filter exported
  records:             normalized records with their derived keys
  skipped_rows:        rows the loader dropped, with the reason
  weekly:              week rollup (Friday to Thursday)
  monthly:             calendar month rollup with season
  fiscal_year_monthly: fiscal year x month rollup

  Amounts are stored as TEXT decimals so no precision is lost.

USAGE:
  store, err := sqlite.New("./trends.db")
  if err != nil {
      return err
  }
  defer store.Close()
  err = store.WriteDataset(ctx, ds, report)

SEE ALSO:
  - dataset/registry.go: where reports come from
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/fiscal-trends/dataset"
	"github.com/warp/fiscal-trends/fiscal"
)

// Store writes exports to a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exports (
		dataset_id TEXT NOT NULL,
		load_id TEXT NOT NULL,
		name TEXT NOT NULL,
		date_order TEXT NOT NULL,
		loaded_at TEXT NOT NULL,
		filter_key TEXT NOT NULL,
		total_rows INTEGER NOT NULL,
		skipped_rows INTEGER NOT NULL,
		exported_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		source_row INTEGER NOT NULL,
		posting_date TEXT NOT NULL,
		item_no TEXT NOT NULL,
		description TEXT NOT NULL,
		source_no TEXT NOT NULL,
		customer TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		amount TEXT NOT NULL,
		abs_amount TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		fiscal_year INTEGER NOT NULL,
		fiscal_week_start TEXT NOT NULL,
		week_number INTEGER NOT NULL CHECK (week_number BETWEEN 1 AND 53),
		week_floored INTEGER NOT NULL,
		season TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_customer ON records(customer);
	CREATE INDEX IF NOT EXISTS idx_records_fiscal_week ON records(fiscal_year, fiscal_week_start);

	CREATE TABLE IF NOT EXISTS skipped_rows (
		source_row INTEGER NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS weekly (
		week_start TEXT NOT NULL,
		week_number INTEGER NOT NULL,
		label TEXT NOT NULL,
		abs_amount TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		records INTEGER NOT NULL,
		PRIMARY KEY (week_start, week_number)
	);

	CREATE TABLE IF NOT EXISTS monthly (
		month INTEGER PRIMARY KEY,
		month_name TEXT NOT NULL,
		season TEXT NOT NULL,
		abs_amount TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		records INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fiscal_year_monthly (
		fiscal_year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		month_name TEXT NOT NULL,
		season TEXT NOT NULL,
		abs_amount TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		records INTEGER NOT NULL,
		PRIMARY KEY (fiscal_year, month)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// tables in delete order.
var tables = []string{"exports", "records", "skipped_rows", "weekly", "monthly", "fiscal_year_monthly"}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// EXPORT
// =============================================================================

// WriteDataset replaces the database contents with ds and rep. Either the
// whole export lands or none of it does.
func (s *Store) WriteDataset(ctx context.Context, ds *dataset.Dataset, rep *fiscal.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, table := range tables {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	steps := []func(context.Context, execer) error{
		func(ctx context.Context, db execer) error { return writeExport(ctx, db, ds, rep.Spec) },
		func(ctx context.Context, db execer) error { return writeRecords(ctx, db, rep.Records) },
		func(ctx context.Context, db execer) error { return writeSkipped(ctx, db, ds.Skipped) },
		func(ctx context.Context, db execer) error { return writeWeekly(ctx, db, rep.Weekly) },
		func(ctx context.Context, db execer) error { return writeMonthly(ctx, db, rep.Monthly) },
		func(ctx context.Context, db execer) error { return writeFiscalYearMonthly(ctx, db, rep.FiscalYearMonths) },
	}
	for _, step := range steps {
		if err := step(ctx, sqlTx); err != nil {
			return err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}

func writeExport(ctx context.Context, db execer, ds *dataset.Dataset, spec fiscal.FilterSpec) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO exports
		(dataset_id, load_id, name, date_order, loaded_at, filter_key, total_rows, skipped_rows, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.ID,
		ds.LoadID.String(),
		ds.Name,
		ds.Order.String(),
		ds.LoadedAt.Format(time.RFC3339),
		spec.Key(),
		ds.Total,
		len(ds.Skipped),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	return nil
}

func writeRecords(ctx context.Context, db execer, records []fiscal.NormalizedRecord) error {
	query := `
		INSERT INTO records
		(source_row, posting_date, item_no, description, source_no, customer, quantity, amount,
		 abs_amount, year, month, fiscal_year, fiscal_week_start, week_number, week_floored, season)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, r := range records {
		_, err := db.ExecContext(ctx, query,
			r.Row,
			r.Date.String(),
			r.ItemID,
			r.Description,
			r.SourceID,
			r.Customer,
			r.Quantity,
			r.Amount.String(),
			r.AbsAmount.String(),
			r.Year,
			int(r.Month),
			r.FiscalYear,
			r.FiscalWeekStart.String(),
			r.WeekNumber,
			r.WeekFloored,
			string(r.Season),
		)
		if err != nil {
			return fmt.Errorf("failed to write record from row %d: %w", r.Row, err)
		}
	}
	return nil
}

func writeSkipped(ctx context.Context, db execer, skipped []*fiscal.RowError) error {
	for _, e := range skipped {
		if _, err := db.ExecContext(ctx, `INSERT INTO skipped_rows (source_row, reason) VALUES (?, ?)`,
			e.Row, e.Err.Error()); err != nil {
			return fmt.Errorf("failed to write skipped row %d: %w", e.Row, err)
		}
	}
	return nil
}

func writeWeekly(ctx context.Context, db execer, rows []fiscal.WeekRow) error {
	for _, w := range rows {
		_, err := db.ExecContext(ctx, `
			INSERT INTO weekly (week_start, week_number, label, abs_amount, quantity, records)
			VALUES (?, ?, ?, ?, ?, ?)`,
			w.WeekStart.String(), w.WeekNumber, w.Label(), w.AbsAmount.String(), w.Quantity, w.Records)
		if err != nil {
			return fmt.Errorf("failed to write week %s: %w", w.WeekStart, err)
		}
	}
	return nil
}

func writeMonthly(ctx context.Context, db execer, rows []fiscal.MonthRow) error {
	for _, m := range rows {
		_, err := db.ExecContext(ctx, `
			INSERT INTO monthly (month, month_name, season, abs_amount, quantity, records)
			VALUES (?, ?, ?, ?, ?, ?)`,
			int(m.Month), m.Month.String(), string(m.Season), m.AbsAmount.String(), m.Quantity, m.Records)
		if err != nil {
			return fmt.Errorf("failed to write month %s: %w", m.Month, err)
		}
	}
	return nil
}

func writeFiscalYearMonthly(ctx context.Context, db execer, rows []fiscal.FiscalYearMonthRow) error {
	for _, r := range rows {
		_, err := db.ExecContext(ctx, `
			INSERT INTO fiscal_year_monthly (fiscal_year, month, month_name, season, abs_amount, quantity, records)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.FiscalYear, int(r.Month), r.Month.String(), string(r.Season), r.AbsAmount.String(), r.Quantity, r.Records)
		if err != nil {
			return fmt.Errorf("failed to write FY%d %s: %w", r.FiscalYear, r.Month, err)
		}
	}
	return nil
}

// =============================================================================
// INSPECTION
// =============================================================================

// Counts returns the row count of every export table.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
