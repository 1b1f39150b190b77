package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/fiscal-trends/api"
	"github.com/warp/fiscal-trends/dataset"
	"github.com/warp/fiscal-trends/export/sqlite"
	"github.com/warp/fiscal-trends/fiscal"
	"github.com/warp/fiscal-trends/loader"
	"github.com/warp/fiscal-trends/logger"
)

var errUsage = errors.New("usage")

type rootOptions struct {
	file      string
	format    string
	dateOrder string
	onError   string

	customer   string
	year       string
	month      string
	fiscalYear string
	from       string
	to         string

	json     bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "trends",
		Short:         "Fiscal-calendar sales rollups (July-June years, Friday-Thursday weeks)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.file, "file", "", "Dataset file (.csv, .xlsx, .json); the built-in sample when empty")
	pf.StringVar(&opts.format, "format", "", "csv, xlsx or json (default: from the file extension)")
	pf.StringVar(&opts.dateOrder, "date-order", "day_first", "Posting date order: day_first or month_first")
	pf.StringVar(&opts.onError, "on-error", "skip", "Invalid rows: skip or reject")
	pf.StringVar(&opts.customer, "customer", "", "Customer name (default: all)")
	pf.StringVar(&opts.year, "year", "", "Calendar year (default: all)")
	pf.StringVar(&opts.month, "month", "", "Calendar month name (default: all)")
	pf.StringVar(&opts.fiscalYear, "fiscal-year", "", "Fiscal year, named by its starting year (default: all)")
	pf.StringVar(&opts.from, "from", "", "First posting date, YYYY-MM-DD (inclusive)")
	pf.StringVar(&opts.to, "to", "", "Last posting date, YYYY-MM-DD (inclusive)")
	pf.BoolVar(&opts.json, "json", false, "Print JSON instead of a table")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level for diagnostics on stderr")

	cmd.AddCommand(
		newReportCmd(&opts, "weekly", "Weekly rollup (Friday to Thursday)", printWeekly),
		newReportCmd(&opts, "monthly", "Monthly rollup with season", printMonthly),
		newReportCmd(&opts, "fiscal-years", "Fiscal year x month rollup", printFiscalYears),
		newReportCmd(&opts, "records", "Filtered records with derived keys", printRecords),
		newFiltersCmd(&opts),
		newExportCmd(&opts),
	)
	return cmd
}

type printer func(w io.Writer, ds *dataset.Dataset, rep *fiscal.Report, asJSON bool) error

func newReportCmd(opts *rootOptions, use, short string, print printer) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, rep, err := opts.run(cmd)
			if err != nil {
				return err
			}
			if rep.Empty && !opts.json {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: no data matches the selected filters")
			}
			return print(cmd.OutOrStdout(), ds, rep, opts.json)
		},
	}
}

func newFiltersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List selectable filter values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.load(cmd)
			if err != nil {
				return err
			}
			resp := api.NewFiltersResponse(ds)
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Customers\t%s\n", strings.Join(resp.Customers, ", "))
			fmt.Fprintf(tw, "Years\t%s\n", joinInts(resp.Years))
			fmt.Fprintf(tw, "Fiscal years\t%s\n", joinInts(resp.FiscalYears))
			fmt.Fprintf(tw, "Months\t%s\n", strings.Join(resp.Months, ", "))
			if resp.DateFrom != "" {
				fmt.Fprintf(tw, "Dates\t%s to %s\n", resp.DateFrom, resp.DateTo)
			}
			return tw.Flush()
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered report to a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, rep, err := opts.run(cmd)
			if err != nil {
				return err
			}
			store, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.WriteDataset(cmd.Context(), ds, rep); err != nil {
				return err
			}
			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), counts)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records, %d weeks, %d months, %d fiscal-year months to %s\n",
				counts["records"], counts["weekly"], counts["monthly"], counts["fiscal_year_monthly"], dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "trends.db", "SQLite database path")
	return cmd
}

// =============================================================================
// LOADING
// =============================================================================

func (o *rootOptions) logger(cmd *cobra.Command) zerolog.Logger {
	return logger.New(logger.Options{Level: o.logLevel, Out: cmd.ErrOrStderr()})
}

// load reads --file (or the sample) into a dataset.
func (o *rootOptions) load(cmd *cobra.Command) (*dataset.Dataset, error) {
	order, err := fiscal.ParseDateOrder(o.dateOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: --date-order: %v", errUsage, err)
	}
	policy, err := loader.ParsePolicy(o.onError)
	if err != nil {
		return nil, fmt.Errorf("%w: --on-error: %v", errUsage, err)
	}
	ld := loader.New(loader.Options{Order: order, Policy: policy}, o.logger(cmd))
	ctx := cmd.Context()

	if o.file == "" {
		res, err := ld.LoadSample(ctx)
		if err != nil {
			return nil, err
		}
		return dataset.New("sample", res, time.Now()), nil
	}

	formatName := o.format
	if formatName == "" {
		formatName = o.file
	}
	format, err := loader.ParseFormat(formatName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	f, err := os.Open(o.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := ld.Load(ctx, format, f)
	if err != nil {
		return nil, err
	}
	for _, skipped := range res.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %v\n", skipped)
	}
	return dataset.New(filepath.Base(o.file), res, time.Now()), nil
}

// run loads the dataset and computes the report for the filter flags.
func (o *rootOptions) run(cmd *cobra.Command) (*dataset.Dataset, *fiscal.Report, error) {
	spec, err := fiscal.ParseFilterSpec(o.customer, o.year, o.month, o.fiscalYear)
	if err == nil {
		spec, err = spec.WithDateRange(o.from, o.to)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	ds, err := o.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	rep, err := dataset.Compute(cmd.Context(), ds.Records, spec)
	if err != nil {
		return nil, nil, err
	}
	return ds, rep, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWeekly(w io.Writer, ds *dataset.Dataset, rep *fiscal.Report, asJSON bool) error {
	if asJSON {
		return writeJSON(w, api.NewWeeklyResponse(ds, rep))
	}
	fmt.Fprintln(w, rep.Title())
	tw := newTable(w)
	fmt.Fprintln(tw, "WEEK\tSTART\tEND\tSALES\tQTY\tROWS")
	for _, r := range rep.Weekly {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n",
			r.WeekNumber, r.WeekStart, r.WeekStart.AddDays(6), r.AbsAmount.StringFixed(2), r.Quantity, r.Records)
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%s\t%d\t%d\n", rep.Totals.AbsAmount.StringFixed(2), rep.Totals.Quantity, rep.Totals.Records)
	if err := tw.Flush(); err != nil {
		return err
	}
	printSummary(w, rep)
	return nil
}

func printSummary(w io.Writer, rep *fiscal.Report) {
	fmt.Fprintf(w, "Unique products: %d  Avg order value: %s\n", rep.UniqueItems, rep.AvgOrderValue.StringFixed(2))
}

func printMonthly(w io.Writer, ds *dataset.Dataset, rep *fiscal.Report, asJSON bool) error {
	if asJSON {
		return writeJSON(w, api.NewMonthlyResponse(ds, rep))
	}
	fmt.Fprintln(w, api.MonthlyTitle)
	tw := newTable(w)
	fmt.Fprintln(tw, "MONTH\tSEASON\tSALES\tQTY\tROWS")
	for _, r := range rep.Monthly {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			r.Month, r.Season.Label(), r.AbsAmount.StringFixed(2), r.Quantity, r.Records)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printSummary(w, rep)
	return nil
}

func printFiscalYears(w io.Writer, ds *dataset.Dataset, rep *fiscal.Report, asJSON bool) error {
	if asJSON {
		return writeJSON(w, api.NewFiscalYearsResponse(ds, rep))
	}
	fmt.Fprintln(w, api.FiscalYearsTitle)
	tw := newTable(w)
	fmt.Fprintln(tw, "FY\tMONTH\tSEASON\tSALES\tQTY\tROWS")
	for _, r := range rep.FiscalYearMonths {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n",
			r.FiscalYear, r.Month, r.Season, r.AbsAmount.StringFixed(2), r.Quantity, r.Records)
	}
	return tw.Flush()
}

func printRecords(w io.Writer, ds *dataset.Dataset, rep *fiscal.Report, asJSON bool) error {
	if asJSON {
		return writeJSON(w, api.NewRecordsResponse(ds, rep, 0, len(rep.Records)))
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ROW\tDATE\tCUSTOMER\tITEM\tQTY\tSALES\tFY\tWEEK START\tWEEK\tSEASON")
	for _, r := range rep.Records {
		week := fmt.Sprint(r.WeekNumber)
		if r.WeekFloored {
			week += "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%d\t%s\t%s\t%s\n",
			r.Row, r.Date, r.Customer, r.ItemID, r.Quantity, r.AbsAmount.StringFixed(2),
			r.FiscalYear, r.FiscalWeekStart, week, r.Season)
	}
	return tw.Flush()
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
