/*
main.go - Command-line access to the fiscal rollups

PURPOSE:
  Runs the same loader and rollups as the server against a local file and
  prints them as tables or JSON. Without --file the built-in sample is used.

COMMANDS:
  trends weekly        Friday-to-Thursday weeks
  trends monthly       Calendar months with season
  trends fiscal-years  Fiscal year x month
  trends records       Filtered records with their derived keys
  trends filters       Selectable filter values
  trends export        Write the filtered report to SQLite

EXAMPLES:
  trends weekly --file sales.xlsx --customer "Online Subscription"
  trends monthly --file us.csv --date-order month_first --json
  trends weekly --from 2023-01-01 --to 2023-06-30
  trends export --file sales.csv --fiscal-year 2023 --db trends.db

SEE ALSO:
  - cmd/server/main.go: the HTTP server
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
