/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the fiscal sales trends server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Build the logger
  3. Open the SQLite export store (optional)
  4. Create the dataset registry, loader and API handler
  5. Load the sample dataset (SAMPLE_ON_START)
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port        HTTP server port (overrides PORT)
  -db          SQLite export path (overrides EXPORT_DB)
               Use ":memory:" for an in-memory database
  -date-order  day_first | month_first (overrides DATE_ORDER)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the export database
  4. Exit

EXAMPLES:
  # Defaults, sample data preloaded
  ./server

  # US-style dates, export enabled
  ./server -date-order=month_first -db="./trends.db"

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/fiscal-trends/api"
	"github.com/warp/fiscal-trends/config"
	"github.com/warp/fiscal-trends/dataset"
	"github.com/warp/fiscal-trends/export/sqlite"
	"github.com/warp/fiscal-trends/loader"
	"github.com/warp/fiscal-trends/logger"
)

func main() {
	cfg := config.Load()

	// Flags override the environment
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.ExportDB, "db", cfg.ExportDB, "SQLite export path (empty disables export)")
	flag.StringVar(&cfg.DateOrder, "date-order", cfg.DateOrder, "Default date order: day_first or month_first")
	flag.Parse()

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: logger.Format(cfg.LogFormat)})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	reg := dataset.NewRegistry(cfg.CacheSize, log)
	ld := loader.New(cfg.LoaderOptions(), log)
	handler := api.NewHandler(reg, ld)

	if cfg.ExportDB != "" {
		store, err := sqlite.New(cfg.ExportDB)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.ExportDB).Msg("failed to open export database")
		}
		defer store.Close()
		handler.Export = store
	}

	if cfg.SampleOnStart {
		res, err := ld.LoadSample(context.Background())
		if err != nil {
			log.Warn().Err(err).Msg("failed to load sample dataset")
		} else {
			reg.Replace(dataset.New("sample", res, time.Now()))
		}
	}

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().
			Int("port", cfg.Port).
			Str("date_order", cfg.DateOrder).
			Str("on_invalid_rows", cfg.OnInvalidRows).
			Bool("export", handler.Export != nil).
			Msgf("server starting on http://localhost:%d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
