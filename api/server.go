/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RealIP:        Client address behind proxies
  3. RequestLogger: Structured request log (zerolog), logger in context
  4. Recoverer:     Panic recovery (500 instead of crash)
  5. CORS:          Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/datasets/*   Loading and inspecting the dataset
  /api/trends/*     Rollups
  /api/records      Filtered records
  /api/filters      Selector values
  /api/export       SQLite export
  /healthz          Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/warp/fiscal-trends/logger"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/datasets", func(r chi.Router) {
			r.Post("/", h.UploadDataset)
			r.Post("/sample", h.LoadSample)
			r.Get("/current", h.GetCurrentDataset)
		})

		r.Route("/trends", func(r chi.Router) {
			r.Get("/", h.GetTrends)
			r.Get("/weekly", h.GetWeekly)
			r.Get("/monthly", h.GetMonthly)
			r.Get("/fiscal-years", h.GetFiscalYears)
		})

		r.Get("/records", h.ListRecords)
		r.Get("/filters", h.GetFilters)
		r.Post("/export", h.ExportReport)
	})

	return r
}

// RequestLogger logs one line per request through log and attaches a
// request-scoped logger to the context for handlers.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLog := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			evt := reqLog.Info()
			switch {
			case status >= 500:
				evt = reqLog.Error()
			case status >= 400:
				evt = reqLog.Warn()
			}
			evt.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("HTTP request")
		})
	}
}
