/*
handlers.go - HTTP API handlers for the fiscal sales trends engine

PURPOSE:
  Exposes dataset loading and the fiscal rollups via REST API. Handles
  HTTP request/response and JSON serialization; all calendar logic lives
  in the fiscal package.

ENDPOINTS:
  Datasets:
    POST   /api/datasets              Upload a dataset (replaces the current one)
    POST   /api/datasets/sample       Load the built-in sample dataset
    GET    /api/datasets/current      Current dataset summary

  Trends (filtered by ?customer=&year=&month=&fiscal_year=&from=&to=,
  dates as YYYY-MM-DD, inclusive):
    GET    /api/trends                All three rollups
    GET    /api/trends/weekly         Friday-to-Thursday weeks
    GET    /api/trends/monthly        Calendar months with season
    GET    /api/trends/fiscal-years   Fiscal year x month
    GET    /api/records               Filtered records (?limit=&offset=)
    GET    /api/filters               Selectable filter values

  Export:
    POST   /api/export                Write the filtered report to SQLite

UPLOADS:
  Either multipart/form-data with a "file" part, or the raw file as the
  request body. Query parameters:
    format      csv | xlsx | json (defaults to the file extension or
                Content-Type)
    date_order  day_first | month_first (defaults to server config)
    on_error    skip | reject (defaults to server config)
    name        display name (defaults to the uploaded file name)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Bad filter, unreadable file, missing columns, rejected batch
  - 404: No dataset loaded yet
  - 413: Upload too large
  - 500: Internal errors

  A filter that matches nothing is NOT an error: 200 with "empty": true.

SEE ALSO:
  - dto.go: Response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/warp/fiscal-trends/dataset"
	"github.com/warp/fiscal-trends/export/sqlite"
	"github.com/warp/fiscal-trends/fiscal"
	"github.com/warp/fiscal-trends/loader"
	"github.com/warp/fiscal-trends/logger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

const (
	defaultMaxUpload   = 32 << 20
	defaultRecordLimit = 500
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *dataset.Registry
	Loader   *loader.Loader

	// Export is optional; POST /api/export answers 503 without it.
	Export *sqlite.Store

	MaxUploadBytes int64
	now            func() time.Time
}

// NewHandler creates a handler over a registry and a configured loader.
func NewHandler(reg *dataset.Registry, ld *loader.Loader) *Handler {
	return &Handler{
		Registry:       reg,
		Loader:         ld,
		MaxUploadBytes: defaultMaxUpload,
		now:            time.Now,
	}
}

// =============================================================================
// DATASET HANDLERS
// =============================================================================

// UploadDataset loads an uploaded file and makes it the current dataset.
func (h *Handler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts, err := h.loadOptions(q.Get("date_order"), q.Get("on_error"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid load options", err)
		return
	}

	body, name, contentType, err := h.uploadBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	defer body.Close()

	format, err := detectFormat(q.Get("format"), name, contentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported format", err)
		return
	}
	if n := q.Get("name"); n != "" {
		name = n
	}
	if name == "" {
		name = "upload." + string(format)
	}

	res, err := h.Loader.WithOptions(opts).Load(r.Context(), format, body)
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}

	ds := dataset.New(name, res, h.now())
	h.Registry.Replace(ds)
	writeJSON(w, http.StatusCreated, NewDatasetDTO(ds))
}

// LoadSample replaces the current dataset with the built-in sample.
func (h *Handler) LoadSample(w http.ResponseWriter, r *http.Request) {
	res, err := h.Loader.LoadSample(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sample", err)
		return
	}
	ds := dataset.New("sample", res, h.now())
	h.Registry.Replace(ds)
	writeJSON(w, http.StatusCreated, NewDatasetDTO(ds))
}

// GetCurrentDataset describes the current dataset.
func (h *Handler) GetCurrentDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Registry.Current()
	if err != nil {
		writeError(w, http.StatusNotFound, "No dataset loaded", err)
		return
	}
	dto := NewDatasetDTO(ds)
	stats := h.Registry.CacheStats()
	dto.Cache = &stats
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) loadOptions(order, policy string) (loader.Options, error) {
	opts := h.Loader.Options()
	if order != "" {
		o, err := fiscal.ParseDateOrder(order)
		if err != nil {
			return opts, err
		}
		opts.Order = o
	}
	if policy != "" {
		p, err := loader.ParsePolicy(policy)
		if err != nil {
			return opts, err
		}
		opts.Policy = p
	}
	return opts, nil
}

// uploadBody returns the uploaded file, its name and its declared content type.
func (h *Handler) uploadBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, "", "", err
		}
		return io.NopCloser(bytes.NewReader(data)), "", mediaType, nil
	}

	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		return nil, "", "", err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", "", fmt.Errorf("multipart field %q: %w", "file", err)
	}
	return file, header.Filename, header.Header.Get("Content-Type"), nil
}

// detectFormat prefers an explicit format, then the file name, then the content type.
func detectFormat(explicit, name, contentType string) (loader.Format, error) {
	if explicit != "" {
		return loader.ParseFormat(explicit)
	}
	if name != "" {
		if f, err := loader.ParseFormat(name); err == nil {
			return f, nil
		}
	}
	switch contentType {
	case "text/csv", "text/plain", "application/csv":
		return loader.FormatCSV, nil
	case "application/json":
		return loader.FormatJSON, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return loader.FormatXLSX, nil
	}
	return "", fmt.Errorf("cannot determine format of %q (%s); pass ?format=csv|xlsx|json", name, contentType)
}

func (h *Handler) writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Upload too large", err)
		return
	}
	var schemaErr *fiscal.SchemaError
	if errors.As(err, &schemaErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Dataset is missing required columns",
			Details: err.Error(),
			Missing: schemaErr.Missing,
		})
		return
	}
	var batchErr *loader.BatchError
	if errors.As(err, &batchErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Dataset rejected",
			Details: err.Error(),
			Rows:    toSkippedDTOs(batchErr.Errors),
		})
		return
	}
	if fiscal.IsClientError(err) {
		writeError(w, http.StatusBadRequest, "Invalid dataset", err)
		return
	}
	logger.FromContext(r.Context()).Warn().Err(err).Msg("dataset upload failed")
	writeError(w, http.StatusBadRequest, "Failed to read dataset", err)
}

// =============================================================================
// TREND HANDLERS
// =============================================================================

// report resolves the request filter against the current dataset. It writes
// the error response itself and returns ok=false on failure.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) (*fiscal.Report, *dataset.Dataset, bool) {
	q := r.URL.Query()
	spec, err := fiscal.ParseFilterSpec(q.Get("customer"), q.Get("year"), q.Get("month"), q.Get("fiscal_year"))
	if err == nil {
		spec, err = spec.WithDateRange(q.Get("from"), q.Get("to"))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return nil, nil, false
	}
	rep, ds, err := h.Registry.Report(r.Context(), spec)
	if err != nil {
		if errors.Is(err, fiscal.ErrNoDataset) {
			writeError(w, http.StatusNotFound, "No dataset loaded", err)
			return nil, nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to compute report", err)
		return nil, nil, false
	}
	return rep, ds, true
}

// GetTrends returns all three rollups.
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	rep, ds, ok := h.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewTrendsResponse(ds, rep))
}

// GetWeekly returns the Friday-to-Thursday week rollup.
func (h *Handler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	rep, ds, ok := h.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewWeeklyResponse(ds, rep))
}

// GetMonthly returns the calendar month rollup.
func (h *Handler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	rep, ds, ok := h.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewMonthlyResponse(ds, rep))
}

// GetFiscalYears returns the fiscal year x month rollup.
func (h *Handler) GetFiscalYears(w http.ResponseWriter, r *http.Request) {
	rep, ds, ok := h.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewFiscalYearsResponse(ds, rep))
}

// ListRecords returns one page of the filtered records.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultRecordLimit)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "Invalid offset", err)
		return
	}

	rep, ds, ok := h.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewRecordsResponse(ds, rep, offset, limit))
}

// GetFilters lists the selectable filter values of the current dataset.
func (h *Handler) GetFilters(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Registry.Current()
	if err != nil {
		writeError(w, http.StatusNotFound, "No dataset loaded", err)
		return
	}
	writeJSON(w, http.StatusOK, NewFiltersResponse(ds))
}

// =============================================================================
// EXPORT HANDLER
// =============================================================================

// ExportReport writes the current dataset's filtered report to the export database.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	if h.Export == nil {
		writeError(w, http.StatusServiceUnavailable, "Export database not configured", nil)
		return
	}
	rep, ds, ok := h.report(w, r)
	if !ok {
		return
	}
	if err := h.Export.WriteDataset(r.Context(), ds, rep); err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Str("dataset", ds.ShortID()).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "Failed to export", err)
		return
	}
	counts, err := h.Export.Counts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read export", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dataset_id": ds.ID,
		"filter":     toFilterDTO(rep.Spec),
		"tables":     counts,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", key, v)
	}
	return n, nil
}
