/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures for API communication so the fiscal and
  dataset types can change without breaking clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Wrappers around a list of DTOs

MONEY:
  Amounts are decimal strings ("1234.50"), never JSON numbers, so clients
  do not round through float64.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"
	"time"

	"github.com/warp/fiscal-trends/dataset"
	"github.com/warp/fiscal-trends/fiscal"
)

// Chart titles for the rollups.
const (
	MonthlyTitle     = "Monthly Sales Trend with Seasonal Classification"
	FiscalYearsTitle = "Yearly Trend by Month (Fiscal Year: July-June)"
	emptyMessage     = "No data matches the selected filters"
)

// =============================================================================
// DATASET
// =============================================================================

// DatasetDTO describes the current dataset.
type DatasetDTO struct {
	ID        string              `json:"id"`
	LoadID    string              `json:"load_id"`
	Name      string              `json:"name"`
	DateOrder string              `json:"date_order"`
	LoadedAt  string              `json:"loaded_at"`
	Records   int                 `json:"records"`
	TotalRows int                 `json:"total_rows"`
	DateFrom  string              `json:"date_from,omitempty"`
	DateTo    string              `json:"date_to,omitempty"`
	Summary   string              `json:"summary"`
	Skipped   []SkippedRowDTO     `json:"skipped"`
	Cache     *dataset.CacheStats `json:"cache,omitempty"`
}

// SkippedRowDTO is one row the loader dropped.
type SkippedRowDTO struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// NewDatasetDTO describes ds.
func NewDatasetDTO(ds *dataset.Dataset) DatasetDTO {
	dto := DatasetDTO{
		ID:        ds.ID,
		LoadID:    ds.LoadID.String(),
		Name:      ds.Name,
		DateOrder: ds.Order.String(),
		LoadedAt:  ds.LoadedAt.Format(time.RFC3339),
		Records:   len(ds.Records),
		TotalRows: ds.Total,
		Summary:   ds.Summary(),
		Skipped:   toSkippedDTOs(ds.Skipped),
	}
	if from, to, ok := ds.DateRange(); ok {
		dto.DateFrom = from.String()
		dto.DateTo = to.String()
	}
	return dto
}

func toSkippedDTOs(errs []*fiscal.RowError) []SkippedRowDTO {
	dtos := make([]SkippedRowDTO, len(errs))
	for i, e := range errs {
		dtos[i] = SkippedRowDTO{Row: e.Row, Error: e.Err.Error()}
	}
	return dtos
}

// =============================================================================
// FILTERS
// =============================================================================

// FilterDTO echoes the filter a response was computed under.
type FilterDTO struct {
	Customer   string `json:"customer"`
	Year       *int   `json:"year,omitempty"`
	Month      string `json:"month,omitempty"`
	FiscalYear *int   `json:"fiscal_year,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Key        string `json:"key"`
}

func toFilterDTO(spec fiscal.FilterSpec) FilterDTO {
	dto := FilterDTO{
		Customer:   spec.Customer,
		Year:       spec.CalendarYear,
		FiscalYear: spec.FiscalYear,
		Key:        spec.Key(),
	}
	if dto.Customer == "" {
		dto.Customer = fiscal.AllValue
	}
	if spec.CalendarMonth != nil {
		dto.Month = spec.CalendarMonth.String()
	}
	if spec.DateFrom != nil {
		dto.From = spec.DateFrom.String()
	}
	if spec.DateTo != nil {
		dto.To = spec.DateTo.String()
	}
	return dto
}

// FiltersResponse lists the selectable values of the current dataset.
type FiltersResponse struct {
	DatasetID   string   `json:"dataset_id"`
	Customers   []string `json:"customers"`
	Years       []int    `json:"years"`
	FiscalYears []int    `json:"fiscal_years"`
	Months      []string `json:"months"`
	DateFrom    string   `json:"date_from,omitempty"`
	DateTo      string   `json:"date_to,omitempty"`
}

// NewFiltersResponse lists the selectable filter values of ds.
func NewFiltersResponse(ds *dataset.Dataset) FiltersResponse {
	opts := ds.Options()
	resp := FiltersResponse{
		DatasetID:   ds.ID,
		Customers:   opts.Customers,
		Years:       opts.Years,
		FiscalYears: opts.FiscalYears,
		Months:      opts.Months,
	}
	if from, to, ok := ds.DateRange(); ok {
		resp.DateFrom = from.String()
		resp.DateTo = to.String()
	}
	return resp
}

// =============================================================================
// ROLLUPS
// =============================================================================

// TotalsDTO carries the summed measures of a bucket.
type TotalsDTO struct {
	SalesAmount string `json:"sales_amount"`
	Quantity    int64  `json:"quantity"`
	Records     int    `json:"records"`
}

func toTotalsDTO(t fiscal.Totals) TotalsDTO {
	return TotalsDTO{SalesAmount: t.AbsAmount.StringFixed(2), Quantity: t.Quantity, Records: t.Records}
}

// SummaryDTO carries the headline figures of a filtered report.
type SummaryDTO struct {
	UniqueItems   int    `json:"unique_items"`
	AvgOrderValue string `json:"avg_order_value"`
}

func toSummaryDTO(rep *fiscal.Report) SummaryDTO {
	return SummaryDTO{UniqueItems: rep.UniqueItems, AvgOrderValue: rep.AvgOrderValue.StringFixed(2)}
}

type WeekDTO struct {
	WeekStart  string `json:"week_start"`
	WeekEnd    string `json:"week_end"`
	WeekNumber int    `json:"week_number"`
	Label      string `json:"label"`
	TotalsDTO
}

type MonthDTO struct {
	Month       string `json:"month"`
	MonthNumber int    `json:"month_number"`
	Season      string `json:"season"`
	SeasonLabel string `json:"season_label"`
	TotalsDTO
}

type FiscalYearMonthDTO struct {
	FiscalYear  int    `json:"fiscal_year"`
	Label       string `json:"label"`
	Month       string `json:"month"`
	MonthNumber int    `json:"month_number"`
	Season      string `json:"season"`
	TotalsDTO
}

func toWeekDTOs(rows []fiscal.WeekRow) []WeekDTO {
	dtos := make([]WeekDTO, len(rows))
	for i, w := range rows {
		dtos[i] = WeekDTO{
			WeekStart:  w.WeekStart.String(),
			WeekEnd:    w.WeekStart.AddDays(6).String(),
			WeekNumber: w.WeekNumber,
			Label:      w.Label(),
			TotalsDTO:  toTotalsDTO(w.Totals),
		}
	}
	return dtos
}

func toMonthDTOs(rows []fiscal.MonthRow) []MonthDTO {
	dtos := make([]MonthDTO, len(rows))
	for i, m := range rows {
		dtos[i] = MonthDTO{
			Month:       m.Month.String(),
			MonthNumber: int(m.Month),
			Season:      string(m.Season),
			SeasonLabel: m.Season.Label(),
			TotalsDTO:   toTotalsDTO(m.Totals),
		}
	}
	return dtos
}

func toFiscalYearMonthDTOs(rows []fiscal.FiscalYearMonthRow) []FiscalYearMonthDTO {
	dtos := make([]FiscalYearMonthDTO, len(rows))
	for i, r := range rows {
		dtos[i] = FiscalYearMonthDTO{
			FiscalYear:  r.FiscalYear,
			Label:       fiscalYearLabel(r.FiscalYear),
			Month:       r.Month.String(),
			MonthNumber: int(r.Month),
			Season:      string(r.Season),
			TotalsDTO:   toTotalsDTO(r.Totals),
		}
	}
	return dtos
}

// TrendResponse wraps one rollup.
type TrendResponse[T any] struct {
	DatasetID string     `json:"dataset_id"`
	Title     string     `json:"title"`
	Filter    FilterDTO  `json:"filter"`
	Empty     bool       `json:"empty"`
	Message   string     `json:"message,omitempty"`
	Totals    TotalsDTO  `json:"totals"`
	Summary   SummaryDTO `json:"summary"`
	Rows      []T        `json:"rows"`
}

func newTrendResponse[T any](ds *dataset.Dataset, rep *fiscal.Report, title string, rows []T) TrendResponse[T] {
	resp := TrendResponse[T]{
		DatasetID: ds.ID,
		Title:     title,
		Filter:    toFilterDTO(rep.Spec),
		Empty:     rep.Empty,
		Totals:    toTotalsDTO(rep.Totals),
		Summary:   toSummaryDTO(rep),
		Rows:      rows,
	}
	if rep.Empty {
		resp.Message = emptyMessage
	}
	return resp
}

// NewWeeklyResponse, NewMonthlyResponse and NewFiscalYearsResponse render one
// rollup of rep. The CLI prints the same shapes with --json.
func NewWeeklyResponse(ds *dataset.Dataset, rep *fiscal.Report) TrendResponse[WeekDTO] {
	return newTrendResponse(ds, rep, rep.Title(), toWeekDTOs(rep.Weekly))
}

func NewMonthlyResponse(ds *dataset.Dataset, rep *fiscal.Report) TrendResponse[MonthDTO] {
	return newTrendResponse(ds, rep, MonthlyTitle, toMonthDTOs(rep.Monthly))
}

func NewFiscalYearsResponse(ds *dataset.Dataset, rep *fiscal.Report) TrendResponse[FiscalYearMonthDTO] {
	return newTrendResponse(ds, rep, FiscalYearsTitle, toFiscalYearMonthDTOs(rep.FiscalYearMonths))
}

// TrendsResponse carries all three rollups for one filter.
type TrendsResponse struct {
	DatasetID        string               `json:"dataset_id"`
	Title            string               `json:"title"`
	Filter           FilterDTO            `json:"filter"`
	Empty            bool                 `json:"empty"`
	Message          string               `json:"message,omitempty"`
	Totals           TotalsDTO            `json:"totals"`
	Summary          SummaryDTO           `json:"summary"`
	Weekly           []WeekDTO            `json:"weekly"`
	Monthly          []MonthDTO           `json:"monthly"`
	FiscalYearMonths []FiscalYearMonthDTO `json:"fiscal_year_months"`
}

func NewTrendsResponse(ds *dataset.Dataset, rep *fiscal.Report) TrendsResponse {
	resp := TrendsResponse{
		DatasetID:        ds.ID,
		Title:            rep.Title(),
		Filter:           toFilterDTO(rep.Spec),
		Empty:            rep.Empty,
		Totals:           toTotalsDTO(rep.Totals),
		Summary:          toSummaryDTO(rep),
		Weekly:           toWeekDTOs(rep.Weekly),
		Monthly:          toMonthDTOs(rep.Monthly),
		FiscalYearMonths: toFiscalYearMonthDTOs(rep.FiscalYearMonths),
	}
	if rep.Empty {
		resp.Message = emptyMessage
	}
	return resp
}

// =============================================================================
// RECORDS
// =============================================================================

type RecordDTO struct {
	Row             int    `json:"row"`
	PostingDate     string `json:"posting_date"`
	ItemNo          string `json:"item_no"`
	Description     string `json:"description"`
	SourceNo        string `json:"source_no"`
	Customer        string `json:"customer"`
	Quantity        int64  `json:"quantity"`
	Amount          string `json:"amount"`
	SalesAmount     string `json:"sales_amount"`
	Year            int    `json:"year"`
	Month           string `json:"month"`
	FiscalYear      int    `json:"fiscal_year"`
	FiscalWeekStart string `json:"fiscal_week_start"`
	WeekNumber      int    `json:"week_number"`
	WeekFloored     bool   `json:"week_floored,omitempty"`
	Season          string `json:"season"`
}

func toRecordDTO(r fiscal.NormalizedRecord) RecordDTO {
	return RecordDTO{
		Row:             r.Row,
		PostingDate:     r.Date.String(),
		ItemNo:          r.ItemID,
		Description:     r.Description,
		SourceNo:        r.SourceID,
		Customer:        r.Customer,
		Quantity:        r.Quantity,
		Amount:          r.Amount.String(),
		SalesAmount:     r.AbsAmount.String(),
		Year:            r.Year,
		Month:           r.Month.String(),
		FiscalYear:      r.FiscalYear,
		FiscalWeekStart: r.FiscalWeekStart.String(),
		WeekNumber:      r.WeekNumber,
		WeekFloored:     r.WeekFloored,
		Season:          string(r.Season),
	}
}

// RecordsResponse is one page of filtered records.
type RecordsResponse struct {
	DatasetID string      `json:"dataset_id"`
	Filter    FilterDTO   `json:"filter"`
	Empty     bool        `json:"empty"`
	Message   string      `json:"message,omitempty"`
	Total     int         `json:"total"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
	Records   []RecordDTO `json:"records"`
}

// NewRecordsResponse renders records [offset, offset+limit) of rep.
func NewRecordsResponse(ds *dataset.Dataset, rep *fiscal.Report, offset, limit int) RecordsResponse {
	var page []fiscal.NormalizedRecord
	if offset < len(rep.Records) {
		end := len(rep.Records)
		if limit < end-offset {
			end = offset + limit
		}
		page = rep.Records[offset:end]
	}
	dtos := make([]RecordDTO, len(page))
	for i, rec := range page {
		dtos[i] = toRecordDTO(rec)
	}

	resp := RecordsResponse{
		DatasetID: ds.ID,
		Filter:    toFilterDTO(rep.Spec),
		Empty:     rep.Empty,
		Total:     len(rep.Records),
		Offset:    offset,
		Limit:     limit,
		Records:   dtos,
	}
	if rep.Empty {
		resp.Message = emptyMessage
	}
	return resp
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string          `json:"error"`
	Details string          `json:"details,omitempty"`
	Missing []string        `json:"missing_columns,omitempty"`
	Rows    []SkippedRowDTO `json:"invalid_rows,omitempty"`
}

// fiscalYearLabel renders 2022 as "FY2022-23".
func fiscalYearLabel(fy int) string {
	return fmt.Sprintf("FY%d-%02d", fy, (fy+1)%100)
}
