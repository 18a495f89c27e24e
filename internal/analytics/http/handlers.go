// Package analytichttp exposes tenant reports and their exports over HTTP.
package analytichttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/analytics"
	"github.com/odyssey-erp/commesse/internal/analytics/export"
	"github.com/odyssey-erp/commesse/internal/finance"
	"github.com/odyssey-erp/commesse/internal/platform/httpx"
	"github.com/odyssey-erp/commesse/internal/shared"
)

const (
	requestTimeout     = 10 * time.Second
	defaultExportLimit = 10
)

// ReportService builds tenant reports.
type ReportService interface {
	GetReport(ctx context.Context, f analytics.ReportFilter) (finance.Report, error)
}

// PDFService prints a report.
type PDFService interface {
	Render(ctx context.Context, r finance.Report, title string) ([]byte, error)
}

// Handler serves the analytics endpoints.
type Handler struct {
	logger      *slog.Logger
	service     ReportService
	pdf         PDFService
	validate    *validator.Validate
	exportLimit int
	bufPool     sync.Pool
	now         func() time.Time
}

// NewHandler constructs the analytics HTTP handler. exportLimit caps exports
// per user per minute; zero selects the default.
func NewHandler(logger *slog.Logger, service ReportService, pdf PDFService, exportLimit int) *Handler {
	if exportLimit <= 0 {
		exportLimit = defaultExportLimit
	}
	h := &Handler{
		logger:      logger,
		service:     service,
		pdf:         pdf,
		validate:    validator.New(),
		exportLimit: exportLimit,
		now:         time.Now,
	}
	h.bufPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type reportQuery struct {
	From           string `validate:"omitempty,datetime=2006-01-02"`
	To             string `validate:"omitempty,datetime=2006-01-02"`
	AsOf           string `validate:"omitempty,datetime=2006-01-02"`
	ClientID       string `validate:"omitempty,uuid"`
	ProjectID      string `validate:"omitempty,uuid"`
	EmployeeID     string `validate:"omitempty,uuid"`
	OpeningBalance string `validate:"omitempty,numeric"`
	CashOnHand     string `validate:"omitempty,numeric"`
	Top            string `validate:"omitempty,number,max=3"`
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r, shared.PermAnalyticsView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r, shared.PermAnalyticsView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"range":            report.Range,
		"summary":          report.Summary,
		"vat_position":     report.VATPosition,
		"breakdown":        report.Breakdown,
		"monthly":          report.Monthly,
		"cost_by_category": report.CostByCategory,
	})
}

func (h *Handler) handleAging(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r, shared.PermAnalyticsView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"as_of":           report.AsOf,
		"receivables":     report.Receivables,
		"payables":        report.Payables,
		"cash_flow":       report.CashFlow,
		"working_capital": report.WorkingCapital,
	})
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r, shared.PermAnalyticsExport)
	if !ok {
		return
	}
	buf := h.buffer()
	defer h.bufPool.Put(buf)
	if err := export.WriteXLSX(buf, export.Tables(report)); err != nil {
		h.handleServerError(w, "write xlsx", err)
		return
	}
	httpx.Attachment(w, httpx.MimeXLSX, filename(report, "xlsx"), buf.Bytes())
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r, shared.PermAnalyticsExport)
	if !ok {
		return
	}
	buf := h.buffer()
	defer h.bufPool.Put(buf)
	if err := export.WriteCSV(buf, export.Tables(report)); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	httpx.Attachment(w, httpx.MimeCSV, filename(report, "csv"), buf.Bytes())
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "pdf export not configured")
		return
	}
	report, ok := h.loadReport(w, r, shared.PermAnalyticsExport)
	if !ok {
		return
	}
	data, err := h.pdf.Render(r.Context(), report, "Report economico-finanziario")
	if err != nil {
		h.logError("render pdf", err)
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "pdf rendering failed")
		return
	}
	httpx.Attachment(w, httpx.MimePDF, filename(report, "pdf"), data)
}

// loadReport authorises, parses the query and builds the report. It writes
// the error response itself and reports whether the caller should continue.
func (h *Handler) loadReport(w http.ResponseWriter, r *http.Request, perm string) (finance.Report, bool) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return finance.Report{}, false
	}
	if !principal.HasPermission(perm) {
		httpx.RespondError(w, fmt.Errorf("%w: missing %s", shared.ErrForbidden, perm))
		return finance.Report{}, false
	}
	filter, err := h.parseFilter(r, principal.TenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return finance.Report{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	report, err := h.service.GetReport(ctx, filter)
	if err != nil {
		h.logError("build report", err, slog.String("tenant_id", principal.TenantID.String()))
		httpx.RespondError(w, err)
		return finance.Report{}, false
	}
	return report, true
}

func (h *Handler) parseFilter(r *http.Request, tenant uuid.UUID) (analytics.ReportFilter, error) {
	q := r.URL.Query()
	get := func(k string) string { return strings.TrimSpace(q.Get(k)) }
	in := reportQuery{
		From:           get("from"),
		To:             get("to"),
		AsOf:           get("as_of"),
		ClientID:       get("client_id"),
		ProjectID:      get("project_id"),
		EmployeeID:     get("employee_id"),
		OpeningBalance: get("opening_balance"),
		CashOnHand:     get("cash_on_hand"),
		Top:            get("top"),
	}
	if err := h.validate.Struct(in); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return analytics.ReportFilter{}, fmt.Errorf("%w: %s fails %s", shared.ErrValidation, fe.Field(), fe.Tag())
		}
		return analytics.ReportFilter{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if in.From != "" && in.To != "" && in.To < in.From {
		return analytics.ReportFilter{}, fmt.Errorf("%w: to must not precede from", shared.ErrValidation)
	}

	f := analytics.ReportFilter{
		TenantID: tenant,
		Filter: finance.Filter{
			Range:      finance.DateRange{From: finance.Date(in.From), To: finance.Date(in.To)},
			ClientID:   optionalID(in.ClientID),
			ProjectID:  optionalID(in.ProjectID),
			EmployeeID: optionalID(in.EmployeeID),
		},
		AsOf: finance.Date(in.AsOf),
	}
	if f.AsOf == "" {
		f.AsOf = finance.DateOf(h.now())
	}
	f.OpeningBalance, _ = strconv.ParseFloat(in.OpeningBalance, 64)
	f.CashOnHand, _ = strconv.ParseFloat(in.CashOnHand, 64)
	f.TopN, _ = strconv.Atoi(in.Top)
	return f, nil
}

func optionalID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func filename(r finance.Report, ext string) string {
	return fmt.Sprintf("report-commesse-%s.%s", r.AsOf, ext)
}

func (h *Handler) buffer() *bytes.Buffer {
	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(context string, err error, attrs ...any) {
	if h.logger != nil {
		h.logger.Error(context, append([]any{slog.Any("error", err)}, attrs...)...)
	}
}
