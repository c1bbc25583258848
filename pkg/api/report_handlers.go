package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tally/pkg/audit"
	"github.com/platinummonkey/tally/pkg/charts"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/reports"
)

// Export formats
const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// ReportHandlers serves report plugin metadata and data
type ReportHandlers struct {
	service *reports.Service
}

// NewReportHandlers creates report handlers over service
func NewReportHandlers(service *reports.Service) *ReportHandlers {
	return &ReportHandlers{service: service}
}

// RegisterRoutes registers report API routes
func (h *ReportHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v2/reports", h.listReports).Methods("GET")
	r.HandleFunc("/api/v2/reports/{name}", h.getReport).Methods("GET")
	r.HandleFunc("/api/v2/reports/{name}/export", h.exportReport).Methods("GET")
}

// listReports handles GET /api/v2/reports
// Returns the descriptors of all registered plugins in registration order
func (h *ReportHandlers) listReports(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, h.service.ListPlugins())
}

// getReport handles GET /api/v2/reports/{name}
// Query params:
//   - client_label: client label, default: all clients
//   - start_time: RFC 3339 or unix seconds
//   - duration: Go duration or Nd / Nw
func (h *ReportHandlers) getReport(w http.ResponseWriter, r *http.Request) {
	data, ok := h.runReport(w, r)
	if !ok {
		return
	}
	httputil.WriteSuccess(w, data)
}

// exportReport handles GET /api/v2/reports/{name}/export
// Accepts the same parameters as getReport plus format=csv|ndjson (default: csv).
// Only audit reports can be exported.
func (h *ReportHandlers) exportReport(w http.ResponseWriter, r *http.Request) {
	format := httputil.ParseQueryString(r, "format", FormatCSV)
	if format != FormatCSV && format != FormatNDJSON {
		httputil.WriteBadRequest(w, fmt.Sprintf("unsupported export format: %s", format))
		return
	}

	data, ok := h.runReport(w, r)
	if !ok {
		return
	}

	name := mux.Vars(r)["name"]
	if data.RepresentationType != charts.AuditChart {
		httputil.WriteBadRequest(w, fmt.Sprintf("report %s does not produce audit rows", name))
		return
	}

	switch format {
	case FormatNDJSON:
		body, err := audit.ExportNDJSON(data.AuditChart.Rows)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	default:
		body, err := audit.ExportCSV(data.AuditChart.UsedFields, data.AuditChart.Rows)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		httputil.WriteCSV(w, name+".csv", body)
	}
}

// runReport parses the request, runs the plugin and writes the error reply on failure
func (h *ReportHandlers) runReport(w http.ResponseWriter, r *http.Request) (*charts.ReportData, bool) {
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return nil, false
	}

	req, err := parseReportRequest(r, name)
	if err != nil {
		writeReportError(w, r, err)
		return nil, false
	}

	data, err := h.service.GetReport(r.Context(), req)
	if err != nil {
		writeReportError(w, r, err)
		return nil, false
	}
	return data, true
}

func parseReportRequest(r *http.Request, name string) (reports.Request, error) {
	req := reports.Request{Name: name}

	if label, ok := httputil.OptionalQuery(r, "client_label"); ok {
		req.ClientLabel = &label
	}
	if s, ok := httputil.OptionalQuery(r, "start_time"); ok {
		start, err := reports.ParseTime(s)
		if err != nil {
			return req, err
		}
		req.StartTime = &start
	}
	if s, ok := httputil.OptionalQuery(r, "duration"); ok {
		d, err := reports.ParseDuration(s)
		if err != nil {
			return req, err
		}
		req.Duration = &d
	}

	return req, nil
}

// writeReportError maps report errors to HTTP status codes
func writeReportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, reports.ErrNotFound):
		httputil.WriteNotFound(w, err.Error())
	case errors.Is(err, reports.ErrInvalidRequest):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, reports.ErrUpstreamRead):
		observability.FromContext(r.Context()).WithError(err).Warn("Report upstream read failed")
		httputil.WriteBadGateway(w, err.Error())
	default:
		observability.FromContext(r.Context()).WithError(err).Error("Report generation failed")
		httputil.WriteInternalError(w, err)
	}
}
