package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/internal/service"
	"github.com/example/testhealth/internal/storage"
)

// maxBodyBytes bounds analyze request bodies.
const maxBodyBytes = 32 << 20

// Handlers contains HTTP handlers for the web API
type Handlers struct {
	analysis *service.AnalysisService
	logger   logrus.FieldLogger
}

// NewHandlers creates new API handlers
func NewHandlers(analysis *service.AnalysisService, logger logrus.FieldLogger) *Handlers {
	return &Handlers{
		analysis: analysis,
		logger:   logger,
	}
}

// Analyze handles POST /api/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	report, err := h.analysis.Analyze(r.Context(), &service.AnalyzeRequest{
		Summary:          req.Summary,
		History:          req.History,
		UseStoredHistory: req.UseStoredHistory,
		HistoryRuns:      req.HistoryRuns,
		Record:           req.Record,
		Source:           req.Source,
	})
	if err != nil {
		h.writeError(w, "Failed to analyze", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// GetReport handles GET /api/reports/:id
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	// Path format: /api/reports/{id}
	reportID := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	if reportID == "" || strings.Contains(reportID, "/") {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Report ID required"})
		return
	}

	report, err := h.analysis.GetReport(r.Context(), reportID)
	if err != nil {
		h.writeError(w, "Failed to get report", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ListReports handles GET /api/reports
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid limit"})
			return
		}
		limit = n
	}

	reports, err := h.analysis.ListReports(r.Context(), limit)
	if err != nil {
		h.writeError(w, "Failed to list reports", err)
		return
	}
	if reports == nil {
		reports = []*storage.ReportInfo{}
	}

	writeJSON(w, http.StatusOK, ListReportsResponse{Reports: reports})
}

// Health handles GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Engine: h.analysis.EngineName()})
}

func (h *Handlers) writeError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error(msg)
	}
	writeJSON(w, status, ErrorResponse{Error: msg + ": " + err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
