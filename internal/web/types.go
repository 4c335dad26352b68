package web

import (
	"github.com/example/testhealth/internal/storage"
)

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	// Summary is a Playwright JSON report or a metrics.json document.
	Summary map[string]any `json:"summary"`

	// History maps test names to past run statuses.
	History map[string]any `json:"history,omitempty"`

	// UseStoredHistory loads history from the store when History is absent.
	UseStoredHistory bool `json:"useStoredHistory,omitempty"`
	HistoryRuns      int  `json:"historyRuns,omitempty"`

	// Record appends this run to the history store.
	Record bool   `json:"record,omitempty"`
	Source string `json:"source,omitempty"`
}

// ListReportsResponse is the response for GET /api/reports
type ListReportsResponse struct {
	Reports []*storage.ReportInfo `json:"reports"`
}

// HealthResponse is the response for GET /healthz
type HealthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
