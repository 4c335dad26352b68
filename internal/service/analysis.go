package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/health/engine"
	"github.com/example/testhealth/internal/ingest"
	"github.com/example/testhealth/internal/logging"
	"github.com/example/testhealth/internal/storage"
)

// ReportObserver is notified when a report is persisted.
type ReportObserver interface {
	ObserveReportStored()
}

// AnalysisService runs analyses on raw runner output and persists the
// results when a history store is configured.
type AnalysisService struct {
	engine   *engine.Engine
	store    storage.HistoryRepository
	observer ReportObserver
	logger   logrus.FieldLogger
}

// Option configures an AnalysisService.
type Option func(*AnalysisService)

// WithStore enables report persistence and stored history.
func WithStore(store storage.HistoryRepository) Option {
	return func(s *AnalysisService) { s.store = store }
}

// WithReportObserver sets the observer for stored reports.
func WithReportObserver(o ReportObserver) Option {
	return func(s *AnalysisService) { s.observer = o }
}

// WithLogger sets the service logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *AnalysisService) { s.logger = l }
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(e *engine.Engine, opts ...Option) *AnalysisService {
	s := &AnalysisService{engine: e}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Component(s.logger, "analysis")
	return s
}

// AnalyzeRequest is the request for Analyze.
type AnalyzeRequest struct {
	// Summary is a Playwright JSON report or a metrics.json document.
	Summary map[string]any

	// History is an optional history document. When nil and
	// UseStoredHistory is set, history is loaded from the store.
	History map[string]any

	UseStoredHistory bool

	// HistoryRuns limits stored history to the last N runs (0 = all).
	HistoryRuns int

	// Record appends this run to the store after analysis.
	Record bool

	// Source labels the recorded run.
	Source string
}

// Analyze decodes the request, runs the engine and persists the report.
// Malformed records are reported as omissions on the report.
func (s *AnalysisService) Analyze(ctx context.Context, req *AnalyzeRequest) (*domain.HealthReport, error) {
	summary, err := ingest.DecodeSummaryMap(req.Summary)
	if err != nil {
		return nil, err
	}

	in := engine.Input{Summary: summary.Summary, Omissions: summary.Omissions}

	switch {
	case req.History != nil:
		history, historyOmissions := ingest.DecodeHistoryMap(req.History)
		in.History = history
		in.Omissions = in.Omissions.Merge(historyOmissions)
	case req.UseStoredHistory && s.store != nil:
		history, err := s.store.LoadHistory(ctx, storage.HistoryOptions{LastN: req.HistoryRuns})
		if err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
		in.History = history
	}

	return s.run(ctx, in, req.Record, req.Source)
}

// AnalyzeInput runs the engine on already decoded input. Decode omissions
// travel on in.Omissions.
func (s *AnalysisService) AnalyzeInput(ctx context.Context, in engine.Input, record bool, source string) (*domain.HealthReport, error) {
	return s.run(ctx, in, record, source)
}

func (s *AnalysisService) run(ctx context.Context, in engine.Input, record bool, source string) (*domain.HealthReport, error) {
	report := s.engine.Analyze(ctx, in)

	if s.store == nil {
		return report, nil
	}

	// The run and its report are stored together or not at all.
	var run *storage.Run
	if record {
		run = storage.RunFromSummary(source, in.Summary)
	}
	if err := s.store.RecordAnalysis(ctx, run, report); err != nil {
		return nil, fmt.Errorf("failed to store analysis: %w", err)
	}
	if run != nil {
		s.logger.WithFields(logrus.Fields{"run": run.ID, "count": len(run.Results)}).Info("recorded run")
	}
	if s.observer != nil {
		s.observer.ObserveReportStored()
	}
	return report, nil
}

// GetReport retrieves a stored report.
func (s *AnalysisService) GetReport(ctx context.Context, id string) (*domain.HealthReport, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: no report store configured", domain.ErrNotFound)
	}
	return s.store.GetReport(ctx, id)
}

// ListReports lists stored reports, newest first.
func (s *AnalysisService) ListReports(ctx context.Context, limit int) ([]*storage.ReportInfo, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListReports(ctx, limit)
}

// EngineName names the classification path used for new reports.
func (s *AnalysisService) EngineName() string {
	return s.engine.BackendName()
}
