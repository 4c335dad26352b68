// Package engine assembles a HealthReport from a run summary and its
// history. Each analysis stage returns its own value and a final step
// merges them, so no state is shared between stages or between runs.
package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/testhealth/health/anomaly"
	"github.com/example/testhealth/health/backend"
	"github.com/example/testhealth/health/classify"
	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/health/flaky"
	"github.com/example/testhealth/health/recommend"
	"github.com/example/testhealth/health/score"
	"github.com/example/testhealth/internal/logging"
	"github.com/example/testhealth/pkg/id"
)

const tracerName = "github.com/example/testhealth/health/engine"

// maxNarrativeTests is the number of member names sent with a root-cause
// narrative request.
const maxNarrativeTests = 5

// Input is everything one analysis consumes.
type Input struct {
	Summary domain.RunSummary `json:"summary"`

	// History is optional; without it no test is reported as flaky.
	History domain.History `json:"history,omitempty"`

	// Omissions are records already dropped while decoding the input. They
	// lead the report's omission list and do not affect the report ID.
	Omissions domain.Omissions `json:"-"`
}

// Metrics receives engine and backend events.
type Metrics interface {
	backend.Observer
	ObserveAnalysis(elapsed time.Duration, healthScore, omissions int)
}

// Engine runs the full analysis pipeline.
type Engine struct {
	config  domain.AnalysisConfig
	primary backend.Backend
	pool    *backend.Pool
	flaky   *flaky.Detector
	anomaly *anomaly.Detector

	logger  logrus.FieldLogger
	tracer  trace.Tracer
	metrics Metrics
	now     func() time.Time
	version string
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackend sets the classification backend. Default: rule-based.
func WithBackend(b backend.Backend) Option {
	return func(e *Engine) {
		if b != nil {
			e.primary = b
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracerProvider sets the tracer provider. Default: the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithVersion sets the version stamped on reports.
func WithVersion(v string) Option {
	return func(e *Engine) {
		e.version = v
	}
}

// New creates a new Engine. Zero config fields take their defaults.
func New(config domain.AnalysisConfig, opts ...Option) (*Engine, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config:  config,
		primary: backend.NewRuleBased(),
		flaky:   flaky.NewDetector(config),
		anomaly: anomaly.NewDetector(config),
		logger:  logging.Discard(),
		tracer:  otel.GetTracerProvider().Tracer(tracerName),
		now:     time.Now,
		version: "dev",
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.Component(e.logger, "engine")

	poolOpts := []backend.PoolOption{backend.WithLogger(e.logger)}
	if e.metrics != nil {
		poolOpts = append(poolOpts, backend.WithObserver(e.metrics))
	}
	e.pool = backend.NewPool(e.primary, config, poolOpts...)
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() domain.AnalysisConfig {
	return e.config
}

// BackendName names the classification backend in use.
func (e *Engine) BackendName() string {
	return e.primary.Name()
}

// Analyze produces a HealthReport. It never fails: malformed records are
// skipped and counted, backend failures fall back to rules, and small
// inputs yield empty detector results.
func (e *Engine) Analyze(ctx context.Context, in Input) *domain.HealthReport {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "analyze")
	defer span.End()

	clean, omissions := sanitize(in)
	summary := clean.Summary

	groups, breakdown := e.classifyStage(ctx, summary.Failures)
	flakyTests := e.flakyStage(ctx, clean.History)
	anomalies := e.anomalyStage(ctx, summary.Durations)
	classifications, narratives := e.backendStage(ctx, summary.Failures, groups)

	report := e.assemble(assembly{
		input:           clean,
		omissions:       omissions,
		groups:          groups,
		narratives:      narratives,
		breakdown:       breakdown,
		flaky:           flakyTests,
		anomalies:       anomalies,
		classifications: classifications,
	})

	span.SetAttributes(
		attribute.Int("health_score", report.HealthScore),
		attribute.String("trend", string(report.Trend)),
		attribute.Int("omissions", omissions.Count),
	)
	if e.metrics != nil {
		e.metrics.ObserveAnalysis(time.Since(start), report.HealthScore, omissions.Count)
	}
	e.logger.WithFields(logrus.Fields{
		"report":    report.ID,
		"score":     report.HealthScore,
		"trend":     report.Trend,
		"flaky":     len(report.FlakyTests),
		"anomalies": len(report.Anomalies),
		"omitted":   omissions.Count,
	}).Info("analysis complete")
	return report
}

func (e *Engine) classifyStage(ctx context.Context, failures []domain.FailureRecord) ([]domain.RootCauseGroup, domain.FailureBreakdown) {
	_, span := e.tracer.Start(ctx, "classify")
	defer span.End()

	groups := classify.Group(failures)
	span.SetAttributes(attribute.Int("groups", len(groups)))
	return groups, classify.Breakdown(failures)
}

func (e *Engine) flakyStage(ctx context.Context, history domain.History) []domain.FlakyTestRecord {
	_, span := e.tracer.Start(ctx, "flaky")
	defer span.End()

	records := e.flaky.Detect(history)
	span.SetAttributes(attribute.Int("tests", history.Len()), attribute.Int("flaky", len(records)))
	return records
}

func (e *Engine) anomalyStage(ctx context.Context, samples []domain.PerformanceSample) []domain.AnomalyRecord {
	_, span := e.tracer.Start(ctx, "anomaly")
	defer span.End()

	records := e.anomaly.Detect(samples)
	span.SetAttributes(attribute.Int("samples", len(samples)), attribute.Int("anomalies", len(records)))
	return records
}

func (e *Engine) backendStage(
	ctx context.Context,
	failures []domain.FailureRecord,
	groups []domain.RootCauseGroup,
) ([]domain.Classification, []string) {
	ctx, span := e.tracer.Start(ctx, "backend")
	defer span.End()
	span.SetAttributes(attribute.String("backend", e.primary.Name()))

	classifications := e.pool.Classify(ctx, failures)

	reqs := make([]domain.RootCauseRequest, len(groups))
	for i, g := range groups {
		names := g.AffectedTests
		if len(names) > maxNarrativeTests {
			names = names[:maxNarrativeTests]
		}
		reqs[i] = domain.RootCauseRequest{
			Signature:     g.Category.String(),
			SampleError:   classify.SampleError(failures, g.Category),
			AffectedCount: g.Count,
			AffectedTests: names,
			Priority:      g.Priority,
		}
	}
	return classifications, e.pool.Explain(ctx, reqs)
}

// assembly carries every stage result into the final merge.
type assembly struct {
	input           Input
	omissions       domain.Omissions
	groups          []domain.RootCauseGroup
	narratives      []string
	breakdown       domain.FailureBreakdown
	flaky           []domain.FlakyTestRecord
	anomalies       []domain.AnomalyRecord
	classifications []domain.Classification
}

func (e *Engine) assemble(a assembly) *domain.HealthReport {
	summary := a.input.Summary

	rootCauses := make([]domain.RootCauseGroup, len(a.groups))
	for i, g := range a.groups {
		g.Narrative = a.narratives[i]
		rootCauses[i] = g
	}

	result := score.Score(summary.PassRate, len(a.flaky), len(a.anomalies))
	recs := recommend.Synthesize(summary.PassRate, a.flaky, a.anomalies, a.classifications)

	return &domain.HealthReport{
		ID:                    reportID(a.input),
		GeneratedAt:           e.now().UTC(),
		Engine:                e.primary.Name(),
		Version:               e.version,
		HealthScore:           result.Score,
		Trend:                 result.Trend,
		PassRate:              summary.PassRate,
		FlakyTests:            a.flaky,
		Anomalies:             a.anomalies,
		RootCauses:            rootCauses,
		Recommendations:       recs,
		FailureCategorization: a.classifications,
		FailureBreakdown:      a.breakdown,
		Summary: domain.Summary{
			TotalTests:            summary.Total,
			PassedTests:           summary.Passed,
			FailedTests:           summary.Failed,
			TotalFailuresAnalyzed: len(a.classifications),
			FlakyTestsDetected:    len(a.flaky),
			PerformanceAnomalies:  len(a.anomalies),
			RootCausesIdentified:  len(rootCauses),
			AIEnabled:             backend.IsAI(e.primary),
		},
		Omissions: a.omissions,
	}
}

// reportID derives the report ID from the sanitized input, so repeated
// analyses of the same input share an ID.
func reportID(in Input) string {
	data, err := json.Marshal(in)
	if err != nil {
		return id.Generate()
	}
	return id.ForContent(data)
}
