package backend

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/internal/logging"
)

// Pool fans classification calls out to a primary backend with bounded
// concurrency and falls back to rules for degraded results and for
// records beyond the call cap. Output order always matches input order.
type Pool struct {
	primary     Backend
	fallback    Backend
	callCap     int
	concurrency int
	timeout     time.Duration
	observer    Observer
	logger      logrus.FieldLogger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithObserver sets the event observer.
func WithObserver(o Observer) PoolOption {
	return func(p *Pool) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = logging.Component(l, "backend")
		}
	}
}

// NewPool creates a Pool over primary using the call cap, concurrency and
// per-call timeout from config.
func NewPool(primary Backend, config domain.AnalysisConfig, opts ...PoolOption) *Pool {
	config = config.WithDefaults()
	p := &Pool{
		primary:     primary,
		fallback:    NewRuleBased(),
		callCap:     config.AICallCap,
		concurrency: config.AIConcurrency,
		timeout:     config.AITimeout,
		observer:    noopObserver{},
		logger:      logging.Component(nil, "backend"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.primary == nil {
		p.primary = p.fallback
	}
	return p
}

// Primary returns the backend the pool delegates to first.
func (p *Pool) Primary() Backend {
	return p.primary
}

// Classify categorizes every failure. Results are written into a
// pre-sized slice by index.
func (p *Pool) Classify(ctx context.Context, failures []domain.FailureRecord) []domain.Classification {
	results := make([]domain.Classification, len(failures))
	_, rulesOnly := p.primary.(*RuleBased)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, f := range failures {
		if rulesOnly || i >= p.callCap {
			results[i] = p.fallback.Categorize(ctx, f)
			p.observer.ObserveClassification(p.fallback.Name(), false)
			continue
		}
		g.Go(func() error {
			results[i] = p.categorize(gctx, f)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pool) categorize(ctx context.Context, f domain.FailureRecord) domain.Classification {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	c := p.primary.Categorize(callCtx, f)
	p.observer.ObserveBackendCall(p.primary.Name(), time.Since(start))
	p.observer.ObserveClassification(p.primary.Name(), c.Degraded)
	if !c.Degraded {
		return c
	}

	p.logger.WithFields(logrus.Fields{
		"test":  f.TestName,
		"error": c.Reasoning,
	}).Warn("classification degraded, falling back to rules")
	p.observer.ObserveFallback()
	return p.fallback.Categorize(ctx, f)
}

// Explain produces one narrative per request, in request order. Failed
// remote calls fall back to the rule-based narrative.
func (p *Pool) Explain(ctx context.Context, reqs []domain.RootCauseRequest) []string {
	narratives := make([]string, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			narratives[i] = p.explain(gctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return narratives
}

func (p *Pool) explain(ctx context.Context, req domain.RootCauseRequest) string {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.primary.ExplainRootCause(callCtx, req)
	p.observer.ObserveBackendCall(p.primary.Name(), time.Since(start))
	if err == nil {
		return text
	}

	p.logger.WithFields(logrus.Fields{
		"category": req.Signature,
		"error":    err,
	}).Warn("root cause narrative failed, falling back to rules")
	p.observer.ObserveFallback()
	text, _ = p.fallback.ExplainRootCause(ctx, req)
	return text
}
