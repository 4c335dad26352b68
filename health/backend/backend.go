// Package backend provides the failure classification backends: a
// deterministic rule-based variant and an AI-backed variant that talks to an
// OpenAI-compatible chat completions API. Both produce the same output
// shape, so callers never branch on which one ran.
package backend

import (
	"context"
	"time"

	"github.com/example/testhealth/health/domain"
)

// Backend classifies failures and explains grouped failures.
type Backend interface {
	// Name identifies the backend in reports, e.g. "ai:gpt-4o".
	Name() string

	// Categorize classifies a single failure. It never returns an error:
	// a failed call yields a result with Degraded set and Confidence 0.
	Categorize(ctx context.Context, failure domain.FailureRecord) domain.Classification

	// ExplainRootCause returns a narrative for a root-cause group. The
	// narrative always contains a "Priority: HIGH|MEDIUM" tag.
	ExplainRootCause(ctx context.Context, req domain.RootCauseRequest) (string, error)
}

// Observer receives classification events. The metrics layer implements it.
type Observer interface {
	ObserveClassification(backend string, degraded bool)
	ObserveFallback()
	ObserveBackendCall(backend string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveClassification(string, bool)       {}
func (noopObserver) ObserveFallback()                         {}
func (noopObserver) ObserveBackendCall(string, time.Duration) {}

// AIOptions configure the AI-backed variant.
type AIOptions struct {
	// Token is the API credential. Without it the AI backend is not used.
	Token string

	// Model is the chat model name. Default: gpt-4o
	Model string

	// Endpoint is the chat completions URL.
	// Default: https://models.inference.ai.azure.com/chat/completions
	Endpoint string
}

// Select returns the AI backend when a token is configured and the
// rule-based backend otherwise.
func Select(opts AIOptions) Backend {
	if opts.Token == "" {
		return NewRuleBased()
	}
	return NewAI(opts)
}

// IsAI reports whether b calls an external model.
func IsAI(b Backend) bool {
	_, ok := b.(*AI)
	return ok
}
