package backend

import (
	"context"
	"sync"
	"time"

	"github.com/example/testhealth/health/domain"
)

// FakeBackend is a test double for Backend. It answers from canned
// classifications and tracks calls and peak concurrency.
type FakeBackend struct {
	mu sync.Mutex

	// Responses maps test names to the classification to return.
	// Unlisted tests get a generic OTHER classification.
	Responses map[string]domain.Classification

	// FailOn causes Categorize to return a degraded result for these tests.
	FailOn map[string]error

	// ExplainErr, when set, is returned by every ExplainRootCause call.
	ExplainErr error

	// Delay adds artificial latency to every call.
	Delay time.Duration

	calls       []string
	inFlight    int
	maxInFlight int
}

// NewFakeBackend creates a new FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Responses: make(map[string]domain.Classification),
		FailOn:    make(map[string]error),
	}
}

// Name implements Backend.
func (f *FakeBackend) Name() string {
	return "fake"
}

// Categorize implements Backend.
func (f *FakeBackend) Categorize(ctx context.Context, failure domain.FailureRecord) domain.Classification {
	f.enter(failure.TestName)
	defer f.leave()

	if err := f.wait(ctx); err != nil {
		return Degraded(failure.TestName, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FailOn[failure.TestName]; ok {
		return Degraded(failure.TestName, err)
	}
	if c, ok := f.Responses[failure.TestName]; ok {
		c.TestName = failure.TestName
		c.Source = domain.SourceAI
		return c
	}
	return domain.Classification{
		TestName:        failure.TestName,
		Category:        domain.CategoryOther.String(),
		Confidence:      90,
		Reasoning:       "fake reasoning",
		SuggestedAction: "fake action",
		Source:          domain.SourceAI,
	}
}

// ExplainRootCause implements Backend.
func (f *FakeBackend) ExplainRootCause(ctx context.Context, req domain.RootCauseRequest) (string, error) {
	f.enter(req.Signature)
	defer f.leave()

	if err := f.wait(ctx); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ExplainErr != nil {
		return "", f.ExplainErr
	}
	return EnsurePriorityTag("fake narrative for "+req.Signature, priorityOf(req)), nil
}

// Calls returns the names passed to the fake, in call order.
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// MaxInFlight returns the peak number of concurrent calls observed.
func (f *FakeBackend) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func (f *FakeBackend) enter(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
}

func (f *FakeBackend) leave() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
}

func (f *FakeBackend) wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
