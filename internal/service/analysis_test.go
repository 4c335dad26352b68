package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/health/engine"
	"github.com/example/testhealth/internal/storage"
	"github.com/example/testhealth/internal/storage/sqlite"
)

type countingObserver struct{ stored int }

func (c *countingObserver) ObserveReportStored() { c.stored++ }

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(domain.DefaultConfig())
	require.NoError(t, err)
	return e
}

func newStore(t *testing.T) *storage.Repository {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return storage.NewRepository(s)
}

func metricsSummary() map[string]any {
	return map[string]any{
		"total_test_cases": 4,
		"passed_tests":     2,
		"failed_tests":     2,
		"pass_rate":        50,
		"failed_test_details": []any{
			map[string]any{"name": "checkout", "file": "checkout.spec.ts", "error": "Timeout 30000ms exceeded", "duration": 30001},
			map[string]any{"name": "search", "file": "search.spec.ts", "error": "expect(received).toBe(expected)"},
			map[string]any{"file": "nameless.spec.ts"},
		},
		"performance_metrics": map[string]any{
			"test_durations": []any{
				map[string]any{"name": "login", "duration": 100},
			},
		},
	}
}

func TestAnalyzeWithoutStore(t *testing.T) {
	svc := NewAnalysisService(newEngine(t))

	report, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Summary: metricsSummary(),
		History: map[string]any{
			"checkout": []any{"passed", "failed", "passed", "failed", "passed"},
			"search":   []any{"passed", "unknown"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 50.0, report.PassRate)
	assert.Len(t, report.FailureCategorization, 2)
	require.Len(t, report.FlakyTests, 1)
	assert.Equal(t, "checkout", report.FlakyTests[0].TestName)
	// One nameless failure and one invalid history status.
	assert.Equal(t, 2, report.Omissions.Count)

	_, err = svc.GetReport(context.Background(), report.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	reports, err := svc.ListReports(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestAnalyzeRecordsAndUsesStoredHistory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	obs := &countingObserver{}
	svc := NewAnalysisService(newEngine(t), WithStore(store), WithReportObserver(obs))

	for i := 0; i < 5; i++ {
		_, err := svc.Analyze(ctx, &AnalyzeRequest{Summary: metricsSummary(), Record: true, Source: "ci"})
		require.NoError(t, err)
	}
	assert.Equal(t, 5, obs.stored)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 5)
	assert.Equal(t, "ci", runs[0].Source)
	assert.Equal(t, 3, runs[0].Tests)

	report, err := svc.Analyze(ctx, &AnalyzeRequest{Summary: metricsSummary(), UseStoredHistory: true})
	require.NoError(t, err)
	// Every recorded run had the same outcomes, so nothing is flaky.
	assert.Empty(t, report.FlakyTests)

	got, err := svc.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.HealthScore, got.HealthScore)

	runs, err = store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestAnalyzeRejectsMissingSummary(t *testing.T) {
	svc := NewAnalysisService(newEngine(t))
	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
