package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/internal/storage"
)

func newRepo(t *testing.T) *storage.Repository {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "testhealth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return storage.NewRepository(s)
}

func ms(v float64) *float64 { return &v }

func recordRun(t *testing.T, repo *storage.Repository, id string, at time.Time, results ...storage.RunResult) {
	t.Helper()
	require.NoError(t, repo.RecordRun(context.Background(), &storage.Run{
		ID:         id,
		Source:     "ci",
		RecordedAt: at,
		Results:    results,
	}))
}

func TestHistoryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	recordRun(t, repo, "r1", base,
		storage.RunResult{TestName: "login", Status: domain.StatusPassed},
		storage.RunResult{TestName: "search", Status: domain.StatusFailed})
	recordRun(t, repo, "r2", base.Add(time.Hour),
		storage.RunResult{TestName: "login", Status: domain.StatusFailed},
		storage.RunResult{TestName: "timing-only", DurationMs: ms(12)})
	recordRun(t, repo, "r3", base.Add(2*time.Hour),
		storage.RunResult{TestName: "login", Status: domain.StatusPassed})

	h, err := repo.LoadHistory(ctx, storage.HistoryOptions{})
	require.NoError(t, err)
	assert.Equal(t, []domain.RunStatus{domain.StatusPassed, domain.StatusFailed, domain.StatusPassed}, h["login"])
	assert.Equal(t, []domain.RunStatus{domain.StatusFailed}, h["search"])
	assert.NotContains(t, h, "timing-only")

	h, err = repo.LoadHistory(ctx, storage.HistoryOptions{LastN: 2})
	require.NoError(t, err)
	assert.Equal(t, []domain.RunStatus{domain.StatusFailed, domain.StatusPassed}, h["login"])
	assert.NotContains(t, h, "search")
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	recordRun(t, repo, "r1", base,
		storage.RunResult{TestName: "a", Status: domain.StatusPassed},
		storage.RunResult{TestName: "b", Status: domain.StatusFailed})
	recordRun(t, repo, "r2", base.Add(time.Hour))

	runs, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID)
	assert.Equal(t, 0, runs[0].Tests)
	assert.Equal(t, "r1", runs[1].ID)
	assert.Equal(t, 2, runs[1].Tests)
	assert.Equal(t, 1, runs[1].Passed)
	assert.Equal(t, 1, runs[1].Failed)
	assert.Equal(t, "ci", runs[1].Source)
	assert.True(t, base.Equal(runs[1].RecordedAt))

	runs, err = repo.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestLoadDurations(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	samples, err := repo.LoadDurations(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, samples)

	recordRun(t, repo, "r1", time.Time{},
		storage.RunResult{TestName: "b", Status: domain.StatusPassed, DurationMs: ms(200)},
		storage.RunResult{TestName: "a", Status: domain.StatusFailed, DurationMs: ms(100)},
		storage.RunResult{TestName: "c", Status: domain.StatusPassed})
	recordRun(t, repo, "r2", time.Time{},
		storage.RunResult{TestName: "a", DurationMs: ms(5)})

	samples, err = repo.LoadDurations(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []domain.PerformanceSample{
		{TestName: "b", DurationMs: 200},
		{TestName: "a", DurationMs: 100},
	}, samples)

	samples, err = repo.LoadDurations(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.PerformanceSample{{TestName: "a", DurationMs: 5}}, samples)

	_, err = repo.LoadDurations(ctx, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRecordRunValidation(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	err := repo.RecordRun(ctx, &storage.Run{Results: []storage.RunResult{{TestName: "a", Status: "skipped"}}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	run := &storage.Run{Results: []storage.RunResult{{TestName: "a", Status: domain.StatusPassed}}}
	require.NoError(t, repo.RecordRun(ctx, run))
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.RecordedAt.IsZero())

	// Duplicate IDs are rejected and leave nothing behind.
	dup := &storage.Run{ID: run.ID, Results: []storage.RunResult{{TestName: "z", Status: domain.StatusFailed}}}
	assert.Error(t, repo.RecordRun(ctx, dup))

	h, err := repo.LoadHistory(ctx, storage.HistoryOptions{})
	require.NoError(t, err)
	assert.NotContains(t, h, "z")
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.GetReport(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	older := &domain.HealthReport{
		ID:          "rep-1",
		GeneratedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Engine:      "statistical-only",
		HealthScore: 57,
		Trend:       domain.HealthCritical,
		PassRate:    80,
		FlakyTests:  []domain.FlakyTestRecord{},
		Summary:     domain.Summary{TotalTests: 10, FailedTests: 2},
		Omissions:   domain.Omissions{Count: 1, Reasons: []string{"bad record"}},
	}
	newer := &domain.HealthReport{
		ID:          "rep-2",
		GeneratedAt: older.GeneratedAt.Add(time.Hour),
		Engine:      "ai:gpt-4o",
		HealthScore: 98,
		Trend:       domain.HealthExcellent,
	}
	require.NoError(t, repo.SaveReport(ctx, older))
	require.NoError(t, repo.SaveReport(ctx, newer))

	got, err := repo.GetReport(ctx, "rep-1")
	require.NoError(t, err)
	assert.Equal(t, 57, got.HealthScore)
	assert.Equal(t, domain.HealthCritical, got.Trend)
	assert.Equal(t, 10, got.Summary.TotalTests)
	assert.Equal(t, older.Omissions, got.Omissions)
	assert.True(t, older.GeneratedAt.Equal(got.GeneratedAt))

	list, err := repo.ListReports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "rep-2", list[0].ID)
	assert.Equal(t, domain.HealthExcellent, list[0].Trend)

	// Saving the same ID replaces the stored report.
	older.HealthScore = 60
	require.NoError(t, repo.SaveReport(ctx, older))
	got, err = repo.GetReport(ctx, "rep-1")
	require.NoError(t, err)
	assert.Equal(t, 60, got.HealthScore)

	list, err = repo.ListReports(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

var errSaveReport = errors.New("disk full")

// brokenReports fails every report save.
type brokenReports struct{ storage.ReportRepository }

func (brokenReports) Save(context.Context, *domain.HealthReport) error { return errSaveReport }

type brokenUnitOfWork struct{ storage.UnitOfWork }

func (u brokenUnitOfWork) Reports() storage.ReportRepository {
	return brokenReports{u.UnitOfWork.Reports()}
}

type brokenStorage struct{ storage.Storage }

func (s brokenStorage) Begin(ctx context.Context) (storage.UnitOfWork, error) {
	uow, err := s.Storage.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return brokenUnitOfWork{uow}, nil
}

func TestRecordAnalysis(t *testing.T) {
	tests := []struct {
		name        string
		failReports bool
		withRun     bool
		wantErr     error
		wantRuns    int
		wantReports int
	}{
		{name: "run and report", withRun: true, wantRuns: 1, wantReports: 1},
		{name: "report only", wantReports: 1},
		{name: "report save fails", failReports: true, withRun: true, wantErr: errSaveReport},
		{name: "invalid run", withRun: true, wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := Open(ctx, filepath.Join(t.TempDir(), "testhealth.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })

			var backing storage.Storage = s
			if tt.failReports {
				backing = brokenStorage{s}
			}
			repo := storage.NewRepository(backing)

			var run *storage.Run
			if tt.withRun {
				status := domain.StatusFailed
				if errors.Is(tt.wantErr, domain.ErrInvalidInput) {
					status = "skipped"
				}
				run = &storage.Run{Source: "ci", Results: []storage.RunResult{{TestName: "checkout", Status: status}}}
			}
			report := &domain.HealthReport{ID: "rep-1", GeneratedAt: time.Now().UTC(), Trend: domain.HealthStable}

			err = repo.RecordAnalysis(ctx, run, report)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			// Read through an unwrapped repository so the checks see the database.
			plain := storage.NewRepository(s)
			runs, err := plain.ListRuns(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, runs, tt.wantRuns)

			reports, err := plain.ListReports(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, reports, tt.wantReports)

			h, err := plain.LoadHistory(ctx, storage.HistoryOptions{})
			require.NoError(t, err)
			if tt.wantRuns == 0 {
				assert.NotContains(t, h, "checkout")
			}
		})
	}
}
