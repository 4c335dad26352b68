package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/pkg/id"
)

// HistoryRepository is the history store used by the CLI and servers.
type HistoryRepository interface {
	RecordRun(ctx context.Context, run *Run) error
	RecordAnalysis(ctx context.Context, run *Run, report *domain.HealthReport) error
	LoadHistory(ctx context.Context, opts HistoryOptions) (domain.History, error)
	LoadDurations(ctx context.Context, runID string) ([]domain.PerformanceSample, error)
	ListRuns(ctx context.Context, limit int) ([]*RunInfo, error)
	SaveReport(ctx context.Context, report *domain.HealthReport) error
	GetReport(ctx context.Context, id string) (*domain.HealthReport, error)
	ListReports(ctx context.Context, limit int) ([]*ReportInfo, error)
}

// Repository implements HistoryRepository with one transaction per call.
type Repository struct {
	storage Storage
	now     func() time.Time
}

// NewRepository wraps a Storage.
func NewRepository(s Storage) *Repository {
	return &Repository{storage: s, now: time.Now}
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func (r *Repository) withTx(ctx context.Context, fn func(UnitOfWork) error) error {
	uow, err := r.storage.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// RecordRun stores a run. Missing IDs and timestamps are filled in.
func (r *Repository) RecordRun(ctx context.Context, run *Run) error {
	if err := r.prepareRun(run); err != nil {
		return err
	}
	return r.withTx(ctx, func(uow UnitOfWork) error {
		return uow.Runs().Create(ctx, run)
	})
}

// RecordAnalysis stores a run and the report analyzing it in one
// transaction. A nil run stores only the report.
func (r *Repository) RecordAnalysis(ctx context.Context, run *Run, report *domain.HealthReport) error {
	if run != nil {
		if err := r.prepareRun(run); err != nil {
			return err
		}
	}
	return r.withTx(ctx, func(uow UnitOfWork) error {
		if run != nil {
			if err := uow.Runs().Create(ctx, run); err != nil {
				return err
			}
		}
		return uow.Reports().Save(ctx, report)
	})
}

func (r *Repository) prepareRun(run *Run) error {
	if run.ID == "" {
		run.ID = id.Generate()
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = r.now().UTC()
	}
	for _, res := range run.Results {
		if res.TestName == "" {
			return fmt.Errorf("%w: run result without test name", domain.ErrInvalidInput)
		}
		if res.Status != "" && !res.Status.IsValid() {
			return fmt.Errorf("%w: test %q has status %q", domain.ErrInvalidInput, res.TestName, res.Status)
		}
	}
	return nil
}

func (r *Repository) LoadHistory(ctx context.Context, opts HistoryOptions) (domain.History, error) {
	var h domain.History
	err := r.withTx(ctx, func(uow UnitOfWork) error {
		var err error
		h, err = uow.Runs().History(ctx, opts)
		return err
	})
	return h, err
}

func (r *Repository) LoadDurations(ctx context.Context, runID string) ([]domain.PerformanceSample, error) {
	var samples []domain.PerformanceSample
	err := r.withTx(ctx, func(uow UnitOfWork) error {
		var err error
		samples, err = uow.Runs().Durations(ctx, runID)
		return err
	})
	return samples, err
}

func (r *Repository) ListRuns(ctx context.Context, limit int) ([]*RunInfo, error) {
	var runs []*RunInfo
	err := r.withTx(ctx, func(uow UnitOfWork) error {
		var err error
		runs, err = uow.Runs().List(ctx, limit)
		return err
	})
	return runs, err
}

func (r *Repository) SaveReport(ctx context.Context, report *domain.HealthReport) error {
	return r.withTx(ctx, func(uow UnitOfWork) error {
		return uow.Reports().Save(ctx, report)
	})
}

func (r *Repository) GetReport(ctx context.Context, id string) (*domain.HealthReport, error) {
	var report *domain.HealthReport
	err := r.withTx(ctx, func(uow UnitOfWork) error {
		var err error
		report, err = uow.Reports().Get(ctx, id)
		return err
	})
	return report, err
}

func (r *Repository) ListReports(ctx context.Context, limit int) ([]*ReportInfo, error) {
	var reports []*ReportInfo
	err := r.withTx(ctx, func(uow UnitOfWork) error {
		var err error
		reports, err = uow.Reports().List(ctx, limit)
		return err
	})
	return reports, err
}

// RunFromSummary converts an analyzed run into stored results. Failed tests
// are recorded as failed; tests with only a duration sample as passed.
func RunFromSummary(source string, s domain.RunSummary) *Run {
	run := &Run{Source: source}
	index := make(map[string]int)

	for _, f := range s.Failures {
		if _, seen := index[f.TestName]; seen {
			continue
		}
		index[f.TestName] = len(run.Results)
		run.Results = append(run.Results, RunResult{TestName: f.TestName, Status: domain.StatusFailed})
	}
	for _, d := range s.Durations {
		ms := d.DurationMs
		if i, seen := index[d.TestName]; seen {
			run.Results[i].DurationMs = &ms
			continue
		}
		index[d.TestName] = len(run.Results)
		run.Results = append(run.Results, RunResult{TestName: d.TestName, Status: domain.StatusPassed, DurationMs: &ms})
	}
	return run
}
