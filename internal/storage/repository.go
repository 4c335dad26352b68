package storage

import (
	"context"
	"time"

	"github.com/example/testhealth/health/domain"
)

// Run is one recorded test run.
type Run struct {
	ID         string
	Source     string
	RecordedAt time.Time
	Results    []RunResult
}

// RunResult is the outcome of one test within a run. A result may carry a
// duration without a status when only timing data was collected.
type RunResult struct {
	TestName   string
	Status     domain.RunStatus
	DurationMs *float64
}

// RunInfo summarizes a stored run.
type RunInfo struct {
	ID         string    `json:"id"`
	Source     string    `json:"source,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	Tests      int       `json:"tests"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
}

// ReportInfo summarizes a stored report.
type ReportInfo struct {
	ID          string             `json:"id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Engine      string             `json:"engine"`
	HealthScore int                `json:"health_score"`
	Trend       domain.HealthTrend `json:"trend"`
}

// HistoryOptions filters history loads.
type HistoryOptions struct {
	// LastN limits the history to the most recent N runs (0 = all).
	LastN int
}

// RunRepository provides access to recorded runs.
type RunRepository interface {
	// Create stores a run and its results.
	Create(ctx context.Context, run *Run) error

	// List returns the most recent runs, newest first (limit 0 = all).
	List(ctx context.Context, limit int) ([]*RunInfo, error)

	// History returns per-test statuses in run insertion order.
	History(ctx context.Context, opts HistoryOptions) (domain.History, error)

	// Durations returns the duration samples of a run. An empty runID
	// selects the latest run.
	Durations(ctx context.Context, runID string) ([]domain.PerformanceSample, error)
}

// ReportRepository provides access to stored health reports.
type ReportRepository interface {
	// Save stores a report, replacing any report with the same ID.
	Save(ctx context.Context, report *domain.HealthReport) error

	// Get retrieves a report by ID.
	Get(ctx context.Context, id string) (*domain.HealthReport, error)

	// List returns the most recent reports, newest first (limit 0 = all).
	List(ctx context.Context, limit int) ([]*ReportInfo, error)
}

// UnitOfWork provides transactional access to all repositories.
type UnitOfWork interface {
	// Repository accessors
	Runs() RunRepository
	Reports() ReportRepository

	// Transaction control
	Commit() error
	Rollback() error
}

// Storage provides the main entry point for storage operations.
type Storage interface {
	// Begin starts a new transaction and returns a UnitOfWork.
	Begin(ctx context.Context) (UnitOfWork, error)

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate(ctx context.Context) error
}
