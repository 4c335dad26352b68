package domain

// RunStatus is the outcome of one historical execution of a test.
type RunStatus string

const (
	StatusPassed RunStatus = "passed"
	StatusFailed RunStatus = "failed"
)

// IsValid reports whether the status is one the flaky detector understands.
func (s RunStatus) IsValid() bool {
	return s == StatusPassed || s == StatusFailed
}

// History maps a test name to its past run statuses, oldest first.
type History map[string][]RunStatus

// Len returns the number of tests in the history.
func (h History) Len() int {
	return len(h)
}

// PerformanceSample is a single duration observation.
type PerformanceSample struct {
	TestName   string  `json:"test_name"`
	DurationMs float64 `json:"duration_ms"`
}

// RunSummary is the normalized result of the test run being analyzed.
type RunSummary struct {
	// Total is the number of tests in the run.
	Total int `json:"total"`

	// Passed is the number of passing tests.
	Passed int `json:"passed"`

	// Failed is the number of failing tests.
	Failed int `json:"failed"`

	// PassRate is the percentage of passing tests (0-100).
	PassRate float64 `json:"pass_rate"`

	// Failures holds one record per failed test, in report order.
	Failures []FailureRecord `json:"failures"`

	// Durations holds the per-test durations used for anomaly detection.
	Durations []PerformanceSample `json:"durations"`
}
