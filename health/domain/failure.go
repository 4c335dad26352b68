package domain

// ErrorCategory is a coarse failure category derived from an error message.
type ErrorCategory string

const (
	CategoryTimeout    ErrorCategory = "TIMEOUT"
	CategorySelector   ErrorCategory = "SELECTOR"
	CategoryNetwork    ErrorCategory = "NETWORK"
	CategoryAssertion  ErrorCategory = "ASSERTION"
	CategoryPermission ErrorCategory = "PERMISSION"
	CategoryOther      ErrorCategory = "OTHER"
)

// AllCategories lists every category in classification order.
func AllCategories() []ErrorCategory {
	return []ErrorCategory{
		CategoryTimeout,
		CategorySelector,
		CategoryNetwork,
		CategoryAssertion,
		CategoryPermission,
		CategoryOther,
	}
}

func (c ErrorCategory) String() string {
	return string(c)
}

// FailureRecord describes a single failed test from the current run.
type FailureRecord struct {
	// TestName is the test title as reported by the runner.
	TestName string `json:"test_name"`

	// FilePath is the source file the test lives in.
	FilePath string `json:"file_path"`

	// ErrorMessage is the raw error text of the failure.
	ErrorMessage string `json:"error_message"`

	// DurationMs is how long the failing attempt ran.
	DurationMs float64 `json:"duration_ms"`
}

// FailureSeverity ranks an individual failure for triage.
type FailureSeverity string

const (
	FailureSeverityHigh   FailureSeverity = "high"
	FailureSeverityMedium FailureSeverity = "medium"
	FailureSeverityLow    FailureSeverity = "low"
)

// FailureInsight is the rule-based triage view of one failure.
type FailureInsight struct {
	TestName         string          `json:"test_name"`
	FilePath         string          `json:"file_path"`
	Category         ErrorCategory   `json:"category"`
	Severity         FailureSeverity `json:"severity"`
	AffectedSelector string          `json:"affected_selector,omitempty"`
	DurationMs       float64         `json:"duration_ms"`
	ErrorSnippet     string          `json:"error_snippet"`
}

// FailureBreakdown aggregates failure insights for the whole run.
type FailureBreakdown struct {
	Insights             []FailureInsight        `json:"insights"`
	ByCategory           map[ErrorCategory]int   `json:"by_category"`
	BySeverity           map[FailureSeverity]int `json:"by_severity"`
	TotalDurationMs      float64                 `json:"total_duration_ms"`
	MostProblematicFiles []string                `json:"most_problematic_files"`
}
