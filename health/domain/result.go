package domain

// FlakyAction is what should be done with a flaky test.
type FlakyAction string

const (
	ActionQuarantine FlakyAction = "QUARANTINE"
	ActionMonitor    FlakyAction = "MONITOR"
)

// StabilityTrend describes how a test's determinism changed over its history.
type StabilityTrend string

const (
	TrendImproving        StabilityTrend = "IMPROVING"
	TrendDegrading        StabilityTrend = "DEGRADING"
	TrendStable           StabilityTrend = "STABLE"
	TrendInsufficientData StabilityTrend = "INSUFFICIENT_DATA"
)

// FlakyTestRecord is one test flagged as flaky by the history analysis.
type FlakyTestRecord struct {
	// TestName is the historical key of the test.
	TestName string `json:"test_name"`

	// FlakinessScore is the binary Shannon entropy (base 2) of the
	// pass/fail distribution: 0 is deterministic, 1 is a coin flip.
	FlakinessScore float64 `json:"flakiness_score"`

	// PassRatePercent is the historical pass rate, rounded to one decimal.
	PassRatePercent float64 `json:"pass_rate_percent"`

	// SampleCount is the number of historical runs considered.
	SampleCount int `json:"sample_count"`

	// Recommendation is QUARANTINE above the quarantine threshold, else MONITOR.
	Recommendation FlakyAction `json:"recommendation"`

	// StabilityTrend compares the first and second half of the history.
	StabilityTrend StabilityTrend `json:"stability_trend"`
}

// Severity ranks a performance anomaly.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// AnomalyRecord is a duration sample flagged as an outlier.
type AnomalyRecord struct {
	TestName   string  `json:"test_name"`
	DurationMs float64 `json:"duration_ms"`

	// BaselineMs is the median duration of the whole batch.
	BaselineMs float64 `json:"baseline_ms"`

	// DeviationPercent is signed: negative means faster than baseline.
	DeviationPercent float64 `json:"deviation_percent"`

	Severity Severity `json:"severity"`
}
