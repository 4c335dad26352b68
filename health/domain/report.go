package domain

import "time"

// Priority of a root-cause group.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
)

// RootCauseGroup is a cluster of failures sharing an error category.
type RootCauseGroup struct {
	// Category is the shared error category of the group.
	Category ErrorCategory `json:"category"`

	// AffectedTests lists member test names in discovery order.
	AffectedTests []string `json:"affected_tests"`

	// Count is the number of failures in the group (always > 1).
	Count int `json:"count"`

	// Priority is HIGH for three or more failures, MEDIUM otherwise.
	Priority Priority `json:"priority"`

	// Narrative is optional free text from the classification backend.
	Narrative string `json:"narrative,omitempty"`
}

// Impact of a recommendation.
type Impact string

const (
	ImpactCritical Impact = "CRITICAL"
	ImpactHigh     Impact = "HIGH"
	ImpactMedium   Impact = "MEDIUM"
)

// RecommendationType groups recommendations by the kind of follow-up.
type RecommendationType string

const (
	RecommendationAction        RecommendationType = "ACTION"
	RecommendationMonitoring    RecommendationType = "MONITORING"
	RecommendationInvestigation RecommendationType = "INVESTIGATION"
)

// Recommendation is one prioritized action item.
type Recommendation struct {
	Type            RecommendationType `json:"type"`
	Priority        int                `json:"priority"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Impact          Impact             `json:"impact"`
	ActionableSteps []string           `json:"actionable_steps"`

	// RelatedActions carries suggested actions from failure classification.
	RelatedActions []string `json:"related_actions,omitempty"`
}

// HealthTrend is the coarse pass-rate banding of a run.
type HealthTrend string

const (
	HealthCritical  HealthTrend = "CRITICAL"
	HealthDegrading HealthTrend = "DEGRADING"
	HealthStable    HealthTrend = "STABLE"
	HealthExcellent HealthTrend = "EXCELLENT"
)

// Summary carries headline counts for the report.
type Summary struct {
	TotalTests            int  `json:"total_tests"`
	PassedTests           int  `json:"passed_tests"`
	FailedTests           int  `json:"failed_tests"`
	TotalFailuresAnalyzed int  `json:"total_failures_analyzed"`
	FlakyTestsDetected    int  `json:"flaky_tests_detected"`
	PerformanceAnomalies  int  `json:"performance_anomalies"`
	RootCausesIdentified  int  `json:"root_causes_identified"`
	AIEnabled             bool `json:"ai_enabled"`
}

// HealthReport is the complete output of one analysis run. It is built
// once by the engine and never mutated afterwards.
type HealthReport struct {
	// ID is derived from the analyzed input, so identical inputs share an ID.
	ID string `json:"id"`

	// GeneratedAt is the only field that varies between identical runs.
	GeneratedAt time.Time `json:"generated_at"`

	// Engine names the classification path, e.g. "ai:gpt-4o" or "statistical-only".
	Engine string `json:"engine"`

	Version string `json:"version"`

	HealthScore int         `json:"health_score"`
	Trend       HealthTrend `json:"trend"`
	PassRate    float64     `json:"pass_rate"`

	FlakyTests      []FlakyTestRecord `json:"flaky_tests"`
	Anomalies       []AnomalyRecord   `json:"anomalies"`
	RootCauses      []RootCauseGroup  `json:"root_causes"`
	Recommendations []Recommendation  `json:"recommendations"`

	FailureCategorization []Classification `json:"failure_categorization"`
	FailureBreakdown      FailureBreakdown `json:"failure_breakdown"`

	Summary   Summary   `json:"summary"`
	Omissions Omissions `json:"omissions"`
}
