package domain

// ClassificationSource names the backend variant that produced a
// classification. It is informational only.
type ClassificationSource string

const (
	SourceRules ClassificationSource = "rules"
	SourceAI    ClassificationSource = "ai"
)

// CategoryUnknown is the label of a degraded classification.
const CategoryUnknown = "UNKNOWN"

// Classification is the qualitative categorization of one failure.
type Classification struct {
	TestName string `json:"test_name"`

	// Category is a free-form label. Rule-based output is always one of
	// the ErrorCategory values; AI output usually is.
	Category string `json:"category"`

	// Confidence is 0-100. Degraded results carry 0.
	Confidence int `json:"confidence"`

	Reasoning       string `json:"reasoning"`
	SuggestedAction string `json:"suggested_action"`

	Source ClassificationSource `json:"source"`

	// Degraded is set when the backend failed and the caller should fall
	// back to another variant.
	Degraded bool `json:"-"`
}

// RootCauseRequest is the input to a root-cause narrative.
type RootCauseRequest struct {
	// Signature identifies the group, usually its error category.
	Signature string

	// SampleError is the error message of the group's first failure.
	SampleError string

	AffectedCount int

	// AffectedTests holds at most the first five member names.
	AffectedTests []string

	Priority Priority
}
