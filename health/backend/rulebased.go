package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/testhealth/health/classify"
	"github.com/example/testhealth/health/domain"
)

// RuleConfidence is the fixed confidence of rule-based classifications.
const RuleConfidence = 50

type categoryGuide struct {
	action    string
	rootCause string
	steps     []string
}

var guides = map[domain.ErrorCategory]categoryGuide{
	domain.CategoryTimeout: {
		action:    "Replace fixed waits with explicit waits and review timeout budgets",
		rootCause: "Operations are exceeding their time budget, usually from slow pages, slow backends or fixed waits",
		steps:     []string{"Check application response times", "Look for fixed sleeps in the tests", "Compare timeouts with recent runtime trends"},
	},
	domain.CategorySelector: {
		action:    "Use stable selectors such as data-testid or role-based locators",
		rootCause: "Page structure changed or elements are located with brittle selectors",
		steps:     []string{"Diff recent UI changes", "Verify the element exists in the current DOM", "Prefer data-testid or role locators"},
	},
	domain.CategoryNetwork: {
		action:    "Verify service availability and mock external calls",
		rootCause: "A dependent service or network path is unavailable or unstable",
		steps:     []string{"Check service health and deploy status", "Inspect DNS and proxy configuration", "Mock third-party endpoints in tests"},
	},
	domain.CategoryAssertion: {
		action:    "Compare expected and actual values against recent changes",
		rootCause: "Application behavior no longer matches test expectations",
		steps:     []string{"Review recent code changes", "Confirm the expected values are still correct", "Check test data fixtures"},
	},
	domain.CategoryPermission: {
		action:    "Check test credentials, roles and access policies",
		rootCause: "Test accounts lack the permissions the flow requires",
		steps:     []string{"Verify test user roles", "Check for expired credentials", "Review recent access policy changes"},
	},
	domain.CategoryOther: {
		action:    "Investigate the failure manually",
		rootCause: "Failures share no recognized error pattern",
		steps:     []string{"Read the full error output", "Reproduce the failure locally", "Check for environment differences"},
	},
}

// SuggestedAction returns the static action for a category.
func SuggestedAction(cat domain.ErrorCategory) string {
	if g, ok := guides[cat]; ok {
		return g.action
	}
	return guides[domain.CategoryOther].action
}

// RuleBased classifies failures with keyword rules. It is deterministic
// and never fails.
type RuleBased struct{}

// NewRuleBased creates a new RuleBased backend.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Name implements Backend.
func (r *RuleBased) Name() string {
	return "statistical-only"
}

// Categorize implements Backend.
func (r *RuleBased) Categorize(_ context.Context, failure domain.FailureRecord) domain.Classification {
	cat := classify.Classify(failure.ErrorMessage)
	return domain.Classification{
		TestName:        failure.TestName,
		Category:        cat.String(),
		Confidence:      RuleConfidence,
		Reasoning:       fmt.Sprintf("Error message matches the %s pattern", strings.ToLower(cat.String())),
		SuggestedAction: SuggestedAction(cat),
		Source:          domain.SourceRules,
	}
}

// ExplainRootCause implements Backend.
func (r *RuleBased) ExplainRootCause(_ context.Context, req domain.RootCauseRequest) (string, error) {
	g, ok := guides[domain.ErrorCategory(req.Signature)]
	if !ok {
		g = guides[domain.CategoryOther]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Root Cause: %s (%d tests affected).\n", g.rootCause, req.AffectedCount)
	b.WriteString("Investigation Steps:\n")
	for i, s := range g.steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	fmt.Fprintf(&b, "Suggested Fix: %s.\n", g.action)
	fmt.Fprintf(&b, "Priority: %s", priorityOf(req))
	return b.String(), nil
}

func priorityOf(req domain.RootCauseRequest) domain.Priority {
	if req.Priority != "" {
		return req.Priority
	}
	if req.AffectedCount >= 3 {
		return domain.PriorityHigh
	}
	return domain.PriorityMedium
}
