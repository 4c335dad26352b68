package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/testhealth/health/domain"
)

func TestMarkdownFullReport(t *testing.T) {
	r := &domain.HealthReport{
		Engine:      "statistical-only",
		HealthScore: 57,
		Trend:       domain.HealthCritical,
		PassRate:    66.666,
		Summary:     domain.Summary{TotalTests: 3, PassedTests: 2, FailedTests: 1},
		FailureCategorization: []domain.Classification{
			{TestName: "checkout", Category: "TIMEOUT", Confidence: 50, Source: domain.SourceRules, SuggestedAction: "Increase timeout"},
		},
		FlakyTests: []domain.FlakyTestRecord{
			{TestName: "a|b", FlakinessScore: 0.97, PassRatePercent: 40, SampleCount: 10,
				Recommendation: domain.ActionQuarantine, StabilityTrend: domain.TrendStable},
		},
		Anomalies: []domain.AnomalyRecord{
			{TestName: "slow", DurationMs: 5000, BaselineMs: 100, DeviationPercent: 4900, Severity: domain.SeverityHigh},
		},
		RootCauses: []domain.RootCauseGroup{
			{Category: domain.CategoryTimeout, AffectedTests: []string{"x", "y"}, Count: 2, Priority: domain.PriorityMedium,
				Narrative: "Root Cause: slow backend\nPriority: MEDIUM"},
		},
		Recommendations: []domain.Recommendation{
			{Priority: 1, Title: "Critical: Low Pass Rate", Description: "Pass rate is only 66.7%.", ActionableSteps: []string{"Fix it"}},
		},
		Omissions: domain.Omissions{Count: 2},
	}

	md := Markdown(r)
	assert.Contains(t, md, "**Health Score**: 57/100 (CRITICAL)")
	assert.Contains(t, md, "- **Pass Rate**: 66.7%")
	assert.Contains(t, md, "- **Skipped Records**: 2")
	assert.Contains(t, md, "- `checkout`")
	assert.Contains(t, md, "**Category**: TIMEOUT (confidence 50%, rules)")
	assert.Contains(t, md, "| `a\\|b` | 0.97 | 40.0% | 10 | STABLE | QUARANTINE |")
	assert.Contains(t, md, "| `slow` | 5000ms | 100ms | +4900.0% | HIGH |")
	assert.Contains(t, md, "  > Root Cause: slow backend")
	assert.Contains(t, md, "#### P1: Critical: Low Pass Rate")
	assert.True(t, strings.HasSuffix(md, "- Fix it\n"))
}

func TestMarkdownAllPassed(t *testing.T) {
	md := Markdown(&domain.HealthReport{
		Engine:      "statistical-only",
		HealthScore: 100,
		Trend:       domain.HealthExcellent,
		PassRate:    100,
		Summary:     domain.Summary{TotalTests: 4, PassedTests: 4},
	})
	assert.Contains(t, md, "### All Tests Passed")
	assert.NotContains(t, md, "### Flaky Tests")
	assert.NotContains(t, md, "Skipped Records")
}

func TestMarkdownTruncatesFailureDetails(t *testing.T) {
	var cs []domain.Classification
	for i := 0; i < 7; i++ {
		cs = append(cs, domain.Classification{TestName: fmt.Sprintf("t%d", i), Category: "OTHER"})
	}
	md := Markdown(&domain.HealthReport{FailureCategorization: cs, Summary: domain.Summary{FailedTests: 7}})

	assert.Contains(t, md, "#### 5. t4")
	assert.NotContains(t, md, "#### 6. t5")
	assert.Contains(t, md, "*... and 2 more failures.")
}
