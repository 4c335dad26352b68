// Package render formats health reports for CI job summaries.
package render

import (
	"fmt"
	"strings"

	"github.com/example/testhealth/health/domain"
)

const maxDetailedFailures = 5

// Markdown renders a report as a CI summary document.
func Markdown(r *domain.HealthReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Test Health Report\n\n")
	fmt.Fprintf(&b, "**Health Score**: %d/100 (%s)\n\n", r.HealthScore, r.Trend)

	b.WriteString("### Executive Summary\n\n")
	fmt.Fprintf(&b, "- **Total Tests**: %d\n", r.Summary.TotalTests)
	fmt.Fprintf(&b, "- **Passed**: %d\n", r.Summary.PassedTests)
	fmt.Fprintf(&b, "- **Failed**: %d\n", r.Summary.FailedTests)
	fmt.Fprintf(&b, "- **Pass Rate**: %.1f%%\n", r.PassRate)
	fmt.Fprintf(&b, "- **Analysis Engine**: %s\n", r.Engine)
	if r.Omissions.Count > 0 {
		fmt.Fprintf(&b, "- **Skipped Records**: %d\n", r.Omissions.Count)
	}
	b.WriteString("\n")

	if r.Summary.FailedTests == 0 && len(r.FailureCategorization) == 0 {
		b.WriteString("### All Tests Passed\n\nNo failures detected.\n\n")
	} else {
		writeFailures(&b, r.FailureCategorization)
	}

	writeFlaky(&b, r.FlakyTests)
	writeAnomalies(&b, r.Anomalies)
	writeRootCauses(&b, r.RootCauses)
	writeRecommendations(&b, r.Recommendations)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeFailures(b *strings.Builder, cs []domain.Classification) {
	if len(cs) == 0 {
		return
	}
	b.WriteString("### Failed Tests\n\n")
	for _, c := range cs {
		fmt.Fprintf(b, "- `%s`\n", c.TestName)
	}
	b.WriteString("\n### Failure Analysis\n\n")

	for i, c := range cs {
		if i == maxDetailedFailures {
			fmt.Fprintf(b, "*... and %d more failures. See the full JSON report.*\n\n", len(cs)-maxDetailedFailures)
			break
		}
		fmt.Fprintf(b, "#### %d. %s\n\n", i+1, c.TestName)
		fmt.Fprintf(b, "**Category**: %s (confidence %d%%, %s)\n", c.Category, c.Confidence, c.Source)
		if c.Reasoning != "" {
			fmt.Fprintf(b, "**Reasoning**: %s\n", c.Reasoning)
		}
		if c.SuggestedAction != "" {
			fmt.Fprintf(b, "**Suggested Action**: %s\n", c.SuggestedAction)
		}
		b.WriteString("\n")
	}
}

func writeFlaky(b *strings.Builder, flaky []domain.FlakyTestRecord) {
	if len(flaky) == 0 {
		return
	}
	b.WriteString("### Flaky Tests\n\n")
	b.WriteString("| Test | Flakiness | Pass Rate | Runs | Trend | Action |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, f := range flaky {
		fmt.Fprintf(b, "| `%s` | %.2f | %.1f%% | %d | %s | %s |\n",
			escapeCell(f.TestName), f.FlakinessScore, f.PassRatePercent, f.SampleCount, f.StabilityTrend, f.Recommendation)
	}
	b.WriteString("\n")
}

func writeAnomalies(b *strings.Builder, anomalies []domain.AnomalyRecord) {
	if len(anomalies) == 0 {
		return
	}
	b.WriteString("### Performance Anomalies\n\n")
	b.WriteString("| Test | Duration | Baseline | Deviation | Severity |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, a := range anomalies {
		fmt.Fprintf(b, "| `%s` | %.0fms | %.0fms | %+.1f%% | %s |\n",
			escapeCell(a.TestName), a.DurationMs, a.BaselineMs, a.DeviationPercent, a.Severity)
	}
	b.WriteString("\n")
}

func writeRootCauses(b *strings.Builder, groups []domain.RootCauseGroup) {
	if len(groups) == 0 {
		return
	}
	b.WriteString("### Root Causes\n\n")
	for _, g := range groups {
		fmt.Fprintf(b, "- **%s** (%s priority): %d tests affected\n", g.Category, g.Priority, g.Count)
		for _, name := range g.AffectedTests {
			fmt.Fprintf(b, "  - `%s`\n", name)
		}
		if g.Narrative != "" {
			b.WriteString("\n")
			for _, line := range strings.Split(strings.TrimSpace(g.Narrative), "\n") {
				fmt.Fprintf(b, "  > %s\n", line)
			}
		}
	}
	b.WriteString("\n")
}

func writeRecommendations(b *strings.Builder, recs []domain.Recommendation) {
	if len(recs) == 0 {
		return
	}
	b.WriteString("### Recommended Next Steps\n\n")
	for _, r := range recs {
		fmt.Fprintf(b, "#### P%d: %s\n\n", r.Priority, r.Title)
		fmt.Fprintf(b, "%s\n\n", r.Description)
		for _, step := range r.ActionableSteps {
			fmt.Fprintf(b, "- %s\n", step)
		}
		for _, action := range r.RelatedActions {
			fmt.Fprintf(b, "- %s\n", action)
		}
		b.WriteString("\n")
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
