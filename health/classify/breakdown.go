package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/example/testhealth/health/domain"
)

const (
	// slowTimeoutMs marks a timeout failure as high severity.
	slowTimeoutMs = 30000

	snippetLimit = 200

	problematicFileLimit = 3
)

var locatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`locator\('([^']+)'\)`),
	regexp.MustCompile(`locator\("([^"]+)"\)`),
}

// Breakdown triages every failure of a run and aggregates the results.
func Breakdown(failures []domain.FailureRecord) domain.FailureBreakdown {
	b := domain.FailureBreakdown{
		Insights:   make([]domain.FailureInsight, 0, len(failures)),
		ByCategory: make(map[domain.ErrorCategory]int),
		BySeverity: map[domain.FailureSeverity]int{
			domain.FailureSeverityHigh:   0,
			domain.FailureSeverityMedium: 0,
			domain.FailureSeverityLow:    0,
		},
	}
	perFile := make(map[string]int)

	for _, f := range failures {
		insight := Inspect(f)
		b.Insights = append(b.Insights, insight)
		b.ByCategory[insight.Category]++
		b.BySeverity[insight.Severity]++
		b.TotalDurationMs += f.DurationMs
		perFile[f.FilePath]++
	}

	b.MostProblematicFiles = topFiles(perFile, problematicFileLimit)
	return b
}

// Inspect triages a single failure.
func Inspect(f domain.FailureRecord) domain.FailureInsight {
	cat := Classify(f.ErrorMessage)
	return domain.FailureInsight{
		TestName:         f.TestName,
		FilePath:         f.FilePath,
		Category:         cat,
		Severity:         severityOf(cat, f.DurationMs),
		AffectedSelector: extractSelector(f.ErrorMessage),
		DurationMs:       f.DurationMs,
		ErrorSnippet:     Snippet(f.ErrorMessage),
	}
}

func severityOf(cat domain.ErrorCategory, durationMs float64) domain.FailureSeverity {
	switch cat {
	case domain.CategorySelector:
		return domain.FailureSeverityHigh
	case domain.CategoryTimeout:
		if durationMs > slowTimeoutMs {
			return domain.FailureSeverityHigh
		}
		return domain.FailureSeverityMedium
	case domain.CategoryNetwork, domain.CategoryAssertion:
		return domain.FailureSeverityMedium
	default:
		return domain.FailureSeverityLow
	}
}

func extractSelector(message string) string {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "locator") && !strings.Contains(lower, "waiting for") {
		return ""
	}
	for _, re := range locatorPatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			return m[1]
		}
	}
	return ""
}

// Snippet truncates an error message to a readable length.
func Snippet(message string) string {
	r := []rune(message)
	if len(r) <= snippetLimit {
		return message
	}
	return string(r[:snippetLimit]) + "..."
}

func topFiles(counts map[string]int, limit int) []string {
	files := make([]string, 0, len(counts))
	for f := range counts {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		if counts[files[i]] != counts[files[j]] {
			return counts[files[i]] > counts[files[j]]
		}
		return files[i] < files[j]
	})
	if len(files) > limit {
		files = files[:limit]
	}
	return files
}
