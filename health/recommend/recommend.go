// Package recommend turns analysis signals into prioritized action items.
package recommend

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/example/testhealth/health/domain"
)

const (
	// CriticalPassRate and TargetPassRate are the pass-rate bands that
	// trigger the priority 1 and priority 2 recommendations.
	CriticalPassRate = 70.0
	TargetPassRate   = 85.0

	maxRelatedActions = 3
)

// Synthesize builds the recommendations for a run, ordered by priority.
// Classifications only enrich the pass-rate recommendations; they never
// add or remove one.
func Synthesize(
	passRate float64,
	flaky []domain.FlakyTestRecord,
	anomalies []domain.AnomalyRecord,
	classifications []domain.Classification,
) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, 3)
	rate := strconv.FormatFloat(passRate, 'f', -1, 64)

	if passRate < CriticalPassRate {
		recs = append(recs, domain.Recommendation{
			Type:        domain.RecommendationAction,
			Priority:    1,
			Title:       "Critical: High Failure Rate",
			Description: fmt.Sprintf("Pass rate is only %s%%. Immediate investigation required.", rate),
			Impact:      domain.ImpactCritical,
			ActionableSteps: []string{
				"Review all failed tests immediately",
				"Check for infrastructure issues",
				"Consider blocking deployment",
			},
			RelatedActions: relatedActions(classifications),
		})
	} else if passRate < TargetPassRate {
		recs = append(recs, domain.Recommendation{
			Type:        domain.RecommendationAction,
			Priority:    2,
			Title:       "Warning: Below Target Pass Rate",
			Description: fmt.Sprintf("Pass rate is %s%%. Target is 95%%+.", rate),
			Impact:      domain.ImpactHigh,
			ActionableSteps: []string{
				"Investigate failed tests",
				"Review recent code changes",
				"Consider delaying deployment",
			},
			RelatedActions: relatedActions(classifications),
		})
	}

	if len(flaky) > 0 {
		recs = append(recs, domain.Recommendation{
			Type:        domain.RecommendationMonitoring,
			Priority:    3,
			Title:       fmt.Sprintf("%d Flaky Test(s) Detected", len(flaky)),
			Description: "Tests showing inconsistent pass/fail behavior",
			Impact:      domain.ImpactMedium,
			ActionableSteps: []string{
				"Review and fix flaky tests",
				"Consider quarantining unstable tests",
				"Add retry logic for genuinely flaky scenarios",
			},
		})
	}

	if len(anomalies) > 0 {
		recs = append(recs, domain.Recommendation{
			Type:        domain.RecommendationInvestigation,
			Priority:    4,
			Title:       "Performance Anomalies Detected",
			Description: "Some tests running significantly slower than baseline",
			Impact:      domain.ImpactMedium,
			ActionableSteps: []string{
				"Profile slow tests",
				"Check for resource constraints",
				"Review recent performance changes",
			},
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority < recs[j].Priority
	})
	return recs
}

// relatedActions collects distinct suggested actions in classification
// order, skipping degraded results.
func relatedActions(classifications []domain.Classification) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range classifications {
		if c.Degraded || c.SuggestedAction == "" || seen[c.SuggestedAction] {
			continue
		}
		seen[c.SuggestedAction] = true
		out = append(out, c.SuggestedAction)
		if len(out) == maxRelatedActions {
			break
		}
	}
	return out
}
