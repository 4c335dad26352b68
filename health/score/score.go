// Package score folds the analysis signals into a single health score.
package score

import (
	"math"

	"github.com/example/testhealth/health/domain"
)

const (
	flakyPenalty   = 2.0
	anomalyPenalty = 1.0

	excellentPassRate = 95.0
	targetPassRate    = 85.0
	criticalPassRate  = 70.0
)

// Result is the health score and trend of a run.
type Result struct {
	Score int
	Trend domain.HealthTrend
}

// Score returns the clamped 0-100 health score and the pass-rate trend.
// The trend ignores flakiness and anomalies.
func Score(passRate float64, flakyCount, anomalyCount int) Result {
	raw := passRate - flakyPenalty*float64(flakyCount) - anomalyPenalty*float64(anomalyCount)
	s := int(math.Round(raw))
	s = max(0, min(100, s))
	return Result{Score: s, Trend: Trend(passRate)}
}

// Trend bands a pass rate.
func Trend(passRate float64) domain.HealthTrend {
	switch {
	case passRate < criticalPassRate:
		return domain.HealthCritical
	case passRate < targetPassRate:
		return domain.HealthDegrading
	case passRate >= excellentPassRate:
		return domain.HealthExcellent
	default:
		return domain.HealthStable
	}
}
