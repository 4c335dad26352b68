// Package flaky scores tests by the inconsistency of their historical
// pass/fail outcomes.
package flaky

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/example/testhealth/health/domain"
)

// Detector flags tests whose history is neither reliably passing nor
// reliably failing.
type Detector struct {
	config domain.AnalysisConfig
}

// NewDetector creates a new Detector with the given configuration.
func NewDetector(config domain.AnalysisConfig) *Detector {
	return &Detector{config: config.WithDefaults()}
}

// Detect evaluates every test in the history and returns the most flaky
// ones, ordered by score descending and then by test name.
func (d *Detector) Detect(history domain.History) []domain.FlakyTestRecord {
	records := make([]domain.FlakyTestRecord, 0)
	for name, runs := range history {
		rec, ok := d.evaluate(name, runs)
		if ok {
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].FlakinessScore != records[j].FlakinessScore {
			return records[i].FlakinessScore > records[j].FlakinessScore
		}
		return records[i].TestName < records[j].TestName
	})

	if len(records) > d.config.MaxFlakyReported {
		records = records[:d.config.MaxFlakyReported]
	}
	return records
}

func (d *Detector) evaluate(name string, runs []domain.RunStatus) (domain.FlakyTestRecord, bool) {
	n := len(runs)
	if n < d.config.MinFlakySamples {
		return domain.FlakyTestRecord{}, false
	}

	passRate := PassRate(runs)
	if passRate <= d.config.FlakyLower || passRate >= d.config.FlakyUpper {
		return domain.FlakyTestRecord{}, false
	}

	score := Entropy(passRate)
	action := domain.ActionMonitor
	if score > d.config.QuarantineThreshold {
		action = domain.ActionQuarantine
	}

	return domain.FlakyTestRecord{
		TestName:        name,
		FlakinessScore:  score,
		PassRatePercent: math.Round(passRate*1000) / 10,
		SampleCount:     n,
		Recommendation:  action,
		StabilityTrend:  d.trend(runs),
	}, true
}

// trend compares how far each half of the history is from a coin flip.
// A growing distance means the test became more deterministic.
func (d *Detector) trend(runs []domain.RunStatus) domain.StabilityTrend {
	if len(runs) < d.config.TrendMinSamples {
		return domain.TrendInsufficientData
	}
	mid := len(runs) / 2
	first := math.Abs(PassRate(runs[:mid]) - 0.5)
	second := math.Abs(PassRate(runs[mid:]) - 0.5)

	switch {
	case second-first > d.config.TrendDelta:
		return domain.TrendImproving
	case first-second > d.config.TrendDelta:
		return domain.TrendDegrading
	default:
		return domain.TrendStable
	}
}

// PassRate returns the fraction of passed runs, or 0 for an empty slice.
func PassRate(runs []domain.RunStatus) float64 {
	if len(runs) == 0 {
		return 0
	}
	passed := 0
	for _, r := range runs {
		if r == domain.StatusPassed {
			passed++
		}
	}
	return float64(passed) / float64(len(runs))
}

// Entropy returns the binary Shannon entropy in bits of a pass rate.
// Degenerate distributions have zero entropy.
func Entropy(passRate float64) float64 {
	if passRate <= 0 || passRate >= 1 {
		return 0
	}
	return stat.Entropy([]float64{passRate, 1 - passRate}) / math.Ln2
}
