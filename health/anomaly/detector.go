// Package anomaly flags test durations that deviate from the rest of a
// batch.
package anomaly

import (
	"math"
	"sort"

	"github.com/example/testhealth/health/domain"
)

// Detector flags outlying durations with a seeded isolation forest and
// reports their deviation from the batch median.
type Detector struct {
	config domain.AnalysisConfig
}

// NewDetector creates a new Detector with the given configuration.
func NewDetector(config domain.AnalysisConfig) *Detector {
	return &Detector{config: config.WithDefaults()}
}

// Detect returns the flagged samples ordered by absolute deviation,
// largest first. Batches below the minimum sample count, and batches whose
// median is zero, yield no anomalies.
func (d *Detector) Detect(samples []domain.PerformanceSample) []domain.AnomalyRecord {
	anomalies := make([]domain.AnomalyRecord, 0)
	if len(samples) < d.config.MinAnomalySamples {
		return anomalies
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.DurationMs
	}

	baseline := Median(values)
	if baseline == 0 {
		return anomalies
	}

	forest := FitForest(values, d.config.ForestTrees, d.config.ForestSampleSize, d.config.ForestSeed)
	scores := make([]float64, len(values))
	for i, v := range values {
		scores[i] = forest.Score(v)
	}
	threshold := Percentile(scores, 100*(1-d.config.Contamination))

	for i, s := range samples {
		if scores[i] <= threshold {
			continue
		}
		deviation := (s.DurationMs - baseline) / baseline * 100
		severity := domain.SeverityMedium
		if math.Abs(deviation) > d.config.HighSeverityDeviation {
			severity = domain.SeverityHigh
		}
		anomalies = append(anomalies, domain.AnomalyRecord{
			TestName:         s.TestName,
			DurationMs:       s.DurationMs,
			BaselineMs:       baseline,
			DeviationPercent: math.Round(deviation*10) / 10,
			Severity:         severity,
		})
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		return math.Abs(anomalies[i].DeviationPercent) > math.Abs(anomalies[j].DeviationPercent)
	})
	return anomalies
}

// Median returns the middle value, averaging the two middle values of an
// even-length slice. The input is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Percentile returns the q-th percentile (0-100) using linear
// interpolation between closest ranks.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
