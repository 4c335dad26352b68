package anomaly

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/testhealth/health/domain"
)

func samplesOf(durations ...float64) []domain.PerformanceSample {
	out := make([]domain.PerformanceSample, len(durations))
	for i, d := range durations {
		out[i] = domain.PerformanceSample{TestName: fmt.Sprintf("test-%d", i), DurationMs: d}
	}
	return out
}

func TestDetectFlagsSlowOutlier(t *testing.T) {
	samples := samplesOf(100, 102, 98, 101, 99, 103, 97, 100, 101, 5000)

	got := NewDetector(domain.DefaultConfig()).Detect(samples)

	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, "test-9", a.TestName)
	assert.Equal(t, 5000.0, a.DurationMs)
	assert.Equal(t, 100.5, a.BaselineMs)
	assert.InDelta(t, 4875.1, a.DeviationPercent, 0.05)
	assert.Equal(t, domain.SeverityHigh, a.Severity)
}

func TestDetectBelowSampleFloor(t *testing.T) {
	samples := samplesOf(1, 10, 100, 1000, 10000, 100000, 5, 50, 500)

	got := NewDetector(domain.DefaultConfig()).Detect(samples)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDetectZeroMedian(t *testing.T) {
	samples := samplesOf(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 900)

	assert.Empty(t, NewDetector(domain.DefaultConfig()).Detect(samples))
}

func TestDetectIsDeterministic(t *testing.T) {
	durations := make([]float64, 0, 40)
	for i := 0; i < 40; i++ {
		durations = append(durations, float64(200+(i*37)%23))
	}
	durations[7] = 1500
	durations[22] = 20
	samples := samplesOf(durations...)

	det := NewDetector(domain.DefaultConfig())
	first := det.Detect(samples)
	second := det.Detect(samples)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, "test-7", first[0].TestName)
	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, abs(first[i-1].DeviationPercent), abs(first[i].DeviationPercent))
	}
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.InDelta(t, 9.1, Percentile(values, 90), 1e-9)
	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 10.0, Percentile(values, 100))
	assert.Equal(t, 5.5, Percentile(values, 50))
}

func TestForestScoresOutlierHighest(t *testing.T) {
	values := []float64{10, 11, 9, 10, 12, 10, 11, 9, 10, 400}
	f := FitForest(values, 100, 256, 42)

	outlier := f.Score(400)
	for _, v := range values[:9] {
		assert.Greater(t, outlier, f.Score(v))
	}
	assert.LessOrEqual(t, outlier, 1.0)
}

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	assert.InDelta(t, 3.748880, averagePathLength(10), 1e-5)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
