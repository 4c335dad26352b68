package domain

import (
	"fmt"
	"time"
)

// AnalysisConfig holds the tunable thresholds of the health engine.
type AnalysisConfig struct {
	// MinFlakySamples is the minimum number of historical runs a test needs
	// before it is evaluated for flakiness.
	// Default: 5
	MinFlakySamples int `yaml:"min_flaky_samples"`

	// FlakyLower and FlakyUpper bound the open pass-rate interval inside
	// which a test counts as flaky.
	// Default: 0.2 and 0.8
	FlakyLower float64 `yaml:"flaky_lower"`
	FlakyUpper float64 `yaml:"flaky_upper"`

	// QuarantineThreshold is the flakiness score above which a test is
	// recommended for quarantine instead of monitoring.
	// Default: 0.7
	QuarantineThreshold float64 `yaml:"quarantine_threshold"`

	// TrendMinSamples is the minimum history length for a stability trend.
	// Default: 6
	TrendMinSamples int `yaml:"trend_min_samples"`

	// TrendDelta is the change in distance from maximal uncertainty that
	// separates IMPROVING/DEGRADING from STABLE.
	// Default: 0.1
	TrendDelta float64 `yaml:"trend_delta"`

	// MaxFlakyReported caps the number of flaky records in a report.
	// Default: 10
	MaxFlakyReported int `yaml:"max_flaky_reported"`

	// MinAnomalySamples is the minimum batch size for anomaly detection.
	// Default: 10
	MinAnomalySamples int `yaml:"min_anomaly_samples"`

	// Contamination is the expected fraction of outliers in a batch.
	// Default: 0.10
	Contamination float64 `yaml:"contamination"`

	// HighSeverityDeviation is the absolute deviation percentage above
	// which an anomaly is HIGH.
	// Default: 100
	HighSeverityDeviation float64 `yaml:"high_severity_deviation"`

	// AICallCap is the maximum number of failures sent to the AI backend
	// per run. The rest are classified by rules.
	// Default: 10
	AICallCap int `yaml:"ai_call_cap"`

	// AIConcurrency bounds the number of in-flight backend calls.
	// Default: 4
	AIConcurrency int `yaml:"ai_concurrency"`

	// AITimeout bounds a single backend call.
	// Default: 30s
	AITimeout time.Duration `yaml:"ai_timeout"`

	// ForestTrees, ForestSampleSize and ForestSeed configure the isolation
	// forest used for anomaly detection. A fixed seed keeps reports
	// reproducible.
	// Default: 100, 256, 42
	ForestTrees      int   `yaml:"forest_trees"`
	ForestSampleSize int   `yaml:"forest_sample_size"`
	ForestSeed       int64 `yaml:"forest_seed"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() AnalysisConfig {
	return AnalysisConfig{
		MinFlakySamples:       5,
		FlakyLower:            0.2,
		FlakyUpper:            0.8,
		QuarantineThreshold:   0.7,
		TrendMinSamples:       6,
		TrendDelta:            0.1,
		MaxFlakyReported:      10,
		MinAnomalySamples:     10,
		Contamination:         0.10,
		HighSeverityDeviation: 100,
		AICallCap:             10,
		AIConcurrency:         4,
		AITimeout:             30 * time.Second,
		ForestTrees:           100,
		ForestSampleSize:      256,
		ForestSeed:            42,
	}
}

// Validate checks that the configuration is valid.
func (c *AnalysisConfig) Validate() error {
	if c.MinFlakySamples < 1 {
		return fmt.Errorf("%w: MinFlakySamples must be at least 1, got %d",
			ErrInvalidConfig, c.MinFlakySamples)
	}
	if c.FlakyLower < 0 || c.FlakyUpper > 1 || c.FlakyLower >= c.FlakyUpper {
		return fmt.Errorf("%w: flaky interval must satisfy 0 <= lower < upper <= 1, got (%f, %f)",
			ErrInvalidConfig, c.FlakyLower, c.FlakyUpper)
	}
	if c.QuarantineThreshold < 0 || c.QuarantineThreshold > 1 {
		return fmt.Errorf("%w: QuarantineThreshold must be between 0 and 1, got %f",
			ErrInvalidConfig, c.QuarantineThreshold)
	}
	if c.TrendMinSamples < 2 {
		return fmt.Errorf("%w: TrendMinSamples must be at least 2, got %d",
			ErrInvalidConfig, c.TrendMinSamples)
	}
	if c.TrendDelta < 0 {
		return fmt.Errorf("%w: TrendDelta must not be negative, got %f",
			ErrInvalidConfig, c.TrendDelta)
	}
	if c.MaxFlakyReported < 1 {
		return fmt.Errorf("%w: MaxFlakyReported must be at least 1, got %d",
			ErrInvalidConfig, c.MaxFlakyReported)
	}
	if c.MinAnomalySamples < 2 {
		return fmt.Errorf("%w: MinAnomalySamples must be at least 2, got %d",
			ErrInvalidConfig, c.MinAnomalySamples)
	}
	if c.Contamination <= 0 || c.Contamination > 0.5 {
		return fmt.Errorf("%w: Contamination must be in (0, 0.5], got %f",
			ErrInvalidConfig, c.Contamination)
	}
	if c.HighSeverityDeviation <= 0 {
		return fmt.Errorf("%w: HighSeverityDeviation must be positive, got %f",
			ErrInvalidConfig, c.HighSeverityDeviation)
	}
	if c.AICallCap < 0 {
		return fmt.Errorf("%w: AICallCap must not be negative, got %d",
			ErrInvalidConfig, c.AICallCap)
	}
	if c.AIConcurrency < 1 {
		return fmt.Errorf("%w: AIConcurrency must be at least 1, got %d",
			ErrInvalidConfig, c.AIConcurrency)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("%w: AITimeout must be positive, got %s",
			ErrInvalidConfig, c.AITimeout)
	}
	if c.ForestTrees < 1 || c.ForestSampleSize < 2 {
		return fmt.Errorf("%w: forest needs at least 1 tree and a sample size of 2, got %d/%d",
			ErrInvalidConfig, c.ForestTrees, c.ForestSampleSize)
	}
	return nil
}

// WithDefaults returns a new config with defaults applied for zero values.
func (c AnalysisConfig) WithDefaults() AnalysisConfig {
	defaults := DefaultConfig()
	if c.MinFlakySamples == 0 {
		c.MinFlakySamples = defaults.MinFlakySamples
	}
	if c.FlakyLower == 0 && c.FlakyUpper == 0 {
		c.FlakyLower = defaults.FlakyLower
		c.FlakyUpper = defaults.FlakyUpper
	}
	if c.QuarantineThreshold == 0 {
		c.QuarantineThreshold = defaults.QuarantineThreshold
	}
	if c.TrendMinSamples == 0 {
		c.TrendMinSamples = defaults.TrendMinSamples
	}
	if c.TrendDelta == 0 {
		c.TrendDelta = defaults.TrendDelta
	}
	if c.MaxFlakyReported == 0 {
		c.MaxFlakyReported = defaults.MaxFlakyReported
	}
	if c.MinAnomalySamples == 0 {
		c.MinAnomalySamples = defaults.MinAnomalySamples
	}
	if c.Contamination == 0 {
		c.Contamination = defaults.Contamination
	}
	if c.HighSeverityDeviation == 0 {
		c.HighSeverityDeviation = defaults.HighSeverityDeviation
	}
	if c.AICallCap == 0 {
		c.AICallCap = defaults.AICallCap
	}
	if c.AIConcurrency == 0 {
		c.AIConcurrency = defaults.AIConcurrency
	}
	if c.AITimeout == 0 {
		c.AITimeout = defaults.AITimeout
	}
	if c.ForestTrees == 0 {
		c.ForestTrees = defaults.ForestTrees
	}
	if c.ForestSampleSize == 0 {
		c.ForestSampleSize = defaults.ForestSampleSize
	}
	if c.ForestSeed == 0 {
		c.ForestSeed = defaults.ForestSeed
	}
	return c
}
