package domain

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AnalysisConfig)
	}{
		{"zero samples", func(c *AnalysisConfig) { c.MinFlakySamples = 0 }},
		{"inverted interval", func(c *AnalysisConfig) { c.FlakyLower, c.FlakyUpper = 0.8, 0.2 }},
		{"quarantine above one", func(c *AnalysisConfig) { c.QuarantineThreshold = 1.5 }},
		{"contamination too large", func(c *AnalysisConfig) { c.Contamination = 0.6 }},
		{"no concurrency", func(c *AnalysisConfig) { c.AIConcurrency = 0 }},
		{"no timeout", func(c *AnalysisConfig) { c.AITimeout = 0 }},
		{"no trees", func(c *AnalysisConfig) { c.ForestTrees = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	cfg := AnalysisConfig{AICallCap: 3}.WithDefaults()

	assert.Equal(t, 3, cfg.AICallCap)
	assert.Equal(t, 5, cfg.MinFlakySamples)
	assert.Equal(t, 0.2, cfg.FlakyLower)
	assert.Equal(t, 0.8, cfg.FlakyUpper)
	assert.Equal(t, int64(42), cfg.ForestSeed)
	assert.NoError(t, cfg.Validate())
}

func TestOmissionsFrom(t *testing.T) {
	assert.Equal(t, Omissions{}, OmissionsFrom(nil))

	var merr *multierror.Error
	merr = multierror.Append(merr, errors.New("first"), errors.New("second"))

	o := OmissionsFrom(merr)
	assert.Equal(t, 2, o.Count)
	assert.Equal(t, []string{"first", "second"}, o.Reasons)

	merged := o.Merge(Omissions{Count: 1, Reasons: []string{"third"}})
	assert.Equal(t, 3, merged.Count)
	assert.Equal(t, []string{"first", "second", "third"}, merged.Reasons)
	assert.Len(t, o.Reasons, 2)
}

func TestRunStatusIsValid(t *testing.T) {
	assert.True(t, StatusPassed.IsValid())
	assert.True(t, StatusFailed.IsValid())
	assert.False(t, RunStatus("skipped").IsValid())
}
