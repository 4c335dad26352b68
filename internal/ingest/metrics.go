package ingest

import (
	"fmt"
	"sort"

	"github.com/example/testhealth/health/domain"
)

const (
	placeholderError = "Error details not available"
	placeholderFile  = "unknown"
)

type failureDetail struct {
	Name     string  `mapstructure:"name"`
	File     string  `mapstructure:"file"`
	Error    any     `mapstructure:"error"`
	Duration float64 `mapstructure:"duration"`
}

type durationDetail struct {
	Name     string   `mapstructure:"name"`
	Duration *float64 `mapstructure:"duration"`
}

// decodeMetrics reads the metrics.json shape field by field so that one
// malformed record never rejects the document.
func decodeMetrics(raw map[string]any) (Summary, error) {
	c := &collector{}
	var s domain.RunSummary

	if n, ok := c.number(raw["total_test_cases"], "total_test_cases"); ok {
		s.Total = int(n)
	}
	if n, ok := c.number(raw["passed_tests"], "passed_tests"); ok {
		s.Passed = int(n)
	}

	var failureList []map[string]any
	listed := false
	switch v := raw["failed_tests"].(type) {
	case []any:
		failureList = c.records(v, "failed_tests")
		listed = len(v) > 0
		s.Failed = len(v)
	case nil:
	default:
		if n, ok := c.number(v, "failed_tests"); ok {
			s.Failed = int(n)
		}
	}
	if !listed {
		failureList = c.records(raw["failed_test_details"], "failed_test_details")
		listed = len(failureList) > 0
	}

	for i, m := range failureList {
		var d failureDetail
		if err := decode(m, &d); err != nil {
			c.skip("failure %d: %v", i, err)
			continue
		}
		if d.Name == "" {
			c.skip("failure %d has no name", i)
			continue
		}
		s.Failures = append(s.Failures, domain.FailureRecord{
			TestName:     d.Name,
			FilePath:     orDefault(d.File, placeholderFile),
			ErrorMessage: orDefault(messageOf(d.Error), placeholderError),
			DurationMs:   d.Duration,
		})
	}
	if !listed {
		s.Failures = placeholders(s.Failed)
	}

	var samples []map[string]any
	switch pm := raw["performance_metrics"].(type) {
	case map[string]any:
		samples = c.records(pm["test_durations"], "performance_metrics.test_durations")
	case nil:
	default:
		c.skip("performance_metrics is not an object")
	}
	for i, m := range samples {
		var d durationDetail
		if err := decode(m, &d); err != nil || d.Name == "" || d.Duration == nil {
			c.skip("duration sample %d is incomplete", i)
			continue
		}
		s.Durations = append(s.Durations, domain.PerformanceSample{TestName: d.Name, DurationMs: *d.Duration})
	}

	if s.Total == 0 {
		s.Total = s.Passed + s.Failed
	}
	passRate, hasPassRate := c.number(raw["pass_rate"], "pass_rate")
	switch {
	case hasPassRate && (passRate != 0 || s.Total == 0):
		s.PassRate = passRate
	case s.Total > 0:
		s.PassRate = float64(s.Passed) / float64(s.Total) * 100
	}

	return Summary{Summary: s, Format: FormatMetrics, Omissions: c.omissions()}, nil
}

// placeholders stands in for failures known only by count.
func placeholders(n int) []domain.FailureRecord {
	out := make([]domain.FailureRecord, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.FailureRecord{
			TestName:     fmt.Sprintf("failed_test_%d", i),
			FilePath:     placeholderFile,
			ErrorMessage: placeholderError,
		})
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
