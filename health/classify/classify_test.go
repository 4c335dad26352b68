package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/testhealth/health/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		message string
		want    domain.ErrorCategory
	}{
		{"Timeout waiting for selector", domain.CategoryTimeout},
		{"TimeoutError: page.click: Timeout 30000ms exceeded", domain.CategoryTimeout},
		{"Element is not attached to the DOM", domain.CategorySelector},
		{"no element matches selector '#login'", domain.CategorySelector},
		{"net::ERR_CONNECTION_REFUSED", domain.CategoryNetwork},
		{"Network request failed", domain.CategoryNetwork},
		{"Expected: 200 Received: 500", domain.CategoryAssertion},
		{"AssertionError: values differ", domain.CategoryAssertion},
		{"403 Forbidden", domain.CategoryPermission},
		{"Permission denied for /admin", domain.CategoryPermission},
		{"segfault", domain.CategoryOther},
		{"", domain.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.message))
		})
	}
}

func TestGroup(t *testing.T) {
	t.Run("three network failures and one assertion", func(t *testing.T) {
		failures := []domain.FailureRecord{
			{TestName: "a", ErrorMessage: "connection reset"},
			{TestName: "b", ErrorMessage: "expected 1 to equal 2"},
			{TestName: "c", ErrorMessage: "network unreachable"},
			{TestName: "d", ErrorMessage: "Connection refused"},
		}

		groups := Group(failures)
		require.Len(t, groups, 1)
		assert.Equal(t, domain.CategoryNetwork, groups[0].Category)
		assert.Equal(t, 3, groups[0].Count)
		assert.Equal(t, domain.PriorityHigh, groups[0].Priority)
		assert.Equal(t, []string{"a", "c", "d"}, groups[0].AffectedTests)
		assert.Empty(t, groups[0].Narrative)
	})

	t.Run("pairs are medium and keep discovery order", func(t *testing.T) {
		failures := []domain.FailureRecord{
			{TestName: "x", ErrorMessage: "forbidden"},
			{TestName: "y", ErrorMessage: "timeout"},
			{TestName: "z", ErrorMessage: "permission denied"},
			{TestName: "w", ErrorMessage: "Timeout exceeded"},
		}

		groups := Group(failures)
		require.Len(t, groups, 2)
		assert.Equal(t, domain.CategoryPermission, groups[0].Category)
		assert.Equal(t, domain.PriorityMedium, groups[0].Priority)
		assert.Equal(t, domain.CategoryTimeout, groups[1].Category)
		assert.Equal(t, []string{"y", "w"}, groups[1].AffectedTests)
	})

	t.Run("no failures", func(t *testing.T) {
		assert.Empty(t, Group(nil))
	})
}

func TestSampleError(t *testing.T) {
	failures := []domain.FailureRecord{
		{TestName: "a", ErrorMessage: "expected true"},
		{TestName: "b", ErrorMessage: "connection reset by peer"},
		{TestName: "c", ErrorMessage: "network down"},
	}
	assert.Equal(t, "connection reset by peer", SampleError(failures, domain.CategoryNetwork))
	assert.Empty(t, SampleError(failures, domain.CategoryTimeout))
}

func TestBreakdown(t *testing.T) {
	failures := []domain.FailureRecord{
		{TestName: "login", FilePath: "auth.spec.ts", ErrorMessage: "Timeout 45000ms exceeded", DurationMs: 45000},
		{TestName: "logout", FilePath: "auth.spec.ts", ErrorMessage: "Timeout 5000ms exceeded", DurationMs: 5000},
		{TestName: "cart", FilePath: "cart.spec.ts", ErrorMessage: "waiting for locator('#add-to-cart') to be visible: element not found", DurationMs: 1200},
		{TestName: "pay", FilePath: "checkout.spec.ts", ErrorMessage: "boom", DurationMs: 10},
	}

	b := Breakdown(failures)
	require.Len(t, b.Insights, 4)

	assert.Equal(t, domain.FailureSeverityHigh, b.Insights[0].Severity)
	assert.Equal(t, domain.FailureSeverityMedium, b.Insights[1].Severity)
	assert.Equal(t, domain.CategorySelector, b.Insights[2].Category)
	assert.Equal(t, "#add-to-cart", b.Insights[2].AffectedSelector)
	assert.Equal(t, domain.FailureSeverityLow, b.Insights[3].Severity)

	assert.Equal(t, 2, b.ByCategory[domain.CategoryTimeout])
	assert.Equal(t, 2, b.BySeverity[domain.FailureSeverityHigh])
	assert.Equal(t, 1, b.BySeverity[domain.FailureSeverityMedium])
	assert.Equal(t, 1, b.BySeverity[domain.FailureSeverityLow])
	assert.InDelta(t, 51210.0, b.TotalDurationMs, 1e-9)
	assert.Equal(t, []string{"auth.spec.ts", "cart.spec.ts", "checkout.spec.ts"}, b.MostProblematicFiles)
}

func TestSnippet(t *testing.T) {
	short := "short message"
	assert.Equal(t, short, Snippet(short))

	long := strings.Repeat("x", 250)
	got := Snippet(long)
	assert.Len(t, got, 203)
	assert.True(t, strings.HasSuffix(got, "..."))
}
