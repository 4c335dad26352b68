// Package classify maps failure messages to coarse error categories and
// aggregates failures into root-cause groups and a triage breakdown.
package classify

import (
	"strings"

	"github.com/example/testhealth/health/domain"
)

type rule struct {
	category domain.ErrorCategory
	keywords []string
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{domain.CategoryTimeout, []string{"timeout"}},
	{domain.CategorySelector, []string{"selector", "element"}},
	{domain.CategoryNetwork, []string{"network", "connection"}},
	{domain.CategoryAssertion, []string{"assertion", "expected"}},
	{domain.CategoryPermission, []string{"permission", "forbidden"}},
}

// Classify returns the error category of a failure message. Matching is a
// case-insensitive substring search. Unmatched messages are OTHER.
func Classify(message string) domain.ErrorCategory {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return domain.CategoryOther
}
