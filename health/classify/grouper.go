package classify

import "github.com/example/testhealth/health/domain"

// highPriorityGroupSize is the group size at which a root cause is HIGH.
const highPriorityGroupSize = 3

// Group clusters failures by category. Only categories with more than one
// failure produce a group. Groups are ordered by the first appearance of
// their category; member names keep input order.
func Group(failures []domain.FailureRecord) []domain.RootCauseGroup {
	var order []domain.ErrorCategory
	members := make(map[domain.ErrorCategory][]string)

	for _, f := range failures {
		cat := Classify(f.ErrorMessage)
		if _, seen := members[cat]; !seen {
			order = append(order, cat)
		}
		members[cat] = append(members[cat], f.TestName)
	}

	groups := make([]domain.RootCauseGroup, 0, len(order))
	for _, cat := range order {
		names := members[cat]
		if len(names) < 2 {
			continue
		}
		priority := domain.PriorityMedium
		if len(names) >= highPriorityGroupSize {
			priority = domain.PriorityHigh
		}
		groups = append(groups, domain.RootCauseGroup{
			Category:      cat,
			AffectedTests: names,
			Count:         len(names),
			Priority:      priority,
		})
	}
	return groups
}

// SampleError returns the error message of the first failure in the given
// category, used to prompt root-cause narratives.
func SampleError(failures []domain.FailureRecord, cat domain.ErrorCategory) string {
	for _, f := range failures {
		if Classify(f.ErrorMessage) == cat {
			return f.ErrorMessage
		}
	}
	return ""
}
