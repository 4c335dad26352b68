package domain

import "github.com/hashicorp/go-multierror"

// Omissions counts input records that were skipped because they were
// malformed. Skipped records never fail an analysis.
type Omissions struct {
	Count   int      `json:"count"`
	Reasons []string `json:"reasons,omitempty"`
}

// OmissionsFrom flattens an accumulated multierror into Omissions.
func OmissionsFrom(merr *multierror.Error) Omissions {
	if merr == nil || len(merr.Errors) == 0 {
		return Omissions{}
	}
	o := Omissions{Count: len(merr.Errors), Reasons: make([]string, 0, len(merr.Errors))}
	for _, err := range merr.Errors {
		o.Reasons = append(o.Reasons, err.Error())
	}
	return o
}

// Merge returns the union of two omission sets, keeping order.
func (o Omissions) Merge(other Omissions) Omissions {
	if other.Count == 0 {
		return o
	}
	return Omissions{
		Count:   o.Count + other.Count,
		Reasons: append(append([]string(nil), o.Reasons...), other.Reasons...),
	}
}
