package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/example/testhealth/health/domain"
)

// sanitize drops malformed records and returns what was dropped, after the
// omissions the input already carries. Records are visited in a fixed order
// so omission reasons are reproducible.
func sanitize(in Input) (Input, domain.Omissions) {
	var merr *multierror.Error
	out := Input{Summary: in.Summary}

	s := &out.Summary
	if math.IsNaN(s.PassRate) || math.IsInf(s.PassRate, 0) || s.PassRate < 0 || s.PassRate > 100 {
		recomputed := 0.0
		if s.Total > 0 {
			recomputed = float64(s.Passed) / float64(s.Total) * 100
		}
		merr = multierror.Append(merr, fmt.Errorf("%w: pass_rate %v out of range, using %.1f",
			domain.ErrInvalidInput, s.PassRate, recomputed))
		s.PassRate = recomputed
	}

	s.Failures = make([]domain.FailureRecord, 0, len(in.Summary.Failures))
	for i, f := range in.Summary.Failures {
		switch {
		case f.TestName == "":
			merr = multierror.Append(merr, fmt.Errorf("%w: failure %d has no test name", domain.ErrInvalidInput, i))
		case !validDuration(f.DurationMs):
			merr = multierror.Append(merr, fmt.Errorf("%w: failure %q has invalid duration %v",
				domain.ErrInvalidInput, f.TestName, f.DurationMs))
		default:
			s.Failures = append(s.Failures, f)
		}
	}

	s.Durations = make([]domain.PerformanceSample, 0, len(in.Summary.Durations))
	for i, d := range in.Summary.Durations {
		switch {
		case d.TestName == "":
			merr = multierror.Append(merr, fmt.Errorf("%w: duration sample %d has no test name", domain.ErrInvalidInput, i))
		case !validDuration(d.DurationMs):
			merr = multierror.Append(merr, fmt.Errorf("%w: duration sample %q has invalid duration %v",
				domain.ErrInvalidInput, d.TestName, d.DurationMs))
		default:
			s.Durations = append(s.Durations, d)
		}
	}

	if in.History != nil {
		out.History = make(domain.History, len(in.History))
		names := make([]string, 0, len(in.History))
		for name := range in.History {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if name == "" {
				merr = multierror.Append(merr, fmt.Errorf("%w: history entry has no test name", domain.ErrInvalidInput))
				continue
			}
			runs := make([]domain.RunStatus, 0, len(in.History[name]))
			for i, st := range in.History[name] {
				if !st.IsValid() {
					merr = multierror.Append(merr, fmt.Errorf("%w: history %q run %d has status %q",
						domain.ErrInvalidInput, name, i, st))
					continue
				}
				runs = append(runs, st)
			}
			out.History[name] = runs
		}
	}

	return out, in.Omissions.Merge(domain.OmissionsFrom(merr))
}

func validDuration(ms float64) bool {
	return !math.IsNaN(ms) && !math.IsInf(ms, 0) && ms >= 0
}
