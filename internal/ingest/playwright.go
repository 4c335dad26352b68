package ingest

import (
	"fmt"

	"github.com/example/testhealth/health/domain"
)

const noErrorMessage = "No error message"

// The pw types hold scalar headers only. Nested lists are walked record by
// record so a malformed entry costs one test, not the run.
type pwSuite struct {
	Title string `mapstructure:"title"`
	File  string `mapstructure:"file"`
}

type pwSpec struct {
	Title string `mapstructure:"title"`
	File  string `mapstructure:"file"`
}

type pwTest struct {
	Title       string `mapstructure:"title"`
	ProjectName string `mapstructure:"projectName"`
}

type pwResult struct {
	Status   string  `mapstructure:"status"`
	Duration float64 `mapstructure:"duration"`
	Error    any     `mapstructure:"error"`
	Errors   any     `mapstructure:"errors"`
}

func decodePlaywright(raw map[string]any) (Summary, error) {
	w := &pwWalker{c: &collector{}}
	for i, suite := range w.c.records(raw["suites"], "suites") {
		w.suite(suite, fmt.Sprintf("suites[%d]", i), "")
	}

	s := w.summary
	s.Total = s.Passed + s.Failed
	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total) * 100
	}
	return Summary{Summary: s, Format: FormatPlaywright, Omissions: w.c.omissions()}, nil
}

type pwWalker struct {
	summary domain.RunSummary
	c       *collector
}

// header decodes the scalar fields of a record. Keys the target struct does
// not declare, such as nested lists, are ignored.
func (w *pwWalker) header(m map[string]any, path string, out any) bool {
	if err := decode(m, out); err != nil {
		w.c.skip("%s: %v", path, err)
		return false
	}
	return true
}

func (w *pwWalker) suite(m map[string]any, path, file string) {
	var s pwSuite
	if !w.header(m, path, &s) {
		return
	}
	if s.File != "" {
		file = s.File
	}
	for i, specMap := range w.c.records(m["specs"], path+".specs") {
		specPath := fmt.Sprintf("%s.specs[%d]", path, i)
		var spec pwSpec
		if !w.header(specMap, specPath, &spec) {
			continue
		}
		specFile := file
		if spec.File != "" {
			specFile = spec.File
		}
		tests := w.c.records(specMap["tests"], specPath+".tests")
		for j, t := range tests {
			w.test(spec, t, fmt.Sprintf("%s.tests[%d]", specPath, j), specFile, len(tests))
		}
	}
	for i, child := range w.c.records(m["suites"], path+".suites") {
		w.suite(child, fmt.Sprintf("%s.suites[%d]", path, i), file)
	}
}

// test records one test. Its last result is the final outcome after
// retries; skipped and interrupted tests do not count.
func (w *pwWalker) test(spec pwSpec, m map[string]any, path, file string, siblings int) {
	var t pwTest
	if !w.header(m, path, &t) {
		return
	}
	name := spec.Title
	if name == "" {
		name = t.Title
	}
	if t.ProjectName != "" && siblings > 1 {
		name = fmt.Sprintf("%s [%s]", name, t.ProjectName)
	}
	if name == "" {
		w.c.skip("test in %s has no title", file)
		return
	}
	results := w.c.records(m["results"], path+".results")
	if len(results) == 0 {
		return
	}

	var last pwResult
	if !w.header(results[len(results)-1], path+".results", &last) {
		return
	}
	switch last.Status {
	case "passed":
		w.summary.Passed++
	case "failed", "timedOut":
		w.summary.Failed++
		w.summary.Failures = append(w.summary.Failures, domain.FailureRecord{
			TestName:     name,
			FilePath:     orDefault(file, placeholderFile),
			ErrorMessage: errorMessage(last),
			DurationMs:   last.Duration,
		})
	default:
		return
	}
	w.summary.Durations = append(w.summary.Durations, domain.PerformanceSample{
		TestName:   name,
		DurationMs: last.Duration,
	})
}

// errorMessage accepts an error object ({message} or {value}), a bare
// string, or the first entry of the errors list.
func errorMessage(r pwResult) string {
	if msg := messageOf(r.Error); msg != "" {
		return msg
	}
	list, _ := r.Errors.([]any)
	for _, e := range list {
		if msg := messageOf(e); msg != "" {
			return msg
		}
	}
	return noErrorMessage
}

func messageOf(v any) string {
	switch e := v.(type) {
	case string:
		return e
	case map[string]any:
		for _, key := range []string{"message", "value"} {
			if s, ok := e[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
