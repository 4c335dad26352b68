package backend

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/example/testhealth/health/domain"
)

const (
	reasoningLimit = 200
	actionLimit    = 150

	defaultExtractedConfidence = 50
	defaultExtractedAction     = "Investigate manually"
)

// ParseResult is the outcome of parsing model output. It is either
// Structured or Unstructured.
type ParseResult interface {
	parseResult()
}

// Structured is model output that decoded as a JSON classification.
type Structured struct {
	Value domain.Classification
}

// Unstructured is free text from which fields were extracted by pattern.
type Unstructured struct {
	Raw       string
	Extracted domain.Classification

	// Matched reports whether a category label was found in Raw.
	Matched bool
}

func (Structured) parseResult()   {}
func (Unstructured) parseResult() {}

type jsonClassification struct {
	Category        string          `json:"category"`
	Confidence      json.RawMessage `json:"confidence"`
	Reasoning       string          `json:"reasoning"`
	SuggestedAction string          `json:"suggested_action"`
	Action          string          `json:"action"`
}

var (
	categoryRe   = regexp.MustCompile(`(?i)Category:\s*(\w+)`)
	confidenceRe = regexp.MustCompile(`(?i)Confidence:\s*(\d+)`)
	reasoningRe  = regexp.MustCompile(`(?is)Reasoning:\s*(.+?)(?:Action:|$)`)
	actionRe     = regexp.MustCompile(`(?is)Action:\s*(.+)$`)
	priorityRe   = regexp.MustCompile(`(?i)priority:`)
)

// Parse interprets model output, trying JSON first and falling back to
// "Category: ... Confidence: ..." text extraction.
func Parse(content string) ParseResult {
	if s, ok := parseJSON(content); ok {
		return s
	}
	return extract(content)
}

func parseJSON(content string) (Structured, bool) {
	body := strings.TrimSpace(content)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "{") {
		return Structured{}, false
	}

	var raw jsonClassification
	if err := json.Unmarshal([]byte(body), &raw); err != nil || raw.Category == "" {
		return Structured{}, false
	}

	action := raw.SuggestedAction
	if action == "" {
		action = raw.Action
	}
	if action == "" {
		action = defaultExtractedAction
	}
	return Structured{Value: domain.Classification{
		Category:        strings.ToUpper(raw.Category),
		Confidence:      parseConfidence(raw.Confidence),
		Reasoning:       raw.Reasoning,
		SuggestedAction: action,
	}}, true
}

// parseConfidence accepts 85, 85.0 and "85%".
func parseConfidence(raw json.RawMessage) int {
	if len(raw) == 0 {
		return defaultExtractedConfidence
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return clampConfidence(int(f))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "%")); err == nil {
			return clampConfidence(n)
		}
	}
	return defaultExtractedConfidence
}

func clampConfidence(n int) int {
	return max(0, min(100, n))
}

func extract(content string) Unstructured {
	out := Unstructured{
		Raw: content,
		Extracted: domain.Classification{
			Category:        domain.CategoryUnknown,
			Confidence:      defaultExtractedConfidence,
			Reasoning:       strings.TrimSpace(content),
			SuggestedAction: defaultExtractedAction,
		},
	}
	if m := categoryRe.FindStringSubmatch(content); m != nil {
		out.Extracted.Category = strings.ToUpper(m[1])
		out.Matched = true
	}
	if m := confidenceRe.FindStringSubmatch(content); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			out.Extracted.Confidence = clampConfidence(n)
		}
	}
	if m := reasoningRe.FindStringSubmatch(content); m != nil {
		out.Extracted.Reasoning = strings.TrimSpace(m[1])
	}
	if m := actionRe.FindStringSubmatch(content); m != nil {
		out.Extracted.SuggestedAction = strings.TrimSpace(m[1])
	}
	return out
}

// Resolve turns a parse result into a classification for testName. Output
// with no recognizable category is reported as malformed.
func Resolve(result ParseResult, testName string) (domain.Classification, error) {
	var c domain.Classification
	switch r := result.(type) {
	case Structured:
		c = r.Value
	case Unstructured:
		if !r.Matched {
			return domain.Classification{}, fmt.Errorf("%w: no category in model output", domain.ErrMalformedResponse)
		}
		c = r.Extracted
	default:
		return domain.Classification{}, fmt.Errorf("%w: unexpected parse result %T", domain.ErrMalformedResponse, result)
	}
	c.TestName = testName
	c.Reasoning = truncate(c.Reasoning, reasoningLimit)
	c.SuggestedAction = truncate(c.SuggestedAction, actionLimit)
	return c, nil
}

// EnsurePriorityTag appends a priority tag to a narrative that lacks one.
func EnsurePriorityTag(narrative string, p domain.Priority) string {
	if priorityRe.MatchString(narrative) {
		return narrative
	}
	return strings.TrimRight(narrative, "\n") + "\nPriority: " + string(p)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
