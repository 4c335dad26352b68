// Package ingest normalizes test runner output into the engine's input
// types. Malformed records are skipped and reported as omissions.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"

	"github.com/example/testhealth/health/domain"
)

// Format names a recognized summary document shape.
type Format string

const (
	FormatPlaywright Format = "playwright"
	FormatMetrics    Format = "metrics"
)

// Summary is a decoded run summary.
type Summary struct {
	Summary   domain.RunSummary
	Format    Format
	Omissions domain.Omissions
}

// LoadSummary reads and decodes a summary file.
func LoadSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("read summary: %w", err)
	}
	return DecodeSummary(data)
}

// DecodeSummary decodes a Playwright JSON report or a metrics.json document.
func DecodeSummary(data []byte) (Summary, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Summary{}, fmt.Errorf("%w: summary is not a JSON object: %v", domain.ErrInvalidInput, err)
	}
	return DecodeSummaryMap(raw)
}

// DecodeSummaryMap decodes an already parsed summary document.
func DecodeSummaryMap(raw map[string]any) (Summary, error) {
	if raw == nil {
		return Summary{}, fmt.Errorf("%w: empty summary", domain.ErrInvalidInput)
	}
	if _, ok := raw["suites"]; ok {
		return decodePlaywright(raw)
	}
	return decodeMetrics(raw)
}

// LoadHistory reads and decodes a history file.
func LoadHistory(path string) (domain.History, domain.Omissions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.Omissions{}, fmt.Errorf("read history: %w", err)
	}
	return DecodeHistory(data)
}

// DecodeHistory decodes {"test": [{"status": "passed"}, ...]}. Entries may
// also be bare status strings.
func DecodeHistory(data []byte) (domain.History, domain.Omissions, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.Omissions{}, fmt.Errorf("%w: history is not a JSON object: %v", domain.ErrInvalidInput, err)
	}
	h, o := DecodeHistoryMap(raw)
	return h, o, nil
}

type historyEntry struct {
	Status string `mapstructure:"status"`
}

// DecodeHistoryMap decodes an already parsed history document.
func DecodeHistoryMap(raw map[string]any) (domain.History, domain.Omissions) {
	var merr *multierror.Error
	history := make(domain.History, len(raw))

	for _, name := range sortedKeys(raw) {
		entries, ok := raw[name].([]any)
		if !ok {
			merr = multierror.Append(merr, fmt.Errorf("%w: history for %q is not a list", domain.ErrInvalidInput, name))
			continue
		}
		runs := make([]domain.RunStatus, 0, len(entries))
		for i, e := range entries {
			status, err := decodeStatus(e)
			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("%w: history %q run %d: %v", domain.ErrInvalidInput, name, i, err))
				continue
			}
			runs = append(runs, status)
		}
		history[name] = runs
	}
	return history, domain.OmissionsFrom(merr)
}

func decodeStatus(e any) (domain.RunStatus, error) {
	var status string
	switch v := e.(type) {
	case string:
		status = v
	case map[string]any:
		var entry historyEntry
		if err := decode(v, &entry); err != nil {
			return "", err
		}
		if entry.Status == "" {
			return "", fmt.Errorf("missing status")
		}
		status = entry.Status
	default:
		return "", fmt.Errorf("unexpected entry type %T", e)
	}
	s := domain.RunStatus(status)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q", status)
	}
	return s, nil
}

// collector accumulates skipped records.
type collector struct {
	merr *multierror.Error
}

func (c *collector) skip(format string, args ...any) {
	c.merr = multierror.Append(c.merr, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...))
}

func (c *collector) omissions() domain.Omissions {
	return domain.OmissionsFrom(c.merr)
}

// records returns the object entries of a JSON list. Entries that are not
// objects are skipped, as is a value that is not a list at all. A missing
// value yields no records.
func (c *collector) records(v any, path string) []map[string]any {
	if v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		c.skip("%s is not a list", path)
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			c.skip("%s[%d] is not an object", path, i)
			continue
		}
		out = append(out, m)
	}
	return out
}

// number decodes an optional numeric field. ok is false when the field is
// missing or malformed; malformed values are skipped.
func (c *collector) number(v any, path string) (n float64, ok bool) {
	if v == nil {
		return 0, false
	}
	if err := decode(v, &n); err != nil {
		c.skip("%s: %v", path, err)
		return 0, false
	}
	return n, true
}

// decode maps loosely typed JSON onto a struct, accepting numbers encoded
// as strings and similar drift between runner versions.
func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
