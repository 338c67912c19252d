package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/stellarlinkco/briefclaw/internal/brief"
)

// ErrMalformedOutput reports a model reply that does not follow the
// extraction contract.
var ErrMalformedOutput = errors.New("malformed extraction output")

const summaryKey = "summary"

// StripFence returns the first fenced span of s, preferring a ```json fence.
// Text without a fence is returned trimmed.
func StripFence(s string) string {
	if _, after, ok := strings.Cut(s, "```json"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(s, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(s)
}

// ParseResponse decodes model text into an Extraction. The payload must be a
// single JSON object whose known keys carry values of their field's type.
// Unknown keys are reported in Dropped.
func ParseResponse(content string) (Extraction, error) {
	body := StripFence(content)
	if body == "" {
		return Extraction{}, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Extraction{}, fmt.Errorf("%w: trailing data after object", ErrMalformedOutput)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Extraction{}, fmt.Errorf("%w: expected object, got %T", ErrMalformedOutput, raw)
	}

	var out Extraction
	switch s := obj[summaryKey].(type) {
	case nil:
	case string:
		out.Summary = s
	default:
		return Extraction{}, fmt.Errorf("%w: summary is %T, not a string", ErrMalformedOutput, s)
	}

	for _, f := range brief.Fields {
		v, present := obj[f.Name]
		if !present {
			continue
		}
		if v == nil {
			out.Candidates = append(out.Candidates, brief.Candidate{Field: f.Name})
			continue
		}
		val, err := brief.Coerce(f.Kind, v)
		if err != nil {
			return Extraction{}, fmt.Errorf("%w: field %s: %v", ErrMalformedOutput, f.Name, err)
		}
		out.Candidates = append(out.Candidates, brief.Candidate{Field: f.Name, Value: val})
	}

	if v, present := obj[brief.ProjectType]; present {
		switch t := v.(type) {
		case nil, string:
			out.Candidates = append(out.Candidates, brief.Candidate{Field: brief.ProjectType, Value: t})
		default:
			return Extraction{}, fmt.Errorf("%w: project_type is %T, not a string", ErrMalformedOutput, t)
		}
	}

	for key := range obj {
		if key == summaryKey || key == brief.ProjectType || brief.IsKnown(key) {
			continue
		}
		out.Dropped = append(out.Dropped, key)
	}
	sort.Strings(out.Dropped)

	return out, nil
}
