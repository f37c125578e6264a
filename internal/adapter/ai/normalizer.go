// Package ai contains the model-facing orchestration pieces: the fallback
// walker over the model roster, the response normalizer, and response caches.
package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hackmate/hackmate-ai/internal/domain"
)

// Shape names the structured value expected from a completion.
type Shape string

// Expected shapes.
const (
	ShapeObject Shape = "object"
	ShapeArray  Shape = "array"
)

var (
	fenceRE         = regexp.MustCompile("```json\\s*|\\s*```")
	trailingCommaRE = regexp.MustCompile(`,(\s*[}\]])`)
	bareKeyRE       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

// ResponseNormalizer extracts and repairs a structured JSON value from raw,
// possibly markdown-wrapped, possibly malformed completion text.
type ResponseNormalizer struct{}

// NewResponseNormalizer creates a new response normalizer.
func NewResponseNormalizer() *ResponseNormalizer {
	return &ResponseNormalizer{}
}

// Extract runs the full pipeline: strip fences, extract the delimiter span,
// apply textual repairs, parse. It fails loudly with ErrMalformedResponse
// rather than returning a partial structure.
func (n *ResponseNormalizer) Extract(raw string, shape Shape) (any, error) {
	candidate := n.stripMarkdownFences(raw)

	span, ok := n.extractSpan(candidate, shape)
	if !ok {
		return nil, fmt.Errorf("%w: no %s span in completion", domain.ErrMalformedResponse, shape)
	}

	repaired := n.repair(span)

	switch shape {
	case ShapeArray:
		var v []any
		if err := json.Unmarshal([]byte(repaired), &v); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}
		return v, nil
	default:
		var v map[string]any
		if err := json.Unmarshal([]byte(repaired), &v); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}
		return v, nil
	}
}

// stripMarkdownFences removes triple-backtick wrappers, optionally tagged json.
func (n *ResponseNormalizer) stripMarkdownFences(s string) string {
	return strings.TrimSpace(fenceRE.ReplaceAllString(s, ""))
}

// extractSpan returns the greedy span from the first opening delimiter to the
// last closing delimiter for the expected shape.
func (n *ResponseNormalizer) extractSpan(s string, shape Shape) (string, bool) {
	open, closing := "{", "}"
	if shape == ShapeArray {
		open, closing = "[", "]"
	}
	start := strings.Index(s, open)
	if start == -1 {
		return "", false
	}
	end := strings.LastIndex(s, closing)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// repair applies the fixed sequence of textual fixes: single quotes to double
// quotes, trailing commas removed, bare object keys quoted.
func (n *ResponseNormalizer) repair(s string) string {
	s = strings.ReplaceAll(s, "'", "\"")
	s = trailingCommaRE.ReplaceAllString(s, "$1")
	s = bareKeyRE.ReplaceAllString(s, `$1"$2":`)
	return s
}
