// Package extract recovers JSON documents embedded in free-form model output
// and decodes them into typed results against a declared schema.
package extract

import (
	"errors"
	"strings"
)

// ErrNoJSONFound is returned when no extraction rule matches the input text.
var ErrNoJSONFound = errors.New("no JSON found in text")

const fence = "```"

// Strategy names the rule that located a JSON candidate.
type Strategy string

// Extraction strategies, in the order they are tried.
const (
	StrategyJSONFence Strategy = "json_fence"
	StrategyAnyFence  Strategy = "any_fence"
	StrategyObject    Strategy = "object"
	StrategyArray     Strategy = "array"
)

// Candidate is a byte range [Start, End) in the source text believed to
// hold a JSON document. The range is before whitespace trimming.
type Candidate struct {
	Start    int
	End      int
	Strategy Strategy
}

// Text returns the trimmed candidate substring of s.
func (c Candidate) Text(s string) string {
	return strings.TrimSpace(s[c.Start:c.End])
}

// Locate returns the first candidate found by the ordered extraction rules.
// Only the first opening fence of each kind is considered. Braces inside
// JSON strings are not special-cased.
func Locate(text string) (Candidate, bool) {
	if c, ok := locateJSONFence(text); ok {
		return c, true
	}
	if c, ok := locateAnyFence(text); ok {
		return c, true
	}
	if c, ok := locateSpan(text, '{', '}'); ok {
		c.Strategy = StrategyObject
		return c, true
	}
	if c, ok := locateSpan(text, '[', ']'); ok {
		c.Strategy = StrategyArray
		return c, true
	}
	return Candidate{}, false
}

// ExtractJSON returns the JSON substring recovered from text. The result is
// not validated as JSON; decoding is the caller's concern.
func ExtractJSON(text string) (string, error) {
	c, ok := Locate(text)
	if !ok {
		return "", ErrNoJSONFound
	}
	return c.Text(text), nil
}

func locateJSONFence(text string) (Candidate, bool) {
	marker := fence + "json"
	start := strings.Index(text, marker)
	if start < 0 {
		return Candidate{}, false
	}
	bodyStart := start + len(marker)
	end := strings.Index(text[bodyStart:], fence)
	if end < 0 {
		return Candidate{}, false
	}
	return Candidate{Start: bodyStart, End: bodyStart + end, Strategy: StrategyJSONFence}, true
}

func locateAnyFence(text string) (Candidate, bool) {
	start := strings.Index(text, fence)
	if start < 0 {
		return Candidate{}, false
	}
	bodyStart := start + len(fence)
	// Skip the info string on the opening line, if the block has one.
	if nl := strings.IndexByte(text[bodyStart:], '\n'); nl >= 0 {
		bodyStart += nl + 1
	}
	end := strings.Index(text[bodyStart:], fence)
	if end < 0 {
		return Candidate{}, false
	}
	return Candidate{Start: bodyStart, End: bodyStart + end, Strategy: StrategyAnyFence}, true
}

func locateSpan(text string, open, closing byte) (Candidate, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return Candidate{}, false
	}
	end := strings.LastIndexByte(text, closing)
	if end < start {
		return Candidate{}, false
	}
	return Candidate{Start: start, End: end + 1}, true
}
