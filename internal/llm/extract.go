package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// LLM providers don't reliably honor a "JSON only" instruction: replies come
// back wrapped in prose, markdown fences, or both. ExtractJSON layers three
// strategies, first success wins:
//
//  1. the whole reply is valid JSON
//  2. the interior of a fenced code block (optionally tagged "json")
//  3. the substring from the first '{' to the last '}'
//
// Each strategy is a pure function returning a candidate and an ok flag, so
// they can be tested independently — no exception-driven control flow.

// fencedBlockRe matches a markdown code fence and captures its interior.
// (?s) makes '.' span newlines.
var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// fencedBlock returns the interior of the first fenced code block, if any.
func fencedBlock(text string) (string, bool) {
	m := fencedBlockRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// braceDelimited returns the substring from the first '{' to the last '}'.
// Greedy on purpose: a reply with prose on both sides of a single JSON
// object yields exactly that object.
func braceDelimited(text string) (string, bool) {
	open := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if open == -1 || end == -1 || end < open {
		return "", false
	}
	return text[open : end+1], true
}

// ExtractJSON pulls a JSON document out of raw assistant text. The returned
// string is guaranteed to be valid JSON.
func ExtractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)

	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	candidate, ok := fencedBlock(trimmed)
	if !ok {
		candidate, ok = braceDelimited(trimmed)
	}
	if !ok {
		// No candidate at all: surface the parse error of the full text so
		// the caller sees why the direct parse failed.
		return "", fmt.Errorf("failed to parse JSON response: %w", jsonError(trimmed))
	}

	if err := jsonError(candidate); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return candidate, nil
}

// jsonError returns the underlying encoding/json error for a document, or
// nil if it parses.
func jsonError(doc string) error {
	var v any
	return json.Unmarshal([]byte(doc), &v)
}
