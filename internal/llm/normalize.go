package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fleveque/company-intel/internal/model"
)

// Normalize coerces raw assistant text into a CompanyProfile. The query
// string is the fallback for a missing name. After Normalize returns, every
// mandatory field is populated: nil or wrongly-shaped provider values never
// leak into the profile.
func Normalize(text, query string) (*model.CompanyProfile, error) {
	doc, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(doc), &obj); err != nil {
		// ExtractJSON validated the document, but it may be a JSON value
		// that isn't an object (a bare array or string).
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return &model.CompanyProfile{
		Name:            stringField(obj, "name", query),
		Headquarters:    stringField(obj, "headquarters", model.FieldUnavailable),
		Founded:         stringField(obj, "founded", model.FieldUnavailable),
		BusinessRegions: listField(obj, "businessRegions"),
		MainMarkets:     listField(obj, "mainMarkets"),
		AdditionalInfo:  optionalString(obj, "additionalInfo"),
	}, nil
}

// stringField returns the string value at key, or fallback when the key is
// absent, null, empty, or not a string.
func stringField(obj map[string]any, key, fallback string) string {
	if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// optionalString returns the string value at key, or "" — this is the one
// field allowed to stay empty.
func optionalString(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// listField returns the string elements of a list value. A value that isn't
// a list is replaced by the default, never cast; non-string elements are
// dropped; an empty result also falls back.
func listField(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return []string{model.RegionGlobal}
	}

	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{model.RegionGlobal}
	}
	return out
}
