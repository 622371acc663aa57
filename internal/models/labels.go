// ABOUTME: Component label normalization and validation helpers
// ABOUTME: Canonicalises free-text component labels before filtering and storage
package models

import (
	"regexp"
	"strings"
)

var wordish = regexp.MustCompile(`^[a-z0-9][a-z0-9 _\-\/]{0,40}$`)

// componentSynonyms folds common plural forms onto their canonical label.
var componentSynonyms = map[string]string{
	"motors":      "motor",
	"pumps":       "pump",
	"compressors": "compressor",
}

// NormalizeComponent canonicalises a component label: trimmed, lowercased,
// plural synonyms folded.
func NormalizeComponent(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	if canonical, ok := componentSynonyms[s]; ok {
		return canonical
	}
	return s
}

// IsReasonableComponent is a heuristic guardrail for component labels:
// short word-like tokens, at most three words, no sentence punctuation.
func IsReasonableComponent(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, ",.") {
		return false
	}
	if len(strings.Fields(s)) > 3 {
		return false
	}
	return wordish.MatchString(s)
}

// NormalizeModel canonicalises a model label. Models are free text under a
// component, so only whitespace and case are folded.
func NormalizeModel(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
