// Package scoring implements the local answer grading engine: keyword
// matching, per-type scoring policy, and feedback generation.
package scoring

import "strings"

// Match returns the subset of keywords found in text, preserving keyword
// order. Matching is a case-insensitive substring check with no stemming;
// a keyword appearing several times in the text is reported once. Duplicate
// entries in keywords are not deduplicated and double-count in ratio
// calculations downstream.
func Match(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	matched := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}
