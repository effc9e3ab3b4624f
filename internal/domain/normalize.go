package domain

import (
	"strings"
)

// NormalizeTerm prepares a term for case-insensitive identity comparison:
//   - trims leading/trailing whitespace
//   - converts to lowercase
//   - compresses multiple spaces into one
//
// Diacritics, hyphens, and apostrophes are preserved, so "give up" and
// "Give  Up" normalize to the same key while "re-do" stays distinct from
// "redo".
func NormalizeTerm(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	term = strings.ToLower(term)

	// Compress multiple spaces into one.
	var b strings.Builder
	b.Grow(len(term))
	prevSpace := false
	for _, r := range term {
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
