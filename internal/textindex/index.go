// Package textindex provides a read-only term-occurrence view over a story's
// text: given a word or idiom, it returns every sentence the term occurs in.
package textindex

import (
	"strings"
	"unicode"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
)

// Index is built once per story text and memoizes sentence boundaries, so
// repeated term lookups never re-segment the text. Building is pure: the
// same text always yields the same index.
type Index struct {
	sentences []string // trimmed, non-empty, original casing
	lowered   []string // normalized mirror used for matching
}

// Build segments text into sentences and prepares the occurrence index.
func Build(text string) *Index {
	sentences := segment(text)
	lowered := make([]string, len(sentences))
	for i, s := range sentences {
		lowered[i] = domain.NormalizeTerm(s)
	}
	return &Index{sentences: sentences, lowered: lowered}
}

// Occurrences returns every sentence containing the term, in document order.
// Matching is case-insensitive; single words match on word boundaries and
// idioms match as whole phrases. Returned sentences are trimmed and
// non-empty.
func (ix *Index) Occurrences(term string) []string {
	key := domain.NormalizeTerm(term)
	if key == "" {
		return nil
	}

	var out []string
	for i, ls := range ix.lowered {
		if containsTerm(ls, key) {
			out = append(out, ix.sentences[i])
		}
	}
	return out
}

// Len returns the number of indexed sentences.
func (ix *Index) Len() int {
	return len(ix.sentences)
}

// segment splits text into trimmed, non-empty sentences. A sentence ends at
// '.', '!', '?', or '…' (plus any immediately following terminators or
// closing quotes/brackets), or at a line break.
func segment(text string) []string {
	var out []string
	var cur strings.Builder

	flush := func() {
		s := strings.TrimSpace(cur.String())
		cur.Reset()
		if s != "" {
			out = append(out, s)
		}
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' || r == '\r' {
			flush()
			continue
		}
		cur.WriteRune(r)
		if isTerminator(r) {
			for i+1 < len(runes) && (isTerminator(runes[i+1]) || isCloser(runes[i+1])) {
				i++
				cur.WriteRune(runes[i])
			}
			flush()
		}
	}
	flush()

	return out
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', ')', ']', '»':
		return true
	}
	return false
}

// containsTerm reports whether s contains term bounded by non-word runes on
// both sides, so "cat" does not match inside "category".
func containsTerm(s, term string) bool {
	for start := 0; start <= len(s)-len(term); {
		idx := strings.Index(s[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		if boundaryAt(s, idx) && boundaryAt(s, idx+len(term)) {
			return true
		}
		start = idx + 1
	}
	return false
}

// boundaryAt reports whether position i in s sits on a word boundary:
// the start or end of the string, or adjacent to a non-word rune.
func boundaryAt(s string, i int) bool {
	if i <= 0 || i >= len(s) {
		return true
	}
	before, _ := lastRune(s[:i])
	after := firstRune(s[i:])
	return !isWordRune(before) || !isWordRune(after)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) (rune, bool) {
	var last rune
	found := false
	for _, r := range s {
		last = r
		found = true
	}
	return last, found
}
