package domain

import "time"

// Story is a text passage vocabulary is extracted from. It is owned by the
// remote store; the pipeline treats each fetch as an immutable snapshot and
// replaces it wholesale on refresh.
type Story struct {
	ID         string
	Title      string
	Content    string
	Extracted  bool
	Starred    bool
	Extraction *Extraction
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasExtraction reports whether extraction has already produced target terms.
// Extraction runs at most once per story: a non-empty cached result means
// the external extractor must not be invoked again.
func (s *Story) HasExtraction() bool {
	return !s.Extraction.IsEmpty()
}

// Extraction is the set of target terms identified for a story.
// Word and idiom order is preserved as returned by the extractor.
type Extraction struct {
	Words  []string
	Idioms []string
}

// IsEmpty reports whether the extraction holds no terms at all.
func (e *Extraction) IsEmpty() bool {
	return e == nil || (len(e.Words) == 0 && len(e.Idioms) == 0)
}

// Terms returns words followed by idioms, skipping blank entries.
// Idioms are kept as whole phrases, never decomposed.
func (e *Extraction) Terms() []string {
	if e == nil {
		return nil
	}
	terms := make([]string, 0, len(e.Words)+len(e.Idioms))
	for _, w := range e.Words {
		if NormalizeTerm(w) != "" {
			terms = append(terms, w)
		}
	}
	for _, i := range e.Idioms {
		if NormalizeTerm(i) != "" {
			terms = append(terms, i)
		}
	}
	return terms
}
