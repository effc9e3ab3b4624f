package domain

import "strings"

// SourceTypeStory tags lookups and meanings created from a story.
const SourceTypeStory = "Story"

// Meaning is a resolved word/idiom sense for a story. Immutable within the
// pipeline's view; updates only arrive through an upstream refresh.
type Meaning struct {
	ID          string
	Word        string
	Pos         string
	Definition  string
	Translation string
	SourceID    string
	SourceType  string
}

// PendingLookup is a term awaiting a resolved Meaning, tied to one context
// sentence. The ID is assigned by the store once persisted; candidates
// produced by the queue builder carry an empty ID.
type PendingLookup struct {
	ID         string
	Word       string
	Context    string
	SourceID   string
	SourceType string
}

// CandidateSense is one possible sense for a pending lookup, supplied by the
// store as disambiguation input for the resolver.
type CandidateSense struct {
	Pos         string
	Definition  string
	Translation string
}

// LookupChoices is the store's response to registering a lookup: the set of
// candidate senses to disambiguate between.
type LookupChoices struct {
	CandidateSenses []CandidateSense
}

// ResolvedMeaning is the resolver's payload committed onto a pending lookup.
// A blank ContextTranslation signals "no usable result" and must not be
// committed.
type ResolvedMeaning struct {
	Word               string
	Lemma              string
	Pos                string
	Pronunciation      string
	Definition         string
	Translation        string
	ContextTranslation string
}

// Usable reports whether the resolver produced a committable result.
func (m *ResolvedMeaning) Usable() bool {
	return m != nil && strings.TrimSpace(m.ContextTranslation) != ""
}

// MeaningPage is one fetch of a story's resolved and pending vocabulary.
type MeaningPage struct {
	Meanings       []Meaning
	PendingLookups []PendingLookup
}
