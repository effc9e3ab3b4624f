package storeapi

import (
	"time"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
)

type storyResponse struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Content    string             `json:"content"`
	Extracted  bool               `json:"extracted"`
	Starred    bool               `json:"starred"`
	Extraction *extractionPayload `json:"extraction,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type extractionPayload struct {
	Words  []string `json:"words"`
	Idioms []string `json:"idioms"`
}

type meaningResponse struct {
	ID          string `json:"id"`
	Word        string `json:"word"`
	Pos         string `json:"pos"`
	Definition  string `json:"definition"`
	Translation string `json:"translation"`
	SourceID    string `json:"source_id"`
	SourceType  string `json:"source_type"`
}

type pendingLookupResponse struct {
	ID         string `json:"id"`
	Word       string `json:"word"`
	Context    string `json:"context"`
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type"`
}

type meaningsResponse struct {
	Meanings       []meaningResponse       `json:"meanings"`
	PendingLookups []pendingLookupResponse `json:"pending_lookups"`
}

type lookupEntryRequest struct {
	Word       string `json:"word"`
	Context    string `json:"context"`
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type"`
}

type lookupBatchRequest struct {
	Lookups []lookupEntryRequest `json:"lookups"`
}

type candidateSenseResponse struct {
	Pos         string `json:"pos"`
	Definition  string `json:"definition"`
	Translation string `json:"translation"`
}

type createLookupResponse struct {
	MeaningOptions []candidateSenseResponse `json:"meaning_options"`
}

type resolvedMeaningPayload struct {
	Word               string `json:"word"`
	Lemma              string `json:"lemma,omitempty"`
	Pos                string `json:"pos,omitempty"`
	Pronunciation      string `json:"pronunciation,omitempty"`
	Definition         string `json:"definition"`
	Translation        string `json:"translation"`
	ContextTranslation string `json:"context_translation"`
}

type updateLookupRequest struct {
	Meaning    resolvedMeaningPayload `json:"meaning"`
	SourceID   string                 `json:"source_id"`
	SourceType string                 `json:"source_type"`
}

type starResponse struct {
	Starred bool `json:"starred"`
}

type shareRequest struct {
	TargetID   string `json:"target_id"`
	TargetType string `json:"target_type"`
}

func (r storyResponse) toDomain() *domain.Story {
	s := &domain.Story{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Extracted: r.Extracted,
		Starred:   r.Starred,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Extraction != nil {
		s.Extraction = &domain.Extraction{
			Words:  r.Extraction.Words,
			Idioms: r.Extraction.Idioms,
		}
	}
	return s
}

func (r meaningsResponse) toDomain() *domain.MeaningPage {
	page := &domain.MeaningPage{
		Meanings:       make([]domain.Meaning, 0, len(r.Meanings)),
		PendingLookups: make([]domain.PendingLookup, 0, len(r.PendingLookups)),
	}
	for _, m := range r.Meanings {
		page.Meanings = append(page.Meanings, domain.Meaning{
			ID:          m.ID,
			Word:        m.Word,
			Pos:         m.Pos,
			Definition:  m.Definition,
			Translation: m.Translation,
			SourceID:    m.SourceID,
			SourceType:  m.SourceType,
		})
	}
	for _, p := range r.PendingLookups {
		page.PendingLookups = append(page.PendingLookups, domain.PendingLookup{
			ID:         p.ID,
			Word:       p.Word,
			Context:    p.Context,
			SourceID:   p.SourceID,
			SourceType: p.SourceType,
		})
	}
	return page
}

func toLookupEntry(pl domain.PendingLookup) lookupEntryRequest {
	return lookupEntryRequest{
		Word:       pl.Word,
		Context:    pl.Context,
		SourceID:   pl.SourceID,
		SourceType: pl.SourceType,
	}
}
