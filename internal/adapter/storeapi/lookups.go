package storeapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
)

// GetMeanings fetches the story's resolved meanings and pending lookups in
// one page, capped at limit.
func (c *Client) GetMeanings(ctx context.Context, storyID string, limit int) (*domain.MeaningPage, error) {
	path := fmt.Sprintf("/api/stories/%s/meanings?limit=%d", url.PathEscape(storyID), limit)

	var resp meaningsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	c.log.DebugContext(ctx, "meanings fetched",
		slog.String("story_id", storyID),
		slog.Int("meanings", len(resp.Meanings)),
		slog.Int("pending", len(resp.PendingLookups)),
	)

	return resp.toDomain(), nil
}

// CreateLookupBatch submits new pending lookups as one batch. IDs are
// assigned by the store and become visible on the next GetMeanings refresh.
func (c *Client) CreateLookupBatch(ctx context.Context, entries []domain.PendingLookup) error {
	if len(entries) == 0 {
		return nil
	}

	body := lookupBatchRequest{Lookups: make([]lookupEntryRequest, 0, len(entries))}
	for _, e := range entries {
		body.Lookups = append(body.Lookups, toLookupEntry(e))
	}

	if err := c.send(ctx, http.MethodPost, "/api/lookups/batch", body, nil); err != nil {
		return err
	}

	c.log.InfoContext(ctx, "lookup batch created", slog.Int("count", len(entries)))
	return nil
}

// CreateLookup registers a single lookup and returns the candidate senses
// the store prepared for disambiguation.
func (c *Client) CreateLookup(ctx context.Context, entry domain.PendingLookup) (*domain.LookupChoices, error) {
	var resp createLookupResponse
	if err := c.send(ctx, http.MethodPost, "/api/lookups", toLookupEntry(entry), &resp); err != nil {
		return nil, err
	}

	choices := &domain.LookupChoices{
		CandidateSenses: make([]domain.CandidateSense, 0, len(resp.MeaningOptions)),
	}
	for _, o := range resp.MeaningOptions {
		choices.CandidateSenses = append(choices.CandidateSenses, domain.CandidateSense{
			Pos:         o.Pos,
			Definition:  o.Definition,
			Translation: o.Translation,
		})
	}
	return choices, nil
}

// UpdateLookup commits a resolved meaning onto an existing pending lookup,
// which converts it into a Meaning upstream.
func (c *Client) UpdateLookup(ctx context.Context, id string, meaning domain.ResolvedMeaning, sourceID, sourceType string) error {
	body := updateLookupRequest{
		Meaning: resolvedMeaningPayload{
			Word:               meaning.Word,
			Lemma:              meaning.Lemma,
			Pos:                meaning.Pos,
			Pronunciation:      meaning.Pronunciation,
			Definition:         meaning.Definition,
			Translation:        meaning.Translation,
			ContextTranslation: meaning.ContextTranslation,
		},
		SourceID:   sourceID,
		SourceType: sourceType,
	}

	if err := c.send(ctx, http.MethodPut, "/api/lookups/"+url.PathEscape(id), body, nil); err != nil {
		return err
	}

	c.log.InfoContext(ctx, "lookup resolved",
		slog.String("lookup_id", id),
		slog.String("word", meaning.Word),
	)
	return nil
}
