package storeapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
)

// GetStory fetches one story snapshot. Returns domain.ErrNotFound when the
// identifier does not resolve.
func (c *Client) GetStory(ctx context.Context, id string) (*domain.Story, error) {
	var resp storyResponse
	if err := c.get(ctx, "/api/stories/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}

	c.log.DebugContext(ctx, "story fetched",
		slog.String("story_id", id),
		slog.Bool("extracted", resp.Extracted),
	)

	return resp.toDomain(), nil
}

// PersistExtraction caches an extraction result on the story. The caller is
// expected to re-fetch the story afterwards; the local snapshot is never
// mutated in place.
func (c *Client) PersistExtraction(ctx context.Context, storyID string, ex domain.Extraction) error {
	body := extractionPayload{Words: ex.Words, Idioms: ex.Idioms}
	return c.send(ctx, http.MethodPost, "/api/stories/"+url.PathEscape(storyID)+"/extraction", body, nil)
}

// Star marks the story starred and returns the store-confirmed value.
func (c *Client) Star(ctx context.Context, storyID string) (bool, error) {
	var resp starResponse
	err := c.send(ctx, http.MethodPost, "/api/stories/"+url.PathEscape(storyID)+"/star", nil, &resp)
	if err != nil {
		return false, err
	}
	return resp.Starred, nil
}

// Unstar removes the star and returns the store-confirmed value.
func (c *Client) Unstar(ctx context.Context, storyID string) (bool, error) {
	var resp starResponse
	err := c.send(ctx, http.MethodDelete, "/api/stories/"+url.PathEscape(storyID)+"/star", nil, &resp)
	if err != nil {
		return false, err
	}
	return resp.Starred, nil
}

// Share publishes a reference to the target as a post.
func (c *Client) Share(ctx context.Context, targetID, targetType string) error {
	return c.send(ctx, http.MethodPost, "/api/posts", shareRequest{
		TargetID:   targetID,
		TargetType: targetType,
	}, nil)
}
