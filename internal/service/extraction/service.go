// Package extraction obtains the set of target terms for a story, either
// from the cached result on the story or by invoking the external extractor
// once and persisting the outcome upstream.
package extraction

import (
	"context"
	"log/slog"

	"github.com/Keith994/everyone-can-use-english/internal/config"
	"github.com/Keith994/everyone-can-use-english/internal/domain"
)

type extractionStore interface {
	PersistExtraction(ctx context.Context, storyID string, ex domain.Extraction) error
}

type termExtractor interface {
	ExtractTerms(ctx context.Context, text string) (*domain.Extraction, error)
}

// Service is the extraction stage.
type Service struct {
	log       *slog.Logger
	store     extractionStore
	extractor termExtractor
	ai        config.AIConfig
}

// NewService creates the extraction stage.
func NewService(log *slog.Logger, store extractionStore, extractor termExtractor, ai config.AIConfig) *Service {
	return &Service{
		log:       log.With("service", "extraction"),
		store:     store,
		extractor: extractor,
		ai:        ai,
	}
}

// Extract returns the story's target terms. A non-empty cached extraction is
// returned unchanged without calling the extractor; otherwise the extractor
// runs once and the result is persisted upstream. cached distinguishes the
// two paths: when false, the caller must re-fetch the story so the fresh
// extraction lands in its snapshot. The stage never mutates the snapshot.
//
// Failures leave the story's extraction state untouched: a missing
// credential surfaces domain.ErrMissingCredential, extractor and persist
// failures surface *domain.ExtractionError, and in both cases retrying is
// re-invoking this stage.
func (s *Service) Extract(ctx context.Context, story *domain.Story) (ex *domain.Extraction, cached bool, err error) {
	if story.HasExtraction() {
		s.log.DebugContext(ctx, "extraction cached, skipping extractor",
			slog.String("story_id", story.ID),
		)
		return story.Extraction, true, nil
	}

	if !s.ai.Configured() {
		return nil, false, domain.ErrMissingCredential
	}

	result, err := s.extractor.ExtractTerms(ctx, story.Content)
	if err != nil {
		return nil, false, &domain.ExtractionError{StoryID: story.ID, Cause: err}
	}

	if err := s.store.PersistExtraction(ctx, story.ID, *result); err != nil {
		return nil, false, &domain.ExtractionError{StoryID: story.ID, Cause: err}
	}

	s.log.InfoContext(ctx, "extraction persisted",
		slog.String("story_id", story.ID),
		slog.Int("words", len(result.Words)),
		slog.Int("idioms", len(result.Idioms)),
	)

	return result, false, nil
}
