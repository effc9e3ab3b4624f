// Package lookup turns target terms into pending lookups (the queue
// builder) and pending lookups into resolved meanings (the resolver).
package lookup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
	"github.com/Keith994/everyone-can-use-english/internal/textindex"
)

type batchStore interface {
	CreateLookupBatch(ctx context.Context, entries []domain.PendingLookup) error
}

// Builder computes the de-duplicated set of new pending lookups for a story
// and submits them upstream as one batch. It is a one-shot seeding step, not
// a merge: the caller only invokes it when no meanings and no pending
// lookups exist yet for the story.
type Builder struct {
	log   *slog.Logger
	store batchStore
}

// NewBuilder creates a queue builder.
func NewBuilder(log *slog.Logger, store batchStore) *Builder {
	return &Builder{
		log:   log.With("service", "lookup_builder"),
		store: store,
	}
}

// Build emits at most one pending lookup per term, using the first sentence
// context the index locates. Term identity is case-insensitive: terms that
// already have a meaning or a pending lookup are filtered out, and duplicate
// terms within one build collapse into a single entry. A term with no
// located context cannot be looked up; it is skipped with a warning rather
// than failing the build.
//
// Returns the number of lookups submitted. Zero means nothing was submitted
// and no store call was made, which makes an immediate re-run a no-op.
func (b *Builder) Build(
	ctx context.Context,
	storyID string,
	terms []string,
	idx *textindex.Index,
	meanings []domain.Meaning,
	pending []domain.PendingLookup,
) (int, error) {
	known := make(map[string]struct{}, len(meanings)+len(pending))
	for _, m := range meanings {
		known[domain.NormalizeTerm(m.Word)] = struct{}{}
	}
	for _, p := range pending {
		known[domain.NormalizeTerm(p.Word)] = struct{}{}
	}

	var batch []domain.PendingLookup
	for _, term := range terms {
		key := domain.NormalizeTerm(term)
		if key == "" {
			continue
		}

		contexts := idx.Occurrences(term)
		if len(contexts) == 0 {
			b.log.WarnContext(ctx, "term has no sentence context, skipping",
				slog.String("story_id", storyID),
				slog.String("term", term),
			)
			continue
		}

		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}

		batch = append(batch, domain.PendingLookup{
			Word:       term,
			Context:    contexts[0],
			SourceID:   storyID,
			SourceType: domain.SourceTypeStory,
		})
	}

	if len(batch) == 0 {
		return 0, nil
	}

	if err := b.store.CreateLookupBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("submit lookup batch: %w", err)
	}

	b.log.InfoContext(ctx, "lookup queue seeded",
		slog.String("story_id", storyID),
		slog.Int("count", len(batch)),
	)

	return len(batch), nil
}
