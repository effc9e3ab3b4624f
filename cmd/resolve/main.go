// Command resolve drains the lookup queue for one story without the HTTP
// server. It fetches the story, extracts terms if none are persisted,
// seeds the lookup queue, then resolves pending lookups sequentially until
// the queue is empty.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/Keith994/everyone-can-use-english/internal/adapter/ai"
	"github.com/Keith994/everyone-can-use-english/internal/adapter/storeapi"
	"github.com/Keith994/everyone-can-use-english/internal/app"
	"github.com/Keith994/everyone-can-use-english/internal/config"
	"github.com/Keith994/everyone-can-use-english/internal/domain"
	"github.com/Keith994/everyone-can-use-english/internal/service/extraction"
	"github.com/Keith994/everyone-can-use-english/internal/service/lookup"
	"github.com/Keith994/everyone-can-use-english/internal/textindex"
)

func main() {
	storyID := flag.String("story", "", "story ID to resolve")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *storyID == "" {
		logger.Error("-story is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, logger, *storyID); err != nil {
		logger.Error("resolve failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, storyID string) error {
	store := storeapi.NewClient(cfg.Store, logger)
	aiClient := ai.New(cfg.AI, logger)
	extractionSvc := extraction.NewService(logger, store, aiClient, cfg.AI)
	builder := lookup.NewBuilder(logger, store)
	resolver := lookup.NewResolver(logger, store, aiClient, cfg.AI)

	logger.Info("resolving story",
		slog.String("story_id", storyID),
		slog.String("version", app.BuildVersion()),
	)

	story, err := store.GetStory(ctx, storyID)
	if err != nil {
		return err
	}

	if !story.HasExtraction() {
		if _, _, err := extractionSvc.Extract(ctx, story); err != nil {
			return err
		}
		if story, err = store.GetStory(ctx, storyID); err != nil {
			return err
		}
	}

	page, err := store.GetMeanings(ctx, storyID, cfg.Store.MeaningsLimit)
	if err != nil {
		return err
	}

	if len(page.Meanings) == 0 && len(page.PendingLookups) == 0 {
		idx := textindex.Build(story.Content)
		n, err := builder.Build(ctx, storyID, story.Extraction.Terms(), idx, page.Meanings, page.PendingLookups)
		if err != nil {
			return err
		}
		logger.Info("lookup queue seeded", slog.Int("count", n))
		if page, err = store.GetMeanings(ctx, storyID, cfg.Store.MeaningsLimit); err != nil {
			return err
		}
	}

	return drain(ctx, logger, store, resolver, cfg.Store.MeaningsLimit, storyID, page.PendingLookups)
}

// drain resolves pending lookups one at a time, refreshing the queue after
// every commit. Lookups that settle without a commit stay pending and are
// skipped for the rest of the run.
func drain(
	ctx context.Context,
	logger *slog.Logger,
	store *storeapi.Client,
	resolver *lookup.Resolver,
	limit int,
	storyID string,
	pending []domain.PendingLookup,
) error {
	skipped := make(map[string]struct{})
	resolved := 0

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		var next *domain.PendingLookup
		for i := range pending {
			if _, ok := skipped[pending[i].ID]; !ok {
				next = &pending[i]
				break
			}
		}
		if next == nil {
			break
		}

		committed, err := resolver.Resolve(ctx, *next)
		if err != nil {
			logger.Warn("lookup failed, skipping",
				slog.String("word", next.Word),
				slog.String("error", err.Error()),
			)
			skipped[next.ID] = struct{}{}
			continue
		}
		if !committed {
			skipped[next.ID] = struct{}{}
			continue
		}
		resolved++

		page, err := store.GetMeanings(ctx, storyID, limit)
		if err != nil {
			return err
		}
		pending = page.PendingLookups
	}

	logger.Info("drain complete",
		slog.Int("resolved", resolved),
		slog.Int("skipped", len(skipped)),
	)
	return nil
}
