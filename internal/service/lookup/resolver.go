package lookup

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/Keith994/everyone-can-use-english/internal/config"
	"github.com/Keith994/everyone-can-use-english/internal/domain"
)

type resolveStore interface {
	CreateLookup(ctx context.Context, entry domain.PendingLookup) (*domain.LookupChoices, error)
	UpdateLookup(ctx context.Context, id string, meaning domain.ResolvedMeaning, sourceID, sourceType string) error
}

type senseResolver interface {
	ResolveSense(ctx context.Context, word, sentence string, candidates []domain.CandidateSense) (*domain.ResolvedMeaning, error)
}

// Resolver converts one pending lookup into a finalized meaning. At most one
// resolution is in flight at a time; a re-entrant call while one is active
// is rejected as a no-op, not queued.
type Resolver struct {
	log      *slog.Logger
	store    resolveStore
	ai       senseResolver
	cfg      config.AIConfig
	inFlight atomic.Bool
}

// NewResolver creates a lookup resolver.
func NewResolver(log *slog.Logger, store resolveStore, ai senseResolver, cfg config.AIConfig) *Resolver {
	return &Resolver{
		log:   log.With("service", "lookup_resolver"),
		store: store,
		ai:    ai,
		cfg:   cfg,
	}
}

// Resolve requests candidate senses for the pending lookup, asks the
// external resolver to disambiguate, and commits the result onto the
// lookup's identifier. committed is false for every non-commit outcome: a
// rejected re-entrant call, a result with a blank context translation (no
// usable result, deliberately silent), or an error. On error the pending
// lookup stays queued and eligible for retry.
func (r *Resolver) Resolve(ctx context.Context, pl domain.PendingLookup) (committed bool, err error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.log.DebugContext(ctx, "resolution already in flight, skipping",
			slog.String("word", pl.Word),
		)
		return false, nil
	}
	defer r.inFlight.Store(false)

	if !r.cfg.Configured() {
		return false, domain.ErrMissingCredential
	}

	choices, err := r.store.CreateLookup(ctx, pl)
	if err != nil {
		return false, &domain.ResolutionError{Word: pl.Word, Cause: err}
	}

	meaning, err := r.ai.ResolveSense(ctx, pl.Word, pl.Context, choices.CandidateSenses)
	if err != nil {
		return false, &domain.ResolutionError{Word: pl.Word, Cause: err}
	}

	if !meaning.Usable() {
		r.log.InfoContext(ctx, "no usable result, lookup left pending",
			slog.String("word", pl.Word),
		)
		return false, nil
	}

	if err := r.store.UpdateLookup(ctx, pl.ID, *meaning, pl.SourceID, pl.SourceType); err != nil {
		return false, &domain.ResolutionError{Word: pl.Word, Cause: err}
	}

	return true, nil
}
