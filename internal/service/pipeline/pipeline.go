// Package pipeline coordinates the vocabulary lifecycle of the active
// story: fetch the story and its meanings, extract terms when none are
// persisted, seed the lookup queue exactly once, and keep local state
// consistent as upstream responses land out of order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
	"github.com/Keith994/everyone-can-use-english/internal/textindex"
)

// Status reports where the active story is in its load cycle.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusReady    Status = "ready"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

type store interface {
	GetStory(ctx context.Context, id string) (*domain.Story, error)
	GetMeanings(ctx context.Context, storyID string, limit int) (*domain.MeaningPage, error)
	Star(ctx context.Context, storyID string) (bool, error)
	Unstar(ctx context.Context, storyID string) (bool, error)
	Share(ctx context.Context, targetID, targetType string) error
}

type extractionStage interface {
	Extract(ctx context.Context, story *domain.Story) (ex *domain.Extraction, cached bool, err error)
}

type queueBuilder interface {
	Build(ctx context.Context, storyID string, terms []string, idx *textindex.Index,
		meanings []domain.Meaning, pending []domain.PendingLookup) (int, error)
}

type senseResolver interface {
	Resolve(ctx context.Context, pl domain.PendingLookup) (committed bool, err error)
}

type indexCache interface {
	Get(storyID, text string) *textindex.Index
}

// Snapshot is a point-in-time copy of the coordinator state, safe to read
// after the coordinator has moved on.
type Snapshot struct {
	Status         Status
	Story          *domain.Story
	Meanings       []domain.Meaning
	PendingLookups []domain.PendingLookup
	Scanning       bool
	Extracting     bool
	PanelVisible   bool
	LastError      string
}

// Pipeline serializes all state transitions behind one mutex. Slow work
// (store calls, AI calls) runs in goroutines that re-acquire the mutex to
// apply their result, and every result is stamped with the generation it
// was started under so a story switch discards it on arrival.
type Pipeline struct {
	log        *slog.Logger
	store      store
	extraction extractionStage
	builder    queueBuilder
	resolver   senseResolver
	indexes    indexCache

	meaningsLimit int

	mu             sync.Mutex
	gen            uint64
	storyID        string
	status         Status
	story          *domain.Story
	meanings       []domain.Meaning
	pending        []domain.PendingLookup
	meaningsLoaded bool
	extracting     bool
	building       bool
	scanning       bool
	panelVisible   bool
	lastErr        string
}

// New creates a coordinator with no active story.
func New(
	log *slog.Logger,
	st store,
	extraction extractionStage,
	builder queueBuilder,
	resolver senseResolver,
	indexes indexCache,
	meaningsLimit int,
) *Pipeline {
	return &Pipeline{
		log:           log.With("service", "pipeline"),
		store:         st,
		extraction:    extraction,
		builder:       builder,
		resolver:      resolver,
		indexes:       indexes,
		meaningsLimit: meaningsLimit,
		status:        StatusIdle,
	}
}

// Activate switches the active story and kicks off the story and meanings
// fetches. Work still in flight for the previous story keeps running, but
// its results no longer match the current generation and are dropped.
func (p *Pipeline) Activate(ctx context.Context, storyID string) {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.storyID = storyID
	p.status = StatusLoading
	p.story = nil
	p.meanings = nil
	p.pending = nil
	p.meaningsLoaded = false
	p.extracting = false
	p.building = false
	p.scanning = true
	p.lastErr = ""
	p.mu.Unlock()

	p.log.InfoContext(ctx, "story activated", slog.String("story_id", storyID))

	go p.fetchStory(ctx, gen, storyID)
	go p.fetchMeanings(ctx, gen, storyID)
}

func (p *Pipeline) fetchStory(ctx context.Context, gen uint64, storyID string) {
	p.completeStoryFetch(ctx, gen, storyID, false)
}

// completeStoryFetch fetches the story and applies the result. When
// settlesExtraction is set the fetch is the continuation of a fresh
// extraction, and the extraction stays marked in flight until this fetch
// lands so no reconcile in the window can invoke the extractor again.
func (p *Pipeline) completeStoryFetch(ctx context.Context, gen uint64, storyID string, settlesExtraction bool) {
	story, err := p.store.GetStory(ctx, storyID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	if settlesExtraction {
		p.extracting = false
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.status = StatusNotFound
			return
		}
		// The first fetch settles the load cycle either way. A failed
		// re-fetch of an already loaded story keeps the ready state.
		if p.story == nil {
			p.status = StatusFailed
		}
		p.lastErr = err.Error()
		p.log.ErrorContext(ctx, "story fetch failed",
			slog.String("story_id", storyID),
			slog.String("error", err.Error()),
		)
		return
	}

	p.story = story
	p.status = StatusReady
	p.reconcileLocked(ctx, gen)
}

func (p *Pipeline) fetchMeanings(ctx context.Context, gen uint64, storyID string) {
	p.completeMeaningsFetch(ctx, gen, storyID, false)
}

// completeMeaningsFetch fetches the meanings page and applies the result.
// Only the fetch that runBuild itself triggered may clear the build-in-flight
// flag (settlesBuild): an unrelated refresh landing while a batch is still
// being submitted must not reopen the seeding window.
func (p *Pipeline) completeMeaningsFetch(ctx context.Context, gen uint64, storyID string, settlesBuild bool) {
	page, err := p.store.GetMeanings(ctx, storyID, p.meaningsLimit)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	p.scanning = false
	if settlesBuild {
		p.building = false
	}
	if err != nil {
		p.lastErr = err.Error()
		p.log.ErrorContext(ctx, "meanings fetch failed",
			slog.String("story_id", storyID),
			slog.String("error", err.Error()),
		)
		return
	}

	p.applyMeaningsLocked(page)
	p.reconcileLocked(ctx, gen)
}

// applyMeaningsLocked installs a fresh meanings page.
func (p *Pipeline) applyMeaningsLocked(page *domain.MeaningPage) {
	p.meanings = page.Meanings
	p.pending = page.PendingLookups
	p.meaningsLoaded = true
}

// reconcileLocked re-evaluates stage preconditions after any state change.
// Caller holds p.mu.
func (p *Pipeline) reconcileLocked(ctx context.Context, gen uint64) {
	if p.status != StatusReady || p.story == nil {
		return
	}

	if !p.story.HasExtraction() {
		if !p.extracting {
			p.extracting = true
			go p.runExtraction(ctx, gen, p.story)
		}
		return
	}

	// Queue seeding fires only at the settle point where the story has
	// terms but nothing resolved or queued yet. Any meaning or pending
	// lookup on record means seeding already happened.
	if p.meaningsLoaded && len(p.meanings) == 0 && len(p.pending) == 0 &&
		!p.extracting && !p.building && !p.scanning {
		p.building = true
		go p.runBuild(ctx, gen, p.story)
	}
}

func (p *Pipeline) runExtraction(ctx context.Context, gen uint64, story *domain.Story) {
	_, cached, err := p.extraction.Extract(ctx, story)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	if err != nil {
		p.extracting = false
		p.lastErr = err.Error()
		p.log.WarnContext(ctx, "extraction failed",
			slog.String("story_id", story.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if cached {
		p.extracting = false
		p.reconcileLocked(ctx, gen)
		return
	}

	// A fresh extraction was persisted upstream. Re-fetch the story so the
	// local snapshot carries the committed term sets before seeding.
	// Extraction stays marked in flight until that fetch lands: the stale
	// snapshot still shows no extraction, and a reconcile in the window
	// must not invoke the extractor a second time.
	go p.completeStoryFetch(ctx, gen, story.ID, true)
}

func (p *Pipeline) runBuild(ctx context.Context, gen uint64, story *domain.Story) {
	idx := p.indexes.Get(story.ID, story.Content)

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	meanings := p.meanings
	pending := p.pending
	p.mu.Unlock()

	n, err := p.builder.Build(ctx, story.ID, story.Extraction.Terms(), idx, meanings, pending)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	if err != nil {
		p.building = false
		p.lastErr = err.Error()
		p.log.ErrorContext(ctx, "queue build failed",
			slog.String("story_id", story.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if n == 0 {
		p.building = false
		return
	}

	// Hold building until the refresh below lands, so reconcile cannot
	// seed a second batch in the window before pending becomes visible.
	p.scanning = true
	go p.completeMeaningsFetch(ctx, gen, story.ID, true)
}

// RefreshMeanings re-fetches the meanings page for the active story and
// applies it synchronously. It returns the fetched page so callers that
// drive resolution can read the pending set without racing a later switch.
func (p *Pipeline) RefreshMeanings(ctx context.Context) (*domain.MeaningPage, error) {
	p.mu.Lock()
	gen := p.gen
	storyID := p.storyID
	if storyID == "" {
		p.mu.Unlock()
		return nil, fmt.Errorf("no active story")
	}
	p.scanning = true
	p.mu.Unlock()

	page, err := p.store.GetMeanings(ctx, storyID, p.meaningsLimit)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		// The active story changed mid-fetch. Hand the page back without
		// touching state.
		return page, err
	}
	p.scanning = false
	if err != nil {
		p.lastErr = err.Error()
		return nil, err
	}

	p.applyMeaningsLocked(page)
	p.reconcileLocked(ctx, gen)
	return page, nil
}

// PendingLookups refreshes and returns the current pending set. It is the
// queue source the batch controller drains from.
func (p *Pipeline) PendingLookups(ctx context.Context) ([]domain.PendingLookup, error) {
	page, err := p.RefreshMeanings(ctx)
	if err != nil {
		return nil, err
	}
	return page.PendingLookups, nil
}

// ResolveLookup resolves one pending lookup by id. On commit the meanings
// page is refreshed so the resolved entry moves out of the pending set.
func (p *Pipeline) ResolveLookup(ctx context.Context, lookupID string) error {
	p.mu.Lock()
	var target *domain.PendingLookup
	for i := range p.pending {
		if p.pending[i].ID == lookupID {
			pl := p.pending[i]
			target = &pl
			break
		}
	}
	p.mu.Unlock()

	if target == nil {
		return domain.ErrNotFound
	}

	committed, err := p.resolver.Resolve(ctx, *target)
	if err != nil {
		p.noteError(err)
		return err
	}
	if !committed {
		return nil
	}

	_, err = p.RefreshMeanings(ctx)
	return err
}

// ToggleStar flips the star locally first, then reconciles with the value
// the store confirms. The local flip is the only mutation ever applied to
// the story snapshot outside a fetch.
func (p *Pipeline) ToggleStar(ctx context.Context) {
	p.mu.Lock()
	if p.story == nil {
		p.mu.Unlock()
		return
	}
	gen := p.gen
	storyID := p.story.ID
	target := !p.story.Starred
	p.story.Starred = target
	p.mu.Unlock()

	go func() {
		var starred bool
		var err error
		if target {
			starred, err = p.store.Star(ctx, storyID)
		} else {
			starred, err = p.store.Unstar(ctx, storyID)
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if gen != p.gen || p.story == nil {
			return
		}
		if err != nil {
			p.story.Starred = !target
			p.lastErr = err.Error()
			p.log.WarnContext(ctx, "star toggle failed",
				slog.String("story_id", storyID),
				slog.String("error", err.Error()),
			)
			return
		}
		p.story.Starred = starred
	}()
}

// Share publishes the active story.
func (p *Pipeline) Share(ctx context.Context) error {
	p.mu.Lock()
	storyID := p.storyID
	p.mu.Unlock()
	if storyID == "" {
		return domain.ErrNotFound
	}

	if err := p.store.Share(ctx, storyID, domain.SourceTypeStory); err != nil {
		p.noteError(err)
		return err
	}
	p.log.InfoContext(ctx, "story shared", slog.String("story_id", storyID))
	return nil
}

// TogglePanel flips the vocabulary panel and returns its new visibility.
func (p *Pipeline) TogglePanel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panelVisible = !p.panelVisible
	return p.panelVisible
}

// Snapshot copies the current state. The story and the slices are copied
// so the caller never observes a later mutation.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		Status:       p.status,
		Scanning:     p.scanning,
		Extracting:   p.extracting,
		PanelVisible: p.panelVisible,
		LastError:    p.lastErr,
	}
	if p.story != nil {
		story := *p.story
		snap.Story = &story
	}
	if len(p.meanings) > 0 {
		snap.Meanings = append([]domain.Meaning(nil), p.meanings...)
	}
	if len(p.pending) > 0 {
		snap.PendingLookups = append([]domain.PendingLookup(nil), p.pending...)
	}
	return snap
}

func (p *Pipeline) noteError(err error) {
	p.mu.Lock()
	p.lastErr = err.Error()
	p.mu.Unlock()
}
