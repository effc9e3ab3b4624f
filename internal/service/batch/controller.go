// Package batch drains a story's pending-lookup queue through the lookup
// resolver, one lookup at a time.
package batch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
)

// State is the controller's lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

type lookupResolver interface {
	Resolve(ctx context.Context, pl domain.PendingLookup) (committed bool, err error)
}

// queueSource returns the current pending-lookup queue, refreshed from
// upstream, oldest first.
type queueSource interface {
	PendingLookups(ctx context.Context) ([]domain.PendingLookup, error)
}

// Controller sequentially resolves the head of the pending queue until the
// queue is observed empty or a stop is requested. It never runs two
// resolutions concurrently.
type Controller struct {
	log      *slog.Logger
	resolver lookupResolver
	queue    queueSource

	mu    sync.Mutex
	state State
	stop  bool
}

// NewController creates an idle controller.
func NewController(log *slog.Logger, resolver lookupResolver, queue queueSource) *Controller {
	return &Controller{
		log:      log.With("service", "batch"),
		resolver: resolver,
		queue:    queue,
		state:    StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start transitions Idle → Running and drains the queue in the background.
// Returns false when already running.
func (c *Controller) Start(ctx context.Context) bool {
	c.mu.Lock()
	if c.state == StateRunning {
		c.mu.Unlock()
		return false
	}
	c.state = StateRunning
	c.stop = false
	c.mu.Unlock()

	go c.drain(ctx)
	return true
}

// Stop requests the drain loop to finish once the in-flight resolution
// settles. Safe to call in any state.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stop = true
	c.mu.Unlock()
}

// Step resolves the head of the queue exactly once. While the controller is
// running, stepping is a no-op: the drain loop already owns the queue.
func (c *Controller) Step(ctx context.Context) (bool, error) {
	if c.State() == StateRunning {
		return false, nil
	}

	pending, err := c.queue.PendingLookups(ctx)
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return false, nil
	}
	return c.resolver.Resolve(ctx, pending[0])
}

func (c *Controller) stopRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop
}

// drain resolves queue heads until the queue is empty or only unresolvable
// items remain. Each resolution settles (commit, no-op, or error) before the
// queue is re-read, so at most one resolver call is ever in flight.
func (c *Controller) drain(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.stop = false
		c.mu.Unlock()
	}()

	// Heads that settle without committing stay queued; step past them so a
	// blank result or a failing term cannot stall the whole batch.
	skip := 0

	for {
		if ctx.Err() != nil || c.stopRequested() {
			return
		}

		pending, err := c.queue.PendingLookups(ctx)
		if err != nil {
			c.log.ErrorContext(ctx, "queue refresh failed, stopping batch",
				slog.String("error", err.Error()),
			)
			return
		}
		if skip >= len(pending) {
			return
		}

		pl := pending[skip]
		committed, err := c.resolver.Resolve(ctx, pl)
		if err != nil {
			c.log.WarnContext(ctx, "resolution failed, continuing with next lookup",
				slog.String("word", pl.Word),
				slog.String("error", err.Error()),
			)
			skip++
			continue
		}
		if !committed {
			skip++
		}
	}
}
