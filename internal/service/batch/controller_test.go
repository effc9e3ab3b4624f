package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeQueue plays the upstream store: committed lookups disappear from the
// queue on the next refresh.
type fakeQueue struct {
	mu      sync.Mutex
	pending []domain.PendingLookup
	err     error
}

func (q *fakeQueue) PendingLookups(_ context.Context) ([]domain.PendingLookup, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	out := make([]domain.PendingLookup, len(q.pending))
	copy(out, q.pending)
	return out, nil
}

func (q *fakeQueue) remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, pl := range q.pending {
		if pl.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// fakeResolver commits everything except words listed in noop/fail, and
// tracks the number of concurrently active Resolve calls.
type fakeResolver struct {
	queue *fakeQueue
	noop  map[string]bool
	fail  map[string]bool

	active    atomic.Int32
	maxActive atomic.Int32
	resolved  atomic.Int32
}

func (r *fakeResolver) Resolve(_ context.Context, pl domain.PendingLookup) (bool, error) {
	cur := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		max := r.maxActive.Load()
		if cur <= max || r.maxActive.CompareAndSwap(max, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	r.resolved.Add(1)

	if r.fail[pl.Word] {
		return false, &domain.ResolutionError{Word: pl.Word, Cause: errors.New("boom")}
	}
	if r.noop[pl.Word] {
		return false, nil
	}
	r.queue.remove(pl.ID)
	return true, nil
}

func pendingQueue(words ...string) *fakeQueue {
	q := &fakeQueue{}
	for _, w := range words {
		q.pending = append(q.pending, domain.PendingLookup{
			ID: "p-" + w, Word: w, Context: "ctx", SourceID: "s-1",
		})
	}
	return q
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State() == StateIdle
	}, 2*time.Second, 5*time.Millisecond)
}

func TestController_DrainsQueue(t *testing.T) {
	t.Parallel()

	q := pendingQueue("cat", "dog", "bird")
	r := &fakeResolver{queue: q}
	c := NewController(testLogger(), r, q)

	require.True(t, c.Start(context.Background()))
	waitIdle(t, c)

	left, err := q.PendingLookups(context.Background())
	require.NoError(t, err)
	assert.Empty(t, left, "queue should be fully drained")
	assert.EqualValues(t, 1, r.maxActive.Load(), "never more than one resolution in flight")
}

func TestController_StartWhileRunningIsNoop(t *testing.T) {
	t.Parallel()

	q := pendingQueue("cat", "dog", "bird", "fish", "mouse")
	r := &fakeResolver{queue: q}
	c := NewController(testLogger(), r, q)

	require.True(t, c.Start(context.Background()))
	// Re-entrant starts must not spawn a second drain loop.
	for i := 0; i < 5; i++ {
		c.Start(context.Background())
	}
	waitIdle(t, c)

	assert.EqualValues(t, 1, r.maxActive.Load())
}

func TestController_SkipsNonCommittingHead(t *testing.T) {
	t.Parallel()

	// "cat" resolves to a blank result: it stays queued, the controller
	// proceeds to the rest without erroring.
	q := pendingQueue("cat", "dog")
	r := &fakeResolver{queue: q, noop: map[string]bool{"cat": true}}
	c := NewController(testLogger(), r, q)

	require.True(t, c.Start(context.Background()))
	waitIdle(t, c)

	left, err := q.PendingLookups(context.Background())
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "cat", left[0].Word, "blank-result lookup remains queued")
}

func TestController_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	q := pendingQueue("cat", "dog")
	r := &fakeResolver{queue: q, fail: map[string]bool{"cat": true}}
	c := NewController(testLogger(), r, q)

	require.True(t, c.Start(context.Background()))
	waitIdle(t, c)

	left, err := q.PendingLookups(context.Background())
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "cat", left[0].Word, "failed lookup stays eligible for retry")
}

func TestController_Stop(t *testing.T) {
	t.Parallel()

	q := pendingQueue("a", "b", "c", "d", "e", "f", "g", "h")
	r := &fakeResolver{queue: q}
	c := NewController(testLogger(), r, q)

	require.True(t, c.Start(context.Background()))
	c.Stop()
	waitIdle(t, c)

	left, err := q.PendingLookups(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, left, "stop should leave unprocessed lookups queued")
}

func TestController_EmptyQueueGoesIdle(t *testing.T) {
	t.Parallel()

	q := pendingQueue()
	r := &fakeResolver{queue: q}
	c := NewController(testLogger(), r, q)

	require.True(t, c.Start(context.Background()))
	waitIdle(t, c)

	assert.EqualValues(t, 0, r.resolved.Load())
}

func TestController_Step(t *testing.T) {
	t.Parallel()

	q := pendingQueue("cat", "dog")
	r := &fakeResolver{queue: q}
	c := NewController(testLogger(), r, q)

	committed, err := c.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, committed)

	left, err := q.PendingLookups(context.Background())
	require.NoError(t, err)
	assert.Len(t, left, 1, "step resolves exactly one lookup")
}
