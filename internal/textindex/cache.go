package textindex

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Cache keeps one Index per story, rebuilt only when the story's text
// changes (compared by identity, not by diff). Concurrent requests for the
// same story share a single build.
type Cache struct {
	entries *lru.Cache[string, *cacheEntry]
	group   singleflight.Group
}

type cacheEntry struct {
	text  string
	index *Index
}

// NewCache creates an index cache holding at most size stories.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("textindex: cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the memoized index for a story, building it on first use or
// after the text changed.
func (c *Cache) Get(storyID, text string) *Index {
	if e, ok := c.entries.Get(storyID); ok && e.text == text {
		return e.index
	}

	_, _, _ = c.group.Do(storyID, func() (any, error) {
		// Re-check: another flight may have built it already.
		if e, ok := c.entries.Get(storyID); ok && e.text == text {
			return e.index, nil
		}
		ix := Build(text)
		c.entries.Add(storyID, &cacheEntry{text: text, index: ix})
		return ix, nil
	})

	if e, ok := c.entries.Get(storyID); ok && e.text == text {
		return e.index
	}
	// A racing flight indexed different text for this story; build directly
	// so the caller always sees its own text.
	return Build(text)
}
