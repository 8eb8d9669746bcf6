// Package cache holds the viewer's read-through query results. Entries
// are served immediately and flagged stale after a fixed window so the
// caller can revalidate in the background without blanking the screen.
package cache

import (
	"context"
	"sync"
	"time"
)

// Entry is the last result recorded for one query key.
type Entry[T any] struct {
	Value     T
	Err       error
	FetchedAt time.Time
}

// Cache is a keyed stale-while-revalidate store. It is safe for
// concurrent use.
type Cache[T any] struct {
	mu         sync.Mutex
	staleAfter time.Duration
	now        func() time.Time
	entries    map[string]Entry[T]
	inflight   map[string]chan struct{}
}

// New returns a cache whose entries become stale after staleAfter.
func New[T any](staleAfter time.Duration) *Cache[T] {
	return &Cache[T]{
		staleAfter: staleAfter,
		now:        time.Now,
		entries:    make(map[string]Entry[T]),
		inflight:   make(map[string]chan struct{}),
	}
}

// Lookup returns the entry for key. stale is true when the entry is
// older than the staleness window or was invalidated; a missing entry
// reports found=false.
func (c *Cache[T]) Lookup(key string) (entry Entry[T], found bool, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found = c.entries[key]
	if !found {
		return entry, false, true
	}
	return entry, true, entry.FetchedAt.IsZero() || c.now().Sub(entry.FetchedAt) >= c.staleAfter
}

// Store records a fetch result and clears the in-flight mark. A failed
// fetch keeps the previous value so the view keeps rendering it.
func (c *Cache[T]) Store(key string, value T, err error) Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.release(key)

	e := c.entries[key]
	if err == nil {
		e.Value = value
	}
	e.Err = err
	e.FetchedAt = c.now()
	c.entries[key] = e
	return e
}

// BeginFetch marks key as being revalidated. It returns false when a
// fetch for key is already running, in which case the caller should not
// start another.
func (c *Cache[T]) BeginFetch(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.inflight[key]; ok {
		return false
	}
	c.inflight[key] = make(chan struct{})
	return true
}

// EndFetch clears the in-flight mark without recording a result.
func (c *Cache[T]) EndFetch(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release(key)
}

// release wakes Wait callers for key. c.mu must be held.
func (c *Cache[T]) release(key string) {
	if done, ok := c.inflight[key]; ok {
		close(done)
		delete(c.inflight, key)
	}
}

// Fetching reports whether a revalidation for key is in flight.
func (c *Cache[T]) Fetching(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[key]
	return ok
}

// Wait blocks until no fetch for key is in flight or ctx is done.
func (c *Cache[T]) Wait(ctx context.Context, key string) error {
	c.mu.Lock()
	done, ok := c.inflight[key]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invalidate marks every entry stale. Values are kept for display until
// the next fetch replaces them.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		e.FetchedAt = time.Time{}
		c.entries[k] = e
	}
}

// Forget drops key entirely.
func (c *Cache[T]) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.release(key)
}
