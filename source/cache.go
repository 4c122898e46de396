package source

import (
	"context"
	"sync"

	"github.com/wippyai/component-runtime/component"
)

// Cache memoizes successful fetches by path for its lifetime. Failures are
// not cached. Concurrent misses for the same path may both fetch; the
// first stored value wins.
type Cache struct {
	entries map[component.Path]string
	mu      sync.RWMutex
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[component.Path]string)}
}

// Get returns the cached source of p.
func (c *Cache) Get(p component.Path) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.entries[p]
	return src, ok
}

// Put stores src for p unless a value is already present, and returns the
// stored value.
func (c *Cache) Put(p component.Path, src string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[p]; ok {
		return prev
	}
	c.entries[p] = src
	return src
}

// Len returns the number of cached sources.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[component.Path]string)
}

// Cached wraps a Fetcher with a Cache. Only paths missing from the cache
// reach the underlying fetcher.
type Cached struct {
	Fetcher Fetcher
	Cache   *Cache
}

// Fetch implements Fetcher.
func (c *Cached) Fetch(ctx context.Context, paths []component.Path) map[component.Path]Result {
	out := make(map[component.Path]Result, len(paths))
	var missing []component.Path
	for _, p := range paths {
		if src, ok := c.Cache.Get(p); ok {
			out[p] = Result{Source: src}
			continue
		}
		missing = append(missing, p)
	}
	if len(missing) == 0 {
		return out
	}

	for p, res := range c.Fetcher.Fetch(ctx, missing) {
		if res.Err == nil {
			res.Source = c.Cache.Put(p, res.Source)
		}
		out[p] = res
	}
	return out
}
