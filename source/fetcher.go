package source

import (
	"context"
	"sync"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
)

// Result is the outcome of fetching one path.
type Result struct {
	Err    error
	Source string
}

// Fetcher resolves component paths to source text. Every requested path
// has an entry in the returned map.
type Fetcher interface {
	Fetch(ctx context.Context, paths []component.Path) map[component.Path]Result
}

// FetcherFunc adapts a single-path lookup to Fetcher.
type FetcherFunc func(ctx context.Context, path component.Path) (string, error)

// Fetch resolves each path in turn.
func (f FetcherFunc) Fetch(ctx context.Context, paths []component.Path) map[component.Path]Result {
	out := make(map[component.Path]Result, len(paths))
	for _, p := range paths {
		src, err := f(ctx, p)
		out[p] = Result{Source: src, Err: err}
	}
	return out
}

// MapFetcher serves sources from memory.
type MapFetcher struct {
	sources map[component.Path]string
	mu      sync.RWMutex
}

// NewMapFetcher returns a fetcher over a copy of sources.
func NewMapFetcher(sources map[component.Path]string) *MapFetcher {
	m := &MapFetcher{sources: make(map[component.Path]string, len(sources))}
	for p, s := range sources {
		m.sources[p] = s
	}
	return m
}

// Set adds or replaces the source of p.
func (m *MapFetcher) Set(p component.Path, src string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[p] = src
}

// Fetch implements Fetcher.
func (m *MapFetcher) Fetch(ctx context.Context, paths []component.Path) map[component.Path]Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[component.Path]Result, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			out[p] = Result{Err: errors.ComponentNotFound(string(p), err)}
			continue
		}
		src, ok := m.sources[p]
		if !ok {
			out[p] = Result{Err: errors.ComponentNotFound(string(p), nil)}
			continue
		}
		out[p] = Result{Source: src}
	}
	return out
}

// FetchOne fetches a single path through f.
func FetchOne(ctx context.Context, f Fetcher, p component.Path) (string, error) {
	res, ok := f.Fetch(ctx, []component.Path{p})[p]
	if !ok {
		return "", errors.ComponentNotFound(string(p), nil)
	}
	return res.Source, res.Err
}
