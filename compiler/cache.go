package compiler

import (
	"sync"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/parser"
	"github.com/wippyai/component-runtime/transpile"
)

// Artifact is the parsed and transpiled form of one component source.
type Artifact struct {
	Parsed *parser.Result
	Unit   *transpile.Unit
}

type artifactKey struct {
	path   component.Path
	isRoot bool
}

// TranspileCache memoizes artifacts by path and root-ness. Concurrent
// misses may transpile twice; the first stored artifact wins.
type TranspileCache struct {
	entries map[artifactKey]*Artifact
	mu      sync.RWMutex
}

// NewTranspileCache returns an empty cache.
func NewTranspileCache() *TranspileCache {
	return &TranspileCache{entries: make(map[artifactKey]*Artifact)}
}

// Get returns the artifact for path compiled as a root or descendant.
func (c *TranspileCache) Get(path component.Path, isRoot bool) (*Artifact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.entries[artifactKey{path, isRoot}]
	return a, ok
}

// Put stores a unless an artifact is already present, and returns the
// stored one.
func (c *TranspileCache) Put(path component.Path, isRoot bool, a *Artifact) *Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := artifactKey{path, isRoot}
	if prev, ok := c.entries[key]; ok {
		return prev
	}
	c.entries[key] = a
	return a
}

// Len returns the number of cached artifacts.
func (c *TranspileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *TranspileCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[artifactKey]*Artifact)
}
