package callback

import (
	"sync"

	"github.com/wippyai/component-runtime/vdom"
)

type entry struct {
	fn          vdom.Func
	componentID string
}

// Table maps callback method tokens to the functions they stand for. It is
// private to one boundary.
type Table struct {
	entries map[string]entry
	mu      sync.RWMutex
}

// NewTable creates an empty callback table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string]entry),
	}
}

// Register stores fn under method. Re-registering a token replaces the
// function, so the latest render's closure is the one invoked.
func (t *Table) Register(method, componentID string, fn vdom.Func) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[method] = entry{fn: fn, componentID: componentID}
}

// Get looks up the function registered under method.
func (t *Table) Get(method string) (vdom.Func, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[method]
	return e.fn, ok
}

// RemoveComponent drops every callback registered for componentID, such as
// the props of a child that left the tree.
func (t *Table) RemoveComponent(componentID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for method, e := range t.entries {
		if e.componentID == componentID {
			delete(t.entries, method)
			n++
		}
	}
	return n
}

// Len returns the number of registered callbacks.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
