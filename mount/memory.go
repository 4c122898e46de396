package mount

import (
	"context"
	"sort"
	"sync"

	"github.com/wippyai/component-runtime/protocol"
)

// Memory keeps mounted output in memory and composes it into one tree.
// It backs tests and the CLI.
type Memory struct {
	nodes   map[string]*protocol.Node
	errs    map[string]error
	changed chan struct{}
	mounts  int
	mu      sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{
		nodes:   make(map[string]*protocol.Node),
		errs:    make(map[string]error),
		changed: make(chan struct{}),
	}
}

func (m *Memory) Mount(componentID string, node *protocol.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[componentID] = node
	delete(m.errs, componentID)
	m.mounts++
	m.notify()
	return nil
}

func (m *Memory) Unmount(componentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, componentID)
	delete(m.errs, componentID)
	m.notify()
	return nil
}

func (m *Memory) Fail(componentID string, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[componentID] = err
	m.notify()
	return nil
}

// notify wakes every waiter. Callers hold mu.
func (m *Memory) notify() {
	close(m.changed)
	m.changed = make(chan struct{})
}

// Changed returns a channel closed at the next change.
func (m *Memory) Changed() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changed
}

// Wait blocks until cond holds or ctx is done. cond is evaluated without
// the lock held, so it may call other Memory methods.
func (m *Memory) Wait(ctx context.Context, cond func(*Memory) bool) error {
	for {
		ch := m.Changed()
		if cond(m) {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Node returns the last node mounted for componentID.
func (m *Memory) Node(componentID string) (*protocol.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[componentID]
	return n, ok
}

// Err returns the failure recorded for componentID.
func (m *Memory) Err(componentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs[componentID]
}

// Mounted returns the mounted component ids, sorted.
func (m *Memory) Mounted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.nodes))
	for id := range m.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Mounts returns the number of Mount calls so far.
func (m *Memory) Mounts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounts
}

// Tree composes the output of rootID with every mounted descendant placed
// inside its placeholder. Placeholders of failed descendants carry a
// data-error prop. The returned tree is a copy.
func (m *Memory) Tree(rootID string) (*protocol.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	root, ok := m.nodes[rootID]
	if !ok {
		return nil, false
	}
	return m.compose(root, map[string]bool{rootID: true}), true
}

func (m *Memory) compose(n *protocol.Node, path map[string]bool) *protocol.Node {
	out := &protocol.Node{Type: n.Type}
	if len(n.Props) > 0 {
		out.Props = make(map[string]any, len(n.Props))
		for k, v := range n.Props {
			out.Props[k] = v
		}
	}

	if id, ok := protocol.PlaceholderID(n); ok && !path[id] {
		if err, failed := m.errs[id]; failed {
			out.Props["data-error"] = err.Error()
		}
		if child, mounted := m.nodes[id]; mounted {
			path[id] = true
			out.Children = []any{m.compose(child, path)}
			delete(path, id)
		}
		return out
	}

	for _, c := range n.Children {
		if child, ok := c.(*protocol.Node); ok {
			out.Children = append(out.Children, m.compose(child, path))
			continue
		}
		out.Children = append(out.Children, c)
	}
	return out
}
