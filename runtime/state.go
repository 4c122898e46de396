package runtime

import (
	"sort"
	"sync"
)

// StateStore holds hook state for every component instance rendered in one
// boundary, keyed by component id and slot.
type StateStore struct {
	slots map[string][]stateSlot
	mu    sync.RWMutex
}

type stateSlot struct {
	value any
	set   bool
}

// NewStateStore creates an empty store.
func NewStateStore() *StateStore {
	return &StateStore{slots: make(map[string][]stateSlot)}
}

// Get returns the value in slot of instance id. ok is false when the slot
// was never initialized.
func (s *StateStore) Get(id string, slot int) (value any, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slots := s.slots[id]
	if slot < 0 || slot >= len(slots) || !slots[slot].set {
		return nil, false
	}
	return slots[slot].value, true
}

// Init stores initial in slot unless the slot already holds a value, and
// returns the slot's value.
func (s *StateStore) Init(id string, slot int, initial any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := s.grow(id, slot)
	if !slots[slot].set {
		slots[slot] = stateSlot{value: initial, set: true}
	}
	return slots[slot].value
}

// Set replaces the value in slot.
func (s *StateStore) Set(id string, slot int, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := s.grow(id, slot)
	slots[slot] = stateSlot{value: v, set: true}
}

func (s *StateStore) grow(id string, slot int) []stateSlot {
	slots := s.slots[id]
	for len(slots) <= slot {
		slots = append(slots, stateSlot{})
	}
	s.slots[id] = slots
	return slots
}

// Remove drops all state of instance id.
func (s *StateStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, id)
}

// IDs returns the instances holding state, sorted.
func (s *StateStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
