package storage

import (
	"context"

	"github.com/wippyai/component-runtime/runtime"
)

// Host exposes a Store as the "storage" host methods. Every call is scoped
// to the calling component's path.
type Host struct {
	store *Store
}

func NewHost(s *Store) *Host {
	return &Host{store: s}
}

func (h *Host) Namespace() string { return "storage" }

// Get returns the stored value, or nil.
func (h *Host) Get(ctx context.Context, c runtime.Caller, key string) (any, error) {
	v, _, err := h.store.Get(ctx, string(c.Path), key)
	return v, err
}

func (h *Host) Set(ctx context.Context, c runtime.Caller, key string, value any) error {
	return h.store.Set(ctx, string(c.Path), key, value)
}

func (h *Host) Delete(ctx context.Context, c runtime.Caller, key string) (bool, error) {
	return h.store.Delete(ctx, string(c.Path), key)
}

func (h *Host) Keys(ctx context.Context, c runtime.Caller) ([]string, error) {
	return h.store.Keys(ctx, string(c.Path))
}

var _ runtime.Host = (*Host)(nil)
