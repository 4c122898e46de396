package callback

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/wippyai/component-runtime/errors"
)

// Request is a pending invocation of a function owned by another boundary.
// It settles once; later settlements are ignored.
type Request struct {
	value     any
	err       error
	done      chan struct{}
	ID        string
	Method    string
	listeners []func(any, error)
	mu        sync.Mutex
	settled   bool
}

// NewRequest returns an unsettled request that no table tracks, for
// results produced and settled locally.
func NewRequest(id, method string) *Request {
	return newRequest(id, method)
}

func newRequest(id, method string) *Request {
	return &Request{
		ID:     id,
		Method: method,
		done:   make(chan struct{}),
	}
}

// Resolve settles r with a value. It reports false if r was already settled.
func (r *Request) Resolve(v any) bool {
	return r.settle(v, nil)
}

// Reject settles r with an error. It reports false if r was already settled.
func (r *Request) Reject(err error) bool {
	return r.settle(nil, err)
}

func (r *Request) settle(v any, err error) bool {
	r.mu.Lock()
	if r.settled {
		r.mu.Unlock()
		return false
	}
	r.settled = true
	r.value, r.err = v, err
	listeners := r.listeners
	r.listeners = nil
	close(r.done)
	r.mu.Unlock()

	// listeners run on the settling goroutine, which for a boundary is its
	// message loop
	for _, fn := range listeners {
		fn(v, err)
	}
	return true
}

// OnSettle registers fn to run when r settles. If r is already settled fn
// runs immediately.
func (r *Request) OnSettle(fn func(value any, err error)) {
	r.mu.Lock()
	if !r.settled {
		r.listeners = append(r.listeners, fn)
		r.mu.Unlock()
		return
	}
	v, err := r.value, r.err
	r.mu.Unlock()
	fn(v, err)
}

// Await blocks until r settles or ctx is done. There is no built-in
// timeout: an unanswered request stays pending.
func (r *Request) Await(ctx context.Context) (any, error) {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the settled value and error. Both are nil while r is
// pending; use Settled to tell the cases apart.
func (r *Request) Result() (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.err
}

// Done is closed when r settles.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Settled reports whether r has a result.
func (r *Request) Settled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settled
}

// Requests tracks pending requests by id. Entries are removed only when a
// response settles them.
type Requests struct {
	pending map[string]*Request
	newID   func() string
	mu      sync.Mutex
}

// RequestsOption configures a Requests table.
type RequestsOption func(*Requests)

// WithIDGenerator replaces the uuid-based request id generator.
func WithIDGenerator(fn func() string) RequestsOption {
	return func(r *Requests) {
		r.newID = fn
	}
}

// NewRequests creates an empty pending-request table.
func NewRequests(opts ...RequestsOption) *Requests {
	r := &Requests{
		pending: make(map[string]*Request),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new pending request for method under a fresh id.
func (t *Requests) Create(method string) *Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.newID()
	for t.pending[id] != nil {
		id = t.newID()
	}
	req := newRequest(id, method)
	t.pending[id] = req
	return req
}

// Resolve settles and removes the request with the given id.
func (t *Requests) Resolve(id string, v any) error {
	req, err := t.take(id)
	if err != nil {
		return err
	}
	req.Resolve(v)
	return nil
}

// Reject settles and removes the request with the given id.
func (t *Requests) Reject(id string, cause error) error {
	req, err := t.take(id)
	if err != nil {
		return err
	}
	req.Reject(cause)
	return nil
}

func (t *Requests) take(id string) (*Request, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	req, ok := t.pending[id]
	if !ok {
		return nil, errors.UnknownRequest(id)
	}
	delete(t.pending, id)
	return req, nil
}

// Get returns the pending request with the given id.
func (t *Requests) Get(id string) (*Request, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	req, ok := t.pending[id]
	return req, ok
}

// Len returns the number of pending requests.
func (t *Requests) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Pending returns the ids of all pending requests, sorted.
func (t *Requests) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.pending))
	for id := range t.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
