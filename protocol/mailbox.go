package protocol

import (
	"context"
	"sync"

	"github.com/wippyai/component-runtime/errors"
)

// Mailbox is an unbounded FIFO queue. Post never blocks, so two parties
// posting into each other's mailboxes cannot deadlock, and delivery order
// from any single poster is preserved.
type Mailbox[T any] struct {
	signal chan struct{}
	queue  []T
	mu     sync.Mutex
	closed bool
}

// NewMailbox creates an empty mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		signal: make(chan struct{}, 1),
	}
}

// Post enqueues v.
func (m *Mailbox[T]) Post(v T) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.Closed("mailbox")
	}
	m.queue = append(m.queue, v)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return nil
}

// Receive blocks until a value is available, the mailbox is closed and
// drained, or ctx is done.
func (m *Mailbox[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			v := m.queue[0]
			m.queue[0] = zero
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return v, nil
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return zero, errors.Closed("mailbox")
		}

		select {
		case <-m.signal:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued values.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Close stops accepting posts. Queued values can still be received.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}
