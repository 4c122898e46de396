package runtime

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/callback"
	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/protocol"
	"github.com/wippyai/component-runtime/serialize"
	"github.com/wippyai/component-runtime/vdom"
)

// Status is the lifecycle state of a boundary.
type Status int32

const (
	StatusUninitialized Status = iota
	StatusRendering
	StatusIdle
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusRendering:
		return "rendering"
	case StatusIdle:
		return "idle"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// maxRenderPasses bounds re-renders triggered by state set during a render.
const maxRenderPasses = 16

// Outbox carries messages from a boundary toward the host.
type Outbox func(protocol.Message) error

// Config describes the component a boundary runs.
type Config struct {
	Engine Engine
	Outbox Outbox
	// Props are the initial props in wire form.
	Props       map[string]any
	ComponentID component.ID
	// BoundaryID defaults to the component id.
	BoundaryID string
	// Source is the compiled module.
	Source string
	Trust  component.TrustMode
}

// Option configures a Boundary.
type Option func(*Boundary)

// WithLogger sets the logger used instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Boundary) {
		b.logger = l
	}
}

// WithRequestIDs replaces the generator of CallbackRequest ids.
func WithRequestIDs(fn func() string) Option {
	return func(b *Boundary) {
		b.requests = callback.NewRequests(callback.WithIDGenerator(fn))
	}
}

// WithInboxWarn logs a warning whenever more than n messages are queued.
func WithInboxWarn(n int) Option {
	return func(b *Boundary) {
		b.inboxWarn = n
	}
}

// Boundary runs one compiled root component. All engine access, prop
// updates and callback dispatch happen on its message loop.
type Boundary struct {
	engine      Engine
	outbox      Outbox
	logger      *zap.Logger
	inbox       *protocol.Mailbox[protocol.Message]
	callbacks   *callback.Table
	requests    *callback.Requests
	ser         *serialize.Serializer
	state       *StateStore
	wireProps   map[string]any
	props       map[string]any
	children    map[string]bool
	done        chan struct{}
	cancel      context.CancelFunc
	id          string
	source      string
	componentID component.ID
	inboxWarn   int
	renders     atomic.Int64
	skipped     atomic.Int64
	status      atomic.Int32
	closeOnce   sync.Once
	trust       component.TrustMode
	dirty       atomic.Bool
	started     bool
}

// New creates a boundary. It does nothing until Start.
func New(cfg Config, opts ...Option) (*Boundary, error) {
	if cfg.Engine == nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "boundary requires an engine")
	}
	if cfg.Outbox == nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "boundary requires an outbox")
	}
	if cfg.ComponentID.IsZero() {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "boundary requires a component id")
	}

	b := &Boundary{
		engine:      cfg.Engine,
		outbox:      cfg.Outbox,
		inbox:       protocol.NewMailbox[protocol.Message](),
		callbacks:   callback.NewTable(),
		state:       NewStateStore(),
		wireProps:   maps.Clone(cfg.Props),
		done:        make(chan struct{}),
		id:          cfg.BoundaryID,
		source:      cfg.Source,
		componentID: cfg.ComponentID,
		trust:       cfg.Trust,
	}
	if b.id == "" {
		b.id = cfg.ComponentID.String()
	}
	if b.wireProps == nil {
		b.wireProps = map[string]any{}
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.requests == nil {
		b.requests = callback.NewRequests()
	}
	if b.logger == nil {
		b.logger = Logger()
	}
	b.logger = b.logger.With(zap.String("component", b.componentID.String()))

	b.ser = serialize.New(b.id, serialize.Config{
		Callbacks: b.callbacks,
		Requests:  b.requests,
		Emit: func(inv *protocol.CallbackInvocation) error {
			return b.outbox(inv)
		},
	})
	return b, nil
}

// Start loads the module, performs the first render and starts the
// message loop. The loop runs until ctx is done or Close is called.
func (b *Boundary) Start(ctx context.Context) error {
	if !b.status.CompareAndSwap(int32(StatusUninitialized), int32(StatusRendering)) {
		return errors.InvalidInput(errors.PhaseRuntime, "boundary already started")
	}

	b.props = b.ser.DeserializeProps(b.wireProps)
	if err := b.engine.Load(ctx, b.source, env{b}); err != nil {
		b.status.Store(int32(StatusClosed))
		return errors.Instantiation(b.componentID.String(), err)
	}
	if err := b.commit(); err != nil {
		b.status.Store(int32(StatusClosed))
		return errors.Instantiation(b.componentID.String(), err)
	}
	b.flush()

	loopCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.started = true
	go b.run(loopCtx)

	b.logger.Debug("boundary started", zap.String("boundary", b.id))
	return nil
}

// Post queues a message for the loop. It never blocks.
func (b *Boundary) Post(msg protocol.Message) error {
	if err := b.inbox.Post(msg); err != nil {
		return errors.Closed("boundary " + b.id)
	}
	if b.inboxWarn > 0 {
		if n := b.inbox.Len(); n > b.inboxWarn {
			b.logger.Warn("boundary inbox backlog", zap.Int("queued", n))
		}
	}
	return nil
}

// Close stops the loop, waits for it to exit and releases the engine.
// Pending requests stay pending.
func (b *Boundary) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.inbox.Close()
		if b.started {
			b.cancel()
			<-b.done
		}
		b.status.Store(int32(StatusClosed))
		err = b.engine.Close()
		b.logger.Debug("boundary closed")
	})
	return err
}

// Done is closed when the loop exits.
func (b *Boundary) Done() <-chan struct{} {
	return b.done
}

func (b *Boundary) run(ctx context.Context) {
	defer close(b.done)
	h := dispatcher{b}
	for {
		msg, err := b.inbox.Receive(ctx)
		if err != nil {
			b.status.Store(int32(StatusClosed))
			return
		}
		if err := protocol.Dispatch(msg, h); err != nil {
			b.logger.Warn("message dropped",
				zap.String("type", string(msg.Type())),
				zap.Error(err))
		}
		b.flush()
	}
}

// flush re-renders while the component tree is invalidated.
func (b *Boundary) flush() {
	for pass := 0; b.dirty.Load(); pass++ {
		if pass == maxRenderPasses {
			b.logger.Warn("render did not settle", zap.Int("passes", pass))
			b.dirty.Store(false)
			return
		}
		if err := b.commit(); err != nil {
			b.logger.Error("render failed", zap.Error(err))
			return
		}
	}
}

// commit renders the root and sends the serialized tree to the host.
func (b *Boundary) commit() error {
	b.dirty.Store(false)
	b.status.Store(int32(StatusRendering))
	defer b.status.Store(int32(StatusIdle))

	el, err := b.engine.Render(b.props)
	if err != nil {
		return err
	}
	id := b.componentID.String()
	node, children, err := b.ser.SerializeNode(el, id)
	if err != nil {
		return err
	}
	b.forget(children)
	b.renders.Add(1)
	return b.outbox(&protocol.Render{
		ComponentID:     id,
		Node:            node,
		ChildComponents: children,
		Trust:           b.trust,
	})
}

// forget drops the callbacks handed to descendants that left the tree.
func (b *Boundary) forget(children []protocol.ChildMetadata) {
	live := make(map[string]bool, len(children))
	for _, c := range children {
		live[c.ComponentID] = true
	}
	for id := range b.children {
		if live[id] {
			continue
		}
		if n := b.callbacks.RemoveComponent(id); n > 0 {
			b.logger.Debug("dropped callbacks of unmounted child",
				zap.String("child", id), zap.Int("callbacks", n))
		}
	}
	b.children = live
}

// ID returns the boundary id that routes callback tokens.
func (b *Boundary) ID() string {
	return b.id
}

func (b *Boundary) ComponentID() component.ID {
	return b.componentID
}

func (b *Boundary) Status() Status {
	return Status(b.status.Load())
}

// Renders returns the number of committed renders.
func (b *Boundary) Renders() int {
	return int(b.renders.Load())
}

// SkippedUpdates returns the number of updates dropped because the props
// did not change.
func (b *Boundary) SkippedUpdates() int {
	return int(b.skipped.Load())
}

// Pending returns the ids of requests still awaiting a response.
func (b *Boundary) Pending() []string {
	return b.requests.Pending()
}

func (b *Boundary) Callbacks() *callback.Table {
	return b.callbacks
}

func (b *Boundary) State() *StateStore {
	return b.state
}

// env exposes the boundary to its engine.
type env struct {
	b *Boundary
}

func (e env) BoundaryID() string        { return e.b.id }
func (e env) ComponentID() component.ID { return e.b.componentID }
func (e env) State() *StateStore        { return e.b.state }
func (e env) Invalidate()               { e.b.dirty.Store(true) }
func (e env) Logger() *zap.Logger       { return e.b.logger }

func (e env) CallHost(method string, args []any) (vdom.Awaitable, error) {
	b := e.b
	wire, err := b.ser.SerializeArgs(args, b.componentID.String())
	if err != nil {
		return nil, err
	}
	req := b.requests.Create(method)
	inv := &protocol.CallbackInvocation{
		Originator: b.id,
		TargetID:   protocol.NoContainer,
		Method:     method,
		Args:       wire,
		RequestID:  req.ID,
	}
	if err := b.outbox(inv); err != nil {
		_ = b.requests.Reject(req.ID, err)
	}
	return req, nil
}
