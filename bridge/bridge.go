package bridge

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/compiler"
	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/mount"
	"github.com/wippyai/component-runtime/protocol"
	"github.com/wippyai/component-runtime/runtime"
	"github.com/wippyai/component-runtime/serialize"
)

// surfaceOrigin is the sender recorded for DOM callbacks.
const surfaceOrigin = "__surface__"

// Compiler produces boundary modules. *compiler.Compiler implements it.
type Compiler interface {
	Compile(ctx context.Context, req compiler.Request) (*compiler.Result, error)
}

// Packages reports which shared packages engines can import.
type Packages interface {
	Source(name string) (string, bool)
}

// Config wires a bridge.
type Config struct {
	Compiler Compiler
	Engines  runtime.EngineFactory
	Surface  mount.Surface
	// Host is the host method table. Nil means an empty table.
	Host *runtime.HostRegistry
	// Packages, when set, is checked for every package a compiled module
	// imports.
	Packages Packages
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// WithBoundaryOptions adds options to every boundary the bridge starts.
func WithBoundaryOptions(opts ...runtime.Option) Option {
	return func(b *Bridge) {
		b.boundaryOpts = append(b.boundaryOpts, opts...)
	}
}

// entry is one mounted or pending boundary.
type entry struct {
	boundary *runtime.Boundary
	props    map[string]any
	err      error
	parent   string
	id       component.ID
	trust    component.TrustMode
	// starting is set while Start runs; prune leaves the boundary to
	// instantiate then.
	starting bool
}

// envelope is a message on the bridge loop with its sender. A failure
// envelope reports that sender could not be started. origin is the entry
// of a boundary sender; messages from an entry no longer registered are
// dropped.
type envelope struct {
	msg    protocol.Message
	failed error
	from   string
	origin *entry
}

// Bridge owns the live set of boundaries. It is the only place boundaries
// are created, and it routes every message between them, the host method
// table and the mount surface.
type Bridge struct {
	compiler     Compiler
	engines      runtime.EngineFactory
	surface      mount.Surface
	host         *runtime.HostRegistry
	packages     Packages
	logger       *zap.Logger
	inbox        *protocol.Mailbox[envelope]
	entries      map[string]*entry
	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	boundaryOpts []runtime.Option
	wg           sync.WaitGroup
	mu           sync.Mutex
	closeOnce    sync.Once
	closed       bool
}

// New creates a bridge and starts its loop.
func New(cfg Config, opts ...Option) (*Bridge, error) {
	switch {
	case cfg.Compiler == nil:
		return nil, errors.InvalidInput(errors.PhaseMount, "bridge requires a compiler")
	case cfg.Engines == nil:
		return nil, errors.InvalidInput(errors.PhaseMount, "bridge requires an engine factory")
	case cfg.Surface == nil:
		return nil, errors.InvalidInput(errors.PhaseMount, "bridge requires a mount surface")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		compiler: cfg.Compiler,
		engines:  cfg.Engines,
		surface:  cfg.Surface,
		host:     cfg.Host,
		packages: cfg.Packages,
		inbox:    protocol.NewMailbox[envelope](),
		entries:  make(map[string]*entry),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.host == nil {
		b.host = runtime.NewHostRegistry()
	}
	if b.logger == nil {
		b.logger = Logger()
	}
	go b.run()
	return b, nil
}

// Mount compiles and starts the root component id with props in wire form.
// It returns once the first render has been emitted; a compile or start
// failure is returned and also shown on the surface.
func (b *Bridge) Mount(ctx context.Context, id component.ID, props map[string]any, trust component.TrustMode) error {
	key := id.String()
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.Closed("bridge")
	}
	if _, ok := b.entries[key]; ok {
		b.mu.Unlock()
		return errors.InvalidInput(errors.PhaseMount, "component "+key+" is already mounted")
	}
	e := &entry{id: id, trust: trust, props: props}
	b.entries[key] = e
	b.mu.Unlock()

	return b.instantiate(ctx, key, e)
}

// DispatchDOMCallback routes a DOM event raised on the surface to the
// boundary owning method. Event arguments are cut down to their safe
// target fields. It does not wait for the callback to run.
func (b *Bridge) DispatchDOMCallback(method string, args []any) error {
	if _, err := protocol.ParseMethod(method); err != nil {
		return err
	}
	msg := &protocol.DOMCallback{Method: method, Args: serialize.SanitizeArgs(args)}
	if err := b.inbox.Post(envelope{from: surfaceOrigin, msg: msg}); err != nil {
		return errors.Closed("bridge")
	}
	return nil
}

// instantiate compiles e, creates its boundary and starts it. The boundary
// is published before Start so updates arriving meanwhile queue in its
// inbox.
func (b *Bridge) instantiate(ctx context.Context, key string, e *entry) error {
	res, err := b.compiler.Compile(ctx, compiler.Request{ComponentID: key, Trust: e.trust})
	if err != nil {
		return b.fail(key, e, err)
	}
	if res.Errors != nil {
		b.logger.Warn("descendants compiled as their own boundaries",
			zap.String("component", key), zap.Error(res.Errors))
	}
	if b.packages != nil {
		for _, imp := range res.Imports {
			if _, ok := b.packages.Source(imp.ModuleName); !ok {
				b.logger.Warn("imported package is not available",
					zap.String("component", key), zap.String("package", imp.ModuleName))
			}
		}
	}

	opts := append([]runtime.Option{runtime.WithLogger(b.logger)}, b.boundaryOpts...)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.Closed("bridge")
	}
	if b.entries[key] != e {
		b.mu.Unlock()
		b.logger.Debug("component removed while compiling", zap.String("component", key))
		return nil
	}
	bnd, err := runtime.New(runtime.Config{
		Engine:      b.engines(),
		Outbox:      b.outbox(key, e),
		Props:       e.props,
		ComponentID: e.id,
		Source:      res.Source,
		Trust:       e.trust,
	}, opts...)
	if err != nil {
		b.mu.Unlock()
		return b.fail(key, e, err)
	}
	e.boundary = bnd
	e.starting = true
	b.mu.Unlock()

	err = bnd.Start(b.ctx)

	b.mu.Lock()
	e.starting = false
	current := b.entries[key] == e
	if err != nil || !current {
		e.boundary = nil
	}
	b.mu.Unlock()
	if !current {
		_ = bnd.Close()
		b.logger.Debug("component removed while starting", zap.String("component", key))
		return nil
	}
	if err != nil {
		return b.fail(key, e, err)
	}
	b.logger.Debug("boundary mounted",
		zap.String("component", key),
		zap.String("trust", e.trust.String()),
		zap.Int("children", len(res.Children)))
	return nil
}

func (b *Bridge) fail(key string, e *entry, err error) error {
	b.mu.Lock()
	e.err = err
	b.mu.Unlock()
	b.logger.Error("component failed to mount", zap.String("component", key), zap.Error(err))
	_ = b.inbox.Post(envelope{from: key, failed: err, origin: e})
	return err
}

func (b *Bridge) outbox(key string, e *entry) runtime.Outbox {
	return func(msg protocol.Message) error {
		return b.inbox.Post(envelope{from: key, msg: msg, origin: e})
	}
}

// registered reports whether e is still the entry of key.
func (b *Bridge) registered(key string, e *entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries[key] == e
}

func (b *Bridge) run() {
	defer close(b.done)
	for {
		env, err := b.inbox.Receive(b.ctx)
		if err != nil {
			return
		}
		if env.origin != nil && !b.registered(env.from, env.origin) {
			b.logger.Debug("dropping message from removed component", zap.String("component", env.from))
			continue
		}
		if env.failed != nil {
			if err := b.surface.Fail(env.from, env.failed); err != nil {
				b.logger.Warn("surface rejected failure", zap.String("component", env.from), zap.Error(err))
			}
			continue
		}
		if err := protocol.Dispatch(env.msg, router{b: b, from: env.from}); err != nil {
			b.logger.Warn("message dropped",
				zap.String("type", string(env.msg.Type())),
				zap.String("from", env.from),
				zap.Error(err))
		}
	}
}

// Close stops the loop, waits for compilations and host calls in flight,
// and closes every boundary.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()

		b.cancel()
		b.inbox.Close()
		<-b.done
		b.wg.Wait()

		b.mu.Lock()
		var live []*runtime.Boundary
		for _, e := range b.entries {
			if e.boundary != nil {
				live = append(live, e.boundary)
			}
		}
		b.mu.Unlock()
		for _, bnd := range live {
			_ = bnd.Close()
		}
		b.logger.Debug("bridge closed", zap.Int("boundaries", len(live)))
	})
	return nil
}

// Boundary returns the started or starting boundary of id.
func (b *Bridge) Boundary(id string) (*runtime.Boundary, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[id]
	if !ok || e.boundary == nil {
		return nil, false
	}
	return e.boundary, true
}

// Mounted returns the ids of boundaries that exist, sorted.
func (b *Bridge) Mounted() []string {
	return b.ids(func(e *entry) bool { return e.boundary != nil })
}

// Pending returns the ids still being compiled or started, sorted.
func (b *Bridge) Pending() []string {
	return b.ids(func(e *entry) bool { return e.boundary == nil && e.err == nil })
}

// Err returns the mount failure of id.
func (b *Bridge) Err(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[id]; ok {
		return e.err
	}
	return nil
}

// Host returns the host method table.
func (b *Bridge) Host() *runtime.HostRegistry {
	return b.host
}

func (b *Bridge) ids(keep func(*entry) bool) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for id, e := range b.entries {
		if keep(e) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
