package engine

import (
	"context"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/runtime"
	"github.com/wippyai/component-runtime/vdom"
)

// Options configures every engine built from them.
type Options struct {
	// Imports resolves shared package imports. Nil means no packages.
	Imports *ImportTable
	// Timeout bounds one render or callback. Zero disables it.
	Timeout time.Duration
}

// Engine runs one compiled module in its own goja runtime. It is not safe
// for concurrent use; the owning boundary calls it from its loop only.
type Engine struct {
	vm      *goja.Runtime
	env     runtime.Env
	logger  *zap.Logger
	imports *ImportTable
	entry   goja.Callable

	markers markers
	// funcs maps JS wrappers back to the Go functions they wrap, so a
	// function crossing twice keeps its identity.
	funcs   map[*goja.Object]vdom.Func
	modules map[string]goja.Value

	frame   *frame
	cursor  map[string]int
	seen    map[string]bool
	keys    map[string]int
	effects []pendingEffect
	calls   int
	timeout time.Duration
}

// New creates an engine. The runtime is created by Load.
func New(opts Options) *Engine {
	return &Engine{
		imports: opts.Imports,
		timeout: opts.Timeout,
		funcs:   make(map[*goja.Object]vdom.Func),
		modules: make(map[string]goja.Value),
		cursor:  make(map[string]int),
		seen:    make(map[string]bool),
		keys:    make(map[string]int),
	}
}

// Factory returns a runtime.EngineFactory producing engines with opts.
func Factory(opts Options) runtime.EngineFactory {
	return func() runtime.Engine {
		return New(opts)
	}
}

// Load evaluates the module. The module must register its entry function.
func (e *Engine) Load(ctx context.Context, source string, env runtime.Env) error {
	if e.vm != nil {
		return errors.InvalidInput(errors.PhaseRuntime, "engine already loaded")
	}
	e.env = env
	e.logger = env.Logger()
	if e.logger == nil {
		e.logger = Logger()
	}
	e.vm = goja.New()
	e.vm.SetMaxCallStackSize(4096)
	if err := e.install(); err != nil {
		return err
	}

	id := env.ComponentID()
	prog, err := goja.Compile(string(id.Path)+".js", source, false)
	if err != nil {
		return errors.New(errors.PhaseRuntime, errors.KindInvalidData).
			Component(id.String()).
			Cause(err).
			Detail("compile module").
			Build()
	}

	stop := context.AfterFunc(ctx, func() {
		e.vm.Interrupt(ctx.Err())
	})
	defer stop()

	if _, err := e.vm.RunProgram(prog); err != nil {
		e.vm.ClearInterrupt()
		return errors.New(errors.PhaseRuntime, errors.KindInstantiation).
			Component(id.String()).
			Cause(scriptError(err)).
			Detail("evaluate module").
			Build()
	}
	if e.entry == nil {
		return errors.NotFound(errors.PhaseRuntime, "entry function of", id.String())
	}
	debugf("loaded module for %s", id)
	return nil
}

// Render runs the entry function with props, expands inlined components and
// returns the tree. Effects run after the tree is built.
func (e *Engine) Render(props map[string]any) (*vdom.Element, error) {
	if e.vm == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "engine")
	}
	root := e.env.ComponentID()

	var out []*vdom.Element
	err := e.guard(func() error {
		e.seen = make(map[string]bool)
		e.keys = make(map[string]int)
		e.effects = e.effects[:0]
		e.calls = 0

		f := &frame{root: true}
		e.frame = f
		ret, err := e.entry(goja.Undefined(), e.toJS(props))
		e.frame = nil
		if err != nil {
			return err
		}
		owner := root
		if f.entered {
			owner = f.id
		}
		out, err = e.walk(ret, owner, "0")
		return err
	})
	if err != nil {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidData).
			Component(root.String()).
			Cause(scriptError(err)).
			Detail("render").
			Build()
	}

	e.unmount()
	e.runEffects()

	switch len(out) {
	case 0:
		return vdom.NewElement("div", nil), nil
	case 1:
		return out[0], nil
	default:
		return vdom.NewElement("div", nil, out...), nil
	}
}

// Close runs outstanding effect cleanups and releases the runtime. Pending
// promises are dropped.
func (e *Engine) Close() error {
	if e.vm == nil || e.funcs == nil {
		return nil
	}
	for _, cid := range e.env.State().IDs() {
		e.release(cid)
	}
	e.vm.Interrupt(errors.Closed("engine"))
	e.funcs = nil
	e.modules = nil
	return nil
}

// guard runs fn with the render timeout armed.
func (e *Engine) guard(fn func() error) error {
	if e.timeout <= 0 {
		return fn()
	}
	t := time.AfterFunc(e.timeout, func() {
		e.vm.Interrupt(errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData,
			context.DeadlineExceeded, "script exceeded "+e.timeout.String()))
	})
	defer func() {
		t.Stop()
		e.vm.ClearInterrupt()
	}()
	return fn()
}

// owner returns the instance the engine is currently rendering, or the
// root outside of a render.
func (e *Engine) owner() component.ID {
	if e.frame != nil && e.frame.entered {
		return e.frame.id
	}
	return e.env.ComponentID()
}
