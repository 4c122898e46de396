package engine

import (
	"strconv"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/component"
)

// frame is the component call the walker is about to make. enter claims
// it to learn the instance identity.
type frame struct {
	parent  component.ID
	id      component.ID
	key     string
	root    bool
	entered bool
}

type effectHook struct {
	deps    goja.Value
	cleanup goja.Callable
	ran     bool
}

type pendingEffect struct {
	hook *effectHook
	fn   goja.Callable
	deps goja.Value
	id   string
}

// enter(path, props) returns the instance id of the component starting to
// render and resets its hook cursor. A component called directly rather
// than rendered gets a key from its call order.
func (e *Engine) enter(call goja.FunctionCall) goja.Value {
	path := component.Path(call.Argument(0).String())

	var id component.ID
	f := e.frame
	switch {
	case f != nil && !f.entered && f.root:
		id = e.env.ComponentID()
	case f != nil && !f.entered:
		id = f.parent.Child(path, f.key)
	default:
		e.calls++
		id = e.owner().Child(path, "call"+strconv.Itoa(e.calls))
	}
	if f != nil && !f.entered {
		f.entered = true
		f.id = id
	}

	cid := id.String()
	e.cursor[cid] = 0
	e.seen[cid] = true
	return e.vm.ToValue(cid)
}

func (e *Engine) slot(cid string) int {
	n := e.cursor[cid]
	e.cursor[cid] = n + 1
	return n
}

// useState(cid, initial) returns [value, setter].
func (e *Engine) useState(call goja.FunctionCall) goja.Value {
	cid := call.Argument(0).String()
	slot := e.slot(cid)
	store := e.env.State()

	cur, ok := store.Get(cid, slot)
	if !ok {
		initial := call.Argument(1)
		if fn, ok := goja.AssertFunction(initial); ok {
			v, err := fn(goja.Undefined())
			if err != nil {
				e.throw(err)
			}
			initial = v
		}
		store.Set(cid, slot, initial)
		cur = initial
	}

	setter := func(c goja.FunctionCall) goja.Value {
		prev, _ := store.Get(cid, slot)
		old, _ := prev.(goja.Value)
		if old == nil {
			old = goja.Undefined()
		}
		next := c.Argument(0)
		if fn, ok := goja.AssertFunction(next); ok {
			v, err := fn(goja.Undefined(), old)
			if err != nil {
				e.throw(err)
			}
			next = v
		}
		if old.SameAs(next) {
			return goja.Undefined()
		}
		store.Set(cid, slot, next)
		e.env.Invalidate()
		return goja.Undefined()
	}
	return e.vm.NewArray(cur, setter)
}

// useEffect(cid, fn, deps) schedules fn to run after the render commits,
// unless deps are unchanged since its last run.
func (e *Engine) useEffect(call goja.FunctionCall) goja.Value {
	cid := call.Argument(0).String()
	slot := e.slot(cid)
	store := e.env.State()

	fn, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		panic(e.vm.NewTypeError("useEffect expects a function"))
	}
	prev, _ := store.Get(cid, slot)
	h, _ := prev.(*effectHook)
	if h == nil {
		h = &effectHook{}
		store.Set(cid, slot, h)
	}
	deps := call.Argument(2)
	if h.ran && sameDeps(h.deps, deps) {
		return goja.Undefined()
	}
	e.effects = append(e.effects, pendingEffect{hook: h, fn: fn, deps: deps, id: cid})
	return goja.Undefined()
}

// sameDeps compares dependency arrays element-wise. Missing deps never
// match.
func sameDeps(a, b goja.Value) bool {
	ao, ok1 := a.(*goja.Object)
	bo, ok2 := b.(*goja.Object)
	if !ok1 || !ok2 {
		return false
	}
	n := ao.Get("length").ToInteger()
	if n != bo.Get("length").ToInteger() {
		return false
	}
	for i := int64(0); i < n; i++ {
		k := strconv.FormatInt(i, 10)
		if !ao.Get(k).SameAs(bo.Get(k)) {
			return false
		}
	}
	return true
}

func (e *Engine) runEffects() {
	effects := e.effects
	e.effects = nil
	for _, pe := range effects {
		h := pe.hook
		e.cleanup(pe.id, h)
		var ret goja.Value
		err := e.guard(func() error {
			var err error
			ret, err = pe.fn(goja.Undefined())
			return err
		})
		h.deps, h.ran = pe.deps, true
		if err != nil {
			e.logger.Warn("effect failed", zap.String("instance", pe.id), zap.Error(scriptError(err)))
			continue
		}
		if fn, ok := goja.AssertFunction(ret); ok {
			h.cleanup = fn
		}
	}
}

func (e *Engine) cleanup(cid string, h *effectHook) {
	fn := h.cleanup
	if fn == nil {
		return
	}
	h.cleanup = nil
	err := e.guard(func() error {
		_, err := fn(goja.Undefined())
		return err
	})
	if err != nil {
		e.logger.Warn("effect cleanup failed", zap.String("instance", cid), zap.Error(scriptError(err)))
	}
}

// unmount drops the state of instances the last render did not reach and
// runs their effect cleanups.
func (e *Engine) unmount() {
	for _, cid := range e.env.State().IDs() {
		if !e.seen[cid] {
			e.release(cid)
		}
	}
}

func (e *Engine) release(cid string) {
	store := e.env.State()
	for i := 0; ; i++ {
		v, ok := store.Get(cid, i)
		if !ok {
			break
		}
		if h, ok := v.(*effectHook); ok {
			e.cleanup(cid, h)
		}
	}
	store.Remove(cid)
	delete(e.cursor, cid)
}
