package engine

import (
	"strconv"

	"github.com/dop251/goja"

	"github.com/wippyai/component-runtime/callback"
	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/vdom"
)

// maxDepth bounds value conversion so cyclic objects fail instead of
// recursing forever.
const maxDepth = 64

// ScriptError is an exception thrown by module code.
type ScriptError struct {
	Message string
	Stack   string
}

func (e *ScriptError) Error() string { return e.Message }

// scriptError unwraps goja failures into errors whose message is what the
// script threw.
func scriptError(err error) error {
	switch ex := err.(type) {
	case *goja.Exception:
		val := ex.Value()
		msg := ex.Error()
		if obj, ok := val.(*goja.Object); ok {
			if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
				msg = m.String()
			}
		} else if val != nil {
			msg = val.String()
		}
		return &ScriptError{Message: msg, Stack: ex.String()}
	case *goja.InterruptedError:
		if inner, ok := ex.Value().(error); ok {
			return inner
		}
		return &ScriptError{Message: ex.Error()}
	}
	return err
}

// jsFunc is a script function handed to Go.
type jsFunc struct {
	e   *Engine
	fn  goja.Callable
	obj *goja.Object
	src string
}

func (f *jsFunc) Source() string { return f.src }

// Call runs the function. A promise result is returned as its settled value
// or, while pending, as an Awaitable.
func (f *jsFunc) Call(args []any) (any, error) {
	e := f.e
	if e.vm == nil || e.funcs == nil {
		return nil, errors.Closed("engine")
	}
	in := make([]goja.Value, len(args))
	for i, a := range args {
		in[i] = e.toJS(a)
	}
	var ret goja.Value
	err := e.guard(func() error {
		var err error
		ret, err = f.fn(goja.Undefined(), in...)
		return err
	})
	if err != nil {
		return nil, scriptError(err)
	}
	return e.settle(ret, f.src)
}

func (e *Engine) settle(v goja.Value, src string) (any, error) {
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Promise" {
		return e.toGo(v, e.env.ComponentID(), "result", 0)
	}
	p, ok := obj.Export().(*goja.Promise)
	if !ok {
		return e.toGo(v, e.env.ComponentID(), "result", 0)
	}
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return e.toGo(p.Result(), e.env.ComponentID(), "result", 0)
	case goja.PromiseStateRejected:
		return nil, e.rejection(p.Result())
	}

	req := callback.NewRequest("", src)
	then, ok := goja.AssertFunction(obj.Get("then"))
	if !ok {
		return nil, errors.InvalidData(errors.PhaseRuntime, nil, "promise without then")
	}
	onValue := func(c goja.FunctionCall) goja.Value {
		val, err := e.toGo(c.Argument(0), e.env.ComponentID(), "result", 0)
		if err != nil {
			req.Reject(err)
		} else {
			req.Resolve(val)
		}
		return goja.Undefined()
	}
	onError := func(c goja.FunctionCall) goja.Value {
		req.Reject(e.rejection(c.Argument(0)))
		return goja.Undefined()
	}
	if _, err := then(obj, e.vm.ToValue(onValue), e.vm.ToValue(onError)); err != nil {
		return nil, scriptError(err)
	}
	return req, nil
}

func (e *Engine) rejection(reason goja.Value) error {
	if obj, ok := reason.(*goja.Object); ok {
		if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
			return &ScriptError{Message: m.String()}
		}
	}
	if reason == nil {
		return &ScriptError{Message: "undefined"}
	}
	return &ScriptError{Message: reason.String()}
}

// promise exposes aw to scripts.
func (e *Engine) promise(aw vdom.Awaitable) goja.Value {
	p, resolve, reject := e.vm.NewPromise()
	aw.OnSettle(func(v any, err error) {
		if e.funcs == nil {
			return
		}
		if err != nil {
			_ = reject(e.vm.NewGoError(err))
			return
		}
		_ = resolve(e.toJS(v))
	})
	return e.vm.ToValue(p)
}

// toGo converts a script value into the values the serializer accepts.
// Functions become vdom.Func and elements are walked as owner's output.
func (e *Engine) toGo(v goja.Value, owner component.ID, pos string, depth int) (any, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.Export(), nil
	}
	if depth > maxDepth {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidData).
			Component(owner.String()).
			Path(pos).
			Detail("value nested deeper than %d", maxDepth).
			Build()
	}

	if fn, ok := goja.AssertFunction(obj); ok {
		if orig, ok := e.funcs[obj]; ok {
			return orig, nil
		}
		return &jsFunc{e: e, fn: fn, obj: obj, src: obj.String()}, nil
	}
	if e.isElement(obj) {
		els, err := e.walk(obj, owner, pos)
		if err != nil {
			return nil, err
		}
		if len(els) == 1 {
			return els[0], nil
		}
		return els, nil
	}

	switch obj.ClassName() {
	case "Array":
		n := obj.Get("length").ToInteger()
		out := make([]any, n)
		for i := int64(0); i < n; i++ {
			k := strconv.FormatInt(i, 10)
			item, err := e.toGo(obj.Get(k), owner, pos+"."+k, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	case "Date", "Promise", "Error":
		return obj.Export(), nil
	}

	out := make(map[string]any)
	for _, k := range obj.Keys() {
		item, err := e.toGo(obj.Get(k), owner, pos+"."+k, depth+1)
		if err != nil {
			return nil, err
		}
		out[k] = item
	}
	return out, nil
}

// toJS converts a Go value for scripts. Functions owned by this engine come
// back as the original script function.
func (e *Engine) toJS(v any) goja.Value {
	vm := e.vm
	switch val := v.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return val
	case *jsFunc:
		if val.e == e {
			return val.obj
		}
		return e.goFunc(val)
	case vdom.Func:
		return e.goFunc(val)
	case vdom.Awaitable:
		return e.promise(val)
	case *vdom.Element:
		return e.elementToJS(val)
	case []*vdom.Element:
		items := make([]any, len(val))
		for i, el := range val {
			items[i] = e.elementToJS(el)
		}
		return vm.NewArray(items...)
	case map[string]any:
		o := vm.NewObject()
		for k, item := range val {
			_ = o.Set(k, e.toJS(item))
		}
		return o
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = e.toJS(item)
		}
		return vm.NewArray(items...)
	}
	return vm.ToValue(v)
}

func (e *Engine) goFunc(f vdom.Func) goja.Value {
	fn := func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, a := range call.Arguments {
			v, err := e.toGo(a, e.owner(), "args", 0)
			if err != nil {
				e.throw(err)
			}
			args[i] = v
		}
		ret, err := f.Call(args)
		if err != nil {
			e.throw(err)
		}
		return e.toJS(ret)
	}
	obj := e.vm.ToValue(fn).(*goja.Object)
	e.funcs[obj] = f
	return obj
}

// elementToJS rebuilds an element received from another boundary so the
// walker can render it again.
func (e *Engine) elementToJS(el *vdom.Element) goja.Value {
	if el == nil {
		return goja.Null()
	}
	if el.IsText {
		return e.vm.ToValue(el.Text)
	}

	var typ goja.Value
	props := make(map[string]any, len(el.Props)+1)
	for k, v := range el.Props {
		props[k] = v
	}
	if ref := el.Component; ref != nil {
		typ = e.boundaryRef(goja.FunctionCall{Arguments: []goja.Value{e.vm.ToValue(string(ref.Path))}})
		props = make(map[string]any, len(ref.Props)+1)
		for k, v := range ref.Props {
			props[k] = v
		}
		if ref.Trust != component.TrustUnset {
			props["trust"] = ref.Trust.String()
		}
	} else {
		typ = e.vm.ToValue(el.Type)
	}

	args := []goja.Value{typ, e.toJS(props)}
	for _, c := range el.Children {
		args = append(args, e.elementToJS(c))
	}
	return e.createNode(goja.FunctionCall{Arguments: args})
}
