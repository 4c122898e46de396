package engine

import (
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/codegen"
	"github.com/wippyai/component-runtime/transpile"
)

// markers identify the element types the walker treats specially.
type markers struct {
	fragment  *goja.Object
	component *goja.Object
	widget    *goja.Object
	// element tags objects built by createNode.
	element *goja.Symbol
	// boundary tags __bwe.boundary values.
	boundary *goja.Symbol
}

func (e *Engine) install() error {
	vm := e.vm
	e.markers = markers{
		fragment:  e.marker("Fragment"),
		component: e.marker("Component"),
		widget:    e.marker("Widget"),
		element:   goja.NewSymbol("element"),
		boundary:  goja.NewSymbol("boundary"),
	}

	rt := vm.NewObject()
	host := vm.NewObject()
	sets := []struct {
		obj  *goja.Object
		name string
		fn   func(goja.FunctionCall) goja.Value
	}{
		{rt, "enter", e.enter},
		{rt, "useState", e.useState},
		{rt, "useEffect", e.useEffect},
		{rt, "require", e.require},
		{rt, "boundary", e.boundaryRef},
		{rt, "entry", e.setEntry},
		{host, "call", e.hostCall},
	}
	for _, s := range sets {
		if err := s.obj.Set(s.name, s.fn); err != nil {
			return err
		}
	}
	if err := rt.Set("host", host); err != nil {
		return err
	}

	globals := map[string]any{
		codegen.RuntimeObject:  rt,
		transpile.Factory:      e.createNode,
		transpile.FragmentName: e.markers.fragment,
		"Component":            e.markers.component,
		"Widget":               e.markers.widget,
		"console":              e.console(),
	}
	for name, v := range globals {
		if err := vm.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) marker(name string) *goja.Object {
	o := e.vm.NewObject()
	_ = o.Set("name", name)
	return o
}

// createNode(type, props, ...children) builds an element object. key is
// lifted out of props; children are stored as props.children.
func (e *Engine) createNode(call goja.FunctionCall) goja.Value {
	vm := e.vm
	props := vm.NewObject()
	key := goja.Null()
	if src, ok := call.Argument(1).(*goja.Object); ok {
		for _, k := range src.Keys() {
			if k == "key" {
				key = src.Get(k)
				continue
			}
			_ = props.Set(k, src.Get(k))
		}
	}
	if len(call.Arguments) > 2 {
		children := call.Arguments[2:]
		if len(children) == 1 {
			_ = props.Set("children", children[0])
		} else {
			items := make([]any, len(children))
			for i, c := range children {
				items[i] = c
			}
			_ = props.Set("children", vm.NewArray(items...))
		}
	}

	el := vm.NewObject()
	_ = el.Set("type", call.Argument(0))
	_ = el.Set("props", props)
	_ = el.Set("key", key)
	_ = el.SetSymbol(e.markers.element, true)
	return el
}

// boundaryRef returns a type value standing for an isolated component.
func (e *Engine) boundaryRef(call goja.FunctionCall) goja.Value {
	o := e.vm.NewObject()
	_ = o.Set("src", call.Argument(0).String())
	_ = o.SetSymbol(e.markers.boundary, true)
	return o
}

func (e *Engine) setEntry(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(e.vm.NewTypeError("entry must be a function"))
	}
	e.entry = fn
	return goja.Undefined()
}

// hostCall(method, ...args) calls the host method table and returns a
// promise for the result.
func (e *Engine) hostCall(call goja.FunctionCall) goja.Value {
	method := call.Argument(0).String()
	args := make([]any, 0, len(call.Arguments))
	for i := 1; i < len(call.Arguments); i++ {
		v, err := e.toGo(call.Arguments[i], e.owner(), "args", 0)
		if err != nil {
			e.throw(err)
		}
		args = append(args, v)
	}
	aw, err := e.env.CallHost(method, args)
	if err != nil {
		e.throw(err)
	}
	return e.promise(aw)
}

func (e *Engine) console() *goja.Object {
	o := e.vm.NewObject()
	levels := map[string]func(string, ...zap.Field){
		"log":   e.logger.Info,
		"info":  e.logger.Info,
		"debug": e.logger.Debug,
		"warn":  e.logger.Warn,
		"error": e.logger.Error,
	}
	for name, logf := range levels {
		_ = o.Set(name, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				parts[i] = a.String()
			}
			logf(strings.Join(parts, " "), zap.String("source", "console"))
			return goja.Undefined()
		})
	}
	return o
}

// throw raises err as a JS exception. Script exceptions are rethrown as is.
func (e *Engine) throw(err error) {
	if ex, ok := err.(*goja.Exception); ok {
		panic(ex)
	}
	panic(e.vm.NewGoError(err))
}
