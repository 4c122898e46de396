package engine

import (
	"strconv"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/vdom"
)

// walk converts a rendered value into elements. Inlined component
// functions are called here; the ids of their instances derive from owner
// and their key or position.
func (e *Engine) walk(v goja.Value, owner component.ID, pos string) ([]*vdom.Element, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		if _, isBool := v.Export().(bool); isBool {
			return nil, nil
		}
		return []*vdom.Element{vdom.NewText(v.String())}, nil
	}

	if obj.ClassName() == "Array" {
		return e.walkList(obj, owner, pos)
	}
	if !e.isElement(obj) {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidData).
			Component(owner.String()).
			Path(pos).
			Detail("objects are not valid as children (%s)", obj.ClassName()).
			Build()
	}

	typ := obj.Get("type")
	props, _ := obj.Get("props").(*goja.Object)
	if props == nil {
		props = e.vm.NewObject()
	}

	if t, ok := typ.(*goja.Object); ok {
		switch {
		case t.SameAs(e.markers.fragment):
			return e.walkChildren(props, owner, pos)
		case t.SameAs(e.markers.component), t.SameAs(e.markers.widget):
			return e.boundaryElement(props, props.Get("src"), owner, e.instanceKey(owner, obj.Get("key"), pos))
		case e.hasSymbol(t, e.markers.boundary):
			return e.boundaryElement(props, t.Get("src"), owner, e.instanceKey(owner, obj.Get("key"), pos))
		}
		if fn, ok := goja.AssertFunction(t); ok {
			return e.callComponent(fn, props, owner, e.instanceKey(owner, obj.Get("key"), pos))
		}
	}
	if goja.IsUndefined(typ) || goja.IsNull(typ) {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidData).
			Component(owner.String()).
			Path(pos).
			Detail("element type is %s", typ).
			Build()
	}
	return e.hostElement(typ.String(), props, owner, pos)
}

// instanceKey picks the key of a component instance under owner. A missing
// or empty key falls back to the position. A key already taken under owner
// in this render gets a #n suffix; escaped keys never contain '#', so the
// suffixed form cannot collide with another user key.
func (e *Engine) instanceKey(owner component.ID, k goja.Value, pos string) string {
	key := pos
	if k != nil && !goja.IsNull(k) && !goja.IsUndefined(k) {
		if s := k.String(); s != "" {
			key = component.EscapeKey(s)
		}
	}

	scope := owner.String() + component.IDDelimiter + key
	n := e.keys[scope]
	e.keys[scope] = n + 1
	if n == 0 {
		return key
	}
	e.logger.Debug("duplicate component key",
		zap.String("owner", owner.String()),
		zap.String("key", key))
	return key + "#" + strconv.Itoa(n)
}

func (e *Engine) walkList(arr *goja.Object, owner component.ID, pos string) ([]*vdom.Element, error) {
	var out []*vdom.Element
	n := arr.Get("length").ToInteger()
	for i := int64(0); i < n; i++ {
		k := strconv.FormatInt(i, 10)
		els, err := e.walk(arr.Get(k), owner, pos+"."+k)
		if err != nil {
			return nil, err
		}
		out = append(out, els...)
	}
	return out, nil
}

// walkChildren walks props.children, treating a single child as a list of
// one so positions do not shift when children are added.
func (e *Engine) walkChildren(props *goja.Object, owner component.ID, pos string) ([]*vdom.Element, error) {
	c := props.Get("children")
	if obj, ok := c.(*goja.Object); ok && obj.ClassName() == "Array" {
		return e.walkList(obj, owner, pos)
	}
	return e.walk(c, owner, pos+".0")
}

func (e *Engine) hostElement(typ string, props *goja.Object, owner component.ID, pos string) ([]*vdom.Element, error) {
	var goProps map[string]any
	for _, k := range props.Keys() {
		if k == "children" {
			continue
		}
		v, err := e.toGo(props.Get(k), owner, pos+"."+k, 0)
		if err != nil {
			return nil, err
		}
		if goProps == nil {
			goProps = make(map[string]any)
		}
		goProps[k] = v
	}
	children, err := e.walkChildren(props, owner, pos)
	if err != nil {
		return nil, err
	}
	return []*vdom.Element{vdom.NewElement(typ, goProps, children...)}, nil
}

// boundaryElement emits the placeholder of an isolated descendant.
func (e *Engine) boundaryElement(props *goja.Object, src goja.Value, owner component.ID, key string) ([]*vdom.Element, error) {
	if src == nil || goja.IsUndefined(src) {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Component(owner.String()).
			Detail("component element without src").
			Build()
	}
	path, err := component.ParsePath(src.String())
	if err != nil {
		return nil, err
	}
	id := owner.Child(path, key)

	ref := &vdom.ComponentRef{ID: id, Path: path, Trust: e.trustOf(props.Get("trust"))}
	for _, k := range props.Keys() {
		if k == "src" || k == "trust" {
			continue
		}
		v, err := e.toGo(props.Get(k), owner, "props."+k, 0)
		if err != nil {
			return nil, err
		}
		if ref.Props == nil {
			ref.Props = make(map[string]any)
		}
		ref.Props[k] = v
	}
	return []*vdom.Element{vdom.NewComponent(ref)}, nil
}

// trustOf reads a trust prop given as "mode" or { mode: "mode" }.
func (e *Engine) trustOf(v goja.Value) component.TrustMode {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return component.TrustUnset
	}
	if obj, ok := v.(*goja.Object); ok {
		v = obj.Get("mode")
		if v == nil || goja.IsUndefined(v) {
			return component.TrustUnset
		}
	}
	mode, err := component.ParseTrustMode(v.String())
	if err != nil {
		e.logger.Debug("ignoring trust annotation", zap.Error(err))
		return component.TrustUnset
	}
	return mode
}

// callComponent renders an inlined function component and walks its output
// as the instance it entered.
func (e *Engine) callComponent(fn goja.Callable, props *goja.Object, owner component.ID, key string) ([]*vdom.Element, error) {
	prev := e.frame
	f := &frame{parent: owner, key: key}
	e.frame = f
	ret, err := fn(goja.Undefined(), props)
	e.frame = prev
	if err != nil {
		return nil, err
	}
	if !f.entered {
		return e.walk(ret, owner, key)
	}
	return e.walk(ret, f.id, "0")
}

func (e *Engine) isElement(obj *goja.Object) bool {
	return e.hasSymbol(obj, e.markers.element)
}

func (e *Engine) hasSymbol(obj *goja.Object, sym *goja.Symbol) bool {
	v := obj.GetSymbol(sym)
	return v != nil && v.ToBoolean()
}
