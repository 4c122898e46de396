package runtime

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
)

// Host is a struct-based group of host methods.
// All exported methods (except Namespace) are registered under the namespace.
type Host interface {
	// Namespace returns the method prefix (e.g., "storage").
	Namespace() string
}

// ExplicitRegistrar allows hosts to provide exact method names
// when automatic PascalCase-to-kebab-case conversion doesn't apply.
type ExplicitRegistrar interface {
	Register() map[string]any
}

// Caller identifies the component whose boundary invoked a host method.
// A host function receives it when it declares a Caller parameter after
// the optional context.
type Caller struct {
	ComponentID string
	Path        component.Path
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	callerType  = reflect.TypeOf(Caller{})
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// HostRegistry is the host method table. Methods are addressed as
// "namespace.name" and are only reachable through the NoContainer target.
type HostRegistry struct {
	funcs map[string]map[string]*HostFunc
	mu    sync.RWMutex
}

// HostFunc is one registered host method. Its Go signature is
//
//	func([context.Context,] [Caller,] args...) [(T,)] [error]
//
// Wire arguments are converted to the declared parameter types.
type HostFunc struct {
	fn         reflect.Value
	params     []reflect.Type
	withCtx    bool
	withCaller bool
	hasValue   bool
	hasErr     bool
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		funcs: make(map[string]map[string]*HostFunc),
	}
}

func (r *HostRegistry) RegisterHost(h Host) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}

	if er, ok := h.(ExplicitRegistrar); ok {
		for name, handler := range er.Register() {
			if err := r.RegisterFunc(ns, name, handler); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(h)
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() || method.Name == "Namespace" {
			continue
		}
		if err := r.RegisterFunc(ns, toKebabCase(method.Name), rv.Method(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (r *HostRegistry) RegisterFunc(namespace, name string, fn any) error {
	if namespace == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}

	hf, err := newHostFunc(fn)
	if err != nil {
		return errors.Registration(errors.PhaseHost, namespace, name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]*HostFunc)
	}
	r.funcs[namespace][name] = hf
	return nil
}

func newHostFunc(fn any) (*HostFunc, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			Detail("handler must be a function, got %T", fn).
			Build()
	}
	rt := rv.Type()
	if rt.IsVariadic() {
		return nil, errors.Unsupported(errors.PhaseHost, "variadic host functions")
	}

	hf := &HostFunc{fn: rv}
	i := 0
	if i < rt.NumIn() && rt.In(i) == contextType {
		hf.withCtx = true
		i++
	}
	if i < rt.NumIn() && rt.In(i) == callerType {
		hf.withCaller = true
		i++
	}
	for ; i < rt.NumIn(); i++ {
		hf.params = append(hf.params, rt.In(i))
	}

	switch rt.NumOut() {
	case 0:
	case 1:
		if rt.Out(0) == errorType {
			hf.hasErr = true
		} else {
			hf.hasValue = true
		}
	case 2:
		if rt.Out(1) != errorType {
			return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
				Detail("second result must be error, got %s", rt.Out(1)).
				Build()
		}
		hf.hasValue, hf.hasErr = true, true
	default:
		return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			Detail("host functions return at most (value, error)").
			Build()
	}
	return hf, nil
}

// SplitMethod splits "namespace.name" at its last dot.
func SplitMethod(method string) (namespace, name string, ok bool) {
	i := strings.LastIndexByte(method, '.')
	if i <= 0 || i == len(method)-1 {
		return "", "", false
	}
	return method[:i], method[i+1:], true
}

// Lookup finds a method by its full name. Names registered with dots are
// found by trying every split point.
func (r *HostRegistry) Lookup(method string) (*HostFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := 0; i < len(method); i++ {
		if method[i] != '.' {
			continue
		}
		if hf, ok := r.funcs[method[:i]][method[i+1:]]; ok {
			return hf, true
		}
	}
	return nil, false
}

// Methods returns every registered "namespace.name", sorted.
func (r *HostRegistry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for ns, funcs := range r.funcs {
		for name := range funcs {
			out = append(out, ns+"."+name)
		}
	}
	sort.Strings(out)
	return out
}

// Invoke calls method with wire arguments on behalf of caller.
func (r *HostRegistry) Invoke(ctx context.Context, caller Caller, method string, args []any) (any, error) {
	hf, ok := r.Lookup(method)
	if !ok {
		return nil, errors.NotFound(errors.PhaseHost, "host method", method)
	}
	return hf.Call(ctx, caller, args)
}

// Call invokes the function. Missing trailing arguments are zero values.
func (hf *HostFunc) Call(ctx context.Context, caller Caller, args []any) (any, error) {
	if len(args) > len(hf.params) {
		return nil, errors.InvalidInput(errors.PhaseHost,
			"too many arguments: got "+strconv.Itoa(len(args))+", want "+strconv.Itoa(len(hf.params)))
	}

	in := make([]reflect.Value, 0, len(hf.params)+2)
	if hf.withCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	if hf.withCaller {
		in = append(in, reflect.ValueOf(caller))
	}
	for i, pt := range hf.params {
		if i >= len(args) {
			in = append(in, reflect.Zero(pt))
			continue
		}
		v, err := convertArg(args[i], pt)
		if err != nil {
			return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
				Path("args", strconv.Itoa(i)).
				Cause(err).
				Detail("cannot convert %T to %s", args[i], pt).
				Build()
		}
		in = append(in, v)
	}

	out := hf.fn.Call(in)

	var (
		value any
		err   error
	)
	if hf.hasValue {
		value = out[0].Interface()
	}
	if hf.hasErr {
		if e := out[len(out)-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
	}
	return value, err
}

func convertArg(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(pt), nil
	}
	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(pt) {
		return av, nil
	}
	// wire values are JSON-shaped; reshape them through the codec
	data, err := json.Marshal(arg)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(pt)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

// toKebabCase converts PascalCase to kebab-case.
// Handles acronyms: GetHTTPURL -> get-http-url
func toKebabCase(s string) string {
	if len(s) == 0 {
		return ""
	}

	runes := []rune(s)
	var result strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if unicode.IsUpper(r) {
			acronymEnd := i + 1
			for acronymEnd < len(runes) && unicode.IsUpper(runes[acronymEnd]) {
				acronymEnd++
			}

			if acronymEnd > i+1 {
				// Last uppercase before lowercase starts next word, not part of acronym
				if acronymEnd < len(runes) && unicode.IsLower(runes[acronymEnd]) {
					acronymEnd--
				}
			}

			if i > 0 {
				result.WriteByte('-')
			}

			for j := i; j < acronymEnd; j++ {
				result.WriteRune(unicode.ToLower(runes[j]))
			}
			i = acronymEnd - 1 // -1 because loop will increment
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
