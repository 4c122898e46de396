package codegen

import (
	"strconv"
	"strings"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
)

// Runtime names every generated function relies on.
const (
	RuntimeObject = "__bwe"
	InstanceVar   = "__cid"
)

// Injection binds Name to Expr at the top of a generated function.
type Injection struct {
	Name string
	Expr string
}

// Function is one component compiled into a named function.
type Function struct {
	Name string
	Path component.Path
	// Export is the component's exported binding, called with the
	// function's props after the body. Empty for body-style components.
	Export     string
	Body       string
	Params     []string
	Injections []Injection
}

// Module is an ordered set of generated functions. The first one is the
// entry point.
type Module struct {
	byName    map[string]*Function
	Prelude   []string
	Functions []*Function
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{byName: make(map[string]*Function)}
}

// Add appends fn. Adding a function whose name is taken by another path
// fails; adding the same path twice is a no-op.
func (m *Module) Add(fn *Function) error {
	if m.byName == nil {
		m.byName = make(map[string]*Function)
	}
	if prev, ok := m.byName[fn.Name]; ok {
		if prev.Path == fn.Path {
			return nil
		}
		return errors.DuplicateName(fn.Name, string(prev.Path), string(fn.Path))
	}
	m.byName[fn.Name] = fn
	m.Functions = append(m.Functions, fn)
	return nil
}

// AddPrelude records helper code emitted before the functions. Identical
// snippets are emitted once.
func (m *Module) AddPrelude(code string) {
	code = strings.TrimSpace(code)
	if code == "" {
		return
	}
	for _, p := range m.Prelude {
		if p == code {
			return
		}
	}
	m.Prelude = append(m.Prelude, code)
}

// Entry returns the first function, or nil for an empty module.
func (m *Module) Entry() *Function {
	if len(m.Functions) == 0 {
		return nil
	}
	return m.Functions[0]
}

// Lookup returns the function with the given name.
func (m *Module) Lookup(name string) (*Function, bool) {
	fn, ok := m.byName[name]
	return fn, ok
}

// Names returns the function names in emission order.
func (m *Module) Names() []string {
	out := make([]string, len(m.Functions))
	for i, fn := range m.Functions {
		out[i] = fn.Name
	}
	return out
}

// Paths returns the component paths in emission order.
func (m *Module) Paths() []component.Path {
	out := make([]component.Path, len(m.Functions))
	for i, fn := range m.Functions {
		out[i] = fn.Path
	}
	return out
}

// FunctionName derives the generated function name of a component path.
// Distinct paths may collide after sanitizing; Module.Add rejects that.
func FunctionName(p component.Path) string {
	return "C_" + sanitize(p.Author()) + "__" + sanitize(p.Name())
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '$':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// StateShim returns the injections that scope hook state to the instance
// entering the function for path.
func StateShim(p component.Path) []Injection {
	return []Injection{
		{Name: InstanceVar, Expr: RuntimeObject + ".enter(" + strconv.Quote(string(p)) + ", props)"},
		{Name: "useState", Expr: "(initial) => " + RuntimeObject + ".useState(" + InstanceVar + ", initial)"},
		{Name: "useEffect", Expr: "(fn, deps) => " + RuntimeObject + ".useEffect(" + InstanceVar + ", fn, deps)"},
		{Name: "Host", Expr: RuntimeObject + ".host"},
	}
}

// RequireInjection binds local to an export of a shared package. imported
// is "default", "*" for the whole namespace, or a named export.
func RequireInjection(pkg, imported, local string) Injection {
	expr := RuntimeObject + ".require(" + strconv.Quote(pkg) + ")"
	switch imported {
	case "*":
	case "default":
		expr += ".default"
	default:
		expr += "." + imported
	}
	return Injection{Name: local, Expr: expr}
}
