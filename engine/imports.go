package engine

import (
	"sort"
	"sync"

	"github.com/dop251/goja"

	"github.com/wippyai/component-runtime/errors"
)

// ImportTable holds the JS sources of shared packages. Packages are
// CommonJS-style: they assign to module.exports or exports. Compiled
// programs are shared by every engine using the table.
type ImportTable struct {
	sources  map[string]string
	programs map[string]*goja.Program
	mu       sync.RWMutex
}

func NewImportTable() *ImportTable {
	return &ImportTable{
		sources:  make(map[string]string),
		programs: make(map[string]*goja.Program),
	}
}

// Register adds or replaces package name.
func (t *ImportTable) Register(name, source string) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseRuntime, "package name cannot be empty")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources[name] = source
	delete(t.programs, name)
	return nil
}

// Source returns the source of package name.
func (t *ImportTable) Source(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	src, ok := t.sources[name]
	return src, ok
}

// Names returns the registered packages, sorted.
func (t *ImportTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.sources))
	for name := range t.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *ImportTable) program(name string) (*goja.Program, error) {
	t.mu.RLock()
	prog, ok := t.programs[name]
	src, known := t.sources[name]
	t.mu.RUnlock()
	if ok {
		return prog, nil
	}
	if !known {
		return nil, errors.NotFound(errors.PhaseRuntime, "package", name)
	}

	prog, err := goja.Compile(name, "(function(module, exports) {\n"+src+"\n})", false)
	if err != nil {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidData).
			Component(name).
			Cause(err).
			Detail("compile package").
			Build()
	}
	t.mu.Lock()
	t.programs[name] = prog
	t.mu.Unlock()
	return prog, nil
}

// require(name) evaluates a package once per engine and returns its
// exports. Exports without a default gain one pointing at themselves.
func (e *Engine) require(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	if m, ok := e.modules[name]; ok {
		return m
	}
	if e.imports == nil {
		panic(e.vm.NewTypeError("cannot find package %q", name))
	}
	prog, err := e.imports.program(name)
	if err != nil {
		if _, known := e.imports.Source(name); !known {
			panic(e.vm.NewTypeError("cannot find package %q", name))
		}
		e.throw(err)
	}

	wrapper, err := e.vm.RunProgram(prog)
	if err != nil {
		e.throw(err)
	}
	fn, ok := goja.AssertFunction(wrapper)
	if !ok {
		panic(e.vm.NewTypeError("package %q did not compile to a function", name))
	}

	module := e.vm.NewObject()
	exports := e.vm.NewObject()
	_ = module.Set("exports", exports)
	// cyclic requires see the partial exports
	e.modules[name] = exports
	if _, err := fn(goja.Undefined(), module, exports); err != nil {
		delete(e.modules, name)
		e.throw(err)
	}

	out := module.Get("exports")
	if obj, ok := out.(*goja.Object); ok {
		if d := obj.Get("default"); d == nil || goja.IsUndefined(d) {
			_ = obj.Set("default", out)
		}
	}
	e.modules[name] = out
	return out
}
