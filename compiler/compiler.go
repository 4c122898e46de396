package compiler

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/codegen"
	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/parser"
	"github.com/wippyai/component-runtime/source"
	"github.com/wippyai/component-runtime/transpile"
	"github.com/wippyai/component-runtime/trust"
)

// Request asks for the module of one root component.
type Request struct {
	// ComponentID is a component path or a full component id; only the
	// path selects the source.
	ComponentID string
	Trust       component.TrustMode
}

// ChildRef is a descendant rendered in its own boundary.
type ChildRef struct {
	Path   component.Path      `json:"path" yaml:"path"`
	Parent component.Path      `json:"parent" yaml:"parent"`
	Trust  component.TrustMode `json:"trust" yaml:"trust"`
}

// Result is a compiled module.
type Result struct {
	Module      *codegen.Module
	ComponentID string
	Path        component.Path
	// Source is the emitted JavaScript.
	Source string
	// Imports lists the shared package imports of every compiled function.
	Imports  []parser.ModuleImport
	Children []ChildRef
	// Errors holds descendants that could not be inlined, or is nil. Their
	// sites render as separate boundaries instead.
	Errors *errors.BranchErrors
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithSourceCache shares a source cache between compilers.
func WithSourceCache(c *source.Cache) Option {
	return func(comp *Compiler) {
		comp.sources = c
	}
}

// WithTranspileCache shares a transpile cache between compilers.
func WithTranspileCache(c *TranspileCache) Option {
	return func(comp *Compiler) {
		comp.units = c
	}
}

// WithLogger sets the logger used instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(comp *Compiler) {
		comp.logger = l
	}
}

// Compiler turns component sources into boundary modules. Its caches are
// private unless shared through options.
type Compiler struct {
	fetcher source.Fetcher
	sources *source.Cache
	units   *TranspileCache
	logger  *zap.Logger
}

// New creates a compiler that reads sources through fetcher.
func New(fetcher source.Fetcher, opts ...Option) *Compiler {
	c := &Compiler{fetcher: fetcher}
	for _, opt := range opts {
		opt(c)
	}
	if c.sources == nil {
		c.sources = source.NewCache()
	}
	if c.units == nil {
		c.units = NewTranspileCache()
	}
	if c.logger == nil {
		c.logger = Logger()
	}
	return c
}

// Reset clears the compiler's caches.
func (c *Compiler) Reset() {
	c.sources.Reset()
	c.units.Reset()
}

// compilation is the state of one Compile call.
type compilation struct {
	module   *codegen.Module
	result   *Result
	pred     trust.Predicate
	compiled map[component.Path]bool
	failed   map[component.Path]bool
	children map[ChildRef]bool
	imports  map[string]bool
}

// Compile builds the module for req. A sandboxed or unannotated root
// yields a single function; a trusted root inlines every descendant the
// trust rules allow. A missing root source, a transpile failure anywhere,
// or two paths sharing a generated name fail the compilation.
func (c *Compiler) Compile(ctx context.Context, req Request) (*Result, error) {
	id, err := component.ParseID(req.ComponentID)
	if err != nil {
		return nil, err
	}
	path := id.Path

	st := &compilation{
		module:   codegen.NewModule(),
		result:   &Result{ComponentID: req.ComponentID, Path: path},
		pred:     trust.RootPredicate(req.Trust, path),
		compiled: make(map[component.Path]bool),
		failed:   make(map[component.Path]bool),
		children: make(map[ChildRef]bool),
		imports:  make(map[string]bool),
	}

	if err := c.compile(ctx, st, path, true, trust.IsRootTrusted(req.Trust)); err != nil {
		return nil, err
	}

	st.result.Module = st.module
	st.result.Source = codegen.Emit(st.module)
	c.logger.Debug("compiled component",
		zap.String("component", req.ComponentID),
		zap.String("trust", req.Trust.String()),
		zap.Strings("functions", st.module.Names()),
		zap.Int("children", len(st.result.Children)),
		zap.Int("failed_branches", st.result.Errors.Len()))
	return st.result, nil
}

// compile adds the function for path and, when inlining is enabled,
// recurses into the descendants the trust predicate admits. The predicate
// in st is the root's and is never replaced.
func (c *Compiler) compile(ctx context.Context, st *compilation, path component.Path, isRoot, inlining bool) error {
	st.compiled[path] = true

	src, err := source.FetchOne(ctx, c.cachedFetcher(), path)
	if err != nil {
		if !stderrors.Is(err, errors.ErrComponentNotFound) {
			err = errors.ComponentNotFound(string(path), err)
		}
		return err
	}
	art, err := c.artifact(path, src, isRoot)
	if err != nil {
		return err
	}

	fn := &codegen.Function{
		Name:       codegen.FunctionName(path),
		Path:       path,
		Export:     art.Parsed.Export,
		Injections: c.injections(st, path, art.Parsed),
	}
	if err := st.module.Add(fn); err != nil {
		return err
	}
	st.module.AddPrelude(art.Unit.Prelude)

	inline := func(p component.Path, mode component.TrustMode) bool {
		return inlining && !st.failed[p] && trust.IsChildTrusted(mode, p, st.pred)
	}

	if inlining {
		for _, p := range descendants(art.Unit, inline) {
			if st.compiled[p] {
				continue
			}
			err := c.compile(ctx, st, p, false, true)
			if err == nil {
				continue
			}
			if !stderrors.Is(err, errors.ErrComponentNotFound) {
				return err
			}
			// the branch is dropped; its sites fall back to boundaries
			st.failed[p] = true
			if st.result.Errors == nil {
				st.result.Errors = &errors.BranchErrors{}
			}
			st.result.Errors.Add(string(p), err)
			c.logger.Warn("descendant not inlined",
				zap.String("component", string(path)),
				zap.String("child", string(p)),
				zap.Error(err))
		}
	}

	fn.Body = art.Unit.Rewrite(func(p component.Path, mode component.TrustMode) transpile.Target {
		if inline(p, mode) {
			return transpile.Target{Inline: true, Name: codegen.FunctionName(p)}
		}
		ref := ChildRef{Path: p, Parent: path, Trust: mode}
		if !st.children[ref] {
			st.children[ref] = true
			st.result.Children = append(st.result.Children, ref)
		}
		return transpile.Target{}
	})
	return nil
}

// descendants returns the distinct paths to inline, in first-seen order
// of their sites and then references.
func descendants(u *transpile.Unit, inline func(component.Path, component.TrustMode) bool) []component.Path {
	seen := make(map[component.Path]bool)
	var out []component.Path
	add := func(p component.Path, mode component.TrustMode) {
		if !seen[p] && inline(p, mode) {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, s := range u.Sites {
		add(s.Path, s.Trust)
	}
	for _, r := range u.Refs {
		add(r.Path, component.TrustUnset)
	}
	return out
}

func (c *Compiler) cachedFetcher() source.Fetcher {
	return &source.Cached{Fetcher: c.fetcher, Cache: c.sources}
}

// artifact parses and transpiles src, memoized by path and root-ness.
func (c *Compiler) artifact(path component.Path, src string, isRoot bool) (*Artifact, error) {
	if a, ok := c.units.Get(path, isRoot); ok {
		return a, nil
	}

	parsed, err := parser.Parse(src, path)
	if err != nil {
		return nil, err
	}
	if parsed.ImportErr != nil {
		c.logger.Warn("import extraction stopped early",
			zap.String("component", string(path)),
			zap.Error(parsed.ImportErr))
	}

	bindings := make(map[string]component.Path)
	for _, imp := range parsed.BoundaryImports() {
		for _, e := range imp.Imports {
			bindings[e.Local] = imp.ModulePath
		}
	}
	unit, err := transpile.Transpile(path, parsed.Source, bindings, isRoot)
	if err != nil {
		return nil, err
	}
	return c.units.Put(path, isRoot, &Artifact{Parsed: parsed, Unit: unit}), nil
}

// injections returns the state shim for path followed by its shared
// package imports. Imports shadowing a shim binding are dropped.
func (c *Compiler) injections(st *compilation, path component.Path, parsed *parser.Result) []codegen.Injection {
	out := codegen.StateShim(path)
	reserved := make(map[string]bool, len(out))
	for _, inj := range out {
		reserved[inj.Name] = true
	}

	for _, imp := range parsed.PackageImports() {
		if imp.IsRelative {
			// relative assets are not shared packages
			continue
		}
		if !st.imports[imp.ModuleName] {
			st.imports[imp.ModuleName] = true
			st.result.Imports = append(st.result.Imports, imp)
		}
		for _, e := range imp.Imports {
			if reserved[e.Local] {
				continue
			}
			out = append(out, codegen.RequireInjection(imp.ModuleName, e.Imported, e.Local))
		}
	}
	return out
}
