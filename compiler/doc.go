// Package compiler turns a root component into one executable module.
//
// Compile fetches the root's source, strips its imports and export,
// lowers its JSX and wraps it in a generated function that scopes hook
// state to the rendering instance. What happens to descendants depends on
// trust:
//
//   - A root with no trust, or a sandboxed root, compiles to a single
//     function. Every render site gets a src prop naming its component, and
//     the host instantiates those as separate boundaries when it sees them.
//   - A trusted root inlines descendants whose render site is annotated
//     trusted. A trusted-author root also inlines unannotated descendants
//     by the root's author, at any depth. Inlined sites call the
//     descendant's generated function directly.
//
// The root function comes first in the module; inlined functions follow
// in depth-first, first-seen order, each path once.
//
// Sources and transpile results are cached per Compiler by path (and, for
// transpile results, by whether the path was the root). Caches can be
// shared through WithSourceCache and WithTranspileCache.
//
// A missing descendant source aborts only that branch: its sites fall back
// to separate boundaries and the error is reported in Result.Errors. A
// missing root, an unparseable export, a transpile error, or two paths that
// share a generated function name fail the whole compilation.
//
// Service adapts a Compiler to the init/execute request protocol spoken by
// a compiler worker.
package compiler
