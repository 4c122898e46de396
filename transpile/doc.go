// Package transpile lowers a component body from JSX to JavaScript and
// rewrites its render sites.
//
// The body is wrapped in a function before esbuild sees it, so that
// body-style components with a top-level return are valid input. JSX is
// lowered to createNode(type, props, ...children) calls.
//
// A render site is a createNode call whose type is the local binding of an
// imported component, or the Widget global with a string-literal src prop.
// Each site carries the trust annotation found in its literal trust prop.
// References to an imported binding that is redeclared in an inner scope
// (variable, function, parameter, catch clause) are not sites; member
// accesses and property keys are never touched.
//
// Rewrite applies the compiler's decision per site:
//
//	createNode(World, { name })                         // source
//	createNode(C_bob__World, { name })                  // inlined
//	createNode(Component, { name, src: "bob/World" })   // own boundary
//
// Other references to an imported component become the inlined function
// name, or a __bwe.boundary("author/Name") value for isolated ones.
package transpile
