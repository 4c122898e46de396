// Package codegen holds the intermediate form of a compiled module and
// emits it as JavaScript.
//
// A Module is a list of Functions, one per component compiled into the
// boundary. Each Function lists the bindings injected at its top (the
// instance's hook state, the host table, shared package imports), the
// component body, and the exported binding to call. The module's structure
// can be inspected and tested without evaluating the emitted code.
//
// The emitted form of a function for alice/Hello:
//
//	function C_alice__Hello(props) {
//	  const __cid = __bwe.enter("alice/Hello", props);
//	  const useState = (initial) => __bwe.useState(__cid, initial);
//	  ...
//	  function Hello(props) { ... }
//	  return Hello(props);
//	}
//
// The module ends with __bwe.entry(<first function>), naming the function
// the boundary renders.
package codegen
