// Package engine runs compiled component modules on goja.
//
// Each boundary gets its own Engine and therefore its own goja.Runtime. The
// runtime is only touched from the boundary's message loop; promise jobs run
// when control returns from a script call.
//
// # Module Shape
//
// A module is the output of the compiler: one function per inlined
// component, followed by a call registering the entry function.
//
//	function C_alice__Hello(props) {
//	  const __cid = __bwe.enter("alice/Hello", props);
//	  const useState = (initial) => __bwe.useState(__cid, initial);
//	  return createNode("h1", null, "Hello, ", props.name);
//	}
//	__bwe.entry(C_alice__Hello);
//
// # Globals
//
//	createNode(type, props, ...children)  element factory
//	Fragment                              groups children without a node
//	Component, Widget                     isolated descendants, named by props.src
//	__bwe.enter(path, props)              instance id of the rendering component
//	__bwe.useState / __bwe.useEffect      hooks keyed by instance id
//	__bwe.host.call(method, ...args)      host method table, returns a promise
//	__bwe.require(name)                   package from the ImportTable
//	__bwe.boundary(path)                  type value of an isolated component
//	console.log/info/warn/error/debug     the boundary logger
//
// # Rendering
//
// Render calls the entry function and walks its result. Function-typed
// elements are inlined components: the walker calls them and their output
// becomes part of the same tree. Component, Widget and boundary-typed
// elements become vdom.ComponentRef placeholders whose ids derive from the
// rendering instance and the element's key or position.
//
// Script functions crossing into Go become vdom.Func values. A function
// returning a pending promise yields a vdom.Awaitable; Awaitables passed
// back into scripts become promises.
package engine
