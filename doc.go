// Package componentruntime runs untrusted UI components inside isolation
// boundaries and composes their output into one page.
//
// Components are JSX modules addressed as author/Name. The compiler turns a
// root component into a self-contained module; each boundary runs one
// module in its own goja VM and talks to the rest of the page only through
// messages.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	componentruntime/    Root package (documentation only)
//	├── component/       Paths, instance ids and trust modes
//	├── source/          Fetching component sources (dir, fs, map)
//	├── syntax/          Module shape checks before compilation
//	├── parser/          Imports and child component sites of a module
//	├── transpile/       JSX to JavaScript via esbuild
//	├── trust/           Trust resolution along the component tree
//	├── codegen/         Emitted module layout and state shim
//	├── compiler/        Compiler and compiler service
//	├── protocol/        Messages, method tokens and placeholders
//	├── callback/        Callback tables and request tracking
//	├── serialize/       Props and args across the boundary
//	├── vdom/            Rendered element trees and diffing
//	├── engine/          goja execution of compiled modules
//	├── runtime/         Boundaries, state and host methods
//	├── bridge/          Routing between boundaries, host and surface
//	├── mount/           Surfaces that display rendered trees
//	├── storage/         sqlite-backed storage host methods
//	├── wallet/          Payload signing host methods
//	├── config/          viper-based configuration
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Mount a component into an in-memory surface:
//
//	br, err := bridge.New(bridge.Config{
//	    Compiler: compiler.New(source.NewDirFetcher("components", nil)),
//	    Engines:  engine.Factory(engine.Options{}),
//	    Surface:  mount.NewMemory(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer br.Close()
//
//	root := component.NewRootID("alice/Hello")
//	err = br.Mount(ctx, root, map[string]any{"name": "World"}, component.TrustUnset)
//
// # Host Methods
//
// Register Go methods that components reach through Host.call:
//
//	hosts := runtime.NewHostRegistry()
//	hosts.RegisterHost(storage.NewHost(store))
//
//	// in a component: Host.call("storage.get", "key").then(...)
//
// # Thread Safety
//
// Bridge and HostRegistry are safe for concurrent use. A boundary runs its
// VM on a single goroutine; everything else reaches it through Post.
package componentruntime
