// Package runtime runs compiled components inside isolation boundaries.
//
// # Quick Start
//
//	b, err := runtime.New(runtime.Config{
//	    ComponentID: component.NewRootID("alice/Hello"),
//	    Source:      res.Source, // from compiler.Compile
//	    Props:       map[string]any{"name": "World"},
//	    Engine:      engine.New(engine.Options{}),
//	    Outbox:      host.Deliver,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	b.Post(&protocol.Update{Props: map[string]any{"name": "Go"}})
//
// # Boundaries
//
// A Boundary owns one Engine, an inbox, a state store and the callback and
// pending-request tables. Nothing else touches them: every inbound message
// is handled on the boundary's loop goroutine, one at a time, and the loop
// is the only place the engine runs.
//
//	Uninitialized -> Rendering -> Idle -> Rendering -> Idle ...
//
// Start loads the module and commits the first render. Each commit
// serializes the tree and sends a component.render message through the
// Outbox. Descendant components that were not inlined appear as
// placeholders with their metadata in the message.
//
// # Messages
//
//	component.update               merge props, re-render only on change
//	component.callbackInvocation   invoke and answer by request id
//	component.callbackResponse     settle a pending request
//	component.domCallback          invoke, never answer
//
// An invocation targeting protocol.NoContainer is handed back to the host,
// which serves it from its HostRegistry. Errors raised by callbacks are
// sent as the response's error field and never stop the loop. A response
// for an unknown request id is logged and dropped.
//
// Requests that never receive a response stay pending; there is no
// timeout.
//
// # Host Methods
//
// The host method table is a HostRegistry:
//
//	reg := runtime.NewHostRegistry()
//	reg.RegisterFunc("clock", "now", func() int64 { return time.Now().Unix() })
//	reg.RegisterHost(&StorageHost{}) // storage.get, storage.set, ...
//
// Exported methods of a Host are registered in kebab-case. Functions may
// take a context.Context and a Caller before their wire arguments.
package runtime
