// Package bridge is the host side of the component sandbox. It creates
// every boundary, owns the live set of mounted components and routes
// messages between boundaries, the host method table and a mount surface.
//
//	br, err := bridge.New(bridge.Config{
//	    Compiler: compiler.New(source.NewDirFetcher(root, nil)),
//	    Engines:  engine.Factory(engine.Options{}),
//	    Surface:  mount.NewMemory(),
//	    Host:     hosts,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer br.Close()
//
//	err = br.Mount(ctx, component.NewRootID(path), props, component.TrustSandboxed)
//
// # Routing
//
// All messages pass through one loop:
//
//	Render              -> surface.Mount, then child reconciliation
//	Update              -> boundary named by ComponentID
//	CallbackInvocation  -> host method table when TargetID is "__host__",
//	                       otherwise the boundary owning the method
//	CallbackResponse    -> boundary named by TargetID
//	DOMCallback         -> boundary owning the method
//
// A Render's child manifest drives lifecycle. A child seen for the first
// time is compiled and started in the background; a known child receives
// an Update with its new props; a child absent from its parent's latest
// manifest is unmounted together with its descendants. A child that fails
// to compile or start is reported with surface.Fail and leaves its
// siblings untouched.
package bridge
