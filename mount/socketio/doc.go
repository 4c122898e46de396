// Package socketio is a mount.Surface that forwards output to a page over
// socket.io.
//
// Mount, Unmount and Fail become the events component.mount,
// component.unmount and component.error. The page reports DOM events as
// component.domCallback with a {method, args} payload; OnDOMCallback
// routes them, typically into the bridge:
//
//	surface, err := socketio.Dial(ctx, socketio.Config{URL: "http://localhost:3000/socket.io/"}, logger)
//	br, err := bridge.New(bridge.Config{Surface: surface, ...})
//	surface.OnDOMCallback(br.DispatchDOMCallback)
package socketio
