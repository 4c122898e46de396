package mount

import (
	"github.com/wippyai/component-runtime/protocol"
)

// Surface is where the bridge puts boundary output. The bridge calls it
// from its own loop; implementations must not call back into the bridge
// synchronously.
type Surface interface {
	// Mount replaces the node rendered by componentID.
	Mount(componentID string, node *protocol.Node) error
	// Unmount removes the output of componentID.
	Unmount(componentID string) error
	// Fail shows that componentID could not be compiled or started.
	Fail(componentID string, err error) error
}

// DOMHandler receives DOM events raised on a surface. The bridge's
// DispatchDOMCallback satisfies it.
type DOMHandler func(method string, args []any) error

// Multi sends every call to each surface in order. The first error is
// returned after all surfaces have been called.
type Multi []Surface

func (m Multi) Mount(componentID string, node *protocol.Node) error {
	return m.each(func(s Surface) error { return s.Mount(componentID, node) })
}

func (m Multi) Unmount(componentID string) error {
	return m.each(func(s Surface) error { return s.Unmount(componentID) })
}

func (m Multi) Fail(componentID string, err error) error {
	return m.each(func(s Surface) error { return s.Fail(componentID, err) })
}

func (m Multi) each(fn func(Surface) error) error {
	var first error
	for _, s := range m {
		if err := fn(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}
