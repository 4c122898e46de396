package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/vdom"
)

// Engine executes one compiled module inside a boundary. A boundary calls
// its engine only from its own message loop.
type Engine interface {
	// Load evaluates the module source. The module's entry function is the
	// component rendered by Render.
	Load(ctx context.Context, source string, env Env) error
	// Render runs the entry function with props and returns the committed
	// tree.
	Render(props map[string]any) (*vdom.Element, error)
	Close() error
}

// Env is the boundary as seen from its engine.
type Env interface {
	// BoundaryID is the routing segment of every callback token minted by
	// this boundary.
	BoundaryID() string
	// ComponentID identifies the root instance.
	ComponentID() component.ID
	State() *StateStore
	// Invalidate schedules a re-render after the current message.
	Invalidate()
	// CallHost invokes a method of the host method table.
	CallHost(method string, args []any) (vdom.Awaitable, error)
	Logger() *zap.Logger
}

// EngineFactory creates a fresh engine for each boundary.
type EngineFactory func() Engine
