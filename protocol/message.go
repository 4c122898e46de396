package protocol

import (
	"github.com/wippyai/component-runtime/component"
)

// Type tags a message on the wire.
type Type string

const (
	TypeRender             Type = "component.render"
	TypeUpdate             Type = "component.update"
	TypeCallbackInvocation Type = "component.callbackInvocation"
	TypeCallbackResponse   Type = "component.callbackResponse"
	TypeDOMCallback        Type = "component.domCallback"
)

// NoContainer is the invocation target that selects the host's own method
// table instead of a sibling boundary.
const NoContainer = "__host__"

// Message is the closed set of messages exchanged between boundaries and
// the host. Only the five types in this package implement it.
type Message interface {
	Type() Type
	message()
}

// Render carries a boundary's serialized output after a commit.
type Render struct {
	Node            *Node               `json:"node"`
	ComponentID     string              `json:"componentId"`
	ChildComponents []ChildMetadata     `json:"childComponents"`
	Trust           component.TrustMode `json:"trust"`
}

// Update pushes new props into an existing boundary.
type Update struct {
	Props       map[string]any `json:"props"`
	ComponentID string         `json:"componentId"`
}

// CallbackInvocation asks the boundary owning Method to invoke it.
// An empty RequestID means the caller does not want a response.
type CallbackInvocation struct {
	Originator string `json:"originator"`
	TargetID   string `json:"targetId"`
	Method     string `json:"method"`
	Args       []any  `json:"args"`
	RequestID  string `json:"requestId,omitempty"`
}

// CallbackResponse settles the CallbackRequest identified by RequestID in
// the boundary identified by TargetID.
type CallbackResponse struct {
	TargetID  string `json:"targetId"`
	RequestID string `json:"requestId"`
	Result    Result `json:"result"`
}

// DOMCallback is a fire-and-forget invocation raised by the mount surface.
type DOMCallback struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// Result is either a value or an error, never both.
type Result struct {
	Value any         `json:"value,omitempty"`
	Error *ErrorValue `json:"error,omitempty"`
}

// ErrorValue is the wire form of an error raised inside a boundary.
type ErrorValue struct {
	Message string `json:"message"`
}

func (*Render) Type() Type             { return TypeRender }
func (*Update) Type() Type             { return TypeUpdate }
func (*CallbackInvocation) Type() Type { return TypeCallbackInvocation }
func (*CallbackResponse) Type() Type   { return TypeCallbackResponse }
func (*DOMCallback) Type() Type        { return TypeDOMCallback }

func (*Render) message()             {}
func (*Update) message()             {}
func (*CallbackInvocation) message() {}
func (*CallbackResponse) message()   {}
func (*DOMCallback) message()        {}

// ChildMetadata describes one descendant component the host must mount in
// its own boundary.
type ChildMetadata struct {
	Props       map[string]any      `json:"props"`
	ComponentID string              `json:"componentId"`
	Source      component.Path      `json:"source"`
	Trust       component.TrustMode `json:"trust"`
}

// Handler receives each message kind. Dispatch calls exactly one method.
type Handler interface {
	HandleRender(*Render) error
	HandleUpdate(*Update) error
	HandleCallbackInvocation(*CallbackInvocation) error
	HandleCallbackResponse(*CallbackResponse) error
	HandleDOMCallback(*DOMCallback) error
}

// Dispatch routes m to the matching Handler method.
func Dispatch(m Message, h Handler) error {
	switch msg := m.(type) {
	case *Render:
		return h.HandleRender(msg)
	case *Update:
		return h.HandleUpdate(msg)
	case *CallbackInvocation:
		return h.HandleCallbackInvocation(msg)
	case *CallbackResponse:
		return h.HandleCallbackResponse(msg)
	case *DOMCallback:
		return h.HandleDOMCallback(msg)
	default:
		return unreachable(m)
	}
}
