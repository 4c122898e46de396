package serialize

import (
	"github.com/wippyai/component-runtime/protocol"
)

// Stub stands in for a function owned by another boundary. Calling it
// emits one callback invocation and returns the pending request.
type Stub struct {
	ser    *Serializer
	method string
}

// Method returns the token the stub invokes.
func (st *Stub) Method() string {
	return st.method
}

// Source identifies the stub by its token so that forwarding it again
// yields a stable token.
func (st *Stub) Source() string {
	return "stub:" + st.method
}

// Call serializes args, registers a request and emits the invocation. The
// returned *callback.Request settles when the owner responds.
func (st *Stub) Call(args []any) (any, error) {
	s := st.ser
	wire, err := s.SerializeArgs(args, "")
	if err != nil {
		return nil, err
	}

	req := s.requests.Create(st.method)
	inv := &protocol.CallbackInvocation{
		Originator: s.boundaryID,
		TargetID:   protocol.RouteOf(st.method),
		Method:     st.method,
		Args:       wire,
		RequestID:  req.ID,
	}
	if err := s.emit(inv); err != nil {
		_ = s.requests.Reject(req.ID, err)
		return nil, err
	}
	return req, nil
}
