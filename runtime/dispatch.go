package runtime

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/protocol"
	"github.com/wippyai/component-runtime/vdom"
)

// dispatcher handles inbound messages on the boundary loop.
type dispatcher struct {
	b *Boundary
}

func (d dispatcher) HandleRender(m *protocol.Render) error {
	return errors.Unsupported(errors.PhaseProtocol, "render messages are sent by boundaries, not to them")
}

// HandleUpdate merges the incoming props over the current ones. Identical
// props are skipped so a parent re-render cannot loop.
func (d dispatcher) HandleUpdate(m *protocol.Update) error {
	b := d.b
	if m.ComponentID != "" && m.ComponentID != b.componentID.String() {
		return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Component(b.componentID.String()).
			Value(m.ComponentID).
			Detail("update addressed to %s", m.ComponentID).
			Build()
	}

	merged := maps.Clone(b.wireProps)
	maps.Copy(merged, m.Props)
	same, err := sameProps(merged, b.wireProps)
	if err != nil {
		return err
	}
	if same {
		b.skipped.Add(1)
		b.logger.Debug("update skipped, props unchanged")
		return nil
	}

	b.wireProps = merged
	b.props = b.ser.DeserializeProps(merged)
	b.dirty.Store(true)
	return nil
}

// sameProps compares wire props by their canonical JSON encoding. Callback
// tokens are stable, so re-serialized functions compare equal.
func sameProps(a, b map[string]any) (bool, error) {
	ja, err := json.Marshal(a)
	if err != nil {
		return false, errors.Wrap(errors.PhaseSerialize, errors.KindInvalidData, err, "encode props")
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false, errors.Wrap(errors.PhaseSerialize, errors.KindInvalidData, err, "encode props")
	}
	return bytes.Equal(ja, jb), nil
}

func (d dispatcher) HandleCallbackInvocation(m *protocol.CallbackInvocation) error {
	b := d.b
	if m.TargetID == protocol.NoContainer {
		// the host owns its method table; hand the call back unchanged
		return b.outbox(m)
	}

	result, err := b.invoke(m.Method, m.Args)
	if m.RequestID == "" {
		if err != nil {
			b.logger.Warn("callback failed",
				zap.String("method", m.Method),
				zap.Error(err))
		}
		return nil
	}
	if err != nil {
		return b.respond(m, nil, err)
	}
	if aw, ok := result.(vdom.Awaitable); ok {
		aw.OnSettle(func(v any, err error) {
			if rerr := b.respond(m, v, err); rerr != nil {
				b.logger.Warn("callback response not sent",
					zap.String("request_id", m.RequestID),
					zap.Error(rerr))
			}
		})
		return nil
	}
	return b.respond(m, result, nil)
}

// HandleCallbackResponse settles a pending request. Responses for unknown
// or settled requests are logged and dropped.
func (d dispatcher) HandleCallbackResponse(m *protocol.CallbackResponse) error {
	b := d.b
	var err error
	if m.Result.Error != nil {
		err = b.requests.Reject(m.RequestID, errors.Remote(m.Result.Error.Message))
	} else {
		err = b.requests.Resolve(m.RequestID, b.ser.DeserializeValue(m.Result.Value))
	}
	if stderrors.Is(err, errors.ErrUnknownRequest) {
		b.logger.Warn("response for unknown request dropped",
			zap.String("request_id", m.RequestID))
		return nil
	}
	return err
}

// HandleDOMCallback invokes a callback without replying. Failures are
// logged only.
func (d dispatcher) HandleDOMCallback(m *protocol.DOMCallback) error {
	b := d.b
	result, err := b.invoke(m.Method, m.Args)
	if err != nil {
		b.logger.Warn("dom callback failed",
			zap.String("method", m.Method),
			zap.Error(err))
		return nil
	}
	if aw, ok := result.(vdom.Awaitable); ok {
		aw.OnSettle(func(_ any, err error) {
			if err != nil {
				b.logger.Warn("dom callback rejected",
					zap.String("method", m.Method),
					zap.Error(err))
			}
		})
	}
	return nil
}

// invoke runs the callback registered under method. A panicking callback
// is reported as an error.
func (b *Boundary) invoke(method string, wireArgs []any) (result any, err error) {
	fn, ok := b.callbacks.Get(method)
	if !ok {
		return nil, errors.UnknownCallback(method)
	}
	args := b.ser.DeserializeArgs(wireArgs)

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("callback panicked: %v", r)
		}
	}()
	return fn.Call(args)
}

// respond answers an invocation. Errors travel as their message only.
func (b *Boundary) respond(m *protocol.CallbackInvocation, value any, callErr error) error {
	resp := &protocol.CallbackResponse{
		TargetID:  m.Originator,
		RequestID: m.RequestID,
	}
	if callErr == nil {
		wire, err := b.ser.SerializeValue(value, componentOf(m.Method))
		if err != nil {
			callErr = err
		} else {
			resp.Result.Value = wire
		}
	}
	if callErr != nil {
		b.logger.Warn("callback failed",
			zap.String("method", m.Method),
			zap.String("request_id", m.RequestID),
			zap.Error(callErr))
		resp.Result.Error = &protocol.ErrorValue{Message: callErr.Error()}
	}
	return b.outbox(resp)
}

func componentOf(method string) string {
	m, err := protocol.ParseMethod(method)
	if err != nil {
		return ""
	}
	return m.ComponentID
}
