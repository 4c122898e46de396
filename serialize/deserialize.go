package serialize

import (
	"encoding/json"

	"github.com/wippyai/component-runtime/protocol"
	"github.com/wippyai/component-runtime/vdom"
)

// DeserializeProps reverses SerializeProps. Callback tokens become
// invokable functions and nodes become elements.
func (s *Serializer) DeserializeProps(wire map[string]any) map[string]any {
	if wire == nil {
		return nil
	}
	out := make(map[string]any, len(wire))
	for k, v := range wire {
		out[k] = s.DeserializeValue(v)
	}
	return out
}

// DeserializeArgs reverses SerializeArgs.
func (s *Serializer) DeserializeArgs(wire []any) []any {
	out := make([]any, len(wire))
	for i, v := range wire {
		out[i] = s.DeserializeValue(v)
	}
	return out
}

// DeserializeValue reverses a single serialized value.
func (s *Serializer) DeserializeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if inner, ok := val[EscapeKey].(map[string]any); ok && len(val) == 1 {
			return s.DeserializeProps(inner)
		}
		if token, ok := callbackToken(val); ok {
			return s.resolveCallback(token)
		}
		if n, ok := val[NodeKey]; ok && len(val) == 1 {
			if el := s.nodeToElement(n); el != nil {
				return el
			}
		}
		return s.DeserializeProps(val)
	case []any:
		return s.DeserializeArgs(val)
	default:
		return v
	}
}

// resolveCallback returns the local function for a token this boundary
// owns, or a stub that routes the call through the channel.
func (s *Serializer) resolveCallback(token string) any {
	if protocol.RouteOf(token) == s.boundaryID && s.callbacks != nil {
		if fn, ok := s.callbacks.Get(token); ok {
			return fn
		}
	}
	if s.requests == nil || s.emit == nil {
		return token
	}
	return &Stub{method: token, ser: s}
}

func callbackToken(m map[string]any) (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	token, ok := m[CallbackKey].(string)
	return token, ok
}

func (s *Serializer) nodeToElement(v any) *vdom.Element {
	var n *protocol.Node
	switch val := v.(type) {
	case *protocol.Node:
		n = val
	case string:
		return vdom.NewText(val)
	case map[string]any:
		data, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		n = &protocol.Node{}
		if err := json.Unmarshal(data, n); err != nil {
			return nil
		}
	default:
		return nil
	}
	if n == nil {
		return nil
	}

	el := &vdom.Element{Type: n.Type, Props: s.DeserializeProps(n.Props)}
	for _, c := range n.Children {
		if child := s.nodeToElement(c); child != nil {
			el.Children = append(el.Children, child)
		}
	}
	return el
}
