package serialize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/wippyai/component-runtime/callback"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/protocol"
	"github.com/wippyai/component-runtime/vdom"
)

// Reserved keys of the wire forms for callbacks and nodes. A plain map
// whose only key is reserved is wrapped as {EscapeKey: map} so it does not
// decode as a wire form.
const (
	CallbackKey = "$callback"
	NodeKey     = "$node"
	EscapeKey   = "$escape"
)

// Emitter sends an outgoing callback invocation toward the host.
type Emitter func(*protocol.CallbackInvocation) error

// Config wires a Serializer to its boundary's tables.
type Config struct {
	// Callbacks receives every function serialized by this boundary.
	Callbacks *callback.Table
	// Requests and Emit back the stubs built for foreign tokens. Without
	// them foreign tokens deserialize to their plain string.
	Requests *callback.Requests
	Emit     Emitter
}

// Serializer converts values crossing one boundary's edge.
type Serializer struct {
	callbacks  *callback.Table
	requests   *callback.Requests
	emit       Emitter
	boundaryID string
}

// New creates a serializer for the boundary identified by boundaryID.
func New(boundaryID string, cfg Config) *Serializer {
	return &Serializer{
		boundaryID: boundaryID,
		callbacks:  cfg.Callbacks,
		requests:   cfg.Requests,
		emit:       cfg.Emit,
	}
}

// BoundaryID returns the boundary this serializer belongs to.
func (s *Serializer) BoundaryID() string {
	return s.boundaryID
}

// pass carries per-call state: the component instance whose values are
// being serialized and the descendants collected along the way.
type pass struct {
	componentID string
	children    []protocol.ChildMetadata
}

// SerializeProps converts props to wire form. componentID scopes the
// callback tokens and may be empty.
func (s *Serializer) SerializeProps(props map[string]any, componentID string) (map[string]any, error) {
	p := &pass{componentID: componentID}
	out, err := s.serializeMap(p, props, nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SerializeArgs converts a free-standing argument list to wire form.
// Event-like arguments are reduced to their safe subset first.
func (s *Serializer) SerializeArgs(args []any, componentID string) ([]any, error) {
	p := &pass{componentID: componentID}
	out := make([]any, len(args))
	for i, a := range args {
		v, err := s.serializeValue(p, SanitizeEvent(a), []string{"args", strconv.Itoa(i)})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// SerializeValue converts a single value, such as a callback result.
func (s *Serializer) SerializeValue(v any, componentID string) (any, error) {
	return s.serializeValue(&pass{componentID: componentID}, v, []string{"result"})
}

// SerializeNode converts a committed render tree. Descendant component
// markers become placeholders, described by the returned metadata in
// first-seen order.
func (s *Serializer) SerializeNode(el *vdom.Element, componentID string) (*protocol.Node, []protocol.ChildMetadata, error) {
	p := &pass{componentID: componentID}
	child, err := s.serializeElement(p, el, nil)
	if err != nil {
		return nil, nil, err
	}

	node, ok := child.(*protocol.Node)
	if !ok {
		// a bare text root is wrapped so the host always mounts a node
		node = &protocol.Node{Type: "span", Children: []any{child}}
	}
	return node, p.children, nil
}

func (s *Serializer) serializeElement(p *pass, el *vdom.Element, pos []string) (any, error) {
	if el == nil {
		return nil, nil
	}
	if el.IsText {
		return el.Text, nil
	}

	if ref := el.Component; ref != nil {
		id := ref.ID.String()
		props, err := s.serializeMap(&pass{componentID: id}, ref.Props, []string{"props"})
		if err != nil {
			return nil, err
		}
		p.children = append(p.children, protocol.ChildMetadata{
			ComponentID: id,
			Props:       props,
			Source:      ref.Path,
			Trust:       ref.Trust,
		})
		return protocol.Placeholder(id, ref.Path), nil
	}

	node := &protocol.Node{Type: el.Type}
	if len(el.Props) > 0 {
		props, err := s.serializeMap(p, el.Props, pos)
		if err != nil {
			return nil, err
		}
		node.Props = props
	}
	for i, c := range el.Children {
		v, err := s.serializeElement(p, c, appendPath(pos, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		if v != nil {
			node.Children = append(node.Children, v)
		}
	}
	return node, nil
}

func (s *Serializer) serializeMap(p *pass, m map[string]any, path []string) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		sv, err := s.serializeValue(p, v, appendPath(path, k))
		if err != nil {
			return nil, err
		}
		out[k] = sv
	}
	return out, nil
}

func (s *Serializer) serializeValue(p *pass, v any, path []string) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return val, nil
	case vdom.Func:
		return map[string]any{CallbackKey: s.register(p, val, path)}, nil
	case func(args []any) (any, error):
		fn := &vdom.GoFunc{Fn: val, Src: fmt.Sprintf("go:%p", val)}
		return map[string]any{CallbackKey: s.register(p, fn, path)}, nil
	case *vdom.Element:
		n, err := s.serializeElement(p, val, path)
		if err != nil {
			return nil, err
		}
		return map[string]any{NodeKey: n}, nil
	case []*vdom.Element:
		out := make([]any, 0, len(val))
		for i, el := range val {
			n, err := s.serializeElement(p, el, appendPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out = append(out, map[string]any{NodeKey: n})
		}
		return out, nil
	case map[string]any:
		out, err := s.serializeMap(p, val, path)
		if err != nil || !reserved(out) {
			return out, err
		}
		return map[string]any{EscapeKey: out}, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			sv, err := s.serializeValue(p, item, appendPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return out, nil
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return nil, errors.New(errors.PhaseSerialize, errors.KindUnsupported).
			Component(p.componentID).
			Path(path...).
			Detail("cannot serialize %T", v).
			Build()
	}
	// structs, typed slices and maps are left for the JSON codec
	return v, nil
}

// register stores fn in the callback table under a token that is stable for
// the same boundary, function source, prop path and component instance.
func (s *Serializer) register(p *pass, fn vdom.Func, path []string) string {
	name := strings.Join(path, ".")
	method := protocol.Method{
		BoundaryID:  s.boundaryID,
		Hash:        CallbackHash(s.boundaryID, fn.Source(), name, p.componentID),
		Name:        name,
		ComponentID: p.componentID,
	}
	token := method.String()
	if s.callbacks != nil {
		s.callbacks.Register(token, p.componentID, fn)
	}
	return token
}

// CallbackHash derives the identity segment of a callback token.
func CallbackHash(boundaryID, source, propPath, componentID string) string {
	d := xxhash.New()
	for _, part := range []string{boundaryID, source, propPath, componentID} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 36)
}

// reserved reports whether m has the shape of a wire form.
func reserved(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == CallbackKey || k == NodeKey || k == EscapeKey
	}
	return false
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}
