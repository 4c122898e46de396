package mount

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wippyai/component-runtime/protocol"
	"github.com/wippyai/component-runtime/serialize"
)

// Markup prints n as compact HTML. Callback props print as bare attribute
// names.
func Markup(n *protocol.Node) string {
	var b strings.Builder
	writeMarkup(&b, n)
	return b.String()
}

func writeMarkup(b *strings.Builder, n *protocol.Node) {
	if n == nil {
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Type)
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		if _, ok := callbackOf(n.Props[k]); ok {
			continue
		}
		b.WriteString("=")
		b.WriteString(attr(n.Props[k]))
	}
	b.WriteByte('>')
	for _, c := range n.Children {
		switch v := c.(type) {
		case *protocol.Node:
			writeMarkup(b, v)
		default:
			fmt.Fprint(b, v)
		}
	}
	b.WriteString("</")
	b.WriteString(n.Type)
	b.WriteByte('>')
}

func attr(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return fmt.Sprintf("%q", data)
}

// Text returns the concatenated text of n.
func Text(n *protocol.Node) string {
	var b strings.Builder
	n.Walk(func(x *protocol.Node) bool {
		for _, c := range x.Children {
			if s, ok := c.(string); ok {
				b.WriteString(s)
			}
		}
		return true
	})
	return b.String()
}

// Binding is one callback prop found in a tree.
type Binding struct {
	// Label is the element's text, for display.
	Label  string
	Type   string
	Prop   string
	Method string
}

// Bindings lists the callback props of n in document order.
func Bindings(n *protocol.Node) []Binding {
	var out []Binding
	n.Walk(func(x *protocol.Node) bool {
		keys := make([]string, 0, len(x.Props))
		for k := range x.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if method, ok := callbackOf(x.Props[k]); ok {
				out = append(out, Binding{Label: Text(x), Type: x.Type, Prop: k, Method: method})
			}
		}
		return true
	})
	return out
}

func callbackOf(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	method, ok := m[serialize.CallbackKey].(string)
	return method, ok
}
