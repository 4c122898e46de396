package protocol

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/wippyai/component-runtime/component"
)

// MountPrefix prefixes the DOM id of a placeholder's mount point.
const MountPrefix = "dom-"

const (
	placeholderType = "div"
	placeholderSrc  = "data-component-src"
)

// Node is the wire form of one rendered element. Children hold either
// strings (text) or *Node.
type Node struct {
	Props    map[string]any `json:"props,omitempty"`
	Type     string         `json:"type"`
	Children []any          `json:"children,omitempty"`
}

// Placeholder returns the mount point for a descendant rendered in its own
// boundary.
func Placeholder(componentID string, src component.Path) *Node {
	return &Node{
		Type: placeholderType,
		Props: map[string]any{
			"id":           MountPrefix + componentID,
			placeholderSrc: string(src),
		},
	}
}

// PlaceholderID returns the component id a placeholder mounts, if n is one.
func PlaceholderID(n *Node) (string, bool) {
	if n == nil || n.Type != placeholderType {
		return "", false
	}
	if _, ok := n.Props[placeholderSrc]; !ok {
		return "", false
	}
	id, _ := n.Props["id"].(string)
	if !strings.HasPrefix(id, MountPrefix) {
		return "", false
	}
	return strings.TrimPrefix(id, MountPrefix), true
}

// UnmarshalJSON restores *Node children, which plain decoding would leave
// as maps.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		Props    map[string]any    `json:"props"`
		Type     string            `json:"type"`
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	n.Type = raw.Type
	n.Props = raw.Props
	n.Children = nil
	for _, c := range raw.Children {
		c = bytes.TrimSpace(c)
		if len(c) > 0 && c[0] == '"' {
			var s string
			if err := json.Unmarshal(c, &s); err != nil {
				return err
			}
			n.Children = append(n.Children, s)
			continue
		}
		child := &Node{}
		if err := json.Unmarshal(c, child); err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

// Walk visits n and every descendant node depth-first.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		if child, ok := c.(*Node); ok {
			child.Walk(fn)
		}
	}
}
