// Package vdom defines the render tree a boundary engine produces before the
// commit hook serializes it for the host.
package vdom

import (
	"context"

	"github.com/wippyai/component-runtime/component"
)

// Element is one node of a boundary's internal render output. Exactly one
// of Text, Component or Type describes it.
type Element struct {
	Props     map[string]any
	Component *ComponentRef
	Type      string
	Text      string
	Children  []*Element
	IsText    bool
}

// ComponentRef marks a descendant that must be mounted in its own boundary.
type ComponentRef struct {
	Props map[string]any
	ID    component.ID
	Path  component.Path
	Trust component.TrustMode
}

// NewText returns a text element.
func NewText(s string) *Element {
	return &Element{Text: s, IsText: true}
}

// NewElement returns a host element.
func NewElement(typ string, props map[string]any, children ...*Element) *Element {
	return &Element{Type: typ, Props: props, Children: children}
}

// NewComponent returns a placeholder element for a descendant boundary.
func NewComponent(ref *ComponentRef) *Element {
	return &Element{Component: ref}
}

// Func is a function value owned by a boundary.
type Func interface {
	// Call invokes the function. The result may be an Awaitable.
	Call(args []any) (any, error)
	// Source identifies the function body. Repeated renders of the same
	// literal return the same source.
	Source() string
}

// Awaitable is a result that settles later, such as a pending
// cross-boundary call.
type Awaitable interface {
	OnSettle(fn func(value any, err error))
	Await(ctx context.Context) (any, error)
}

// GoFunc adapts a Go function to Func.
type GoFunc struct {
	Fn  func(args []any) (any, error)
	Src string
}

func (f *GoFunc) Call(args []any) (any, error) { return f.Fn(args) }
func (f *GoFunc) Source() string               { return f.Src }
