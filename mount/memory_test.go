package mount

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/component-runtime/protocol"
	"github.com/wippyai/component-runtime/serialize"
)

func TestMemoryComposesPlaceholders(t *testing.T) {
	m := NewMemory()
	root := "alice/Page##root"
	child := "bob/World##0.1##alice/Page##root"
	broken := "carol/Gone##0.2##alice/Page##root"

	_ = m.Mount(root, &protocol.Node{Type: "main", Children: []any{
		"title",
		protocol.Placeholder(child, "bob/World"),
		protocol.Placeholder(broken, "carol/Gone"),
	}})
	_ = m.Mount(child, &protocol.Node{Type: "p", Children: []any{"world"}})
	_ = m.Fail(broken, fmt.Errorf("no source"))

	tree, ok := m.Tree(root)
	if !ok {
		t.Fatal("root not mounted")
	}
	want := `<main>title` +
		`<div data-component-src="bob/World" id="dom-` + child + `"><p>world</p></div>` +
		`<div data-component-src="carol/Gone" data-error="no source" id="dom-` + broken + `"></div>` +
		`</main>`
	if got := Markup(tree); got != want {
		t.Errorf("markup =\n%s\nwant\n%s", got, want)
	}
	if Text(tree) != "titleworld" {
		t.Errorf("text = %q", Text(tree))
	}

	// the stored node is not modified by composition
	n, _ := m.Node(root)
	if len(n.Children[1].(*protocol.Node).Children) != 0 {
		t.Error("Tree mutated the mounted node")
	}

	_ = m.Unmount(child)
	if diff := cmp.Diff([]string{root}, m.Mounted()); diff != "" {
		t.Errorf("mounted mismatch (-want +got):\n%s", diff)
	}
	if m.Err(broken) == nil {
		t.Error("failure should be kept until the component mounts")
	}
}

func TestMemorySelfReferenceTerminates(t *testing.T) {
	m := NewMemory()
	id := "a/Loop##root"
	_ = m.Mount(id, &protocol.Node{Type: "div", Children: []any{protocol.Placeholder(id, "a/Loop")}})
	if _, ok := m.Tree(id); !ok {
		t.Fatal("root not mounted")
	}
}

func TestMemoryWait(t *testing.T) {
	m := NewMemory()
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = m.Mount("x/Y##root", &protocol.Node{Type: "p"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := m.Wait(ctx, func(m *Memory) bool {
		_, ok := m.Node("x/Y##root")
		return ok
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Mounts() != 1 {
		t.Errorf("mounts = %d", m.Mounts())
	}

	short, cancel2 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel2()
	if err := m.Wait(short, func(*Memory) bool { return false }); err == nil {
		t.Error("Wait should stop with its context")
	}
}

func TestBindings(t *testing.T) {
	n := &protocol.Node{Type: "div", Children: []any{
		&protocol.Node{
			Type:     "button",
			Props:    map[string]any{"onClick": map[string]any{serialize.CallbackKey: "b::1::onClick"}, "title": "x"},
			Children: []any{"Add"},
		},
		&protocol.Node{
			Type:  "input",
			Props: map[string]any{"onInput": map[string]any{serialize.CallbackKey: "b::2::onInput"}},
		},
	}}
	want := []Binding{
		{Label: "Add", Type: "button", Prop: "onClick", Method: "b::1::onClick"},
		{Label: "", Type: "input", Prop: "onInput", Method: "b::2::onInput"},
	}
	if diff := cmp.Diff(want, Bindings(n)); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
	if got := Markup(n); got != `<div><button onClick title="x">Add</button><input onInput></input></div>` {
		t.Errorf("markup = %s", got)
	}
}

type failingSurface struct{ calls int }

func (f *failingSurface) Mount(string, *protocol.Node) error { f.calls++; return fmt.Errorf("down") }
func (f *failingSurface) Unmount(string) error               { f.calls++; return fmt.Errorf("down") }
func (f *failingSurface) Fail(string, error) error           { f.calls++; return fmt.Errorf("down") }

func TestMulti(t *testing.T) {
	broken := &failingSurface{}
	mem := NewMemory()
	s := Multi{broken, mem}

	if err := s.Mount("a/B##root", &protocol.Node{Type: "p"}); err == nil {
		t.Error("error from the first surface was lost")
	}
	if _, ok := mem.Node("a/B##root"); !ok {
		t.Error("later surface skipped after an error")
	}
	_ = s.Fail("a/C##root", fmt.Errorf("x"))
	_ = s.Unmount("a/B##root")
	if broken.calls != 3 || len(mem.Mounted()) != 0 {
		t.Errorf("calls = %d, mounted = %v", broken.calls, mem.Mounted())
	}
}
