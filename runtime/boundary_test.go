package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/component-runtime/callback"
	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/protocol"
	"github.com/wippyai/component-runtime/serialize"
	"github.com/wippyai/component-runtime/vdom"
)

type fakeEngine struct {
	env     Env
	render  func(env Env, props map[string]any) (*vdom.Element, error)
	loadErr error
	source  string
	closed  bool
}

func (e *fakeEngine) Load(_ context.Context, source string, env Env) error {
	e.env, e.source = env, source
	return e.loadErr
}

func (e *fakeEngine) Render(props map[string]any) (*vdom.Element, error) {
	return e.render(e.env, props)
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

type recorder chan protocol.Message

func (r recorder) outbox(m protocol.Message) error {
	r <- m
	return nil
}

func (r recorder) next(t *testing.T) protocol.Message {
	t.Helper()
	select {
	case m := <-r:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

// barrier posts a host-bound invocation and waits for its echo, proving
// every message posted before it was handled without output.
func (r recorder) barrier(t *testing.T, b *Boundary) {
	t.Helper()
	mark := &protocol.CallbackInvocation{TargetID: protocol.NoContainer, Method: "test.barrier"}
	if err := b.Post(mark); err != nil {
		t.Fatal(err)
	}
	if m := r.next(t); m != mark {
		t.Fatalf("got %T %+v before barrier", m, m)
	}
}

func startBoundary(t *testing.T, eng *fakeEngine, props map[string]any, opts ...Option) (*Boundary, recorder) {
	t.Helper()
	rec := make(recorder, 64)
	b, err := New(Config{
		ComponentID: component.NewRootID("alice/Hello"),
		Source:      "function C_alice__Hello(props) {}",
		Props:       props,
		Engine:      eng,
		Outbox:      rec.outbox,
	}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b, rec
}

func labelEngine() *fakeEngine {
	return &fakeEngine{render: func(_ Env, props map[string]any) (*vdom.Element, error) {
		label, _ := props["label"].(string)
		return vdom.NewElement("p", nil, vdom.NewText(label)), nil
	}}
}

func TestStartCommitsFirstRender(t *testing.T) {
	eng := labelEngine()
	b, rec := startBoundary(t, eng, map[string]any{"label": "hi"})

	r, ok := rec.next(t).(*protocol.Render)
	if !ok {
		t.Fatal("first message is not a render")
	}
	want := &protocol.Node{Type: "p", Children: []any{"hi"}}
	if diff := cmp.Diff(want, r.Node); diff != "" {
		t.Errorf("node mismatch (-want +got):\n%s", diff)
	}
	if r.ComponentID != "alice/Hello##root" {
		t.Errorf("ComponentID = %q", r.ComponentID)
	}
	if eng.source != "function C_alice__Hello(props) {}" {
		t.Errorf("engine loaded %q", eng.source)
	}
	if b.Status() != StatusIdle {
		t.Errorf("Status = %s", b.Status())
	}
}

func TestStartFailures(t *testing.T) {
	rec := make(recorder, 4)
	eng := &fakeEngine{loadErr: fmt.Errorf("syntax error")}
	b, err := New(Config{ComponentID: component.NewRootID("alice/Bad"), Engine: eng, Outbox: rec.outbox})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Start(context.Background()); err == nil {
		t.Fatal("Start should fail when the module does not load")
	}
	if b.Status() != StatusClosed {
		t.Errorf("Status = %s", b.Status())
	}

	if _, err := New(Config{ComponentID: component.NewRootID("alice/Bad"), Outbox: rec.outbox}); err == nil {
		t.Error("New without engine should fail")
	}
}

func TestIdenticalUpdateRendersOnce(t *testing.T) {
	b, rec := startBoundary(t, labelEngine(), map[string]any{"label": "a", "n": 1.0})
	rec.next(t)

	update := func() *protocol.Update {
		return &protocol.Update{ComponentID: "alice/Hello##root", Props: map[string]any{"label": "b"}}
	}
	_ = b.Post(update())
	_ = b.Post(update())
	_ = b.Post(&protocol.Update{Props: map[string]any{"n": 1.0}})

	r := rec.next(t).(*protocol.Render)
	if r.Node.Children[0] != "b" {
		t.Errorf("rendered %v", r.Node.Children)
	}
	rec.barrier(t, b)

	if b.Renders() != 2 {
		t.Errorf("Renders = %d, want 2", b.Renders())
	}
	if b.SkippedUpdates() != 2 {
		t.Errorf("SkippedUpdates = %d, want 2", b.SkippedUpdates())
	}
}

func TestUpdateMergesProps(t *testing.T) {
	var seen map[string]any
	eng := &fakeEngine{render: func(_ Env, props map[string]any) (*vdom.Element, error) {
		seen = props
		return vdom.NewElement("div", nil), nil
	}}
	b, rec := startBoundary(t, eng, map[string]any{"a": "1", "b": "2"})
	rec.next(t)

	_ = b.Post(&protocol.Update{Props: map[string]any{"b": "3"}})
	rec.next(t)
	rec.barrier(t, b)
	if diff := cmp.Diff(map[string]any{"a": "1", "b": "3"}, seen); diff != "" {
		t.Errorf("props mismatch (-want +got):\n%s", diff)
	}
}

func TestUnansweredRequestStaysPending(t *testing.T) {
	var calls int
	eng := &fakeEngine{render: func(_ Env, props map[string]any) (*vdom.Element, error) {
		if calls == 0 {
			calls++
			if _, err := props["onSave"].(vdom.Func).Call([]any{"draft"}); err != nil {
				return nil, err
			}
		}
		return vdom.NewElement("div", nil), nil
	}}
	token := protocol.Method{BoundaryID: "bob/Editor##root", Hash: "h1", Name: "onSave"}.String()
	ids := []string{"r1", "r2"}
	b, rec := startBoundary(t, eng, map[string]any{
		"onSave": map[string]any{serialize.CallbackKey: token},
	}, WithRequestIDs(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))

	inv, ok := rec.next(t).(*protocol.CallbackInvocation)
	if !ok {
		t.Fatal("expected the stub invocation first")
	}
	want := &protocol.CallbackInvocation{
		Originator: "alice/Hello##root",
		TargetID:   "bob/Editor##root",
		Method:     token,
		Args:       []any{"draft"},
		RequestID:  "r1",
	}
	if diff := cmp.Diff(want, inv); diff != "" {
		t.Errorf("invocation mismatch (-want +got):\n%s", diff)
	}
	rec.next(t) // render

	_ = b.Post(&protocol.CallbackResponse{TargetID: b.ID(), RequestID: "r9", Result: protocol.Result{Value: 1.0}})
	rec.barrier(t, b)
	if diff := cmp.Diff([]string{"r1"}, b.Pending()); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}
	if b.Status() == StatusClosed {
		t.Error("unknown response closed the boundary")
	}

	_ = b.Post(&protocol.CallbackResponse{TargetID: b.ID(), RequestID: "r1", Result: protocol.Result{Value: "saved"}})
	rec.barrier(t, b)
	if len(b.Pending()) != 0 {
		t.Errorf("pending = %v after response", b.Pending())
	}
}

func TestRemovedChildCallbacksAreDropped(t *testing.T) {
	root := component.NewRootID("alice/Hello")
	eng := &fakeEngine{render: func(_ Env, props map[string]any) (*vdom.Element, error) {
		el := vdom.NewElement("div", map[string]any{
			"onClick": &vdom.GoFunc{Fn: func([]any) (any, error) { return nil, nil }, Src: "onClick"},
		})
		if show, _ := props["show"].(bool); show {
			el.Children = append(el.Children, vdom.NewComponent(&vdom.ComponentRef{
				ID:    root.Child("bob/Row", "0.0"),
				Path:  "bob/Row",
				Props: map[string]any{"onPick": &vdom.GoFunc{Fn: func([]any) (any, error) { return nil, nil }, Src: "onPick"}},
			}))
		}
		return el, nil
	}}
	b, rec := startBoundary(t, eng, map[string]any{"show": true})
	if r := rec.next(t).(*protocol.Render); len(r.ChildComponents) != 1 {
		t.Fatalf("children = %+v", r.ChildComponents)
	}
	if n := b.Callbacks().Len(); n != 2 {
		t.Fatalf("callbacks = %d, want 2", n)
	}

	_ = b.Post(&protocol.Update{Props: map[string]any{"show": false}})
	rec.next(t)
	rec.barrier(t, b)
	if n := b.Callbacks().Len(); n != 1 {
		t.Errorf("callbacks after child removal = %d, want 1", n)
	}
}

// clickEngine renders a button whose handler is fn.
func clickEngine(fn func(args []any) (any, error)) *fakeEngine {
	return &fakeEngine{render: func(_ Env, _ map[string]any) (*vdom.Element, error) {
		return vdom.NewElement("button", map[string]any{
			"onClick": &vdom.GoFunc{Fn: fn, Src: "onClick"},
		}), nil
	}}
}

func clickToken(t *testing.T, rec recorder) string {
	t.Helper()
	r := rec.next(t).(*protocol.Render)
	ref, ok := r.Node.Props["onClick"].(map[string]any)
	if !ok {
		t.Fatalf("onClick not serialized as callback: %v", r.Node.Props)
	}
	return ref[serialize.CallbackKey].(string)
}

func TestCallbackInvocationResponses(t *testing.T) {
	fail := false
	b, rec := startBoundary(t, clickEngine(func(args []any) (any, error) {
		if fail {
			return nil, fmt.Errorf("boom")
		}
		return args[0].(string) + "!", nil
	}), nil)
	token := clickToken(t, rec)

	_ = b.Post(&protocol.CallbackInvocation{Originator: "bob/Parent##root", TargetID: b.ID(), Method: token, Args: []any{"hey"}, RequestID: "q1"})
	resp := rec.next(t).(*protocol.CallbackResponse)
	want := &protocol.CallbackResponse{TargetID: "bob/Parent##root", RequestID: "q1", Result: protocol.Result{Value: "hey!"}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	fail = true
	_ = b.Post(&protocol.CallbackInvocation{Originator: "bob/Parent##root", TargetID: b.ID(), Method: token, Args: []any{"x"}, RequestID: "q2"})
	resp = rec.next(t).(*protocol.CallbackResponse)
	if resp.Result.Error == nil || resp.Result.Error.Message != "boom" {
		t.Errorf("error result = %+v", resp.Result)
	}

	_ = b.Post(&protocol.CallbackInvocation{Originator: "bob/Parent##root", TargetID: b.ID(), Method: "alice/Hello##root::nope::x", RequestID: "q3"})
	resp = rec.next(t).(*protocol.CallbackResponse)
	if resp.Result.Error == nil {
		t.Error("unknown callback should produce an error response")
	}

	// without a request id nothing is sent back
	_ = b.Post(&protocol.CallbackInvocation{Originator: "bob/Parent##root", TargetID: b.ID(), Method: token, Args: []any{"x"}})
	rec.barrier(t, b)
}

func TestCallbackPanicBecomesError(t *testing.T) {
	b, rec := startBoundary(t, clickEngine(func([]any) (any, error) {
		panic("nil map")
	}), nil)
	token := clickToken(t, rec)

	_ = b.Post(&protocol.CallbackInvocation{Originator: "x", TargetID: b.ID(), Method: token, RequestID: "p1"})
	resp := rec.next(t).(*protocol.CallbackResponse)
	if resp.Result.Error == nil {
		t.Fatal("panic not reported")
	}
	if b.Status() == StatusClosed {
		t.Error("panic closed the boundary")
	}
}

func TestAsyncCallbackResult(t *testing.T) {
	reqs := callback.NewRequests(callback.WithIDGenerator(func() string { return "inner" }))
	pending := reqs.Create("slow")
	b, rec := startBoundary(t, clickEngine(func([]any) (any, error) {
		return pending, nil
	}), nil)
	token := clickToken(t, rec)

	_ = b.Post(&protocol.CallbackInvocation{Originator: "x", TargetID: b.ID(), Method: token, RequestID: "a1"})
	rec.barrier(t, b)

	_ = reqs.Resolve("inner", 42.0)
	resp := rec.next(t).(*protocol.CallbackResponse)
	if resp.RequestID != "a1" || resp.Result.Value != 42.0 {
		t.Errorf("response = %+v", resp)
	}
}

func TestDOMCallbackIsFireAndForget(t *testing.T) {
	var clicks []any
	fail := false
	b, rec := startBoundary(t, clickEngine(func(args []any) (any, error) {
		if fail {
			return nil, fmt.Errorf("handler failed")
		}
		clicks = append(clicks, args...)
		return "ignored", nil
	}), nil)
	token := clickToken(t, rec)

	event := map[string]any{
		"type":   "click",
		"target": map[string]any{"value": "v", "style": map[string]any{}},
	}
	_ = b.Post(&protocol.DOMCallback{Method: token, Args: []any{event}})
	rec.barrier(t, b)

	if len(clicks) != 1 {
		t.Fatalf("clicks = %v", clicks)
	}

	fail = true
	_ = b.Post(&protocol.DOMCallback{Method: token})
	_ = b.Post(&protocol.DOMCallback{Method: "alice/Hello##root::gone::x"})
	rec.barrier(t, b)
}

func TestNoContainerInvocationGoesToHost(t *testing.T) {
	b, rec := startBoundary(t, labelEngine(), nil)
	rec.next(t)

	inv := &protocol.CallbackInvocation{Originator: b.ID(), TargetID: protocol.NoContainer, Method: "storage.get", Args: []any{"k"}, RequestID: "h1"}
	_ = b.Post(inv)
	if got := rec.next(t); got != inv {
		t.Errorf("forwarded %+v", got)
	}
}

func TestStateAndHostCalls(t *testing.T) {
	var env Env
	eng := &fakeEngine{render: func(e Env, _ map[string]any) (*vdom.Element, error) {
		env = e
		id := e.ComponentID().String()
		count := e.State().Init(id, 0, 0.0).(float64)
		return vdom.NewElement("button", map[string]any{
			"onClick": &vdom.GoFunc{Src: "inc", Fn: func([]any) (any, error) {
				e.State().Set(id, 0, count+1)
				e.Invalidate()
				return nil, nil
			}},
		}, vdom.NewText(fmt.Sprint(count))), nil
	}}
	b, rec := startBoundary(t, eng, nil, WithRequestIDs(func() string { return "host-1" }))
	token := clickToken(t, rec)

	_ = b.Post(&protocol.DOMCallback{Method: token})
	r := rec.next(t).(*protocol.Render)
	if r.Node.Children[0] != "1" {
		t.Errorf("count = %v", r.Node.Children)
	}
	if v, ok := b.State().Get("alice/Hello##root", 0); !ok || v != 1.0 {
		t.Errorf("state = %v, %v", v, ok)
	}
	if _, ok := b.State().Get("alice/Hello##root", 5); ok {
		t.Error("unset slot reported as present")
	}

	aw, err := env.CallHost("storage.get", []any{"theme"})
	if err != nil {
		t.Fatal(err)
	}
	inv := rec.next(t).(*protocol.CallbackInvocation)
	if inv.TargetID != protocol.NoContainer || inv.RequestID != "host-1" || inv.Method != "storage.get" {
		t.Errorf("host invocation = %+v", inv)
	}
	_ = b.Post(&protocol.CallbackResponse{TargetID: b.ID(), RequestID: "host-1", Result: protocol.Result{Error: &protocol.ErrorValue{Message: "denied"}}})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = aw.Await(ctx)
	if !stderrors.Is(err, errors.New(errors.PhaseInvoke, errors.KindRemote).Build()) {
		t.Errorf("await error = %v", err)
	}
}

func TestClose(t *testing.T) {
	eng := labelEngine()
	b, rec := startBoundary(t, eng, nil)
	rec.next(t)

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if b.Status() != StatusClosed || !eng.closed {
		t.Errorf("status = %s, engine closed = %v", b.Status(), eng.closed)
	}
	if err := b.Post(&protocol.Update{}); err == nil {
		t.Error("Post after Close should fail")
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}
