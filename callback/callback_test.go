package callback

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/vdom"
)

func noop(src string) vdom.Func {
	return &vdom.GoFunc{Fn: func([]any) (any, error) { return nil, nil }, Src: src}
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	table.Register("b::h1::onClick", "alice/A##root", noop("a"))
	table.Register("b::h1::onClick", "alice/A##root", noop("a2"))
	table.Register("b::h2::onChange", "alice/B##0##alice/A##root", noop("b"))
	table.Register("b::h3::onPick", "alice/B##0##alice/A##root", noop("c"))

	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}
	fn, ok := table.Get("b::h1::onClick")
	if !ok {
		t.Fatal("registered callback not found")
	}
	if fn.Source() != "a2" {
		t.Errorf("re-registration kept %q", fn.Source())
	}

	if n := table.RemoveComponent("alice/B##0##alice/A##root"); n != 2 {
		t.Errorf("RemoveComponent removed %d", n)
	}
	if _, ok := table.Get("b::h2::onChange"); ok {
		t.Error("callback should be removed")
	}
	if _, ok := table.Get("b::h1::onClick"); !ok {
		t.Error("callback of another component removed")
	}
	if n := table.RemoveComponent("nobody"); n != 0 {
		t.Errorf("RemoveComponent(nobody) removed %d", n)
	}
}

func TestRequests_ResolveAndReject(t *testing.T) {
	reqs := NewRequests()

	ok := reqs.Create("b::h::onClick")
	bad := reqs.Create("b::h::onClick")
	if ok.ID == bad.ID {
		t.Fatal("request ids must be unique")
	}

	var settled []any
	ok.OnSettle(func(v any, err error) { settled = append(settled, v) })

	if err := reqs.Resolve(ok.ID, "done"); err != nil {
		t.Fatal(err)
	}
	if len(settled) != 1 || settled[0] != "done" {
		t.Fatalf("listener saw %v", settled)
	}

	boom := stderrors.New("boom")
	if err := reqs.Reject(bad.ID, boom); err != nil {
		t.Fatal(err)
	}
	if _, err := bad.Await(context.Background()); !stderrors.Is(err, boom) {
		t.Errorf("Await error = %v", err)
	}

	if reqs.Len() != 0 {
		t.Errorf("settled requests should be removed, %d left", reqs.Len())
	}
}

func TestRequests_UnknownAndDuplicateResponse(t *testing.T) {
	reqs := NewRequests()
	req := reqs.Create("m")

	if err := reqs.Resolve(req.ID, 1); err != nil {
		t.Fatal(err)
	}
	err := reqs.Resolve(req.ID, 2)
	if !stderrors.Is(err, errors.ErrUnknownRequest) {
		t.Fatalf("second response should be unknown, got %v", err)
	}
	v, _ := req.Await(context.Background())
	if v != 1 {
		t.Errorf("request re-settled to %v", v)
	}

	if err := reqs.Reject("never-created", stderrors.New("x")); !stderrors.Is(err, errors.ErrUnknownRequest) {
		t.Errorf("expected unknown request, got %v", err)
	}
}

func TestRequests_UnansweredStaysPending(t *testing.T) {
	reqs := NewRequests(WithIDGenerator(func() string { return "r1" }))
	req := reqs.Create("b::h::onClick")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := req.Await(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Await should time out via ctx only, got %v", err)
	}

	if got := reqs.Pending(); len(got) != 1 || got[0] != "r1" {
		t.Fatalf("Pending() = %v, want [r1]", got)
	}
	if req.Settled() {
		t.Error("unanswered request must not settle")
	}
}

func TestRequests_IDGenerator(t *testing.T) {
	n := 0
	reqs := NewRequests(WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("req-%d", n/3)
	}))
	a := reqs.Create("m")
	b := reqs.Create("m")
	if a.ID == b.ID {
		t.Fatalf("colliding generator output must be retried: %s %s", a.ID, b.ID)
	}
}

func TestRequest_OnSettleAfterSettle(t *testing.T) {
	req := newRequest("x", "m")
	req.Resolve(42)
	var got any
	req.OnSettle(func(v any, err error) { got = v })
	if got != 42 {
		t.Errorf("late listener got %v", got)
	}
	if req.Resolve(43) {
		t.Error("second Resolve should report false")
	}
	select {
	case <-req.Done():
	default:
		t.Error("Done should be closed")
	}
}

func TestRequest_OnSettleAndResult(t *testing.T) {
	r := NewRequest("local", "m")
	if v, err := r.Result(); v != nil || err != nil || r.Settled() {
		t.Fatalf("pending request has result %v, %v", v, err)
	}

	var got any
	r.OnSettle(func(v any, err error) {
		if err != nil {
			t.Errorf("unexpected rejection: %v", err)
		}
		got = v
	})
	r.Resolve("done")
	if got != "done" {
		t.Errorf("listener got %v", got)
	}
	if v, err := r.Result(); v != "done" || err != nil {
		t.Errorf("Result = %v, %v", v, err)
	}

	failed := NewRequest("local2", "m")
	var gotErr error
	failed.OnSettle(func(_ any, err error) { gotErr = err })
	failed.Reject(errors.Remote("nope"))
	if gotErr == nil {
		t.Error("rejection not delivered")
	}
}
