// Package testbed runs components end to end: JSX sources go through the
// compiler, mount through the bridge into goja boundaries and render into
// an in-memory surface.
package testbed

import (
	"context"
	stderrors "errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wippyai/component-runtime/bridge"
	"github.com/wippyai/component-runtime/compiler"
	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/engine"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/mount"
	"github.com/wippyai/component-runtime/runtime"
	"github.com/wippyai/component-runtime/source"
	"github.com/wippyai/component-runtime/storage"
)

var shopSources = map[component.Path]string{
	"shop/Cart": `import Line from "component://shop/Line";
import Badge from "./Badge";

export default function Cart(props) {
  const [items, setItems] = useState(props.items);
  const [picked, setPicked] = useState("none");
  return (
    <div>
      <Badge count={items.length} trust={{ mode: "trusted" }} />
      {items.map((name) => <Line key={name} name={name} onPick={setPicked} />)}
      <button onClick={() => setItems(items.slice(1))}>drop</button>
      <p>picked {picked}</p>
    </div>
  );
}`,
	"shop/Line": `export default function Line(props) {
  return <button onClick={() => props.onPick(props.name)}>{props.name}</button>;
}`,
	"shop/Badge": `export default function Badge(props) {
  return <span>{props.count} items</span>;
}`,
	"shop/Broken": `import Nope from "component://shop/Nope";
import Badge from "component://shop/Badge";

export default function Broken() {
  return (
    <div>
      <Nope />
      <Badge count={0} />
      <p>still here</p>
    </div>
  );
}`,
	"notes/Pad": `export default function Pad() {
  const [text, setText] = useState("");
  useEffect(() => {
    Host.call("storage.get", "text").then((v) => setText(v || ""));
  }, []);
  const save = (e) => {
    setText(e.target.value);
    Host.call("storage.set", "text", e.target.value);
  };
  return (
    <div>
      <input onInput={save} />
      <p>saved: {text}</p>
    </div>
  );
}`,
	"alice/Poem": "export default function Poem() {\n" +
		"  const s = `line1\n  line2`;\n" +
		"  return <pre>{s}</pre>;\n" +
		"}",
}

type countingFetcher struct {
	inner source.Fetcher
	calls atomic.Int32
}

func (c *countingFetcher) Fetch(ctx context.Context, paths []component.Path) map[component.Path]source.Result {
	c.calls.Add(int32(len(paths)))
	return c.inner.Fetch(ctx, paths)
}

type testbed struct {
	br      *bridge.Bridge
	surface *mount.Memory
	fetcher *countingFetcher
}

func newTestbed(t *testing.T, hosts *runtime.HostRegistry) *testbed {
	t.Helper()
	tb := &testbed{
		surface: mount.NewMemory(),
		fetcher: &countingFetcher{inner: source.NewMapFetcher(shopSources)},
	}
	br, err := bridge.New(bridge.Config{
		Compiler: compiler.New(tb.fetcher),
		Engines:  engine.Factory(engine.Options{Timeout: 2 * time.Second}),
		Surface:  tb.surface,
		Host:     hosts,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = br.Close() })
	tb.br = br
	return tb
}

func (tb *testbed) mount(t *testing.T, path component.Path, props map[string]any, trust component.TrustMode) string {
	t.Helper()
	root := component.NewRootID(path)
	if err := tb.br.Mount(context.Background(), root, props, trust); err != nil {
		t.Fatal(err)
	}
	return root.String()
}

func (tb *testbed) waitFor(t *testing.T, root, what string, cond func(text string) bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := tb.surface.Wait(ctx, func(m *mount.Memory) bool {
		tree, ok := m.Tree(root)
		return ok && cond(mount.Text(tree))
	})
	if err != nil {
		tree, _ := tb.surface.Tree(root)
		t.Fatalf("never saw %q; tree is %s", what, mount.Markup(tree))
	}
}

func (tb *testbed) waitText(t *testing.T, root, want string) {
	t.Helper()
	tb.waitFor(t, root, want, func(text string) bool { return text == want })
}

// fire dispatches the first binding of prop whose element text is label.
func (tb *testbed) fire(t *testing.T, root, prop, label string, args ...any) {
	t.Helper()
	tree, _ := tb.surface.Tree(root)
	for _, b := range mount.Bindings(tree) {
		if b.Prop == prop && b.Label == label {
			if err := tb.br.DispatchDOMCallback(b.Method, args); err != nil {
				t.Fatal(err)
			}
			return
		}
	}
	t.Fatalf("no %s binding labelled %q in %s", prop, label, mount.Markup(tree))
}

func TestSandboxedRootMountsEveryChild(t *testing.T) {
	tb := newTestbed(t, nil)
	root := tb.mount(t, "shop/Cart", map[string]any{"items": []any{"apple", "pear"}}, component.TrustUnset)

	tb.waitText(t, root, "2 itemsapplepeardroppicked none")

	// Badge is trusted but a sandboxed root never inlines, so it is a
	// boundary of its own next to the two lines.
	if got := len(tb.br.Mounted()); got != 4 {
		t.Errorf("mounted = %v, want 4 boundaries", tb.br.Mounted())
	}
}

func TestTrustedRootInlinesTrustedChild(t *testing.T) {
	tb := newTestbed(t, nil)
	root := tb.mount(t, "shop/Cart", map[string]any{"items": []any{"apple", "pear"}}, component.TrustTrusted)

	tb.waitText(t, root, "2 itemsapplepeardroppicked none")

	for _, id := range tb.br.Mounted() {
		if strings.Contains(id, "shop/Badge") {
			t.Errorf("inlined child got a boundary: %v", tb.br.Mounted())
		}
	}
	if got := len(tb.br.Mounted()); got != 3 {
		t.Errorf("mounted = %v, want root and two lines", tb.br.Mounted())
	}
}

func TestCallbackPropCrossesBoundaries(t *testing.T) {
	tb := newTestbed(t, nil)
	root := tb.mount(t, "shop/Cart", map[string]any{"items": []any{"apple", "pear"}}, component.TrustTrusted)
	tb.waitText(t, root, "2 itemsapplepeardroppicked none")

	tb.fire(t, root, "onClick", "pear")
	tb.waitText(t, root, "2 itemsapplepeardroppicked pear")

	tb.fire(t, root, "onClick", "apple")
	tb.waitText(t, root, "2 itemsapplepeardroppicked apple")
}

func TestStateUpdatesDoNotRecompile(t *testing.T) {
	tb := newTestbed(t, nil)
	root := tb.mount(t, "shop/Cart", map[string]any{"items": []any{"apple", "pear", "plum"}}, component.TrustTrusted)
	tb.waitText(t, root, "3 itemsapplepearplumdroppicked none")
	fetched := tb.fetcher.calls.Load()

	tb.fire(t, root, "onClick", "drop")
	tb.waitText(t, root, "2 itemspearplumdroppicked none")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := tb.surface.Wait(ctx, func(*mount.Memory) bool { return len(tb.br.Mounted()) == 3 })
	if err != nil {
		t.Fatalf("dropped line never unmounted: %v", tb.br.Mounted())
	}
	for _, id := range tb.br.Mounted() {
		if strings.Contains(id, "apple") {
			t.Errorf("apple line still mounted: %v", tb.br.Mounted())
		}
	}
	if got := tb.fetcher.calls.Load(); got != fetched {
		t.Errorf("fetches after update = %d, want %d", got, fetched)
	}
}

func TestMissingChildFailsAlone(t *testing.T) {
	tb := newTestbed(t, nil)
	root := tb.mount(t, "shop/Broken", nil, component.TrustUnset)

	tb.waitText(t, root, "0 itemsstill here")

	id, err := component.ParseID(root)
	if err != nil {
		t.Fatal(err)
	}
	missing := id.Child("shop/Nope", "0.0").String()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tb.surface.Wait(ctx, func(m *mount.Memory) bool { return m.Err(missing) != nil }); err != nil {
		tree, _ := tb.surface.Tree(root)
		t.Fatalf("missing child never marked: %s", mount.Markup(tree))
	}
	if !stderrors.Is(tb.br.Err(missing), errors.ComponentNotFound("", nil)) {
		t.Errorf("Err(%s) = %v", missing, tb.br.Err(missing))
	}
	tree, _ := tb.surface.Tree(root)
	if !strings.Contains(mount.Markup(tree), "data-error=") {
		t.Errorf("failed placeholder not marked: %s", mount.Markup(tree))
	}
}

func TestStorageHostPersistsInput(t *testing.T) {
	store, err := storage.OpenStore(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	if err := store.Set(ctx, "notes/Pad", "text", "hello"); err != nil {
		t.Fatal(err)
	}

	hosts := runtime.NewHostRegistry()
	if err := hosts.RegisterHost(storage.NewHost(store)); err != nil {
		t.Fatal(err)
	}
	tb := newTestbed(t, hosts)
	root := tb.mount(t, "notes/Pad", nil, component.TrustUnset)
	tb.waitText(t, root, "saved: hello")

	tb.fire(t, root, "onInput", "", map[string]any{"target": map[string]any{"value": "bye"}})
	tb.waitText(t, root, "saved: bye")

	deadline := time.Now().Add(5 * time.Second)
	for {
		v, ok, err := store.Get(ctx, "notes/Pad", "text")
		if err != nil {
			t.Fatal(err)
		}
		if ok && v == "bye" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("stored value = %v, want bye", v)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestMultilineTemplateRendersVerbatim(t *testing.T) {
	tb := newTestbed(t, nil)
	root := tb.mount(t, "alice/Poem", nil, component.TrustUnset)

	tb.waitText(t, root, "line1\n  line2")
}
