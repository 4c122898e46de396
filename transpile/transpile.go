package transpile

import (
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/syntax"
	"github.com/wippyai/component-runtime/trust"
)

const (
	// WidgetName renders the component named by its literal src prop.
	WidgetName = "Widget"
	// ComponentName renders a descendant in its own boundary.
	ComponentName = "Component"
	// BoundaryFunc is the runtime helper that stands in for a non-inlined
	// component used as a value.
	BoundaryFunc = "__bwe.boundary"
)

// Site is a render call site of a descendant component.
type Site struct {
	Path   component.Path
	Callee string
	Trust  component.TrustMode
	// Widget is set for createNode(Widget, { src: "..." }) sites.
	Widget bool

	callee int
	// props argument as a token range [propsFrom, propsTo); empty when
	// the call has a single argument
	propsFrom, propsTo int
	// src property of a widget site as a token range, including the
	// trailing comma
	srcFrom, srcTo int
}

// Ref is a reference to an imported component that is not a render
// callee, such as passing it as a value.
type Ref struct {
	Path      component.Path
	Name      string
	token     int
	shorthand bool
}

// Unit is one transpiled component body.
type Unit struct {
	Path component.Path
	// Prelude is code esbuild emitted outside the component, such as
	// helper functions.
	Prelude string
	Sites   []Site
	Refs    []Ref

	code      string
	tokens    []syntax.Token
	bodyOpen  int
	bodyClose int
	IsRoot    bool
}

// Target is the rewrite decision for one site or reference.
type Target struct {
	// Name is the generated function of an inlined descendant.
	Name   string
	Inline bool
}

// Resolver decides how a descendant at path with an explicit mode is
// rendered.
type Resolver func(path component.Path, mode component.TrustMode) Target

// Transpile lowers the JSX body of the component at path and records its
// render sites. bindings maps the local names of imported components to
// their paths; src must already be stripped of import and export syntax.
func Transpile(path component.Path, src string, bindings map[string]component.Path, isRoot bool) (*Unit, error) {
	code, tokens, err := lower(path, src)
	if err != nil {
		return nil, err
	}
	fn, open, end, err := wrapperBody(path, tokens)
	if err != nil {
		return nil, err
	}

	u := &Unit{
		Path:      path,
		IsRoot:    isRoot,
		Prelude:   strings.TrimSpace(code[:tokens[fn].Start]),
		code:      code,
		tokens:    tokens,
		bodyOpen:  open,
		bodyClose: end,
	}
	u.scan(bindings)
	return u, nil
}

func (u *Unit) scan(bindings map[string]component.Path) {
	tracked := map[string]bool{WidgetName: true}
	for name := range bindings {
		tracked[name] = true
	}
	sc := analyzeScopes(u.tokens, tracked)
	callees := make(map[int]bool)

	for i := u.bodyOpen + 1; i < u.bodyClose; i++ {
		t := u.tokens[i]
		if !t.IsIdent(Factory) || !u.at(i+1).Is("(") || isMember(u.at(i-1)) {
			continue
		}
		callee := u.at(i + 2)
		if callee.Kind != syntax.Identifier || sc.shadowed(callee.Text, i+2) {
			continue
		}
		closeParen := sc.partner(i + 1)

		site := Site{Callee: callee.Text, callee: i + 2, propsFrom: closeParen, propsTo: closeParen}
		args := syntax.SplitTopLevel(u.tokens, i+2, closeParen)
		if len(args) > 1 {
			site.propsFrom, site.propsTo = args[1][0], args[1][1]
		}

		if p, ok := bindings[callee.Text]; ok {
			site.Path = p
		} else if callee.Text == WidgetName {
			src, from, to, ok := u.literalSrc(site.propsFrom, site.propsTo)
			if !ok {
				continue
			}
			site.Path, site.Widget, site.srcFrom, site.srcTo = src, true, from, to
		} else {
			continue
		}

		if text, ok := u.propValue(site.propsFrom, site.propsTo, "trust"); ok {
			site.Trust = trust.ParseAnnotation(text)
		}
		u.Sites = append(u.Sites, site)
		callees[i+2] = true
	}

	for i := u.bodyOpen + 1; i < u.bodyClose; i++ {
		t := u.tokens[i]
		p, ok := bindings[t.Text]
		if t.Kind != syntax.Identifier || !ok || callees[i] || sc.shadowed(t.Text, i) {
			continue
		}
		prev, next := u.at(i-1), u.at(i+1)
		if isMember(prev) {
			continue
		}
		objectSlot := prev.Is("{") || prev.Is(",")
		if objectSlot && next.Is(":") {
			continue
		}
		shorthand := objectSlot && (next.Is(",") || next.Is("}")) && u.inObject(i)
		u.Refs = append(u.Refs, Ref{Path: p, Name: t.Text, token: i, shorthand: shorthand})
	}
}

func (u *Unit) at(i int) syntax.Token {
	if i < 0 || i >= len(u.tokens) {
		return syntax.Token{Kind: syntax.EOF}
	}
	return u.tokens[i]
}

func isMember(t syntax.Token) bool {
	return t.Is(".") || t.Is("?.")
}

// inObject reports whether token i sits directly inside an object literal
// rather than a block.
func (u *Unit) inObject(i int) bool {
	depth := 0
	for k := i - 1; k > u.bodyOpen; k-- {
		t := u.tokens[k]
		switch {
		case t.Is("}") || t.Is(")") || t.Is("]"):
			depth++
		case t.Is("(") || t.Is("["):
			if depth == 0 {
				return false
			}
			depth--
		case t.Is("{"):
			if depth == 0 {
				return startsObject(u.at(k - 1))
			}
			depth--
		}
	}
	return false
}

// startsObject reports whether a "{" following prev opens an object
// literal rather than a block.
func startsObject(prev syntax.Token) bool {
	switch prev.Kind {
	case syntax.Punctuator:
		switch prev.Text {
		case ")", "}", "=>", ";", "{":
			return false
		}
		return true
	case syntax.Keyword:
		return prev.Text == "return" || prev.Text == "yield" || prev.Text == "await"
	}
	return false
}

// properties splits an object literal in tokens[from:to] into its
// top-level properties.
func (u *Unit) properties(from, to int) ([][2]int, bool) {
	if to-from < 2 || !u.at(from).Is("{") || !u.at(to-1).Is("}") {
		return nil, false
	}
	return syntax.SplitTopLevel(u.tokens, from+1, to-1), true
}

// propValue returns the source text of a literal object's top-level
// property value.
func (u *Unit) propValue(from, to int, key string) (string, bool) {
	props, ok := u.properties(from, to)
	if !ok {
		return "", false
	}
	for _, p := range props {
		if p[1]-p[0] < 3 || !isKey(u.tokens[p[0]], key) || !u.tokens[p[0]+1].Is(":") {
			continue
		}
		return u.code[u.tokens[p[0]+2].Start:u.tokens[p[1]-1].End], true
	}
	return "", false
}

// literalSrc finds a string-literal src property naming a valid path and
// returns the token range to delete it, including a trailing comma.
func (u *Unit) literalSrc(from, to int) (component.Path, int, int, bool) {
	props, ok := u.properties(from, to)
	if !ok {
		return "", 0, 0, false
	}
	for _, p := range props {
		if p[1]-p[0] != 3 || !isKey(u.tokens[p[0]], "src") || !u.tokens[p[0]+1].Is(":") {
			continue
		}
		v, ok := u.tokens[p[0]+2].StringValue()
		if !ok {
			return "", 0, 0, false
		}
		path, err := component.ParsePath(v)
		if err != nil {
			return "", 0, 0, false
		}
		end := p[1]
		if u.at(end).Is(",") {
			end++
		}
		return path, p[0], end, true
	}
	return "", 0, 0, false
}

func isKey(t syntax.Token, key string) bool {
	if t.Kind == syntax.Identifier || t.Kind == syntax.Keyword {
		return t.Text == key
	}
	v, ok := t.StringValue()
	return ok && v == key
}

type edit struct {
	text       string
	start, end int
}

// Rewrite returns the component body with every site and reference
// rewritten according to resolve. Sites are resolved in textual order.
func (u *Unit) Rewrite(resolve Resolver) string {
	var edits []edit
	replace := func(tok int, text string) {
		t := u.tokens[tok]
		edits = append(edits, edit{start: t.Start, end: t.End, text: text})
	}
	insert := func(at int, text string) {
		edits = append(edits, edit{start: at, end: at, text: text})
	}

	for _, s := range u.Sites {
		target := resolve(s.Path, s.Trust)
		if target.Inline {
			replace(s.callee, target.Name)
			if s.Widget {
				edits = append(edits, edit{start: u.tokens[s.srcFrom].Start, end: u.tokens[s.srcTo].Start})
			}
			continue
		}

		replace(s.callee, ComponentName)
		if s.Widget {
			continue
		}
		src := "src: " + strconv.Quote(string(s.Path))
		switch {
		case s.propsFrom == s.propsTo:
			insert(u.tokens[s.propsFrom].Start, ", { "+src+" }")
		case s.propsTo-s.propsFrom == 1 && u.tokens[s.propsFrom].Is("null"):
			replace(s.propsFrom, "{ "+src+" }")
		case u.at(s.propsFrom).Is("{") && u.pairEnd(s.propsFrom) == s.propsTo-1:
			// appended last so that spread props cannot override it
			last := u.tokens[s.propsTo-2]
			switch {
			case last.Is("{"):
				insert(last.End, " "+src+" ")
			case last.Is(","):
				insert(last.End, " "+src)
			default:
				insert(last.End, ", "+src)
			}
		default:
			insert(u.tokens[s.propsFrom].Start, "Object.assign({}, ")
			insert(u.tokens[s.propsTo-1].End, ", { "+src+" })")
		}
	}

	for _, r := range u.Refs {
		target := resolve(r.Path, component.TrustUnset)
		text := target.Name
		if !target.Inline {
			text = BoundaryFunc + "(" + strconv.Quote(string(r.Path)) + ")"
		}
		if r.shorthand {
			text = r.Name + ": " + text
		}
		replace(r.token, text)
	}

	start := u.tokens[u.bodyOpen].End
	end := u.tokens[u.bodyClose].Start
	return trimBody(applyEdits(u.code, start, end, edits))
}

func (u *Unit) pairEnd(open int) int {
	return syntax.Matching(u.tokens, open)
}

// Body returns the lowered body without rewriting.
func (u *Unit) Body() string {
	return trimBody(u.code[u.tokens[u.bodyOpen].End:u.tokens[u.bodyClose].Start])
}

func applyEdits(code string, start, end int, edits []edit) string {
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].start < edits[j].start
	})
	var b strings.Builder
	cursor := start
	for _, e := range edits {
		if e.start < cursor {
			continue
		}
		b.WriteString(code[cursor:e.start])
		b.WriteString(e.text)
		cursor = e.end
	}
	b.WriteString(code[cursor:end])
	return b.String()
}
