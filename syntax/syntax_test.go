package syntax

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type tok struct {
	Kind Kind
	Text string
}

func simplify(tokens []Token) []tok {
	out := make([]tok, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == EOF {
			continue
		}
		out = append(out, tok{t.Kind, t.Text})
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []tok
	}{
		{
			name: "call",
			src:  `createNode(Hello, { name: "x" })`,
			want: []tok{
				{Identifier, "createNode"}, {Punctuator, "("}, {Identifier, "Hello"},
				{Punctuator, ","}, {Punctuator, "{"}, {Identifier, "name"}, {Punctuator, ":"},
				{String, `"x"`}, {Punctuator, "}"}, {Punctuator, ")"},
			},
		},
		{
			name: "comments dropped",
			src:  "a // line\n/* block\n */ b",
			want: []tok{{Identifier, "a"}, {Identifier, "b"}},
		},
		{
			name: "division",
			src:  "x = a / b / c",
			want: []tok{
				{Identifier, "x"}, {Punctuator, "="}, {Identifier, "a"}, {Punctuator, "/"},
				{Identifier, "b"}, {Punctuator, "/"}, {Identifier, "c"},
			},
		},
		{
			name: "regexp",
			src:  "return /a[/]b/gi.test(s)",
			want: []tok{
				{Keyword, "return"}, {RegExp, "/a[/]b/gi"}, {Punctuator, "."},
				{Identifier, "test"}, {Punctuator, "("}, {Identifier, "s"}, {Punctuator, ")"},
			},
		},
		{
			name: "template interpolation",
			src:  "`a ${ {b: 1}.b } c`",
			want: []tok{
				{Template, "`a ${"}, {Punctuator, "{"}, {Identifier, "b"}, {Punctuator, ":"},
				{Number, "1"}, {Punctuator, "}"}, {Punctuator, "."}, {Identifier, "b"},
				{Template, "} c`"},
			},
		},
		{
			name: "keyword as property",
			src:  "obj.default",
			want: []tok{{Identifier, "obj"}, {Punctuator, "."}, {Identifier, "default"}},
		},
		{
			name: "operators",
			src:  "a?.b ?? c === d => e",
			want: []tok{
				{Identifier, "a"}, {Punctuator, "?."}, {Identifier, "b"}, {Punctuator, "??"},
				{Identifier, "c"}, {Punctuator, "==="}, {Identifier, "d"}, {Punctuator, "=>"},
				{Identifier, "e"},
			},
		},
		{
			name: "numbers",
			src:  "0x1F 1.5e-3 10n .5",
			want: []tok{{Number, "0x1F"}, {Number, "1.5e-3"}, {Number, "10n"}, {Number, ".5"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.src)
			if err != nil {
				t.Fatalf("Tokenize: %v", err)
			}
			if diff := cmp.Diff(tt.want, simplify(tokens)); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTokenizeOffsets(t *testing.T) {
	src := "let  value = 'x'"
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatal(err)
	}
	for _, tk := range tokens {
		if src[tk.Start:tk.End] != tk.Text {
			t.Errorf("token %q has span %d:%d", tk.Text, tk.Start, tk.End)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	for _, src := range []string{`"open`, "`open", "/* open", "a = `x ${ b"} {
		if _, err := Tokenize(src); err == nil {
			t.Errorf("Tokenize(%q) expected error", src)
		}
	}
}

func TestStringValue(t *testing.T) {
	tokens, err := Tokenize(`'it\'s' "bob/World"`)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := tokens[0].StringValue(); v != "it's" {
		t.Errorf("StringValue = %q", v)
	}
	if v, _ := tokens[1].StringValue(); v != "bob/World" {
		t.Errorf("StringValue = %q", v)
	}
}

func TestMatching(t *testing.T) {
	tokens, err := Tokenize("f(a, [b, {c: (d)}], `${e}`)")
	if err != nil {
		t.Fatal(err)
	}
	end := Matching(tokens, 1)
	if end != len(tokens)-2 || tokens[end].Text != ")" {
		t.Fatalf("Matching = %d", end)
	}

	parts := SplitTopLevel(tokens, 2, end)
	if len(parts) != 3 {
		t.Fatalf("SplitTopLevel parts = %v", parts)
	}
	if tokens[parts[1][0]].Text != "[" {
		t.Errorf("second part starts with %q", tokens[parts[1][0]].Text)
	}
	if Matching(tokens, 0) != -1 {
		t.Error("Matching on identifier should fail")
	}
}
