package parser

import (
	stderrors "errors"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
)

func TestParseImports(t *testing.T) {
	src := `import World from "component://bob/World";
import * as Icons from "component://alice/Icons";
import { Item, Header as Head } from "./Item";
import Def, { helper } from "util-lib";
import "./styles.css";
import {
  a,
  b as c,
} from 'multi';

const x = 1;
`
	body, imports, err := ParseImports(src, "alice/Nav.Bar")
	if err != nil {
		t.Fatalf("ParseImports: %v", err)
	}
	if strings.Contains(body, "import") {
		t.Errorf("body still has imports:\n%s", body)
	}
	if !strings.Contains(body, "const x = 1;") {
		t.Errorf("body lost code:\n%s", body)
	}

	want := []ModuleImport{
		{
			ModuleName:          "component://bob/World",
			ModulePath:          "bob/World",
			IsBoundaryComponent: true,
			Imports:             []ImportExpression{{Kind: ImportDefault, Imported: "default", Local: "World"}},
		},
		{
			ModuleName:          "component://alice/Icons",
			ModulePath:          "alice/Icons",
			IsBoundaryComponent: true,
			Imports:             []ImportExpression{{Kind: ImportNamespace, Imported: "*", Local: "Icons"}},
		},
		{
			ModuleName:          "./Item",
			ModulePath:          "alice/Nav.Item",
			IsBoundaryComponent: true,
			IsRelative:          true,
			Imports: []ImportExpression{
				{Kind: ImportNamed, Imported: "Item", Local: "Item"},
				{Kind: ImportNamed, Imported: "Header", Local: "Head"},
			},
		},
		{
			ModuleName: "util-lib",
			Imports: []ImportExpression{
				{Kind: ImportDefault, Imported: "default", Local: "Def"},
				{Kind: ImportNamed, Imported: "helper", Local: "helper"},
			},
		},
		{
			ModuleName:   "./styles.css",
			IsRelative:   true,
			IsSideEffect: true,
		},
		{
			ModuleName: "multi",
			Imports: []ImportExpression{
				{Kind: ImportNamed, Imported: "a", Local: "a"},
				{Kind: ImportNamed, Imported: "b", Local: "c"},
			},
		},
	}
	if diff := cmp.Diff(want, imports); diff != "" {
		t.Errorf("imports mismatch (-want +got):\n%s", diff)
	}
}

func TestParseImportsDegrades(t *testing.T) {
	src := `import Good from "component://bob/Good";
import ??? from "broken";
import Later from "component://bob/Later";
body();
`
	body, imports, err := ParseImports(src, "alice/Hello")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !stderrors.Is(err, errors.ErrParse) {
		t.Errorf("error = %v, want parse error", err)
	}
	if len(imports) != 1 || imports[0].ModulePath != "bob/Good" {
		t.Errorf("imports = %+v, want only bob/Good", imports)
	}
	wantBody := `import ??? from "broken";
import Later from "component://bob/Later";
body();
`
	if strings.TrimLeft(body, "\n") != wantBody {
		t.Errorf("body = %q", body)
	}
}

func TestDynamicImportIsKept(t *testing.T) {
	src := "const m = await import(\"x\");\nimport(\"y\");\n"
	body, imports, err := ParseImports(src, "alice/Hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(imports) != 0 || body != src {
		t.Errorf("body = %q, imports = %v", body, imports)
	}
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		parent  component.Path
		spec    string
		want    component.Path
		wantErr bool
	}{
		{"alice/Hello", "./World", "alice/World", false},
		{"alice/Nav.Bar", "./Item", "alice/Nav.Item", false},
		{"alice/Nav.Bar", "./Item.jsx", "alice/Nav.Item", false},
		{"alice/Nav.Bar", "./sub/Item", "alice/Nav.sub.Item", false},
		{"alice/Nav.Bar", "../Footer", "alice/Footer", false},
		{"alice/A.B.C", "../../X", "alice/X", false},
		{"alice/Hello", "../X", "", true},
		{"alice/Hello", "./", "", true},
	}
	for _, tt := range tests {
		got, err := ResolveRelative(tt.parent, tt.spec)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ResolveRelative(%s, %q) = %s, want error", tt.parent, tt.spec, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ResolveRelative(%s, %q): %v", tt.parent, tt.spec, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveRelative(%s, %q) = %s, want %s", tt.parent, tt.spec, got, tt.want)
		}
	}
}

var exportKeyword = regexp.MustCompile(`\bexport\b`)

func TestParseExport(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		ident  string
		source string
	}{
		{
			name:   "default function",
			src:    "export default function Hello(props) { return 1; }",
			ident:  "Hello",
			source: "function Hello(props) { return 1; }",
		},
		{
			name:   "named function",
			src:    "export function Hello() {}",
			ident:  "Hello",
			source: "function Hello() {}",
		},
		{
			name:   "async function",
			src:    "export default async function Load() {}",
			ident:  "Load",
			source: "async function Load() {}",
		},
		{
			name:   "const",
			src:    "export const Hello = (p) => p;",
			ident:  "Hello",
			source: "const Hello = (p) => p;",
		},
		{
			name:   "default identifier",
			src:    "const Hello = () => 1;\nexport default Hello;\n",
			ident:  "Hello",
			source: "const Hello = () => 1;\n\n",
		},
		{
			name:   "export list",
			src:    "function Hello() {}\nexport { Hello as default };",
			ident:  "Hello",
			source: "function Hello() {}\n",
		},
		{
			name:   "anonymous function",
			src:    "export default function (props) {}",
			ident:  DefaultExport,
			source: "function DefaultExport(props) {}",
		},
		{
			name:   "expression",
			src:    "export default (props) => props.x;",
			ident:  DefaultExport,
			source: "const DefaultExport = (props) => props.x;",
		},
		{
			name:   "none",
			src:    "return <div/>;",
			ident:  "",
			source: "return <div/>;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ident, source, err := ParseExport(tt.src)
			if err != nil {
				t.Fatalf("ParseExport: %v", err)
			}
			if ident != tt.ident {
				t.Errorf("ident = %q, want %q", ident, tt.ident)
			}
			if source != tt.source {
				t.Errorf("source = %q, want %q", source, tt.source)
			}
			if exportKeyword.MatchString(source) {
				t.Errorf("source still contains export: %q", source)
			}
		})
	}
}

func TestParseExportMultiple(t *testing.T) {
	_, _, err := ParseExport("export const A = 1;\nexport const B = 2;")
	if !stderrors.Is(err, errors.ErrParse) {
		t.Fatalf("error = %v, want parse error", err)
	}
}

func TestParseExportIgnoresLiterals(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		source string
	}{
		{
			name:   "template",
			src:    "const doc = `\nexport const X = 1;\n`;\nexport default function Hello() { return doc; }",
			source: "const doc = `\nexport const X = 1;\n`;\nfunction Hello() { return doc; }",
		},
		{
			name:   "line comment",
			src:    "// export default Old;\nexport default function Hello() {}",
			source: "// export default Old;\nfunction Hello() {}",
		},
		{
			name:   "block comment",
			src:    "/*\nexport function Old() {}\n*/\nexport function Hello() {}",
			source: "/*\nexport function Old() {}\n*/\nfunction Hello() {}",
		},
		{
			name:   "nested template",
			src:    "const a = `${`\nexport const B = 2;`}`;\nexport function Hello() {}",
			source: "const a = `${`\nexport const B = 2;`}`;\nfunction Hello() {}",
		},
		{
			name:   "jsx apostrophe",
			src:    "function Hello() { return <p>don't</p>; }\nexport { Hello as default };",
			source: "function Hello() { return <p>don't</p>; }\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ident, source, err := ParseExport(tt.src)
			if err != nil {
				t.Fatalf("ParseExport: %v", err)
			}
			if ident != "Hello" {
				t.Errorf("ident = %q, want Hello", ident)
			}
			if source != tt.source {
				t.Errorf("source = %q, want %q", source, tt.source)
			}
		})
	}
}

func TestParse(t *testing.T) {
	src := `import World from "component://bob/World";

export default function Hello(props) {
  return <World name={props.name} />;
}
`
	res, err := Parse(src, "alice/Hello")
	if err != nil {
		t.Fatal(err)
	}
	if res.Export != "Hello" || res.ImportErr != nil {
		t.Errorf("result = %+v", res)
	}
	if got := res.BoundaryImports(); len(got) != 1 || got[0].ModulePath != "bob/World" {
		t.Errorf("BoundaryImports = %+v", got)
	}
	if len(res.PackageImports()) != 0 {
		t.Errorf("PackageImports = %+v", res.PackageImports())
	}

	_, err = Parse("export const A = 1;\nexport const B = 2;", "alice/Two")
	var perr *errors.Error
	if !stderrors.As(err, &perr) || perr.Component != "alice/Two" {
		t.Errorf("error = %v, want parse error for alice/Two", err)
	}
}
