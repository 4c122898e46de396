package parser

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
)

// BoundaryPrefix marks an import of another published component.
const BoundaryPrefix = "component://"

var (
	sourceExtensions = []string{".jsx", ".tsx", ".js", ".ts"}
	// relative imports of assets are side effects, not components
	assetExtensions = []string{".css", ".scss", ".less", ".json", ".svg", ".png"}
)

// ImportKind distinguishes the binding forms of an import clause.
type ImportKind uint8

const (
	ImportDefault ImportKind = iota
	ImportNamespace
	ImportNamed
)

func (k ImportKind) String() string {
	switch k {
	case ImportDefault:
		return "default"
	case ImportNamespace:
		return "namespace"
	case ImportNamed:
		return "named"
	}
	return "unknown"
}

// ImportExpression is one binding introduced by an import clause.
// Imported is "default" for default imports and "*" for namespaces.
type ImportExpression struct {
	Imported string     `json:"imported" yaml:"imported"`
	Local    string     `json:"local" yaml:"local"`
	Kind     ImportKind `json:"kind" yaml:"kind"`
}

// ModuleImport describes one import statement.
type ModuleImport struct {
	// ModuleName is the specifier as written.
	ModuleName string `json:"moduleName" yaml:"moduleName"`
	// ModulePath is the resolved component path for boundary components.
	ModulePath          component.Path     `json:"modulePath,omitempty" yaml:"modulePath,omitempty"`
	Imports             []ImportExpression `json:"imports,omitempty" yaml:"imports,omitempty"`
	IsBoundaryComponent bool               `json:"isBoundaryComponent" yaml:"isBoundaryComponent"`
	IsSideEffect        bool               `json:"isSideEffect" yaml:"isSideEffect"`
	IsRelative          bool               `json:"isRelative" yaml:"isRelative"`
}

// Locals returns the local binding names introduced by m.
func (m ModuleImport) Locals() []string {
	out := make([]string, 0, len(m.Imports))
	for _, e := range m.Imports {
		out = append(out, e.Local)
	}
	return out
}

var (
	importStart = regexp.MustCompile(`(?m)^[ \t]*import\b`)
	sideEffect  = regexp.MustCompile(`^import\s*(['"])([^'"\n]+)['"][ \t]*;?`)
	fromImport  = regexp.MustCompile(`^import\s+([^'"]+?)\s+from\s*(['"])([^'"\n]+)['"][ \t]*;?`)
	identRe     = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
	namespaceRe = regexp.MustCompile(`^\*\s*as\s+([A-Za-z_$][\w$]*)$`)
)

// ParseImports strips import statements from src. Statements are removed
// in order until one cannot be parsed; that failure is logged and the rest
// of the source, including the offending statement, is returned unchanged
// with the error in the second return value.
func ParseImports(src string, parent component.Path) (string, []ModuleImport, error) {
	var (
		out     strings.Builder
		imports []ModuleImport
		rest    = src
	)

	for {
		loc := importStart.FindStringIndex(rest)
		if loc == nil {
			out.WriteString(rest)
			return out.String(), imports, nil
		}

		// leading whitespace on the line is kept with the preceding text
		stmtStart := loc[1] - len("import")
		after := rest[loc[1]:]
		if strings.HasPrefix(strings.TrimLeft(after, " \t"), "(") || strings.HasPrefix(after, ".") {
			// dynamic import() or import.meta
			out.WriteString(rest[:loc[1]])
			rest = rest[loc[1]:]
			continue
		}

		out.WriteString(rest[:stmtStart])
		stmt := rest[stmtStart:]

		imp, n, err := parseStatement(stmt, parent)
		if err != nil {
			Logger().Error("unparseable import, leaving remaining source untouched",
				zap.String("component", string(parent)),
				zap.Error(err))
			out.WriteString(stmt)
			return out.String(), imports, err
		}
		imports = append(imports, imp)
		rest = stmt[n:]
	}
}

// parseStatement parses the import statement at the start of stmt and
// returns the number of bytes it spans.
func parseStatement(stmt string, parent component.Path) (ModuleImport, int, error) {
	if m := sideEffect.FindStringSubmatchIndex(stmt); m != nil {
		spec := stmt[m[4]:m[5]]
		imp, err := classify(spec, parent)
		if err != nil {
			return ModuleImport{}, 0, err
		}
		imp.IsSideEffect = true
		return imp, m[1], nil
	}

	m := fromImport.FindStringSubmatchIndex(stmt)
	if m == nil {
		return ModuleImport{}, 0, errors.ParseFailed(string(parent), "malformed import: "+firstLine(stmt))
	}
	clause := stmt[m[2]:m[3]]
	spec := stmt[m[6]:m[7]]

	bindings, err := parseClause(clause)
	if err != nil {
		return ModuleImport{}, 0, errors.ParseFailed(string(parent), err.Error()+": "+firstLine(stmt))
	}
	imp, err := classify(spec, parent)
	if err != nil {
		return ModuleImport{}, 0, err
	}
	imp.Imports = bindings
	return imp, m[1], nil
}

// parseClause parses the binding list between "import" and "from".
func parseClause(clause string) ([]ImportExpression, error) {
	clause = strings.TrimSpace(clause)
	var out []ImportExpression

	// default binding first, if any
	if i := strings.IndexAny(clause, ",{*"); i != 0 {
		head := clause
		rest := ""
		if i > 0 {
			head, rest = clause[:i], clause[i:]
		}
		head = strings.TrimSpace(head)
		if !identRe.MatchString(head) {
			return nil, errors.InvalidInput(errors.PhaseParse, "invalid default binding "+head)
		}
		out = append(out, ImportExpression{Kind: ImportDefault, Imported: "default", Local: head})
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return out, nil
		}
		if !strings.HasPrefix(rest, ",") {
			return nil, errors.InvalidInput(errors.PhaseParse, "expected ',' after default binding")
		}
		clause = strings.TrimSpace(rest[1:])
	}

	if m := namespaceRe.FindStringSubmatch(clause); m != nil {
		return append(out, ImportExpression{Kind: ImportNamespace, Imported: "*", Local: m[1]}), nil
	}

	if !strings.HasPrefix(clause, "{") || !strings.HasSuffix(clause, "}") {
		return nil, errors.InvalidInput(errors.PhaseParse, "invalid import clause "+clause)
	}
	for _, part := range strings.Split(clause[1:len(clause)-1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		imported, local := part, part
		if fields := strings.Fields(part); len(fields) == 3 && fields[1] == "as" {
			imported, local = fields[0], fields[2]
		}
		if !identRe.MatchString(imported) || !identRe.MatchString(local) {
			return nil, errors.InvalidInput(errors.PhaseParse, "invalid named binding "+part)
		}
		kind := ImportNamed
		if imported == "default" {
			kind = ImportDefault
		}
		out = append(out, ImportExpression{Kind: kind, Imported: imported, Local: local})
	}
	return out, nil
}

// classify fills the module fields of an import from its specifier.
func classify(spec string, parent component.Path) (ModuleImport, error) {
	imp := ModuleImport{ModuleName: spec}
	switch {
	case strings.HasPrefix(spec, BoundaryPrefix):
		p, err := component.ParsePath(strings.TrimPrefix(spec, BoundaryPrefix))
		if err != nil {
			return ModuleImport{}, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Component(string(parent)).
				Value(spec).
				Cause(err).
				Detail("invalid component import %q", spec).
				Build()
		}
		imp.ModulePath = p
		imp.IsBoundaryComponent = true
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		imp.IsRelative = true
		if isAsset(spec) {
			return imp, nil
		}
		p, err := ResolveRelative(parent, spec)
		if err != nil {
			return ModuleImport{}, err
		}
		imp.ModulePath = p
		imp.IsBoundaryComponent = true
	}
	return imp, nil
}

func isAsset(spec string) bool {
	for _, ext := range assetExtensions {
		if strings.HasSuffix(spec, ext) {
			return true
		}
	}
	return false
}

// ResolveRelative resolves a relative component import against its parent.
// "./X" replaces the last dotted segment of the parent's name, each extra
// "../" drops one more segment, and "/" inside the remainder becomes ".".
// The author is always the parent's.
func ResolveRelative(parent component.Path, spec string) (component.Path, error) {
	rest := spec
	drop := 1
	if strings.HasPrefix(rest, "./") {
		rest = rest[2:]
	}
	for strings.HasPrefix(rest, "../") {
		rest = rest[3:]
		drop++
	}
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(rest, ext) {
			rest = strings.TrimSuffix(rest, ext)
			break
		}
	}
	if rest == "" || strings.Contains(rest, "./") {
		return "", errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Component(string(parent)).
			Value(spec).
			Detail("invalid relative import %q", spec).
			Build()
	}

	segments := strings.Split(parent.Name(), ".")
	if drop > len(segments) {
		return "", errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Component(string(parent)).
			Value(spec).
			Detail("relative import %q escapes %s", spec, parent).
			Build()
	}
	segments = append(segments[:len(segments)-drop], strings.Split(rest, "/")...)
	return component.ParsePath(parent.Author() + "/" + strings.Join(segments, "."))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
