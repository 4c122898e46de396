package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wippyai/component-runtime/errors"
)

// DefaultExport is the binding given to an anonymous default export.
const DefaultExport = "DefaultExport"

var (
	exportStart  = regexp.MustCompile(`(?m)^[ \t]*export\b`)
	exportPrefix = regexp.MustCompile(`^export\s+(?:default\s+)?`)
	exportFunc   = regexp.MustCompile(`^export\s+(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)?\s*\(`)
	exportClass  = regexp.MustCompile(`^export\s+(?:default\s+)?class\s+([A-Za-z_$][\w$]*)`)
	exportDecl   = regexp.MustCompile(`^export\s+(?:const|let|var)\s+([A-Za-z_$][\w$]*)`)
	exportList   = regexp.MustCompile(`^export\s*\{\s*([A-Za-z_$][\w$]*)(?:\s+as\s+default)?\s*,?\s*\}[ \t]*;?`)
	exportIdent  = regexp.MustCompile(`(?m)^export\s+default\s+([A-Za-z_$][\w$]*)[ \t]*;?[ \t]*$`)
	exportExpr   = regexp.MustCompile(`^export\s+default\s+`)
)

// ParseExport finds the single export of src and returns its local
// identifier together with src stripped of the export syntax. A source
// without exports yields an empty identifier. More than one export is an
// error.
func ParseExport(src string) (string, string, error) {
	ident, out, detail := parseExport(src)
	if detail != "" {
		return "", src, errors.ParseFailed("", detail)
	}
	return ident, out, nil
}

func parseExport(src string) (string, string, string) {
	locs := exportStart.FindAllStringIndex(maskLiterals(src), -1)
	switch len(locs) {
	case 0:
		return "", src, ""
	case 1:
	default:
		return "", "", fmt.Sprintf("found %d exports, expected at most one", len(locs))
	}

	start := locs[0][1] - len("export")
	head, stmt := src[:start], src[start:]
	prefix := len(exportPrefix.FindString(stmt))

	if m := exportFunc.FindStringSubmatchIndex(stmt); m != nil {
		if m[2] >= 0 {
			return stmt[m[2]:m[3]], head + stmt[prefix:], ""
		}
		// anonymous function gets a name so it can be called
		paren := m[1] - 1
		decl := strings.TrimRight(stmt[prefix:paren], " \t")
		return DefaultExport, head + decl + " " + DefaultExport + stmt[paren:], ""
	}
	if m := exportClass.FindStringSubmatch(stmt); m != nil {
		return m[1], head + stmt[prefix:], ""
	}
	if m := exportDecl.FindStringSubmatch(stmt); m != nil {
		return m[1], head + stmt[prefix:], ""
	}
	if m := exportList.FindStringSubmatchIndex(stmt); m != nil {
		return stmt[m[2]:m[3]], head + stmt[m[1]:], ""
	}
	if m := exportIdent.FindStringSubmatchIndex(stmt); m != nil {
		return stmt[m[2]:m[3]], head + stmt[m[1]:], ""
	}
	if m := exportExpr.FindStringIndex(stmt); m != nil {
		return DefaultExport, head + "const " + DefaultExport + " = " + stmt[m[1]:], ""
	}
	return "", "", "unsupported export: " + firstLine(stmt)
}

// maskLiterals blanks comments, template literals and single-line string
// literals in src, keeping offsets and newlines, so statement keywords are
// only found in code. The source is still JSX, so a quote with no closing
// quote on its line is JSX text and stays as is.
func maskLiterals(src string) string {
	out := []byte(src)
	blank := func(from, to int) {
		for i := from; i < to; i++ {
			if out[i] != '\n' {
				out[i] = ' '
			}
		}
	}
	for i := 0; i < len(src); {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			blank(i, i+end)
			i += end
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				blank(i, len(src))
				return string(out)
			}
			blank(i, i+end+4)
			i += end + 4
		case src[i] == '`':
			end := templateEnd(src, i+1)
			blank(i, end)
			i = end
		case src[i] == '"' || src[i] == '\'':
			end := quoteEnd(src, i)
			if end < 0 {
				i++
				continue
			}
			blank(i, end)
			i = end
		default:
			i++
		}
	}
	return string(out)
}

// templateEnd returns the offset just past the template literal whose body
// starts at i. Substitutions may hold nested templates.
func templateEnd(src string, i int) int {
	for i < len(src) {
		switch {
		case src[i] == '\\':
			i += 2
		case src[i] == '`':
			return i + 1
		case strings.HasPrefix(src[i:], "${"):
			depth := 1
			for i += 2; i < len(src) && depth > 0; i++ {
				switch src[i] {
				case '{':
					depth++
				case '}':
					depth--
				case '`':
					i = templateEnd(src, i+1) - 1
				}
			}
		default:
			i++
		}
	}
	return len(src)
}

// quoteEnd returns the offset just past the string literal opened at i, or
// -1 when the line ends first.
func quoteEnd(src string, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		case '\n':
			return -1
		}
	}
	return -1
}
