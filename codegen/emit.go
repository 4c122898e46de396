package codegen

import (
	"strings"

	"github.com/wippyai/component-runtime/syntax"
)

const indent = "  "

// Emit renders m as JavaScript. Output is deterministic for a given
// module. The trailer registers the entry function with the runtime.
func Emit(m *Module) string {
	var b strings.Builder
	for _, p := range m.Prelude {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	for i, fn := range m.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		emitFunction(&b, fn)
	}
	if entry := m.Entry(); entry != nil {
		b.WriteString("\n")
		b.WriteString(RuntimeObject + ".entry(" + entry.Name + ");\n")
	}
	return b.String()
}

func emitFunction(b *strings.Builder, fn *Function) {
	params := fn.Params
	if len(params) == 0 {
		params = []string{"props"}
	}

	b.WriteString("function " + fn.Name + "(" + strings.Join(params, ", ") + ") {\n")
	for _, inj := range fn.Injections {
		b.WriteString(indent + "const " + inj.Name + " = " + inj.Expr + ";\n")
	}
	writeBody(b, fn.Body)
	if fn.Export != "" {
		b.WriteString(indent + "return " + fn.Export + "(" + params[0] + ");\n")
	}
	b.WriteString("}\n")
}

// writeBody indents every line of body that starts outside a string or
// template literal; lines continuing a literal are written unchanged so its
// value is preserved. A body the scanner rejects is written unindented.
func writeBody(b *strings.Builder, body string) {
	body = strings.TrimRight(body, "\n")
	tokens, err := syntax.Tokenize(body)
	if err != nil {
		b.WriteString(body)
		b.WriteString("\n")
		return
	}

	next := 0
	for start := 0; start <= len(body); {
		end := strings.IndexByte(body[start:], '\n')
		if end < 0 {
			end = len(body)
		} else {
			end += start
		}
		line := body[start:end]

		for next < len(tokens) && tokens[next].End <= start {
			next++
		}
		switch {
		case next < len(tokens) && tokens[next].Start < start:
			b.WriteString(line)
		case strings.TrimSpace(line) != "":
			b.WriteString(indent + line)
		}
		b.WriteString("\n")
		start = end + 1
	}
}
