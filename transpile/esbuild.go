package transpile

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/syntax"
)

const (
	// Factory is the JSX element factory in emitted code.
	Factory = "createNode"
	// FragmentName is the JSX fragment in emitted code.
	FragmentName = "Fragment"

	wrapperName = "__c"
	wrapperHead = "function " + wrapperName + "(props) {\n"
)

// lower runs esbuild over src wrapped in a function, so that body-style
// components with a top-level return are valid. It returns the code
// esbuild emitted before the wrapper (helpers) and the tokens of the full
// output.
func lower(path component.Path, src string) (string, []syntax.Token, error) {
	result := api.Transform(wrapperHead+src+"\n}\n", api.TransformOptions{
		Loader:      api.LoaderJSX,
		JSX:         api.JSXTransform,
		JSXFactory:  Factory,
		JSXFragment: FragmentName,
		Target:      api.ES2020,
		Charset:     api.CharsetUTF8,
		Sourcefile:  string(path) + ".jsx",
	})
	if len(result.Errors) > 0 {
		return "", nil, transformError(path, result.Errors[0])
	}

	code := string(result.Code)
	tokens, err := syntax.Tokenize(code)
	if err != nil {
		return "", nil, errors.TranspileFailed(string(path), "scan transpiled output", err)
	}
	return code, tokens, nil
}

func transformError(path component.Path, msg api.Message) error {
	detail := msg.Text
	if loc := msg.Location; loc != nil {
		// the wrapper adds one line before the source
		line := loc.Line - 1
		if line < 1 {
			line = 1
		}
		detail = fmt.Sprintf("%s (line %d, column %d)", msg.Text, line, loc.Column+1)
	}
	return errors.TranspileFailed(string(path), detail, nil)
}

// wrapperBody locates the wrapper function and its braces in the lowered
// tokens.
func wrapperBody(path component.Path, tokens []syntax.Token) (fn, open, end int, err error) {
	for i := 0; i+2 < len(tokens); i++ {
		if tokens[i].Is("function") && tokens[i+1].IsIdent(wrapperName) && tokens[i+2].Is("(") {
			params := syntax.Matching(tokens, i+2)
			if params < 0 || !tokens[params+1].Is("{") {
				break
			}
			open = params + 1
			end = syntax.Matching(tokens, open)
			if end < 0 {
				break
			}
			return i, open, end, nil
		}
	}
	return 0, 0, 0, errors.TranspileFailed(string(path), "transpiled output lost its wrapper", nil)
}

func trimBody(s string) string {
	return strings.Trim(s, "\n")
}
