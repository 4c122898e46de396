package syntax

// Kind classifies a token.
type Kind uint8

const (
	EOF Kind = iota
	Identifier
	Keyword
	Number
	String
	Template
	RegExp
	Punctuator
)

var kindNames = [...]string{
	EOF:        "eof",
	Identifier: "identifier",
	Keyword:    "keyword",
	Number:     "number",
	String:     "string",
	Template:   "template",
	RegExp:     "regexp",
	Punctuator: "punctuator",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is one lexical token. Start and End are byte offsets into the
// scanned source; Text is src[Start:End].
type Token struct {
	Text  string
	Start int
	End   int
	Line  int
	Kind  Kind
}

// Is reports whether t is a punctuator or keyword with the given text.
func (t Token) Is(text string) bool {
	return (t.Kind == Punctuator || t.Kind == Keyword) && t.Text == text
}

// IsIdent reports whether t is the identifier name.
func (t Token) IsIdent(name string) bool {
	return t.Kind == Identifier && t.Text == name
}

// StringValue returns the unquoted value of a simple string literal. Escape
// sequences other than quotes and backslashes are kept verbatim.
func (t Token) StringValue() (string, bool) {
	if t.Kind != String || len(t.Text) < 2 {
		return "", false
	}
	body := t.Text[1 : len(t.Text)-1]
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			next := body[i+1]
			if next == '\\' || next == '\'' || next == '"' {
				out = append(out, next)
				i++
				continue
			}
		}
		out = append(out, c)
	}
	return string(out), true
}

var keywords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "let": true, "new": true,
	"null": true, "of": true, "return": true, "super": true, "switch": true,
	"this": true, "throw": true, "true": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
	"async": true,
}

// IsKeyword reports whether name is treated as a keyword by the scanner.
func IsKeyword(name string) bool {
	return keywords[name]
}

// regexpAfter lists keywords after which a slash starts a regular
// expression rather than a division.
var regexpAfter = map[string]bool{
	"return": true, "typeof": true, "case": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true,
	"instanceof": true, "yield": true, "await": true, "else": true, "do": true,
}
