package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wippyai/component-runtime/errors"
)

var punctuators = []string{
	">>>=", "...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
}

type scanner struct {
	src    string
	tokens []Token
	// templates holds, for each open template interpolation, the number of
	// unclosed braces inside it
	templates []int
	pos       int
	line      int
}

// Tokenize scans JavaScript source into tokens. Comments and whitespace are
// dropped; offsets refer to src. The final token has Kind EOF.
func Tokenize(src string) ([]Token, error) {
	s := &scanner{src: src, line: 1}
	for {
		if err := s.skipTrivia(); err != nil {
			return nil, err
		}
		if s.pos >= len(s.src) {
			break
		}
		if err := s.next(); err != nil {
			return nil, err
		}
	}
	if len(s.templates) > 0 {
		return nil, s.fail(len(s.src), "unterminated template literal")
	}
	s.tokens = append(s.tokens, Token{Kind: EOF, Start: len(src), End: len(src), Line: s.line})
	return s.tokens, nil
}

func (s *scanner) fail(at int, msg string) error {
	return errors.New(errors.PhaseParse, errors.KindInvalidData).
		Value(at).
		Detail("%s at offset %d (line %d)", msg, at, s.line).
		Build()
}

func (s *scanner) emit(kind Kind, start int) {
	s.tokens = append(s.tokens, Token{
		Kind:  kind,
		Text:  s.src[start:s.pos],
		Start: start,
		End:   s.pos,
		Line:  s.line,
	})
}

func (s *scanner) skipTrivia() error {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\n':
			s.line++
			s.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			s.pos++
		case strings.HasPrefix(s.src[s.pos:], "//"):
			end := strings.IndexByte(s.src[s.pos:], '\n')
			if end < 0 {
				s.pos = len(s.src)
			} else {
				s.pos += end
			}
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			end := strings.Index(s.src[s.pos+2:], "*/")
			if end < 0 {
				return s.fail(s.pos, "unterminated comment")
			}
			s.line += strings.Count(s.src[s.pos:s.pos+2+end], "\n")
			s.pos += end + 4
		default:
			r, size := utf8.DecodeRuneInString(s.src[s.pos:])
			if r == '\u00a0' || r == '\ufeff' || r == '\u2028' || r == '\u2029' {
				s.pos += size
				continue
			}
			return nil
		}
	}
	return nil
}

func (s *scanner) next() error {
	start := s.pos
	c := s.src[s.pos]

	switch {
	case c == '"' || c == '\'':
		return s.scanString(c)
	case c == '`':
		s.pos++
		return s.scanTemplate(start)
	case c == '}' && len(s.templates) > 0 && s.templates[len(s.templates)-1] == 0:
		s.templates = s.templates[:len(s.templates)-1]
		s.pos++
		return s.scanTemplate(start)
	case isDigit(c) || (c == '.' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1])):
		s.scanNumber()
		return nil
	case c == '/' && s.regexpAllowed():
		return s.scanRegExp()
	}

	if r, _ := utf8.DecodeRuneInString(s.src[s.pos:]); isIdentStart(r) {
		s.scanIdent()
		return nil
	}

	for _, p := range punctuators {
		if strings.HasPrefix(s.src[s.pos:], p) {
			if p == "?." && s.pos+2 < len(s.src) && isDigit(s.src[s.pos+2]) {
				break
			}
			s.pos += len(p)
			s.emit(Punctuator, start)
			return nil
		}
	}

	switch c {
	case '{':
		if n := len(s.templates); n > 0 {
			s.templates[n-1]++
		}
	case '}':
		if n := len(s.templates); n > 0 {
			s.templates[n-1]--
		}
	}
	if strings.IndexByte("{}()[];,<>+-*/%&|^!~?:=.@#", c) < 0 {
		return s.fail(s.pos, "unexpected character "+string(rune(c)))
	}
	s.pos++
	s.emit(Punctuator, start)
	return nil
}

func (s *scanner) scanString(quote byte) error {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
		case quote:
			s.pos++
			s.emit(String, start)
			return nil
		case '\n':
			return s.fail(start, "unterminated string")
		default:
			s.pos++
		}
	}
	return s.fail(start, "unterminated string")
}

// scanTemplate scans a template chunk from just after its opening "`" or
// "}" to the closing "`" or the next "${".
func (s *scanner) scanTemplate(start int) error {
	for s.pos < len(s.src) {
		switch c := s.src[s.pos]; {
		case c == '\\':
			s.pos += 2
		case c == '`':
			s.pos++
			s.emit(Template, start)
			return nil
		case c == '$' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '{':
			s.pos += 2
			s.emit(Template, start)
			s.templates = append(s.templates, 0)
			return nil
		default:
			if c == '\n' {
				s.line++
			}
			s.pos++
		}
	}
	return s.fail(start, "unterminated template literal")
}

func (s *scanner) scanNumber() {
	start := s.pos
	if s.src[s.pos] == '0' && s.pos+1 < len(s.src) && strings.IndexByte("xXoObB", s.src[s.pos+1]) >= 0 {
		s.pos += 2
		for s.pos < len(s.src) && (isHex(s.src[s.pos]) || s.src[s.pos] == '_') {
			s.pos++
		}
	} else {
		for s.pos < len(s.src) {
			c := s.src[s.pos]
			if isDigit(c) || c == '.' || c == '_' {
				s.pos++
				continue
			}
			if (c == 'e' || c == 'E') && s.pos+1 < len(s.src) {
				s.pos++
				if s.src[s.pos] == '+' || s.src[s.pos] == '-' {
					s.pos++
				}
				continue
			}
			break
		}
	}
	if s.pos < len(s.src) && s.src[s.pos] == 'n' {
		s.pos++
	}
	s.emit(Number, start)
}

func (s *scanner) scanRegExp() error {
	start := s.pos
	s.pos++
	inClass := false
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\':
			s.pos += 2
			continue
		case c == '\n':
			return s.fail(start, "unterminated regular expression")
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			s.pos++
			for s.pos < len(s.src) && isIdentPart(rune(s.src[s.pos])) {
				s.pos++
			}
			s.emit(RegExp, start)
			return nil
		}
		s.pos++
	}
	return s.fail(start, "unterminated regular expression")
}

func (s *scanner) scanIdent() {
	start := s.pos
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !isIdentPart(r) {
			break
		}
		s.pos += size
	}
	kind := Identifier
	if IsKeyword(s.src[start:s.pos]) {
		kind = Keyword
	}
	// keywords used as property names stay identifiers
	if kind == Keyword && len(s.tokens) > 0 {
		if prev := s.tokens[len(s.tokens)-1]; prev.Kind == Punctuator && (prev.Text == "." || prev.Text == "?.") {
			kind = Identifier
		}
	}
	s.emit(kind, start)
}

func (s *scanner) regexpAllowed() bool {
	if len(s.tokens) == 0 {
		return true
	}
	prev := s.tokens[len(s.tokens)-1]
	switch prev.Kind {
	case Identifier, Number, String, RegExp:
		return false
	case Template:
		// a chunk ending in "${" opens an expression
		return strings.HasSuffix(prev.Text, "${")
	case Keyword:
		return regexpAfter[prev.Text]
	case Punctuator:
		return prev.Text != ")" && prev.Text != "]" && prev.Text != "}"
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '\u200c' || r == '\u200d'
}
