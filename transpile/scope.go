package transpile

import (
	"github.com/wippyai/component-runtime/syntax"
)

// span is an inclusive range of token indices.
type span struct {
	from, to int
}

// scopes records, for each tracked name, the token ranges in which a local
// declaration shadows it.
type scopes struct {
	tokens  []syntax.Token
	pairs   map[int]int
	tracked map[string]bool
	shadows map[string][]span
}

func analyzeScopes(tokens []syntax.Token, tracked map[string]bool) *scopes {
	s := &scopes{
		tokens:  tokens,
		pairs:   bracketPairs(tokens),
		tracked: tracked,
		shadows: make(map[string][]span),
	}
	s.walk()
	return s
}

// bracketPairs maps each bracket token index to its partner, both ways.
func bracketPairs(tokens []syntax.Token) map[int]int {
	pairs := make(map[int]int)
	var stack []int
	for i, t := range tokens {
		if t.Kind != syntax.Punctuator {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			stack = append(stack, i)
		case ")", "]", "}":
			if len(stack) == 0 {
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pairs[open] = i
			pairs[i] = open
		}
	}
	return pairs
}

// shadowed reports whether name at token index i refers to a local
// declaration.
func (s *scopes) shadowed(name string, i int) bool {
	for _, sp := range s.shadows[name] {
		if i >= sp.from && i <= sp.to {
			return true
		}
	}
	return false
}

func (s *scopes) declare(name string, sp span) {
	if s.tracked[name] {
		s.shadows[name] = append(s.shadows[name], sp)
	}
}

func (s *scopes) partner(i int) int {
	if p, ok := s.pairs[i]; ok {
		return p
	}
	return len(s.tokens) - 1
}

func (s *scopes) walk() {
	var blocks []int
	enclosing := func() span {
		if len(blocks) == 0 {
			return span{0, len(s.tokens) - 1}
		}
		open := blocks[len(blocks)-1]
		return span{open, s.partner(open)}
	}

	for i := 0; i < len(s.tokens); i++ {
		t := s.tokens[i]
		switch {
		case t.Is("{"):
			blocks = append(blocks, i)
		case t.Is("}"):
			if len(blocks) > 0 {
				blocks = blocks[:len(blocks)-1]
			}
		case t.Is("const") || t.Is("let") || t.Is("var"):
			s.declarators(i+1, enclosing())
		case t.Is("class"):
			if n := s.at(i + 1); n.Kind == syntax.Identifier {
				s.declare(n.Text, enclosing())
			}
		case t.Is("function"):
			s.function(i, enclosing())
		case t.Is("catch"):
			if s.at(i + 1).Is("(") {
				params := s.partner(i + 1)
				end := params
				if s.at(params + 1).Is("{") {
					end = s.partner(params + 1)
				}
				s.pattern(i+2, params, span{i + 1, end})
			}
		case t.Is("=>"):
			s.arrow(i)
		}
	}
}

func (s *scopes) at(i int) syntax.Token {
	if i < 0 || i >= len(s.tokens) {
		return syntax.Token{Kind: syntax.EOF}
	}
	return s.tokens[i]
}

// declarators handles the binding list after const, let or var.
func (s *scopes) declarators(i int, scope span) {
	for i < len(s.tokens) {
		t := s.tokens[i]
		switch {
		case t.Kind == syntax.Identifier:
			s.declare(t.Text, scope)
			i++
		case t.Is("{") || t.Is("["):
			end := s.partner(i)
			s.pattern(i+1, end, scope)
			i = end + 1
		default:
			return
		}

		if s.at(i).Is("=") {
			i = s.expressionEnd(i+1) + 1
		}
		if !s.at(i).Is(",") {
			return
		}
		i++
	}
}

// function handles a function declaration or expression starting at i.
func (s *scopes) function(i int, scope span) {
	j := i + 1
	if s.at(j).Is("*") {
		j++
	}
	if n := s.at(j); n.Kind == syntax.Identifier {
		s.declare(n.Text, scope)
		j++
	}
	if !s.at(j).Is("(") {
		return
	}
	params := s.partner(j)
	end := params
	if s.at(params + 1).Is("{") {
		end = s.partner(params + 1)
	}
	s.pattern(j+1, params, span{j, end})
}

// arrow handles the parameters of the arrow function whose "=>" is at i.
func (s *scopes) arrow(i int) {
	var end int
	if s.at(i + 1).Is("{") {
		end = s.partner(i + 1)
	} else {
		end = s.expressionEnd(i + 1)
	}

	prev := s.at(i - 1)
	switch {
	case prev.Kind == syntax.Identifier:
		s.declare(prev.Text, span{i - 1, end})
	case prev.Is(")"):
		open := s.partner(i - 1)
		s.pattern(open+1, i-1, span{open, end})
	}
}

// pattern declares every binding name in tokens[from:to], skipping
// property keys and default values.
func (s *scopes) pattern(from, to int, scope span) {
	for k := from; k < to && k < len(s.tokens); k++ {
		t := s.tokens[k]
		switch {
		case t.Is("="):
			k = s.expressionEnd(k+1)
		case t.Is("["):
			// computed key inside an object pattern
			if s.at(k-1).Is("{") || s.at(k-1).Is(",") {
				if end := s.partner(k); s.at(end + 1).Is(":") {
					k = end
				}
			}
		case t.Kind == syntax.Identifier:
			if s.at(k + 1).Is(":") {
				continue
			}
			s.declare(t.Text, scope)
		}
	}
}

// expressionEnd returns the index of the last token of the expression that
// starts at i, stopping before a comma, semicolon or unmatched closer at
// depth zero.
func (s *scopes) expressionEnd(i int) int {
	depth := 0
	for k := i; k < len(s.tokens); k++ {
		t := s.tokens[k]
		if t.Kind == syntax.EOF {
			return k - 1
		}
		if t.Kind != syntax.Punctuator && !(depth == 0 && (t.Is("of") || t.Is("in"))) {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth == 0 {
				return k - 1
			}
			depth--
		case ",", ";", "of", "in":
			if depth == 0 {
				return k - 1
			}
		}
	}
	return len(s.tokens) - 1
}
