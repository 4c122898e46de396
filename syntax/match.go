package syntax

var closers = map[string]string{"(": ")", "[": "]", "{": "}"}

// Matching returns the index of the bracket closing tokens[open], or -1 if
// tokens[open] is not an opening bracket or is unbalanced.
func Matching(tokens []Token, open int) int {
	if open < 0 || open >= len(tokens) || tokens[open].Kind != Punctuator {
		return -1
	}
	if _, ok := closers[tokens[open].Text]; !ok {
		return -1
	}

	var stack []string
	for i := open; i < len(tokens); i++ {
		t := tokens[i]
		if t.Kind != Punctuator {
			continue
		}
		if c, ok := closers[t.Text]; ok {
			stack = append(stack, c)
			continue
		}
		if len(stack) > 0 && t.Text == stack[len(stack)-1] {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// SplitTopLevel splits tokens[from:to] on commas that are not nested in
// brackets. Each part is returned as a [start, end) token index pair.
func SplitTopLevel(tokens []Token, from, to int) [][2]int {
	var parts [][2]int
	depth := 0
	start := from
	for i := from; i < to; i++ {
		t := tokens[i]
		if t.Kind != Punctuator {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 0 {
				parts = append(parts, [2]int{start, i})
				start = i + 1
			}
		}
	}
	if start < to {
		parts = append(parts, [2]int{start, to})
	}
	return parts
}
