package serialize

// eventFields is the subset of an event target allowed across a boundary.
var eventFields = []string{"value", "checked", "name", "type"}

// IsEventLike reports whether v looks like a UI event: a map with a target
// map and either a type or a preventDefault member.
func IsEventLike(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := m["target"].(map[string]any); !ok {
		return false
	}
	_, hasType := m["type"]
	_, hasPrevent := m["preventDefault"]
	return hasType || hasPrevent
}

// SanitizeEvent reduces an event-like value to {target: {value, checked,
// name, type}}. Other values are returned unchanged.
func SanitizeEvent(v any) any {
	if !IsEventLike(v) {
		return v
	}
	target := v.(map[string]any)["target"].(map[string]any)
	safe := make(map[string]any, len(eventFields))
	for _, f := range eventFields {
		if fv, ok := target[f]; ok {
			safe[f] = fv
		}
	}
	return map[string]any{"target": safe}
}

// SanitizeArgs applies SanitizeEvent to every argument.
func SanitizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = SanitizeEvent(a)
	}
	return out
}
