package trust

import (
	"regexp"

	"github.com/wippyai/component-runtime/component"
)

// Predicate decides whether a descendant without an explicit trust
// annotation is inlined. It is fixed by the root of a compilation and
// passed unchanged to every level below it.
type Predicate func(child component.Path) bool

// Never trusts nothing. It is the predicate of sandboxed and trusted roots.
func Never(component.Path) bool { return false }

// SameAuthor trusts descendants published by author.
func SameAuthor(author string) Predicate {
	return func(child component.Path) bool {
		return child.Author() == author
	}
}

// RootPredicate returns the predicate for a compilation rooted at root with
// the given mode. Only TrustedAuthor roots extend trust to unannotated
// descendants.
func RootPredicate(mode component.TrustMode, root component.Path) Predicate {
	if mode == component.TrustTrustedAuthor {
		return SameAuthor(root.Author())
	}
	return Never
}

// IsRootTrusted reports whether a root compiled with mode runs its body
// with inlining enabled. A root without a mode is sandboxed.
func IsRootTrusted(mode component.TrustMode) bool {
	return mode.IsTrusted()
}

// IsChildTrusted decides whether child is inlined into the current
// boundary. An explicit Trusted or TrustedAuthor annotation inlines, an
// explicit Sandboxed annotation isolates, and otherwise the parent's
// predicate decides.
func IsChildTrusted(explicit component.TrustMode, child component.Path, parent Predicate) bool {
	switch explicit {
	case component.TrustTrusted, component.TrustTrustedAuthor:
		return true
	case component.TrustSandboxed:
		return false
	}
	if parent == nil {
		return false
	}
	return parent(child)
}

var modeLiteral = regexp.MustCompile(`\bmode\s*:\s*(?:"([^"]*)"|'([^']*)')`)

// ParseAnnotation reads the mode from the literal value of a render site's
// trust prop, such as `{ mode: "trusted" }`. Anything unrecognized is
// TrustUnset.
func ParseAnnotation(text string) component.TrustMode {
	m := modeLiteral.FindStringSubmatch(text)
	if m == nil {
		return component.TrustUnset
	}
	v := m[1]
	if v == "" {
		v = m[2]
	}
	mode, err := component.ParseTrustMode(v)
	if err != nil {
		return component.TrustUnset
	}
	return mode
}
