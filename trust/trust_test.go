package trust

import (
	"testing"

	"github.com/wippyai/component-runtime/component"
)

func TestIsChildTrusted(t *testing.T) {
	authorA := RootPredicate(component.TrustTrustedAuthor, "alice/Root")

	tests := []struct {
		name     string
		explicit component.TrustMode
		child    component.Path
		parent   Predicate
		want     bool
	}{
		{"same author unannotated", component.TrustUnset, "alice/Child", authorA, true},
		{"other author unannotated", component.TrustUnset, "bob/Child", authorA, false},
		{"other author trusted", component.TrustTrusted, "bob/Child", authorA, true},
		{"other author trusted-author", component.TrustTrustedAuthor, "bob/Child", authorA, true},
		{"same author sandboxed", component.TrustSandboxed, "alice/Child", authorA, false},
		{"trusted root unannotated", component.TrustUnset, "alice/Child", RootPredicate(component.TrustTrusted, "alice/Root"), false},
		{"sandboxed root explicit", component.TrustTrusted, "alice/Child", RootPredicate(component.TrustSandboxed, "alice/Root"), true},
		{"nil predicate", component.TrustUnset, "alice/Child", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsChildTrusted(tt.explicit, tt.child, tt.parent); got != tt.want {
				t.Errorf("IsChildTrusted(%v, %s) = %v, want %v", tt.explicit, tt.child, got, tt.want)
			}
		})
	}
}

func TestPredicateSurvivesDepth(t *testing.T) {
	// a trusted-author root keeps matching its own author below a child
	// inlined from another author
	pred := RootPredicate(component.TrustTrustedAuthor, "alice/Root")
	if !IsChildTrusted(component.TrustTrusted, "bob/Mid", pred) {
		t.Fatal("bob/Mid should be inlined by explicit annotation")
	}
	if !IsChildTrusted(component.TrustUnset, "alice/Leaf", pred) {
		t.Error("alice/Leaf under bob/Mid should inherit the root author rule")
	}
	if IsChildTrusted(component.TrustUnset, "bob/Leaf", pred) {
		t.Error("bob/Leaf should not be trusted by the alice root")
	}
}

func TestIsRootTrusted(t *testing.T) {
	if IsRootTrusted(component.TrustUnset) || IsRootTrusted(component.TrustSandboxed) {
		t.Error("unset and sandboxed roots must not be trusted")
	}
	if !IsRootTrusted(component.TrustTrusted) || !IsRootTrusted(component.TrustTrustedAuthor) {
		t.Error("trusted roots must be trusted")
	}
}

func TestParseAnnotation(t *testing.T) {
	tests := map[string]component.TrustMode{
		`{ mode: "trusted" }`:          component.TrustTrusted,
		`{mode:'sandboxed'}`:           component.TrustSandboxed,
		`{ mode: "trusted-author" }`:   component.TrustTrustedAuthor,
		`{ mode: "bogus" }`:            component.TrustUnset,
		`someVariable`:                 component.TrustUnset,
		`{ other: 1, mode: "trusted"}`: component.TrustTrusted,
	}
	for text, want := range tests {
		if got := ParseAnnotation(text); got != want {
			t.Errorf("ParseAnnotation(%q) = %v, want %v", text, got, want)
		}
	}
}
