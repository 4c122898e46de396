package component

import (
	"encoding/json"

	"github.com/wippyai/component-runtime/errors"
)

// TrustMode controls whether a rendered child is inlined into its caller's
// boundary or isolated in its own.
type TrustMode uint8

const (
	// TrustUnset means the render reference carried no annotation.
	TrustUnset TrustMode = iota
	// TrustSandboxed always isolates the child.
	TrustSandboxed
	// TrustTrusted inlines the child into the caller's boundary.
	TrustTrusted
	// TrustTrustedAuthor inlines the child and every descendant by the same author.
	TrustTrustedAuthor
)

var trustNames = map[TrustMode]string{
	TrustUnset:         "",
	TrustSandboxed:     "sandboxed",
	TrustTrusted:       "trusted",
	TrustTrustedAuthor: "trusted-author",
}

// ParseTrustMode accepts sandboxed, trusted and trusted-author. The empty
// string yields TrustUnset.
func ParseTrustMode(s string) (TrustMode, error) {
	for mode, name := range trustNames {
		if name == s {
			return mode, nil
		}
	}
	return TrustUnset, errors.New(errors.PhaseCompile, errors.KindInvalidInput).
		Value(s).
		Detail("unknown trust mode %q", s).
		Build()
}

func (m TrustMode) String() string {
	if name, ok := trustNames[m]; ok {
		if name == "" {
			return "unset"
		}
		return name
	}
	return "invalid"
}

// IsTrusted reports whether the mode inlines into the caller.
func (m TrustMode) IsTrusted() bool {
	return m == TrustTrusted || m == TrustTrustedAuthor
}

func (m TrustMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(trustNames[m])
}

func (m *TrustMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTrustMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML writes the mode by name, as in JSON.
func (m TrustMode) MarshalYAML() (any, error) {
	return trustNames[m], nil
}

func (m *TrustMode) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseTrustMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
