package protocol

import (
	"strings"

	"github.com/wippyai/component-runtime/errors"
)

// MethodSeparator separates the segments of a callback method token.
const MethodSeparator = "::"

var (
	segmentEscaper   = strings.NewReplacer("%", "%25", ":", "%3A")
	segmentUnescaper = strings.NewReplacer("%3A", ":", "%25", "%")
)

// Method identifies a callback registered inside a boundary. The first
// segment selects the routing target. Segments are escaped in the token so
// a prop path or instance key containing the separator survives.
type Method struct {
	BoundaryID  string
	Hash        string
	Name        string
	ComponentID string
}

func (m Method) String() string {
	parts := []string{m.BoundaryID, m.Hash, m.Name}
	if m.ComponentID != "" {
		parts = append(parts, m.ComponentID)
	}
	for i, p := range parts {
		parts[i] = segmentEscaper.Replace(p)
	}
	return strings.Join(parts, MethodSeparator)
}

// ParseMethod splits a method token into its segments.
func ParseMethod(s string) (Method, error) {
	parts := strings.Split(s, MethodSeparator)
	if len(parts) < 3 || len(parts) > 4 || parts[0] == "" || parts[1] == "" {
		return Method{}, errors.New(errors.PhaseProtocol, errors.KindInvalidData).
			Value(s).
			Detail("malformed callback method %q", s).
			Build()
	}
	for i, p := range parts {
		parts[i] = segmentUnescaper.Replace(p)
	}
	m := Method{BoundaryID: parts[0], Hash: parts[1], Name: parts[2]}
	if len(parts) == 4 {
		m.ComponentID = parts[3]
	}
	return m, nil
}

// RouteOf returns the boundary a method token belongs to.
func RouteOf(method string) string {
	target, _, _ := strings.Cut(method, MethodSeparator)
	return segmentUnescaper.Replace(target)
}
