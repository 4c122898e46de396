package component

import (
	"strings"

	"github.com/wippyai/component-runtime/errors"
)

// IDDelimiter separates the segments of a serialized ID.
const IDDelimiter = "##"

// RootKey is the instance key of a boundary root mounted by the host.
const RootKey = "root"

// ID is the runtime identity of one mounted component instance.
// The parent chain makes two instances of the same path under different
// parents distinct.
type ID struct {
	Parent      *ID
	Path        Path
	InstanceKey string
}

// NewRootID returns the identity of a component mounted directly by the host.
func NewRootID(path Path) ID {
	return ID{Path: path, InstanceKey: RootKey}
}

var keyEscaper = strings.NewReplacer("%", "%25", "#", "%23")

// EscapeKey rewrites a user supplied key so it cannot contain the ID
// delimiter. Distinct keys stay distinct.
func EscapeKey(key string) string {
	return keyEscaper.Replace(key)
}

// Child returns the identity of a descendant rendered by id. key must
// already be free of the delimiter; see EscapeKey.
func (id ID) Child(path Path, key string) ID {
	parent := id
	return ID{Parent: &parent, Path: path, InstanceKey: key}
}

// IsZero reports whether id is unset.
func (id ID) IsZero() bool {
	return id.Path == "" && id.InstanceKey == "" && id.Parent == nil
}

// String serializes id as path##key##parent-path##parent-key...
func (id ID) String() string {
	var b strings.Builder
	cur := &id
	for cur != nil {
		if b.Len() > 0 {
			b.WriteString(IDDelimiter)
		}
		b.WriteString(string(cur.Path))
		b.WriteString(IDDelimiter)
		b.WriteString(cur.InstanceKey)
		cur = cur.Parent
	}
	return b.String()
}

// ParseID reconstructs an ID from its serialized form. A bare path is
// accepted and treated as a root instance.
func ParseID(s string) (ID, error) {
	parts := strings.Split(s, IDDelimiter)
	if len(parts) == 1 {
		p, err := ParsePath(parts[0])
		if err != nil {
			return ID{}, err
		}
		return NewRootID(p), nil
	}
	if len(parts)%2 != 0 {
		return ID{}, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Value(s).
			Detail("component id %q has an odd number of segments", s).
			Build()
	}

	var parent *ID
	for i := len(parts) - 2; i >= 0; i -= 2 {
		p, err := ParsePath(parts[i])
		if err != nil {
			return ID{}, err
		}
		key := parts[i+1]
		if key == "" {
			return ID{}, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
				Value(s).
				Detail("component id %q has an empty instance key", s).
				Build()
		}
		cur := ID{Parent: parent, Path: p, InstanceKey: key}
		parent = &cur
	}
	return *parent, nil
}

// Root walks the parent chain to the outermost instance.
func (id ID) Root() ID {
	cur := id
	for cur.Parent != nil {
		cur = *cur.Parent
	}
	return cur
}

// Depth returns the number of ancestors.
func (id ID) Depth() int {
	n := 0
	for cur := id.Parent; cur != nil; cur = cur.Parent {
		n++
	}
	return n
}
