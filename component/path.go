package component

import (
	"strings"

	"github.com/wippyai/component-runtime/errors"
)

// Path identifies a published component as author/name.
type Path string

// ParsePath validates s as an author/name component path.
func ParsePath(s string) (Path, error) {
	author, name, ok := strings.Cut(s, "/")
	if !ok || author == "" || name == "" || strings.Contains(name, "/") {
		return "", errors.New(errors.PhaseFetch, errors.KindInvalidInput).
			Value(s).
			Detail("component path %q must be author/name", s).
			Build()
	}
	if strings.Contains(s, IDDelimiter) {
		return "", errors.New(errors.PhaseFetch, errors.KindInvalidInput).
			Value(s).
			Detail("component path %q contains reserved delimiter %q", s, IDDelimiter).
			Build()
	}
	return Path(s), nil
}

// MustParsePath is ParsePath for literals known to be valid.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Author returns the account that published the component.
func (p Path) Author() string {
	author, _, _ := strings.Cut(string(p), "/")
	return author
}

// Name returns the component name without the author.
func (p Path) Name() string {
	_, name, _ := strings.Cut(string(p), "/")
	return name
}

// Segments returns the dotted name segments (Nav.Bar -> [Nav Bar]).
func (p Path) Segments() []string {
	return strings.Split(p.Name(), ".")
}

func (p Path) String() string {
	return string(p)
}
