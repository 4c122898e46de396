package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse     Phase = "parse"     // import/export extraction
	PhaseFetch     Phase = "fetch"     // source lookup
	PhaseTranspile Phase = "transpile" // JSX to JS transform
	PhaseCompile   Phase = "compile"   // tree assembly
	PhaseSerialize Phase = "serialize" // values crossing the boundary
	PhaseInvoke    Phase = "invoke"    // callback invocation
	PhaseCorrelate Phase = "correlate" // request/response matching
	PhaseProtocol  Phase = "protocol"  // message encoding
	PhaseRuntime   Phase = "runtime"   // boundary execution
	PhaseHost      Phase = "host"      // host method table
	PhaseMount     Phase = "mount"     // host bridge mounting
	PhaseStorage   Phase = "storage"   // persistent storage
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindInvalidData     Kind = "invalid_data"
	KindInvalidInput    Kind = "invalid_input"
	KindUnsupported     Kind = "unsupported"
	KindTypeMismatch    Kind = "type_mismatch"
	KindDuplicateName   Kind = "duplicate_name"
	KindRegistration    Kind = "registration"
	KindInstantiation   Kind = "instantiation"
	KindNotInitialized  Kind = "not_initialized"
	KindRemote          Kind = "remote"
	KindUnknownRequest  Kind = "unknown_request"
	KindUnknownCallback Kind = "unknown_callback"
	KindUnknownMessage  Kind = "unknown_message"
	KindClosed          Kind = "closed"
)

// Sentinels for errors.Is checks. Matching compares Phase and Kind only.
var (
	ErrComponentNotFound = &Error{Phase: PhaseFetch, Kind: KindNotFound}
	ErrDuplicateName     = &Error{Phase: PhaseCompile, Kind: KindDuplicateName}
	ErrUnknownRequest    = &Error{Phase: PhaseCorrelate, Kind: KindUnknownRequest}
	ErrTranspile         = &Error{Phase: PhaseTranspile, Kind: KindInvalidData}
	ErrParse             = &Error{Phase: PhaseParse, Kind: KindInvalidData}
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Component string
	Detail    string
	Path      []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Component != "" {
		b.WriteString(" in ")
		b.WriteString(e.Component)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Component sets the component path the error belongs to
func (b *Builder) Component(path string) *Builder {
	b.err.Component = path
	return b
}

// Path sets the value path (prop path, argument index)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the compile side

// ParseFailed creates a parsing error for malformed import/export syntax
func ParseFailed(component, detail string) *Error {
	return &Error{
		Phase:     PhaseParse,
		Kind:      KindInvalidData,
		Component: component,
		Detail:    detail,
	}
}

// ComponentNotFound creates a fetch error tagged with the missing component path
func ComponentNotFound(component string, cause error) *Error {
	return &Error{
		Phase:     PhaseFetch,
		Kind:      KindNotFound,
		Component: component,
		Detail:    fmt.Sprintf("component %q not found", component),
		Cause:     cause,
	}
}

// TranspileFailed creates a transpile error for a malformed component body
func TranspileFailed(component, detail string, cause error) *Error {
	return &Error{
		Phase:     PhaseTranspile,
		Kind:      KindInvalidData,
		Component: component,
		Detail:    detail,
		Cause:     cause,
	}
}

// DuplicateName creates an error for two component paths mapping to one generated function name
func DuplicateName(name, first, second string) *Error {
	return &Error{
		Phase:     PhaseCompile,
		Kind:      KindDuplicateName,
		Component: second,
		Detail:    fmt.Sprintf("generated name %q already used by %s", name, first),
		Value:     name,
	}
}

// Convenience constructors for the boundary side

// Invocation wraps an error raised by a callback
func Invocation(method string, cause error) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindRemote,
		Detail: fmt.Sprintf("invoke %s", method),
		Cause:  cause,
	}
}

// Remote rebuilds an error that arrived serialized in a callback response
func Remote(message string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindRemote,
		Detail: message,
	}
}

// UnknownRequest creates a correlation error for a response without a pending request
func UnknownRequest(id string) *Error {
	return &Error{
		Phase:  PhaseCorrelate,
		Kind:   KindUnknownRequest,
		Detail: fmt.Sprintf("no pending request %q", id),
		Value:  id,
	}
}

// UnknownCallback creates an error for an invocation naming an unregistered callback
func UnknownCallback(method string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindUnknownCallback,
		Detail: fmt.Sprintf("callback %q not registered", method),
		Value:  method,
	}
}

// UnknownMessage creates a protocol error for an unrecognized message type
func UnknownMessage(typ string) *Error {
	return &Error{
		Phase:  PhaseProtocol,
		Kind:   KindUnknownMessage,
		Detail: fmt.Sprintf("unknown message type %q", typ),
		Value:  typ,
	}
}

// Closed creates an error for operations on a torn-down boundary or bridge
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Registration creates a registration error
func Registration(phase Phase, namespace, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s.%s", namespace, name),
		Cause:  cause,
	}
}

// Instantiation creates a boundary instantiation error
func Instantiation(component string, cause error) *Error {
	return &Error{
		Phase:     PhaseRuntime,
		Kind:      KindInstantiation,
		Component: component,
		Detail:    "instantiate boundary",
		Cause:     cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// FailedComponent is a single descendant that could not be inlined
type FailedComponent struct {
	Cause error
	Path  string
}

// BranchErrors collects descendant failures that aborted their branch
// without failing the root compilation.
type BranchErrors struct {
	Failures []FailedComponent
}

func (e *BranchErrors) Error() string {
	if len(e.Failures) == 0 {
		return "[compile] no failed branches"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d component branch(es) failed:", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("\n  - ")
		b.WriteString(f.Path)
		if f.Cause != nil {
			b.WriteString(": ")
			b.WriteString(f.Cause.Error())
		}
	}
	return b.String()
}

// Add records a failed branch.
func (e *BranchErrors) Add(path string, cause error) {
	e.Failures = append(e.Failures, FailedComponent{Path: path, Cause: cause})
}

// Len returns the number of failed branches. A nil receiver has none.
func (e *BranchErrors) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Failures)
}

// Unwrap exposes every branch cause to errors.Is/As
func (e *BranchErrors) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Cause != nil {
			out = append(out, f.Cause)
		}
	}
	return out
}
