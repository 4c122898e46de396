// Package errors provides structured error types for the component runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the component path, a value path, a detail message and
// the cause chain.
//
// The taxonomy maps onto the runtime's failure policy:
//
//	PhaseParse     malformed import/export, logged and degraded to unmodified source
//	PhaseFetch     missing component source, aborts only the affected subtree
//	PhaseTranspile malformed component body, fails the whole root compilation
//	PhaseInvoke    a callback threw, shipped back inside a callback response
//	PhaseCorrelate response for an unknown request id, logged and dropped
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseSerialize, errors.KindUnsupported).
//		Component("alice/Hello").
//		Path("props", "onClick").
//		Detail("cannot serialize %T", v).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ComponentNotFound("bob/World", cause)
//	err := errors.UnknownRequest("r1")
//
// All errors implement the standard error interface and support errors.Is/As.
// The exported sentinels (ErrComponentNotFound, ErrDuplicateName, ...) match any
// error with the same Phase and Kind.
package errors
