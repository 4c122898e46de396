// Package trust decides which descendants of a component are inlined into
// its boundary.
//
// A compilation starts from a root mode. Sandboxed and unannotated roots
// never inline. Trusted roots inline only descendants whose render site is
// itself annotated as trusted. TrustedAuthor roots additionally inline
// unannotated descendants published by the root's author, at any depth.
//
// The Predicate returned by RootPredicate carries that author rule and must
// be threaded through recursive compilation as is; a descendant's own mode
// never replaces it.
package trust
