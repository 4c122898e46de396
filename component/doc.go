// Package component defines the identity model shared by the compiler, the
// boundary runtime and the host bridge.
//
// A Path (author/name) names a published component. An ID names one mounted
// instance of it: the path, an instance key, and the chain of parent
// instances, serialized with the reserved "##" delimiter:
//
//	bob/World##0##alice/Hello##root
//
// TrustMode is the annotation a render reference carries to decide whether
// the child is inlined into the caller's boundary.
package component
