// Package protocol defines the messages exchanged between isolation
// boundaries and the host bridge.
//
// There are exactly five message kinds, each a *struct implementing the
// sealed Message interface:
//
//	component.render              boundary -> host, serialized output + child manifest
//	component.update              host -> boundary, merge new props
//	component.callbackInvocation  any -> owner of a callback
//	component.callbackResponse    owner -> caller, correlated by request id
//	component.domCallback         mount surface -> boundary, fire-and-forget
//
// Encode and Decode use JSON with a "type" tag. Dispatch routes a message to
// a Handler; a Message outside the closed set is an error, and a panic in
// builds tagged componentdev.
//
// Callback method tokens have the form
//
//	{boundaryId}::{hash}::{callbackName}::{componentId?}
//
// and the first segment selects the routing target. The NoContainer target
// selects the host's method table.
//
// Mailbox is the asynchronous channel: an unbounded FIFO whose Post never
// blocks.
package protocol
