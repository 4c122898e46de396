// Package serialize converts values at a boundary's edge.
//
// Outgoing values pass through SerializeProps, SerializeArgs, SerializeValue
// or SerializeNode. Functions are registered in the boundary's callback
// table and replaced by a token:
//
//	{"$callback": "<boundaryId>::<hash>::<propPath>[::<componentId>]"}
//
// The hash covers the boundary id, the function source, the prop path and
// the component instance, so the same closure rendered again keeps its
// token. Elements become {"$node": Node}. Descendant components found in a
// render tree become placeholders and are reported as ChildMetadata.
// Event-like arguments are reduced to {target: {value, checked, name, type}}.
//
// Incoming values pass through the Deserialize methods. Tokens owned by the
// same boundary resolve to the local function; foreign tokens become a Stub
// that emits a CallbackInvocation and returns the pending request.
//
// Plain data (numbers, strings, booleans, nil, maps and slices of those)
// round-trips unchanged. A map whose only key is "$callback", "$node" or
// "$escape" is sent as {"$escape": map} and unwrapped on the way in.
package serialize
