// Package callback holds the two tables a boundary keeps private: the
// callback table and the pending-request table.
//
// # Callback Table
//
// When a function value leaves a boundary it is replaced by a method token
// and registered here, so an inbound invocation can find it again:
//
//	table := callback.NewTable()
//	table.Register(token, componentID, fn)
//
//	fn, ok := table.Get(token)
//
// Re-registering a token replaces its function. RemoveComponent drops the
// callbacks handed to one component instance.
//
// # Pending Requests
//
// Invoking a function owned by another boundary creates a Request keyed by a
// process-unique id (a UUID by default). The matching callback response
// settles it:
//
//	req := requests.Create(method)
//	// ... emit component.callbackInvocation with req.ID ...
//	requests.Resolve(req.ID, value)
//
// A response for an unknown id returns errors.ErrUnknownRequest. A request
// that never receives a response stays pending; there is no timeout and no
// default value.
package callback
