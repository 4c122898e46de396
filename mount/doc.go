// Package mount defines where the host bridge puts boundary output.
//
// A Surface receives one serialized node per component id. Descendant
// boundaries appear in their parent's node as placeholders; Memory composes
// them back into a single tree:
//
//	m := mount.NewMemory()
//	// ... bridge mounts into m ...
//	tree, _ := m.Tree("alice/Page##root")
//	fmt.Println(mount.Markup(tree))
//
// The socketio subpackage mirrors the same calls to a remote page.
package mount
