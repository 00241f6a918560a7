// CLAUDE:SUMMARY Read-only element tree accessor used by the repeat engine: NodeID, Tree interface, subtree views.
// Package domtree exposes a rendered document as a narrow, read-only element
// tree. Node identities are small integers assigned in document (preorder)
// order, so comparing two IDs compares their document position.
//
// The repeat engine only talks to the Tree interface; Document is the
// x/net/html backed implementation used by the CLI, HTTP API and MCP tools.
package domtree

// NodeID identifies an element inside a Tree. IDs are assigned in preorder,
// so a < b means a precedes b in the document.
type NodeID int

// None is the zero handle: "no node".
const None NodeID = -1

// Tree is the read-only view the engine consumes. A false or empty result
// means the node is unreadable or not an element; callers treat that as a
// non-match for the branch, never as a failure.
type Tree interface {
	// Root returns the topmost element, or None for an empty tree.
	Root() NodeID
	// Tag returns the lower-cased tag name.
	Tag(n NodeID) (string, bool)
	// Parent returns the parent element. The root has no parent.
	Parent(n NodeID) (NodeID, bool)
	// Children returns the element children in document order.
	Children(n NodeID) []NodeID
	// SiblingOrdinal returns the 1-based rank of n among element siblings
	// sharing its tag, or 0 when unknown.
	SiblingOrdinal(n NodeID) int
	// Attr looks up an attribute value.
	Attr(n NodeID, key string) (string, bool)
}

// View re-roots a Tree at an inner node. Everything except Root delegates to
// the underlying tree, so path signatures still start at the document root.
type View struct {
	Tree
	root NodeID
}

// Subtree returns a View of t rooted at n.
func Subtree(t Tree, n NodeID) View {
	return View{Tree: t, root: n}
}

// Root implements Tree.
func (v View) Root() NodeID {
	if _, ok := v.Tree.Tag(v.root); !ok {
		return None
	}
	return v.root
}

// ChildCount returns len(t.Children(n)).
func ChildCount(t Tree, n NodeID) int {
	return len(t.Children(n))
}
