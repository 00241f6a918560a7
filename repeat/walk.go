package repeat

import "github.com/hazyhaar/domcore/domtree"

type frame struct {
	n     domtree.NodeID
	depth int
}

// Walk visits the readable elements under root in preorder with an explicit
// stack. visit returning false stops the walk. Nodes deeper than
// lim.MaxDepth are skipped and the walk ends once lim.MaxNodes nodes were
// visited; either case reports truncated.
func Walk(t domtree.Tree, root domtree.NodeID, lim Limits, visit func(n domtree.NodeID, depth int) bool) (truncated bool) {
	if _, ok := t.Tag(root); !ok {
		return false
	}
	seen := 0
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if lim.MaxDepth > 0 && f.depth > lim.MaxDepth {
			truncated = true
			continue
		}
		if lim.MaxNodes > 0 && seen >= lim.MaxNodes {
			return true
		}
		if _, ok := t.Tag(f.n); !ok {
			continue
		}
		seen++
		if !visit(f.n, f.depth) {
			return truncated
		}
		kids := t.Children(f.n)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: kids[i], depth: f.depth + 1})
		}
	}
	return truncated
}

// preorder collects the subtree of root in preorder.
func preorder(t domtree.Tree, root domtree.NodeID, lim Limits) ([]domtree.NodeID, bool) {
	var out []domtree.NodeID
	truncated := Walk(t, root, lim, func(n domtree.NodeID, _ int) bool {
		out = append(out, n)
		return true
	})
	return out, truncated
}
