package repeat

import (
	"sort"

	"github.com/hazyhaar/domcore/domtree"
)

// Reference is the member every other member is aligned against.
type Reference struct {
	Node domtree.NodeID
	// Index is the position of Node in the group's Members.
	Index int
	// Size is the element count of Node's subtree, root included.
	Size      int
	Truncated bool
}

// SubtreeSize counts the elements under n, n included.
func SubtreeSize(t domtree.Tree, n domtree.NodeID, lim Limits) (int, bool) {
	count := 0
	truncated := Walk(t, n, lim, func(domtree.NodeID, int) bool {
		count++
		return true
	})
	return count, truncated
}

type sized struct {
	node  domtree.NodeID
	index int
	size  int
}

// SelectReference picks the lower-median member by subtree size. Equal
// sizes keep document order. ok is false when no member is readable.
func SelectReference(t domtree.Tree, members []domtree.NodeID, lim Limits) (Reference, bool) {
	ref, _, _ := selectReference(t, members, lim)
	return ref, ref.Node != domtree.None
}

// selectReference also returns the sizes of the readable members, which the
// engine reuses for diagnostics.
func selectReference(t domtree.Tree, members []domtree.NodeID, lim Limits) (Reference, []domtree.NodeID, []float64) {
	var (
		arr       []sized
		truncated bool
	)
	for i, m := range members {
		if _, ok := t.Tag(m); !ok {
			continue
		}
		size, tr := SubtreeSize(t, m, lim)
		truncated = truncated || tr
		arr = append(arr, sized{node: m, index: i, size: size})
	}
	if len(arr) == 0 {
		return Reference{Node: domtree.None, Index: -1}, nil, nil
	}

	readable := make([]domtree.NodeID, len(arr))
	sizes := make([]float64, len(arr))
	for i, s := range arr {
		readable[i] = s.node
		sizes[i] = float64(s.size)
	}

	sort.SliceStable(arr, func(i, j int) bool { return arr[i].size < arr[j].size })
	mid := arr[len(arr)/2]
	return Reference{Node: mid.node, Index: mid.index, Size: mid.size, Truncated: truncated}, readable, sizes
}
