package repeat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/hazyhaar/domcore/domtree"
)

// sizedItem returns an li whose subtree holds exactly size elements.
func sizedItem(size int) *html.Node {
	li := domtree.El("li")
	for range size - 1 {
		li.AppendChild(domtree.El("span"))
	}
	return li
}

func TestSelectReference_LowerMedian(t *testing.T) {
	tests := []struct {
		name      string
		sizes     []int
		wantIndex int
		wantSize  int
	}{
		{"odd", []int{5, 1, 3, 2, 4}, 2, 3},
		{"even uses index n/2", []int{5, 1, 3, 2}, 2, 3},
		{"ties keep document order", []int{2, 2, 2, 2}, 2, 2},
		{"single", []int{7}, 0, 7},
		{"outlier does not win", []int{3, 3, 40, 3, 3}, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items []*html.Node
			for _, s := range tt.sizes {
				items = append(items, sizedItem(s))
			}
			doc := domtree.FromNode(domtree.El("ul", items))
			members := doc.Children(doc.Root())

			ref, ok := SelectReference(doc, members, Limits{})
			require.True(t, ok)
			assert.Equal(t, tt.wantSize, ref.Size)
			assert.Equal(t, tt.wantIndex, ref.Index)
			assert.Equal(t, members[tt.wantIndex], ref.Node)
		})
	}
}

func TestSelectReference_TiesFollowDocumentOrder(t *testing.T) {
	doc := domtree.FromNode(domtree.El("ul", sizedItem(1), sizedItem(2), sizedItem(2), sizedItem(2), sizedItem(9)))
	members := doc.Children(doc.Root())

	// sorted: 1, 2(m1), 2(m2), 2(m3), 9 -> index 2 is m2
	ref, ok := SelectReference(doc, members, Limits{})
	require.True(t, ok)
	assert.Equal(t, 2, ref.Index)
}

func TestSelectReference_NoReadableMember(t *testing.T) {
	_, ok := SelectReference(domtree.FromNode(domtree.El("div")), []domtree.NodeID{17, 23}, Limits{})
	assert.False(t, ok)
}

func TestSubtreeSize_DeepChainIsIterative(t *testing.T) {
	const depth = 100_000
	top := domtree.El("div")
	cur := top
	for range depth {
		c := domtree.El("div")
		cur.AppendChild(c)
		cur = c
	}
	doc := domtree.FromNode(top)

	n, truncated := SubtreeSize(doc, doc.Root(), Limits{})
	assert.Equal(t, depth+1, n)
	assert.False(t, truncated)

	n, truncated = SubtreeSize(doc, doc.Root(), Limits{MaxNodes: 4000, MaxDepth: 1000})
	assert.Equal(t, 1001, n)
	assert.True(t, truncated)
}

func TestSubtreeSize_MaxNodes(t *testing.T) {
	doc := domtree.FromNode(sizedItem(10))
	n, truncated := SubtreeSize(doc, doc.Root(), Limits{MaxNodes: 4})
	assert.Equal(t, 4, n)
	assert.True(t, truncated)
}
