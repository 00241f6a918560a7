package repeat

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/hazyhaar/domcore/domtree"
)

func testEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func id(t *testing.T, doc *domtree.Document, h *html.Node) domtree.NodeID {
	t.Helper()
	n, ok := doc.Lookup(h)
	require.True(t, ok, "node %s not indexed", h.Data)
	return n
}

func ids(t *testing.T, doc *domtree.Document, hs ...*html.Node) []domtree.NodeID {
	t.Helper()
	out := make([]domtree.NodeID, len(hs))
	for i, h := range hs {
		out[i] = id(t, doc, h)
	}
	return out
}

// masked hides some nodes from the tree, as a host read failure would.
type masked struct {
	domtree.Tree
	hidden map[domtree.NodeID]bool
}

func (m masked) Tag(n domtree.NodeID) (string, bool) {
	if m.hidden[n] {
		return "", false
	}
	return m.Tree.Tag(n)
}

// abc builds five a[b, c] members where member 2 carries a second c.
func abc() (*html.Node, []*html.Node, *html.Node) {
	var members []*html.Node
	var extra *html.Node
	for i := range 5 {
		a := domtree.El("a", domtree.El("b"), domtree.El("c"))
		if i == 2 {
			extra = domtree.El("c")
			a.AppendChild(extra)
		}
		members = append(members, a)
	}
	return domtree.El("section", members), members, extra
}
