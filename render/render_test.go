package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/domcore/domtree"
	"github.com/hazyhaar/domcore/features"
	"github.com/hazyhaar/domcore/repeat"
)

const page = `<html><body><ol class="comment-list">` +
	`<li><b>ann</b><p>first</p></li>` +
	`<li><b>bob</b><p>second</p></li>` +
	`<li><b>cy</b><p>third</p></li>` +
	`<li><b>dee</b><p>fourth <a href="/x">link</a></p></li>` +
	`</ol></body></html>`

func analyzed(t *testing.T) (*domtree.Document, *repeat.FlagSet, []repeat.Group) {
	t.Helper()
	doc, err := domtree.ParseString(page)
	require.NoError(t, err)
	eng, err := repeat.New(repeat.DefaultConfig())
	require.NoError(t, err)
	flags := repeat.NewFlagSet()
	eng.Run(doc, flags)
	groups, _ := repeat.GroupSlots(doc, 4, repeat.Limits{})
	require.Len(t, groups, 1)
	return doc, flags, groups
}

func TestDOT_SiblingColours(t *testing.T) {
	doc, flags, groups := analyzed(t)

	var buf bytes.Buffer
	stats, err := DOT(&buf, doc, flags, Options{Title: `say "hi"`, Groups: groups})
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph DOMPaintedCores {\n"))
	assert.Contains(t, out, `label="say \"hi\""`)
	assert.Equal(t, doc.Len(), stats.Nodes)
	assert.Equal(t, doc.Len()-1, stats.Edges)
	assert.False(t, stats.Truncated)

	for s, m := range groups[0].Members {
		assert.Contains(t, out, dotID(m)+` [label="li", fillcolor="`+Palette[s]+`"`)
	}
	// the unflagged list container stays white
	p, _ := doc.Parent(groups[0].Members[0])
	assert.Contains(t, out, dotID(p)+` [label="ol", fillcolor="white"`)
}

func TestDOT_FeaturesAndClusters(t *testing.T) {
	doc, flags, groups := analyzed(t)
	feats := features.Map(doc)
	v := feats[groups[0].Members[1]]
	v.HasRelatedKeyword = true
	feats[groups[0].Members[1]] = v

	var buf bytes.Buffer
	stats, err := DOT(&buf, doc, flags, Options{
		Mode:     ColorByFeatures,
		Groups:   groups,
		Features: feats,
		Clusters: true,
	})
	require.NoError(t, err)
	out := buf.String()

	assert.Equal(t, 1, stats.Clusters)
	assert.Contains(t, out, "subgraph cluster_1 {")
	assert.Contains(t, out, `label="/html[1]/body[1]/ol[1]/li[*]"`)
	assert.Contains(t, out, "penwidth="+corePenWidth)
	assert.Contains(t, out, "penwidth="+normalPenWidth)
}

func TestDOT_Limits(t *testing.T) {
	doc, flags, _ := analyzed(t)

	var buf bytes.Buffer
	stats, err := DOT(&buf, doc, flags, Options{Limits: repeat.Limits{MaxNodes: 3}})
	require.NoError(t, err)
	assert.True(t, stats.Truncated)
	assert.Equal(t, 3, stats.Nodes)
	assert.Equal(t, 2, stats.Edges)
}

func TestSiblingIndex_FirstSeenWins(t *testing.T) {
	doc, flags, groups := analyzed(t)
	idx := SiblingIndex(doc, groups, flags)

	for s, m := range groups[0].Members {
		assert.Equal(t, s, idx[m])
		for _, k := range doc.Children(m) {
			assert.Equal(t, s, idx[k])
		}
	}
	// duplicate group never overrides
	dup := []repeat.Group{groups[0], {Signature: "rev", Members: []domtree.NodeID{groups[0].Members[3], groups[0].Members[0]}}}
	idx = SiblingIndex(doc, dup, flags)
	assert.Equal(t, 3, idx[groups[0].Members[3]])
}

func TestSuspected(t *testing.T) {
	doc, _, groups := analyzed(t)

	// class="comment-list" lives on the parent, not the members, and the
	// signature is positional, so only features on members count.
	assert.Empty(t, Suspected(doc, groups, nil))

	named := []repeat.Group{{Signature: "/x/reply[*]", Members: groups[0].Members}}
	c := Suspected(doc, named, nil)
	require.Len(t, c, 1)
	p, _ := doc.Parent(groups[0].Members[0])
	assert.Equal(t, p, c[0].Container)

	feats := map[domtree.NodeID]features.Vector{groups[0].Members[1]: {HasRelatedKeyword: true}}
	assert.Len(t, Suspected(doc, groups, feats), 1)
}

func TestMarkdown(t *testing.T) {
	doc, _, groups := analyzed(t)

	md, err := Markdown(doc, groups[0].Members[3])
	require.NoError(t, err)
	assert.Contains(t, md, "**dee**")
	assert.Contains(t, md, "[link](/x)")

	short, err := NewPreviewer("", 5).Markdown(doc, groups[0].Members[3])
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(short, "…"))

	_, err = Markdown(doc, 9999)
	assert.Error(t, err)
}
