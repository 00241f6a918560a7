package domtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXPath(t *testing.T) {
	doc, err := ParseString(`<html><body><div></div><div><p>a</p><p>b</p></div></body></html>`)
	require.NoError(t, err)

	body := doc.Children(doc.Root())[1]
	div2 := doc.Children(body)[1]
	p2 := doc.Children(div2)[1]

	assert.Equal(t, "/html[1]/body[1]/div[2]/p[2]", XPath(doc, p2))
	assert.Equal(t, "/html[1]/body[1]/div[2]/p[*]", StarredXPath(doc, p2))
	assert.Equal(t, "/html[1]/body[1]/div[2]", ParentXPath(doc, p2))
	assert.Equal(t, "", ParentXPath(doc, doc.Root()))
	assert.Equal(t, "", XPath(doc, None))
}

func TestStarredXPath_SiblingsOnly(t *testing.T) {
	doc := FromNode(El("div",
		El("ul", El("li"), El("li")),
		El("ul", El("li")),
	))
	root := doc.Root()
	ul1, ul2 := doc.Children(root)[0], doc.Children(root)[1]

	a := StarredXPath(doc, doc.Children(ul1)[0])
	b := StarredXPath(doc, doc.Children(ul1)[1])
	c := StarredXPath(doc, doc.Children(ul2)[0])

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "cousins under different parents never share a slot")
	assert.Equal(t, "/div[1]/ul[1]/li[*]", a)
}
