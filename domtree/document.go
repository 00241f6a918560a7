// CLAUDE:SUMMARY Document: arena-backed Tree built from golang.org/x/net/html with preorder NodeIDs and cached sibling ordinals.
package domtree

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

type node struct {
	tag      string
	parent   NodeID
	children []NodeID
	ordinal  int
	depth    int
	src      *html.Node
}

// Document is an immutable element tree indexed by NodeID.
type Document struct {
	nodes []node
	index map[*html.Node]NodeID
	top   *html.Node
}

// Parse reads an HTML document and indexes its elements.
func Parse(r io.Reader) (*Document, error) {
	top, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("domtree: parse: %w", err)
	}
	return FromNode(top), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// FromNode indexes every element reachable from n. When n is a document
// node the first element child (normally <html>) becomes the root.
// The walk is iterative so arbitrarily deep trees are safe.
func FromNode(n *html.Node) *Document {
	d := &Document{index: make(map[*html.Node]NodeID), top: n}
	root := n
	for root != nil && root.Type != html.ElementNode {
		root = firstElement(root)
	}
	if root == nil {
		return d
	}

	type frame struct {
		h      *html.Node
		parent NodeID
		depth  int
	}
	stack := []frame{{h: root, parent: None}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := NodeID(len(d.nodes))
		d.nodes = append(d.nodes, node{
			tag:    strings.ToLower(f.h.Data),
			parent: f.parent,
			depth:  f.depth,
			src:    f.h,
		})
		d.index[f.h] = id
		if f.parent != None {
			p := &d.nodes[f.parent]
			p.children = append(p.children, id)
		}

		// Push in reverse so siblings pop in document order.
		var kids []*html.Node
		for c := f.h.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				kids = append(kids, c)
			}
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{h: kids[i], parent: id, depth: f.depth + 1})
		}
	}

	for i := range d.nodes {
		if len(d.nodes[i].children) == 0 {
			continue
		}
		seen := make(map[string]int)
		for _, c := range d.nodes[i].children {
			seen[d.nodes[c].tag]++
			d.nodes[c].ordinal = seen[d.nodes[c].tag]
		}
	}
	if len(d.nodes) > 0 {
		d.nodes[0].ordinal = 1
	}
	return d
}

func firstElement(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func (d *Document) valid(n NodeID) bool {
	return n >= 0 && int(n) < len(d.nodes)
}

// Len returns the number of indexed elements.
func (d *Document) Len() int { return len(d.nodes) }

// Root implements Tree.
func (d *Document) Root() NodeID {
	if len(d.nodes) == 0 {
		return None
	}
	return 0
}

// Tag implements Tree.
func (d *Document) Tag(n NodeID) (string, bool) {
	if !d.valid(n) {
		return "", false
	}
	return d.nodes[n].tag, true
}

// Parent implements Tree.
func (d *Document) Parent(n NodeID) (NodeID, bool) {
	if !d.valid(n) || d.nodes[n].parent == None {
		return None, false
	}
	return d.nodes[n].parent, true
}

// Children implements Tree. The returned slice must not be modified.
func (d *Document) Children(n NodeID) []NodeID {
	if !d.valid(n) {
		return nil
	}
	return d.nodes[n].children
}

// SiblingOrdinal implements Tree.
func (d *Document) SiblingOrdinal(n NodeID) int {
	if !d.valid(n) {
		return 0
	}
	return d.nodes[n].ordinal
}

// Attr implements Tree.
func (d *Document) Attr(n NodeID, key string) (string, bool) {
	if !d.valid(n) {
		return "", false
	}
	for _, a := range d.nodes[n].src.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// Attrs returns all attributes of n.
func (d *Document) Attrs(n NodeID) []html.Attribute {
	if !d.valid(n) {
		return nil
	}
	return d.nodes[n].src.Attr
}

// Depth returns the distance from the root, or -1.
func (d *Document) Depth(n NodeID) int {
	if !d.valid(n) {
		return -1
	}
	return d.nodes[n].depth
}

// HTMLNode returns the underlying parser node.
func (d *Document) HTMLNode(n NodeID) *html.Node {
	if !d.valid(n) {
		return nil
	}
	return d.nodes[n].src
}

// Top returns the node FromNode was called with.
func (d *Document) Top() *html.Node { return d.top }

// Lookup maps a parser node back to its NodeID. Used when a selector
// library (goquery, htmlquery) hands back *html.Node values.
func (d *Document) Lookup(h *html.Node) (NodeID, bool) {
	id, ok := d.index[h]
	return id, ok
}

// Contains reports whether anc is n or one of its ancestors.
func (d *Document) Contains(anc, n NodeID) bool {
	for d.valid(n) {
		if n == anc {
			return true
		}
		n = d.nodes[n].parent
	}
	return false
}

// Text returns the whitespace-collapsed text content of n's subtree,
// skipping script and style.
func (d *Document) Text(n NodeID) string {
	if !d.valid(n) {
		return ""
	}
	var b strings.Builder
	stack := []*html.Node{d.nodes[n].src}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch h.Type {
		case html.TextNode:
			b.WriteString(h.Data)
			b.WriteByte(' ')
			continue
		case html.ElementNode:
			if h.Data == "script" || h.Data == "style" {
				continue
			}
		}
		for c := h.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// DirectText returns only the text nodes that are immediate children of n.
func (d *Document) DirectText(n NodeID) string {
	if !d.valid(n) {
		return ""
	}
	var parts []string
	for c := d.nodes[n].src.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			parts = append(parts, c.Data)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// Render serialises n's subtree back to HTML.
func (d *Document) Render(n NodeID) (string, error) {
	if !d.valid(n) {
		return "", fmt.Errorf("domtree: render: unknown node %d", n)
	}
	var b strings.Builder
	if err := html.Render(&b, d.nodes[n].src); err != nil {
		return "", fmt.Errorf("domtree: render: %w", err)
	}
	return b.String(), nil
}
