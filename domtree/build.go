package domtree

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// El builds a detached element with the given children. Strings are added
// as text nodes, *html.Node values are appended as-is, and html.Attribute
// values become attributes. It lets fixtures describe exact shapes without
// going through the HTML5 tree-construction rules.
func El(tag string, parts ...any) *html.Node {
	tag = strings.ToLower(tag)
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for _, p := range parts {
		switch v := p.(type) {
		case *html.Node:
			if v != nil {
				n.AppendChild(v)
			}
		case string:
			n.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		case html.Attribute:
			n.Attr = append(n.Attr, v)
		case []*html.Node:
			for _, c := range v {
				n.AppendChild(c)
			}
		}
	}
	return n
}

// A returns an attribute for use with El.
func A(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// Repeat returns count fresh copies produced by fn.
func Repeat(count int, fn func(i int) *html.Node) []*html.Node {
	out := make([]*html.Node, 0, count)
	for i := range count {
		out = append(out, fn(i))
	}
	return out
}
