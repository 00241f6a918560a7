package domtree

import (
	"strconv"
	"strings"
)

// XPath returns the positional path of n from the document root, e.g.
// /html[1]/body[1]/div[2]. Unreadable nodes end the walk, so a partial
// tree still yields a stable (shorter) path. Returns "" for an unreadable n.
func XPath(t Tree, n NodeID) string {
	parts := pathParts(t, n)
	if len(parts) == 0 {
		return ""
	}
	return "/" + strings.Join(parts, "/")
}

// StarredXPath is XPath with the final ordinal replaced by "*". Two elements
// share a starred path exactly when they are same-tag siblings under one
// parent.
func StarredXPath(t Tree, n NodeID) string {
	parts := pathParts(t, n)
	if len(parts) == 0 {
		return ""
	}
	last := parts[len(parts)-1]
	if i := strings.LastIndexByte(last, '['); i >= 0 {
		parts[len(parts)-1] = last[:i] + "[*]"
	}
	return "/" + strings.Join(parts, "/")
}

// ParentXPath returns the path of n's parent, or "" at the root.
func ParentXPath(t Tree, n NodeID) string {
	p, ok := t.Parent(n)
	if !ok {
		return ""
	}
	return XPath(t, p)
}

func pathParts(t Tree, n NodeID) []string {
	var parts []string
	cur := n
	for {
		tag, ok := t.Tag(cur)
		if !ok {
			break
		}
		ord := t.SiblingOrdinal(cur)
		if ord < 1 {
			ord = 1
		}
		parts = append(parts, tag+"["+strconv.Itoa(ord)+"]")
		if tag == "html" {
			break
		}
		p, ok := t.Parent(cur)
		if !ok {
			break
		}
		cur = p
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}
