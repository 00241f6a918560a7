// CLAUDE:SUMMARY Graphviz DOT export of a whole page with core nodes coloured by sibling identity or feature heat, plus suspected-group clusters.
// Package render turns a document and its core flags into presentation
// artefacts: a Graphviz digraph of the whole page and markdown previews of
// reference subtrees.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hazyhaar/domcore/domtree"
	"github.com/hazyhaar/domcore/features"
	"github.com/hazyhaar/domcore/repeat"
)

// ColorMode selects how core nodes are filled.
type ColorMode string

const (
	// ColorBySibling gives every member subtree of a group its own colour.
	ColorBySibling ColorMode = "sibling"
	// ColorByFeatures fills nodes by feature count and thickens the border
	// of core nodes.
	ColorByFeatures ColorMode = "features"
)

// Palette is the per-sibling colour cycle.
var Palette = []string{
	"#8B0000", "#B22222", "#DC143C", "#FF4500", "#FF8C00",
	"#DAA520", "#228B22", "#2E8B57", "#1E90FF", "#4169E1",
	"#6A5ACD", "#8A2BE2", "#9932CC", "#C71585", "#A52A2A",
	"#008B8B", "#20B2AA", "#556B2F", "#708090", "#2F4F4F",
}

// HeatRamp maps a feature count of 1..10 to a fill colour.
var HeatRamp = []string{
	"#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c",
	"#cb181d", "#a50f15", "#67000d", "#3a0008", "#260000",
}

const (
	corePenWidth   = "4"
	normalPenWidth = "1.2"
)

// Options tune DOT.
type Options struct {
	Title string
	Mode  ColorMode
	// Root defaults to the document root.
	Root domtree.NodeID
	// Groups feed sibling colouring and clusters.
	Groups []repeat.Group
	// Features is required for ColorByFeatures and refines clusters.
	Features map[domtree.NodeID]features.Vector
	// Clusters draws a box around the parent of every suspected group.
	Clusters bool
	Limits   repeat.Limits
}

func (o *Options) defaults(d *domtree.Document) {
	if o.Title == "" {
		o.Title = "DOM Painted Cores"
	}
	if o.Mode == "" {
		o.Mode = ColorBySibling
	}
	if o.Root == 0 || o.Root == domtree.None {
		o.Root = d.Root()
	}
	if o.Limits.MaxNodes == 0 {
		o.Limits.MaxNodes = 20000
	}
	if o.Limits.MaxDepth == 0 {
		o.Limits.MaxDepth = 1500
	}
}

// Stats describes an exported graph.
type Stats struct {
	Nodes     int  `json:"nodes"`
	Edges     int  `json:"edges"`
	Clusters  int  `json:"clusters"`
	Truncated bool `json:"truncated,omitempty"`
}

// Cluster is a suspected repeating container.
type Cluster struct {
	Signature string
	Container domtree.NodeID
}

func dotID(n domtree.NodeID) string {
	return fmt.Sprintf("n%d", int(n)+1)
}

func esc(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return r.Replace(s)
}

type dotNode struct {
	id     domtree.NodeID
	parent domtree.NodeID
}

// DOT writes the page under opts.Root as a Graphviz digraph. Labels are tag
// names only and node ids are derived from NodeIDs, so they never collide.
func DOT(w io.Writer, d *domtree.Document, flags *repeat.FlagSet, opts Options) (Stats, error) {
	opts.defaults(d)
	if flags == nil {
		flags = repeat.NewFlagSet()
	}

	var (
		nodes []dotNode
		stats Stats
	)
	included := make(map[domtree.NodeID]bool)
	stats.Truncated = repeat.Walk(d, opts.Root, opts.Limits, func(n domtree.NodeID, _ int) bool {
		p, ok := d.Parent(n)
		if !ok || n == opts.Root {
			p = domtree.None
		}
		nodes = append(nodes, dotNode{id: n, parent: p})
		included[n] = true
		return true
	})

	var sibling map[domtree.NodeID]int
	if opts.Mode == ColorBySibling {
		sibling = SiblingIndex(d, opts.Groups, flags)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph DOMPaintedCores {\n")
	fmt.Fprintf(bw, "  graph [rankdir=TB, fontsize=12, labelloc=\"t\", label=\"%s\"];\n", esc(opts.Title))
	fmt.Fprintf(bw, "  node  [shape=box, style=\"rounded,filled\", fontsize=9, fontname=\"Helvetica\"];\n")
	fmt.Fprintf(bw, "  edge  [color=\"gray70\"];\n\n")

	if opts.Clusters {
		for i, c := range Suspected(d, opts.Groups, opts.Features) {
			var members []domtree.NodeID
			repeat.Walk(d, c.Container, opts.Limits, func(n domtree.NodeID, _ int) bool {
				if included[n] {
					members = append(members, n)
				}
				return true
			})
			if len(members) == 0 {
				continue
			}
			stats.Clusters++
			fmt.Fprintf(bw, "  subgraph cluster_%d {\n", i+1)
			fmt.Fprintf(bw, "    label=\"%s\";\n", esc(c.Signature))
			fmt.Fprintf(bw, "    fontcolor=\"gray15\";\n    color=\"gray35\";\n    penwidth=2.5;\n    style=\"rounded\";\n    margin=10;\n")
			for _, n := range members {
				fmt.Fprintf(bw, "    %s;\n", dotID(n))
			}
			fmt.Fprintf(bw, "  }\n\n")
		}
	}

	for _, dn := range nodes {
		tag, _ := d.Tag(dn.id)
		fmt.Fprintf(bw, "  %s [label=\"%s\", %s];\n", dotID(dn.id), esc(tag), nodeStyle(dn.id, flags, sibling, opts))
		stats.Nodes++
	}
	fmt.Fprintf(bw, "\n")
	for _, dn := range nodes {
		if dn.parent == domtree.None || !included[dn.parent] {
			continue
		}
		fmt.Fprintf(bw, "  %s -> %s;\n", dotID(dn.parent), dotID(dn.id))
		stats.Edges++
	}
	fmt.Fprintf(bw, "}\n")

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("render: dot: %w", err)
	}
	return stats, nil
}

func nodeStyle(n domtree.NodeID, flags *repeat.FlagSet, sibling map[domtree.NodeID]int, opts Options) string {
	core := flags.Has(n)
	if opts.Mode == ColorByFeatures {
		pen := normalPenWidth
		if core {
			pen = corePenWidth
		}
		fill, font := "white", "gray20"
		if c := opts.Features[n].Count(); c > 0 {
			fill = HeatRamp[min(features.MaxCount, c)-1]
			font = "black"
			if c >= 6 {
				font = "white"
			}
		}
		return fmt.Sprintf(`fillcolor="%s", fontcolor="%s", color="gray20", penwidth=%s`, fill, font, pen)
	}

	if idx, ok := sibling[n]; ok && core {
		c := Palette[idx%len(Palette)]
		return fmt.Sprintf(`fillcolor="%s", color="%s", fontcolor="white"`, c, c)
	}
	return `fillcolor="white", color="gray60", fontcolor="gray20"`
}

// SiblingIndex maps every flagged node inside a group member's subtree to
// the member's position in its group. The first group and member to reach
// a node win.
func SiblingIndex(t domtree.Tree, groups []repeat.Group, flags *repeat.FlagSet) map[domtree.NodeID]int {
	out := make(map[domtree.NodeID]int)
	for _, g := range groups {
		for s, m := range g.Members {
			repeat.Walk(t, m, repeat.Limits{}, func(n domtree.NodeID, _ int) bool {
				if flags.Has(n) {
					if _, seen := out[n]; !seen {
						out[n] = s
					}
				}
				return true
			})
		}
	}
	return out
}

// Suspected returns one cluster per group that looks like a comment list:
// its signature mentions comment, reply or thread, or one of its members
// carries a related keyword. The container is the members' shared parent.
func Suspected(t domtree.Tree, groups []repeat.Group, feats map[domtree.NodeID]features.Vector) []Cluster {
	var out []Cluster
	for _, g := range groups {
		if len(g.Members) == 0 || !suspected(g, feats) {
			continue
		}
		p, ok := t.Parent(g.Members[0])
		if !ok {
			continue
		}
		out = append(out, Cluster{Signature: g.Signature, Container: p})
	}
	return out
}

func suspected(g repeat.Group, feats map[domtree.NodeID]features.Vector) bool {
	for _, m := range g.Members {
		if feats[m].HasRelatedKeyword {
			return true
		}
	}
	s := strings.ToLower(g.Signature)
	return strings.Contains(s, "comment") || strings.Contains(s, "reply") || strings.Contains(s, "thread")
}
