// CLAUDE:SUMMARY Node aligner: anchored preorder propagation of a reference subtree onto every group member with ordinal and containment tie-breaks.
package repeat

import (
	"math"

	"github.com/hazyhaar/domcore/domtree"
)

// Alignment is the correspondence between a reference subtree and every
// member of its group. Nodes is the reference subtree in preorder and
// Matches[i][s] is the counterpart of Nodes[i] inside Members[s], or
// domtree.None.
type Alignment struct {
	Reference domtree.NodeID
	Members   []domtree.NodeID
	Nodes     []domtree.NodeID
	Matches   [][]domtree.NodeID
	Truncated bool
}

// Matched counts the members holding a counterpart for Nodes[i].
func (a *Alignment) Matched(i int) int {
	n := 0
	for _, m := range a.Matches[i] {
		if m != domtree.None {
			n++
		}
	}
	return n
}

// Support is Matched(i) over the member count.
func (a *Alignment) Support(i int) float64 {
	if len(a.Members) == 0 {
		return 0
	}
	return float64(a.Matched(i)) / float64(len(a.Members))
}

// AlignOptions tune Align.
type AlignOptions struct {
	Limits Limits
	// Exclusive lets a member node serve as counterpart for at most one
	// reference node.
	Exclusive bool
}

// shape is what a member node has to provide to match a reference node.
type shape struct {
	tag        string
	ordinal    int
	childCount int
	required   map[string]int
}

func shapeOf(t domtree.Tree, u domtree.NodeID) (shape, bool) {
	tag, ok := t.Tag(u)
	if !ok {
		return shape{}, false
	}
	kids := t.Children(u)
	return shape{
		tag:        tag,
		ordinal:    t.SiblingOrdinal(u),
		childCount: len(kids),
		required:   childTags(t, kids),
	}, true
}

func childTags(t domtree.Tree, kids []domtree.NodeID) map[string]int {
	m := make(map[string]int, len(kids))
	for _, k := range kids {
		if tag, ok := t.Tag(k); ok {
			m[tag]++
		}
	}
	return m
}

// containmentScore sums the required child tag counts when the candidate
// meets every one of them, and is -Inf otherwise.
func containmentScore(required, have map[string]int) float64 {
	score := 0
	for tag, need := range required {
		got := have[tag]
		if got < need {
			return math.Inf(-1)
		}
		score += min(need, got)
	}
	return float64(score)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// bestMatch picks the child of parent that corresponds to the reference
// node described by s, or domtree.None.
func bestMatch(t domtree.Tree, s shape, parent domtree.NodeID, claimed map[domtree.NodeID]bool) domtree.NodeID {
	var cands []domtree.NodeID
	for _, c := range t.Children(parent) {
		tag, ok := t.Tag(c)
		if !ok || tag != s.tag {
			continue
		}
		if len(t.Children(c)) < s.childCount {
			continue
		}
		if claimed[c] {
			continue
		}
		cands = append(cands, c)
	}
	switch len(cands) {
	case 0:
		return domtree.None
	case 1:
		return cands[0]
	}

	bestDist := math.MaxInt
	var ties []domtree.NodeID
	for _, c := range cands {
		d := abs(t.SiblingOrdinal(c) - s.ordinal)
		switch {
		case d < bestDist:
			bestDist = d
			ties = append(ties[:0], c)
		case d == bestDist:
			ties = append(ties, c)
		}
	}
	if len(ties) == 1 {
		return ties[0]
	}

	best := domtree.None
	bestScore := math.Inf(-1)
	for _, c := range ties {
		sc := containmentScore(s.required, childTags(t, t.Children(c)))
		if sc > bestScore {
			bestScore = sc
			best = c
		}
	}
	if best == domtree.None {
		// Nothing satisfies the required child tags: keep the first
		// closest candidate rather than dropping the match.
		return ties[0]
	}
	return best
}

// Align propagates correspondence from ref down into every member. The
// reference root maps to each member root; every other reference node is
// looked up only under its parent's counterpart, so a missing parent leaves
// the whole branch unmatched in that member.
func Align(t domtree.Tree, ref domtree.NodeID, members []domtree.NodeID, opts AlignOptions) *Alignment {
	nodes, truncated := preorder(t, ref, opts.Limits)
	a := &Alignment{
		Reference: ref,
		Members:   members,
		Nodes:     nodes,
		Matches:   make([][]domtree.NodeID, len(nodes)),
		Truncated: truncated,
	}
	if len(nodes) == 0 {
		return a
	}

	maps := make([]map[domtree.NodeID]domtree.NodeID, len(members))
	var claimed []map[domtree.NodeID]bool
	if opts.Exclusive {
		claimed = make([]map[domtree.NodeID]bool, len(members))
	}
	for s, m := range members {
		maps[s] = map[domtree.NodeID]domtree.NodeID{ref: m}
		if claimed != nil {
			claimed[s] = map[domtree.NodeID]bool{m: true}
		}
	}

	for i, u := range nodes {
		row := make([]domtree.NodeID, len(members))
		a.Matches[i] = row
		if u == ref {
			copy(row, members)
			continue
		}

		sh, ok := shapeOf(t, u)
		parent, pok := t.Parent(u)
		for s := range members {
			row[s] = domtree.None
			if !ok || !pok {
				continue
			}
			anchor, anchored := maps[s][parent]
			if !anchored {
				continue
			}
			var taken map[domtree.NodeID]bool
			if claimed != nil {
				taken = claimed[s]
			}
			m := bestMatch(t, sh, anchor, taken)
			if m == domtree.None {
				continue
			}
			row[s] = m
			maps[s][u] = m
			if taken != nil {
				taken[m] = true
			}
		}
	}
	return a
}
