package repeat

import (
	"slices"
	"sort"

	"github.com/hazyhaar/domcore/domtree"
)

// Group is a set of same-tag siblings under one parent, identified by their
// shared starred path.
type Group struct {
	Signature string           `json:"signature"`
	Members   []domtree.NodeID `json:"members"`
}

type slotKey struct {
	parent domtree.NodeID
	tag    string
}

// GroupSlots partitions the elements under t.Root() by (parent, tag) and
// returns the slots holding at least minSize members. Members are in
// document order and groups are ordered by their first member. The root
// itself never joins a group. The bool reports that lim cut the walk short.
func GroupSlots(t domtree.Tree, minSize int, lim Limits) ([]Group, bool) {
	root := t.Root()
	if root == domtree.None {
		return nil, false
	}

	var order []slotKey
	slots := make(map[slotKey][]domtree.NodeID)
	truncated := Walk(t, root, lim, func(n domtree.NodeID, _ int) bool {
		if n == root {
			return true
		}
		tag, ok := t.Tag(n)
		if !ok {
			return true
		}
		p, ok := t.Parent(n)
		if !ok {
			return true
		}
		k := slotKey{parent: p, tag: tag}
		if _, seen := slots[k]; !seen {
			order = append(order, k)
		}
		slots[k] = append(slots[k], n)
		return true
	})

	var groups []Group
	for _, k := range order {
		members := slots[k]
		if len(members) < minSize {
			continue
		}
		groups = append(groups, Group{
			Signature: domtree.StarredXPath(t, members[0]),
			Members:   members,
		})
	}
	return groups, truncated
}

// GroupsFromIndex turns an externally computed signature → members mapping
// into groups. Members are de-duplicated and put in document order, small
// groups are dropped and the rest are ordered by signature.
func GroupsFromIndex(index map[string][]domtree.NodeID, minSize int) []Group {
	var groups []Group
	for sig, members := range index {
		m := slices.Clone(members)
		slices.Sort(m)
		m = slices.Compact(m)
		if len(m) < minSize {
			continue
		}
		groups = append(groups, Group{Signature: sig, Members: m})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Signature < groups[j].Signature })
	return groups
}
