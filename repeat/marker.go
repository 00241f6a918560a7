package repeat

import (
	"slices"
	"sync"

	"github.com/hazyhaar/domcore/domtree"
)

// FlagSet holds the core flags of a run. It only grows: Mark never clears
// and the engine never calls Reset. Safe for concurrent use.
type FlagSet struct {
	mu    sync.RWMutex
	nodes map[domtree.NodeID]struct{}
}

// NewFlagSet returns an empty set.
func NewFlagSet() *FlagSet {
	return &FlagSet{nodes: make(map[domtree.NodeID]struct{})}
}

// Mark flags n and reports whether the flag is new.
func (f *FlagSet) Mark(n domtree.NodeID) bool {
	if n == domtree.None {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nodes == nil {
		f.nodes = make(map[domtree.NodeID]struct{})
	}
	if _, ok := f.nodes[n]; ok {
		return false
	}
	f.nodes[n] = struct{}{}
	return true
}

// Has reports whether n is flagged.
func (f *FlagSet) Has(n domtree.NodeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.nodes[n]
	return ok
}

// Len returns the number of flagged nodes.
func (f *FlagSet) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.nodes)
}

// Nodes returns the flagged nodes in document order.
func (f *FlagSet) Nodes() []domtree.NodeID {
	f.mu.RLock()
	out := make([]domtree.NodeID, 0, len(f.nodes))
	for n := range f.nodes {
		out = append(out, n)
	}
	f.mu.RUnlock()
	slices.Sort(out)
	return out
}

// Reset clears every flag. Call it explicitly between independent runs.
func (f *FlagSet) Reset() {
	f.mu.Lock()
	f.nodes = make(map[domtree.NodeID]struct{})
	f.mu.Unlock()
}

// markSupported flags every reference node of a whose support reaches
// threshold, along with its counterparts. It returns the number of new
// flags and of supported reference nodes.
func markSupported(a *Alignment, threshold float64, flags *FlagSet) (newly, supported int) {
	for i, u := range a.Nodes {
		if a.Support(i) < threshold {
			continue
		}
		supported++
		if flags.Mark(u) {
			newly++
		}
		for _, m := range a.Matches[i] {
			if flags.Mark(m) {
				newly++
			}
		}
	}
	return newly, supported
}
