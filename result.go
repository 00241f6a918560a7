package domcore

import (
	"io"

	"github.com/hazyhaar/domcore/capture"
	"github.com/hazyhaar/domcore/domtree"
	"github.com/hazyhaar/domcore/features"
	"github.com/hazyhaar/domcore/render"
	"github.com/hazyhaar/domcore/repeat"
)

// FlaggedNode is one core node of the page.
type FlaggedNode struct {
	ID    int    `json:"id"`
	Tag   string `json:"tag"`
	XPath string `json:"xpath"`
}

// ReferencePreview describes the reference member of an aligned group.
type ReferencePreview struct {
	Signature string          `json:"signature"`
	XPath     string          `json:"xpath"`
	Markdown  string          `json:"markdown,omitempty"`
	Features  features.Vector `json:"features"`
}

// Result is the outcome of one analysis. The parsed document stays attached
// so the page can still be exported with WriteDOT.
type Result struct {
	RunID      string             `json:"run_id"`
	URL        string             `json:"url,omitempty"`
	Snapshot   *capture.Snapshot  `json:"snapshot"`
	Nodes      int                `json:"nodes"`
	Root       string             `json:"root"`
	Report     repeat.Report      `json:"report"`
	Flagged    []FlaggedNode      `json:"flagged"`
	References []ReferencePreview `json:"references"`
	Stored     bool               `json:"stored"`
	// DOT is only filled by transports that were asked for it.
	DOT string `json:"dot,omitempty"`

	doc      *domtree.Document
	flags    *repeat.FlagSet
	groups   []repeat.Group
	features map[domtree.NodeID]features.Vector
	dotOpts  render.Options
}

// Truncated reports whether any walk of the run hit a cap.
func (r *Result) Truncated() bool {
	if r.Report.Truncated {
		return true
	}
	for _, g := range r.Report.Groups {
		if g.Truncated {
			return true
		}
	}
	return false
}

// Document returns the parsed page.
func (r *Result) Document() *domtree.Document { return r.doc }

// Flags returns the core node set of the run.
func (r *Result) Flags() *repeat.FlagSet { return r.flags }

// Groups returns the slot groups the run processed.
func (r *Result) Groups() []repeat.Group { return r.groups }

// WriteDOT exports the analysed subtree as a Graphviz digraph.
func (r *Result) WriteDOT(w io.Writer) (render.Stats, error) {
	return render.DOT(w, r.doc, r.flags, r.dotOpts)
}
