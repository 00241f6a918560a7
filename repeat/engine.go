// CLAUDE:SUMMARY Repeat engine: slot grouping, median reference, alignment and support marking across all groups of one run.
// Package repeat finds structurally repeating regions in an element tree.
//
// A run groups same-tag siblings by slot, picks the median-sized member of
// each group as reference, aligns the reference subtree onto every member
// and flags the reference nodes (plus their counterparts) whose
// correspondence holds in at least SupportThreshold of the members.
//
// Usage:
//
//	eng, err := repeat.New(repeat.DefaultConfig())
//	flags := repeat.NewFlagSet()
//	report := eng.Run(doc, flags)
//
// Flags accumulate across groups and across runs on the same FlagSet until
// the caller resets it.
package repeat

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/hazyhaar/domcore/domtree"
)

// Skip reasons reported in GroupSummary.Skipped.
const (
	SkipTooSmall    = "below minimum group size"
	SkipUnreadable  = "fewer than two readable members"
	SkipNoReference = "no reference member"
)

// GroupSummary is the per-group diagnostic of a run.
type GroupSummary struct {
	Signature      string         `json:"signature"`
	Members        int            `json:"members"`
	// Readable counts the members the tree could read. Unreadable members
	// are left out of alignment, so support is measured against Readable.
	Readable       int            `json:"readable"`
	Reference      domtree.NodeID `json:"reference"`
	ReferenceIndex int            `json:"reference_index"`
	ReferenceSize  int            `json:"reference_size"`
	NewlyFlagged   int            `json:"newly_flagged"`
	Supported      int            `json:"supported"`
	Truncated      bool           `json:"truncated,omitempty"`
	SizeMean       float64        `json:"size_mean"`
	SizeStdDev     float64        `json:"size_stddev"`
	Skipped        string         `json:"skipped,omitempty"`
}

// Report is the outcome of one run.
type Report struct {
	Groups []GroupSummary `json:"groups"`
	// Flagged is the size of the flag set after the run.
	Flagged int `json:"flagged"`
	// Truncated reports that the grouping walk hit MaxTreeNodes.
	Truncated bool `json:"truncated,omitempty"`
}

// Engine runs the grouping, alignment and marking passes.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New validates cfg and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.defaults()
	return &Engine{cfg: cfg, logger: cfg.Logger}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Run groups t by slot and processes every group, marking into flags.
func (e *Engine) Run(t domtree.Tree, flags *FlagSet) Report {
	r, _ := e.RunContext(context.Background(), t, flags)
	return r
}

// RunContext is Run with cancellation checked between groups. On
// cancellation the partial report is returned with ctx's error.
func (e *Engine) RunContext(ctx context.Context, t domtree.Tree, flags *FlagSet) (Report, error) {
	groups, truncated := GroupSlots(t, e.cfg.MinGroupSize, Limits{MaxNodes: e.cfg.MaxTreeNodes})
	if truncated {
		e.logger.Warn("repeat: grouping walk truncated", "max_tree_nodes", e.cfg.MaxTreeNodes)
	}
	r, err := e.RunGroupsContext(ctx, t, groups, flags)
	r.Truncated = truncated
	return r, err
}

// RunGroups processes pre-computed groups, e.g. from GroupsFromIndex.
func (e *Engine) RunGroups(t domtree.Tree, groups []Group, flags *FlagSet) Report {
	r, _ := e.RunGroupsContext(context.Background(), t, groups, flags)
	return r
}

// RunGroupsContext processes groups in order, or concurrently when
// Workers > 1. The final flag set does not depend on the worker count.
func (e *Engine) RunGroupsContext(ctx context.Context, t domtree.Tree, groups []Group, flags *FlagSet) (Report, error) {
	summaries := make([]GroupSummary, len(groups))
	done := make([]bool, len(groups))

	var err error
	if e.cfg.Workers <= 1 {
		for i, g := range groups {
			if err = ctx.Err(); err != nil {
				break
			}
			summaries[i] = e.ProcessGroup(t, g, flags)
			done[i] = true
		}
	} else {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(e.cfg.Workers)
		for i, g := range groups {
			eg.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				summaries[i] = e.ProcessGroup(t, g, flags)
				done[i] = true
				return nil
			})
		}
		err = eg.Wait()
	}

	r := Report{Flagged: flags.Len()}
	for i, s := range summaries {
		if done[i] {
			r.Groups = append(r.Groups, s)
		}
	}
	if err != nil {
		return r, fmt.Errorf("repeat: run: %w", err)
	}
	e.logger.Debug("repeat: run complete", "groups", len(r.Groups), "flagged", r.Flagged)
	return r, nil
}

// ProcessGroup aligns one group and marks its supported nodes. It never
// fails: unreadable members are ignored and degenerate groups come back
// with Skipped set.
func (e *Engine) ProcessGroup(t domtree.Tree, g Group, flags *FlagSet) GroupSummary {
	sum := GroupSummary{
		Signature:      g.Signature,
		Members:        len(g.Members),
		Reference:      domtree.None,
		ReferenceIndex: -1,
	}
	if len(g.Members) < e.cfg.MinGroupSize {
		sum.Skipped = SkipTooSmall
		return sum
	}

	ref, readable, sizes := selectReference(t, g.Members, e.cfg.Limits)
	sum.Readable = len(readable)
	if len(readable) < 2 {
		sum.Skipped = SkipUnreadable
		return sum
	}
	if ref.Node == domtree.None {
		sum.Skipped = SkipNoReference
		return sum
	}
	sum.Reference = ref.Node
	sum.ReferenceIndex = ref.Index
	sum.ReferenceSize = ref.Size
	sum.SizeMean, sum.SizeStdDev = sizeStats(sizes)

	a := Align(t, ref.Node, readable, AlignOptions{Limits: e.cfg.Limits, Exclusive: e.cfg.ExclusiveMatches})
	sum.Truncated = ref.Truncated || a.Truncated
	sum.NewlyFlagged, sum.Supported = markSupported(a, e.cfg.SupportThreshold, flags)

	e.logger.Debug("repeat: group aligned",
		"signature", g.Signature,
		"members", len(g.Members),
		"readable", sum.Readable,
		"reference_index", ref.Index,
		"reference_size", ref.Size,
		"newly_flagged", sum.NewlyFlagged,
		"truncated", sum.Truncated,
	)
	return sum
}

func sizeStats(sizes []float64) (mean, std float64) {
	if len(sizes) == 0 {
		return 0, 0
	}
	if len(sizes) == 1 {
		return sizes[0], 0
	}
	mean, std = stat.MeanStdDev(sizes, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}
