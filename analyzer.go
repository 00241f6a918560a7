// CLAUDE:SUMMARY Analyzer orchestrator: capture, parse, root selection, repeat engine, features, previews, run history and metrics.
// Package domcore finds the repeating regions of web pages (comment lists,
// result rows, feed items) and reports the element nodes that recur across
// them.
//
// The pipeline:
//
//	capture → domtree.Parse → root selection → repeat.Engine → features → store
//
// Usage:
//
//	a, err := domcore.New(cfg, logger)
//	defer a.Close()
//	res, err := a.AnalyzeURL(ctx, "https://example.com/thread/42")
//	http.ListenAndServe(cfg.HTTP.Addr, a.Handler())
//	a.RegisterMCP(mcpServer)
package domcore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"go.uber.org/multierr"
	"golang.org/x/net/html"

	"github.com/hazyhaar/domcore/capture"
	"github.com/hazyhaar/domcore/domtree"
	"github.com/hazyhaar/domcore/features"
	"github.com/hazyhaar/domcore/idgen"
	"github.com/hazyhaar/domcore/internal/store"
	"github.com/hazyhaar/domcore/render"
	"github.com/hazyhaar/domcore/repeat"
)

var (
	// ErrRootNotFound is returned when the configured root selector matches
	// nothing.
	ErrRootNotFound = errors.New("domcore: root selector matched nothing")
	// ErrNoHistory is returned by the run-history methods when no database
	// is configured.
	ErrNoHistory = errors.New("domcore: run history disabled")
	// ErrEmptyDocument is returned for input without any element.
	ErrEmptyDocument = errors.New("domcore: document has no elements")
)

// Analyzer runs analyses and keeps their history.
type Analyzer struct {
	cfg      *Config
	engine   *repeat.Engine
	capturer *capture.Capturer
	store    *store.Store
	metrics  *Metrics
	logger   *slog.Logger
}

// Option customises an Analyzer.
type Option func(*Analyzer)

// WithCapturer replaces the page capturer built from cfg.Capture.
func WithCapturer(c *capture.Capturer) Option {
	return func(a *Analyzer) { a.capturer = c }
}

// WithStore replaces the store opened from cfg.DBPath.
func WithStore(s *store.Store) Option {
	return func(a *Analyzer) { a.store = s }
}

// New validates cfg, opens the run history when cfg.DBPath is set and
// builds the engine and capturer.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Analyzer, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	rc := cfg.Engine.repeatConfig()
	rc.Logger = logger
	eng, err := repeat.New(rc)
	if err != nil {
		return nil, fmt.Errorf("domcore: engine: %w", err)
	}

	a := &Analyzer{
		cfg:     cfg,
		engine:  eng,
		metrics: NewMetrics(),
		logger:  logger,
	}
	for _, o := range opts {
		o(a)
	}

	if a.capturer == nil {
		cc := cfg.Capture
		cc.Logger = logger
		if a.capturer, err = capture.New(cc); err != nil {
			return nil, fmt.Errorf("domcore: capture: %w", err)
		}
	}
	if a.store == nil && cfg.DBPath != "" {
		if a.store, err = store.Open(cfg.DBPath); err != nil {
			a.capturer.Close()
			return nil, fmt.Errorf("domcore: open history: %w", err)
		}
	}
	return a, nil
}

// Close releases the capturer and the run history.
func (a *Analyzer) Close() error {
	var err error
	if a.capturer != nil {
		err = multierr.Append(err, a.capturer.Close())
	}
	if a.store != nil {
		err = multierr.Append(err, a.store.Close())
	}
	return err
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config { return *a.cfg }

// Metrics returns the analyzer's collectors.
func (a *Analyzer) Metrics() *Metrics { return a.metrics }

// AnalyzeHTML analyses an HTML document held in memory. pageURL only labels
// the run and resolves relative links in previews; it may be empty.
func (a *Analyzer) AnalyzeHTML(ctx context.Context, body []byte, pageURL string) (*Result, error) {
	return a.analyze(ctx, capture.NewSnapshot(pageURL, body, capture.MethodInline), "html")
}

// AnalyzeURL captures pageURL according to the capture mode and analyses it.
func (a *Analyzer) AnalyzeURL(ctx context.Context, pageURL string) (*Result, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", ErrBadRequest, pageURL)
	}
	snap, err := a.capturer.Capture(ctx, pageURL)
	if err != nil {
		a.metrics.Runs.WithLabelValues("url", "capture_error").Inc()
		return nil, fmt.Errorf("domcore: capture: %w", err)
	}
	return a.analyze(ctx, snap, "url")
}

func (a *Analyzer) analyze(ctx context.Context, snap *capture.Snapshot, source string) (*Result, error) {
	start := time.Now()
	res, err := a.run(ctx, snap)
	elapsed := time.Since(start)
	if err != nil {
		a.metrics.Runs.WithLabelValues(source, "error").Inc()
		return nil, err
	}
	a.observe(res, source, elapsed)

	a.logger.Info("domcore: analyzed",
		"run_id", res.RunID,
		"url", snap.URL,
		"method", snap.Method,
		"nodes", res.Nodes,
		"groups", len(res.Report.Groups),
		"flagged", res.Report.Flagged,
		"duration", elapsed,
	)

	if a.store != nil {
		run := &store.Run{
			ID:         res.RunID,
			URL:        snap.URL,
			SnapshotID: snap.ID,
			HTMLHash:   snap.Hash,
			Method:     string(snap.Method),
			Nodes:      res.Nodes,
			Flagged:    res.Report.Flagged,
			Truncated:  res.Truncated(),
			DurationMS: elapsed.Milliseconds(),
			Groups:     res.Report.Groups,
		}
		if err := a.store.InsertRun(ctx, run); err != nil {
			a.logger.Warn("domcore: store run", "run_id", res.RunID, "error", err)
		} else {
			res.Stored = true
		}
	}
	return res, nil
}

func (a *Analyzer) observe(res *Result, source string, elapsed time.Duration) {
	m := a.metrics
	m.Runs.WithLabelValues(source, "ok").Inc()
	m.RunDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.FlaggedNodes.Observe(float64(res.Report.Flagged))
	m.DocumentNodes.Observe(float64(res.Nodes))
	if res.Truncated() {
		m.Truncations.Inc()
	}
	for _, g := range res.Report.Groups {
		outcome := "aligned"
		if g.Skipped != "" {
			outcome = "skipped"
		}
		m.Groups.WithLabelValues(outcome).Inc()
	}
}

func (a *Analyzer) run(ctx context.Context, snap *capture.Snapshot) (*Result, error) {
	doc, err := domtree.Parse(bytes.NewReader(snap.HTML))
	if err != nil {
		return nil, fmt.Errorf("domcore: %w", err)
	}
	if doc.Len() == 0 {
		return nil, ErrEmptyDocument
	}
	root, err := a.selectRoot(doc)
	if err != nil {
		return nil, err
	}
	tree := domtree.Subtree(doc, root)

	ec := a.engine.Config()
	groups, truncated := repeat.GroupSlots(tree, ec.MinGroupSize, repeat.Limits{MaxNodes: ec.MaxTreeNodes})
	flags := repeat.NewFlagSet()
	report, err := a.engine.RunGroupsContext(ctx, tree, groups, flags)
	report.Truncated = truncated
	if err != nil {
		return nil, fmt.Errorf("domcore: analyze: %w", err)
	}

	feats := features.Map(doc)
	res := &Result{
		RunID:    idgen.Run(),
		URL:      snap.URL,
		Snapshot: snap,
		Nodes:    doc.Len(),
		Root:     domtree.XPath(doc, root),
		Report:   report,
		doc:      doc,
		flags:    flags,
		groups:   groups,
		features: feats,
		dotOpts: render.Options{
			Title:    a.cfg.Render.Title,
			Mode:     render.ColorMode(a.cfg.Render.ColorBy),
			Root:     root,
			Groups:   groups,
			Features: feats,
			Clusters: a.cfg.Render.Clusters,
			Limits: repeat.Limits{
				MaxNodes: a.cfg.Render.MaxNodes,
				MaxDepth: a.cfg.Render.MaxDepth,
			},
		},
	}
	if res.dotOpts.Title == "" {
		res.dotOpts.Title = snap.URL
	}

	for _, n := range flags.Nodes() {
		tag, _ := doc.Tag(n)
		res.Flagged = append(res.Flagged, FlaggedNode{ID: int(n), Tag: tag, XPath: domtree.XPath(doc, n)})
	}

	pv := render.NewPreviewer(siteOf(snap.URL), a.cfg.Render.PreviewChars)
	for _, g := range report.Groups {
		if g.Reference == domtree.None {
			continue
		}
		p := ReferencePreview{
			Signature: g.Signature,
			XPath:     domtree.XPath(doc, g.Reference),
			Features:  feats[g.Reference],
		}
		if md, err := pv.Markdown(doc, g.Reference); err != nil {
			a.logger.Debug("domcore: preview", "signature", g.Signature, "error", err)
		} else {
			p.Markdown = md
		}
		res.References = append(res.References, p)
	}
	return res, nil
}

// selectRoot resolves the configured root selector. Without one the whole
// document is analysed.
func (a *Analyzer) selectRoot(doc *domtree.Document) (domtree.NodeID, error) {
	var (
		h   *html.Node
		sel string
	)
	switch rc := a.cfg.Root; {
	case rc.CSS != "":
		sel = rc.CSS
		found := goquery.NewDocumentFromNode(doc.Top()).Find(rc.CSS)
		if found.Length() > 0 {
			h = found.Nodes[0]
		}
	case rc.XPath != "":
		sel = rc.XPath
		n, err := htmlquery.Query(doc.Top(), rc.XPath)
		if err != nil {
			return domtree.None, fmt.Errorf("domcore: root xpath %q: %w", rc.XPath, err)
		}
		h = n
	default:
		return doc.Root(), nil
	}

	if h != nil {
		if id, ok := doc.Lookup(h); ok {
			return id, nil
		}
	}
	return domtree.None, fmt.Errorf("%w: %q", ErrRootNotFound, sel)
}

func siteOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// ListRuns returns the most recent runs.
func (a *Analyzer) ListRuns(ctx context.Context, limit int) ([]*store.Run, error) {
	if a.store == nil {
		return nil, ErrNoHistory
	}
	return a.store.ListRuns(ctx, limit)
}

// GetRun returns one stored run with its group diagnostics.
func (a *Analyzer) GetRun(ctx context.Context, id string) (*store.Run, error) {
	if a.store == nil {
		return nil, ErrNoHistory
	}
	return a.store.GetRun(ctx, id)
}

// DeleteRun removes a stored run.
func (a *Analyzer) DeleteRun(ctx context.Context, id string) error {
	if a.store == nil {
		return ErrNoHistory
	}
	return a.store.DeleteRun(ctx, id)
}
