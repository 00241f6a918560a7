package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// ErrBrowserClosed is returned by Render after Close.
var ErrBrowserClosed = errors.New("capture: browser closed")

// BrowserConfig configures headless rendering.
type BrowserConfig struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local headless Chrome on first use.
	RemoteURL string

	// ResourceBlocking lists resource types to drop while loading
	// (images, fonts, media, stylesheets, or any CDP resource type).
	ResourceBlocking []string

	// NavTimeout bounds navigation plus load. Default: 30s.
	NavTimeout time.Duration

	Logger *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser renders pages in headless Chrome through rod with stealth
// patches applied. Chrome is started lazily and reused across renders.
type Browser struct {
	cfg     BrowserConfig
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewBrowser returns a Browser. No process is started until Render.
func NewBrowser(cfg BrowserConfig) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg}
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrowserClosed
	}
	if b.browser != nil {
		return b.browser, nil
	}

	log := b.cfg.Logger
	wsURL := b.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("capture: launch chrome: %w", err)
		}
		wsURL = u
		b.lnch = l
		log.Info("capture: launched local chrome", "url", wsURL)
	} else {
		log.Info("capture: connecting to remote chrome", "url", wsURL)
	}

	rb := rod.New().ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("capture: connect chrome: %w", err)
	}
	if err := rb.IgnoreCertErrors(true); err != nil {
		log.Warn("capture: ignore cert errors failed", "error", err)
	}
	b.browser = rb
	return rb, nil
}

// Render opens pageURL in a fresh stealth tab, waits for the load event and
// returns the serialised document element.
func (b *Browser) Render(ctx context.Context, pageURL string) (*Snapshot, error) {
	rb, err := b.connect()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(rb)
	if err != nil {
		return nil, fmt.Errorf("capture: new tab: %w", err)
	}
	defer page.Close()

	if len(b.cfg.ResourceBlocking) > 0 {
		router := blockResources(page, b.cfg.ResourceBlocking)
		defer router.Stop()
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("capture: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.cfg.Logger.Warn("capture: wait load", "url", pageURL, "error", err)
	}

	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("capture: serialise dom: %w", err)
	}
	body := []byte(res.Value.Str())
	b.cfg.Logger.Debug("capture: rendered", "url", pageURL, "size", len(body))
	return NewSnapshot(pageURL, body, MethodBrowser), nil
}

// Close shuts Chrome down. Render fails afterwards.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return b.cleanup()
}

func (b *Browser) cleanup() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}

func blockResources(page *rod.Page, types []string) *rod.HijackRouter {
	block := make(map[string]bool, len(types))
	for _, t := range types {
		block[strings.ToLower(t)] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if shouldBlock(block, string(h.Request.Type())) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}

// shouldBlock maps CDP resource types onto the plural config names.
func shouldBlock(block map[string]bool, resType string) bool {
	lower := strings.ToLower(resType)
	switch lower {
	case "image":
		return block["images"]
	case "font":
		return block["fonts"]
	case "media":
		return block["media"]
	case "stylesheet":
		return block["stylesheets"]
	}
	return block[lower]
}
