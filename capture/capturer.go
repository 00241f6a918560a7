package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Mode selects the acquisition path.
type Mode string

const (
	ModeHTTP    Mode = "http"
	ModeBrowser Mode = "browser"
	// ModeAuto fetches over HTTP and renders only when the body looks like
	// an SPA shell.
	ModeAuto Mode = "auto"
)

// ParseMode validates a configured mode. Empty means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAuto, nil
	case ModeHTTP, ModeBrowser, ModeAuto:
		return m, nil
	default:
		return "", fmt.Errorf("capture: unknown mode %q", s)
	}
}

// Renderer produces a snapshot of a rendered page. *Browser implements it.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (*Snapshot, error)
	Close() error
}

// Config configures a Capturer.
type Config struct {
	Mode             Mode          `yaml:"mode" envconfig:"MODE"`
	UserAgent        string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	Timeout          time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	RemoteURL        string        `yaml:"remote_url" envconfig:"REMOTE_URL"`
	ResourceBlocking []string      `yaml:"resource_blocking" envconfig:"RESOURCE_BLOCKING"`
	Sanitize         bool          `yaml:"sanitize" envconfig:"SANITIZE"`
	// BlockPrivate refuses URLs resolving to loopback or private networks.
	BlockPrivate bool `yaml:"block_private" envconfig:"BLOCK_PRIVATE"`

	Logger *slog.Logger `yaml:"-" ignored:"true"`
}

func (c *Config) defaults() {
	if c.Mode == "" {
		c.Mode = ModeAuto
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Capturer acquires pages according to its Mode.
type Capturer struct {
	cfg      Config
	fetcher  *Fetcher
	renderer Renderer
	resolver Resolver
}

// CapturerOption customises a Capturer.
type CapturerOption func(*Capturer)

// WithRenderer replaces the headless Chrome renderer.
func WithRenderer(r Renderer) CapturerOption {
	return func(c *Capturer) { c.renderer = r }
}

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f *Fetcher) CapturerOption {
	return func(c *Capturer) { c.fetcher = f }
}

// WithResolver replaces the DNS resolver used by BlockPrivate.
func WithResolver(r Resolver) CapturerOption {
	return func(c *Capturer) { c.resolver = r }
}

// New returns a Capturer. Chrome is only started when a page needs it.
func New(cfg Config, opts ...CapturerOption) (*Capturer, error) {
	cfg.defaults()
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	c := &Capturer{cfg: cfg}
	for _, o := range opts {
		o(c)
	}
	if c.fetcher == nil {
		c.fetcher = NewFetcher(
			WithUserAgent(cfg.UserAgent),
			WithTimeout(cfg.Timeout),
			WithLogger(cfg.Logger),
		)
	}
	if c.renderer == nil && cfg.Mode != ModeHTTP {
		c.renderer = NewBrowser(BrowserConfig{
			RemoteURL:        cfg.RemoteURL,
			ResourceBlocking: cfg.ResourceBlocking,
			NavTimeout:       cfg.Timeout,
			Logger:           cfg.Logger,
		})
	}
	return c, nil
}

// Capture acquires pageURL. In auto mode a failed render falls back to the
// HTTP body that triggered it.
func (c *Capturer) Capture(ctx context.Context, pageURL string) (*Snapshot, error) {
	if err := CheckURL(ctx, pageURL, c.cfg.BlockPrivate, c.resolver); err != nil {
		return nil, err
	}
	snap, err := c.capture(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if c.cfg.Sanitize {
		snap.HTML = Sanitize(snap.HTML)
		snap.Hash = HashHTML(snap.HTML)
	}
	return snap, nil
}

func (c *Capturer) capture(ctx context.Context, pageURL string) (*Snapshot, error) {
	log := c.cfg.Logger
	switch c.cfg.Mode {
	case ModeBrowser:
		return c.renderer.Render(ctx, pageURL)
	case ModeHTTP:
		res, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		return res.Snapshot, nil
	}

	res, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		log.Info("capture: http failed, rendering", "url", pageURL, "error", err)
		return c.renderer.Render(ctx, pageURL)
	}
	if res.Sufficient {
		return res.Snapshot, nil
	}
	log.Info("capture: insufficient body, rendering", "url", pageURL, "size", len(res.Snapshot.HTML))
	snap, rerr := c.renderer.Render(ctx, pageURL)
	if rerr != nil {
		log.Warn("capture: render failed, keeping http body", "url", pageURL, "error", rerr)
		return res.Snapshot, nil
	}
	return snap, nil
}

// Close releases the renderer.
func (c *Capturer) Close() error {
	if c.renderer == nil {
		return nil
	}
	return c.renderer.Close()
}
