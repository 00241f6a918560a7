// CLAUDE:SUMMARY CLI entry point for domcore: one-shot analysis, HTTP API server, MCP over stdio, run history.
// Command domcore finds the repeating regions of web pages.
//
// Usage:
//
//	domcore analyze page.html --dot page.dot     # analyse a file
//	domcore analyze https://example.com/t/42     # capture and analyse
//	curl -s https://example.com | domcore analyze -
//	domcore serve --addr :8420 --db domcore.db   # HTTP API
//	domcore mcp --db domcore.db                  # MCP over stdio
//	domcore runs --db domcore.db --limit 10
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/domcore"
	"github.com/hazyhaar/domcore/capture"
)

const (
	Version = "0.3.0"
	appName = "domcore"
)

type globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Find the repeating regions of web pages",
		Long: `domcore groups same-tag siblings of a page, aligns every member of a
group onto its median-sized member and reports the element nodes that recur
in most members: the structural core of comment lists, result rows and feeds.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.dbPath, "db", "", "Run history database (empty keeps no history)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(analyzeCmd(g), serveCmd(g), mcpCmd(g), runsCmd(g), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func newLogger(level string, asJSON bool) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadConfig merges, lowest first: defaults, the config file, DOMCORE_*
// variables, then flags.
func loadConfig(g *globalFlags) (*domcore.Config, error) {
	cfg, err := domcore.LoadConfig(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.dbPath != "" {
		cfg.DBPath = g.dbPath
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func analyzeCmd(g *globalFlags) *cobra.Command {
	var (
		dotPath   string
		pageURL   string
		root      string
		xpath     string
		mode      string
		minGroup  int
		threshold float64
		colorBy   string
		clusters  bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file|url|->",
		Short: "Analyse one page and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("min-group-size") {
				cfg.Engine.MinGroupSize = minGroup
			}
			if flags.Changed("support-threshold") {
				cfg.Engine.SupportThreshold = &threshold
			}
			overrideRoot(&cfg.Root, root, xpath)
			if mode != "" {
				m, err := capture.ParseMode(mode)
				if err != nil {
					return err
				}
				cfg.Capture.Mode = m
			}
			if colorBy != "" {
				cfg.Render.ColorBy = colorBy
			}
			if clusters {
				cfg.Render.Clusters = true
			}

			logger := newLogger(g.logLevel, false)
			a, err := domcore.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signalContext()
			defer stop()

			res, err := analyzeTarget(ctx, a, args[0], pageURL, cmd.InOrStdin())
			if err != nil {
				return err
			}

			if dotPath != "" {
				if err := writeDOT(res, dotPath); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&dotPath, "dot", "", "Write a Graphviz DOT export to this file")
	f.StringVar(&pageURL, "url", "", "Page URL label for file or stdin input")
	f.StringVar(&root, "root", "", "CSS selector of the subtree to analyse")
	f.StringVar(&xpath, "root-xpath", "", "XPath of the subtree to analyse")
	f.StringVar(&mode, "mode", "", "Capture mode for URLs (http, browser, auto)")
	f.IntVar(&minGroup, "min-group-size", 4, "Smallest sibling group that gets aligned")
	f.Float64Var(&threshold, "support-threshold", 0.8, "Fraction of members a node must match in")
	f.StringVar(&colorBy, "color-by", "", "DOT fill: sibling or features")
	f.BoolVar(&clusters, "clusters", false, "Draw clusters around suspected comment lists in DOT")
	return cmd
}

// overrideRoot lets a selector flag replace the configured root of either
// kind. Passing both flags keeps both, which Validate rejects.
func overrideRoot(r *domcore.RootConfig, css, xpath string) {
	if css == "" && xpath == "" {
		return
	}
	r.CSS, r.XPath = css, xpath
}

func analyzeTarget(ctx context.Context, a *domcore.Analyzer, target, pageURL string, stdin io.Reader) (*domcore.Result, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return a.AnalyzeURL(ctx, target)
	}
	var (
		body []byte
		err  error
	)
	if target == "-" {
		body, err = io.ReadAll(stdin)
	} else {
		body, err = os.ReadFile(target)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	return a.AnalyzeHTML(ctx, body, pageURL)
}

func writeDOT(res *domcore.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dot: %w", err)
	}
	if _, err := res.WriteDOT(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func serveCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			logger := newLogger(g.logLevel, true)
			slog.SetDefault(logger)

			a, err := domcore.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			eff := a.Config()

			ctx, stop := signalContext()
			defer stop()

			srv := &http.Server{
				Addr:              eff.HTTP.Addr,
				Handler:           a.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       eff.HTTP.ReadTimeout,
				WriteTimeout:      eff.HTTP.WriteTimeout,
			}
			errc := make(chan error, 1)
			go func() {
				logger.Info("domcore: listening", "addr", srv.Addr, "db", eff.DBPath, "version", Version)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			logger.Info("domcore: shutting down")
			shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :8420)")
	return cmd
}

func mcpCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr only
			logger := newLogger(g.logLevel, true)
			a, err := domcore.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.NewServer(&mcp.Implementation{Name: appName, Version: Version}, nil)
			a.RegisterMCP(srv)

			ctx, stop := signalContext()
			defer stop()
			logger.Info("domcore: mcp on stdio")
			if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				return fmt.Errorf("mcp: %w", err)
			}
			return nil
		},
	}
}

func runsCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List stored runs, or show one with its groups",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return errors.New("runs: no database, pass --db or set db_path")
			}
			a, err := domcore.New(cfg, newLogger(g.logLevel, false))
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			var out any
			if len(args) == 1 {
				out, err = a.GetRun(ctx, args[0])
			} else {
				out, err = a.ListRuns(ctx, limit)
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}
