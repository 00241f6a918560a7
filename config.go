// CLAUDE:SUMMARY Service configuration: YAML file, DOMCORE_* environment overrides, defaults, engine/capture/render sections.
package domcore

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/domcore/capture"
	"github.com/hazyhaar/domcore/render"
	"github.com/hazyhaar/domcore/repeat"
)

// EnvPrefix prefixes every environment override, e.g.
// DOMCORE_ENGINE_MIN_GROUP_SIZE or DOMCORE_CAPTURE_MODE.
const EnvPrefix = "DOMCORE"

// Config holds all domcore configuration.
type Config struct {
	// DBPath enables the run history. Empty keeps no history.
	DBPath  string         `yaml:"db_path" envconfig:"DB_PATH"`
	HTTP    HTTPConfig     `yaml:"http" envconfig:"HTTP"`
	Engine  EngineConfig   `yaml:"engine" envconfig:"ENGINE"`
	Capture capture.Config `yaml:"capture" envconfig:"CAPTURE"`
	Root    RootConfig     `yaml:"root" envconfig:"ROOT"`
	Render  RenderConfig   `yaml:"render" envconfig:"RENDER"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr         string        `yaml:"addr" envconfig:"ADDR"`
	MaxBody      int64         `yaml:"max_body" envconfig:"MAX_BODY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
}

// EngineConfig mirrors repeat.Config. Zero values take the defaults;
// a negative limit disables it.
type EngineConfig struct {
	MinGroupSize int `yaml:"min_group_size" envconfig:"MIN_GROUP_SIZE"`
	// SupportThreshold is a pointer so an explicit 0 survives defaults.
	SupportThreshold *float64 `yaml:"support_threshold" envconfig:"SUPPORT_THRESHOLD"`
	MaxNodes         int      `yaml:"max_nodes" envconfig:"MAX_NODES"`
	MaxDepth         int      `yaml:"max_depth" envconfig:"MAX_DEPTH"`
	MaxTreeNodes     int      `yaml:"max_tree_nodes" envconfig:"MAX_TREE_NODES"`
	Workers          int      `yaml:"workers" envconfig:"WORKERS"`
	ExclusiveMatches bool     `yaml:"exclusive_matches" envconfig:"EXCLUSIVE_MATCHES"`
}

// RootConfig restricts analysis to one subtree. At most one selector may
// be set; the first match wins.
type RootConfig struct {
	CSS   string `yaml:"css" envconfig:"CSS"`
	XPath string `yaml:"xpath" envconfig:"XPATH"`
}

// RenderConfig controls DOT export and reference previews.
type RenderConfig struct {
	Title        string `yaml:"title" envconfig:"TITLE"`
	ColorBy      string `yaml:"color_by" envconfig:"COLOR_BY"` // sibling | features
	Clusters     bool   `yaml:"clusters" envconfig:"CLUSTERS"`
	MaxNodes     int    `yaml:"max_nodes" envconfig:"MAX_NODES"`
	MaxDepth     int    `yaml:"max_depth" envconfig:"MAX_DEPTH"`
	PreviewChars int    `yaml:"preview_chars" envconfig:"PREVIEW_CHARS"`
}

func (c *Config) defaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8420"
	}
	if c.HTTP.MaxBody <= 0 {
		c.HTTP.MaxBody = 10 << 20
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 30 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 2 * time.Minute
	}

	def := repeat.DefaultConfig()
	if c.Engine.MinGroupSize == 0 {
		c.Engine.MinGroupSize = def.MinGroupSize
	}
	if c.Engine.SupportThreshold == nil {
		th := def.SupportThreshold
		c.Engine.SupportThreshold = &th
	}
	if c.Engine.MaxNodes == 0 {
		c.Engine.MaxNodes = def.Limits.MaxNodes
	}
	if c.Engine.MaxDepth == 0 {
		c.Engine.MaxDepth = def.Limits.MaxDepth
	}
	if c.Engine.MaxTreeNodes == 0 {
		c.Engine.MaxTreeNodes = def.MaxTreeNodes
	}
	if c.Engine.Workers == 0 {
		c.Engine.Workers = def.Workers
	}

	if c.Capture.Mode == "" {
		c.Capture.Mode = capture.ModeAuto
	}
	if c.Render.ColorBy == "" {
		c.Render.ColorBy = string(render.ColorBySibling)
	}
	if c.Render.PreviewChars == 0 {
		c.Render.PreviewChars = 600
	}
}

func disabledIfNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// repeatConfig converts the engine section.
func (e EngineConfig) repeatConfig() repeat.Config {
	cfg := repeat.Config{
		MinGroupSize: e.MinGroupSize,
		Limits: repeat.Limits{
			MaxNodes: disabledIfNegative(e.MaxNodes),
			MaxDepth: disabledIfNegative(e.MaxDepth),
		},
		MaxTreeNodes:     disabledIfNegative(e.MaxTreeNodes),
		Workers:          e.Workers,
		ExclusiveMatches: e.ExclusiveMatches,
	}
	if e.SupportThreshold != nil {
		cfg.SupportThreshold = *e.SupportThreshold
	}
	return cfg
}

// Validate reports configuration errors that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Root.CSS != "" && c.Root.XPath != "" {
		return fmt.Errorf("domcore: config: root.css and root.xpath are exclusive")
	}
	if _, err := capture.ParseMode(string(c.Capture.Mode)); err != nil {
		return fmt.Errorf("domcore: config: %w", err)
	}
	switch render.ColorMode(c.Render.ColorBy) {
	case "", render.ColorBySibling, render.ColorByFeatures:
	default:
		return fmt.Errorf("domcore: config: unknown render.color_by %q", c.Render.ColorBy)
	}
	if err := c.Engine.repeatConfig().Validate(); err != nil {
		return fmt.Errorf("domcore: config: %w", err)
	}
	return nil
}

// LoadConfigFile reads a YAML config file. Environment overrides are not
// applied; see LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("domcore: config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfig reads path when non-empty, then applies DOMCORE_* environment
// overrides on top.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = LoadConfigFile(path); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from the environment. Unset variables keep
// the current value.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("domcore: env: %w", err)
	}
	return nil
}
