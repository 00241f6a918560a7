package repeat

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("repeat: invalid config")

// Limits bound every per-group traversal. Zero disables a cap.
type Limits struct {
	MaxNodes int `yaml:"max_nodes"`
	MaxDepth int `yaml:"max_depth"`
}

// Config controls an Engine.
type Config struct {
	// MinGroupSize is the smallest slot group that gets aligned.
	MinGroupSize int
	// SupportThreshold is the fraction of members that must match a
	// reference node before it is flagged.
	SupportThreshold float64
	// Limits apply to subtree counting and the reference preorder walk.
	Limits Limits
	// MaxTreeNodes caps the whole-tree grouping walk.
	MaxTreeNodes int
	// Workers > 1 aligns groups concurrently.
	Workers int
	// ExclusiveMatches stops two reference siblings from claiming the same
	// candidate in a member. Off by default.
	ExclusiveMatches bool

	Logger *slog.Logger
}

// DefaultConfig returns the tuned defaults: groups of 4 or more, 80% support,
// 4000 nodes / depth 1000 per subtree, 200000 nodes per tree.
func DefaultConfig() Config {
	return Config{
		MinGroupSize:     4,
		SupportThreshold: 0.8,
		Limits:           Limits{MaxNodes: 4000, MaxDepth: 1000},
		MaxTreeNodes:     200_000,
		Workers:          1,
	}
}

// Validate rejects out-of-range values.
func (c Config) Validate() error {
	switch {
	case c.MinGroupSize < 1:
		return fmt.Errorf("%w: min group size %d < 1", ErrInvalidConfig, c.MinGroupSize)
	case c.SupportThreshold < 0 || c.SupportThreshold > 1 || math.IsNaN(c.SupportThreshold):
		return fmt.Errorf("%w: support threshold %v outside [0,1]", ErrInvalidConfig, c.SupportThreshold)
	case c.Limits.MaxNodes < 0 || c.Limits.MaxDepth < 0 || c.MaxTreeNodes < 0:
		return fmt.Errorf("%w: negative limit", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d < 0", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
}
