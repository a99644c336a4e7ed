// Package cli implements the forkline command-line interface.
//
// # Commands
//
//   - layout: lay out a history document, a GitHub API dump or a local repository
//   - serve: run the HTTP layout API
//   - cache: inspect and clear the layout cache
//   - completion: generate shell completions
//
// # Configuration
//
// Settings come from the file named by --config, or from
// ~/.config/forkline/config.toml when it exists. Flags override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// carried on the CLI and passed to layout passes through pipeline.Options.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forkline/pkg/cache"
	"github.com/matzehuels/forkline/pkg/config"
	"github.com/matzehuels/forkline/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	// configPath is the file Config was loaded from, empty for defaults.
	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return c.Config.OpenCache(ctx)
}

// cacheDir returns the file cache directory in use.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return config.CacheDir()
}
