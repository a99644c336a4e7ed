// Package config loads forkline settings from TOML or YAML files.
//
// The file format follows the extension: ".toml" is decoded with
// BurntSushi/toml, ".yaml" and ".yml" with yaml.v3. Values missing from the
// file keep their [Default].
//
//	[layout]
//	tip = "main"
//	seed = 7
//	trunk_color = "#f97316"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//
//	[log]
//	level = "debug"
//
// Without an explicit path, [LoadDefault] reads $XDG_CONFIG_HOME/forkline/config.toml
// (or ~/.config/forkline/config.toml) when it exists.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/forkline/pkg/cache"
	"github.com/matzehuels/forkline/pkg/errors"
	"github.com/matzehuels/forkline/pkg/pipeline"
	"github.com/matzehuels/forkline/pkg/source"
)

// AppName names the configuration and cache directories.
const AppName = "forkline"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Log formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Config is the complete settings file.
type Config struct {
	Layout LayoutConfig `toml:"layout" yaml:"layout"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Server ServerConfig `toml:"server" yaml:"server"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// LayoutConfig holds defaults for layout passes.
type LayoutConfig struct {
	Tip         string   `toml:"tip" yaml:"tip"`
	// Seed 0 selects the default seed.
	Seed        uint64   `toml:"seed" yaml:"seed"`
	TrunkColor  string   `toml:"trunk_color" yaml:"trunk_color"`
	LanePalette []string `toml:"lane_palette" yaml:"lane_palette"`
	// PageSize is the number of commits loaded per page from a repository.
	PageSize int `toml:"page_size" yaml:"page_size"`
}

// CacheConfig selects the layout cache.
type CacheConfig struct {
	Backend  string `toml:"backend" yaml:"backend"`
	Dir      string `toml:"dir" yaml:"dir"`
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
	// MaxBodyBytes limits the size of a layout request.
	MaxBodyBytes int64 `toml:"max_body_bytes" yaml:"max_body_bytes"`
	// TimeoutSeconds bounds a single request.
	TimeoutSeconds int `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Layout: LayoutConfig{
			Seed:     pipeline.DefaultSeed,
			PageSize: source.DefaultPageSize,
		},
		Cache: CacheConfig{Backend: BackendFile},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxBodyBytes:   10 << 20,
			TimeoutSeconds: 30,
		},
		Log: LogConfig{Level: "info", Format: FormatText},
	}
}

// Load reads the file at path on top of [Default] and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDefault loads the file at [DefaultPath] if it exists and returns
// [Default] otherwise. The second result is the path that was read.
func LoadDefault() (Config, string, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), "", nil
	}
	if _, err := os.Stat(path); err != nil {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Layout.TrunkColor != "" {
		if err := errors.ValidateColor(c.Layout.TrunkColor); err != nil {
			return err
		}
	}
	for _, col := range c.Layout.LanePalette {
		if err := errors.ValidateColor(col); err != nil {
			return err
		}
	}
	if c.Layout.PageSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "page_size must not be negative")
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if err := errors.ValidateRedisURL(c.Cache.RedisURL); err != nil {
			return err
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}

	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server addr cannot be empty")
	}
	if c.Server.MaxBodyBytes <= 0 || c.Server.TimeoutSeconds <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server limits must be positive")
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log level")
	}
	switch c.Log.Format {
	case FormatText, FormatJSON, FormatLogfmt:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown log format %q", c.Log.Format)
	}
	return nil
}

// Options returns layout options seeded from the layout section.
func (c Config) Options() pipeline.Options {
	return pipeline.Options{
		Tip:         c.Layout.Tip,
		Seed:        c.Layout.Seed,
		TrunkColor:  c.Layout.TrunkColor,
		LanePalette: c.Layout.LanePalette,
	}
}

// LogLevel returns the configured level, info when it does not parse.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// LogFormatter maps the configured format to a charmbracelet formatter.
func (c Config) LogFormatter() log.Formatter {
	switch c.Log.Format {
	case FormatJSON:
		return log.JSONFormatter
	case FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// OpenCache opens the configured cache backend. The file backend falls
// back to [CacheDir] when no directory is set.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: c.Cache.RedisURL, Prefix: c.Cache.Prefix})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		dir := c.Cache.Dir
		if dir == "" {
			d, err := CacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the XDG config file location
// (~/.config/forkline/config.toml).
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns the XDG cache directory (~/.cache/forkline).
func CacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
