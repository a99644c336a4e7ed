package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forkline/pkg/cache"
	"github.com/matzehuels/forkline/pkg/errors"
	"github.com/matzehuels/forkline/pkg/pipeline"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Layout.Seed != pipeline.DefaultSeed {
		t.Errorf("Seed = %d, want %d", cfg.Layout.Seed, pipeline.DefaultSeed)
	}
	if cfg.Cache.Backend != BackendFile {
		t.Errorf("Backend = %q, want file", cfg.Cache.Backend)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "config.toml",
			content: `
[layout]
tip = "main"
seed = 7
lane_palette = ["#111111", "#222222"]

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/0"

[log]
level = "debug"
`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
layout:
  tip: main
  seed: 7
  lane_palette: ["#111111", "#222222"]
cache:
  backend: redis
  redis_url: redis://localhost:6379/0
log:
  level: debug
`,
		},
		{
			name: "yml",
			file: "config.yml",
			content: `
layout: {tip: main, seed: 7, lane_palette: ["#111111", "#222222"]}
cache: {backend: redis, redis_url: "redis://localhost:6379/0"}
log: {level: debug}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Layout.Tip != "main" || cfg.Layout.Seed != 7 || len(cfg.Layout.LanePalette) != 2 {
				t.Errorf("layout = %+v", cfg.Layout)
			}
			if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisURL != "redis://localhost:6379/0" {
				t.Errorf("cache = %+v", cfg.Cache)
			}
			if cfg.LogLevel() != log.DebugLevel {
				t.Errorf("LogLevel() = %v, want debug", cfg.LogLevel())
			}
			if cfg.Server.Addr != ":8080" {
				t.Errorf("Server.Addr = %q, default should be kept", cfg.Server.Addr)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code errors.Code
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.toml") }, errors.ErrCodeFileNotFound},
		{"extension", func(t *testing.T) string { return writeFile(t, "config.ini", "x=1") }, errors.ErrCodeInvalidConfig},
		{"malformed toml", func(t *testing.T) string { return writeFile(t, "config.toml", "[layout\n") }, errors.ErrCodeInvalidConfig},
		{"malformed yaml", func(t *testing.T) string { return writeFile(t, "config.yaml", "layout: [") }, errors.ErrCodeInvalidConfig},
		{"invalid value", func(t *testing.T) string {
			return writeFile(t, "config.toml", "[cache]\nbackend = \"s3\"\n")
		}, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"trunk color", func(c *Config) { c.Layout.TrunkColor = "orange" }},
		{"palette color", func(c *Config) { c.Layout.LanePalette = []string{"#fff", "blue"} }},
		{"page size", func(c *Config) { c.Layout.PageSize = -1 }},
		{"backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis url", func(c *Config) { c.Cache.Backend = BackendRedis }},
		{"addr", func(c *Config) { c.Server.Addr = "" }},
		{"body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", dir)

	path, err := DefaultPath()
	if err != nil || path != filepath.Join(dir, AppName, "config.toml") {
		t.Errorf("DefaultPath() = %q, %v", path, err)
	}
	cacheDir, err := CacheDir()
	if err != nil || cacheDir != filepath.Join(dir, AppName) {
		t.Errorf("CacheDir() = %q, %v", cacheDir, err)
	}
}

func TestPaths_Home(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if path, _ := DefaultPath(); path != filepath.Join(home, ".config", AppName, "config.toml") {
		t.Errorf("DefaultPath() = %q", path)
	}
	if dir, _ := CacheDir(); dir != filepath.Join(home, ".cache", AppName) {
		t.Errorf("CacheDir() = %q", dir)
	}
}

func TestLoadDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, path, err := LoadDefault()
	if err != nil || path != "" {
		t.Fatalf("LoadDefault() without file = %q, %v", path, err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("expected defaults, got %+v", cfg.Server)
	}

	if err := os.MkdirAll(filepath.Join(dir, AppName), 0755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, AppName, "config.toml")
	if err := os.WriteFile(want, []byte("[server]\naddr = \":9090\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err = LoadDefault()
	if err != nil || path != want {
		t.Fatalf("LoadDefault() = %q, %v", path, err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Layout.Tip = "release"
	cfg.Layout.TrunkColor = "#000000"

	opts := cfg.Options()
	if opts.Tip != "release" || opts.TrunkColor != "#000000" || opts.Seed != pipeline.DefaultSeed {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestLogFormatter(t *testing.T) {
	tests := []struct {
		format string
		want   log.Formatter
	}{
		{FormatText, log.TextFormatter},
		{FormatJSON, log.JSONFormatter},
		{FormatLogfmt, log.LogfmtFormatter},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg := Default()
			cfg.Log.Format = tt.format
			if got := cfg.LogFormatter(); got != tt.want {
				t.Errorf("LogFormatter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	cfg.Cache.Backend = BackendNone
	c, err := cfg.OpenCache(ctx)
	if err != nil {
		t.Fatalf("OpenCache(none): %v", err)
	}
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("OpenCache(none) = %T", c)
	}

	cfg = Default()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "layouts")
	c, err = cfg.OpenCache(ctx)
	if err != nil {
		t.Fatalf("OpenCache(file): %v", err)
	}
	fc, ok := c.(*cache.FileCache)
	if !ok || fc.Dir() != cfg.Cache.Dir {
		t.Errorf("OpenCache(file) = %T", c)
	}
	_ = c.Close()
}
