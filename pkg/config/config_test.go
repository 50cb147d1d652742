package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/feed"
	"github.com/matzehuels/chainflow/pkg/scene/layout"
	"github.com/matzehuels/chainflow/pkg/scheduler"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const tomlConfig = `
[scene]
theme = "space"
explorer = "https://quaiscan.io"
capacity = 500

[layout]
multi_chain = true

[scheduler]
debounce = "80ms"

[feed]
source = "redis"
channel = "chainflow:items"
retention = 100

[feed.retry]
attempts = 3
base_delay = "2s"

[server]
addr = ":9090"
`

const yamlConfig = `
scene:
  theme: space
  explorer: https://quaiscan.io
  capacity: 500
layout:
  multi_chain: true
scheduler:
  debounce: 80ms
feed:
  source: redis
  channel: chainflow:items
  retention: 100
  retry:
    attempts: 3
    base_delay: 2s
server:
  addr: ":9090"
`

func TestLoad(t *testing.T) {
	want := Config{
		Scene:     Scene{Capacity: 500, Theme: "space", Explorer: "https://quaiscan.io"},
		Layout:    layout.Config{MultiChain: true},
		Scheduler: Scheduler{Debounce: 80 * time.Millisecond},
		Feed: Feed{
			Source:    SourceRedis,
			Channel:   "chainflow:items",
			Retention: 100,
			Retry:     feed.RetryConfig{Attempts: 3, BaseDelay: 2 * time.Second},
		},
		Server: Server{Addr: ":9090"},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "chainflow.toml", tomlConfig},
		{"yaml", "chainflow.yaml", yamlConfig},
		{"yml", "chainflow.yml", yamlConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(write(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if diff := cmp.Diff(want, *cfg); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unknown extension", "chainflow.json", "{}", "unsupported config format"},
		{"unknown toml key", "c.toml", "[scene]\nthemes = \"space\"\n", "scene.themes"},
		{"unknown yaml key", "c.yaml", "scene:\n  themes: space\n", "themes"},
		{"bad toml", "c.toml", "[scene\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error code = %s, want INVALID_CONFIG", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file error = %v, want NOT_FOUND", err)
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(write(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(Config{}, *cfg); diff != "" {
		t.Errorf("empty file should decode to zero config:\n%s", diff)
	}
}

func TestSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	if cfg.Scene.Theme != "normal" {
		t.Errorf("Theme = %q, want normal", cfg.Scene.Theme)
	}
	if cfg.Scheduler.Debounce != scheduler.DefaultDebounce {
		t.Errorf("Debounce = %v", cfg.Scheduler.Debounce)
	}
	if cfg.Scheduler.FrameRate != scheduler.DefaultFrameRate {
		t.Errorf("FrameRate = %v", cfg.Scheduler.FrameRate)
	}
	if cfg.Feed.Source != SourceFile || cfg.Feed.Retention != feed.DefaultRetention {
		t.Errorf("Feed = %+v", cfg.Feed)
	}
	if cfg.Feed.HistoryLimit != feed.DefaultRetention {
		t.Errorf("HistoryLimit = %d", cfg.Feed.HistoryLimit)
	}
	if cfg.Feed.Retry.BaseDelay != feed.DefaultBaseDelay {
		t.Errorf("Retry = %+v", cfg.Feed.Retry)
	}
	if cfg.Server.Addr != DefaultAddr || !cfg.Surface().Ready() {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Layout.ZoneSize != layout.DefaultZoneSize {
		t.Errorf("ZoneSize = %v", cfg.Layout.ZoneSize)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Level = %q", cfg.Log.Level)
	}

	// Explicit values survive.
	cfg = Config{Feed: Feed{Retention: 10}, Scene: Scene{Theme: "tron"}}
	cfg.SetDefaults()
	if cfg.Feed.HistoryLimit != 10 || cfg.Scene.Theme != "tron" {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"file source", func(c *Config) { c.Feed.Path = "items.jsonl" }, false},
		{"file source without path", func(c *Config) {}, true},
		{"redis source", func(c *Config) { c.Feed.Source = SourceRedis; c.Feed.Channel = "items" }, false},
		{"redis source without channel", func(c *Config) { c.Feed.Source = SourceRedis }, true},
		{"ws source", func(c *Config) { c.Feed.Source = SourceWebSocket; c.Feed.URL = "wss://feed.example.com/items" }, false},
		{"ws source with http url", func(c *Config) { c.Feed.Source = SourceWebSocket; c.Feed.URL = "http://feed.example.com" }, true},
		{"unknown source", func(c *Config) { c.Feed.Source = "kafka" }, true},
		{"unknown theme", func(c *Config) { c.Feed.Path = "a"; c.Scene.Theme = "neon" }, true},
		{"bad explorer", func(c *Config) { c.Feed.Path = "a"; c.Scene.Explorer = "ftp://x" }, true},
		{"negative capacity", func(c *Config) { c.Feed.Path = "a"; c.Scene.Capacity = -1 }, true},
		{"negative retention", func(c *Config) { c.Feed.Path = "a"; c.Feed.Retention = -5 }, true},
		{"negative debounce", func(c *Config) { c.Feed.Path = "a"; c.Scheduler.Debounce = -time.Second }, true},
		{"bad log level", func(c *Config) { c.Feed.Path = "a"; c.Log.Level = "loud" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.SetDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	var cfg Config
	cfg.Scene = Scene{Capacity: 42, Theme: "tron", Explorer: "https://quaiscan.io"}
	cfg.Feed.Retention = 12
	cfg.SetDefaults()

	opts := cfg.SceneOptions(nil)
	if opts.Capacity != 42 || opts.Theme != "tron" || opts.Explorer != "https://quaiscan.io" {
		t.Errorf("SceneOptions() = %+v", opts)
	}
	if sc := cfg.SchedulerConfig(nil); sc.Debounce != scheduler.DefaultDebounce {
		t.Errorf("SchedulerConfig() = %+v", sc)
	}
	if fo := cfg.FeedOptions(nil); fo.Retention != 12 {
		t.Errorf("FeedOptions() = %+v", fo)
	}
}
