// Package config loads chainflow settings from TOML or YAML files.
//
// The file format is chosen by extension (.toml, .yaml, .yml). Unknown keys
// are rejected so a typo does not silently fall back to a default. Every
// section fills its own zero values in [Config.SetDefaults]; command-line
// flags are applied on top of the loaded file before [Config.Validate].
//
// Example (TOML):
//
//	[scene]
//	theme = "space"
//	explorer = "https://quaiscan.io"
//
//	[feed]
//	source = "redis"
//	redis_addr = "localhost:6379"
//	channel = "chainflow:items"
//
//	[scheduler]
//	debounce = "50ms"
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/feed"
	"github.com/matzehuels/chainflow/pkg/scene"
	"github.com/matzehuels/chainflow/pkg/scene/layout"
	"github.com/matzehuels/chainflow/pkg/scene/theme"
	"github.com/matzehuels/chainflow/pkg/scene/viewport"
	"github.com/matzehuels/chainflow/pkg/scheduler"
)

// Feed source kinds.
const (
	SourceFile      = "file"
	SourceRedis     = "redis"
	SourceWebSocket = "ws"
)

// Defaults for the outer surfaces.
const (
	DefaultAddr      = "127.0.0.1:8080"
	DefaultWidth     = 1280
	DefaultHeight    = 720
	DefaultLogLevel  = "info"
	DefaultRedisAddr = "localhost:6379"
)

// Config is the complete chainflow configuration.
type Config struct {
	Scene     Scene           `toml:"scene" yaml:"scene"`
	Layout    layout.Config   `toml:"layout" yaml:"layout"`
	Viewport  viewport.Config `toml:"viewport" yaml:"viewport"`
	Scheduler Scheduler       `toml:"scheduler" yaml:"scheduler"`
	Feed      Feed            `toml:"feed" yaml:"feed"`
	Server    Server          `toml:"server" yaml:"server"`
	Log       Log             `toml:"log" yaml:"log"`
}

// Scene holds the scene options that are not layout or viewport tuning.
type Scene struct {
	Capacity     int    `toml:"capacity" yaml:"capacity"`
	Theme        string `toml:"theme" yaml:"theme"`
	Explorer     string `toml:"explorer" yaml:"explorer"`
	MemoCapacity int    `toml:"memo_capacity" yaml:"memo_capacity"`
}

// Scheduler tunes the loop driving the scene.
type Scheduler struct {
	Debounce  time.Duration `toml:"debounce" yaml:"debounce"`
	FrameRate float64       `toml:"frame_rate" yaml:"frame_rate"`
}

// Feed selects and configures the item source.
type Feed struct {
	Source    string           `toml:"source" yaml:"source"`
	Retention int              `toml:"retention" yaml:"retention"`
	Retry     feed.RetryConfig `toml:"retry" yaml:"retry"`

	// file
	Path   string        `toml:"path" yaml:"path"`
	Follow bool          `toml:"follow" yaml:"follow"`
	Pace   time.Duration `toml:"pace" yaml:"pace"`

	// redis
	RedisAddr    string `toml:"redis_addr" yaml:"redis_addr"`
	Channel      string `toml:"channel" yaml:"channel"`
	History      string `toml:"history" yaml:"history"`
	HistoryLimit int64  `toml:"history_limit" yaml:"history_limit"`

	// ws
	URL string `toml:"url" yaml:"url"`
}

// Server configures the HTTP surface of the serve command.
type Server struct {
	Addr string `toml:"addr" yaml:"addr"`
	// Width and Height are the surface the scene is laid out and picked
	// against.
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level" yaml:"level"`
}

// Load reads a config file. The format is chosen by extension.
func Load(path string) (*Config, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read config")
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeTOML(data, &cfg)
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return &cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(names, ", "))
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// SetDefaults fills zero values in every section.
func (c *Config) SetDefaults() {
	c.Layout.SetDefaults()
	c.Viewport.SetDefaults(c.Layout.MultiChain)

	if c.Scene.Theme == "" {
		c.Scene.Theme = string(theme.KindNormal)
	}
	if c.Scene.MemoCapacity == 0 {
		c.Scene.MemoCapacity = scene.DefaultMemoCapacity
	}
	if c.Scheduler.Debounce == 0 {
		c.Scheduler.Debounce = scheduler.DefaultDebounce
	}
	if c.Scheduler.FrameRate == 0 {
		c.Scheduler.FrameRate = scheduler.DefaultFrameRate
	}

	if c.Feed.Source == "" {
		c.Feed.Source = SourceFile
	}
	if c.Feed.Retention == 0 {
		c.Feed.Retention = feed.DefaultRetention
	}
	c.Feed.Retry.SetDefaults()
	if c.Feed.RedisAddr == "" {
		c.Feed.RedisAddr = DefaultRedisAddr
	}
	if c.Feed.HistoryLimit == 0 {
		c.Feed.HistoryLimit = int64(c.Feed.Retention)
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.Width == 0 {
		c.Server.Width = DefaultWidth
	}
	if c.Server.Height == 0 {
		c.Server.Height = DefaultHeight
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks the configuration after defaults are applied. Source
// specific settings are checked for the selected source only.
func (c *Config) Validate() error {
	if _, err := theme.ParseKind(c.Scene.Theme); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "scene.theme")
	}
	opts := c.SceneOptions(nil)
	if err := opts.Validate(); err != nil {
		return err
	}
	if c.Scheduler.Debounce < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scheduler.debounce must not be negative")
	}
	if c.Scheduler.FrameRate < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scheduler.frame_rate must not be negative")
	}
	if c.Feed.Retention < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "feed.retention must not be negative")
	}
	if c.Feed.Retry.Attempts < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "feed.retry.attempts must not be negative")
	}
	if c.Server.Width < 0 || c.Server.Height < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server surface must not be negative, got %dx%d", c.Server.Width, c.Server.Height)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log.level")
	}

	switch c.Feed.Source {
	case SourceFile:
		if err := errors.ValidatePath(c.Feed.Path); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "feed.path")
		}
	case SourceRedis:
		if err := errors.ValidateChannelName(c.Feed.Channel); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "feed.channel")
		}
	case SourceWebSocket:
		if err := errors.ValidateStreamURL(c.Feed.URL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "feed.url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown feed.source %q (want file, redis or ws)", c.Feed.Source)
	}
	return nil
}

// SceneOptions converts the scene sections to scene.Options.
func (c *Config) SceneOptions(logger *log.Logger) scene.Options {
	return scene.Options{
		Layout:       c.Layout,
		Viewport:     c.Viewport,
		Capacity:     c.Scene.Capacity,
		Theme:        theme.Kind(c.Scene.Theme),
		Explorer:     c.Scene.Explorer,
		MemoCapacity: c.Scene.MemoCapacity,
		Logger:       logger,
	}
}

// SchedulerConfig converts the scheduler section to scheduler.Config.
func (c *Config) SchedulerConfig(logger *log.Logger) scheduler.Config {
	return scheduler.Config{
		Debounce:  c.Scheduler.Debounce,
		FrameRate: c.Scheduler.FrameRate,
		Logger:    logger,
	}
}

// FeedOptions converts the feed section to feed.Options.
func (c *Config) FeedOptions(logger *log.Logger) feed.Options {
	return feed.Options{
		Retention: c.Feed.Retention,
		Retry:     c.Feed.Retry,
		Logger:    logger,
	}
}

// Surface returns the configured render surface.
func (c *Config) Surface() scheduler.Surface {
	return scheduler.Surface{Width: c.Server.Width, Height: c.Server.Height}
}
