package cli

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/matzehuels/chainflow/pkg/config"
)

// sceneFlags override the scene sections of the config file.
type sceneFlags struct {
	theme      string
	explorer   string
	capacity   int
	multiChain bool
	seed       uint64
}

func (f *sceneFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.theme, "theme", "", "theme: normal (default), space, tron")
	fs.StringVar(&f.explorer, "explorer", "", "block explorer base URL for click routing")
	fs.IntVar(&f.capacity, "capacity", 0, "instances per item type (default 2000)")
	fs.BoolVar(&f.multiChain, "multi-chain", false, "use the multi-chain layout")
	fs.Uint64Var(&f.seed, "seed", 0, "seed for fallback placement and decoration")
}

func (f *sceneFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("theme") {
		cfg.Scene.Theme = f.theme
	}
	if fs.Changed("explorer") {
		cfg.Scene.Explorer = f.explorer
	}
	if fs.Changed("capacity") {
		cfg.Scene.Capacity = f.capacity
	}
	if fs.Changed("multi-chain") {
		cfg.Layout.MultiChain = f.multiChain
	}
	if fs.Changed("seed") {
		cfg.Layout.Seed = f.seed
	}
}

// feedFlags override the feed section of the config file.
type feedFlags struct {
	source    string
	path      string
	follow    bool
	pace      time.Duration
	redisAddr string
	channel   string
	history   string
	url       string
	retention int
}

func (f *feedFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.source, "source", "", "feed source: file (default), redis, ws")
	fs.StringVarP(&f.path, "file", "f", "", "JSON-lines feed file (file source)")
	fs.BoolVar(&f.follow, "follow", false, "keep reading lines appended to the feed file")
	fs.DurationVar(&f.pace, "pace", 0, "deliver file items one at a time at this interval")
	fs.StringVar(&f.redisAddr, "redis", "", "Redis address (redis source)")
	fs.StringVar(&f.channel, "channel", "", "Redis pub/sub channel (redis source)")
	fs.StringVar(&f.history, "history", "", "Redis list replayed on connect (redis source)")
	fs.StringVar(&f.url, "url", "", "WebSocket feed URL (ws source)")
	fs.IntVar(&f.retention, "retention", 0, "items kept by the feed (default 750)")
}

func (f *feedFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("source") {
		cfg.Feed.Source = f.source
	}
	if fs.Changed("file") {
		cfg.Feed.Path = f.path
		// A file flag alone selects the file source.
		if !fs.Changed("source") {
			cfg.Feed.Source = config.SourceFile
		}
	}
	if fs.Changed("follow") {
		cfg.Feed.Follow = f.follow
	}
	if fs.Changed("pace") {
		cfg.Feed.Pace = f.pace
	}
	if fs.Changed("redis") {
		cfg.Feed.RedisAddr = f.redisAddr
	}
	if fs.Changed("channel") {
		cfg.Feed.Channel = f.channel
	}
	if fs.Changed("history") {
		cfg.Feed.History = f.history
	}
	if fs.Changed("url") {
		cfg.Feed.URL = f.url
	}
	if fs.Changed("retention") {
		cfg.Feed.Retention = f.retention
	}
}
