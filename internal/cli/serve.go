package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chainflow/internal/metrics"
	"github.com/matzehuels/chainflow/internal/server"
	"github.com/matzehuels/chainflow/pkg/config"
	"github.com/matzehuels/chainflow/pkg/scene"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr   string
	width  int
	height int
	scene  sceneFlags
	feed   feedFlags
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a live scene and publish it over HTTP",
		Long: `Serve connects to a feed source, lays out every update on a single scene
loop and publishes the scene over HTTP:

  GET  /api/scene        scene snapshot
  GET  /api/pick?x=&y=   instance under a surface point
  GET  /api/click?type=&id=
                         explorer page of an instance
  POST /api/recenter     jump to the newest instance
  GET  /api/graph.dot    instance graph (DOT)
  GET  /api/graph.svg    instance graph (SVG)
  GET  /api/status       feed and scene status
  GET  /metrics          Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			cfg.SetDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}
			c.applyLogLevel(cfg)
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", fmt.Sprintf("listen address (default %s)", config.DefaultAddr))
	cmd.Flags().IntVar(&opts.width, "width", 0, "surface width for picking")
	cmd.Flags().IntVar(&opts.height, "height", 0, "surface height for picking")
	opts.scene.register(cmd.Flags())
	opts.feed.register(cmd.Flags())

	return cmd
}

func (o *serveOpts) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("addr") {
		cfg.Server.Addr = o.addr
	}
	if fs.Changed("width") {
		cfg.Server.Width = o.width
	}
	if fs.Changed("height") {
		cfg.Server.Height = o.height
	}
	o.scene.apply(fs, cfg)
	o.feed.apply(fs, cfg)
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	logger := loggerFromContext(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hooks, err := metrics.New(reg)
	if err != nil {
		return err
	}
	hooks.Install()

	e, err := newEngine(cfg, logger, func(p scene.Pass) {
		logger.Debug("layout pass", "items", p.Items, "placed", p.Placed,
			"rebuilt", p.Rebuilt, "edges", p.Edges, "duration", p.Duration)
	})
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Loop:     e.loop,
		Feed:     e.feed,
		Surface:  cfg.Surface(),
		Gatherer: reg,
		Logger:   logger,
	})

	printKeyValue("session", e.scene.Session())
	printKeyValue("source", e.source.Name())
	printKeyValue("listening", StyleLink.Render("http://"+cfg.Server.Addr))

	return e.run(ctx, func(ctx context.Context) error {
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	})
}
