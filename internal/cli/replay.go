package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/config"
	"github.com/matzehuels/chainflow/pkg/feed"
	"github.com/matzehuels/chainflow/pkg/render"
	"github.com/matzehuels/chainflow/pkg/render/nodelink"
	"github.com/matzehuels/chainflow/pkg/scene"
)

const (
	formatJSON = "json" // scene snapshot

	defaultFrames = 60  // frames simulated after each batch
	defaultScale  = 2.0 // PNG scale factor
)

// replayOpts holds the command-line flags for the replay command.
type replayOpts struct {
	output   string
	format   string
	batch    int // items per layout pass; 0 lays out the whole file at once
	frames   int
	detailed bool
	scale    float64
	scene    sceneFlags
}

// replayCommand lays out a recorded feed the way a live session would have
// seen it, then writes the final scene.
func (c *CLI) replayCommand() *cobra.Command {
	opts := replayOpts{format: formatJSON, frames: defaultFrames, scale: defaultScale}

	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Lay out a recorded JSON-lines feed and write the scene",
		Long: `Replay reads a JSON-lines feed file, feeds it through the retention window in
batches, runs a layout pass and a number of frames per batch, and writes the
resulting scene as a JSON snapshot or as a node-link graph (dot, svg, png, pdf).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatJSON {
				if err := render.ValidateFormat(opts.format); err != nil {
					return err
				}
			}
			if opts.batch < 0 || opts.frames < 0 {
				return fmt.Errorf("batch and frames must not be negative")
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.scene.apply(cmd.Flags(), cfg)
			cfg.Feed.Source = config.SourceFile
			cfg.Feed.Path = args[0]
			cfg.SetDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}
			c.applyLogLevel(cfg)
			return c.runReplay(cmd.Context(), cfg, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.format, "format", opts.format, "output format: json (default), dot, svg, png, pdf")
	cmd.Flags().IntVar(&opts.batch, "batch", 0, "items per layout pass (0 = all at once)")
	cmd.Flags().IntVar(&opts.frames, "frames", opts.frames, "frames simulated after each pass")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include hash, position and size in graph nodes")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	opts.scene.register(cmd.Flags())

	return cmd
}

// replayStats sums the passes of a replay.
type replayStats struct {
	items    int
	passes   int
	placed   int
	refused  int
	rebuilds int
}

func (s *replayStats) add(p scene.Pass) {
	s.passes++
	s.placed += p.Placed
	s.refused += p.Refused
	if p.Rebuilt {
		s.rebuilds++
	}
}

func (c *CLI) runReplay(ctx context.Context, cfg *config.Config, opts *replayOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger, clock.NewDefaultClock())

	items, err := readFeedFile(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Debug("read feed", "path", cfg.Feed.Path, "items", len(items))

	sc, err := scene.New(cfg.SceneOptions(logger))
	if err != nil {
		return err
	}
	defer sc.Close()
	f, err := feed.New(cfg.FeedOptions(logger))
	if err != nil {
		return err
	}

	stats := replayStats{items: len(items)}
	frame := time.Duration(float64(time.Second) / cfg.Scheduler.FrameRate)
	for _, batch := range batches(items, opts.batch) {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.Add(batch...)
		pass := sc.Layout(ctx, f.Items())
		stats.add(pass)
		logger.Debug("layout pass", "items", pass.Items, "placed", pass.Placed,
			"rebuilt", pass.Rebuilt, "edges", pass.Edges)
		for range opts.frames {
			sc.Tick(ctx, frame)
		}
	}
	prog.done("Replayed %d items in %d passes", stats.items, stats.passes)

	data, err := replayOutput(ctx, sc, opts)
	if err != nil {
		return err
	}
	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}

	if opts.output != "" {
		printSuccess("Wrote %s", opts.output)
		printFile(opts.output)
		printReplayStats(stats, sc.Instances(), sc.Edges())
	}
	return nil
}

// readFeedFile reads every item of a feed file in one batch.
func readFeedFile(ctx context.Context, cfg *config.Config) ([]chain.Item, error) {
	src, err := feed.NewFileSource(cfg.Feed.Path, false)
	if err != nil {
		return nil, err
	}
	src.Logger = loggerFromContext(ctx)

	var items []chain.Item
	err = src.Stream(ctx, func(batch []chain.Item) { items = append(items, batch...) })
	return items, err
}

// batches splits items into consecutive runs of size n. n <= 0 yields one
// batch holding everything.
func batches(items []chain.Item, n int) [][]chain.Item {
	if n <= 0 || n >= len(items) {
		return [][]chain.Item{items}
	}
	var out [][]chain.Item
	for start := 0; start < len(items); start += n {
		out = append(out, items[start:min(start+n, len(items))])
	}
	return out
}

func replayOutput(ctx context.Context, sc *scene.Scene, opts *replayOpts) ([]byte, error) {
	if opts.format == formatJSON {
		data, err := json.MarshalIndent(sc.Snapshot(), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}

	dot := sc.DOT(opts.detailed)
	if opts.format == render.FormatDOT {
		return []byte(dot), nil
	}

	spin := newSpinnerWithContext(ctx, "Rendering graph...")
	spin.Start()
	defer spin.Stop()

	data, err := renderGraph(ctx, dot, opts)
	if err != nil {
		if spin.Cancelled() {
			return nil, ctx.Err()
		}
		spin.StopWithError("Render failed")
		return nil, err
	}
	return data, nil
}

func renderGraph(ctx context.Context, dot string, opts *replayOpts) ([]byte, error) {
	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch opts.format {
	case render.FormatPNG:
		return render.ToPNG(ctx, svg, opts.scale)
	case render.FormatPDF:
		return render.ToPDF(ctx, svg)
	}
	return svg, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns stdout for an empty path.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
