package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/chainflow/pkg/config"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/feed"
	"github.com/matzehuels/chainflow/pkg/scene"
	"github.com/matzehuels/chainflow/pkg/scheduler"
)

// engine is a live scene fed by a source: the feed collects items, the pump
// hands every update to the loop, and the loop lays them out.
type engine struct {
	cfg    *config.Config
	logger *log.Logger

	scene  *scene.Scene
	loop   *scheduler.Loop[*scene.Scene]
	feed   *feed.Feed
	source feed.Source

	closers []func() error
}

// newEngine builds the scene, loop, feed and source described by cfg.
// onPass runs on the loop goroutine after every layout pass.
func newEngine(cfg *config.Config, logger *log.Logger, onPass func(scene.Pass)) (*engine, error) {
	sc, err := scene.New(cfg.SceneOptions(logger))
	if err != nil {
		return nil, err
	}
	f, err := feed.New(cfg.FeedOptions(logger))
	if err != nil {
		return nil, err
	}

	sched := cfg.SchedulerConfig(logger)
	sched.OnPass = onPass

	e := &engine{
		cfg:    cfg,
		logger: logger,
		scene:  sc,
		loop:   scheduler.New(sc, sched),
		feed:   f,
	}
	if e.source, err = e.newSource(); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

func (e *engine) newSource() (feed.Source, error) {
	fc := e.cfg.Feed
	switch fc.Source {
	case config.SourceFile:
		src, err := feed.NewFileSource(fc.Path, fc.Follow)
		if err != nil {
			return nil, err
		}
		src.Pace = fc.Pace
		src.Logger = e.logger
		return src, nil

	case config.SourceRedis:
		client := redis.NewClient(&redis.Options{Addr: fc.RedisAddr})
		e.closers = append(e.closers, client.Close)
		src, err := feed.NewRedisSource(client, fc.Channel)
		if err != nil {
			return nil, err
		}
		src.History = fc.History
		src.HistoryLimit = fc.HistoryLimit
		src.Logger = e.logger
		return src, nil

	case config.SourceWebSocket:
		src, err := feed.NewWebSocketSource(fc.URL, nil)
		if err != nil {
			return nil, err
		}
		src.Logger = e.logger
		return src, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown feed source %q", fc.Source)
}

// run drives the engine until ctx is done or a component fails. extra
// functions join the same group and see its context.
func (e *engine) run(ctx context.Context, extra ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return e.loop.Run(gctx) })
	g.Go(func() error {
		if err := e.loop.SetSurface(gctx, e.cfg.Surface()); err != nil {
			return ignoreStop(err)
		}
		return e.pump(gctx)
	})
	g.Go(func() error {
		err := e.feed.Run(gctx, e.source)
		if err != nil {
			return fmt.Errorf("feed %s: %w", e.source.Name(), err)
		}
		e.logger.Info("feed ended", "source", e.source.Name())
		return nil
	})
	for _, fn := range extra {
		g.Go(func() error { return fn(gctx) })
	}

	err := g.Wait()
	e.close()
	return err
}

// pump submits the retained items after every feed update.
func (e *engine) pump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.feed.Updates():
			if err := e.loop.Submit(ctx, e.feed.Items()); err != nil {
				return ignoreStop(err)
			}
		}
	}
}

func (e *engine) close() {
	e.scene.Close()
	for _, c := range e.closers {
		if err := c(); err != nil {
			e.logger.Debug("close", "err", err)
		}
	}
}

// ignoreStop treats a stopped loop or a cancelled context as a clean exit.
func ignoreStop(err error) error {
	if stderrors.Is(err, scheduler.ErrStopped) || stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
