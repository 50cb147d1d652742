// Package scheduler drives a scene from a single goroutine.
//
// A [Loop] owns its scene: every layout pass, frame tick and presentation
// query runs on the goroutine that calls [Loop.Run]. Other goroutines talk to
// it through [Loop.Submit], [Loop.SetSurface] and [Loop.Do].
//
// Item batches are debounced. A new batch replaces the pending one and
// restarts the delay, so a burst of feed updates costs a single layout pass.
// Passes also wait until the render surface has nonzero dimensions; a batch
// that is due before that is kept and laid out as soon as a usable surface
// arrives.
package scheduler

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/scene"
)

// Defaults for Config.
const (
	DefaultDebounce  = 50 * time.Millisecond
	DefaultFrameRate = 60
)

// ErrStopped is returned when the loop is not running anymore.
var ErrStopped = errors.New("scheduler: loop stopped")

// Scene is what the loop drives. *scene.Scene satisfies it.
type Scene interface {
	Layout(ctx context.Context, items []chain.Item) scene.Pass
	Tick(ctx context.Context, dt time.Duration) float64
}

var _ Scene = (*scene.Scene)(nil)

// Surface is the size of the render target in pixels.
type Surface struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Ready reports whether the surface can be drawn on.
func (s Surface) Ready() bool { return s.Width > 0 && s.Height > 0 }

// Config configures a Loop. Zero fields take their defaults.
type Config struct {
	// Debounce is the quiet period between the last batch and its layout
	// pass.
	Debounce time.Duration
	// FrameRate is the tick frequency when Ticker is nil.
	FrameRate float64

	// Clock times the debounce and the first frame.
	Clock clock.Clock
	// Ticker delivers frames.
	Ticker ticker.Ticker

	// OnPass is called on the loop goroutine after every layout pass.
	OnPass func(scene.Pass)

	Logger *log.Logger
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Debounce == 0 {
		c.Debounce = DefaultDebounce
	}
	if c.FrameRate == 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.Clock == nil {
		c.Clock = clock.NewDefaultClock()
	}
	if c.Ticker == nil {
		c.Ticker = ticker.New(time.Duration(float64(time.Second) / c.FrameRate))
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

type request[S Scene] struct {
	f    func(S)
	done chan struct{}
}

// Loop runs a scene on one goroutine.
type Loop[S Scene] struct {
	sc  S
	cfg Config

	submit  chan []chain.Item
	surface chan Surface
	do      chan request[S]

	quit chan struct{}
}

// New creates a loop for sc. Call Run to start it.
func New[S Scene](sc S, cfg Config) *Loop[S] {
	cfg.SetDefaults()
	return &Loop[S]{
		sc:      sc,
		cfg:     cfg,
		submit:  make(chan []chain.Item),
		surface: make(chan Surface),
		do:      make(chan request[S]),
		quit:    make(chan struct{}),
	}
}

// Run drives the scene until ctx is cancelled. A pending batch is dropped
// on return. Run must be called at most once.
func (l *Loop[S]) Run(ctx context.Context) error {
	defer close(l.quit)

	l.cfg.Ticker.Resume()
	defer l.cfg.Ticker.Stop()

	var (
		pending  []chain.Item
		due      bool
		debounce <-chan time.Time
		surface  Surface
		last     = l.cfg.Clock.Now()
	)

	pass := func() {
		p := l.sc.Layout(ctx, pending)
		pending, due = nil, false
		if l.cfg.OnPass != nil {
			l.cfg.OnPass(p)
		}
	}

	for {
		select {
		case items := <-l.submit:
			pending, due = items, false
			debounce = l.cfg.Clock.TickAfter(l.cfg.Debounce)

		case <-debounce:
			debounce = nil
			due = true
			if !surface.Ready() {
				l.cfg.Logger.Debug("layout waiting for surface", "items", len(pending))
				continue
			}
			pass()

		case s := <-l.surface:
			surface = s
			if due && surface.Ready() {
				pass()
			}

		case t := <-l.cfg.Ticker.Ticks():
			dt := t.Sub(last)
			last = t
			if dt < 0 {
				dt = 0
			}
			l.sc.Tick(ctx, dt)

		case req := <-l.do:
			req.f(l.sc)
			close(req.done)

		case <-ctx.Done():
			if pending != nil {
				l.cfg.Logger.Debug("dropping pending batch", "items", len(pending))
			}
			return nil
		}
	}
}

// Submit hands the complete live item list to the loop. It replaces any
// batch still waiting for its layout pass.
func (l *Loop[S]) Submit(ctx context.Context, items []chain.Item) error {
	return send(ctx, l.quit, l.submit, items)
}

// SetSurface reports the current render target size.
func (l *Loop[S]) SetSurface(ctx context.Context, s Surface) error {
	return send(ctx, l.quit, l.surface, s)
}

// Do runs f on the loop goroutine and waits for it to return.
func (l *Loop[S]) Do(ctx context.Context, f func(S)) error {
	req := request[S]{f: f, done: make(chan struct{})}
	if err := send(ctx, l.quit, l.do, req); err != nil {
		return err
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.quit:
		return ErrStopped
	}
}

// Done is closed when Run has returned.
func (l *Loop[S]) Done() <-chan struct{} { return l.quit }

func send[T any](ctx context.Context, quit <-chan struct{}, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-quit:
		return ErrStopped
	}
}
