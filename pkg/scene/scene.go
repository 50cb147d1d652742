package scene

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/fn/v2"
	"golang.org/x/time/rate"

	"github.com/matzehuels/chainflow/pkg/cache"
	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/observability"
	"github.com/matzehuels/chainflow/pkg/scene/connect"
	"github.com/matzehuels/chainflow/pkg/scene/layout"
	"github.com/matzehuels/chainflow/pkg/scene/pool"
	"github.com/matzehuels/chainflow/pkg/scene/theme"
	"github.com/matzehuels/chainflow/pkg/scene/viewport"
)

const (
	// DefaultMemoCapacity bounds each memo store of a session.
	DefaultMemoCapacity = 256

	// resizeEpsilon is the smallest size change that patches an instance.
	resizeEpsilon = 0.1

	// Decoration is generated from decorBehind before the leftmost instance
	// to decorAhead past the rightmost one.
	decorBehind = 500
	decorAhead  = 800
)

// Options configures a Scene. Zero fields take their defaults.
type Options struct {
	Layout   layout.Config
	Viewport viewport.Config

	// Capacity is the per-type pool capacity (default 2000).
	Capacity int
	// Theme selects the visual variant (default normal).
	Theme theme.Kind
	// Explorer is the block explorer base URL used by ExplorerURL. Empty
	// disables click routing.
	Explorer string
	// MemoCapacity bounds the geometry and material memo stores.
	MemoCapacity int

	Logger *log.Logger
	Clock  clock.Clock
}

// SetDefaults fills zero values.
func (o *Options) SetDefaults() {
	o.Layout.SetDefaults()
	o.Viewport.SetDefaults(o.Layout.MultiChain)
	if o.Capacity == 0 {
		o.Capacity = pool.DefaultCapacity
	}
	if o.Theme == "" {
		o.Theme = theme.KindNormal
	}
	if o.MemoCapacity == 0 {
		o.MemoCapacity = DefaultMemoCapacity
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Clock == nil {
		o.Clock = clock.NewDefaultClock()
	}
}

// Validate checks the options after defaults are applied.
func (o *Options) Validate() error {
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if err := o.Viewport.Validate(); err != nil {
		return err
	}
	if o.Capacity < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scene: capacity must not be negative, got %d", o.Capacity)
	}
	if o.Explorer != "" {
		if err := errors.ValidateExplorerURL(o.Explorer); err != nil {
			return err
		}
	}
	return nil
}

// Pass summarizes one layout pass.
type Pass struct {
	Items     int  `json:"items"`
	Rebuilt   bool `json:"rebuilt"`
	Dropped   int  `json:"dropped"` // instances discarded by the rebuild
	Swept     int  `json:"swept"`   // orphaned edges removed
	Placed    int  `json:"placed"`
	Refused   int  `json:"refused"`
	Invalid   int  `json:"invalid"`
	Skipped   int  `json:"skipped"` // uncles in multi-chain mode
	Fallbacks int  `json:"fallbacks"`
	Resized   int  `json:"resized"`
	Edges     int  `json:"edges"` // edges created by this pass
	Rejected  int  `json:"rejected"`

	Duration time.Duration `json:"duration"`
}

// Scene is the live scene of one session.
type Scene struct {
	opts    Options
	session string

	engine *layout.Engine
	pool   *pool.Pool
	edges  *connect.Manager
	view   *viewport.Controller
	theme  theme.Theme
	memo   *cache.Table

	minTs fn.Option[float64]

	logger   *log.Logger
	clock    clock.Clock
	refusals rate.Sometimes
}

// New creates a scene.
func New(opts Options) (*Scene, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	engine, err := layout.New(opts.Layout)
	if err != nil {
		return nil, err
	}
	th, err := theme.New(opts.Theme, opts.Layout.Seed)
	if err != nil {
		return nil, err
	}

	session := uuid.NewString()
	return &Scene{
		opts:    opts,
		session: session,
		engine:  engine,
		pool:    pool.New(opts.Capacity),
		edges:   connect.New(),
		view:    viewport.New(opts.Viewport),
		theme:   th,
		memo: cache.New(cache.Options{
			Capacity: opts.MemoCapacity,
			Keyer:    cache.NewScopedKeyer(nil, "session:"+session+":"),
		}),
		logger:   opts.Logger,
		clock:    opts.Clock,
		refusals: rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}, nil
}

// Session returns the session id.
func (s *Scene) Session() string { return s.session }

// Options returns the effective options.
func (s *Scene) Options() Options { return s.opts }

// Offset returns the applied scroll offset.
func (s *Scene) Offset() float64 { return s.view.Offset() }

// Target returns the scroll target.
func (s *Scene) Target() float64 { return s.view.Target() }

// Instance returns the instance of (t, id).
func (s *Scene) Instance(t chain.Type, id string) fn.Option[pool.Instance] {
	return s.pool.Get(t, id)
}

// Instances returns the number of live instances.
func (s *Scene) Instances() int { return s.pool.Total() }

// Counts returns the number of instances per item type.
func (s *Scene) Counts() map[chain.Type]int {
	counts := make(map[chain.Type]int, len(chain.Types))
	for _, t := range chain.Types {
		counts[t] = s.pool.Len(t)
	}
	return counts
}

// Edges returns the number of edges.
func (s *Scene) Edges() int { return s.edges.Len() }

// MinTimestamp returns the session's time origin once captured.
func (s *Scene) MinTimestamp() fn.Option[float64] { return s.minTs }

// Layout runs one layout pass over the complete live item list.
func (s *Scene) Layout(ctx context.Context, items []chain.Item) Pass {
	start := s.clock.Now()
	pass := Pass{Items: len(items)}
	idx := layout.NewIndex(items)

	s.evict(ctx, idx, &pass)

	if s.minTs.IsNone() {
		s.minTs = idx.MinTimestamp()
		s.minTs.WhenSome(func(ts float64) {
			s.logger.Debug("session time origin", "ts", ts)
		})
	}

	s.resize(idx, &pass)
	s.place(ctx, items, idx, &pass)
	s.connect(items, idx, &pass)
	s.decorate()

	pass.Duration = s.clock.Now().Sub(start)
	observability.Scene().OnLayoutPass(ctx, pass.Placed, pass.Resized, s.edges.Len(), pass.Duration)
	s.logger.Debug("layout pass",
		"items", pass.Items, "placed", pass.Placed, "refused", pass.Refused,
		"resized", pass.Resized, "edges", s.edges.Len(), "rebuilt", pass.Rebuilt)
	return pass
}

// evict empties the pool when any instance left the live set and sweeps
// orphaned edges.
func (s *Scene) evict(ctx context.Context, idx *layout.Index, pass *Pass) {
	stale := false
	s.pool.All(func(in pool.Instance) bool {
		stale = !idx.Live(in.Item.ID)
		return !stale
	})
	if stale {
		pass.Rebuilt = true
		pass.Dropped = s.pool.Total()
		s.pool.Reset()
		observability.Scene().OnRebuild(ctx, pass.Dropped)
		s.logger.Debug("rebuilding pool", "dropped", pass.Dropped)
	}
	pass.Swept = s.edges.Sweep(idx.IDs())
}

// resize patches block instances whose workshare count changed their size.
func (s *Scene) resize(idx *layout.Index, pass *Pass) {
	for _, t := range []chain.Type{chain.TypePrime, chain.TypeRegion, chain.TypeBlock} {
		var changed []pool.Instance
		s.pool.Each(t, func(in pool.Instance) bool {
			size := s.engine.Size(in.Item, idx)
			if math.Abs(size-in.Size) > resizeEpsilon {
				in.Size = size
				changed = append(changed, in)
			}
			return true
		})
		for _, in := range changed {
			if s.pool.Resize(t, in.Item.ID, in.Size) {
				pass.Resized++
			}
		}
	}
}

func (s *Scene) place(ctx context.Context, items []chain.Item, idx *layout.Index, pass *Pass) {
	for _, it := range items {
		if s.opts.Layout.MultiChain && it.Type == chain.TypeUncle {
			pass.Skipped++
			continue
		}
		if err := it.Validate(); err != nil {
			pass.Invalid++
			s.logger.Warn("skipping item", "err", err)
			continue
		}
		if s.pool.Has(it.Type, it.ID) {
			continue
		}

		pl := s.engine.Place(it, idx, s.minTs, s.pool)
		pl.Fallback.WhenSome(func(code errors.Code) {
			pass.Fallbacks++
			observability.Scene().OnFallback(ctx, string(it.Type), code)
			s.logger.Debug("fallback placement", "type", it.Type, "id", it.ID, "code", code)
		})

		if _, err := s.pool.Add(it, pl.Origin, pl.Size); err != nil {
			code := errors.GetCode(err)
			if code == errors.ErrCodeDuplicateInstance {
				// Repeated id within one snapshot.
				continue
			}
			pass.Refused++
			observability.Scene().OnRefused(ctx, string(it.Type), code)
			if !errors.IsSoft(err) {
				s.logger.Error("instance refused", "type", it.Type, "id", it.ID, "err", err)
				continue
			}
			s.refusals.Do(func() {
				s.logger.Warn("instance refused", "type", it.Type, "id", it.ID, "err", err)
			})
			continue
		}
		pass.Placed++

		if it.Type == chain.TypeBlock {
			s.engine.RecenterTarget(s.pool).WhenSome(func(target float64) {
				s.view.SetTarget(target)
			})
		}
	}
}

// link is one edge candidate.
type link struct {
	kind          connect.Kind
	parent, child chain.Item
}

// connect creates edges between instanced relatives.
func (s *Scene) connect(items []chain.Item, idx *layout.Index, pass *Pass) {
	for _, it := range items {
		if s.opts.Layout.MultiChain && it.Type == chain.TypeUncle {
			continue
		}
		for _, l := range relatives(it, idx) {
			parent := s.pool.Get(l.parent.Type, l.parent.ID)
			child := s.pool.Get(l.child.Type, l.child.ID)
			if parent.IsNone() || child.IsNone() {
				continue
			}
			key := connect.Key{ParentID: l.parent.ID, ChildID: l.child.ID, Kind: l.kind}
			if s.edges.Has(key) {
				continue
			}
			if _, err := s.edges.Connect(l.kind, parent.UnsafeFromSome(), child.UnsafeFromSome()); err != nil {
				pass.Rejected++
				s.logger.Warn("edge rejected", "kind", l.kind, "err", err)
				continue
			}
			pass.Edges++
		}
	}
}

// relatives returns the edges an item takes part in as the iterating end.
func relatives(it chain.Item, idx *layout.Index) []link {
	var links []link
	add := func(kind connect.Kind, parent, child chain.Item) {
		links = append(links, link{kind: kind, parent: parent, child: child})
	}

	switch {
	case it.Type.IsBlock():
		switch it.Type {
		case chain.TypeRegion:
			idx.Find(chain.TypeBlock, it.FullHash).WhenSome(func(zone chain.Item) {
				add(connect.KindHierarchy, it, zone)
			})
		case chain.TypePrime:
			idx.Find(chain.TypeRegion, it.FullHash).WhenSome(func(region chain.Item) {
				add(connect.KindHierarchy, it, region)
			})
		}
		if it.HasParent() && it.Number.IsSome() {
			idx.Find(it.Type, it.FullParentHash).WhenSome(func(parent chain.Item) {
				if parent.Number.IsSome() {
					add(connect.KindChain, parent, it)
				}
			})
		}
	case it.Type == chain.TypeWorkshare && it.HasParent():
		idx.Find(chain.TypeBlock, it.FullParentHash).WhenSome(func(block chain.Item) {
			add(connect.KindWorkshare, block, it)
		})
	}

	if it.Type.IsAuxiliary() && it.IncludedIn != "" {
		idx.Find(chain.TypeBlock, it.IncludedIn).WhenSome(func(block chain.Item) {
			add(connect.KindInclusion, it, block)
		})
	}
	return links
}

// decorate asks the theme for decoration around the instanced range.
func (s *Scene) decorate() {
	minX, maxX := math.Inf(1), math.Inf(-1)
	s.pool.All(func(in pool.Instance) bool {
		minX = math.Min(minX, in.Origin.X)
		maxX = math.Max(maxX, in.Origin.X)
		return true
	})
	if math.IsInf(minX, 0) {
		return
	}
	s.theme.GenerateSegment(minX-decorBehind, maxX+decorAhead)
}

// Tick advances the scroll offset by dt, reprojects the pool and advances
// the theme animations. It returns the applied offset.
func (s *Scene) Tick(ctx context.Context, dt time.Duration) float64 {
	offset := s.view.Tick(dt)
	if s.pool.Reposition(offset) {
		observability.Scene().OnReposition(ctx, s.pool.Total())
	}
	s.theme.UpdateAnimations(offset)
	return offset
}

// Recenter jumps the viewport to the newest instance. It reports false when
// the pool is empty.
func (s *Scene) Recenter() bool {
	ok := false
	s.pool.MaxOriginX().WhenSome(func(maxX float64) {
		ok = s.view.Recenter(maxX)
	})
	if ok {
		s.pool.Reposition(s.view.Offset())
	}
	return ok
}

// Close removes theme decoration and empties the scene.
func (s *Scene) Close() {
	s.theme.Cleanup()
	s.edges.Clear()
	s.pool.Reset()
}
