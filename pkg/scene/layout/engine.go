package layout

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/scene/pool"
)

// Off-screen fallback band: X in (offscreenX-offscreenJitter, offscreenX].
const (
	offscreenX      = -200
	offscreenJitter = 100
	inFlightDrop    = 20
)

// Instances is the read view of placed instances the engine consults.
// *pool.Pool satisfies it.
type Instances interface {
	Get(t chain.Type, id string) fn.Option[pool.Instance]
	Each(t chain.Type, f func(pool.Instance) bool)
	MaxOriginX() fn.Option[float64]
}

var _ Instances = (*pool.Pool)(nil)

// Placement is the computed position and size of one item.
type Placement struct {
	Origin pool.Vec3
	Size   float64

	// Fallback is the error code of the fallback path taken, if any:
	// INVALID_INPUT for an unusable timestamp or missing height,
	// MISSING_RELATIVE for an in-flight workshare without an instanced
	// parent, INVALID_GEOMETRY for a non-finite result.
	Fallback fn.Option[errors.Code]

	// Displacements counts how often overlap resolution moved the item.
	Displacements int
}

// Engine places items. It is not safe for concurrent use.
type Engine struct {
	cfg Config
	rng *rand.Rand
}

// New creates an engine. Zero fields of cfg take their defaults.
func New(cfg Config) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Size returns the edge length of it given the live workshare counts.
// Block types grow by Growth per workshare; multi-chain mode caps the result.
func (e *Engine) Size(it chain.Item, idx *Index) float64 {
	base := e.cfg.BaseSize(it.Type)
	if !it.Type.IsBlock() {
		return base
	}
	size := base * (1 + e.cfg.Growth*float64(idx.WorkshareCount(it.FullHash)))
	if e.cfg.MultiChain {
		size = math.Min(size, base*e.cfg.SizeCap)
	}
	return size
}

// Place computes the placement of an item that has no instance yet.
//
// minTs is the session's fixed minimum timestamp. Place never fails: every
// path that cannot compute a real position produces a fallback and records
// it in the result.
func (e *Engine) Place(it chain.Item, idx *Index, minTs fn.Option[float64], inst Instances) Placement {
	pl := Placement{Size: e.Size(it, idx)}

	var pos pool.Vec3
	switch {
	case !it.HasTimestamp() || minTs.IsNone():
		pos = pool.Vec3{X: e.offscreen(), Y: e.cfg.Baseline(it.Type)}
		pl.Fallback = fn.Some(errors.ErrCodeInvalidInput)
	case it.Number.IsNone():
		pos, pl.Fallback = e.placeInFlight(it, pl.Size, idx, inst)
	default:
		pos = e.placeNumbered(it, pl.Size, idx, minTs.UnwrapOr(0))
	}

	pos, pl.Displacements = e.resolveOverlap(it.Type, pos, pl.Size, inst)

	if !pos.Finite() {
		pos = pool.Vec3{X: offscreenX, Y: e.cfg.Baseline(it.Type)}
		pl.Fallback = fn.Some(errors.ErrCodeInvalidGeometry)
	}
	pl.Origin = pos
	return pl
}

// X returns the timeline position of a timestamp.
func (e *Engine) X(ts, minTs float64) float64 {
	return (ts-minTs)*e.cfg.Spacing + e.cfg.LeadingOffset
}

func (e *Engine) placeNumbered(it chain.Item, size float64, idx *Index, minTs float64) pool.Vec3 {
	pos := pool.Vec3{
		X: e.X(it.Timestamp, minTs),
		Y: e.cfg.Baseline(it.Type),
	}

	if it.Type != chain.TypeWorkshare {
		n := it.Number.UnwrapOr(0)
		if hashes := idx.Forks(it.Type, n); len(hashes) > 1 {
			if rank := slices.Index(hashes, it.FullHash); rank >= 0 {
				pos.X += float64(rank-len(hashes)/2) * (size + e.cfg.ForkGap)
			}
		}
	}

	switch {
	case it.Type == chain.TypeWorkshare:
		if rank, n := idx.siblingRank(it.FullParentHash, it.ID); it.HasParent() && rank >= 0 {
			pos.Z = float64(rank-n/2) * e.cfg.WorkshareStep
		} else {
			pos.Z = float64(it.HashSum()%7-3) * e.cfg.WorkshareStep
		}
		if e.cfg.MultiChain && it.ChainName != "" {
			pos.Z += ChainLane(it.ChainName)
		}
	case e.cfg.MultiChain && it.ChainName != "":
		pos.Z = ChainLane(it.ChainName)
	}
	return pos
}

// placeInFlight positions an item without a height. Workshares hang below and
// left of their parent block when it is instanced; everything else goes
// off-screen.
func (e *Engine) placeInFlight(it chain.Item, size float64, idx *Index, inst Instances) (pool.Vec3, fn.Option[errors.Code]) {
	if it.Type != chain.TypeWorkshare {
		return pool.Vec3{
			X: e.offscreen(),
			Y: e.rng.Float64()*400 + 100,
		}, fn.Some(errors.ErrCodeInvalidInput)
	}

	parent := fn.None[pool.Instance]()
	if it.HasParent() {
		idx.Find(chain.TypeBlock, it.FullParentHash).WhenSome(func(p chain.Item) {
			parent = inst.Get(chain.TypeBlock, p.ID)
		})
	}
	if parent.IsNone() {
		return pool.Vec3{
			X: e.offscreen(),
			Y: e.cfg.Baseline(chain.TypeWorkshare),
			Z: float64(it.HashSum()%5-2) * e.cfg.InFlightStep,
		}, fn.Some(errors.ErrCodeMissingRelative)
	}

	p := parent.UnsafeFromSome()
	pos := pool.Vec3{
		X: p.Origin.X - size,
		Y: e.cfg.Baseline(chain.TypeBlock) - size - inFlightDrop,
	}
	if rank, n := idx.siblingRank(it.FullParentHash, it.ID); rank >= 0 {
		pos.Z = float64(rank-n/2) * e.cfg.InFlightStep
	}
	return pos, fn.None[errors.Code]()
}

// resolveOverlap pushes pos along X until it is clear of every same-type
// instance it would intersect. The first neighbor hit, in slot order, picks
// the direction; later pushes keep that direction, so the candidate walks to
// the first gap wide enough and never bounces between two neighbors.
func (e *Engine) resolveOverlap(t chain.Type, pos pool.Vec3, size float64, inst Instances) (pool.Vec3, int) {
	type span struct{ lo, hi float64 }
	var blocked []span
	dir := 0.0
	inst.Each(t, func(n pool.Instance) bool {
		if math.Abs(n.Origin.Y-pos.Y) >= size/2 {
			return true
		}
		minDist := (size+n.Size)/2 + e.cfg.Padding
		if math.Abs(pos.Z-n.Origin.Z) >= minDist {
			return true
		}
		sp := span{n.Origin.X - minDist, n.Origin.X + minDist}
		blocked = append(blocked, sp)
		if dir == 0 && sp.lo < pos.X && pos.X < sp.hi {
			dir = 1
			if pos.X < n.Origin.X {
				dir = -1
			}
		}
		return true
	})
	if dir == 0 {
		return pos, 0
	}

	// Each push moves past one span for good, so the walk ends within
	// len(blocked) steps.
	moves := 0
	for moved := true; moved; {
		moved = false
		for _, sp := range blocked {
			if sp.lo < pos.X && pos.X < sp.hi {
				if dir > 0 {
					pos.X = sp.hi
				} else {
					pos.X = sp.lo
				}
				moved = true
				moves++
			}
		}
	}
	return pos, moves
}

// RecenterTarget returns the scroll target that keeps the newest instance in
// view: the largest origin X minus RecenterLead.
func (e *Engine) RecenterTarget(inst Instances) fn.Option[float64] {
	return fn.FlatMapOption(func(maxX float64) fn.Option[float64] {
		target := maxX - e.cfg.RecenterLead
		if math.IsNaN(target) || math.IsInf(target, 0) {
			return fn.None[float64]()
		}
		return fn.Some(target)
	})(inst.MaxOriginX())
}

func (e *Engine) offscreen() float64 {
	return offscreenX - e.rng.Float64()*offscreenJitter
}
