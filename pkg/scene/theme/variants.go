package theme

import (
	"math"

	"github.com/matzehuels/chainflow/pkg/scene/pool"
)

// Decoration categories.
const (
	CategoryStar     = "star"
	CategoryPlanet   = "planet"
	CategoryAsteroid = "asteroid"
	CategoryFloor    = "floor"
	CategoryBuilding = "building"
	CategoryDisc     = "disc"
	CategoryStream   = "stream"
	CategoryCycle    = "cycle"
)

var (
	_ Theme = (*normal)(nil)
	_ Theme = (*space)(nil)
	_ Theme = (*tron)(nil)
)

// =============================================================================
// Normal
// =============================================================================

// normal has the base palette and no decoration.
type normal struct{ *decorator }

func newNormal(seed uint64) *normal {
	return &normal{newDecorator(KindNormal, basePalette, seed, 2000, 0)}
}

// =============================================================================
// Space
// =============================================================================

type space struct{ *decorator }

func newSpace(seed uint64) *space {
	p := basePalette
	p.Block, p.Prime, p.Region = 0x99ccff, 0xcc99ff, 0x99eeff
	p.Uncle, p.Workshare, p.Arrow = 0xffaa88, 0xccffdd, 0x556677

	s := &space{newDecorator(KindSpace, p, seed, 2000, 0)}
	s.spawnInitial = s.initial
	s.spawnSegment = s.segment
	return s
}

// initial scatters a fixed starfield on a shell around the origin and a few
// slowly turning planets in the far background.
func (s *space) initial() {
	for i := 0; i < 300; i++ {
		r := s.between(2000, 32000)
		theta := s.rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*s.rng.Float64() - 1)
		s.track(Decor{
			Category: CategoryStar,
			Position: pool.Vec3{
				X: r * math.Sin(phi) * math.Cos(theta),
				Y: r * math.Sin(phi) * math.Sin(theta),
				Z: r * math.Cos(phi),
			},
			Scale: s.between(5, 20),
			Fixed: true,
		})
	}
	for i := 0; i < 3; i++ {
		s.track(Decor{
			Category: CategoryPlanet,
			Position: pool.Vec3{X: s.jitter(20000), Y: s.jitter(6000), Z: -8000 - s.rng.Float64()*8000},
			Scale:    s.between(400, 1200),
			Spin:     0.0005,
			Fixed:    true,
		})
	}
}

func (s *space) segment(segX float64) {
	if s.rng.Float64() >= 0.2 {
		return
	}
	for j := 0; j < 5; j++ {
		s.track(Decor{
			Category: CategoryAsteroid,
			Position: pool.Vec3{X: segX + s.jitter(s.segmentWidth), Y: s.jitter(2000), Z: s.jitter(2000)},
			Scale:    s.between(10, 40),
			Spin:     s.rng.Float64() * 0.01,
		})
	}
}

// =============================================================================
// Tron
// =============================================================================

type tron struct{ *decorator }

func newTron(seed uint64) *tron {
	p := basePalette
	p.Block, p.Prime, p.Region = 0x0044aa, 0x00ffff, 0x0088ff
	p.Uncle, p.Workshare = 0x002255, 0x006699
	p.Arrow, p.Text = 0x00d4ff, 0x00d4ff

	t := &tron{newDecorator(KindTron, p, seed, 4000, -4000)}
	t.spawnInitial = func() { t.GenerateSegment(-4000, 4000) }
	t.spawnSegment = t.segment
	return t
}

func (t *tron) segment(segX float64) {
	t.track(Decor{Category: CategoryFloor, Position: pool.Vec3{X: segX, Y: -1200}, Scale: t.segmentWidth})

	for j := 0; j < 5; j++ {
		t.track(Decor{
			Category: CategoryBuilding,
			Position: pool.Vec3{X: segX + t.jitter(3000), Y: -1200, Z: -1500 - t.rng.Float64()*2000},
			Scale:    t.between(200, 1000),
		})
	}
	for j := 0; j < 3; j++ {
		t.track(Decor{
			Category: CategoryDisc,
			Position: pool.Vec3{X: segX + t.jitter(4000), Y: t.between(400, 800), Z: -800 - t.rng.Float64()*600},
			Scale:    1,
			Spin:     t.between(0.05, 0.1),
		})
	}
	if t.rng.Float64() < 0.3 {
		t.track(Decor{
			Category: CategoryStream,
			Position: pool.Vec3{X: segX + t.jitter(4000), Y: t.jitter(600), Z: -600 - t.rng.Float64()*400},
			Scale:    1,
			Velocity: pool.Vec3{Y: t.between(2, 5)},
			Life:     1,
		})
	}
	if t.rng.Float64() < 0.2 {
		t.track(Decor{
			Category: CategoryCycle,
			Position: pool.Vec3{X: segX + t.jitter(4000), Y: -1190, Z: -400 - t.rng.Float64()*800},
			Scale:    1,
			Velocity: pool.Vec3{X: t.jitter(40), Z: t.jitter(40)},
			Life:     1,
		})
	}
}
