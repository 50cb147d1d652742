package theme

import (
	"math"
	"math/rand/v2"
	"slices"
)

const (
	// CullDistance is how far behind the scroll offset a decoration object
	// may fall before it is removed.
	CullDistance = 6000

	// maxBurst bounds the segments generated by one call; a large jump of
	// the frontier only populates the segments nearest to it.
	maxBurst = 32

	lifeDecay = 0.001
)

// decorator is the shared segment and tracking machinery of the variants.
type decorator struct {
	kind         Kind
	palette      Palette
	seed         uint64
	rng          *rand.Rand
	segmentWidth float64
	startX       float64
	lastSegmentX float64
	decor        []Decor
	nextID       int
	spawnSegment func(segX float64)
	spawnInitial func()
}

func newDecorator(kind Kind, palette Palette, seed uint64, segmentWidth, startX float64) *decorator {
	d := &decorator{
		kind:         kind,
		palette:      palette,
		seed:         seed,
		segmentWidth: segmentWidth,
		startX:       startX,
	}
	d.reset()
	return d
}

func (d *decorator) reset() {
	d.rng = rand.New(rand.NewPCG(d.seed, uint64(len(d.kind))))
	d.lastSegmentX = d.startX
	d.decor = nil
	d.nextID = 0
}

func (d *decorator) Kind() Kind       { return d.kind }
func (d *decorator) Palette() Palette { return d.palette }

func (d *decorator) Decor() []Decor { return slices.Clone(d.decor) }

func (d *decorator) Init() {
	if d.spawnInitial != nil {
		d.spawnInitial()
	}
}

func (d *decorator) Cleanup() { d.reset() }

func (d *decorator) track(dec Decor) {
	dec.ID = d.nextID
	d.nextID++
	d.decor = append(d.decor, dec)
}

// GenerateSegment spawns decoration for every segment between the last
// generated one and maxX. Segments entirely behind minX are skipped.
func (d *decorator) GenerateSegment(minX, maxX float64) {
	if math.IsNaN(minX) || math.IsNaN(maxX) || math.IsInf(minX, 0) || math.IsInf(maxX, 0) {
		return
	}
	if floor := minX - d.segmentWidth; d.lastSegmentX < floor {
		d.lastSegmentX = floor
	}
	segments := int(math.Ceil((maxX - d.lastSegmentX) / d.segmentWidth))
	if segments <= 0 {
		return
	}
	if segments > maxBurst {
		d.lastSegmentX += float64(segments-maxBurst) * d.segmentWidth
		segments = maxBurst
	}
	for i := 0; i < segments; i++ {
		if d.spawnSegment != nil {
			d.spawnSegment(d.lastSegmentX + float64(i+1)*d.segmentWidth)
		}
	}
	d.lastSegmentX += float64(segments) * d.segmentWidth
}

// UpdateAnimations spins and moves every object, ages mortal ones, and culls
// scrolling objects more than CullDistance behind offset.
func (d *decorator) UpdateAnimations(offset float64) {
	threshold := offset - CullDistance
	kept := d.decor[:0]
	for _, dec := range d.decor {
		dec.Rotation = math.Mod(dec.Rotation+dec.Spin, 2*math.Pi)
		dec.Position.X += dec.Velocity.X
		dec.Position.Y += dec.Velocity.Y
		dec.Position.Z += dec.Velocity.Z
		if dec.Life > 0 {
			dec.Life -= lifeDecay
			if dec.Life <= 0 {
				continue
			}
		}
		if !dec.Fixed && dec.Position.X < threshold {
			continue
		}
		kept = append(kept, dec)
	}
	clear(d.decor[len(kept):])
	d.decor = kept
}

// jitter returns a uniform value in [-span/2, span/2).
func (d *decorator) jitter(span float64) float64 {
	return (d.rng.Float64() - 0.5) * span
}

// between returns a uniform value in [lo, hi).
func (d *decorator) between(lo, hi float64) float64 {
	return lo + d.rng.Float64()*(hi-lo)
}
