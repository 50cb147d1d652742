package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/scene/pool"
)

// Ray is a half-line in world space.
type Ray struct {
	Origin pool.Vec3
	Dir    pool.Vec3
}

// Projector maps surface coordinates (pixels, origin top-left) to a pick ray.
type Projector interface {
	Ray(x, y float64) Ray
}

// DefaultPickDepth is where orthographic rays start in front of the scene.
const DefaultPickDepth = 10000

// Orthographic projects surface coordinates straight along -Z.
type Orthographic struct {
	Width, Height float64 // surface size in pixels

	// Scale is the number of world units per pixel (default 1).
	Scale float64
	// Center is the world point shown at the middle of the surface.
	Center pool.Vec3
	// Depth is the Z the ray starts from, in front of Center.
	Depth float64
}

// Ray returns the ray through surface point (x, y).
func (o Orthographic) Ray(x, y float64) Ray {
	scale := o.Scale
	if scale == 0 {
		scale = 1
	}
	depth := o.Depth
	if depth == 0 {
		depth = DefaultPickDepth
	}
	return Ray{
		Origin: pool.Vec3{
			X: o.Center.X + (x-o.Width/2)*scale,
			Y: o.Center.Y - (y-o.Height/2)*scale,
			Z: o.Center.Z + depth,
		},
		Dir: pool.Vec3{Z: -1},
	}
}

// Hit is the result of a pick query.
type Hit struct {
	Instance pool.Instance
	Position pool.Vec3 // rendered center
	Distance float64   // along the ray to the entry point
}

// Tooltip returns the hover text of the hit item.
func (h Hit) Tooltip() string { return h.Instance.Item.Tooltip() }

// Pick returns the nearest instance whose rendered cube the ray enters.
func (s *Scene) Pick(r Ray) (Hit, bool) {
	var best Hit
	found := false
	offset := s.pool.Offset()
	s.pool.All(func(in pool.Instance) bool {
		center := in.Rendered(offset)
		t, ok := intersect(r, center, in.Size/2)
		if ok && (!found || t < best.Distance) {
			best = Hit{Instance: in, Position: center, Distance: t}
			found = true
		}
		return true
	})
	return best, found
}

// intersect returns the entry distance of r into the axis-aligned cube with
// the given center and half extent.
func intersect(r Ray, center pool.Vec3, half float64) (float64, bool) {
	tMin, tMax := math.Inf(-1), math.Inf(1)
	axes := [3][3]float64{
		{r.Origin.X, r.Dir.X, center.X},
		{r.Origin.Y, r.Dir.Y, center.Y},
		{r.Origin.Z, r.Dir.Z, center.Z},
	}
	for _, a := range axes {
		o, d, c := a[0], a[1], a[2]
		lo, hi := c-half, c+half
		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 {
		return 0, false
	}
	return math.Max(tMin, 0), true
}

// ExplorerURL returns the explorer page of a block. Click routing only works
// in single-chain mode with an explorer configured, and never for workshares
// or items without a height.
func (s *Scene) ExplorerURL(it chain.Item) (string, bool) {
	if s.opts.Explorer == "" || s.opts.Layout.MultiChain || it.Type == chain.TypeWorkshare {
		return "", false
	}
	n, ok := it.Number.UnwrapOr(0), it.Number.IsSome()
	if !ok || n == 0 {
		return "", false
	}
	return fmt.Sprintf("%s/block/%d", strings.TrimRight(s.opts.Explorer, "/"), n), true
}

// Click resolves an instanced item and returns its explorer page.
func (s *Scene) Click(t chain.Type, id string) (string, bool) {
	in := s.pool.Get(t, id)
	if in.IsNone() {
		return "", false
	}
	return s.ExplorerURL(in.UnsafeFromSome().Item)
}
