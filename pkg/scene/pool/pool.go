package pool

import (
	"math"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
)

const (
	// DefaultCapacity is the per-type slot count used when none is configured.
	DefaultCapacity = 2000

	// RepositionEpsilon is the smallest offset change that triggers a pass.
	RepositionEpsilon = 0.001
)

// Vec3 is a point in scene space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Finite reports whether all components are finite numbers.
func (v Vec3) Finite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// Shift returns v translated along X by -offset.
func (v Vec3) Shift(offset float64) Vec3 {
	return Vec3{X: v.X - offset, Y: v.Y, Z: v.Z}
}

// Matrix is a column-major 4x4 transform. Scale sits on the diagonal and the
// translation in elements 12, 13 and 14.
type Matrix [16]float64

// Translation returns the translation column.
func (m Matrix) Translation() Vec3 {
	return Vec3{X: m[12], Y: m[13], Z: m[14]}
}

// Scale returns the uniform scale stored on the diagonal.
func (m Matrix) Scale() float64 { return m[0] }

func compose(pos Vec3, size float64) Matrix {
	var m Matrix
	m[0], m[5], m[10], m[15] = size, size, size, 1
	m[12], m[13], m[14] = pos.X, pos.Y, pos.Z
	return m
}

// Instance is one placed item.
type Instance struct {
	Slot   int        // Index within the item type's slot table
	Item   chain.Item // Snapshot of the item at placement time
	Origin Vec3       // Stable position, fixed at creation
	Size   float64    // Edge length of the item's cube
}

// Rendered returns the instance position under the given scroll offset.
func (in Instance) Rendered(offset float64) Vec3 {
	return in.Origin.Shift(offset)
}

type slotTable struct {
	ids        map[string]int
	instances  []Instance
	transforms []Matrix
}

func newSlotTable(capacity int) *slotTable {
	return &slotTable{
		ids:        make(map[string]int),
		instances:  make([]Instance, 0, capacity),
		transforms: make([]Matrix, 0, capacity),
	}
}

// Pool is a per-type, fixed-capacity instance store.
//
// The zero value is not usable - use New.
type Pool struct {
	capacity int
	tables   map[chain.Type]*slotTable
	offset   float64
}

// New creates a pool with the given per-type capacity. A non-positive
// capacity selects DefaultCapacity.
func New(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pool{capacity: capacity}
	p.Reset()
	return p
}

// Capacity returns the per-type slot limit.
func (p *Pool) Capacity() int { return p.capacity }

// Offset returns the scroll offset of the last reprojection.
func (p *Pool) Offset() float64 { return p.offset }

func (p *Pool) table(t chain.Type) *slotTable {
	tbl, ok := p.tables[t]
	if !ok {
		tbl = newSlotTable(p.capacity)
		p.tables[t] = tbl
	}
	return tbl
}

// Add instances item at origin with the given size and returns its slot.
//
// Add refuses an item that already owns a slot of its type with an
// [errors.ErrCodeDuplicateInstance] error, and an item whose type table is
// full with [errors.ErrCodeCapacityExceeded]. A non-finite origin or size is
// refused with [errors.ErrCodeInvalidGeometry]; callers are expected to have
// substituted a fallback before calling. Refusals leave the pool unchanged.
//
// The transform is written with the current scroll offset so a new instance
// is correct before the next [Pool.Reposition].
func (p *Pool) Add(item chain.Item, origin Vec3, size float64) (int, error) {
	tbl := p.table(item.Type)
	if _, exists := tbl.ids[item.ID]; exists {
		return 0, errors.New(errors.ErrCodeDuplicateInstance, "%s %s already instanced", item.Type, item.ID)
	}
	if len(tbl.instances) >= p.capacity {
		return 0, errors.New(errors.ErrCodeCapacityExceeded, "%s pool full (%d)", item.Type, p.capacity)
	}
	if !origin.Finite() || !isFinite(size) {
		return 0, errors.New(errors.ErrCodeInvalidGeometry, "%s %s has non-finite geometry", item.Type, item.ID)
	}

	slot := len(tbl.instances)
	tbl.ids[item.ID] = slot
	tbl.instances = append(tbl.instances, Instance{Slot: slot, Item: item, Origin: origin, Size: size})
	tbl.transforms = append(tbl.transforms, compose(origin.Shift(p.offset), size))
	return slot, nil
}

// Reposition reprojects every live slot to the given scroll offset and
// reports whether a pass ran. Offsets within RepositionEpsilon of the last
// one are ignored, which makes repeated calls idempotent.
func (p *Pool) Reposition(offset float64) bool {
	if !isFinite(offset) || math.Abs(offset-p.offset) < RepositionEpsilon {
		return false
	}
	p.offset = offset
	for _, tbl := range p.tables {
		for i := range tbl.instances {
			tbl.transforms[i][12] = tbl.instances[i].Origin.X - offset
		}
	}
	return true
}

// Resize patches the size of an existing instance in place. The slot index and
// origin are kept. It returns false when the item has no instance or the size
// is not a positive finite number.
func (p *Pool) Resize(t chain.Type, id string, size float64) bool {
	tbl, ok := p.tables[t]
	if !ok || !isFinite(size) || size <= 0 {
		return false
	}
	slot, ok := tbl.ids[id]
	if !ok {
		return false
	}
	in := &tbl.instances[slot]
	in.Size = size
	tbl.transforms[slot] = compose(in.Origin.Shift(p.offset), size)
	return true
}

// Reset empties every type table. The scroll offset is kept so instances
// added during the rebuild are projected correctly.
func (p *Pool) Reset() {
	p.tables = make(map[chain.Type]*slotTable, len(chain.Types))
}

// Get returns the instance for (t, id).
func (p *Pool) Get(t chain.Type, id string) fn.Option[Instance] {
	tbl, ok := p.tables[t]
	if !ok {
		return fn.None[Instance]()
	}
	slot, ok := tbl.ids[id]
	if !ok {
		return fn.None[Instance]()
	}
	return fn.Some(tbl.instances[slot])
}

// Has reports whether (t, id) owns a slot.
func (p *Pool) Has(t chain.Type, id string) bool {
	return p.Get(t, id).IsSome()
}

// Len returns the number of live slots of type t.
func (p *Pool) Len(t chain.Type) int {
	if tbl, ok := p.tables[t]; ok {
		return len(tbl.instances)
	}
	return 0
}

// Total returns the number of live slots across all types.
func (p *Pool) Total() int {
	n := 0
	for _, tbl := range p.tables {
		n += len(tbl.instances)
	}
	return n
}

// Each calls f for every instance of type t in slot order until f returns
// false.
func (p *Pool) Each(t chain.Type, f func(Instance) bool) {
	tbl, ok := p.tables[t]
	if !ok {
		return
	}
	for _, in := range tbl.instances {
		if !f(in) {
			return
		}
	}
}

// All calls f for every instance, type by type in chain.Types order, until f
// returns false.
func (p *Pool) All(f func(Instance) bool) {
	for _, t := range chain.Types {
		tbl, ok := p.tables[t]
		if !ok {
			continue
		}
		for _, in := range tbl.instances {
			if !f(in) {
				return
			}
		}
	}
}

// Transform returns the render transform of slot in type t.
func (p *Pool) Transform(t chain.Type, slot int) (Matrix, bool) {
	tbl, ok := p.tables[t]
	if !ok || slot < 0 || slot >= len(tbl.transforms) {
		return Matrix{}, false
	}
	return tbl.transforms[slot], true
}

// MaxOriginX returns the largest origin X across all instances, or None when
// the pool is empty.
func (p *Pool) MaxOriginX() fn.Option[float64] {
	maxX := math.Inf(-1)
	p.All(func(in Instance) bool {
		maxX = math.Max(maxX, in.Origin.X)
		return true
	})
	if math.IsInf(maxX, -1) {
		return fn.None[float64]()
	}
	return fn.Some(maxX)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
