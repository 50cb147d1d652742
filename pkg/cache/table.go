package cache

import (
	"context"
	"math"

	"github.com/matzehuels/chainflow/pkg/observability"
)

// GeometryStep is the granularity geometry sizes are rounded to.
const GeometryStep = 5

// Geometry is a shared box geometry.
type Geometry struct {
	Key  string  `json:"key"`
	Edge float64 `json:"size"` // rounded edge length
}

// Size reports the store weight of an entry.
func (*Geometry) Size() (uint64, error) { return 1, nil }

// Material is a shared material.
type Material struct {
	Key  string       `json:"key"`
	Spec MaterialSpec `json:"spec"`
}

// Size reports the store weight of an entry.
func (*Material) Size() (uint64, error) { return 1, nil }

// Stats counts table lookups.
type Stats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

// Table memoizes geometry and material descriptors for one session.
// It is not safe for concurrent use.
type Table struct {
	keyer      Keyer
	geometries Store[*Geometry]
	materials  Store[*Material]
	stats      Stats
}

// Options configures a Table.
type Options struct {
	// Capacity bounds each store. Zero disables memoization.
	Capacity int
	// Keyer builds keys; nil selects the default keyer.
	Keyer Keyer
}

// New creates a table.
func New(opts Options) *Table {
	t := &Table{keyer: opts.Keyer}
	if t.keyer == nil {
		t.keyer = NewDefaultKeyer()
	}
	if opts.Capacity > 0 {
		t.geometries = NewLRUStore[*Geometry](opts.Capacity)
		t.materials = NewLRUStore[*Material](opts.Capacity)
	} else {
		t.geometries = NullStore[*Geometry]{}
		t.materials = NullStore[*Material]{}
	}
	return t
}

// RoundSize rounds an edge length to the nearest GeometryStep, never below
// one step.
func RoundSize(size float64) float64 {
	r := math.Round(size/GeometryStep) * GeometryStep
	if r < GeometryStep {
		return GeometryStep
	}
	return r
}

// Geometry returns the shared geometry for an edge length.
func (t *Table) Geometry(size float64) *Geometry {
	rounded := RoundSize(size)
	key := t.keyer.GeometryKey(rounded)
	if g, ok := t.geometries.Get(key); ok {
		t.hit("geometry")
		return g
	}
	t.miss("geometry")
	g := &Geometry{Key: key, Edge: rounded}
	t.geometries.Put(key, g)
	observability.Cache().OnCacheSet(context.Background(), "geometry", 1)
	return g
}

// Material returns the shared material for a spec.
func (t *Table) Material(spec MaterialSpec) *Material {
	key := t.keyer.MaterialKey(spec)
	if m, ok := t.materials.Get(key); ok {
		t.hit("material")
		return m
	}
	t.miss("material")
	m := &Material{Key: key, Spec: spec}
	t.materials.Put(key, m)
	observability.Cache().OnCacheSet(context.Background(), "material", 1)
	return m
}

// Stats returns the lookup counters.
func (t *Table) Stats() Stats { return t.stats }

// Len returns the number of memoized geometries and materials.
func (t *Table) Len() (geometries, materials int) {
	return t.geometries.Len(), t.materials.Len()
}

func (t *Table) hit(keyType string) {
	t.stats.Hits++
	observability.Cache().OnCacheHit(context.Background(), keyType)
}

func (t *Table) miss(keyType string) {
	t.stats.Misses++
	observability.Cache().OnCacheMiss(context.Background(), keyType)
}
