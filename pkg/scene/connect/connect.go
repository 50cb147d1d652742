// Package connect manages the edges drawn between placed instances.
//
// An edge is keyed by (parent id, child id, kind) and exists at most once.
// Its two anchor points are derived from the endpoint instances when the edge
// is created and are never recomputed: like instance origins they are stable
// coordinates, shifted by the scroll offset only when rendered.
//
// Edges are never removed one by one as the scene scrolls. [Manager.Sweep]
// drops every edge whose endpoints left the live item set.
package connect

import (
	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/scene/pool"
)

// Kind is the relation an edge represents.
type Kind string

// Edge kinds.
const (
	// KindHierarchy links the same hash across chain levels (prime to region
	// to zone).
	KindHierarchy Kind = "hierarchy"
	// KindChain links a block to its same-type child by parent hash.
	KindChain Kind = "chain"
	// KindWorkshare links a block to a workshare mined on it.
	KindWorkshare Kind = "workshare"
	// KindInclusion links a workshare or uncle to the block including it.
	KindInclusion Kind = "inclusion"
)

// Kinds lists every edge kind.
var Kinds = []Kind{KindHierarchy, KindChain, KindWorkshare, KindInclusion}

// Width returns the stroke width of an edge kind.
func (k Kind) Width() float64 {
	if k == KindHierarchy {
		return 3
	}
	return 1.5
}

// Key identifies an edge.
type Key struct {
	ParentID string
	ChildID  string
	Kind     Kind
}

// Edge is a directed link between two instances.
type Edge struct {
	Key
	ParentType chain.Type
	ChildType  chain.Type
	From       pool.Vec3 // stable anchor on the parent
	To         pool.Vec3 // stable anchor on the child
}

// Width returns the stroke width of the edge.
func (e Edge) Width() float64 { return e.Kind.Width() }

// Points returns the rendered endpoints under the given scroll offset.
func (e Edge) Points(offset float64) (pool.Vec3, pool.Vec3) {
	return e.From.Shift(offset), e.To.Shift(offset)
}

// Anchors computes the endpoints of an edge of the given kind.
//
//   - hierarchy, workshare: parent bottom-center to child top-center
//   - chain: parent right-edge center to child left-edge center
//   - inclusion: source top-center to target bottom-center
func Anchors(kind Kind, parent, child pool.Instance) (pool.Vec3, pool.Vec3) {
	p, c := parent.Origin, child.Origin
	ph, ch := parent.Size/2, child.Size/2
	switch kind {
	case KindChain:
		return pool.Vec3{X: p.X + ph, Y: p.Y, Z: p.Z}, pool.Vec3{X: c.X - ch, Y: c.Y, Z: c.Z}
	case KindInclusion:
		return pool.Vec3{X: p.X, Y: p.Y + ph, Z: p.Z}, pool.Vec3{X: c.X, Y: c.Y - ch, Z: c.Z}
	default:
		return pool.Vec3{X: p.X, Y: p.Y - ph, Z: p.Z}, pool.Vec3{X: c.X, Y: c.Y + ch, Z: c.Z}
	}
}

// Manager owns the edge set. It is not safe for concurrent use.
type Manager struct {
	edges map[Key]int
	list  []Edge
}

// New creates an empty manager.
func New() *Manager {
	return &Manager{edges: make(map[Key]int)}
}

// Connect creates the edge (parent, child, kind) unless it already exists,
// and returns it. Calling Connect again for the same key returns the stored
// edge unchanged, even if the instances have since been resized.
//
// An edge whose anchors are not finite is rejected with
// errors.ErrCodeInvalidGeometry and not stored.
func (m *Manager) Connect(kind Kind, parent, child pool.Instance) (Edge, error) {
	key := Key{ParentID: parent.Item.ID, ChildID: child.Item.ID, Kind: kind}
	if i, ok := m.edges[key]; ok {
		return m.list[i], nil
	}

	from, to := Anchors(kind, parent, child)
	if !from.Finite() || !to.Finite() {
		return Edge{}, errors.New(errors.ErrCodeInvalidGeometry,
			"%s edge %s -> %s has non-finite anchors", kind, key.ParentID, key.ChildID)
	}

	e := Edge{
		Key:        key,
		ParentType: parent.Item.Type,
		ChildType:  child.Item.Type,
		From:       from,
		To:         to,
	}
	m.edges[key] = len(m.list)
	m.list = append(m.list, e)
	return e, nil
}

// Has reports whether the edge exists.
func (m *Manager) Has(key Key) bool {
	_, ok := m.edges[key]
	return ok
}

// Len returns the number of edges.
func (m *Manager) Len() int { return len(m.list) }

// Each calls f for every edge in creation order until f returns false.
func (m *Manager) Each(f func(Edge) bool) {
	for _, e := range m.list {
		if !f(e) {
			return
		}
	}
}

// Sweep removes every edge with an endpoint outside live and returns how many
// were removed. Surviving edges keep their anchors and relative order.
func (m *Manager) Sweep(live map[string]struct{}) int {
	kept := m.list[:0]
	for _, e := range m.list {
		_, okP := live[e.ParentID]
		_, okC := live[e.ChildID]
		if okP && okC {
			kept = append(kept, e)
		}
	}
	removed := len(m.list) - len(kept)
	if removed == 0 {
		return 0
	}
	clear(m.list[len(kept):])
	m.list = kept
	m.edges = make(map[Key]int, len(kept))
	for i, e := range kept {
		m.edges[e.Key] = i
	}
	return removed
}

// Clear removes all edges.
func (m *Manager) Clear() {
	m.edges = make(map[Key]int)
	m.list = nil
}
