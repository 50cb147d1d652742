package connect

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/scene/pool"
)

func inst(t chain.Type, id string, origin pool.Vec3, size float64) pool.Instance {
	return pool.Instance{Item: chain.Item{ID: id, Type: t}, Origin: origin, Size: size}
}

func TestAnchors(t *testing.T) {
	parent := inst(chain.TypeBlock, "A", pool.Vec3{X: 100, Y: 0, Z: 5}, 40)
	child := inst(chain.TypeBlock, "B", pool.Vec3{X: 200, Y: -10, Z: 7}, 60)

	tests := []struct {
		kind     Kind
		from, to pool.Vec3
	}{
		{KindHierarchy, pool.Vec3{X: 100, Y: -20, Z: 5}, pool.Vec3{X: 200, Y: 20, Z: 7}},
		{KindWorkshare, pool.Vec3{X: 100, Y: -20, Z: 5}, pool.Vec3{X: 200, Y: 20, Z: 7}},
		{KindChain, pool.Vec3{X: 120, Y: 0, Z: 5}, pool.Vec3{X: 170, Y: -10, Z: 7}},
		{KindInclusion, pool.Vec3{X: 100, Y: 20, Z: 5}, pool.Vec3{X: 200, Y: -40, Z: 7}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			from, to := Anchors(tt.kind, parent, child)
			if from != tt.from || to != tt.to {
				t.Errorf("Anchors() = %+v -> %+v, want %+v -> %+v", from, to, tt.from, tt.to)
			}
		})
	}
}

func TestConnectIdempotent(t *testing.T) {
	m := New()
	a := inst(chain.TypeBlock, "A", pool.Vec3{X: 800}, 40)
	b := inst(chain.TypeBlock, "B", pool.Vec3{X: 860}, 40)

	first, err := m.Connect(KindChain, a, b)
	if err != nil {
		t.Fatal(err)
	}
	// Endpoints changed size since; the stored anchors must not move.
	b.Size = 80
	second, err := m.Connect(KindChain, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second Connect changed edge (-first +second):\n%s", diff)
	}

	// A different kind between the same pair is a different edge.
	if _, err := m.Connect(KindHierarchy, a, b); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestConnectRejectsNonFinite(t *testing.T) {
	m := New()
	a := inst(chain.TypeBlock, "A", pool.Vec3{X: math.NaN()}, 40)
	b := inst(chain.TypeBlock, "B", pool.Vec3{}, 40)

	_, err := m.Connect(KindChain, a, b)
	if !errors.Is(err, errors.ErrCodeInvalidGeometry) {
		t.Errorf("Connect() error = %v, want INVALID_GEOMETRY", err)
	}
	if m.Len() != 0 || m.Has(Key{"A", "B", KindChain}) {
		t.Error("rejected edge must not be stored")
	}
}

func TestSweep(t *testing.T) {
	m := New()
	a := inst(chain.TypeBlock, "A", pool.Vec3{X: 0}, 40)
	b := inst(chain.TypeBlock, "B", pool.Vec3{X: 100}, 40)
	c := inst(chain.TypeBlock, "C", pool.Vec3{X: 200}, 40)
	m.Connect(KindChain, a, b)
	m.Connect(KindChain, b, c)
	m.Connect(KindHierarchy, a, c)

	removed := m.Sweep(map[string]struct{}{"B": {}, "C": {}})
	if removed != 2 {
		t.Errorf("Sweep() = %d, want 2", removed)
	}
	var keys []Key
	m.Each(func(e Edge) bool {
		keys = append(keys, e.Key)
		return true
	})
	want := []Key{{"B", "C", KindChain}}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("remaining edges (-want +got):\n%s", diff)
	}
	if m.Has(Key{"A", "B", KindChain}) {
		t.Error("swept edge still reported by Has()")
	}

	// Reconnecting after a sweep works through the rebuilt index.
	if _, err := m.Connect(KindChain, b, c); err != nil || m.Len() != 1 {
		t.Errorf("Connect() after Sweep: len %d err %v", m.Len(), err)
	}
	if m.Sweep(map[string]struct{}{"B": {}, "C": {}}) != 0 {
		t.Error("second Sweep() should remove nothing")
	}
}

func TestPointsAndWidth(t *testing.T) {
	m := New()
	e, _ := m.Connect(KindHierarchy,
		inst(chain.TypeRegion, "R", pool.Vec3{X: 500, Y: 200}, 60),
		inst(chain.TypeBlock, "Z", pool.Vec3{X: 500, Y: 0}, 40))

	from, to := e.Points(120)
	if from != (pool.Vec3{X: 380, Y: 170}) || to != (pool.Vec3{X: 380, Y: 20}) {
		t.Errorf("Points() = %+v, %+v", from, to)
	}
	if e.Width() != 3 || KindChain.Width() != 1.5 {
		t.Errorf("widths = %v, %v", e.Width(), KindChain.Width())
	}
	if e.ParentType != chain.TypeRegion || e.ChildType != chain.TypeBlock {
		t.Errorf("endpoint types = %s, %s", e.ParentType, e.ChildType)
	}

	m.Clear()
	if m.Len() != 0 {
		t.Errorf("Len() after Clear = %d", m.Len())
	}
}
