package scene

import (
	"fmt"

	"github.com/matzehuels/chainflow/pkg/cache"
	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/render/nodelink"
	"github.com/matzehuels/chainflow/pkg/scene/connect"
	"github.com/matzehuels/chainflow/pkg/scene/pool"
	"github.com/matzehuels/chainflow/pkg/scene/theme"
)

// Snapshot is the presentation view of a scene.
type Snapshot struct {
	Session   string             `json:"session"`
	Theme     theme.Kind         `json:"theme"`
	Offset    float64            `json:"offset"`
	Target    float64            `json:"target"`
	Instances []InstanceView     `json:"instances"`
	Edges     []EdgeView         `json:"edges"`
	Decor     []DecorView        `json:"decor"`
	Memo      cache.Stats        `json:"memo"`
	Counts    map[chain.Type]int `json:"counts"`
}

// InstanceView is one rendered instance.
type InstanceView struct {
	ID       string     `json:"id"`
	Type     chain.Type `json:"type"`
	Slot     int        `json:"slot"`
	Position pool.Vec3  `json:"position"`
	Size     float64    `json:"size"`
	Geometry string     `json:"geometry"`
	Material string     `json:"material"`
	Color    string     `json:"color"`
	Tooltip  string     `json:"tooltip"`
}

// EdgeView is one rendered edge.
type EdgeView struct {
	Parent string       `json:"parent"`
	Child  string       `json:"child"`
	Kind   connect.Kind `json:"kind"`
	From   pool.Vec3    `json:"from"`
	To     pool.Vec3    `json:"to"`
	Width  float64      `json:"width"`
}

// DecorView is one rendered decoration object.
type DecorView struct {
	ID       int       `json:"id"`
	Category string    `json:"category"`
	Position pool.Vec3 `json:"position"`
	Scale    float64   `json:"scale"`
	Rotation float64   `json:"rotation"`
}

// Snapshot returns the rendered state at the current scroll offset.
// Instances with the same rounded size share a geometry key, and instances
// with the same type share a material key.
func (s *Scene) Snapshot() Snapshot {
	offset := s.pool.Offset()
	palette := s.theme.Palette()
	snap := Snapshot{
		Session:   s.session,
		Theme:     s.theme.Kind(),
		Offset:    s.view.Offset(),
		Target:    s.view.Target(),
		Instances: make([]InstanceView, 0, s.pool.Total()),
		Edges:     make([]EdgeView, 0, s.edges.Len()),
		Counts:    make(map[chain.Type]int, len(chain.Types)),
	}

	s.pool.All(func(in pool.Instance) bool {
		color := palette.For(in.Item.Type)
		geo := s.memo.Geometry(in.Size)
		mat := s.memo.Material(cache.MaterialSpec{
			Type:  in.Item.Type,
			Theme: string(s.theme.Kind()),
			Color: uint32(color),
		})
		snap.Instances = append(snap.Instances, InstanceView{
			ID:       in.Item.ID,
			Type:     in.Item.Type,
			Slot:     in.Slot,
			Position: in.Rendered(offset),
			Size:     in.Size,
			Geometry: geo.Key,
			Material: mat.Key,
			Color:    color.Hex(),
			Tooltip:  in.Item.Tooltip(),
		})
		snap.Counts[in.Item.Type]++
		return true
	})

	s.edges.Each(func(e connect.Edge) bool {
		from, to := e.Points(offset)
		snap.Edges = append(snap.Edges, EdgeView{
			Parent: e.ParentID,
			Child:  e.ChildID,
			Kind:   e.Kind,
			From:   from,
			To:     to,
			Width:  e.Width(),
		})
		return true
	})

	for _, d := range s.theme.Decor() {
		snap.Decor = append(snap.Decor, DecorView{
			ID:       d.ID,
			Category: d.Category,
			Position: d.Rendered(offset),
			Scale:    d.Scale,
			Rotation: d.Rotation,
		})
	}

	snap.Memo = s.memo.Stats()
	return snap
}

// Graph returns the instance graph for node-link rendering.
func (s *Scene) Graph() nodelink.Graph {
	palette := s.theme.Palette()
	var g nodelink.Graph
	s.pool.All(func(in pool.Instance) bool {
		it := in.Item
		label := string(it.Type)
		it.Number.WhenSome(func(n int64) { label = fmt.Sprintf("%s #%d", it.Type, n) })
		g.Nodes = append(g.Nodes, nodelink.Node{
			ID:    it.ID,
			Type:  string(it.Type),
			Label: label,
			Color: palette.For(it.Type).Hex(),
			Meta: []string{
				"hash: " + it.Hash,
				fmt.Sprintf("x: %.1f", in.Origin.X),
				fmt.Sprintf("size: %.1f", in.Size),
			},
		})
		return true
	})
	s.edges.Each(func(e connect.Edge) bool {
		g.Edges = append(g.Edges, nodelink.Edge{
			From:  e.ParentID,
			To:    e.ChildID,
			Kind:  string(e.Kind),
			Width: e.Width(),
		})
		return true
	})
	return g
}

// DOT returns the instance graph in Graphviz DOT format.
func (s *Scene) DOT(detailed bool) string {
	return nodelink.ToDOT(s.Graph(), nodelink.Options{Detailed: detailed})
}
