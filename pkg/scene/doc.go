// Package scene runs layout passes over the live item set and exposes the
// result to a presentation layer.
//
// A [Scene] ties together the layout engine, the instance pool, the edge
// manager, the scroll controller, a theme and a per-session memo table. It
// has two entry points that a host loop drives:
//
//	pass := sc.Layout(ctx, items) // after every feed update (debounced)
//	sc.Tick(ctx, dt)              // every frame
//
// # Layout passes
//
// Each pass receives the complete retained item list. Items that already own
// an instance keep it; new items are placed in stream order and linked to
// relatives that are already instanced. When the upstream retention policy
// drops an item the pool is emptied and rebuilt from the current list, and
// edges that reference dropped items are swept.
//
// Nothing in a pass fails. Pool refusals, fallback placements and rejected
// edges are logged, reported through [observability.SceneHooks], and counted
// in the returned [Pass].
//
// # Presentation
//
// [Scene.Snapshot] returns rendered instances, edges and decoration;
// [Scene.Pick] answers hover queries for a ray built by a [Projector];
// [Scene.ExplorerURL] maps a clicked item to a block explorer page; and
// [Scene.DOT] exports the instance graph for Graphviz.
//
// A Scene is not safe for concurrent use. The scheduler owns it on a single
// goroutine.
package scene
