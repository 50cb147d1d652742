// Package pool stores one render slot per instanced item.
//
// A [Pool] keeps a fixed-capacity slot table per item type. Each slot holds the
// item snapshot, its stable origin and size, and the 4x4 transform the
// renderer draws it with. The origin is written once by [Pool.Add] and never
// moves; the transform is derived from it and the scroll offset:
//
//	rendered = (Origin.X - offset, Origin.Y, Origin.Z)
//
// # Slots
//
// Slots are handed out monotonically per type and are never reused while the
// pool lives. There is no per-item removal: when items leave the live set the
// caller empties the pool with [Pool.Reset] and places everything again. At
// bounded capacity this full rebuild is cheaper to reason about than a free
// list, and it keeps slot order equal to placement order.
//
// # Per-tick work
//
// [Pool.Reposition] rewrites the translation column of every live transform in
// one pass. It never touches membership, so it can run every frame between
// layout passes without locking. A pass is skipped entirely when the offset
// moved by less than [RepositionEpsilon].
//
// A Pool is not safe for concurrent use; the scheduler owns it on one
// goroutine.
package pool
