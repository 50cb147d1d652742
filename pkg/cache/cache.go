// Package cache memoizes the geometry and material descriptors of a scene.
//
// Instances of the same rounded size share one geometry, and instances of the
// same type, theme and color share one material. A [Table] hands out those
// shared descriptors, keyed by canonical descriptor tuples built by a
// [Keyer]. Each scene session owns its own Table; there is no package-level
// state.
//
// # Stores
//
// Descriptors live in a [Store]. [NewLRUStore] bounds memory with a
// least-recently-used policy; [NullStore] stores nothing and turns the table
// into a pass-through, which is useful for measuring the hit rate a real
// store would have.
package cache

import (
	"errors"

	ncache "github.com/lightninglabs/neutrino/cache"
	"github.com/lightninglabs/neutrino/cache/lru"
)

// Store holds memoized values by key.
type Store[V ncache.Value] interface {
	// Get returns the value for key.
	Get(key string) (V, bool)
	// Put stores v under key, evicting older entries if needed.
	Put(key string, v V)
	// Len returns the number of stored entries.
	Len() int
}

// LRUStore is a bounded least-recently-used Store.
type LRUStore[V ncache.Value] struct {
	lru *lru.Cache[string, V]
}

// NewLRUStore creates a store holding at most capacity entries.
func NewLRUStore[V ncache.Value](capacity int) *LRUStore[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUStore[V]{lru: lru.NewCache[string, V](uint64(capacity))}
}

// Get returns the value for key.
func (s *LRUStore[V]) Get(key string) (V, bool) {
	v, err := s.lru.Get(key)
	if errors.Is(err, ncache.ErrElementNotFound) || err != nil {
		var zero V
		return zero, false
	}
	return v, true
}

// Put stores v under key.
func (s *LRUStore[V]) Put(key string, v V) {
	_, _ = s.lru.Put(key, v)
}

// Len returns the number of stored entries.
func (s *LRUStore[V]) Len() int {
	n := 0
	s.lru.Range(func(string, V) bool {
		n++
		return true
	})
	return n
}

// NullStore is a Store that never stores anything.
type NullStore[V ncache.Value] struct{}

// Get always reports a miss.
func (NullStore[V]) Get(string) (V, bool) {
	var zero V
	return zero, false
}

// Put does nothing.
func (NullStore[V]) Put(string, V) {}

// Len is always zero.
func (NullStore[V]) Len() int { return 0 }

var (
	_ Store[*Geometry] = (*LRUStore[*Geometry])(nil)
	_ Store[*Geometry] = NullStore[*Geometry]{}
)
