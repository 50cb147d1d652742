package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/chainflow/pkg/chain"
)

// MaterialSpec describes a material before it is memoized.
type MaterialSpec struct {
	Type  chain.Type `json:"type"`
	Theme string     `json:"theme"`
	Color uint32     `json:"color"`
}

// Keyer builds canonical keys from descriptor tuples.
type Keyer interface {
	// GeometryKey returns the key of a box geometry with the given
	// (already rounded) edge length.
	GeometryKey(size float64) string
	// MaterialKey returns the key of a material.
	MaterialKey(spec MaterialSpec) string
}

// DefaultKeyer hashes the descriptor parts.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GeometryKey returns geometry:hash("box", size).
func (DefaultKeyer) GeometryKey(size float64) string {
	return hashKey("geometry", "box", size)
}

// MaterialKey returns material:hash(type, theme, color).
func (DefaultKeyer) MaterialKey(spec MaterialSpec) string {
	return hashKey("material", spec.Type, spec.Theme, spec.Color)
}

// ScopedKeyer wraps a Keyer with a prefix so several sessions can share one
// store without their keys colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "session:"+id+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// GeometryKey generates a prefixed geometry key.
func (k *ScopedKeyer) GeometryKey(size float64) string {
	return k.prefix + k.inner.GeometryKey(size)
}

// MaterialKey generates a prefixed material key.
func (k *ScopedKeyer) MaterialKey(spec MaterialSpec) string {
	return k.prefix + k.inner.MaterialKey(spec)
}

// hashKey returns prefix:hex(sha256(json(parts))).
func hashKey(prefix string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		data = []byte(fmt.Sprint(parts...))
	}
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:])
}
