// Package theme provides the visual variants of the scene.
//
// Every variant implements [Theme]: it owns a palette for the item types and
// a set of decoration objects generated in fixed-width segments ahead of the
// scroll frontier and culled once they fall far enough behind it. Variants
// are selected by [Kind] through [New].
//
// Decoration is pure data. The presentation layer draws it; the scene only
// asks for more segments after each layout pass and advances the animations
// every tick.
package theme

import (
	"fmt"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/scene/pool"
)

// Kind identifies a theme variant.
type Kind string

// Theme kinds.
const (
	KindNormal Kind = "normal"
	KindSpace  Kind = "space"
	KindTron   Kind = "tron"
)

// Kinds lists every theme kind.
var Kinds = []Kind{KindNormal, KindSpace, KindTron}

// ParseKind converts a string to a Kind. The empty string selects
// KindNormal.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindNormal, nil
	case KindNormal, KindSpace, KindTron:
		return k, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown theme %q (want normal, space or tron)", s)
}

// Theme is the capability set shared by all variants.
type Theme interface {
	// Kind returns the variant.
	Kind() Kind
	// Init creates the initial decoration. It is called once after New and
	// again after Cleanup to restart the theme.
	Init()
	// UpdateAnimations advances decoration by one frame and culls objects
	// far behind the scroll offset.
	UpdateAnimations(offset float64)
	// GenerateSegment ensures decoration exists up to maxX.
	GenerateSegment(minX, maxX float64)
	// Cleanup removes all decoration.
	Cleanup()
	// Palette returns the item colors.
	Palette() Palette
	// Decor returns a copy of the live decoration.
	Decor() []Decor
}

// New creates a theme of the given kind. The seed drives decoration
// placement so a session replays identically.
func New(kind Kind, seed uint64) (Theme, error) {
	var t Theme
	switch kind {
	case KindNormal, "":
		t = newNormal(seed)
	case KindSpace:
		t = newSpace(seed)
	case KindTron:
		t = newTron(seed)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown theme %q", kind)
	}
	t.Init()
	return t, nil
}

// =============================================================================
// Palette
// =============================================================================

// Color is a 24-bit RGB color.
type Color uint32

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// Palette holds the colors of a theme.
type Palette struct {
	Prime     Color
	Region    Color
	Block     Color
	Uncle     Color
	Workshare Color
	Arrow     Color
	Text      Color
}

// For returns the color of an item type.
func (p Palette) For(t chain.Type) Color {
	switch t {
	case chain.TypePrime:
		return p.Prime
	case chain.TypeRegion:
		return p.Region
	case chain.TypeUncle:
		return p.Uncle
	case chain.TypeWorkshare:
		return p.Workshare
	}
	return p.Block
}

var basePalette = Palette{
	Prime:     0xF44336,
	Region:    0xFFEB3B,
	Block:     0x4CAF50,
	Uncle:     0xFF9800,
	Workshare: 0x2196F3,
	Arrow:     0xF5F5F5,
	Text:      0xFFFFFF,
}

// =============================================================================
// Decor
// =============================================================================

// Decor is one decoration object.
type Decor struct {
	ID       int
	Category string
	Position pool.Vec3 // stable position; rendered shifted by the offset unless Fixed
	Scale    float64
	Rotation float64   // radians around Y
	Spin     float64   // rotation added per frame
	Velocity pool.Vec3 // movement per frame
	Life     float64   // remaining life in (0, 1]; 0 means immortal
	Fixed    bool      // background object that does not scroll and is never culled
}

// Rendered returns the decor position under the given scroll offset.
func (d Decor) Rendered(offset float64) pool.Vec3 {
	if d.Fixed {
		return d.Position
	}
	return d.Position.Shift(offset)
}
