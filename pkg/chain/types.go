package chain

import (
	"fmt"
	"math"
	"strings"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/matzehuels/chainflow/pkg/errors"
)

// =============================================================================
// Item Types
// =============================================================================

// Type identifies what kind of record an item is.
type Type string

// Item types, ordered from the top of the hierarchy down.
const (
	TypePrime     Type = "primeBlock"
	TypeRegion    Type = "regionBlock"
	TypeBlock     Type = "block" // zone block
	TypeWorkshare Type = "workshare"
	TypeUncle     Type = "uncle"
)

// Types lists every item type in a fixed order.
// Components that keep per-type state iterate this slice for deterministic output.
var Types = []Type{TypePrime, TypeRegion, TypeBlock, TypeWorkshare, TypeUncle}

// Valid reports whether t is a known item type.
func (t Type) Valid() bool {
	switch t {
	case TypePrime, TypeRegion, TypeBlock, TypeWorkshare, TypeUncle:
		return true
	}
	return false
}

// IsBlock reports whether t is one of the three chain-level block types.
// Block types grow with their workshare count and take part in chain edges.
func (t Type) IsBlock() bool {
	return t == TypePrime || t == TypeRegion || t == TypeBlock
}

// IsAuxiliary reports whether t is a workshare or an uncle.
func (t Type) IsAuxiliary() bool {
	return t == TypeWorkshare || t == TypeUncle
}

// Label returns the display label used in tooltips.
func (t Type) Label() string {
	if t == TypeWorkshare {
		return "Workshare"
	}
	return "Block"
}

// ParseType converts a string to a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown item type %q", s)
	}
	return t, nil
}

// ZeroHash is the all-zero parent hash used by genesis blocks.
// A parent reference equal to ZeroHash is treated as absent.
const ZeroHash = "0x0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================
// Item
// =============================================================================

// Item is one record from the block stream.
type Item struct {
	ID             string
	Type           Type
	Hash           string
	FullHash       string
	ParentHash     string
	FullParentHash string
	Number         fn.Option[int64] // None for in-flight auxiliary items
	Timestamp      float64
	ChainName      string // only meaningful in multi-chain mode
	IncludedIn     string // full hash of the including block, if known
}

// HasParent reports whether the item references a real parent hash.
func (it Item) HasParent() bool {
	return it.FullParentHash != "" && it.FullParentHash != ZeroHash
}

// HasTimestamp reports whether the timestamp can be used for positioning.
func (it Item) HasTimestamp() bool {
	return it.Timestamp != 0 && !math.IsNaN(it.Timestamp) && !math.IsInf(it.Timestamp, 0)
}

// HashSum returns the sum of the bytes of the short hash.
// Layout uses it as a stable pseudo-random bucket when no relative is available.
func (it Item) HashSum() int {
	sum := 0
	for i := 0; i < len(it.Hash); i++ {
		sum += int(it.Hash[i])
	}
	return sum
}

// Tooltip returns the hover text for the item.
func (it Item) Tooltip() string {
	number := fn.MapOptionZ(it.Number, func(n int64) string {
		if n == 0 {
			return "N/A"
		}
		return fmt.Sprintf("%d", n)
	})
	if number == "" {
		number = "N/A"
	}
	parent := it.ParentHash
	if parent == "" {
		parent = "N/A"
	}
	return fmt.Sprintf("%s: %s\nNumber: #%s\nType: %s\nParent: %s",
		it.Type.Label(), it.Hash, number, it.Type, parent)
}

// Validate checks the fields every component relies on.
func (it Item) Validate() error {
	var problems []string
	if it.ID == "" {
		problems = append(problems, "id is required")
	}
	if !it.Type.Valid() {
		problems = append(problems, fmt.Sprintf("unknown type %q", it.Type))
	}
	if it.FullHash == "" && it.Hash == "" {
		problems = append(problems, "hash is required")
	}
	if len(problems) > 0 {
		return errors.New(errors.ErrCodeInvalidItem, "invalid item %q: %s", it.ID, strings.Join(problems, "; "))
	}
	return nil
}
