package layout

import (
	"cmp"
	"slices"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/matzehuels/chainflow/pkg/chain"
)

type typedHash struct {
	t    chain.Type
	hash string
}

type typedHeight struct {
	t chain.Type
	n int64
}

// Index is a per-pass lookup structure over the live item set.
//
// It is rebuilt from the full snapshot on every layout pass, so counts and
// ranks always reflect the items currently retained upstream.
type Index struct {
	ids       map[string]struct{}
	byHash    map[typedHash]chain.Item
	counts    map[string]int
	siblings  map[string][]chain.Item
	forks     map[typedHeight][]string
	minTs     fn.Option[float64]
	itemCount int
}

// NewIndex indexes items. When several items share a (type, full hash) the
// first in stream order wins.
func NewIndex(items []chain.Item) *Index {
	idx := &Index{
		ids:       make(map[string]struct{}, len(items)),
		byHash:    make(map[typedHash]chain.Item, len(items)),
		counts:    make(map[string]int),
		siblings:  make(map[string][]chain.Item),
		forks:     make(map[typedHeight][]string),
		itemCount: len(items),
	}

	minTs := 0.0
	hasMin := false
	for _, it := range items {
		idx.ids[it.ID] = struct{}{}
		key := typedHash{it.Type, it.FullHash}
		if _, ok := idx.byHash[key]; !ok {
			idx.byHash[key] = it
		}
		if it.HasTimestamp() && (!hasMin || it.Timestamp < minTs) {
			minTs, hasMin = it.Timestamp, true
		}
		if it.Type == chain.TypeWorkshare && it.HasParent() {
			idx.counts[it.FullParentHash]++
			idx.siblings[it.FullParentHash] = append(idx.siblings[it.FullParentHash], it)
		}
		if it.Type != chain.TypeWorkshare {
			it.Number.WhenSome(func(n int64) {
				hk := typedHeight{it.Type, n}
				if !slices.Contains(idx.forks[hk], it.FullHash) {
					idx.forks[hk] = append(idx.forks[hk], it.FullHash)
				}
			})
		}
	}
	if hasMin {
		idx.minTs = fn.Some(minTs)
	}

	for _, sibs := range idx.siblings {
		slices.SortStableFunc(sibs, func(a, b chain.Item) int {
			if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	}
	for _, hashes := range idx.forks {
		slices.Sort(hashes)
	}
	return idx
}

// Len returns the number of indexed items.
func (x *Index) Len() int { return x.itemCount }

// Live reports whether id is in the live set.
func (x *Index) Live(id string) bool {
	_, ok := x.ids[id]
	return ok
}

// IDs returns the live id set. The map must not be modified.
func (x *Index) IDs() map[string]struct{} { return x.ids }

// MinTimestamp returns the smallest usable timestamp, or None when no item
// has one.
func (x *Index) MinTimestamp() fn.Option[float64] { return x.minTs }

// Find returns the first item of type t with the given full hash.
func (x *Index) Find(t chain.Type, fullHash string) fn.Option[chain.Item] {
	if fullHash == "" {
		return fn.None[chain.Item]()
	}
	it, ok := x.byHash[typedHash{t, fullHash}]
	if !ok {
		return fn.None[chain.Item]()
	}
	return fn.Some(it)
}

// WorkshareCount returns the number of live workshares whose parent is the
// block with the given full hash.
func (x *Index) WorkshareCount(fullHash string) int {
	return x.counts[fullHash]
}

// Siblings returns the live workshares sharing a parent, ordered by
// timestamp with ties broken by id.
func (x *Index) Siblings(fullParentHash string) []chain.Item {
	return x.siblings[fullParentHash]
}

// Forks returns the distinct full hashes of type t at height n in
// lexicographic order.
func (x *Index) Forks(t chain.Type, n int64) []string {
	return x.forks[typedHeight{t, n}]
}

// siblingRank returns the rank of id within its sibling group and the group
// size. The rank is -1 if id is not part of the group.
func (x *Index) siblingRank(fullParentHash, id string) (int, int) {
	sibs := x.siblings[fullParentHash]
	rank := slices.IndexFunc(sibs, func(it chain.Item) bool { return it.ID == id })
	return rank, len(sibs)
}
