package chain

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// wireItem is the JSON form of an Item.
type wireItem struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	Hash           string  `json:"hash,omitempty"`
	FullHash       string  `json:"fullHash,omitempty"`
	ParentHash     string  `json:"parentHash,omitempty"`
	FullParentHash string  `json:"fullParentHash,omitempty"`
	Number         *int64  `json:"number"`
	Timestamp      float64 `json:"timestamp"`
	ChainName      string  `json:"chainName,omitempty"`
	IncludedIn     string  `json:"includedIn,omitempty"`
}

// MarshalJSON encodes the item in its wire form.
func (it Item) MarshalJSON() ([]byte, error) {
	w := wireItem{
		ID:             it.ID,
		Type:           string(it.Type),
		Hash:           it.Hash,
		FullHash:       it.FullHash,
		ParentHash:     it.ParentHash,
		FullParentHash: it.FullParentHash,
		Timestamp:      it.Timestamp,
		ChainName:      it.ChainName,
		IncludedIn:     it.IncludedIn,
	}
	it.Number.WhenSome(func(n int64) { w.Number = &n })
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form. Missing full hashes fall back to the
// short ones so lookups by FullHash always have something to match.
func (it *Item) UnmarshalJSON(data []byte) error {
	var w wireItem
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*it = Item{
		ID:             w.ID,
		Type:           Type(w.Type),
		Hash:           w.Hash,
		FullHash:       w.FullHash,
		ParentHash:     w.ParentHash,
		FullParentHash: w.FullParentHash,
		Number:         fn.OptionFromPtr(w.Number),
		Timestamp:      w.Timestamp,
		ChainName:      w.ChainName,
		IncludedIn:     w.IncludedIn,
	}
	if it.FullHash == "" {
		it.FullHash = it.Hash
	}
	if it.Hash == "" {
		it.Hash = it.FullHash
	}
	if it.FullParentHash == "" {
		it.FullParentHash = it.ParentHash
	}
	if it.ID == "" {
		it.ID = it.FullHash
	}
	return nil
}

// Decode parses and validates a single JSON item.
func Decode(data []byte) (Item, error) {
	var it Item
	if err := json.Unmarshal(bytes.TrimSpace(data), &it); err != nil {
		return Item{}, fmt.Errorf("decode item: %w", err)
	}
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	return it, nil
}

// DecodeBatch parses a message holding either one item object or an array
// of items. Every item is validated; the first invalid one fails the batch.
func DecodeBatch(data []byte) ([]Item, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		it, err := Decode(data)
		if err != nil {
			return nil, err
		}
		return []Item{it}, nil
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return items, nil
}

// ReadJSONL decodes newline-delimited JSON items from r.
// Blank lines are skipped. The first malformed line aborts with an error
// naming its line number. ReadJSONL does not close r.
func ReadJSONL(r io.Reader) ([]Item, error) {
	var items []Item
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		it, err := Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, it)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return items, nil
}

// WriteJSONL encodes items to w, one per line.
func WriteJSONL(w io.Writer, items []Item) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return fmt.Errorf("encode %s: %w", it.ID, err)
		}
	}
	return nil
}
