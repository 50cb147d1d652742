// Package chain defines the block records that flow through chainflow.
//
// An [Item] is one renderable record from the stream: a prime, region or
// zone block, a workshare, or an uncle. Items are immutable once received;
// every downstream component (layout, pool, edges) keys on [Item.ID] and
// [Item.Type].
//
// # Heights
//
// Auxiliary records that are still in flight have no height yet. The height
// is carried as an [fn.Option] so callers must handle the missing case
// explicitly:
//
//	item.Number.WhenSome(func(n int64) { ... })
//
// # Wire Format
//
// Items travel as JSON objects with camelCase keys. [ReadJSONL] decodes a
// stream of newline-delimited objects and [Decode] decodes a single one:
//
//	{"id":"b-1","type":"block","fullHash":"0xab..","number":1,"timestamp":100}
package chain
