// Package pkg holds the libraries behind chainflow, a live layout engine for
// a Quai-style hierarchical block feed.
//
// # Overview
//
// Chainflow turns a stream of prime, region and zone blocks, workshares and
// uncles into a scrolling scene of cubes joined by edges. Items arrive from a
// feed, a layout pass places them in per-type pools, and a frame loop eases
// the view towards the newest instance.
//
// The packages are organized as:
//
//  1. [chain] - item records, JSON and JSON-lines codecs
//  2. [feed] - retention-capped item store and its sources (file, Redis, WebSocket)
//  3. [scene] - layout passes, pools, edges, themes and the viewport
//  4. [scheduler] - the single goroutine that owns a scene
//  5. [render] - node-link export of a scene (DOT, SVG, PNG, PDF)
//  6. [cache] - memoized geometry and material descriptors
//  7. [config] - TOML and YAML configuration
//  8. [errors] - coded errors and input validation
//  9. [observability] - hooks for metrics and tracing
//
// # Data Flow
//
//	Feed source (file / Redis / WebSocket)
//	         ↓
//	    [feed] package (dedupe, retention, reconnect)
//	         ↓
//	    [scheduler] package (debounced layout passes, frame ticks)
//	         ↓
//	    [scene] package (place, connect, decorate, animate)
//	         ↓
//	    JSON snapshot / DOT / SVG / PNG / PDF
//
// # Quick Start
//
// Lay out a recorded feed and inspect the scene:
//
//	f, _ := os.Open("feed.jsonl")
//	items, err := chain.ReadJSONL(f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sc, err := scene.New(scene.Options{Theme: theme.KindSpace})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sc.Close()
//
//	pass := sc.Layout(ctx, items)
//	fmt.Println(pass.Placed, "placed,", pass.Edges, "edges")
//
//	data, _ := json.Marshal(sc.Snapshot())
//
// Run a live scene on its own goroutine:
//
//	loop := scheduler.New(sc, scheduler.Config{Debounce: 100 * time.Millisecond})
//	go loop.Run(ctx)
//	err = loop.Submit(ctx, items)
//
// [chain]: github.com/matzehuels/chainflow/pkg/chain
// [feed]: github.com/matzehuels/chainflow/pkg/feed
// [scene]: github.com/matzehuels/chainflow/pkg/scene
// [scheduler]: github.com/matzehuels/chainflow/pkg/scheduler
// [render]: github.com/matzehuels/chainflow/pkg/render
// [cache]: github.com/matzehuels/chainflow/pkg/cache
// [config]: github.com/matzehuels/chainflow/pkg/config
// [errors]: github.com/matzehuels/chainflow/pkg/errors
// [observability]: github.com/matzehuels/chainflow/pkg/observability
package pkg
