// Package nodelink renders the instance graph of a scene as a node-link
// diagram.
//
// # Overview
//
// Every instance becomes a box filled with its theme color and every edge an
// arrow styled by its kind. Nodes are ranked left to right, following the
// timeline.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// [ToDOT] produces Graphviz DOT source that can be rendered via [RenderSVG],
// saved and processed with external Graphviz tools, or customized before
// rendering. Hierarchy edges are drawn bold, inclusion edges dashed.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
