// Package render turns scene graphs into image formats.
//
// # Overview
//
// The [nodelink] subpackage writes the instance and edge graph of a scene as
// Graphviz DOT and renders it to SVG in-process. This package converts that
// SVG to PDF or PNG.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] shell out to rsvg-convert (from librsvg). SVG and DOT
// output need no external tools.
package render
