package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Node is one instance in the graph.
type Node struct {
	ID    string
	Type  string
	Label string
	Color string // fill color as #rrggbb
	Meta  []string
}

// Edge is one directed connection.
type Edge struct {
	From  string
	To    string
	Kind  string
	Width float64
}

// Graph is the input of ToDOT.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the node metadata in labels.
	// When false, only the label is shown.
	Detailed bool
}

// ToDOT converts a graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(g Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, fmtLabel(n, opts.Detailed)), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n Node, detailed bool) string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if !detailed || len(n.Meta) == 0 {
		return label
	}
	return label + "\n" + strings.Join(n.Meta, "\n")
}

func fmtAttrs(n Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Color != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", n.Color))
	}
	if n.Type == "workshare" || n.Type == "uncle" {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

func edgeAttrs(e Edge) []string {
	attrs := []string{fmt.Sprintf("penwidth=%s", strconv.FormatFloat(e.Width, 'f', -1, 64))}
	switch e.Kind {
	case "hierarchy":
		attrs = append(attrs, "style=bold")
	case "inclusion":
		attrs = append(attrs, "style=dashed", "constraint=false")
	}
	if e.Kind != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", e.Kind))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the diagram scales from its
// origin regardless of the Graphviz page offset.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
