package grid

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// ToDOT returns a Graphviz DOT representation of the tracker state.
//
// Committed items and free rectangles become nodes:
//   - Items: filled rounded boxes labeled "#index WxH @ rect"
//   - Free rectangles: dashed boxes labeled with their bounds (∞ for the open edge)
//
// Edges connect each free rectangle to the items it touches, and overlapping
// free rectangles are linked with a dotted, undirected edge. The graph reads
// top to bottom in free-list order.
//
// If labels[i] exists it replaces the "#i" prefix of item i. Pass nil for
// numeric labels.
func (t *Tracker) ToDOT(labels []string) string {
	var buf bytes.Buffer
	buf.WriteString("digraph FreeSpace {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=12, shape=box];\n")
	buf.WriteString("  edge [arrowhead=none];\n\n")

	type item struct {
		index int
		rect  Rect
	}
	var items []item
	t.cache.Each(func(index int, p Placement) bool {
		items = append(items, item{index, p.Rect})
		return true
	})

	buf.WriteString("  subgraph cluster_items {\n    label=\"items\";\n")
	for _, it := range items {
		name := fmt.Sprintf("#%d", it.index)
		if it.index < len(labels) && labels[it.index] != "" {
			name = labels[it.index]
		}
		label := fmt.Sprintf("%s %dx%d @ %s", name, it.rect.Width(), it.rect.Height(), it.rect)
		fmt.Fprintf(&buf, "    i%d [label=%q, style=\"filled,rounded\", fillcolor=\"#dbeafe\"];\n", it.index, label)
	}
	buf.WriteString("  }\n\n")

	buf.WriteString("  subgraph cluster_free {\n    label=\"free\";\n")
	for i, f := range t.free {
		fmt.Fprintf(&buf, "    f%d [label=%q, style=dashed];\n", i, f.String())
	}
	buf.WriteString("  }\n\n")

	for i, f := range t.free {
		for _, it := range items {
			if f.Touches(it.rect) {
				fmt.Fprintf(&buf, "  i%d -> f%d;\n", it.index, i)
			}
		}
		for j := i + 1; j < len(t.free); j++ {
			if f.Intersects(t.free[j]) {
				fmt.Fprintf(&buf, "  f%d -> f%d [style=dotted, constraint=false];\n", i, j)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders ToDOT output as an SVG document using Graphviz.
//
// Errors are returned if Graphviz cannot initialize, the DOT is malformed, or
// rendering fails. All errors are wrapped with context.
func (t *Tracker) RenderSVG(ctx context.Context, labels []string) ([]byte, error) {
	return RenderDOT(ctx, t.ToDOT(labels))
}

// RenderDOT renders an arbitrary DOT document to SVG.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
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
	return buf.Bytes(), nil
}
