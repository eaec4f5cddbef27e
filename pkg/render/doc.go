// Package render draws packed layouts.
//
// # Overview
//
// A [layout.Layout] is drawn to one of three formats:
//
//   - SVG: hand-written markup, one rect per item ([RenderSVG])
//   - PNG: rasterized with fogleman/gg ([RenderPNG])
//   - JSON: the layout itself ([RenderJSON])
//
// All renderers share functional options:
//
//	svg := render.RenderSVG(l, render.WithLabels(), render.WithFree())
//	png, err := render.RenderPNG(l, render.WithScale(2))
//
// # Free Space
//
// [RenderFreeSpace] renders the tracker's free-rectangle list through
// Graphviz, which is the quickest way to see why an item landed where it did:
//
//	l, tr, _ := layout.Pack(m, params)
//	svg, err := render.RenderFreeSpace(ctx, tr, l.Labels(), render.FormatSVG)
//
// # Colors
//
// Items use their manifest color when set and otherwise cycle through the
// palette by index. [DefaultPalette] is the seven-color cycle of the demo
// data set.
package render
