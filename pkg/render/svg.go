package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/spangrid/pkg/grid"
	"github.com/matzehuels/spangrid/pkg/layout"
)

// RenderSVG draws the layout as an SVG document sized to the whole strip.
func RenderSVG(l *layout.Layout, opts ...Option) []byte {
	r := newRenderer(opts...)
	w, h := l.ContentSize()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%.0f" height="%.0f">`+"\n",
		w, h, float64(w)*r.scale, float64(h)*r.scale)
	fmt.Fprintf(&buf, `  <rect class="background" x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`+"\n", w, h)

	dx, dy := l.Padding.Left, l.Padding.Top
	for _, it := range l.Items {
		f := it.Frame.Offset(dx, dy)
		fmt.Fprintf(&buf, `  <rect class="item" id="item-%d" x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="#ffffff" stroke-width="2"/>`+"\n",
			it.Index, f.Left, f.Top, f.Width(), f.Height(), html.EscapeString(r.color(it.Index, it.Color)))
	}

	if r.free {
		for _, fr := range freeFrames(l) {
			f := fr.Offset(dx, dy)
			fmt.Fprintf(&buf, `  <rect class="free" x="%d" y="%d" width="%d" height="%d" fill="none" stroke="#9e9e9e" stroke-dasharray="4 3"/>`+"\n",
				f.Left, f.Top, f.Width(), f.Height())
		}
	}

	if r.labels {
		for _, it := range l.Items {
			f := it.Frame.Offset(dx, dy)
			fmt.Fprintf(&buf, `  <text class="label" x="%d" y="%d" text-anchor="middle" dominant-baseline="middle" font-family="monospace" font-size="%d" fill="#ffffff">%s</text>`+"\n",
				(f.Left+f.Right)/2, (f.Top+f.Bottom)/2, fontSize(l.SlotSize), html.EscapeString(labelOf(it)))
		}
	}

	if r.viewport != nil {
		f := viewportFrame(l, r.viewport.scroll)
		fmt.Fprintf(&buf, `  <rect class="viewport" x="%d" y="%d" width="%d" height="%d" fill="none" stroke="#212121" stroke-width="3"/>`+"\n",
			f.Left, f.Top, f.Width(), f.Height())
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func labelOf(it layout.Item) string {
	if it.Label != "" {
		return it.Label
	}
	return fmt.Sprint(it.Index)
}

func fontSize(slot int) int {
	return max(8, min(24, slot/4))
}

// freeFrames scales free rects to pixels, clipping the open main-axis edge to
// the content extent and dropping rects that start past it.
func freeFrames(l *layout.Layout) []grid.Frame {
	var out []grid.Frame
	for _, r := range l.Free {
		f := r.Scale(l.SlotSize)
		if l.Orientation == grid.Horizontal {
			if r.Right == grid.Unbounded {
				f.Right = l.Extent
			}
		} else if r.Bottom == grid.Unbounded {
			f.Bottom = l.Extent
		}
		if f.Width() <= 0 || f.Height() <= 0 {
			continue
		}
		out = append(out, f)
	}
	return out
}

// viewportFrame is the viewport rectangle in document coordinates.
func viewportFrame(l *layout.Layout, scroll int) grid.Frame {
	if l.Orientation == grid.Horizontal {
		return grid.Frame{Left: scroll, Top: 0, Right: scroll + l.Width, Bottom: l.Height}
	}
	return grid.Frame{Left: 0, Top: scroll, Right: l.Width, Bottom: scroll + l.Height}
}
