package render

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/layout"
)

// MaxPNGSide bounds either side of a rasterized strip in pixels.
const MaxPNGSide = 16384

// RenderPNG rasterizes the layout. Labels use the fixed 7x13 bitmap face.
func RenderPNG(l *layout.Layout, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	w, h := l.ContentSize()
	pw, ph := int(float64(w)*r.scale), int(float64(h)*r.scale)
	if pw < 1 || ph < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nothing to rasterize: %dx%d", pw, ph)
	}
	if pw > MaxPNGSide || ph > MaxPNGSide {
		return nil, errors.New(errors.ErrCodeUnsupported, "strip too large for png: %dx%d (max side %d)", pw, ph, MaxPNGSide)
	}

	dc := gg.NewContext(pw, ph)
	dc.Scale(r.scale, r.scale)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dx, dy := float64(l.Padding.Left), float64(l.Padding.Top)
	for _, it := range l.Items {
		f := it.Frame
		dc.DrawRectangle(dx+float64(f.Left), dy+float64(f.Top), float64(f.Width()), float64(f.Height()))
		dc.SetHexColor(r.color(it.Index, it.Color))
		dc.FillPreserve()
		dc.SetRGB(1, 1, 1)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	if r.free {
		dc.SetRGB(0.62, 0.62, 0.62)
		dc.SetLineWidth(1)
		dc.SetDash(4, 3)
		for _, f := range freeFrames(l) {
			dc.DrawRectangle(dx+float64(f.Left), dy+float64(f.Top), float64(f.Width()), float64(f.Height()))
			dc.Stroke()
		}
		dc.SetDash()
	}

	if r.labels {
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetRGB(1, 1, 1)
		for _, it := range l.Items {
			f := it.Frame
			cx := dx + float64(f.Left+f.Right)/2
			cy := dy + float64(f.Top+f.Bottom)/2
			dc.DrawStringAnchored(labelOf(it), cx, cy, 0.5, 0.5)
		}
	}

	if r.viewport != nil {
		f := viewportFrame(l, r.viewport.scroll)
		dc.SetRGB(0.13, 0.13, 0.13)
		dc.SetLineWidth(3)
		dc.DrawRectangle(float64(f.Left), float64(f.Top), float64(f.Width()), float64(f.Height()))
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
