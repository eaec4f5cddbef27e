// Package layout packs a whole manifest up front and serializes the result.
//
// The engine places items lazily as a viewport scrolls; a [Layout] is the
// eager counterpart used for static artifacts, API responses and stored
// documents. Both share the same tracker, so item positions agree.
package layout

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/spangrid/pkg/cache"
	"github.com/matzehuels/spangrid/pkg/engine"
	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/grid"
	"github.com/matzehuels/spangrid/pkg/manifest"
)

// =============================================================================
// Layout - Serialized Strip
// =============================================================================

// Layout is a fully packed strip.
//
// Frames are in content space: padding is recorded separately and applied by
// renderers. Free holds the tracker's free rectangles after the last item,
// the trailing one unbounded along the main axis.
type Layout struct {
	Name         string           `json:"name,omitempty" bson:"name,omitempty"`
	ManifestHash string           `json:"manifest_hash" bson:"manifest_hash"`
	Orientation  grid.Orientation `json:"orientation" bson:"orientation"`
	Lanes        int              `json:"lanes" bson:"lanes"`
	Width        int              `json:"width" bson:"width"`
	Height       int              `json:"height" bson:"height"`
	Padding      engine.Insets    `json:"padding" bson:"padding"`
	SlotSize     int              `json:"slot_size" bson:"slot_size"`
	Extent       int              `json:"extent" bson:"extent"`
	Items        []Item           `json:"items" bson:"items"`
	Free         []grid.Rect      `json:"free,omitempty" bson:"free,omitempty"`
}

// Item is one packed item.
type Item struct {
	Index int           `json:"index" bson:"index"`
	Label string        `json:"label,omitempty" bson:"label,omitempty"`
	Color string        `json:"color,omitempty" bson:"color,omitempty"`
	Span  grid.SpanSize `json:"span" bson:"span"`
	Rect  grid.Rect     `json:"rect" bson:"rect"`
	Frame grid.Frame    `json:"frame" bson:"frame"`
}

// ContentSize returns the pixel size of the whole strip including padding.
func (l *Layout) ContentSize() (width, height int) {
	cross := l.Lanes * l.SlotSize
	if l.Orientation == grid.Horizontal {
		return l.Extent + l.Padding.Left + l.Padding.Right, cross + l.Padding.Top + l.Padding.Bottom
	}
	return cross + l.Padding.Left + l.Padding.Right, l.Extent + l.Padding.Top + l.Padding.Bottom
}

// Labels returns item labels by index.
func (l *Layout) Labels() []string {
	out := make([]string, len(l.Items))
	for i, it := range l.Items {
		out[i] = it.Label
	}
	return out
}

// Hash identifies the layout content.
func (l *Layout) Hash() string {
	data, _ := json.Marshal(l)
	return cache.Hash(data)
}

// =============================================================================
// Packing
// =============================================================================

// Params fix the strip a manifest is packed into.
type Params struct {
	Orientation grid.Orientation
	Lanes       int
	Width       int
	Height      int
	Padding     engine.Insets
	Limit       int // pack only the first Limit items; 0 packs all
}

// Pack places every item of m in index order. The tracker is returned in its
// final state for free-space rendering.
func Pack(m *manifest.Manifest, p Params) (*Layout, *grid.Tracker, error) {
	tr, err := grid.NewTracker(p.Orientation, p.Lanes)
	if err != nil {
		return nil, nil, err
	}
	if err := errors.ValidateViewport(p.Width, p.Height); err != nil {
		return nil, nil, err
	}

	track := p.Width - p.Padding.Left - p.Padding.Right
	if p.Orientation == grid.Horizontal {
		track = p.Height - p.Padding.Top - p.Padding.Bottom
	}
	slot := tr.SlotSize(track)

	n := m.Count()
	if p.Limit > 0 {
		n = min(n, p.Limit)
	}

	l := &Layout{
		Name:         m.Name,
		ManifestHash: m.Hash(),
		Orientation:  p.Orientation,
		Lanes:        p.Lanes,
		Width:        p.Width,
		Height:       p.Height,
		Padding:      p.Padding,
		SlotSize:     slot,
		Items:        make([]Item, 0, n),
	}
	for i := range n {
		it := m.Item(i)
		r, err := tr.Find(i, it.Span)
		if err != nil {
			return nil, nil, fmt.Errorf("item %d: %w", i, err)
		}
		tr.Commit(i, r)
		f := r.Scale(slot)
		tr.Cache().Put(i, grid.Placement{Rect: r, Frame: f})
		l.Items = append(l.Items, Item{
			Index: i,
			Label: it.Label,
			Color: it.Color,
			Span:  it.Span,
			Rect:  r,
			Frame: f,
		})
		l.Extent = max(l.Extent, f.MainEnd(p.Orientation))
	}
	l.Free = tr.FreeRects()
	return l, tr, nil
}

// =============================================================================
// Serialization
// =============================================================================

// Marshal serializes a layout to indented JSON.
func Marshal(l *Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal parses a layout and checks that it is self-consistent.
func Unmarshal(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	if err := errors.ValidateLanes(l.Lanes); err != nil {
		return nil, err
	}
	for i, it := range l.Items {
		if it.Index != i {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "layout item %d has index %d", i, it.Index)
		}
	}
	return &l, nil
}
