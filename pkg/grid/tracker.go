package grid

import (
	"cmp"
	"slices"

	"github.com/matzehuels/spangrid/pkg/errors"
)

// Tracker tracks free space in a strip of lanes and assigns grid rectangles
// to items in index order.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	orientation Orientation
	lanes       int
	free        []Rect
	cache       *PlacementCache
}

// NewTracker returns a tracker for an empty strip. It fails with
// INVALID_LANE_COUNT when lanes < 1.
func NewTracker(o Orientation, lanes int) (*Tracker, error) {
	if lanes < 1 {
		return nil, errors.New(errors.ErrCodeInvalidLaneCount, "invalid layout lanes: %d, lane count must be at least 1", lanes)
	}
	t := &Tracker{
		orientation: o,
		lanes:       lanes,
		cache:       NewPlacementCache(),
	}
	t.Reset()
	return t, nil
}

// Reset returns the tracker to a single unbounded free lane and clears the
// placement cache.
func (t *Tracker) Reset() {
	if t.orientation == Horizontal {
		t.free = []Rect{{Left: 0, Top: 0, Right: Unbounded, Bottom: t.lanes}}
	} else {
		t.free = []Rect{{Left: 0, Top: 0, Right: t.lanes, Bottom: Unbounded}}
	}
	t.cache.Clear()
}

// Orientation returns the strip orientation.
func (t *Tracker) Orientation() Orientation { return t.orientation }

// Lanes returns the number of lanes.
func (t *Tracker) Lanes() int { return t.lanes }

// Cache returns the placement cache the tracker commits into.
func (t *Tracker) Cache() *PlacementCache { return t.cache }

// FreeRects returns a copy of the free rectangles in search order.
func (t *Tracker) FreeRects() []Rect { return slices.Clone(t.free) }

// SlotSize returns the pixel size of one grid cell for a track of the given
// pixel length. The remainder of the division is left unused.
func (t *Tracker) SlotSize(track int) int {
	if track <= 0 {
		return 0
	}
	return track / t.lanes
}

// Find returns the rectangle already committed for index, or the first free
// slot that fits span.
func (t *Tracker) Find(index int, span SpanSize) (Rect, error) {
	if p, ok := t.cache.Get(index); ok {
		return p.Rect, nil
	}
	return t.FindSlot(span)
}

// FindSlot returns the first rectangle, in free-list order, that holds span
// anchored at a free rectangle's origin. Nothing is committed.
func (t *Tracker) FindSlot(span SpanSize) (Rect, error) {
	if err := errors.ValidateSpan(span.Cross(t.orientation), span.Main(t.orientation), t.lanes); err != nil {
		return Rect{}, err
	}
	for _, f := range t.free {
		r := Rect{Left: f.Left, Top: f.Top, Right: f.Left + span.Width, Bottom: f.Top + span.Height}
		if f.Contains(r) {
			return r, nil
		}
	}
	// The region past every committed rect is always one full-width free rect.
	return Rect{}, errors.New(errors.ErrCodeInternal, "no free slot for span %s", span)
}

// Commit records r for index and removes it from free space. Committing an
// index twice is a no-op.
func (t *Tracker) Commit(index int, r Rect) {
	if t.cache.Has(index) {
		return
	}
	t.cache.Put(index, Placement{Rect: r})
	t.subtract(r)
}

// subtract removes r from every free rectangle.
func (t *Tracker) subtract(r Rect) {
	var kept, adjacent, fragments []Rect
	for _, f := range t.free {
		switch {
		case f.Intersects(r):
			if !r.Contains(f) {
				fragments = append(fragments, split(f, r)...)
			}
		case f.Touches(r):
			adjacent = append(adjacent, f)
			kept = append(kept, f)
		default:
			kept = append(kept, f)
		}
	}

	for i, c := range fragments {
		if containedInAny(c, adjacent) || coveredByOther(i, fragments) {
			continue
		}
		kept = append(kept, c)
	}

	slices.SortStableFunc(kept, t.compare)
	t.free = kept
}

// split returns the parts of f left, right, above and below r.
func split(f, r Rect) []Rect {
	out := make([]Rect, 0, 4)
	if r.Left > f.Left {
		out = append(out, Rect{Left: f.Left, Top: f.Top, Right: r.Left, Bottom: f.Bottom})
	}
	if r.Right < f.Right {
		out = append(out, Rect{Left: r.Right, Top: f.Top, Right: f.Right, Bottom: f.Bottom})
	}
	if r.Top > f.Top {
		out = append(out, Rect{Left: f.Left, Top: f.Top, Right: f.Right, Bottom: r.Top})
	}
	if r.Bottom < f.Bottom {
		out = append(out, Rect{Left: f.Left, Top: r.Bottom, Right: f.Right, Bottom: f.Bottom})
	}
	return out
}

func containedInAny(c Rect, rects []Rect) bool {
	for _, a := range rects {
		if a.Contains(c) {
			return true
		}
	}
	return false
}

// coveredByOther reports whether fragments[i] lies inside another fragment.
// Of two equal fragments only the later one is covered, so one copy survives.
func coveredByOther(i int, fragments []Rect) bool {
	c := fragments[i]
	for j, o := range fragments {
		if j == i || !o.Contains(c) {
			continue
		}
		if o != c || j < i {
			return true
		}
	}
	return false
}

// compare orders rectangles main axis first, then cross axis.
func (t *Tracker) compare(a, b Rect) int {
	if t.orientation == Horizontal {
		return cmp.Or(cmp.Compare(a.Left, b.Left), cmp.Compare(a.Top, b.Top))
	}
	return cmp.Or(cmp.Compare(a.Top, b.Top), cmp.Compare(a.Left, b.Left))
}
