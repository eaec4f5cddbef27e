package grid

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/matzehuels/spangrid/pkg/errors"
)

func TestNewTrackerInvalidLanes(t *testing.T) {
	for _, lanes := range []int{0, -1} {
		tr, err := NewTracker(Vertical, lanes)
		if tr != nil {
			t.Errorf("NewTracker(%d) returned tracker, want nil", lanes)
		}
		if !errors.Is(err, errors.ErrCodeInvalidLaneCount) {
			t.Errorf("NewTracker(%d) error = %v, want %s", lanes, err, errors.ErrCodeInvalidLaneCount)
		}
	}
}

func TestTrackerInitialFreeLane(t *testing.T) {
	tests := []struct {
		o    Orientation
		want Rect
	}{
		{Vertical, Rect{0, 0, 3, Unbounded}},
		{Horizontal, Rect{0, 0, Unbounded, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.o.String(), func(t *testing.T) {
			tr := mustTracker(t, tt.o, 3)
			got := tr.FreeRects()
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("FreeRects() = %v, want [%v]", got, tt.want)
			}
		})
	}
}

func TestTrackerThreeLaneScenario(t *testing.T) {
	tests := []struct {
		name  string
		o     Orientation
		want  []Rect
		free1 []Rect
	}{
		{
			name:  "vertical",
			o:     Vertical,
			want:  []Rect{{0, 0, 1, 1}, {1, 0, 3, 2}, {0, 1, 1, 2}},
			free1: []Rect{{1, 0, 3, Unbounded}, {0, 1, 3, Unbounded}},
		},
		{
			name:  "horizontal",
			o:     Horizontal,
			want:  []Rect{{0, 0, 1, 1}, {0, 1, 2, 3}, {1, 0, 2, 1}},
			free1: []Rect{{0, 1, Unbounded, 3}, {1, 0, Unbounded, 3}},
		},
	}
	spans := []SpanSize{{1, 1}, {2, 2}, {1, 1}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustTracker(t, tt.o, 3)
			for i, span := range spans {
				got := place(t, tr, i, span)
				if got != tt.want[i] {
					t.Errorf("item %d placed at %v, want %v", i, got, tt.want[i])
				}
				if i == 0 && !slices.Equal(tr.FreeRects(), tt.free1) {
					t.Errorf("FreeRects() after item 0 = %v, want %v", tr.FreeRects(), tt.free1)
				}
			}
		})
	}
}

func TestTrackerBackfillsHoles(t *testing.T) {
	// A full-width item below a narrow one leaves a hole that later 1x1 items fill.
	tr := mustTracker(t, Vertical, 3)
	place(t, tr, 0, SpanSize{1, 1})
	place(t, tr, 1, SpanSize{3, 1})
	if got, want := place(t, tr, 2, SpanSize{1, 1}), (Rect{1, 0, 2, 1}); got != want {
		t.Errorf("item 2 placed at %v, want %v", got, want)
	}
	if got, want := place(t, tr, 3, SpanSize{2, 1}), (Rect{0, 2, 2, 3}); got != want {
		t.Errorf("item 3 placed at %v, want %v", got, want)
	}
	if got, want := place(t, tr, 4, SpanSize{1, 1}), (Rect{2, 0, 3, 1}); got != want {
		t.Errorf("item 4 placed at %v, want %v", got, want)
	}
}

func TestTrackerFindSlotInvalidSpan(t *testing.T) {
	tests := []struct {
		name string
		o    Orientation
		span SpanSize
	}{
		{"zero width", Vertical, SpanSize{0, 1}},
		{"too wide", Vertical, SpanSize{4, 1}},
		{"zero height", Vertical, SpanSize{1, 0}},
		{"too tall horizontal", Horizontal, SpanSize{1, 4}},
		{"zero width horizontal", Horizontal, SpanSize{0, 1}},
		{"main at unbounded", Vertical, SpanSize{1, Unbounded}},
		{"main past unbounded", Vertical, SpanSize{1, 1 << 31}},
		{"main past max horizontal", Horizontal, SpanSize{errors.MaxSpan + 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustTracker(t, tt.o, 3)
			_, err := tr.FindSlot(tt.span)
			if !errors.Is(err, errors.ErrCodeInvalidSpanSize) {
				t.Errorf("FindSlot(%v) error = %v, want %s", tt.span, err, errors.ErrCodeInvalidSpanSize)
			}
		})
	}
}

func TestTrackerLongMainAxisSpan(t *testing.T) {
	tr := mustTracker(t, Vertical, 2)
	if got, want := place(t, tr, 0, SpanSize{1, 50}), (Rect{0, 0, 1, 50}); got != want {
		t.Errorf("placed at %v, want %v", got, want)
	}
	if got, want := place(t, tr, 1, SpanSize{1, errors.MaxSpan}), (Rect{1, 0, 2, errors.MaxSpan}); got != want {
		t.Errorf("placed at %v, want %v", got, want)
	}
}

func TestTrackerCommitIdempotent(t *testing.T) {
	tr := mustTracker(t, Vertical, 3)
	r := place(t, tr, 0, SpanSize{2, 1})
	before := tr.FreeRects()

	tr.Commit(0, r)
	tr.Commit(0, Rect{0, 5, 1, 6})

	if !slices.Equal(tr.FreeRects(), before) {
		t.Errorf("FreeRects() after recommit = %v, want %v", tr.FreeRects(), before)
	}
	if p, _ := tr.Cache().Get(0); p.Rect != r {
		t.Errorf("cached rect = %v, want %v", p.Rect, r)
	}
	if got, err := tr.Find(0, SpanSize{1, 1}); err != nil || got != r {
		t.Errorf("Find(0) = %v, %v, want %v", got, err, r)
	}
}

func TestTrackerReset(t *testing.T) {
	tr := mustTracker(t, Vertical, 3)
	place(t, tr, 0, SpanSize{1, 1})
	place(t, tr, 1, SpanSize{2, 2})

	tr.Reset()

	if tr.Cache().Len() != 0 {
		t.Errorf("Cache().Len() = %d, want 0", tr.Cache().Len())
	}
	if got := tr.FreeRects(); len(got) != 1 {
		t.Errorf("FreeRects() = %v, want single lane", got)
	}
}

func TestTrackerSlotSize(t *testing.T) {
	tests := []struct {
		lanes, track, want int
	}{
		{3, 1080, 360},
		{3, 1000, 333},
		{4, 3, 0},
		{1, 17, 17},
		{3, 0, 0},
		{3, -5, 0},
	}
	for _, tt := range tests {
		tr := mustTracker(t, Vertical, tt.lanes)
		if got := tr.SlotSize(tt.track); got != tt.want {
			t.Errorf("SlotSize(%d) with %d lanes = %d, want %d", tt.track, tt.lanes, got, tt.want)
		}
	}
}

func TestTrackerInvariants(t *testing.T) {
	spans := []SpanSize{{1, 1}, {2, 2}, {1, 2}, {2, 1}, {3, 1}, {1, 3}, {3, 3}}

	for _, o := range []Orientation{Vertical, Horizontal} {
		for lanes := 1; lanes <= 5; lanes++ {
			rng := rand.New(rand.NewSource(int64(lanes)))
			tr := mustTracker(t, o, lanes)
			var placed []Rect

			for i := 0; i < 60; i++ {
				span := spans[rng.Intn(len(spans))]
				if span.Cross(o) > lanes {
					span = Unit
				}
				r := place(t, tr, i, span)

				if r.Width() != span.Width || r.Height() != span.Height {
					t.Fatalf("%s/%d: item %d rect %v does not match span %v", o, lanes, i, r, span)
				}
				if r.CrossStart(o) < 0 || r.CrossStart(o)+span.Cross(o) > lanes {
					t.Fatalf("%s/%d: item %d rect %v outside lanes", o, lanes, i, r)
				}
				for j, p := range placed {
					if p.Intersects(r) {
						t.Fatalf("%s/%d: item %d %v overlaps item %d %v", o, lanes, i, r, j, p)
					}
				}
				placed = append(placed, r)
				checkFreeList(t, tr, placed)
			}
		}
	}
}

// checkFreeList verifies that free rects are sorted, mutually non-nested,
// disjoint from committed rects, and cover every uncommitted cell.
func checkFreeList(t *testing.T, tr *Tracker, placed []Rect) {
	t.Helper()
	free := tr.FreeRects()
	o := tr.Orientation()

	if !slices.IsSortedFunc(free, tr.compare) {
		t.Fatalf("free rects not sorted: %v", free)
	}
	for i, a := range free {
		for j, b := range free {
			if i != j && a.Contains(b) {
				t.Fatalf("free rect %v contains free rect %v", a, b)
			}
		}
		for _, p := range placed {
			if a.Intersects(p) {
				t.Fatalf("free rect %v intersects committed %v", a, p)
			}
		}
	}

	extent := 0
	for _, p := range placed {
		extent = max(extent, p.MainEnd(o))
	}
	for m := 0; m < extent+2; m++ {
		for c := 0; c < tr.Lanes(); c++ {
			cell := Rect{Left: c, Top: m, Right: c + 1, Bottom: m + 1}
			if o == Horizontal {
				cell = Rect{Left: m, Top: c, Right: m + 1, Bottom: c + 1}
			}
			used := containedInAny(cell, placed)
			covered := containedInAny(cell, free)
			if used == covered {
				t.Fatalf("cell %v: committed=%v free=%v", cell, used, covered)
			}
		}
	}
}

func TestSubtractKeepsOneOfEqualFragments(t *testing.T) {
	fragments := []Rect{{0, 2, 3, 9}, {0, 2, 3, 9}, {1, 2, 3, 9}}
	var kept []Rect
	for i, c := range fragments {
		if !coveredByOther(i, fragments) {
			kept = append(kept, c)
		}
	}
	if want := []Rect{{0, 2, 3, 9}}; !slices.Equal(kept, want) {
		t.Errorf("kept = %v, want %v", kept, want)
	}
}

func mustTracker(t *testing.T, o Orientation, lanes int) *Tracker {
	t.Helper()
	tr, err := NewTracker(o, lanes)
	if err != nil {
		t.Fatalf("NewTracker(%s, %d) error = %v", o, lanes, err)
	}
	return tr
}

func place(t *testing.T, tr *Tracker, index int, span SpanSize) Rect {
	t.Helper()
	r, err := tr.Find(index, span)
	if err != nil {
		t.Fatalf("Find(%d, %v) error = %v", index, span, err)
	}
	tr.Commit(index, r)
	return r
}
