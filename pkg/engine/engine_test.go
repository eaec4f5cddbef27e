package engine

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/grid"
)

// spans is a SpanSource backed by a slice.
type spans []grid.SpanSize

func (s spans) Count() int                       { return len(s) }
func (s spans) SpanSize(index int) grid.SpanSize { return s[index] }

func units(n int) spans {
	s := make(spans, n)
	for i := range s {
		s[i] = grid.Unit
	}
	return s
}

// recorder is a Renderer that tracks handle lifetimes.
type recorder struct {
	t        *testing.T
	next     int
	live     map[int]int // handle -> index
	frames   map[int]grid.Frame
	acquired int
	released int
}

func newRecorder(t *testing.T) *recorder {
	return &recorder{t: t, live: map[int]int{}, frames: map[int]grid.Frame{}}
}

func (r *recorder) Acquire(index int) Handle {
	r.next++
	r.live[r.next] = index
	r.acquired++
	return r.next
}

func (r *recorder) Bind(h Handle, f grid.Frame) {
	id := h.(int)
	index, ok := r.live[id]
	if !ok {
		r.t.Errorf("Bind on released handle %d", id)
		return
	}
	r.frames[index] = f
}

func (r *recorder) Release(h Handle) {
	id := h.(int)
	if _, ok := r.live[id]; !ok {
		r.t.Errorf("Release on unknown handle %d", id)
	}
	delete(r.live, id)
	r.released++
}

func (r *recorder) liveIndices() []int {
	var out []int
	for _, idx := range r.live {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}

// newEngine builds a vertical 3-lane engine 300px wide (100px slots).
func newEngine(t *testing.T, src SpanSource, height int, mod ...func(*Config)) (*Engine, *recorder) {
	t.Helper()
	cfg := Config{Orientation: grid.Vertical, Lanes: 3, Width: 300, Height: height}
	for _, m := range mod {
		m(&cfg)
	}
	rec := newRecorder(t)
	e, err := New(cfg, src, rec)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e, rec
}

func indices(e *Engine) []int {
	var out []int
	for _, it := range e.Realized() {
		out = append(out, it.Index)
	}
	return out
}

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func checkConsistent(t *testing.T, e *Engine, rec *recorder) {
	t.Helper()
	got := indices(e)
	if !slices.Equal(got, rec.liveIndices()) {
		t.Fatalf("realized %v, renderer holds %v", got, rec.liveIndices())
	}
	for i := 1; i < len(got); i++ {
		if got[i] != got[i-1]+1 {
			t.Fatalf("realized window not contiguous: %v", got)
		}
	}
}

func TestNewInvalidLaneCount(t *testing.T) {
	_, err := New(Config{Lanes: 0, Width: 100, Height: 100}, units(3), newRecorder(t))
	if !errors.Is(err, errors.ErrCodeInvalidLaneCount) {
		t.Errorf("New() error = %v, want %s", err, errors.ErrCodeInvalidLaneCount)
	}
}

func TestNewInvalidViewport(t *testing.T) {
	_, err := New(Config{Lanes: 3, Width: -1, Height: 100}, units(3), newRecorder(t))
	if !errors.Is(err, errors.ErrCodeInvalidViewport) {
		t.Errorf("New() error = %v, want %s", err, errors.ErrCodeInvalidViewport)
	}
}

func TestRebuildFillsMinimalPrefix(t *testing.T) {
	e, rec := newEngine(t, units(30), 250)
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if got, want := indices(e), seq(0, 6); !slices.Equal(got, want) {
		t.Errorf("realized = %v, want %v", got, want)
	}
	st := e.State()
	if st.LayoutStart != 0 || st.LayoutEnd != 300 {
		t.Errorf("extent = %d..%d, want 0..300", st.LayoutStart, st.LayoutEnd)
	}
	checkConsistent(t, e, rec)
}

func TestRebuildThreeLaneFrames(t *testing.T) {
	src := spans{{Width: 1, Height: 1}, {Width: 2, Height: 2}, {Width: 1, Height: 1}}
	e, rec := newEngine(t, src, 1000)
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	want := []grid.Frame{{0, 0, 100, 100}, {100, 0, 300, 200}, {0, 100, 100, 200}}
	for i, f := range want {
		if rec.frames[i] != f {
			t.Errorf("frame %d = %v, want %v", i, rec.frames[i], f)
		}
	}
	if p, ok := e.Placement(1); !ok || p.Rect != (grid.Rect{Left: 1, Top: 0, Right: 3, Bottom: 2}) {
		t.Errorf("Placement(1) = %v, %v", p, ok)
	}
}

func TestRebuildInvalidSpanSize(t *testing.T) {
	src := spans{grid.Unit, {Width: 4, Height: 1}}
	e, _ := newEngine(t, src, 1000)
	err := e.Rebuild()
	if !errors.Is(err, errors.ErrCodeInvalidSpanSize) {
		t.Errorf("Rebuild() error = %v, want %s", err, errors.ErrCodeInvalidSpanSize)
	}
}

func TestRebuildPadding(t *testing.T) {
	e, rec := newEngine(t, units(9), 250, func(c *Config) {
		c.Width = 310
		c.Padding = Insets{Left: 5, Top: 10, Right: 5, Bottom: 20}
	})
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if e.SlotSize() != 100 {
		t.Errorf("SlotSize() = %d, want 100", e.SlotSize())
	}
	if got, want := rec.frames[0], (grid.Frame{5, 10, 105, 110}); got != want {
		t.Errorf("frame 0 = %v, want %v", got, want)
	}
	if e.State().LayoutStart != 10 {
		t.Errorf("LayoutStart = %d, want 10", e.State().LayoutStart)
	}
}

func TestRebuildHorizontal(t *testing.T) {
	src := spans{{Width: 1, Height: 1}, {Width: 2, Height: 2}, {Width: 1, Height: 1}}
	rec := newRecorder(t)
	e, err := New(Config{Orientation: grid.Horizontal, Lanes: 3, Width: 1000, Height: 300}, src, rec)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	want := []grid.Frame{{0, 0, 100, 100}, {0, 100, 200, 300}, {100, 0, 200, 100}}
	for i, f := range want {
		if rec.frames[i] != f {
			t.Errorf("frame %d = %v, want %v", i, rec.frames[i], f)
		}
	}
	if !e.CanScrollHorizontally() || e.CanScrollVertically() {
		t.Error("horizontal engine should only scroll horizontally")
	}
}

// orientations configures a 250px main axis and 100px slots either way.
var orientations = []struct {
	name string
	mod  func(*Config)
}{
	{"vertical", func(*Config) {}},
	{"horizontal", func(c *Config) { c.Orientation = grid.Horizontal; c.Width, c.Height = 250, 300 }},
}

func TestScrollRoundTrip(t *testing.T) {
	want3 := map[string]grid.Frame{
		"vertical":   {0, -20, 100, 80},
		"horizontal": {-20, 0, 80, 100},
	}
	for _, o := range orientations {
		t.Run(o.name, func(t *testing.T) {
			e, rec := newEngine(t, units(100), 250, o.mod)
			if err := e.Rebuild(); err != nil {
				t.Fatalf("Rebuild() error = %v", err)
			}

			got, err := e.Scroll(120)
			if err != nil || got != 120 {
				t.Fatalf("Scroll(120) = %d, %v, want 120", got, err)
			}
			if first, _ := e.Window(); first != 3 {
				t.Errorf("first realized after Scroll(120) = %d, want 3", first)
			}
			if got, want := rec.frames[3], want3[o.name]; got != want {
				t.Errorf("frame 3 after scroll = %v, want %v", got, want)
			}
			checkConsistent(t, e, rec)

			got, err = e.Scroll(-120)
			if err != nil || got != -120 {
				t.Fatalf("Scroll(-120) = %d, %v, want -120", got, err)
			}
			if e.State().Scroll != 0 {
				t.Errorf("Scroll offset = %d, want 0", e.State().Scroll)
			}
			if got, want := indices(e), seq(0, 8); !slices.Equal(got, want) {
				t.Errorf("realized after round trip = %v, want %v", got, want)
			}
			checkConsistent(t, e, rec)
		})
	}
}

func TestScrollClampsAtStart(t *testing.T) {
	e, _ := newEngine(t, units(100), 250)
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if got, _ := e.Scroll(-50); got != 0 {
		t.Errorf("Scroll(-50) at top = %d, want 0", got)
	}
	if _, err := e.Scroll(30); err != nil {
		t.Fatal(err)
	}
	if got, _ := e.Scroll(-50); got != -30 {
		t.Errorf("Scroll(-50) from 30 = %d, want -30", got)
	}
}

func TestScrollClampsAtEnd(t *testing.T) {
	tests := []struct {
		name    string
		padding Insets
		want    int
	}{
		{"no padding", Insets{}, 50},
		{"bottom padding", Insets{Bottom: 20}, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newEngine(t, units(9), 250, func(c *Config) { c.Padding = tt.padding })
			if err := e.Rebuild(); err != nil {
				t.Fatalf("Rebuild() error = %v", err)
			}
			got, err := e.Scroll(1000)
			if err != nil || got != tt.want {
				t.Errorf("Scroll(1000) = %d, %v, want %d", got, err, tt.want)
			}
			if got, _ := e.Scroll(10); got != 0 {
				t.Errorf("Scroll(10) at end = %d, want 0", got)
			}
			if _, last := e.Window(); last != 8 {
				t.Errorf("last realized = %d, want 8", last)
			}
			checkConsistent(t, e, rec)
		})
	}
}

func TestScrollSaturates(t *testing.T) {
	e, rec := newEngine(t, units(100), 250)
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	// Item 99 ends row 33 at 3400, so the furthest offset is 3150.
	steps := []struct {
		name       string
		run        func() (int, error)
		want       int
		wantScroll int
	}{
		{"Scroll(500)", func() (int, error) { return e.Scroll(500) }, 500, 500},
		{"Scroll(MaxInt)", func() (int, error) { return e.Scroll(math.MaxInt) }, 2650, 3150},
		{"Scroll(MinInt)", func() (int, error) { return e.Scroll(math.MinInt) }, -3150, 0},
		{"ScrollTo(MinInt)", func() (int, error) { return e.ScrollTo(math.MinInt) }, 0, 0},
		{"ScrollTo(MaxInt)", func() (int, error) { return e.ScrollTo(math.MaxInt) }, 3150, 3150},
		{"ScrollTo(MinInt) from end", func() (int, error) { return e.ScrollTo(math.MinInt) }, -3150, 0},
	}
	for _, st := range steps {
		got, err := st.run()
		if err != nil || got != st.want {
			t.Errorf("%s = %d, %v, want %d", st.name, got, err, st.want)
		}
		if s := e.State().Scroll; s != st.wantScroll {
			t.Errorf("after %s Scroll = %d, want %d", st.name, s, st.wantScroll)
		}
		checkConsistent(t, e, rec)
	}
}

func TestAddSat(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{1, 2, 3},
		{math.MaxInt, 1, math.MaxInt},
		{math.MaxInt - 5, math.MaxInt, math.MaxInt},
		{-1, math.MinInt, math.MinInt},
		{math.MinInt, -1, math.MinInt},
		{500, -math.MaxInt, 500 - math.MaxInt},
		{math.MaxInt, math.MinInt, -1},
	}
	for _, tt := range tests {
		if got := addSat(tt.a, tt.b); got != tt.want {
			t.Errorf("addSat(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestScrollNoContent(t *testing.T) {
	e, _ := newEngine(t, spans{}, 250)
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if got, err := e.Scroll(100); got != 0 || err != nil {
		t.Errorf("Scroll(100) on empty = %d, %v, want 0, nil", got, err)
	}
	if e.Len() != 0 {
		t.Errorf("Len() = %d, want 0", e.Len())
	}
}

func TestScrollFarJumpRecyclesEverything(t *testing.T) {
	e, rec := newEngine(t, units(300), 250)
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if _, err := e.Scroll(5000); err != nil {
		t.Fatal(err)
	}
	// Row 49 ends exactly at the new offset and is kept.
	first, last := e.Window()
	if first != 147 || last < first {
		t.Errorf("window after jump = %d..%d, want to start at 147", first, last)
	}
	checkConsistent(t, e, rec)

	if _, err := e.Scroll(-5000); err != nil {
		t.Fatal(err)
	}
	if first, _ := e.Window(); first != 0 {
		t.Errorf("first realized after jumping back = %d, want 0", first)
	}
	checkConsistent(t, e, rec)
}

func TestRandomScrollsKeepInvariants(t *testing.T) {
	pattern := []grid.SpanSize{{Width: 1, Height: 1}, {Width: 2, Height: 2}, {Width: 1, Height: 1}, {Width: 3, Height: 1}, {Width: 1, Height: 2}}
	src := make(spans, 200)
	for i := range src {
		src[i] = pattern[i%len(pattern)]
	}
	e, rec := newEngine(t, src, 400)
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		delta := rng.Intn(1200) - 600
		before := e.State().Scroll
		got, err := e.Scroll(delta)
		if err != nil {
			t.Fatalf("Scroll(%d) error = %v", delta, err)
		}
		if e.State().Scroll != before+got {
			t.Fatalf("Scroll(%d) consumed %d but offset moved %d", delta, got, e.State().Scroll-before)
		}
		if e.State().Scroll < 0 {
			t.Fatalf("negative scroll offset %d", e.State().Scroll)
		}
		checkConsistent(t, e, rec)
	}
	if rec.acquired-rec.released != e.Len() {
		t.Errorf("acquired-released = %d, want %d", rec.acquired-rec.released, e.Len())
	}
}

func TestRestoreAnchor(t *testing.T) {
	for _, o := range orientations {
		t.Run(o.name, func(t *testing.T) {
			stable := func(c *Config) { c.StableOrder = true }
			e, rec := newEngine(t, units(100), 250, o.mod, stable)
			e.RequestScrollTo(30)
			if err := e.Rebuild(); err != nil {
				t.Fatalf("Rebuild() error = %v", err)
			}
			if e.State().Scroll != 1000 {
				t.Errorf("Scroll = %d, want 1000", e.State().Scroll)
			}
			if e.State().Pending != NoPending {
				t.Errorf("Pending = %d, want cleared", e.State().Pending)
			}
			if got := rec.frames[30].MainStart(e.Orientation()); got != 0 {
				t.Errorf("frame 30 main start = %d, want 0", got)
			}
			if !slices.Contains(indices(e), 30) {
				t.Fatalf("item 30 not realized: %v", indices(e))
			}
			checkConsistent(t, e, rec)

			// Backward prefetch reaches row 7, which only item 23 occupies.
			saved, ok := e.SaveAnchor()
			if !ok || saved.FirstVisibleIndex != 23 {
				t.Fatalf("SaveAnchor() = %v, %v, want 23", saved, ok)
			}

			fresh, freshRec := newEngine(t, units(100), 250, o.mod)
			fresh.Restore(saved)
			if err := fresh.Rebuild(); err != nil {
				t.Fatalf("Rebuild() error = %v", err)
			}
			if fresh.State().Scroll != 700 {
				t.Errorf("restored Scroll = %d, want 700", fresh.State().Scroll)
			}
			if !slices.Contains(indices(fresh), 30) {
				t.Errorf("restored window %v does not contain 30", indices(fresh))
			}
			checkConsistent(t, fresh, freshRec)
		})
	}
}

func TestSaveAnchorCountsPrefetch(t *testing.T) {
	e, _ := newEngine(t, units(100), 250, func(c *Config) { c.StableOrder = true })
	if err := e.RestoreAnchor(30); err != nil {
		t.Fatal(err)
	}
	first, _ := e.Window()
	saved, _ := e.SaveAnchor()
	if saved.FirstVisibleIndex != first {
		t.Errorf("SaveAnchor() = %d, want the first realized item %d", saved.FirstVisibleIndex, first)
	}
	if first >= 30 {
		t.Errorf("no prefetch above the anchor: window starts at %d", first)
	}
}

func TestRestoreAnchorMeasuresPrefix(t *testing.T) {
	e, rec := newEngine(t, units(100), 250)
	if err := e.RestoreAnchor(12); err != nil {
		t.Fatalf("RestoreAnchor() error = %v", err)
	}
	// 13 measured and released, then the window.
	if rec.released != 13 {
		t.Errorf("released = %d, want 13", rec.released)
	}
	if e.Tracker().Cache().Len() < 13 {
		t.Errorf("cache holds %d placements, want at least 13", e.Tracker().Cache().Len())
	}
	checkConsistent(t, e, rec)
}

func TestRestoreAnchorClampsAndSettles(t *testing.T) {
	e, rec := newEngine(t, units(100), 250)
	e.RequestScrollTo(500)
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	// Item 99 sits in row 33 (3300..3400); the viewport settles to end at 3400.
	if e.State().Scroll != 3150 {
		t.Errorf("Scroll = %d, want 3150", e.State().Scroll)
	}
	if _, last := e.Window(); last != 99 {
		t.Errorf("last realized = %d, want 99", last)
	}
	checkConsistent(t, e, rec)
}

func TestRequestScrollToLastWriteWins(t *testing.T) {
	e, _ := newEngine(t, units(100), 250)
	e.RequestScrollTo(10)
	e.RequestScrollTo(20)
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if e.State().Scroll != 600 {
		t.Errorf("Scroll = %d, want 600", e.State().Scroll)
	}
}

func TestPendingAnchorWithNoItems(t *testing.T) {
	e, _ := newEngine(t, spans{}, 250)
	e.RequestScrollTo(5)
	if err := e.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if e.State().Pending != NoPending || e.State().Scroll != 0 {
		t.Errorf("State = %+v, want cleared pending at 0", e.State())
	}
}

func TestSaveAnchor(t *testing.T) {
	e, _ := newEngine(t, units(100), 250)
	if err := e.Rebuild(); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.SaveAnchor(); ok {
		t.Error("SaveAnchor() with unstable order reported a state")
	}

	e.SetItemOrderStable(true)
	if _, err := e.Scroll(150); err != nil {
		t.Fatal(err)
	}
	saved, ok := e.SaveAnchor()
	if !ok || saved.FirstVisibleIndex != 3 {
		t.Errorf("SaveAnchor() = %v, %v, want 3", saved, ok)
	}

	empty, _ := newEngine(t, units(5), 250, func(c *Config) { c.StableOrder = true })
	if _, ok := empty.SaveAnchor(); ok {
		t.Error("SaveAnchor() with nothing realized reported a state")
	}
}

func TestRebuildReleasesPreviousWindow(t *testing.T) {
	e, rec := newEngine(t, units(50), 250)
	for range 3 {
		if err := e.Rebuild(); err != nil {
			t.Fatal(err)
		}
	}
	checkConsistent(t, e, rec)
	if rec.acquired-rec.released != e.Len() {
		t.Errorf("leaked %d handles", rec.acquired-rec.released-e.Len())
	}
}

func TestResizeChangesSlot(t *testing.T) {
	e, _ := newEngine(t, units(10), 250)
	if err := e.Resize(600, 250); err != nil {
		t.Fatal(err)
	}
	if err := e.Rebuild(); err != nil {
		t.Fatal(err)
	}
	if e.SlotSize() != 200 {
		t.Errorf("SlotSize() = %d, want 200", e.SlotSize())
	}
	if err := e.Resize(-1, 10); !errors.Is(err, errors.ErrCodeInvalidViewport) {
		t.Errorf("Resize(-1) error = %v", err)
	}
}

func TestScrollIndicator(t *testing.T) {
	e, _ := newEngine(t, units(100), 250)
	if off, ext, rng := e.ScrollIndicator(); off != 0 || ext != 0 || rng != 100 {
		t.Errorf("ScrollIndicator() before rebuild = %d,%d,%d", off, ext, rng)
	}
	if err := e.Rebuild(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Scroll(120); err != nil {
		t.Fatal(err)
	}
	off, ext, rng := e.ScrollIndicator()
	if off != 3 || ext != e.Len() || rng != 100 {
		t.Errorf("ScrollIndicator() = %d,%d,%d, want 3,%d,100", off, ext, rng, e.Len())
	}
}

func TestScrollTo(t *testing.T) {
	e, _ := newEngine(t, units(100), 250)
	if err := e.Rebuild(); err != nil {
		t.Fatal(err)
	}
	if got, err := e.ScrollTo(450); err != nil || got != 450 {
		t.Errorf("ScrollTo(450) = %d, %v", got, err)
	}
	if e.State().Scroll != 450 {
		t.Errorf("Scroll = %d, want 450", e.State().Scroll)
	}
}
