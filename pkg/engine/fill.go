package engine

import (
	"fmt"
	"math"

	"github.com/matzehuels/spangrid/pkg/grid"
	"github.com/matzehuels/spangrid/pkg/observability"
)

// FillForward realizes items in increasing index order starting at from,
// until the data is exhausted or the trailing edge reaches extra pixels past
// the viewport end.
func (e *Engine) FillForward(from, extra int) error {
	count := e.spans.Count()
	limit := addSat(addSat(e.state.Scroll, e.viewport()), extra)
	for i := max(from, 0); i < count && e.state.LayoutEnd < limit; i++ {
		if e.isRealized(i) {
			continue
		}
		if err := e.realize(i); err != nil {
			return err
		}
	}
	return nil
}

// FillBackward realizes items in decreasing index order starting at from,
// until index 0 is passed or the leading edge reaches extra pixels before the
// viewport start.
func (e *Engine) FillBackward(from, extra int) error {
	limit := addSat(e.state.Scroll, -max(extra, -math.MaxInt))
	for i := min(from, e.spans.Count()-1); i >= 0 && e.state.LayoutStart > limit; i-- {
		if e.isRealized(i) {
			continue
		}
		if err := e.realize(i); err != nil {
			return err
		}
	}
	return nil
}

// place returns the cached placement for index, packing it first if needed.
func (e *Engine) place(index int) (grid.Placement, error) {
	if p, ok := e.cache.Get(index); ok {
		return p, nil
	}
	span := e.spans.SpanSize(index)
	r, err := e.tracker.Find(index, span)
	if err != nil {
		return grid.Placement{}, fmt.Errorf("item %d: %w", index, err)
	}
	e.tracker.Commit(index, r)
	p := grid.Placement{Rect: r, Frame: r.Scale(e.slot)}
	e.cache.Put(index, p)
	return p, nil
}

// realize packs, acquires and binds index and inserts it into the window.
func (e *Engine) realize(index int) error {
	p, err := e.place(index)
	if err != nil {
		return err
	}
	h := e.renderer.Acquire(index)
	e.renderer.Bind(h, e.screenFrame(p.Frame))

	it := realized{index: index, handle: h, frame: p.Frame}
	pos := e.insertPos(index)
	e.items = append(e.items, realized{})
	copy(e.items[pos+1:], e.items[pos:])
	e.items[pos] = it
	e.first, e.last = e.items[0].index, e.items[len(e.items)-1].index

	e.state.LayoutStart = min(e.state.LayoutStart, e.startOf(p.Frame))
	e.state.LayoutEnd = max(e.state.LayoutEnd, e.endOf(p.Frame))
	observability.Layout().OnRealize(index)
	return nil
}

func (e *Engine) insertPos(index int) int {
	n := len(e.items)
	if n == 0 || e.items[n-1].index < index {
		return n
	}
	for i, it := range e.items {
		if it.index > index {
			return i
		}
	}
	return n
}

func (e *Engine) isRealized(index int) bool {
	if len(e.items) == 0 || index < e.first || index > e.last {
		return false
	}
	// Window is contiguous in practice, but a caller may fill out of order.
	for _, it := range e.items {
		if it.index == index {
			return true
		}
	}
	return false
}

// rebind pushes current screen frames for every realized item.
func (e *Engine) rebind() {
	for _, it := range e.items {
		e.renderer.Bind(it.handle, e.screenFrame(it.frame))
	}
}

// releaseAll releases every realized item and empties the window.
func (e *Engine) releaseAll() {
	for _, it := range e.items {
		e.renderer.Release(it.handle)
	}
	e.items = e.items[:0]
	e.last = e.first - 1
}

// recycleLeading releases the leading run of items that end before the
// viewport start, then recomputes the leading edge.
func (e *Engine) recycleLeading() {
	n := 0
	for n < len(e.items) && e.endOf(e.items[n].frame) < e.state.Scroll {
		e.renderer.Release(e.items[n].handle)
		observability.Layout().OnRecycle(e.items[n].index)
		n++
	}
	if n == 0 {
		return
	}
	e.items = append(e.items[:0], e.items[n:]...)
	if len(e.items) == 0 {
		e.first = e.last + 1
		e.state.LayoutStart = e.state.LayoutEnd
		return
	}
	e.first = e.items[0].index
	start := e.startOf(e.items[0].frame)
	for _, it := range e.items[1:] {
		start = min(start, e.startOf(it.frame))
	}
	e.state.LayoutStart = start
}

// recycleTrailing releases the trailing run of items that start after the
// viewport end, then recomputes the trailing edge.
func (e *Engine) recycleTrailing() {
	bound := e.state.Scroll + e.viewport()
	n := len(e.items)
	for n > 0 && e.startOf(e.items[n-1].frame) > bound {
		n--
		e.renderer.Release(e.items[n].handle)
		observability.Layout().OnRecycle(e.items[n].index)
	}
	if n == len(e.items) {
		return
	}
	e.items = e.items[:n]
	if n == 0 {
		e.last = e.first - 1
		e.state.LayoutEnd = e.state.LayoutStart
		return
	}
	e.last = e.items[n-1].index
	end := e.endOf(e.items[n-1].frame)
	for i := n - 2; i >= 0; i-- {
		end = max(end, e.endOf(e.items[i].frame))
	}
	e.state.LayoutEnd = end
}
