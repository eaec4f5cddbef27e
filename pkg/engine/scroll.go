package engine

import (
	"math"

	"github.com/matzehuels/spangrid/pkg/observability"
)

// Scroll moves the viewport by delta pixels along the main axis (positive
// toward the end) and returns the delta actually consumed.
//
// The offset is clamped at 0 and, once the window holds the last item, at the
// point where the trailing padding meets the viewport end. Realized items are
// rebound at their new screen frames, items fully outside the viewport in the
// direction of travel are released, and the exposed side is filled with one
// viewport of prefetch.
func (e *Engine) Scroll(delta int) (int, error) {
	count := e.spans.Count()
	if delta == 0 || count == 0 {
		return 0, nil
	}
	size := e.viewport()

	if delta > 0 {
		// Make sure the region being scrolled into is packed before clamping.
		if err := e.FillForward(e.last+1, delta); err != nil {
			return 0, err
		}
	}

	canBackward := delta < 0 && e.state.Scroll > 0
	canForward := delta > 0 && e.state.LayoutEnd+e.padEnd() > e.state.Scroll+size
	if !canBackward && !canForward {
		observability.Layout().OnScroll(delta, 0)
		return 0, nil
	}

	consumed := e.offsetBy(delta, count)
	e.rebind()

	var err error
	if delta > 0 {
		e.recycleLeading()
		err = e.FillForward(e.last+1, size)
	} else {
		e.recycleTrailing()
		err = e.FillBackward(e.first-1, size)
	}
	observability.Layout().OnScroll(delta, consumed)
	return consumed, err
}

// offsetBy applies a clamped delta to the scroll offset.
func (e *Engine) offsetBy(delta, count int) int {
	prev := e.state.Scroll
	next := addSat(prev, delta)
	if next < 0 {
		next = 0
	}
	if delta > 0 && e.last == count-1 {
		end := e.state.LayoutEnd + e.padEnd()
		if next > end-e.viewport() {
			next = max(end-e.viewport(), prev)
		}
	}
	e.state.Scroll = next
	return next - prev
}

// ScrollTo scrolls by whatever delta moves the offset to target. It is a
// convenience for hosts that track absolute positions.
func (e *Engine) ScrollTo(target int) (int, error) {
	return e.Scroll(addSat(target, -e.state.Scroll))
}

// addSat returns a+b, saturating at the int range instead of wrapping.
func addSat(a, b int) int {
	s := a + b
	switch {
	case b > 0 && s < a:
		return math.MaxInt
	case b < 0 && s > a:
		return math.MinInt
	}
	return s
}
