package engine

import (
	"time"

	"github.com/matzehuels/spangrid/pkg/observability"
)

// Rebuild discards every placement and lays out a fresh window.
//
// With a pending anchor the window is restored around that item; otherwise
// items are filled forward from index 0 against the current scroll offset.
// The pending anchor is consumed either way. If the rebuilt content ends
// before the viewport does, the offset settles back toward 0.
func (e *Engine) Rebuild() (err error) {
	start := time.Now()
	count := e.spans.Count()
	defer func() {
		observability.Layout().OnRebuild(count, len(e.items), time.Since(start), err)
	}()

	e.releaseAll()
	e.tracker.Reset()
	e.slot = e.tracker.SlotSize(e.crossTrack())
	e.state.LayoutStart = e.padStart()
	e.state.LayoutEnd = e.padStart()
	e.first, e.last = 0, -1

	pending := e.state.Pending
	e.state.Pending = NoPending

	if pending != NoPending && count > 0 {
		err = e.RestoreAnchor(pending)
	} else {
		err = e.FillForward(0, 0)
	}
	if err != nil {
		return err
	}
	if err = e.settle(); err != nil {
		return err
	}

	e.logger.Debug("layout rebuilt",
		"items", count,
		"realized", len(e.items),
		"scroll", e.state.Scroll,
		"extent", e.state.LayoutEnd-e.state.LayoutStart)
	return nil
}

// settle pulls the offset back when the viewport extends past the content
// end, and fills whatever that exposes at the leading side.
func (e *Engine) settle() error {
	over := e.state.Scroll + e.viewport() - (e.state.LayoutEnd + e.padEnd())
	if over <= 0 || e.state.Scroll == 0 {
		return nil
	}
	e.state.Scroll -= min(over, e.state.Scroll)
	e.rebind()
	return e.FillBackward(e.first-1, 0)
}

// RestoreAnchor lays out a window whose leading edge is the item at target.
//
// Items 0 through target are packed in order, each acquired, bound and
// released right away, so that target's position is the one a full forward
// pass would give it. The offset is then set to target's start and the
// window is filled one viewport forward and one viewport backward. target is
// clamped to the item range; with no items this is a no-op.
func (e *Engine) RestoreAnchor(target int) error {
	e.state.Pending = NoPending
	count := e.spans.Count()
	if count == 0 {
		return nil
	}
	target = min(max(target, 0), count-1)

	e.releaseAll()
	e.state.Scroll = 0
	for i := 0; i <= target; i++ {
		p, err := e.place(i)
		if err != nil {
			return err
		}
		h := e.renderer.Acquire(i)
		e.renderer.Bind(h, e.screenFrame(p.Frame))
		e.renderer.Release(h)
	}

	p, _ := e.cache.Get(target)
	e.state.Scroll = p.Frame.MainStart(e.cfg.Orientation)
	e.state.LayoutStart = e.startOf(p.Frame)
	e.state.LayoutEnd = e.state.LayoutStart
	e.first, e.last = target, target-1

	if err := e.FillForward(target, e.viewport()); err != nil {
		return err
	}
	if err := e.FillBackward(target-1, e.viewport()); err != nil {
		return err
	}

	e.logger.Debug("anchor restored", "index", target, "scroll", e.state.Scroll)
	return nil
}

// SaveAnchor returns the realized item with the smallest main-axis start,
// lowest index on ties. Prefetched items above the viewport count, so after
// RestoreAnchor the result may precede the restored target. It reports false
// when item order is not declared stable or nothing is realized.
func (e *Engine) SaveAnchor() (SavedState, bool) {
	if !e.cfg.StableOrder || len(e.items) == 0 {
		return SavedState{}, false
	}
	best, bestStart := e.items[0].index, e.startOf(e.items[0].frame)
	for _, it := range e.items[1:] {
		if start := e.startOf(it.frame); start < bestStart {
			best, bestStart = it.index, start
		}
	}
	return SavedState{FirstVisibleIndex: best}, true
}

// RequestScrollTo records index as the anchor for the next Rebuild.
// Only the most recent request is kept.
func (e *Engine) RequestScrollTo(index int) {
	e.state.Pending = index
}

// Restore replays a saved state through RequestScrollTo.
func (e *Engine) Restore(s SavedState) {
	e.RequestScrollTo(s.FirstVisibleIndex)
}
