// Package engine virtualizes a packed grid strip into a scrollable window.
//
// An [Engine] owns a [grid.Tracker] and drives a host-provided [Renderer]:
// items are acquired and bound only while they intersect the viewport (plus
// one viewport of prefetch after a scroll), and released as soon as they fall
// fully outside it. Packing is still strictly index-ordered, so an item's
// position never depends on the scroll path that realized it.
//
// # Coordinates
//
// Three coordinate spaces are involved:
//   - Content: [grid.Frame] values stored in the placement cache, origin at the
//     first cell of the strip.
//   - Layout: content shifted by the leading main-axis padding. The extent
//     edges in [State] and the scroll offset live here.
//   - Screen: layout minus the scroll offset along the main axis, plus the
//     leading cross-axis padding. Frames passed to [Renderer.Bind] are in
//     screen space.
//
// # Usage
//
//	e, err := engine.New(engine.Config{
//	    Orientation: grid.Vertical,
//	    Lanes:       3,
//	    Width:       1080,
//	    Height:      1920,
//	}, items, renderer)
//	if err != nil {
//	    return err
//	}
//	if err := e.Rebuild(); err != nil {
//	    return err
//	}
//	consumed, err := e.Scroll(240)
//
// # State
//
// [Engine.SaveAnchor] captures the first visible item when the host declares
// item order stable. Feeding it back through [Engine.Restore] (or
// [Engine.RequestScrollTo]) makes the next [Engine.Rebuild] land on that item.
//
// An Engine is not safe for concurrent use; hosts serialize calls.
package engine
