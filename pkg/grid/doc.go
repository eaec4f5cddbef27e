// Package grid implements online packing of variable-size items into a
// grid strip with a fixed number of lanes.
//
// A strip is finite along its cross axis (the lanes) and unbounded along its
// main axis (the scroll direction). Items arrive in index order, each asking
// for a [SpanSize] in grid cells, and are placed into the first free space
// that can hold them. Placement is greedy: earlier items never move, and
// holes left by wide items are back-filled by later narrow ones.
//
// # Core Types
//
//   - [Tracker]: the free-space tracker. Holds the set of maximal free
//     rectangles and the packed rectangle of every committed item.
//   - [PlacementCache]: ordered index → [Placement] map shared with the
//     layout engine, holding grid rectangles and resolved pixel frames.
//   - [Rect]: half-open rectangle in grid cells.
//   - [Frame]: half-open rectangle in pixels.
//   - [Orientation]: [Vertical] strips have lanes as columns and scroll
//     along y; [Horizontal] strips have lanes as rows and scroll along x.
//
// # Usage
//
//	tr, err := grid.NewTracker(grid.Vertical, 3)
//	if err != nil {
//	    return err
//	}
//	for i, span := range spans {
//	    r, err := tr.Find(i, span)
//	    if err != nil {
//	        return err
//	    }
//	    tr.Commit(i, r)
//	}
//
// # Free Space
//
// Free space is a list of possibly overlapping rectangles that together cover
// every unallocated cell. Committing a rectangle splits each intersecting free
// rectangle into up to four fragments (left, right, above, below). Fragments
// covered by a neighboring free rectangle or another fragment are dropped, so
// no survivor is contained in another. The list stays sorted main-axis first,
// which makes [Tracker.FindSlot] return the top-most (or left-most), then
// lane-first fit.
package grid
