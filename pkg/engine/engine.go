package engine

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/grid"
)

// NoPending marks the absence of a pending anchor in [State].
const NoPending = -1

// =============================================================================
// Collaborators
// =============================================================================

// Handle is an opaque per-item token issued by a [Renderer].
type Handle any

// Renderer materializes items on behalf of the engine.
//
// Acquire is called when an item enters the window, Bind every time its
// screen frame changes, and Release when it leaves. A released handle is
// never passed to Bind again.
type Renderer interface {
	Acquire(index int) Handle
	Bind(h Handle, frame grid.Frame)
	Release(h Handle)
}

// SpanSource supplies item count and per-item spans.
type SpanSource interface {
	Count() int
	SpanSize(index int) grid.SpanSize
}

// =============================================================================
// Configuration and State
// =============================================================================

// Insets are viewport paddings in pixels.
type Insets struct {
	Left   int `json:"left" toml:"left" mapstructure:"left"`
	Top    int `json:"top" toml:"top" mapstructure:"top"`
	Right  int `json:"right" toml:"right" mapstructure:"right"`
	Bottom int `json:"bottom" toml:"bottom" mapstructure:"bottom"`
}

// Config configures an [Engine].
type Config struct {
	Orientation grid.Orientation
	Lanes       int
	Width       int // viewport width in pixels
	Height      int // viewport height in pixels
	Padding     Insets
	StableOrder bool        // item identity is stable across data changes; enables SaveAnchor
	Logger      *log.Logger // defaults to log.Default()
}

// State is the mutable scroll and extent bookkeeping of an engine.
type State struct {
	Scroll      int `json:"scroll"`       // main-axis scroll offset, layout space
	LayoutStart int `json:"layout_start"` // leading edge of realized items, layout space
	LayoutEnd   int `json:"layout_end"`   // trailing edge of realized items, layout space
	Pending     int `json:"pending"`      // anchor for the next rebuild, or NoPending
}

// SavedState is the persisted form of a scroll position.
type SavedState struct {
	FirstVisibleIndex int `json:"first_visible_index" bson:"first_visible_index"`
}

// Item is a realized item with its current screen frame.
type Item struct {
	Index int        `json:"index"`
	Frame grid.Frame `json:"frame"`
}

type realized struct {
	index  int
	handle Handle
	frame  grid.Frame // content space
}

// =============================================================================
// Engine
// =============================================================================

// Engine lays out a [SpanSource] lazily as the viewport scrolls.
type Engine struct {
	cfg      Config
	spans    SpanSource
	renderer Renderer
	tracker  *grid.Tracker
	cache    *grid.PlacementCache
	logger   *log.Logger

	state State
	slot  int
	items []realized // sorted by index, contiguous
	first int        // window bounds; empty when last < first
	last  int
}

// New returns an engine with nothing realized. Call [Engine.Rebuild] to lay
// out the first window. It fails with INVALID_LANE_COUNT when cfg.Lanes < 1.
func New(cfg Config, spans SpanSource, r Renderer) (*Engine, error) {
	tr, err := grid.NewTracker(cfg.Orientation, cfg.Lanes)
	if err != nil {
		return nil, err
	}
	if err := validateViewport(cfg.Width, cfg.Height, cfg.Padding); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		cfg:      cfg,
		spans:    spans,
		renderer: r,
		tracker:  tr,
		cache:    tr.Cache(),
		logger:   logger,
		state:    State{Pending: NoPending},
		last:     -1,
	}
	e.slot = tr.SlotSize(e.crossTrack())
	return e, nil
}

func validateViewport(w, h int, p Insets) error {
	if err := errors.ValidateViewport(w, h); err != nil {
		return err
	}
	return errors.ValidatePadding(p.Left, p.Top, p.Right, p.Bottom)
}

// Resize changes the viewport size. The caller rebuilds afterwards.
func (e *Engine) Resize(width, height int) error {
	if err := validateViewport(width, height, e.cfg.Padding); err != nil {
		return err
	}
	e.cfg.Width, e.cfg.Height = width, height
	e.slot = e.tracker.SlotSize(e.crossTrack())
	return nil
}

// SetItemOrderStable declares whether item identity survives data changes.
// SaveAnchor reports nothing while this is false.
func (e *Engine) SetItemOrderStable(stable bool) { e.cfg.StableOrder = stable }

// State returns a snapshot of the scroll and extent bookkeeping.
func (e *Engine) State() State { return e.state }

// Orientation returns the configured orientation.
func (e *Engine) Orientation() grid.Orientation { return e.cfg.Orientation }

// Lanes returns the configured lane count.
func (e *Engine) Lanes() int { return e.cfg.Lanes }

// SlotSize returns the pixel size of one grid cell.
func (e *Engine) SlotSize() int { return e.slot }

// Tracker exposes the free-space tracker for inspection.
func (e *Engine) Tracker() *grid.Tracker { return e.tracker }

// Placement returns the cached placement of index, if it has been packed.
func (e *Engine) Placement(index int) (grid.Placement, bool) { return e.cache.Get(index) }

// Len returns the number of realized items.
func (e *Engine) Len() int { return len(e.items) }

// Realized returns realized items in index order with their screen frames.
func (e *Engine) Realized() []Item {
	out := make([]Item, len(e.items))
	for i, it := range e.items {
		out[i] = Item{Index: it.index, Frame: e.screenFrame(it.frame)}
	}
	return out
}

// Window returns the first and last realized index. last < first when
// nothing is realized.
func (e *Engine) Window() (first, last int) { return e.first, e.last }

// ScrollIndicator returns values for a scroll bar: the first realized index,
// the number of realized items, and the item count.
func (e *Engine) ScrollIndicator() (offset, extent, rng int) {
	if len(e.items) == 0 {
		return 0, 0, e.spans.Count()
	}
	return e.items[0].index, len(e.items), e.spans.Count()
}

// CanScrollVertically reports whether the strip scrolls along y.
func (e *Engine) CanScrollVertically() bool { return e.cfg.Orientation == grid.Vertical }

// CanScrollHorizontally reports whether the strip scrolls along x.
func (e *Engine) CanScrollHorizontally() bool { return e.cfg.Orientation == grid.Horizontal }

// =============================================================================
// Axis helpers
// =============================================================================

// viewport returns the viewport length along the main axis.
func (e *Engine) viewport() int {
	if e.cfg.Orientation == grid.Horizontal {
		return e.cfg.Width
	}
	return e.cfg.Height
}

// crossTrack returns the usable viewport length along the lane axis.
func (e *Engine) crossTrack() int {
	p := e.cfg.Padding
	if e.cfg.Orientation == grid.Horizontal {
		return e.cfg.Height - p.Top - p.Bottom
	}
	return e.cfg.Width - p.Left - p.Right
}

func (e *Engine) padStart() int {
	if e.cfg.Orientation == grid.Horizontal {
		return e.cfg.Padding.Left
	}
	return e.cfg.Padding.Top
}

func (e *Engine) padEnd() int {
	if e.cfg.Orientation == grid.Horizontal {
		return e.cfg.Padding.Right
	}
	return e.cfg.Padding.Bottom
}

func (e *Engine) startOf(f grid.Frame) int { return f.MainStart(e.cfg.Orientation) + e.padStart() }
func (e *Engine) endOf(f grid.Frame) int   { return f.MainEnd(e.cfg.Orientation) + e.padStart() }

// screenFrame maps a content frame into screen space.
func (e *Engine) screenFrame(f grid.Frame) grid.Frame {
	p := e.cfg.Padding
	if e.cfg.Orientation == grid.Horizontal {
		return f.Offset(p.Left-e.state.Scroll, p.Top)
	}
	return f.Offset(p.Left, p.Top-e.state.Scroll)
}
