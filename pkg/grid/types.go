package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/spangrid/pkg/errors"
)

// Unbounded is the main-axis extent of the initial free lane.
const Unbounded = math.MaxInt32

// =============================================================================
// Orientation
// =============================================================================

// Orientation selects which axis scrolls.
type Orientation int

const (
	// Vertical strips have lanes as columns and scroll along y.
	Vertical Orientation = iota
	// Horizontal strips have lanes as rows and scroll along x.
	Horizontal
)

// String returns "vertical" or "horizontal".
func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// ParseOrientation parses an orientation name. The empty string means [Vertical].
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vertical", "v":
		return Vertical, nil
	case "horizontal", "h":
		return Horizontal, nil
	}
	return Vertical, errors.New(errors.ErrCodeInvalidOrientation, "invalid orientation: %q (use vertical or horizontal)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Orientation) UnmarshalText(text []byte) error {
	v, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// =============================================================================
// SpanSize
// =============================================================================

// SpanSize is an item footprint in grid cells.
type SpanSize struct {
	Width  int `json:"width" toml:"width" bson:"width"`
	Height int `json:"height" toml:"height" bson:"height"`
}

// Unit is the 1x1 span.
var Unit = SpanSize{Width: 1, Height: 1}

// Cross returns the extent along the lane axis.
func (s SpanSize) Cross(o Orientation) int {
	if o == Horizontal {
		return s.Height
	}
	return s.Width
}

// Main returns the extent along the scroll axis.
func (s SpanSize) Main(o Orientation) int {
	if o == Horizontal {
		return s.Width
	}
	return s.Height
}

// String formats the span as WxH.
func (s SpanSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ParseSpanSize parses "WxH" or a single "N" meaning NxN.
func ParseSpanSize(s string) (SpanSize, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	w, h, found := strings.Cut(s, "x")
	if !found {
		h = w
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return SpanSize{}, errors.New(errors.ErrCodeInvalidSpanSize, "invalid span %q: expected WxH", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return SpanSize{}, errors.New(errors.ErrCodeInvalidSpanSize, "invalid span %q: expected WxH", s)
	}
	if width < 1 || height < 1 {
		return SpanSize{}, errors.New(errors.ErrCodeInvalidSpanSize, "invalid span %q: sides must be at least 1", s)
	}
	if width > errors.MaxSpan || height > errors.MaxSpan {
		return SpanSize{}, errors.New(errors.ErrCodeInvalidSpanSize, "invalid span %q: sides must be at most %d", s, errors.MaxSpan)
	}
	return SpanSize{Width: width, Height: height}, nil
}

// =============================================================================
// Rect
// =============================================================================

// Rect is a half-open rectangle in grid cells: [Left, Right) x [Top, Bottom).
type Rect struct {
	Left   int `json:"left" bson:"left"`
	Top    int `json:"top" bson:"top"`
	Right  int `json:"right" bson:"right"`
	Bottom int `json:"bottom" bson:"bottom"`
}

// Width returns Right - Left.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether r covers no cells.
func (r Rect) Empty() bool { return r.Right <= r.Left || r.Bottom <= r.Top }

// Contains reports whether o lies entirely inside r. Equal rects contain each other.
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left && o.Right <= r.Right && o.Top >= r.Top && o.Bottom <= r.Bottom
}

// Intersects reports whether r and o share at least one cell.
func (r Rect) Intersects(o Rect) bool {
	return r.Left < o.Right && o.Left < r.Right && r.Top < o.Bottom && o.Top < r.Bottom
}

// Touches reports whether r and o share part of an edge or a corner without
// sharing a cell.
func (r Rect) Touches(o Rect) bool {
	if r.Intersects(o) {
		return false
	}
	return r.Left <= o.Right && o.Left <= r.Right && r.Top <= o.Bottom && o.Top <= r.Bottom
}

// MainStart returns the leading edge along the scroll axis.
func (r Rect) MainStart(o Orientation) int {
	if o == Horizontal {
		return r.Left
	}
	return r.Top
}

// MainEnd returns the trailing edge along the scroll axis.
func (r Rect) MainEnd(o Orientation) int {
	if o == Horizontal {
		return r.Right
	}
	return r.Bottom
}

// CrossStart returns the leading edge along the lane axis.
func (r Rect) CrossStart(o Orientation) int {
	if o == Horizontal {
		return r.Top
	}
	return r.Left
}

// Scale converts grid cells to pixels with a uniform slot size.
func (r Rect) Scale(slot int) Frame {
	return Frame{
		Left:   r.Left * slot,
		Top:    r.Top * slot,
		Right:  r.Right * slot,
		Bottom: r.Bottom * slot,
	}
}

// String formats r as [l,t,r,b) with ∞ for the unbounded edge.
func (r Rect) String() string {
	return fmt.Sprintf("[%s,%s,%s,%s)", edge(r.Left), edge(r.Top), edge(r.Right), edge(r.Bottom))
}

func edge(v int) string {
	if v >= Unbounded {
		return "∞"
	}
	return strconv.Itoa(v)
}

// =============================================================================
// Frame
// =============================================================================

// Frame is a half-open rectangle in pixels.
type Frame struct {
	Left   int `json:"left" bson:"left"`
	Top    int `json:"top" bson:"top"`
	Right  int `json:"right" bson:"right"`
	Bottom int `json:"bottom" bson:"bottom"`
}

// Width returns Right - Left.
func (f Frame) Width() int { return f.Right - f.Left }

// Height returns Bottom - Top.
func (f Frame) Height() int { return f.Bottom - f.Top }

// Offset returns f translated by (dx, dy).
func (f Frame) Offset(dx, dy int) Frame {
	return Frame{Left: f.Left + dx, Top: f.Top + dy, Right: f.Right + dx, Bottom: f.Bottom + dy}
}

// MainStart returns the leading edge along the scroll axis.
func (f Frame) MainStart(o Orientation) int {
	if o == Horizontal {
		return f.Left
	}
	return f.Top
}

// MainEnd returns the trailing edge along the scroll axis.
func (f Frame) MainEnd(o Orientation) int {
	if o == Horizontal {
		return f.Right
	}
	return f.Bottom
}

// =============================================================================
// Placement
// =============================================================================

// Placement is a packed item: its grid rectangle and its pixel frame in
// content coordinates (before padding and scroll are applied).
type Placement struct {
	Rect  Rect  `json:"rect" bson:"rect"`
	Frame Frame `json:"frame" bson:"frame"`
}
