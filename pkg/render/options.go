package render

import "github.com/matzehuels/spangrid/pkg/errors"

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// DefaultPalette is the demo color cycle: red, green, blue, cyan, dark gray,
// magenta, yellow.
var DefaultPalette = []string{
	"#e53935", "#43a047", "#1e88e5", "#00acc1", "#424242", "#d81b60", "#fdd835",
}

// Option configures a renderer.
type Option func(*renderer)

type renderer struct {
	labels   bool
	free     bool
	scale    float64
	palette  []string
	viewport *viewport
}

type viewport struct {
	scroll int
}

// WithLabels draws item labels, or indices where no label is set.
func WithLabels() Option { return func(r *renderer) { r.labels = true } }

// WithFree outlines the free rectangles, clipped to the content extent.
func WithFree() Option { return func(r *renderer) { r.free = true } }

// WithScale sets the output scale factor (default 1).
func WithScale(s float64) Option {
	return func(r *renderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithPalette replaces the fallback color cycle.
func WithPalette(p []string) Option {
	return func(r *renderer) {
		if len(p) > 0 {
			r.palette = p
		}
	}
}

// WithViewport outlines the viewport at the given main-axis scroll offset.
func WithViewport(scroll int) Option {
	return func(r *renderer) { r.viewport = &viewport{scroll: scroll} }
}

func newRenderer(opts ...Option) renderer {
	r := renderer{scale: 1, palette: DefaultPalette}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *renderer) color(index int, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return r.palette[index%len(r.palette)]
}

// ValidateFormat checks that format is one of svg, png or json.
func ValidateFormat(format string) error {
	switch format {
	case FormatSVG, FormatPNG, FormatJSON:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, json)", format)
}
