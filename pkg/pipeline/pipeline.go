// Package pipeline packs, simulates and renders manifests for the CLI and API.
//
// This package is the single entry point both surfaces use, so defaults,
// validation and caching behave the same everywhere.
//
// # Stages
//
//  1. Pack: place every item of a manifest with a fresh tracker
//  2. Render: draw the packed layout (SVG, PNG, JSON)
//  3. Simulate: drive a layout engine through a script of scroll steps
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{Lanes: 3, Formats: []string{"svg"}}
//	result, err := runner.Execute(ctx, m, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run a scroll script:
//
//	steps, err := pipeline.ParseSteps([]string{"rebuild", "scroll:400", "save"})
//	trace, err := runner.Simulate(ctx, m, opts, steps)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spangrid/pkg/cache"
	"github.com/matzehuels/spangrid/pkg/engine"
	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/grid"
	"github.com/matzehuels/spangrid/pkg/layout"
	"github.com/matzehuels/spangrid/pkg/manifest"
	"github.com/matzehuels/spangrid/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultOrientation is the scroll axis when neither options nor the
	// manifest name one.
	DefaultOrientation = "vertical"

	// DefaultLanes is the default number of lanes across the strip.
	DefaultLanes = 3

	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 600

	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = 800

	// DefaultScale is the default artifact scale factor.
	DefaultScale = 1.0
)

// Format constants for output formats.
const (
	FormatSVG  = render.FormatSVG
	FormatPNG  = render.FormatPNG
	FormatJSON = render.FormatJSON
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
//
// Zero values mean "unset": [Options.ApplyManifest] fills them from the
// manifest and [Options.SetDefaults] from the package defaults.
type Options struct {
	// Strip options
	Orientation string        `json:"orientation,omitempty"`
	Lanes       int           `json:"lanes,omitempty"`
	Width       int           `json:"width,omitempty"`
	Height      int           `json:"height,omitempty"`
	Padding     engine.Insets `json:"padding,omitzero"`
	StableOrder bool          `json:"stable_order,omitempty"`
	Limit       int           `json:"limit,omitempty"` // pack only the first Limit items

	// Render options
	Formats []string `json:"formats,omitempty"`
	Labels  bool     `json:"labels,omitempty"`
	Free    bool     `json:"free,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
	Palette []string `json:"palette,omitempty"` // fill colors for items without one
	// ViewportAt outlines the viewport at this scroll offset; nil draws none.
	ViewportAt *int `json:"viewport_at,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pack-and-render run.
type Result struct {
	// Layout is the packed strip.
	Layout *layout.Layout

	// LayoutHash is the content hash of the layout.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ItemCount  int
	PackTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return render.ValidateFormat(format)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ApplyManifest fills unset strip options from the manifest.
func (o *Options) ApplyManifest(m *manifest.Manifest) {
	if o.Orientation == "" && m.Orientation == grid.Horizontal {
		o.Orientation = m.Orientation.String()
	}
	if o.Lanes == 0 {
		o.Lanes = m.Lanes
	}
	if o.Width == 0 {
		o.Width = m.Viewport.Width
	}
	if o.Height == 0 {
		o.Height = m.Viewport.Height
	}
	if o.Padding == (engine.Insets{}) {
		o.Padding = m.Viewport.Padding
	}
	o.StableOrder = o.StableOrder || m.StableOrder
}

// SetDefaults fills the remaining unset options.
func (o *Options) SetDefaults() {
	if o.Orientation == "" {
		o.Orientation = DefaultOrientation
	}
	if o.Lanes == 0 {
		o.Lanes = DefaultLanes
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks options after defaults are applied.
func (o *Options) Validate() error {
	if _, err := grid.ParseOrientation(o.Orientation); err != nil {
		return err
	}
	if err := errors.ValidateLanes(o.Lanes); err != nil {
		return err
	}
	if err := errors.ValidateViewport(o.Width, o.Height); err != nil {
		return err
	}
	p := o.Padding
	if err := errors.ValidatePadding(p.Left, p.Top, p.Right, p.Bottom); err != nil {
		return err
	}
	if o.Limit < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "limit must not be negative: %d", o.Limit)
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative: %g", o.Scale)
	}
	if o.ViewportAt != nil && *o.ViewportAt < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "viewport offset must not be negative: %d", *o.ViewportAt)
	}
	return ValidateFormats(o.Formats)
}

// Prepare applies the manifest, defaults and validation in that order.
func (o *Options) Prepare(m *manifest.Manifest) error {
	o.ApplyManifest(m)
	o.SetDefaults()
	return o.Validate()
}

// orientation returns the parsed orientation; options must be validated.
func (o *Options) orientation() grid.Orientation {
	or, _ := grid.ParseOrientation(o.Orientation)
	return or
}

// LayoutParams converts options to packing parameters.
func (o *Options) LayoutParams() layout.Params {
	return layout.Params{
		Orientation: o.orientation(),
		Lanes:       o.Lanes,
		Width:       o.Width,
		Height:      o.Height,
		Padding:     o.Padding,
		Limit:       o.Limit,
	}
}

// EngineConfig converts options to an engine configuration.
func (o *Options) EngineConfig() engine.Config {
	return engine.Config{
		Orientation: o.orientation(),
		Lanes:       o.Lanes,
		Width:       o.Width,
		Height:      o.Height,
		Padding:     o.Padding,
		StableOrder: o.StableOrder,
		Logger:      o.Logger,
	}
}

// RenderOptions converts options to renderer options.
func (o *Options) RenderOptions() []render.Option {
	opts := []render.Option{render.WithScale(o.Scale)}
	if o.Labels {
		opts = append(opts, render.WithLabels())
	}
	if o.Free {
		opts = append(opts, render.WithFree())
	}
	if len(o.Palette) > 0 {
		opts = append(opts, render.WithPalette(o.Palette))
	}
	if o.ViewportAt != nil {
		opts = append(opts, render.WithViewport(*o.ViewportAt))
	}
	return opts
}

// LayoutKeyOpts returns cache key options for packing.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	p := o.Padding
	return cache.LayoutKeyOpts{
		Orientation: o.Orientation,
		Lanes:       o.Lanes,
		Width:       o.Width,
		Height:      o.Height,
		Padding:     [4]int{p.Left, p.Top, p.Right, p.Bottom},
		Limit:       o.Limit,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Labels:     o.Labels,
		Free:       o.Free,
		Scale:      o.Scale,
		Palette:    o.Palette,
		ViewportAt: o.ViewportAt,
	}
}

// TraceKeyOpts returns cache key options for a simulation.
func (o *Options) TraceKeyOpts(steps []Step) cache.TraceKeyOpts {
	s := make([]string, len(steps))
	for i, st := range steps {
		s[i] = st.String()
	}
	opts := cache.TraceKeyOpts{LayoutKeyOpts: o.LayoutKeyOpts(), Steps: s}
	if o.StableOrder {
		opts.Steps = append([]string{"stable"}, opts.Steps...)
	}
	return opts
}
