package pipeline

import (
	"github.com/matzehuels/spangrid/pkg/layout"
	"github.com/matzehuels/spangrid/pkg/render"
)

// Render generates output artifacts in the requested formats. The layout
// carries its own strip settings; only render options are read from opts.
func Render(l *layout.Layout, opts Options) (map[string][]byte, error) {
	if len(opts.Formats) == 0 {
		opts.Formats = []string{FormatSVG}
	}
	if opts.Scale == 0 {
		opts.Scale = DefaultScale
	}
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	return render.Render(l, opts.Formats, opts.RenderOptions()...)
}
