package render

import (
	"fmt"

	"github.com/matzehuels/spangrid/pkg/layout"
)

// Render produces every requested format for a layout, keyed by format.
func Render(l *layout.Layout, formats []string, opts ...Option) (map[string][]byte, error) {
	out := make(map[string][]byte, len(formats))
	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = RenderSVG(l, opts...)
		case FormatPNG:
			data, err = RenderPNG(l, opts...)
		case FormatJSON:
			data, err = RenderJSON(l)
		default:
			err = ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		out[format] = data
	}
	return out, nil
}
