package render

import (
	"context"

	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/grid"
)

// RenderFreeSpace renders the tracker's items and free rectangles as DOT
// source or, for FormatSVG, as a Graphviz-laid-out SVG.
func RenderFreeSpace(ctx context.Context, tr *grid.Tracker, labels []string, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(tr.ToDOT(labels)), nil
	case FormatSVG:
		return tr.RenderSVG(ctx, labels)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid free-space format: %q (must be dot or svg)", format)
}
