package pipeline

import (
	"time"

	"github.com/matzehuels/spangrid/pkg/grid"
	"github.com/matzehuels/spangrid/pkg/layout"
	"github.com/matzehuels/spangrid/pkg/manifest"
)

// Pack places every item of m in index order. opts are prepared against m
// first. The tracker is returned for free-space rendering.
func Pack(m *manifest.Manifest, opts Options) (*layout.Layout, *grid.Tracker, error) {
	if err := opts.Prepare(m); err != nil {
		return nil, nil, err
	}
	start := time.Now()
	l, tr, err := layout.Pack(m, opts.LayoutParams())
	if err != nil {
		return nil, nil, err
	}
	opts.Logger.Debug("packed manifest",
		"name", m.Name,
		"items", len(l.Items),
		"free", len(l.Free),
		"extent", l.Extent,
		"duration", time.Since(start))
	return l, tr, nil
}
