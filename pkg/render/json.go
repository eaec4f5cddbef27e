package render

import "github.com/matzehuels/spangrid/pkg/layout"

// RenderJSON returns the layout as indented JSON.
func RenderJSON(l *layout.Layout) ([]byte, error) {
	return layout.Marshal(l)
}
