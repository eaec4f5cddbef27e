package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/grid"
)

const sampleTOML = `
name = "gallery"
orientation = "horizontal"
lanes = 3
stable_order = true

[viewport]
width = 1920
height = 1080

[viewport.padding]
top = 8

[[items]]
span = "2x2"
label = "hero"

[[items]]
span = "1x1"
repeat = 4
`

const sampleJSON = `{
  "orientation": "vertical",
  "lanes": 2,
  "items": [
    {"span": "1x1", "repeat": 2},
    {"span": "2x1", "label": "wide"}
  ]
}`

func TestParseTOML(t *testing.T) {
	m, err := Parse([]byte(sampleTOML), FormatTOML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Orientation != grid.Horizontal || m.Lanes != 3 || !m.StableOrder {
		t.Errorf("header = %v/%d/%v", m.Orientation, m.Lanes, m.StableOrder)
	}
	if m.Viewport.Width != 1920 || m.Viewport.Padding.Top != 8 {
		t.Errorf("viewport = %+v", m.Viewport)
	}
	if m.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", m.Count())
	}
	if got := m.SpanSize(0); got != (grid.SpanSize{Width: 2, Height: 2}) {
		t.Errorf("SpanSize(0) = %v, want 2x2", got)
	}
	if it := m.Item(4); it.Index != 4 || it.Span != grid.Unit {
		t.Errorf("Item(4) = %+v", it)
	}
	if m.Labels()[0] != "hero" {
		t.Errorf("Labels()[0] = %q, want hero", m.Labels()[0])
	}
}

func TestParseJSON(t *testing.T) {
	m, err := Parse([]byte(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Count() != 3 || m.Item(2).Label != "wide" {
		t.Errorf("items = %+v", m.Items())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
		code   errors.Code
	}{
		{"bad toml", "lanes = [", FormatTOML, errors.ErrCodeInvalidManifest},
		{"bad json", "{", FormatJSON, errors.ErrCodeInvalidManifest},
		{"bad format", "", "yaml", errors.ErrCodeInvalidFormat},
		{"zero lanes ok but negative not", "lanes = -1", FormatTOML, errors.ErrCodeInvalidLaneCount},
		{"bad span", "[[items]]\nspan = \"wide\"", FormatTOML, errors.ErrCodeInvalidManifest},
		{"span wider than lanes", "lanes = 2\n[[items]]\nspan = \"3x1\"", FormatTOML, errors.ErrCodeInvalidManifest},
		{"bad orientation", "orientation = \"diagonal\"", FormatTOML, errors.ErrCodeInvalidManifest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photos.toml")
	if err := os.WriteFile(path, []byte("lanes = 3\n[[items]]\nspan = \"1x1\"\nrepeat = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Name != "photos" || m.Count() != 7 {
		t.Errorf("Load() = %q with %d items", m.Name, m.Count())
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
	if _, err := Load(filepath.Join(dir, "grid.yaml")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load(yaml) error = %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, format := range []string{FormatTOML, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			m := Demo()
			data, err := m.Encode(format)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			back, err := Parse(data, format)
			if err != nil {
				t.Fatalf("Parse(Encode()) error = %v\n%s", err, data)
			}
			if back.Hash() != m.Hash() {
				t.Error("round trip changed the manifest hash")
			}
		})
	}
}

func TestToggle(t *testing.T) {
	m := Generate(4, nil)
	before := m.Hash()

	if got := m.Toggle(2); got != (grid.SpanSize{Width: 2, Height: 2}) {
		t.Errorf("Toggle(2) = %v, want 2x2", got)
	}
	if m.Hash() == before {
		t.Error("Hash() unchanged after Toggle")
	}
	if len(m.Entries) != 3 {
		t.Errorf("Entries = %+v, want 3 runs", m.Entries)
	}
	if got := m.Toggle(2); got != grid.Unit {
		t.Errorf("second Toggle(2) = %v, want 1x1", got)
	}
	if m.Hash() != before {
		t.Error("Hash() should return to original after double toggle")
	}
}

func TestGenerate(t *testing.T) {
	m := Generate(5, []grid.SpanSize{grid.Unit, {Width: 2, Height: 1}})
	if m.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", m.Count())
	}
	if m.SpanSize(3) != (grid.SpanSize{Width: 2, Height: 1}) {
		t.Errorf("SpanSize(3) = %v, want 2x1", m.SpanSize(3))
	}
}

func TestDemo(t *testing.T) {
	m := Demo()
	if m.Count() != 100 || m.Lanes != 3 {
		t.Fatalf("Demo() = %d items on %d lanes", m.Count(), m.Lanes)
	}
	if m.SpanSize(1) != (grid.SpanSize{Width: 2, Height: 2}) || m.SpanSize(2) != grid.Unit {
		t.Errorf("Demo spans = %v, %v", m.SpanSize(1), m.SpanSize(2))
	}
}

func TestExampleManifests(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "manifest", "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no example manifests")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			m, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if m.Count() == 0 {
				t.Error("example has no items")
			}
		})
	}
}
