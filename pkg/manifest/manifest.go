// Package manifest loads item lists for the layout engine from TOML or JSON.
//
// A manifest describes the strip (orientation, lanes, viewport) and the items
// in index order. Runs of identical items are written once with a repeat
// count:
//
//	name = "gallery"
//	orientation = "vertical"
//	lanes = 3
//
//	[viewport]
//	width = 1080
//	height = 1920
//
//	[[items]]
//	span = "2x2"
//	label = "hero"
//
//	[[items]]
//	span = "1x1"
//	repeat = 40
//
// A loaded [Manifest] implements engine.SpanSource.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/spangrid/pkg/cache"
	"github.com/matzehuels/spangrid/pkg/engine"
	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/grid"
)

// Supported encodings.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

// MaxItems bounds the expanded item count of untrusted manifests.
const MaxItems = 1_000_000

// Manifest is a parsed item list.
type Manifest struct {
	Name        string           `toml:"name,omitempty" json:"name,omitempty"`
	Orientation grid.Orientation `toml:"orientation" json:"orientation"`
	Lanes       int              `toml:"lanes,omitempty" json:"lanes,omitempty"`
	StableOrder bool             `toml:"stable_order,omitempty" json:"stable_order,omitempty"`
	Viewport    Viewport         `toml:"viewport,omitempty" json:"viewport,omitzero"`
	Entries     []Entry          `toml:"items" json:"items"`

	items []Item
}

// Viewport is the preferred viewport for the manifest. Zero values defer to
// command-line or config defaults.
type Viewport struct {
	Width   int           `toml:"width,omitempty" json:"width,omitempty"`
	Height  int           `toml:"height,omitempty" json:"height,omitempty"`
	Padding engine.Insets `toml:"padding,omitempty" json:"padding,omitzero"`
}

// Entry is one run of identical items.
type Entry struct {
	Span   string `toml:"span" json:"span"`
	Label  string `toml:"label,omitempty" json:"label,omitempty"`
	Color  string `toml:"color,omitempty" json:"color,omitempty"`
	Repeat int    `toml:"repeat,omitempty" json:"repeat,omitempty"`
}

// Item is one expanded item.
type Item struct {
	Index int           `json:"index"`
	Span  grid.SpanSize `json:"span"`
	Label string        `json:"label,omitempty"`
	Color string        `json:"color,omitempty"`
}

// =============================================================================
// Loading
// =============================================================================

// Load reads a manifest file. The format is taken from the extension.
func Load(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "manifest not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// FormatFromPath maps a file extension to a format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported manifest extension: %q (use .toml or .json)", filepath.Ext(path))
}

// Parse decodes and validates a manifest.
func Parse(data []byte, format string) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode toml manifest")
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode json manifest")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported manifest format: %q", format)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode writes the manifest in the given format.
func (m *Manifest) Encode(format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, err
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported manifest format: %q", format)
	}
	return buf.Bytes(), nil
}

// Validate checks lanes and spans and expands entries.
// Lanes may be zero, meaning a default is applied later.
func (m *Manifest) Validate() error {
	if m.Lanes != 0 {
		if err := errors.ValidateLanes(m.Lanes); err != nil {
			return err
		}
	}
	if err := errors.ValidateViewport(m.Viewport.Width, m.Viewport.Height); err != nil {
		return err
	}
	p := m.Viewport.Padding
	if err := errors.ValidatePadding(p.Left, p.Top, p.Right, p.Bottom); err != nil {
		return err
	}

	items := make([]Item, 0, len(m.Entries))
	for i, e := range m.Entries {
		span, err := grid.ParseSpanSize(e.Span)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "item entry %d", i)
		}
		if m.Lanes != 0 {
			if err := errors.ValidateSpan(span.Cross(m.Orientation), span.Main(m.Orientation), m.Lanes); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidManifest, err, "item entry %d", i)
			}
		}
		n := max(e.Repeat, 1)
		if len(items)+n > MaxItems {
			return errors.New(errors.ErrCodeInvalidManifest, "manifest expands to more than %d items", MaxItems)
		}
		for range n {
			items = append(items, Item{Index: len(items), Span: span, Label: e.Label, Color: e.Color})
		}
	}
	m.items = items
	return nil
}

// =============================================================================
// SpanSource
// =============================================================================

// Count returns the number of expanded items.
func (m *Manifest) Count() int { return len(m.items) }

// SpanSize returns the span of item index.
func (m *Manifest) SpanSize(index int) grid.SpanSize { return m.items[index].Span }

// Item returns expanded item index.
func (m *Manifest) Item(index int) Item { return m.items[index] }

// Items returns a copy of the expanded items.
func (m *Manifest) Items() []Item { return append([]Item(nil), m.items...) }

// Labels returns item labels by index, empty where unset.
func (m *Manifest) Labels() []string {
	out := make([]string, len(m.items))
	for i, it := range m.items {
		out[i] = it.Label
	}
	return out
}

// Toggle flips item index between 1x1 and 2x2 and reports the new span.
// Entries are rewritten so the change survives Encode.
func (m *Manifest) Toggle(index int) grid.SpanSize {
	span := grid.SpanSize{Width: 2, Height: 2}
	if m.items[index].Span == span {
		span = grid.Unit
	}
	m.items[index].Span = span
	m.compact()
	return span
}

// compact rebuilds Entries from the expanded items, merging equal neighbors.
func (m *Manifest) compact() {
	var entries []Entry
	for _, it := range m.items {
		e := Entry{Span: it.Span.String(), Label: it.Label, Color: it.Color, Repeat: 1}
		if n := len(entries); n > 0 {
			last := &entries[n-1]
			if last.Span == e.Span && last.Label == e.Label && last.Color == e.Color {
				last.Repeat++
				continue
			}
		}
		entries = append(entries, e)
	}
	for i := range entries {
		if entries[i].Repeat == 1 {
			entries[i].Repeat = 0
		}
	}
	m.Entries = entries
}

// Hash identifies the expanded item list and strip settings.
func (m *Manifest) Hash() string {
	data, _ := json.Marshal(struct {
		Orientation grid.Orientation `json:"o"`
		Lanes       int              `json:"l"`
		Items       []Item           `json:"i"`
	}{m.Orientation, m.Lanes, m.items})
	return cache.Hash(data)
}

// =============================================================================
// Generated manifests
// =============================================================================

// Generate returns count items cycling through patterns.
func Generate(count int, patterns []grid.SpanSize) *Manifest {
	if len(patterns) == 0 {
		patterns = []grid.SpanSize{grid.Unit}
	}
	m := &Manifest{Name: "generated", Lanes: 0}
	for i := range count {
		span := patterns[i%len(patterns)]
		m.items = append(m.items, Item{Index: i, Span: span})
	}
	m.compact()
	return m
}

// Demo returns the showcase data set: 100 labeled items on 3 lanes where
// items 1 and 5 of every run of seven are 2x2.
func Demo() *Manifest {
	m := &Manifest{Name: "demo", Lanes: 3, StableOrder: true}
	for i := range 100 {
		span := grid.Unit
		if i%7 == 1 || i%7 == 5 {
			span = grid.SpanSize{Width: 2, Height: 2}
		}
		m.items = append(m.items, Item{Index: i, Span: span, Label: fmt.Sprint(i)})
	}
	m.compact()
	return m
}
