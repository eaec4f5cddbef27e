package storage

import (
	"context"
	"testing"

	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/grid"
	"github.com/matzehuels/spangrid/pkg/layout"
	"github.com/matzehuels/spangrid/pkg/manifest"
)

func testLayout(t *testing.T) *layout.Layout {
	t.Helper()
	l, _, err := layout.Pack(manifest.Generate(5, nil), layout.Params{Orientation: grid.Vertical, Lanes: 2, Width: 200, Height: 200})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	return l
}

func TestNewDocument(t *testing.T) {
	l := testLayout(t)
	a, b := NewDocument(l), NewDocument(l)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("NewDocument() IDs = %q, %q; want distinct", a.ID, b.ID)
	}
	if a.LayoutHash != l.Hash() || a.ManifestHash != l.ManifestHash {
		t.Errorf("NewDocument() hashes = %q, %q", a.LayoutHash, a.ManifestHash)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	doc := NewDocument(testLayout(t))

	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.LayoutHash != doc.LayoutHash {
		t.Error("Load() returned a different document")
	}

	if err := s.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, doc.ID); !errors.IsNotFound(err) {
		t.Errorf("Load(deleted) error = %v, want not found", err)
	}
	if err := s.Save(ctx, &Document{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save(no id) error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestOpenDefaultsToMemory(t *testing.T) {
	s, err := Open(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(\"\") = %T, want *MemoryStore", s)
	}
}
