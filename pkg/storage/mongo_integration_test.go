//go:build integration

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/spangrid/pkg/errors"
)

func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("SPANGRID_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SPANGRID_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, uri, "spangrid_test")
	if err != nil {
		t.Fatalf("NewMongoStore() error: %v", err)
	}
	defer s.Close(ctx)

	doc := NewDocument(testLayout(t))
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := s.Load(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Layout.Hash() != doc.Layout.Hash() {
		t.Error("layout changed through mongo round trip")
	}
	if err := s.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Load(ctx, doc.ID); !errors.IsNotFound(err) {
		t.Errorf("Load(deleted) error = %v", err)
	}
}
