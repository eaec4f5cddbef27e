// Package storage keeps packed layouts for the HTTP API.
//
// A [Document] wraps a [layout.Layout] with an ID so clients can fetch a
// layout again after creating it. [MemoryStore] serves single-process
// deployments and tests; [MongoStore] persists documents in MongoDB.
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/layout"
)

// Document is a stored layout.
type Document struct {
	ID           string         `json:"id" bson:"_id"`
	ManifestHash string         `json:"manifest_hash" bson:"manifest_hash"`
	LayoutHash   string         `json:"layout_hash" bson:"layout_hash"`
	Layout       *layout.Layout `json:"layout" bson:"layout"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
}

// NewDocument wraps l in a document with a fresh ID.
func NewDocument(l *layout.Layout) *Document {
	return &Document{
		ID:           uuid.NewString(),
		ManifestHash: l.ManifestHash,
		LayoutHash:   l.Hash(),
		Layout:       l,
		CreatedAt:    time.Now().UTC(),
	}
}

// Store persists documents.
type Store interface {
	// Save inserts or replaces a document.
	Save(ctx context.Context, doc *Document) error

	// Load returns a document or a NOT_FOUND error.
	Load(ctx context.Context, id string) (*Document, error)

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "layout not found: %s", id)
}

// =============================================================================
// MemoryStore
// =============================================================================

// MemoryStore keeps documents in a map.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

func (s *MemoryStore) Save(_ context.Context, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "document needs an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, notFound(id)
	}
	return doc, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

var _ Store = (*MemoryStore)(nil)

// Open returns a MongoStore when uri is set and a MemoryStore otherwise.
func Open(ctx context.Context, uri, database string) (Store, error) {
	if uri == "" {
		return NewMemoryStore(), nil
	}
	s, err := NewMongoStore(ctx, uri, database)
	if err != nil {
		return nil, err
	}
	return s, nil
}
