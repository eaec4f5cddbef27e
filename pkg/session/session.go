// Package session persists scroll anchors between runs.
//
// An anchor is the saved first-visible index of a layout engine, keyed by
// the manifest it belongs to. Restoring it on the next run puts the viewport
// back where the user left it.
//
// Backends:
//   - file: one JSON file per anchor for the CLI
//   - redis: shared storage for multiple API instances, expiry via key TTL
//
// # Usage
//
//	store, err := session.Open(ctx, session.Config{Backend: session.BackendFile})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	id := session.KeyID(m.Hash())
//	if a, _ := store.Get(ctx, id); a != nil {
//	    eng.Restore(a.Saved())
//	}
//	...
//	if saved, ok := eng.SaveAnchor(); ok {
//	    store.Set(ctx, session.New(id, m.Hash(), saved, session.DefaultTTL))
//	}
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/spangrid/pkg/engine"
	"github.com/matzehuels/spangrid/pkg/errors"
)

// Anchor is a saved scroll position.
type Anchor struct {
	ID                string    `json:"id"`
	Key               string    `json:"key"` // manifest hash the anchor belongs to
	FirstVisibleIndex int       `json:"first_visible_index"`
	UpdatedAt         time.Time `json:"updated_at"`
	ExpiresAt         time.Time `json:"expires_at,omitzero"`
}

// IsExpired reports whether the anchor has an expiry in the past.
func (a *Anchor) IsExpired() bool {
	return !a.ExpiresAt.IsZero() && time.Now().After(a.ExpiresAt)
}

// Saved returns the anchor as engine state.
func (a *Anchor) Saved() engine.SavedState {
	return engine.SavedState{FirstVisibleIndex: a.FirstVisibleIndex}
}

// TTL returns the time left before expiry, or 0 for anchors that never expire.
func (a *Anchor) TTL() time.Duration {
	if a.ExpiresAt.IsZero() {
		return 0
	}
	return max(time.Until(a.ExpiresAt), time.Millisecond)
}

// Store is the interface for anchor storage backends.
type Store interface {
	// Get retrieves an anchor by ID.
	// Returns nil, nil if the anchor doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Anchor, error)

	// Set stores an anchor, replacing any previous one with the same ID.
	Set(ctx context.Context, a *Anchor) error

	// Delete removes an anchor. Deleting a missing anchor is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all live anchors.
	List(ctx context.Context) ([]*Anchor, error)

	// Cleanup removes expired anchors (may be a no-op for Redis).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is how long an untouched anchor is kept.
const DefaultTTL = 30 * 24 * time.Hour

// NewID returns a random anchor ID.
func NewID() string {
	return uuid.NewString()
}

// KeyID returns the stable anchor ID for a manifest hash, so that reopening
// the same manifest finds its anchor.
func KeyID(manifestHash string) string {
	if len(manifestHash) > 16 {
		manifestHash = manifestHash[:16]
	}
	return "m-" + manifestHash
}

// New creates an anchor. ttl <= 0 means no expiry.
func New(id, key string, saved engine.SavedState, ttl time.Duration) *Anchor {
	now := time.Now()
	a := &Anchor{
		ID:                id,
		Key:               key,
		FirstVisibleIndex: saved.FirstVisibleIndex,
		UpdatedAt:         now,
	}
	if ttl > 0 {
		a.ExpiresAt = now.Add(ttl)
	}
	return a
}

// validate checks an anchor before it is stored.
func validate(a *Anchor) error {
	if a == nil {
		return errors.New(errors.ErrCodeInvalidInput, "anchor is nil")
	}
	if err := errors.ValidateAnchorID(a.ID); err != nil {
		return err
	}
	if a.FirstVisibleIndex < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "anchor index must not be negative: %d", a.FirstVisibleIndex)
	}
	return nil
}
