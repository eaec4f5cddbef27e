//go:build integration

package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/spangrid/pkg/engine"
)

func TestRedisStore_Integration(t *testing.T) {
	url := os.Getenv("SPANGRID_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SPANGRID_TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewRedisStore(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	defer s.Close()
	s.prefix = "spangrid:test:" + NewID() + ":"

	a := New("m-redis", "k", engine.SavedState{FirstVisibleIndex: 7}, time.Minute)
	if err := s.Set(ctx, a); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := s.Get(ctx, "m-redis")
	if err != nil || got == nil || got.FirstVisibleIndex != 7 {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	list, err := s.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("List() = %v, %v", list, err)
	}
	if err := s.Delete(ctx, "m-redis"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if got, _ := s.Get(ctx, "m-redis"); got != nil {
		t.Error("anchor survived Delete")
	}
}
