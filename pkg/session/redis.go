package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	spanerrors "github.com/matzehuels/spangrid/pkg/errors"
)

// DefaultRedisPrefix namespaces anchor keys.
const DefaultRedisPrefix = "spangrid:anchor:"

// RedisStore keeps anchors in Redis. Expiry is delegated to key TTLs, so
// Cleanup is a no-op.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore connects to the Redis URL (redis://host:port/db) and pings it.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisStoreWithClient(client, DefaultRedisPrefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Get(ctx context.Context, id string) (*Anchor, error) {
	if err := spanerrors.ValidateAnchorID(id); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get anchor: %w", err)
	}
	var a Anchor
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse anchor: %w", err)
	}
	if a.IsExpired() {
		return nil, nil
	}
	return &a, nil
}

func (s *RedisStore) Set(ctx context.Context, a *Anchor) error {
	if err := validate(a); err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal anchor: %w", err)
	}
	if err := s.client.Set(ctx, s.key(a.ID), data, a.TTL()).Err(); err != nil {
		return fmt.Errorf("set anchor: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := spanerrors.ValidateAnchorID(id); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete anchor: %w", err)
	}
	return nil
}

// List scans the key prefix. Anchors deleted between scan and read are skipped.
func (s *RedisStore) List(ctx context.Context) ([]*Anchor, error) {
	var out []*Anchor
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		a, err := s.Get(ctx, iter.Val()[len(s.prefix):])
		if err != nil {
			return nil, err
		}
		if a != nil {
			out = append(out, a)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan anchors: %w", err)
	}
	return out, nil
}

func (s *RedisStore) Cleanup(context.Context) error { return nil }

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
