package session

import (
	"context"

	"github.com/matzehuels/spangrid/pkg/errors"
)

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend  string `mapstructure:"backend"`
	Dir      string `mapstructure:"dir"`       // file backend; empty for the default
	RedisURL string `mapstructure:"redis_url"` // redis backend
}

// Open returns the configured store. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "redis anchor store needs a redis_url")
		}
		s, err := NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown anchor backend: %q (use file or redis)", cfg.Backend)
}
