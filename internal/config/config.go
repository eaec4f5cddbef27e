// Package config loads spangrid settings from defaults, a TOML config file,
// SPANGRID_* environment variables and command flags, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/spangrid/pkg/engine"
	spanerrors "github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/pipeline"
	"github.com/matzehuels/spangrid/pkg/session"
)

// EnvPrefix prefixes environment overrides: layout.lanes is SPANGRID_LAYOUT_LANES.
const EnvPrefix = "SPANGRID"

// Config is the merged configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Layout  LayoutConfig  `mapstructure:"layout"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Anchors AnchorsConfig `mapstructure:"anchors"`
	Server  ServerConfig  `mapstructure:"server"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LayoutConfig holds strip defaults. Manifests override them and explicit
// command flags override both.
type LayoutConfig struct {
	Orientation string        `mapstructure:"orientation"`
	Lanes       int           `mapstructure:"lanes"`
	Width       int           `mapstructure:"width"`
	Height      int           `mapstructure:"height"`
	Padding     engine.Insets `mapstructure:"padding"`
}

type CacheConfig struct {
	Disabled bool   `mapstructure:"disabled"`
	Dir      string `mapstructure:"dir"`
	RedisURL string `mapstructure:"redis_url"`
}

type AnchorsConfig struct {
	Backend  string        `mapstructure:"backend"`
	Dir      string        `mapstructure:"dir"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Addr          string        `mapstructure:"addr"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MongoURI      string        `mapstructure:"mongo_uri"`
	MongoDatabase string        `mapstructure:"mongo_database"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("layout.orientation", pipeline.DefaultOrientation)
	v.SetDefault("layout.lanes", pipeline.DefaultLanes)
	v.SetDefault("layout.width", pipeline.DefaultWidth)
	v.SetDefault("layout.height", pipeline.DefaultHeight)
	v.SetDefault("layout.padding.left", 0)
	v.SetDefault("layout.padding.top", 0)
	v.SetDefault("layout.padding.right", 0)
	v.SetDefault("layout.padding.bottom", 0)

	v.SetDefault("cache.disabled", false)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("anchors.backend", session.BackendFile)
	v.SetDefault("anchors.dir", "")
	v.SetDefault("anchors.redis_url", "")
	v.SetDefault("anchors.ttl", session.DefaultTTL)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.mongo_uri", "")
	v.SetDefault("server.mongo_database", "spangrid")
}

// Defaults decodes the built-in defaults alone, ignoring files and the
// environment.
func Defaults() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}
	return &cfg, nil
}

// Load reads configuration into v and decodes it. An empty path searches
// ./spangrid.toml and $XDG_CONFIG_HOME/spangrid/spangrid.toml; a missing
// file is not an error unless path was given explicitly.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("spangrid")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if err := spanerrors.ValidateLanes(c.Layout.Lanes); err != nil {
		return err
	}
	if err := spanerrors.ValidateViewport(c.Layout.Width, c.Layout.Height); err != nil {
		return err
	}
	p := c.Layout.Padding
	if err := spanerrors.ValidatePadding(p.Left, p.Top, p.Right, p.Bottom); err != nil {
		return err
	}
	switch c.Anchors.Backend {
	case session.BackendFile, session.BackendRedis:
	default:
		return spanerrors.New(spanerrors.ErrCodeInvalidInput, "unknown anchors.backend: %q (use file or redis)", c.Anchors.Backend)
	}
	if c.Anchors.Backend == session.BackendRedis && c.Anchors.RedisURL == "" {
		return spanerrors.New(spanerrors.ErrCodeInvalidInput, "anchors.redis_url is required for the redis backend")
	}
	if c.Server.Timeout < 0 {
		return spanerrors.New(spanerrors.ErrCodeInvalidInput, "server.timeout must not be negative")
	}
	return nil
}

// BindFlags binds command flags to config keys. Flags missing from fs are
// skipped, so one mapping can serve several commands.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Fill sets unset strip options from the layout defaults.
func (l LayoutConfig) Fill(o *pipeline.Options) {
	if o.Orientation == "" {
		o.Orientation = l.Orientation
	}
	if o.Lanes == 0 {
		o.Lanes = l.Lanes
	}
	if o.Width == 0 {
		o.Width = l.Width
	}
	if o.Height == 0 {
		o.Height = l.Height
	}
	if o.Padding == (engine.Insets{}) {
		o.Padding = l.Padding
	}
}

// Session returns the anchor store configuration.
func (a AnchorsConfig) Session() session.Config {
	return session.Config{Backend: a.Backend, Dir: a.Dir, RedisURL: a.RedisURL}
}

// Dir returns the config directory, $XDG_CONFIG_HOME/spangrid or
// ~/.config/spangrid.
func Dir() (string, error) {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "spangrid"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "spangrid"), nil
}

// Sample is a commented config file with the default values.
const Sample = `# spangrid configuration

[log]
level = "info"

[layout]
orientation = "vertical"
lanes = 3
width = 600
height = 800

[layout.padding]
left = 0
top = 0
right = 0
bottom = 0

[cache]
disabled = false
# dir = "~/.cache/spangrid"
# redis_url = "redis://localhost:6379/0"

[anchors]
backend = "file"   # file or redis
# dir = "~/.config/spangrid/anchors"
# redis_url = "redis://localhost:6379/0"
ttl = "720h"

[server]
addr = ":8080"
timeout = "30s"
# mongo_uri = "mongodb://localhost:27017"
mongo_database = "spangrid"
`
