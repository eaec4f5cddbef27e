package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/spangrid/pkg/engine"
	"github.com/matzehuels/spangrid/pkg/pipeline"
	"github.com/matzehuels/spangrid/pkg/session"
)

// isolate points config discovery at an empty directory.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.Lanes != pipeline.DefaultLanes || cfg.Layout.Width != pipeline.DefaultWidth {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Anchors.Backend != session.BackendFile || cfg.Anchors.TTL != session.DefaultTTL {
		t.Errorf("Anchors = %+v", cfg.Anchors)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestDefaultsIgnoreEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv(EnvPrefix+"_LAYOUT_LANES", "7")
	cfg, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults() error = %v", err)
	}
	if cfg.Layout.Lanes != pipeline.DefaultLanes {
		t.Errorf("Defaults().Layout.Lanes = %d, want %d", cfg.Layout.Lanes, pipeline.DefaultLanes)
	}
	if cfg.Anchors.TTL != session.DefaultTTL || cfg.Server.MongoDatabase != "spangrid" {
		t.Errorf("Defaults() = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults().Validate() = %v, want nil", err)
	}
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	data := `
[layout]
lanes = 4
orientation = "horizontal"

[layout.padding]
top = 12

[anchors]
ttl = "1h"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.Lanes != 4 || cfg.Layout.Orientation != "horizontal" || cfg.Layout.Padding.Top != 12 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Anchors.TTL != time.Hour {
		t.Errorf("Anchors.TTL = %v, want 1h", cfg.Anchors.TTL)
	}
	// Untouched keys keep defaults.
	if cfg.Layout.Height != pipeline.DefaultHeight {
		t.Errorf("Layout.Height = %d, want default", cfg.Layout.Height)
	}
}

func TestLoadDiscoversWorkingDirFile(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("spangrid.toml", []byte("[layout]\nlanes = 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.Lanes != 6 {
		t.Errorf("Layout.Lanes = %d, want 6", cfg.Layout.Lanes)
	}
}

func TestLoadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SPANGRID_LAYOUT_LANES", "5")
	t.Setenv("SPANGRID_SERVER_ADDR", "127.0.0.1:9000")
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.Lanes != 5 || cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("env overrides not applied: lanes=%d addr=%q", cfg.Layout.Lanes, cfg.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		data string
	}{
		{"zero lanes", "[layout]\nlanes = 0\n"},
		{"negative width", "[layout]\nwidth = -1\n"},
		{"unknown backend", "[anchors]\nbackend = \"etcd\"\n"},
		{"redis without url", "[anchors]\nbackend = \"redis\"\n"},
		{"bad toml", "[layout\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(viper.New(), path); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}

	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load(missing explicit path) succeeded, want error")
	}
}

func TestBindFlags(t *testing.T) {
	isolate(t)
	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", ":8080", "")
	fs.Bool("no-cache", false, "")
	if err := fs.Parse([]string{"--addr", ":7070", "--no-cache"}); err != nil {
		t.Fatal(err)
	}
	err := BindFlags(v, fs, map[string]string{
		"addr":     "server.addr",
		"no-cache": "cache.disabled",
		"absent":   "server.mongo_uri",
	})
	if err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" || !cfg.Cache.Disabled {
		t.Errorf("flags not applied: addr=%q disabled=%v", cfg.Server.Addr, cfg.Cache.Disabled)
	}
}

func TestLayoutFill(t *testing.T) {
	l := LayoutConfig{Orientation: "vertical", Lanes: 3, Width: 600, Height: 800, Padding: engine.Insets{Top: 4}}

	o := pipeline.Options{Lanes: 5}
	l.Fill(&o)
	if o.Lanes != 5 || o.Width != 600 || o.Height != 800 || o.Orientation != "vertical" || o.Padding.Top != 4 {
		t.Errorf("Fill() = %+v", o)
	}
}

func TestSampleParses(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := os.WriteFile(path, []byte(Sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load(Sample): %v", err)
	}
	if cfg.Anchors.TTL != session.DefaultTTL {
		t.Errorf("Sample ttl = %v, want %v", cfg.Anchors.TTL, session.DefaultTTL)
	}
}
