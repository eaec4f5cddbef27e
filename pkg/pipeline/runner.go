package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spangrid/pkg/cache"
	"github.com/matzehuels/spangrid/pkg/layout"
	"github.com/matzehuels/spangrid/pkg/manifest"
	"github.com/matzehuels/spangrid/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, cache.Nop is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.Nop()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute packs and renders m with caching.
func (r *Runner) Execute(ctx context.Context, m *manifest.Manifest, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Prepare(m); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Pack
	packStart := time.Now()
	l, layoutHit, err := r.PackWithCacheInfo(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	result.Layout = l
	result.LayoutHash = l.Hash()
	result.Stats.ItemCount = len(l.Items)
	result.Stats.PackTime = time.Since(packStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("packed layout",
		"items", len(l.Items),
		"extent", l.Extent,
		"cached", layoutHit,
		"duration", result.Stats.PackTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// PackWithCacheInfo packs m with caching and reports whether it was a hit.
func (r *Runner) PackWithCacheInfo(ctx context.Context, m *manifest.Manifest, opts Options) (*layout.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.Prepare(m); err != nil {
		return nil, false, err
	}
	key := r.Keyer.LayoutKey(m.Hash(), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if l, err := layout.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return l, true, nil
			}
			// Undecodable entries fall through to a recompute.
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	l, _, err := Pack(m, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := layout.Marshal(l); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.LayoutTTL); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return l, false, nil
}

// Pack is a convenience wrapper that calls PackWithCacheInfo and discards the cache hit info.
func (r *Runner) Pack(ctx context.Context, m *manifest.Manifest, opts Options) (*layout.Layout, error) {
	l, _, err := r.PackWithCacheInfo(ctx, m, opts)
	return l, err
}

// RenderWithCacheInfo renders l with caching and reports whether every
// artifact was a hit.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if len(opts.Formats) == 0 {
		opts.Formats = []string{FormatSVG}
	}
	if opts.Scale == 0 {
		opts.Scale = DefaultScale
	}
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	layoutHash := l.Hash()

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := Render(l, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// SimulateWithCacheInfo runs a scroll script with caching and reports
// whether the trace was a hit.
func (r *Runner) SimulateWithCacheInfo(ctx context.Context, m *manifest.Manifest, opts Options, steps []Step) (*Trace, bool, error) {
	r.applyLogger(&opts)
	if err := opts.Prepare(m); err != nil {
		return nil, false, err
	}
	key := r.Keyer.TraceKey(m.Hash(), opts.TraceKeyOpts(steps))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var tr Trace
			if err := json.Unmarshal(data, &tr); err == nil {
				observability.Cache().OnCacheHit(ctx, "trace")
				return &tr, true, nil
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "trace")

	tr, err := Simulate(m, opts, steps)
	if err != nil {
		return nil, false, err
	}
	if data, err := json.Marshal(tr); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TraceTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "trace", len(data))
		}
	}
	return tr, false, nil
}

// Simulate is a convenience wrapper that calls SimulateWithCacheInfo and discards the cache hit info.
func (r *Runner) Simulate(ctx context.Context, m *manifest.Manifest, opts Options, steps []Step) (*Trace, error) {
	tr, _, err := r.SimulateWithCacheInfo(ctx, m, opts, steps)
	return tr, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
