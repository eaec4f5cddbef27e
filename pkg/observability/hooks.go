// Package observability lets the binaries watch the layout engine and the
// pipeline cache without those packages importing a backend.
//
// The engine and runner report through [Layout] and [Cache]. Both return
// no-op hooks until main registers something else:
//
//	counters := observability.NewCounters()
//	observability.SetLayoutHooks(observability.TeeLayout(counters, observability.NewLogHooks(logger)))
//	observability.SetCacheHooks(counters)
//
// Engine calls are synchronous, so hooks must return quickly.
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the virtualized layout engine.
type LayoutHooks interface {
	// OnRebuild records a full layout pass.
	OnRebuild(items, realized int, duration time.Duration, err error)

	// OnRealize records an item being acquired and bound.
	OnRealize(index int)

	// OnRecycle records an item being released after leaving the viewport.
	OnRecycle(index int)

	// OnScroll records a scroll request and the delta actually consumed.
	OnScroll(requested, consumed int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnRebuild(int, int, time.Duration, error) {}
func (NoopLayoutHooks) OnRealize(int)                            {}
func (NoopLayoutHooks) OnRecycle(int)                            {}
func (NoopLayoutHooks) OnScroll(int, int)                        {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Log Implementations
// =============================================================================

// LogHooks writes every event to a logger at debug level.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log through logger, or log.Default() if nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{Logger: logger}
}

func (h *LogHooks) OnRebuild(items, realized int, d time.Duration, err error) {
	h.Logger.Debug("layout rebuilt", "items", items, "realized", realized, "duration", d, "err", err)
}

func (h *LogHooks) OnRealize(index int) { h.Logger.Debug("realize", "index", index) }
func (h *LogHooks) OnRecycle(index int) { h.Logger.Debug("recycle", "index", index) }

func (h *LogHooks) OnScroll(requested, consumed int) {
	h.Logger.Debug("scroll", "requested", requested, "consumed", consumed)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

// =============================================================================
// Counters
// =============================================================================

// Counters tallies layout and cache events with atomics. It is safe for
// concurrent engines, which the API server runs one per request.
type Counters struct {
	rebuilds, rebuildErrors atomic.Int64
	realized, recycled      atomic.Int64
	scrolled                atomic.Int64
	hits, misses, setBytes  atomic.Int64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters { return &Counters{} }

func (c *Counters) OnRebuild(_, _ int, _ time.Duration, err error) {
	c.rebuilds.Add(1)
	if err != nil {
		c.rebuildErrors.Add(1)
	}
}

func (c *Counters) OnRealize(int) { c.realized.Add(1) }
func (c *Counters) OnRecycle(int) { c.recycled.Add(1) }

func (c *Counters) OnScroll(_, consumed int) {
	if consumed < 0 {
		consumed = -consumed
	}
	c.scrolled.Add(int64(consumed))
}

func (c *Counters) OnCacheHit(context.Context, string)  { c.hits.Add(1) }
func (c *Counters) OnCacheMiss(context.Context, string) { c.misses.Add(1) }

func (c *Counters) OnCacheSet(_ context.Context, _ string, size int) {
	c.setBytes.Add(int64(size))
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Rebuilds      int64 `json:"rebuilds"`
	RebuildErrors int64 `json:"rebuild_errors"`
	Realized      int64 `json:"realized"`
	Recycled      int64 `json:"recycled"`
	ScrolledPx    int64 `json:"scrolled_px"`
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	CacheSetBytes int64 `json:"cache_set_bytes"`
}

// Snapshot reads every counter. Fields are read one at a time, so a snapshot
// taken under load may mix adjacent events.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Rebuilds:      c.rebuilds.Load(),
		RebuildErrors: c.rebuildErrors.Load(),
		Realized:      c.realized.Load(),
		Recycled:      c.recycled.Load(),
		ScrolledPx:    c.scrolled.Load(),
		CacheHits:     c.hits.Load(),
		CacheMisses:   c.misses.Load(),
		CacheSetBytes: c.setBytes.Load(),
	}
}

// =============================================================================
// Fan-out
// =============================================================================

type layoutTee []LayoutHooks

// TeeLayout forwards every layout event to each of hooks in order.
func TeeLayout(hooks ...LayoutHooks) LayoutHooks { return layoutTee(hooks) }

func (t layoutTee) OnRebuild(items, realized int, d time.Duration, err error) {
	for _, h := range t {
		h.OnRebuild(items, realized, d, err)
	}
}

func (t layoutTee) OnRealize(index int) {
	for _, h := range t {
		h.OnRealize(index)
	}
}

func (t layoutTee) OnRecycle(index int) {
	for _, h := range t {
		h.OnRecycle(index)
	}
}

func (t layoutTee) OnScroll(requested, consumed int) {
	for _, h := range t {
		h.OnScroll(requested, consumed)
	}
}

type cacheTee []CacheHooks

// TeeCache forwards every cache event to each of hooks in order.
func TeeCache(hooks ...CacheHooks) CacheHooks { return cacheTee(hooks) }

func (t cacheTee) OnCacheHit(ctx context.Context, keyType string) {
	for _, h := range t {
		h.OnCacheHit(ctx, keyType)
	}
}

func (t cacheTee) OnCacheMiss(ctx context.Context, keyType string) {
	for _, h := range t {
		h.OnCacheMiss(ctx, keyType)
	}
}

func (t cacheTee) OnCacheSet(ctx context.Context, keyType string, size int) {
	for _, h := range t {
		h.OnCacheSet(ctx, keyType, size)
	}
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks replaces the layout hooks. A nil h is ignored.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetCacheHooks replaces the cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	cacheHooks = NoopCacheHooks{}
}

var (
	_ LayoutHooks = (*Counters)(nil)
	_ CacheHooks  = (*Counters)(nil)
	_ LayoutHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
)
