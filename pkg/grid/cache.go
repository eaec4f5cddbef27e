package grid

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// PlacementCache maps item index to its [Placement] in insertion order.
//
// Entries are written the first time an item is packed and reused whenever
// the item is realized again. They are only dropped by [PlacementCache.Clear]
// on a full rebuild.
type PlacementCache struct {
	m *linkedhashmap.Map
}

// NewPlacementCache returns an empty cache.
func NewPlacementCache() *PlacementCache {
	return &PlacementCache{m: linkedhashmap.New()}
}

// Get returns the placement for index.
func (c *PlacementCache) Get(index int) (Placement, bool) {
	v, ok := c.m.Get(index)
	if !ok {
		return Placement{}, false
	}
	return v.(Placement), true
}

// Has reports whether index has been placed.
func (c *PlacementCache) Has(index int) bool {
	_, ok := c.m.Get(index)
	return ok
}

// Put stores p for index. Overwriting keeps the original insertion position.
func (c *PlacementCache) Put(index int, p Placement) {
	c.m.Put(index, p)
}

// Len returns the number of cached placements.
func (c *PlacementCache) Len() int { return c.m.Size() }

// Indices returns cached indices in insertion order.
func (c *PlacementCache) Indices() []int {
	keys := c.m.Keys()
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = k.(int)
	}
	return out
}

// Each calls fn for every entry in insertion order until fn returns false.
func (c *PlacementCache) Each(fn func(index int, p Placement) bool) {
	it := c.m.Iterator()
	for it.Next() {
		if !fn(it.Key().(int), it.Value().(Placement)) {
			return
		}
	}
}

// Clear drops every entry.
func (c *PlacementCache) Clear() { c.m.Clear() }
