// Package bindcache caches values derived from assets, such as bind groups
// or descriptor sets, keyed by asset id and payload version.
//
// A renderer builds a binding from an asset's payload once and reuses it
// until the asset's version changes or the asset is marked dirty. When a newer version is stored, or the
// asset disappears and Prune drops the entry, the stale value is passed to
// the OnEvict callback so the caller can destroy the GPU object.
//
// Example:
//
//	groups := bindcache.New(func(id assets.HandleID, bg hal.BindGroup) {
//	    device.DestroyBindGroup(bg)
//	})
//	version, _ := assets.GetVersion(table, tex)
//	dirty := table.NeedsRebuild(tex.ID())
//	bg, err := groups.GetOrRebuild(tex.ID(), version, dirty, func() (hal.BindGroup, error) {
//	    return buildBindGroup(tex)
//	})
//	if err == nil && dirty {
//	    table.ClearRebuild(tex.ID())
//	}
//	...
//	groups.Prune(table.Contains) // once per frame, after table.Sync
package bindcache

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/assets"
)

// Default configuration constants.
const (
	// ShardCount is the number of shards for reduced lock contention.
	// Must be a power of 2 for fast modulo via bitwise AND.
	ShardCount = 16

	// shardMask is used for fast shard selection (ShardCount - 1).
	shardMask = ShardCount - 1
)

// EvictFunc receives values that were replaced or removed.
type EvictFunc[V any] func(id assets.HandleID, value V)

// entry holds a cached value with the asset version it was built from.
type entry[V any] struct {
	version uint32
	value   V
}

// shard is a single shard of the cache.
type shard[V any] struct {
	mu      sync.RWMutex
	entries map[assets.HandleID]entry[V]
}

// Cache is a thread-safe, sharded, version-aware cache.
type Cache[V any] struct {
	shards  [ShardCount]*shard[V]
	onEvict EvictFunc[V]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates an empty cache. onEvict may be nil.
func New[V any](onEvict EvictFunc[V]) *Cache[V] {
	c := &Cache[V]{onEvict: onEvict}
	for i := range c.shards {
		c.shards[i] = &shard[V]{entries: make(map[assets.HandleID]entry[V])}
	}
	return c
}

// getShard returns the shard for a given id.
// Ids are sequential, so the identity hash spreads them evenly.
func (c *Cache[V]) getShard(id assets.HandleID) *shard[V] {
	return c.shards[uint64(id)&shardMask]
}

// Get returns the value built for exactly this version of the asset.
// An entry for another version is a miss. Get does not see dirty marks;
// use GetOrRebuild for assets that can need a rebuild at the same version.
func (c *Cache[V]) Get(id assets.HandleID, version uint32) (V, bool) {
	s := c.getShard(id)
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || e.version != version {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores value for (id, version). A previous value for the id is
// evicted, whatever its version.
func (c *Cache[V]) Set(id assets.HandleID, version uint32, value V) {
	s := c.getShard(id)

	s.mu.Lock()
	old, had := s.entries[id]
	s.entries[id] = entry[V]{version: version, value: value}
	s.mu.Unlock()

	if had {
		c.evict(id, old.value)
	}
}

// GetOrCreate returns the cached value for (id, version) or builds it.
// A create error is returned as-is and nothing is stored.
//
// create runs without the shard lock held, so two goroutines may build the
// same binding concurrently; the loser's value is evicted.
func (c *Cache[V]) GetOrCreate(id assets.HandleID, version uint32, create func() (V, error)) (V, error) {
	if v, ok := c.Get(id, version); ok {
		return v, nil
	}

	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}

	s := c.getShard(id)
	s.mu.Lock()
	if e, ok := s.entries[id]; ok && e.version == version {
		s.mu.Unlock()
		c.evict(id, value)
		return e.value, nil
	}
	old, had := s.entries[id]
	s.entries[id] = entry[V]{version: version, value: value}
	s.mu.Unlock()

	if had {
		c.evict(id, old.value)
	}
	return value, nil
}

// GetOrRebuild is GetOrCreate for assets that can be marked dirty without a
// version change. When stale is true the cached value is evicted and
// rebuilt even if its version matches. Pass Table.NeedsRebuild(id) as stale
// and call Table.ClearRebuild(id) once the rebuilt value is in use.
func (c *Cache[V]) GetOrRebuild(id assets.HandleID, version uint32, stale bool, create func() (V, error)) (V, error) {
	if !stale {
		return c.GetOrCreate(id, version, create)
	}
	c.misses.Add(1)
	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(id, version, value)
	return value, nil
}

// Delete removes the entry for id, evicting its value.
// Returns true if the entry was found and removed.
func (c *Cache[V]) Delete(id assets.HandleID) bool {
	s := c.getShard(id)
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()

	if ok {
		c.evict(id, e.value)
	}
	return ok
}

// Prune evicts every entry whose id alive reports false and returns the
// number of entries removed. Call it after Table.Sync with Table.Contains
// to drop bindings of collected assets.
func (c *Cache[V]) Prune(alive func(assets.HandleID) bool) int {
	type victim struct {
		id    assets.HandleID
		value V
	}
	var victims []victim

	for _, s := range c.shards {
		s.mu.Lock()
		for id, e := range s.entries {
			if !alive(id) {
				victims = append(victims, victim{id, e.value})
				delete(s.entries, id)
			}
		}
		s.mu.Unlock()
	}

	for _, v := range victims {
		c.evict(v.id, v.value)
	}
	return len(victims)
}

// Clear evicts all entries.
func (c *Cache[V]) Clear() {
	c.Prune(func(assets.HandleID) bool { return false })
}

// Len returns the total number of entries across all shards.
func (c *Cache[V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Stats holds cache statistics.
type Stats struct {
	Len       int
	Hits      uint64
	Misses    uint64
	HitRate   float64
	Evictions uint64
}

// Stats returns current cache statistics.
func (c *Cache[V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Len:       c.Len(),
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate,
		Evictions: c.evictions.Load(),
	}
}

func (c *Cache[V]) evict(id assets.HandleID, value V) {
	c.evictions.Add(1)
	if c.onEvict != nil {
		c.onEvict(id, value)
	}
}
