package geodist

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/munigraph-cli/internal/model"
)

// Cache memoizes Miles on the unordered pair of municipality codes. The
// builders query the same pair from both sides, so one computation serves
// both directions and repeated lookups return bit-identical results.
//
// The entity set is static, so there is no eviction policy: when maxEntries
// is reached the cache resets wholesale. A bound of 0 disables caching.
type Cache struct {
	mu         sync.Mutex
	entries    map[pairKey]float64
	maxEntries int

	hits   int64
	misses int64
}

type pairKey struct {
	lo, hi string
}

// DefaultCacheSize bounds the pair cache at roughly the n² worst case for a
// few thousand municipalities.
const DefaultCacheSize = 4 << 20

// NewCache returns a Cache bounded at maxEntries pairs. maxEntries <= 0
// disables memoization entirely; every call recomputes.
func NewCache(maxEntries int) *Cache {
	c := &Cache{maxEntries: maxEntries}
	if maxEntries > 0 {
		c.entries = make(map[pairKey]float64)
	}
	return c
}

// Between returns the distance in miles between two municipalities,
// memoized on the unordered code pair.
func (c *Cache) Between(a, b *model.Municipality) float64 {
	if c == nil || c.maxEntries <= 0 {
		return Miles(a.Lat, a.Lon, b.Lat, b.Lon)
	}

	key := pairKey{a.Code, b.Code}
	if key.lo > key.hi {
		key.lo, key.hi = key.hi, key.lo
	}

	c.mu.Lock()
	if d, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return d
	}
	c.misses++
	c.mu.Unlock()

	d := Miles(a.Lat, a.Lon, b.Lat, b.Lon)

	c.mu.Lock()
	if len(c.entries) >= c.maxEntries {
		zap.L().Debug("geodist: pair cache full, resetting",
			zap.Int("max_entries", c.maxEntries))
		c.entries = make(map[pairKey]float64)
	}
	c.entries[key] = d
	c.mu.Unlock()

	return d
}

// Enabled reports whether memoization is active.
func (c *Cache) Enabled() bool {
	return c != nil && c.maxEntries > 0
}

// Len reports the number of cached pairs.
func (c *Cache) Len() int {
	if c == nil || c.maxEntries <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
