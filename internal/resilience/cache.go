package resilience

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// CacheConfig controls the TTL cache.
type CacheConfig struct {
	// DefaultTTL applies when Set is called with ttl <= 0. Default: 5m.
	DefaultTTL time.Duration

	// Capacity is the hard entry bound; the oldest entry is evicted when
	// exceeded. Default: 1000.
	Capacity int
}

// DefaultCacheConfig returns sensible defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DefaultTTL: 5 * time.Minute,
		Capacity:   1000,
	}
}

type cacheEntry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (e cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// Cache is an in-memory TTL key-value store with a hard capacity bound.
// Expired entries are evicted lazily on read; capacity overflow evicts the
// oldest entry on write. Hit/miss/eviction counts are kept for monitoring.
type Cache struct {
	cfg CacheConfig

	mu      sync.Mutex
	entries map[string]cacheEntry

	hits      int64
	misses    int64
	evictions int64

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewCache creates a TTL cache.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	return &Cache{
		cfg:     cfg,
		entries: make(map[string]cacheEntry),
		nowFunc: time.Now,
	}
}

// Key hashes a canonical serialization of (scope, operation, params) so
// identical requests collapse to one cache slot.
func Key(scope, operation string, params any) string {
	payload, err := json.Marshal(params)
	if err != nil {
		// Fall back to the verbose form; hashing is an optimization only.
		payload = fmt.Appendf(nil, "%+v", params)
	}
	h := sha256.New()
	h.Write([]byte(scope))
	h.Write([]byte{0})
	h.Write([]byte(operation))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached value for key, or ok=false on miss or expiry.
func (c *Cache) Get(key string) (value any, ok bool) {
	now := c.nowFunc()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		c.misses++
		return nil, false
	}
	if entry.expired(now) {
		delete(c.entries, key)
		c.evictions++
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.value, true
}

// Set stores value under key. A ttl <= 0 uses the default. When the
// capacity bound is exceeded the oldest entry is evicted.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	now := c.nowFunc()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cfg.Capacity {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{value: value, storedAt: now, ttl: ttl}
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// CacheStats is a read-only snapshot for monitoring.
type CacheStats struct {
	Size      int     `json:"size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// Stats returns current cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:      len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   rate,
	}
}

// evictOldest removes the entry with the earliest storedAt. Caller must
// hold c.mu.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}
