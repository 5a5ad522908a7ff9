package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// responseCache is a TTL cache for completed prompts. Identical prompts
// within the window reuse the earlier answer instead of burning quota.
type responseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func (c *responseCache) get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return Result{}, false
	}
	return entry.result, true
}

func (c *responseCache) set(key string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Lazy eviction keeps the map from growing without bound.
	if len(c.entries) > 512 {
		now := c.now()
		for k, e := range c.entries {
			if now.After(e.expires) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = cacheEntry{result: result, expires: c.now().Add(c.ttl)}
}
