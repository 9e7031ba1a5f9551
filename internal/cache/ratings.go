package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type entry struct {
	Rating    float64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// RatingCache memoizes scoring-provider results. Rating calls run with
// temperature pinned to zero, so an identical shaped corpus is expected to
// produce the same rating; caching saves repeated provider spend.
type RatingCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
}

func NewRatingCache(config Config) *RatingCache {
	if config.TTL <= 0 {
		config.TTL = 15 * time.Minute
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 2000
	}
	return &RatingCache{
		entries:    make(map[string]entry),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
	}
}

// Signature builds the cache key from the model id and the shaped snippets.
// Snippets are joined with a NUL separator so that boundaries cannot collide.
func (c *RatingCache) Signature(model string, snippets []string) string {
	hasher := sha256.New()
	hasher.Write([]byte(model))
	for _, snippet := range snippets {
		hasher.Write([]byte{0})
		hasher.Write([]byte(snippet))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func (c *RatingCache) Get(signature string) (float64, bool) {
	c.mu.RLock()
	item, exists := c.entries[signature]
	c.mu.RUnlock()

	if !exists {
		return 0, false
	}
	if time.Now().UTC().After(item.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, signature)
		c.mu.Unlock()
		return 0, false
	}
	return item.Rating, true
}

func (c *RatingCache) Set(signature string, rating float64) {
	now := time.Now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[signature] = entry{
		Rating:    rating,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
}

func (c *RatingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *RatingCache) evictOldestLocked() {
	var (
		oldestKey  string
		oldestTime time.Time
		first      = true
	)
	for key, item := range c.entries {
		if first || item.CreatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.CreatedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
