package images

import (
	"sync"
	"time"
)

// FailedURLCache remembers image URLs that recently failed validation or
// download so repeated pipeline runs do not retry them inside the TTL.
// It is injected, bounded and sweepable so tests can construct one and
// assert against it directly.
type FailedURLCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]time.Time
	now        func() time.Time
}

// NewFailedURLCache builds a cache with the given TTL and size bound.
func NewFailedURLCache(ttl time.Duration, maxEntries int) *FailedURLCache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &FailedURLCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]time.Time),
		now:        time.Now,
	}
}

// MarkFailed records a failure timestamp, sweeping expired entries first
// when the cache is at capacity.
func (c *FailedURLCache) MarkFailed(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.sweepLocked()
	}
	if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[url] = c.now()
}

// IsFailed reports whether the URL failed within the TTL. Expired entries
// are removed on read.
func (c *FailedURLCache) IsFailed(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.entries[url]
	if !ok {
		return false
	}
	if c.now().Sub(at) > c.ttl {
		delete(c.entries, url)
		return false
	}
	return true
}

// Len reports the current entry count.
func (c *FailedURLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *FailedURLCache) sweepLocked() {
	cutoff := c.now().Add(-c.ttl)
	for url, at := range c.entries {
		if at.Before(cutoff) {
			delete(c.entries, url)
		}
	}
}

func (c *FailedURLCache) evictOldestLocked() {
	var (
		oldestURL string
		oldestAt  time.Time
	)
	for url, at := range c.entries {
		if oldestURL == "" || at.Before(oldestAt) {
			oldestURL, oldestAt = url, at
		}
	}
	if oldestURL != "" {
		delete(c.entries, oldestURL)
	}
}
