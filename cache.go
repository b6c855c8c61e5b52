package main

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedPage stores one rendered form page with its render timestamp.
type CachedPage struct {
	Body      []byte
	Timestamp time.Time
}

// PageCache caches rendered form pages keyed by settings revision, so the
// template is not re-executed on every visit. An admin save bumps the
// revision, which makes the stale entry unreachable; Invalidate additionally
// drops everything.
type PageCache struct {
	pages *lru.Cache[uint64, CachedPage]
	ttl   time.Duration
	mu    sync.RWMutex
}

// NewPageCache creates a new page cache with the specified size and TTL.
func NewPageCache(size int, ttl time.Duration) (*PageCache, error) {
	pages, err := lru.New[uint64, CachedPage](size)
	if err != nil {
		return nil, err
	}
	return &PageCache{pages: pages, ttl: ttl}, nil
}

// Get retrieves the cached page for a settings revision.
func (c *PageCache) Get(revision uint64) ([]byte, bool) {
	c.mu.RLock()
	cached, ok := c.pages.Get(revision)
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Since(cached.Timestamp) > c.ttl {
		c.mu.Lock()
		c.pages.Remove(revision)
		c.mu.Unlock()
		return nil, false
	}

	return cached.Body, true
}

// Set stores a rendered page for a settings revision.
func (c *PageCache) Set(revision uint64, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pages.Add(revision, CachedPage{
		Body:      body,
		Timestamp: time.Now(),
	})
}

// Invalidate removes all entries from the cache.
func (c *PageCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pages.Purge()
}
