package scraper

import (
	"sync"
	"time"
)

// pageCache keeps fetched pages for a short time so that repeated requests for the
// same course, e.g. from the HTTP service, do not hit the schedule site again.
type pageCache struct {
	mu    sync.Mutex
	pages map[string]cachedPage // url → page
	ttl   time.Duration
	now   func() time.Time
}

type cachedPage struct {
	body      string
	fetchedAt time.Time
}

// newPageCache creates a cache. A ttl of zero or less disables caching.
func newPageCache(ttl time.Duration) *pageCache {
	return &pageCache{
		pages: make(map[string]cachedPage),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns a page if cached and not expired
func (c *pageCache) Get(url string) (string, bool) {
	if c.ttl <= 0 {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	page, ok := c.pages[url]
	if !ok {
		return "", false
	}
	if c.now().Sub(page.fetchedAt) > c.ttl {
		delete(c.pages, url)
		return "", false
	}
	return page.body, true
}

// Set stores a page and drops expired ones
func (c *pageCache) Set(url, body string) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeExpired()
	c.pages[url] = cachedPage{body: body, fetchedAt: c.now()}
}

// CleanExpired removes expired pages and returns how many were removed
func (c *pageCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeExpired()
}

// removeExpired must be called with c.mu held
func (c *pageCache) removeExpired() int {
	removed := 0
	now := c.now()
	for url, page := range c.pages {
		if now.Sub(page.fetchedAt) > c.ttl {
			delete(c.pages, url)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached pages
func (c *pageCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}
