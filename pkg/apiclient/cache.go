package apiclient

import (
	"encoding/json"
	"time"
)

// CacheEntry is the last fresh response seen for a GET URL.
type CacheEntry struct {
	ETag string
	// Body is the response with any {"data": ...} envelope removed.
	Body     json.RawMessage
	StoredAt time.Time
}

// CacheEntry returns the cached response for the full request URL.
func (c *Client) CacheEntry(url string) (CacheEntry, bool) {
	return c.cache.Peek(url)
}

// CacheLen returns the number of cached URLs.
func (c *Client) CacheLen() int {
	return c.cache.Len()
}

// PurgeCache drops every cached response. Call it when the identity the
// responses were fetched for goes away. Responses to requests started before
// the purge are not cached when they arrive.
func (c *Client) PurgeCache() {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.generation++
	c.cache.Clear()
}

// cacheGeneration identifies the cache contents a request was started against.
func (c *Client) cacheGeneration() uint64 {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	return c.generation
}

// storeEntry caches body unless the cache was purged after generation.
func (c *Client) storeEntry(generation uint64, url, etag string, body json.RawMessage) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if generation != c.generation {
		return
	}
	c.cache.Put(url, CacheEntry{
		ETag:     etag,
		Body:     append(json.RawMessage(nil), body...),
		StoredAt: c.now(),
	})
}
