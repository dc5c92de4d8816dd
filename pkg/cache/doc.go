// Package cache provides a generic, thread-safe LRU cache.
//
// The cache runs in one of two modes. A bounded cache keeps at most N items
// and drops the least recently used one when a new key would exceed that.
// An unbounded cache (capacity <= 0) keeps everything until it is
// overwritten, removed or cleared; the API client uses this mode for its
// conditional-request store, where entries must only ever be replaced by a
// fresher response.
//
// # Usage
//
//	c := cache.NewLRUCache[string, []byte](0) // unbounded
//	c.Put("https://api.example.com/api/me", body)
//
//	if v, ok := c.Peek(url); ok {
//		// use v without affecting eviction order
//	}
//
//	// drop everything that belongs to the signed-in user
//	c.RemoveFunc(func(url string, _ []byte) bool {
//		return strings.Contains(url, "/api/me")
//	})
//
// Eviction callbacks fire for eviction, Remove, RemoveFunc and Clear, never
// for overwrites:
//
//	c.SetEvictCallback(func(key string, _ []byte) {
//		log.Println("dropped", key)
//	})
//
// All methods are safe for concurrent use. Get, Peek, Put and Remove are O(1);
// RemoveFunc and Keys walk the whole cache.
package cache
