package cache_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/coachkit/pkg/cache"
)

func TestLRUCache_Basic(t *testing.T) {
	t.Run("put and get", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)

		c.Put("a", 1)
		c.Put("b", 2)

		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, val)
		assert.Equal(t, 2, c.Len())
		assert.True(t, c.Bounded())
	})

	t.Run("overwrite returns previous value", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)

		c.Put("a", 1)
		old, existed := c.Put("a", 2)

		assert.True(t, existed)
		assert.Equal(t, 1, old)
		val, _ := c.Get("a")
		assert.Equal(t, 2, val)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("missing key", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)

		val, ok := c.Get("missing")
		assert.False(t, ok)
		assert.Zero(t, val)
	})
}

func TestLRUCache_Eviction(t *testing.T) {
	t.Run("evicts least recently used", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Get("a")
		c.Put("c", 3)

		_, ok := c.Get("b")
		assert.False(t, ok)
		assert.ElementsMatch(t, []string{"a", "c"}, c.Keys())
	})

	t.Run("peek does not promote", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Peek("a")
		c.Put("c", 3)

		_, ok := c.Peek("a")
		assert.False(t, ok)
	})

	t.Run("unbounded never evicts", func(t *testing.T) {
		c := cache.NewLRUCache[int, int](0)
		assert.False(t, c.Bounded())

		for i := range 1000 {
			c.Put(i, i)
		}
		assert.Equal(t, 1000, c.Len())

		val, ok := c.Get(0)
		assert.True(t, ok)
		assert.Equal(t, 0, val)
	})

	t.Run("callback on eviction but not on overwrite", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](1)
		var evicted []string
		c.SetEvictCallback(func(key string, _ int) {
			evicted = append(evicted, key)
		})

		c.Put("a", 1)
		c.Put("a", 2)
		c.Put("b", 3)

		assert.Equal(t, []string{"a"}, evicted)
	})
}

func TestLRUCache_RemoveFunc(t *testing.T) {
	c := cache.NewLRUCache[string, string](0)
	c.Put("/api/me", "profile")
	c.Put("/api/me/workouts", "list")
	c.Put("/api/meta/filters", "filters")

	removed := c.RemoveFunc(func(key, _ string) bool {
		return strings.HasPrefix(key, "/api/me/") || key == "/api/me"
	})

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"/api/meta/filters"}, c.Keys())
}

func TestLRUCache_Clear(t *testing.T) {
	c := cache.NewLRUCache[string, int](0)
	count := 0
	c.SetEvictCallback(func(string, int) { count++ })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 2, count)

	_, existed := c.Remove("a")
	assert.False(t, existed)
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := cache.NewLRUCache[int, int](50)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := range 200 {
				c.Put(g*1000+i, i)
				c.Get(g*1000 + i/2)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 50)
}
