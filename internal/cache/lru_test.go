package cache

import (
	"testing"
	"time"
)

func TestLRUCacheExpiry(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](4, time.Minute)
	c.now = func() time.Time { return clock }

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected hit, got %v %v", v, ok)
	}

	clock = clock.Add(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("entry should expire after the TTL")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read")
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // b becomes least recently used
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("%s should still be cached", k)
		}
	}
}

func TestLRUCachePurgeAndClean(t *testing.T) {
	clock := time.Now()
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return clock }

	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("purge left %d entries", c.Size())
	}

	c.Set("a", 1)
	clock = clock.Add(500 * time.Millisecond)
	c.Set("b", 2)
	clock = clock.Add(600 * time.Millisecond)

	m := NewManager()
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("b should survive cleanup")
	}
	m.Stop()
	m.Stop()
}
