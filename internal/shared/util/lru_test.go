package util

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestLRU_GetPut(t *testing.T) {
	c := NewLRU[string, int](3)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	for k, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		v, ok := c.Get(k)
		if !ok || v != want {
			t.Fatalf("key %q: want %d got %d (ok=%v)", k, want, v, ok)
		}
	}

	hits, misses := c.Stats()
	if hits != 3 || misses != 1 {
		t.Fatalf("expected 3 hits / 1 miss, got %d / %d", hits, misses)
	}
}

func TestLRU_EvictsLeastRecent(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected 'b' to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected 'a' to survive")
	}
	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
}

func TestLRU_UpdateRefreshes(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10)
	c.Put("c", 3)

	if v, ok := c.Get("a"); !ok || v != 10 {
		t.Fatalf("expected a=10, got %d (ok=%v)", v, ok)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected 'b' to be evicted after 'a' was refreshed")
	}
}

func TestLRU_RemoveWhere(t *testing.T) {
	c := NewLRU[string, int](10)
	c.Put("/app/a.js", 1)
	c.Put("/app/lib/b.js", 2)
	c.Put("/other/c.js", 3)

	n := c.RemoveWhere(func(k string) bool { return strings.HasPrefix(k, "/app/") })
	if n != 2 {
		t.Fatalf("expected 2 removals, got %d", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Len())
	}

	c.Remove("/other/c.js")
	c.Remove("/missing")
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
}

func TestLRU_ZeroCapacityNormalised(t *testing.T) {
	c := NewLRU[string, int](0)
	c.Put("a", 1)
	c.Put("b", 2)
	if c.Len() != 1 {
		t.Fatalf("expected capacity 1, got len %d", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatal("expected empty cache after Clear")
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[string, int](50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%75)
				c.Put(key, g)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 50 {
		t.Fatalf("cache exceeded capacity: %d", c.Len())
	}
}
