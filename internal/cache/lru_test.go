package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCacheExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](4, time.Minute).WithClock(clk.now)

	c.Set("ledger", "v1")
	if got, ok := c.Get("ledger"); !ok || got != "v1" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	clk.advance(59 * time.Second)
	if _, ok := c.Get("ledger"); !ok {
		t.Fatal("entry expired early")
	}
	clk.advance(time.Second)
	if _, ok := c.Get("ledger"); ok {
		t.Fatal("entry should expire at TTL")
	}
	if len(c.items) != 0 {
		t.Fatalf("expired entry not removed, size %d", len(c.items))
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry should be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d, %v", v, ok)
	}
	c.Delete("a")
	if len(c.items) != 1 {
		t.Fatalf("size = %d", len(c.items))
	}
}

func TestLRUCacheMinimumCapacity(t *testing.T) {
	c := NewLRUCache[int](0, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	if len(c.items) != 1 {
		t.Fatalf("minimum capacity should be one, size %d", len(c.items))
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("b = %d, %v", v, ok)
	}
}
