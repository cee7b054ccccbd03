package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache[T any](size int, ttl time.Duration, opts ...Option[T]) (*LRUCache[T], *fakeClock) {
	clk := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](size, ttl, opts...)
	c.now = clk.Now
	return c, clk
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c, _ := newTestCache[int](2, time.Hour, WithEvictCallback(func(k string, _ int) {
		evicted = append(evicted, k)
	}))
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("unexpected evictions: %v", evicted)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c, clk := newTestCache[string](10, time.Minute)
	c.Set("k", "v")
	clk.Advance(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("item should still be live")
	}
	clk.Advance(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("item should have expired without sliding expiry")
	}
}

func TestLRUCache_SlidingExpiry(t *testing.T) {
	c, clk := newTestCache[string](10, time.Minute, WithSlidingExpiry[string]())
	c.Set("k", "v")
	for i := 0; i < 5; i++ {
		clk.Advance(50 * time.Second)
		if _, ok := c.Get("k"); !ok {
			t.Fatalf("hit %d: sliding item should stay alive", i)
		}
	}
	clk.Advance(61 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("idle item should expire")
	}
}

func TestLRUCache_CleanExpiredAndDelete(t *testing.T) {
	c, clk := newTestCache[int](10, time.Minute)
	c.Set("old", 1)
	clk.Advance(2 * time.Minute)
	c.Set("new", 2)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	c.Delete("new")
	if c.Size() != 0 {
		t.Fatalf("size = %d, want 0", c.Size())
	}
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	c, clk := newTestCache[int](10, time.Minute)
	c.Set("x", 1)
	clk.Advance(time.Hour)

	m := NewManager(nil)
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
