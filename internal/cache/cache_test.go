package cache_test

import (
	"testing"
	"time"

	"github.com/geocoder89/expensehub/internal/cache"
)

func TestSetGet(t *testing.T) {
	c := cache.New(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("empty cache should miss")
	}

	c.Set("k", 42)

	v, ok := c.Get("k")
	if !ok {
		t.Fatalf("expected a hit")
	}
	if v.(int) != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}

func TestExpiry(t *testing.T) {
	c := cache.New(20 * time.Millisecond)

	c.Set("k", "v")
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestDelete(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("k", "v")
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatalf("deleted entry should miss")
	}
}

func TestDeletePrefix(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("stats:user-1:a", 1)
	c.Set("stats:user-1:b", 2)
	c.Set("stats:user-2:a", 3)

	c.DeletePrefix("stats:user-1:")

	if _, ok := c.Get("stats:user-1:a"); ok {
		t.Fatalf("prefix delete missed stats:user-1:a")
	}
	if _, ok := c.Get("stats:user-1:b"); ok {
		t.Fatalf("prefix delete missed stats:user-1:b")
	}
	if _, ok := c.Get("stats:user-2:a"); !ok {
		t.Fatalf("other users' entries must survive")
	}
}

func TestClear(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Fatalf("clear should drop everything")
	}
}
