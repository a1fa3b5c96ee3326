package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache(10, time.Minute)

	_, ok := c.Get("missing")
	require.False(t, ok)

	c.Set("a", []byte("1"), 0)
	got, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, []byte("1"), got)

	c.Set("a", []byte("2"), 0)
	got, _ = c.Get("a")
	require.Equal(t, []byte("2"), got)
	require.Equal(t, 1, c.Len())
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache(3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte{byte(i)}, 0)
	}

	// Touch k0 so k1 becomes the eviction candidate.
	_, ok := c.Get("k0")
	require.True(t, ok)

	c.Set("k3", []byte{3}, 0)
	require.Equal(t, 3, c.Len())

	_, ok = c.Get("k1")
	require.False(t, ok)
	_, ok = c.Get("k0")
	require.True(t, ok)
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	c.Set("short", []byte("x"), time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok := c.Get("short")
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}

func TestLRUCacheDeleteAndClear(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), 0)

	c.Delete("a")
	_, ok := c.Get("a")
	require.False(t, ok)
	require.Equal(t, 1, c.Len())

	c.Clear()
	require.Equal(t, 0, c.Len())
}
