package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL(t *testing.T) {
	t.Run("get after set", func(t *testing.T) {
		c := NewTTL[int](time.Minute)
		c.Set("a", 42)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 42, v)
	})

	t.Run("missing key", func(t *testing.T) {
		c := NewTTL[string](time.Minute)
		v, ok := c.Get("nope")
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("entries expire", func(t *testing.T) {
		c := NewTTL[int](10 * time.Minute)
		clock := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
		c.SetClock(func() time.Time { return clock })

		c.Set("a", 1)
		clock = clock.Add(9 * time.Minute)
		_, ok := c.Get("a")
		assert.True(t, ok, "fresh entry must survive")

		clock = clock.Add(2 * time.Minute)
		_, ok = c.Get("a")
		assert.False(t, ok, "entry past its ttl must be dropped")
		assert.Zero(t, c.Len(), "expired entries are evicted on read")
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		c := NewTTL[int](0)
		clock := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
		c.SetClock(func() time.Time { return clock })

		c.Set("a", 1)
		clock = clock.Add(1000 * time.Hour)
		_, ok := c.Get("a")
		assert.True(t, ok)
	})

	t.Run("set refreshes expiry", func(t *testing.T) {
		c := NewTTL[int](10 * time.Minute)
		clock := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
		c.SetClock(func() time.Time { return clock })

		c.Set("a", 1)
		clock = clock.Add(8 * time.Minute)
		c.Set("a", 2)
		clock = clock.Add(8 * time.Minute)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 2, v)
	})

	t.Run("delete and clear", func(t *testing.T) {
		c := NewTTL[int](time.Minute)
		c.Set("a", 1)
		c.Set("b", 2)

		c.Delete("a")
		_, ok := c.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 1, c.Len())

		c.Clear()
		assert.Zero(t, c.Len())
	})
}
