package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPageCache_GetSet(t *testing.T) {
	now := time.Date(2022, 9, 1, 12, 0, 0, 0, time.UTC)
	c := newPageCache(time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Get("https://example.test/a")
	assert.False(t, ok)

	c.Set("https://example.test/a", "body")
	body, ok := c.Get("https://example.test/a")
	assert.True(t, ok)
	assert.Equal(t, "body", body)
	assert.Equal(t, 1, c.Size())

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("https://example.test/a")
	assert.False(t, ok, "expired pages are not returned")
	assert.Equal(t, 0, c.Size(), "expired pages are removed on read")
}

func TestPageCache_CleanExpired(t *testing.T) {
	now := time.Date(2022, 9, 1, 12, 0, 0, 0, time.UTC)
	c := newPageCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("old", "1")
	now = now.Add(45 * time.Second)
	c.Set("new", "2")
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())

	_, ok := c.Get("new")
	assert.True(t, ok)
}

func TestPageCache_Disabled(t *testing.T) {
	c := newPageCache(0)

	c.Set("url", "body")
	_, ok := c.Get("url")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestPageCache_SetDropsExpired(t *testing.T) {
	now := time.Date(2022, 9, 1, 12, 0, 0, 0, time.UTC)
	c := newPageCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("old", "1")
	now = now.Add(2 * time.Minute)
	c.Set("new", "2")

	assert.Equal(t, 1, c.Size())
}
