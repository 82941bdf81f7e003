package cache

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("page", "https://example.com")
	b := Key("page", "https://example.com")
	c := Key("media", "https://example.com")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "judolscan:v1:page:"))
	assert.NotEqual(t, Key("page", "ab", "c"), Key("page", "a", "bc"))
}

func TestNew(t *testing.T) {
	assert.Nil(t, New(model.CacheConfig{Enabled: false}))

	mem := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute})
	assert.IsType(t, &MemoryCache{}, mem)

	layered := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute, DiskDir: t.TempDir(), DiskTTL: time.Hour})
	assert.IsType(t, &LayeredCache{}, layered)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("page", "https://example.com")

	require.NoError(t, c.Set(key, []byte("slot gacor"), 0))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("slot gacor"), got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), ":")

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key), "deleting a missing key is not an error")
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestDiskCache_ExpiredAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	require.NoError(t, c.Set("old", []byte("x"), time.Nanosecond))
	time.Sleep(time.Millisecond)
	_, ok := c.Get("old")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(c.path("bad"), []byte("{not json"), 0644))
	_, ok = c.Get("bad")
	assert.False(t, ok)
	_, err := os.Stat(c.path("bad"))
	assert.True(t, os.IsNotExist(err))
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	memory := NewMemoryCache(time.Minute, time.Minute)
	disk := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayeredCache(memory, disk)

	require.NoError(t, disk.Set("k", []byte("v"), 0))
	_, ok := memory.Get("k")
	require.False(t, ok)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, ok = memory.Get("k")
	assert.True(t, ok, "disk hit should be promoted to memory")

	require.NoError(t, c.Clear())
	_, ok = c.Get("k")
	assert.False(t, ok)
}
