package cache

import "time"

// LayeredCache serves from memory and falls back to disk
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache puts memory in front of disk
func NewLayeredCache(memory, disk Cache) *LayeredCache {
	return &LayeredCache{memory: memory, disk: disk}
}

// Get checks memory first, then disk, promoting disk hits
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val, 0) // memory default TTL
		return val, true
	}

	return nil, false
}

// Set stores a value in both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
