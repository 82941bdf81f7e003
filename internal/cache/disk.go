package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DiskCache persists entries as JSON files, one per key
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a disk cache rooted at dir
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl}
}

type cacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get returns an unexpired entry, deleting expired ones
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}

	return entry.Data, true
}

// Set writes the entry atomically so concurrent readers never see a partial file
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(cacheEntry{Data: value, ExpiresAt: time.Now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Delete removes an entry; a missing entry is not an error
func (c *DiskCache) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes all cached files
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// path maps a key to a file name; keys contain ':' which some filesystems reject
func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, sanitize(key)+".cache")
}

func sanitize(key string) string {
	out := []byte(key)
	for i, b := range out {
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '-', b == '_', b == '.':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
