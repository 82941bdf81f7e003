// Package cache stores extracted page text and remote media metadata so
// repeated checks of the same URL skip the network.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a cache key from a namespace and the identifying parts
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "judolscan:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// New builds the configured cache: nil when disabled, memory only without
// a disk directory, memory in front of disk otherwise.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	memory := NewMemoryCache(cfg.MemoryTTL, cleanupInterval(cfg.MemoryTTL))
	if cfg.DiskDir == "" {
		return memory
	}
	return NewLayeredCache(memory, NewDiskCache(cfg.DiskDir, cfg.DiskTTL))
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 10 * time.Minute
	}
	return 2 * ttl
}
