package cache

import (
	"sync"

	"sio-go/internal/organize"
)

// MemoryCache is an in-process metadata cache. Entries live for the
// lifetime of the handle; mostly useful for tests and one-off runs.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*organize.CacheEntry
	hits    int64
	misses  int64
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*organize.CacheEntry)}
}

func (c *MemoryCache) Lookup(fingerprint string) (*organize.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		c.misses++
		return nil, nil
	}
	c.hits++
	return copyEntry(entry), nil
}

func (c *MemoryCache) Store(fingerprint string, entry *organize.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = copyEntry(entry)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*organize.CacheEntry)
	return nil
}

func (c *MemoryCache) Stats() (organize.CacheStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return organize.CacheStats{
		Size:   int64(len(c.entries)),
		Hits:   c.hits,
		Misses: c.misses,
	}, nil
}

// Close is a no-op; present so callers can treat all cache types uniformly.
func (c *MemoryCache) Close() error { return nil }

// copyEntry keeps callers from mutating shared state through the returned
// pointer.
func copyEntry(entry *organize.CacheEntry) *organize.CacheEntry {
	if entry == nil {
		return nil
	}
	out := &organize.CacheEntry{HasTags: entry.HasTags}
	if entry.Location != nil {
		loc := *entry.Location
		out.Location = &loc
	}
	if entry.Tags != nil {
		out.Tags = append([]string(nil), entry.Tags...)
	}
	return out
}

var _ organize.Cache = (*MemoryCache)(nil)
