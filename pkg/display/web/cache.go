package web

import "sync"

type cacheEntry struct {
	hash uint64
	data []byte
}

// frameCache is a small ring of encoded frames keyed by the hash of
// their pixel data, so identical frames are encoded once.
type frameCache struct {
	mu      sync.RWMutex
	entries []cacheEntry
	idx     int
}

func newFrameCache(size int) *frameCache {
	return &frameCache{
		entries: make([]cacheEntry, size),
	}
}

func (c *frameCache) get(hash uint64) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if e.hash == hash && e.data != nil {
			return e.data, true
		}
	}
	return nil, false
}

func (c *frameCache) add(hash uint64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[c.idx] = cacheEntry{hash: hash, data: data}
	c.idx = (c.idx + 1) % len(c.entries)
}
