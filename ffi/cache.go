package ffi

import "sync"

// fingerprintCache is the in-process half of spec.md §3's "process-wide,
// write-once mapping fingerprint(source_text, compile_flags) →
// shared_library_path": a fast path that skips touching disk at all when
// this process has already compiled the exact same (source, flags) pair.
// The on-disk half (spec.md §6's persisted-state rule: a cache hit is
// defined by byte-equality of the .c file at the fingerprint's stem) still
// runs on a miss here, so a second process sharing the same cacheroot is
// correct even on this cache's very first lookup.
type fingerprintCache struct {
	mu    sync.Mutex
	paths map[string]string
}

func newFingerprintCache() *fingerprintCache {
	return &fingerprintCache{paths: make(map[string]string)}
}

func (c *fingerprintCache) get(fingerprint string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.paths[fingerprint]
	return p, ok
}

// put is write-once: the first writer for a fingerprint wins, matching
// spec.md §5's "all caches require mutual exclusion on insert" — a second
// concurrent compile of the same source is wasted work, not a race, since
// the loser's path is identical anyway.
func (c *fingerprintCache) put(fingerprint, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.paths[fingerprint]; !exists {
		c.paths[fingerprint] = path
	}
}
