// Package fileidcache implements the per-share file-id cache: a
// bidirectional mapping between a driver's fileId and the relative
// path used to reach it. It exists because a file handle only carries
// numeric ids; resolving one to a path the driver can act on always
// goes through here first.
package fileidcache

import "sync"

// Metrics receives the cache's lookup outcomes. A nil Metrics disables
// recording; pkg/metrics.NFSMetrics satisfies it.
type Metrics interface {
	RecordFileIDCacheHit()
	RecordFileIDCacheMiss()
}

// Cache is a per-share fileId <-> path map. The zero value is not
// usable; construct with New. Safe for concurrent use: reads take a
// read lock, writes serialize on a write lock.
type Cache struct {
	mu     sync.RWMutex
	byID   map[uint32]string
	byPath map[string]uint32

	metrics Metrics
}

// New returns an empty cache feeding lookup outcomes to m, which may
// be nil.
func New(m Metrics) *Cache {
	return &Cache{
		byID:    make(map[uint32]string),
		byPath:  make(map[string]uint32),
		metrics: m,
	}
}

// AddPath records path as the current location of id. Last-seen wins:
// if id was already present, its previous path mapping is dropped, and
// if that previous path had no other id pointing at it the reverse
// entry is removed too.
func (c *Cache) AddPath(id uint32, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.byID[id]; ok && old != path {
		if c.byPath[old] == id {
			delete(c.byPath, old)
		}
	}
	c.byID[id] = path
	c.byPath[path] = id
}

// FindPath returns the path last associated with id.
func (c *Cache) FindPath(id uint32) (string, bool) {
	c.mu.RLock()
	p, ok := c.byID[id]
	c.mu.RUnlock()
	if c.metrics != nil {
		if ok {
			c.metrics.RecordFileIDCacheHit()
		} else {
			c.metrics.RecordFileIDCacheMiss()
		}
	}
	return p, ok
}

// FindID returns the id last associated with path, the reverse lookup
// Rename uses to remap an entry in place.
func (c *Cache) FindID(path string) (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byPath[path]
	return id, ok
}

// DeletePath evicts id's entry, used when Remove or Rename invalidates
// the mapping.
func (c *Cache) DeletePath(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.byID[id]; ok {
		delete(c.byID, id)
		if c.byPath[p] == id {
			delete(c.byPath, p)
		}
	}
}

// Rename moves the cache entry for id from its old path to newPath in
// one step, so RENAME can remap an open file's id without a delete/add
// race window.
func (c *Cache) Rename(id uint32, newPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.byID[id]; ok && c.byPath[old] == id {
		delete(c.byPath, old)
	}
	c.byID[id] = newPath
	c.byPath[newPath] = id
}

// Len reports the number of ids currently tracked, for diagnostics.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
