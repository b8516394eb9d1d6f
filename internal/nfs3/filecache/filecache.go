// Package filecache implements the per-session network file cache:
// open-file reuse keyed by fileId, with access-mode upgrade and the
// eviction hooks Rename/Remove depend on.
package filecache

import (
	"sync"

	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
)

// NetworkFile is the open-file object a session reuses across
// Read/Write/GetAttr calls against the same handle. Its Driver field
// is the underlying driver.NetworkFile the cache entry wraps; callers
// hold Mu for the duration of any I/O sequence against Driver.
type NetworkFile struct {
	Mu sync.Mutex

	FileID uint32
	Path   string
	Access driver.AccessMode
	Size   uint64
	Opened bool

	Driver driver.NetworkFile
}

// Metrics receives the cache's lookup outcomes. A nil Metrics disables
// recording; pkg/metrics.NFSMetrics satisfies it.
type Metrics interface {
	RecordOpenFileCacheHit()
	RecordOpenFileCacheMiss()
}

// Cache is the per-session open-file cache keyed by fileId.
// Mutation (insert, evict, upgrade) serializes on mu; callers needing
// exclusive I/O against one entry additionally hold that entry's own
// Mu, so cache bookkeeping never blocks behind a slow driver call.
type Cache struct {
	mu      sync.Mutex
	entries map[uint32]*NetworkFile

	metrics Metrics
}

// New returns an empty per-session file cache feeding lookup outcomes
// to m, which may be nil.
func New(m Metrics) *Cache {
	return &Cache{entries: make(map[uint32]*NetworkFile), metrics: m}
}

// AddFile inserts nf, replacing any existing entry for the same fileId.
func (c *Cache) AddFile(nf *NetworkFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[nf.FileID] = nf
}

// FindFile returns the cached entry for fileId if its granted access
// covers requireWrite; a read-only entry looked up for a write misses
// so the caller re-opens with wider access and replaces it.
func (c *Cache) FindFile(fileID uint32, requireWrite bool) (*NetworkFile, bool) {
	c.mu.Lock()
	nf, ok := c.entries[fileID]
	if ok && requireWrite && nf.Access != driver.ReadWrite {
		ok = false
	}
	c.mu.Unlock()
	if c.metrics != nil {
		if ok {
			c.metrics.RecordOpenFileCacheHit()
		} else {
			c.metrics.RecordOpenFileCacheMiss()
		}
	}
	if !ok {
		return nil, false
	}
	return nf, true
}

// RemoveFile evicts and returns the entry for fileId, if any. Called
// on Remove/Rename of the entry's path; the cache has no idle-timeout
// eviction, so an entry otherwise stays until the session closes.
func (c *Cache) RemoveFile(fileID uint32) (*NetworkFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	nf, ok := c.entries[fileID]
	if ok {
		delete(c.entries, fileID)
	}
	return nf, ok
}

// RemoveAll evicts every entry at once, returning them so session
// teardown can close the underlying driver files.
func (c *Cache) RemoveAll() []*NetworkFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*NetworkFile, 0, len(c.entries))
	for _, nf := range c.entries {
		out = append(out, nf)
	}
	c.entries = make(map[uint32]*NetworkFile)
	return out
}

// NumberOfEntries reports the cache's current size.
func (c *Cache) NumberOfEntries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
