// Package share implements the per-share descriptor and registry: the
// fixed facts about an export (its name, id, whether its driver
// supports file-id lookup) plus the file-id cache that belongs to it.
// Handle resolution starts here on every request.
package share

import (
	"sync"

	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/fileidcache"
)

// Settings carries the server- and share-wide tunables: the
// idle-file-cache timeout, read-ahead sizing, and whether the export
// is writable or serves symlinks. They live on the share rather than
// as package-level globals so two exports can be tuned independently.
type Settings struct {
	ReadOnly             bool
	ReadAheadSize        uint32
	IdleFileCacheTimeout uint32 // seconds
	SymbolicLinksEnabled bool
}

// Details is the per-share descriptor.
type Details struct {
	ID      uint32
	Name    string
	Driver  driver.Driver
	Tree    driver.TreeConnection
	FileIDs *fileidcache.Cache

	// FileIDSupport is true iff Driver implements
	// driver.FileIDLookupInterface, cached here so handlers don't
	// have to type-assert on every request.
	FileIDSupport bool

	Settings Settings
}

// Registry is the server-wide table of exported shares, keyed by the
// share id embedded in every handle.
type Registry struct {
	mu      sync.RWMutex
	shares  map[uint32]*Details
	byName  map[string]uint32
	metrics fileidcache.Metrics

	// WriteVerifier is the server-instance-wide writeverf3 WRITE and
	// COMMIT echo back to clients (RFC 1813 §3.3.8). It only needs to
	// change across server restarts, so the caller that constructs the
	// registry stamps it once (typically from the process start time);
	// it is never mutated afterward.
	WriteVerifier uint64
}

// NewRegistry returns an empty share registry. writeVerifier should be
// a value that changes across server restarts (e.g. process start
// time) so clients can detect a server that lost unstable writes.
func NewRegistry(writeVerifier uint64) *Registry {
	return &Registry{
		shares:        make(map[uint32]*Details),
		byName:        make(map[string]uint32),
		WriteVerifier: writeVerifier,
	}
}

// SetMetrics attaches the file-id cache hit/miss counters shares
// added afterwards record to. Call before Add; m may be nil.
func (r *Registry) SetMetrics(m fileidcache.Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m
}

// Add registers a share, building its ShareDetails from the supplied
// driver and settings. FileIDSupport is derived automatically from
// whether drv satisfies driver.FileIDLookupInterface.
func (r *Registry) Add(id uint32, name string, drv driver.Driver, tree driver.TreeConnection, settings Settings) *Details {
	_, supportsFileID := drv.(driver.FileIDLookupInterface)

	r.mu.RLock()
	m := r.metrics
	r.mu.RUnlock()

	d := &Details{
		ID:            id,
		Name:          name,
		Driver:        drv,
		Tree:          tree,
		FileIDs:       fileidcache.New(m),
		FileIDSupport: supportsFileID,
		Settings:      settings,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.shares[id] = d
	r.byName[name] = id
	return d
}

// Get returns the share details for id.
func (r *Registry) Get(id uint32) (*Details, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.shares[id]
	return d, ok
}

// GetByName returns the share details for a share name, used when a
// handle is first minted from a mount request.
func (r *Registry) GetByName(name string) (*Details, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.shares[id], true
}
