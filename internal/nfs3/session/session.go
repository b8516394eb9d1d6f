// Package session implements the per-client session: the binding that
// carries a session's open-file cache, its directory-search slot
// table, its per-share tree connections, and the single in-flight
// driver transaction the dispatcher commits or rolls back after every
// request.
package session

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/filecache"
	"github.com/nfscore/nfsv3d/internal/nfs3/search"
	"github.com/nfscore/nfsv3d/internal/nfs3/share"
)

// DebugFlag selects which categories of extra diagnostic logging a
// session has turned on.
type DebugFlag uint32

const (
	DebugFileIO DebugFlag = 1 << iota
	DebugSearch
	DebugLocking
)

// Metrics receives session lifecycle events, plus the lookup outcomes
// of the per-session caches a session constructs. A nil Metrics
// disables recording; pkg/metrics.NFSMetrics satisfies it.
type Metrics interface {
	RecordSessionOpened()
	RecordSessionClosed()
	SetActiveSessions(count int32)
	filecache.Metrics
	search.Metrics
}

// Transaction is the opaque per-request driver transaction handle a
// driver may attach to a session. The dispatcher calls
// EndTransaction unconditionally after every handler invocation,
// success or failure.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Session binds one client connection to its per-session state.
// Multiple requests from the same client may be in flight
// concurrently; callers serialize mutation of the slot
// table and file cache through those components' own locks, not
// through Session itself.
type Session struct {
	ID         uint64
	RemoteAddr net.Addr

	FileCache *filecache.Cache
	Slots     *search.Table

	debugMask DebugFlag

	mu    sync.Mutex
	trees map[uint32]driver.TreeConnection
	txn   Transaction
}

// New creates a session for a newly connected client with no metrics
// recording; servers that meter go through a Manager instead.
func New(id uint64, remoteAddr net.Addr) *Session {
	return NewWithMetrics(id, remoteAddr, nil)
}

// NewWithMetrics creates a session whose file cache and search slot
// table feed m.
func NewWithMetrics(id uint64, remoteAddr net.Addr, m Metrics) *Session {
	return &Session{
		ID:         id,
		RemoteAddr: remoteAddr,
		FileCache:  filecache.New(m),
		Slots:      search.NewTable(m),
		trees:      make(map[uint32]driver.TreeConnection),
	}
}

// Manager hands out sessions and tracks how many are live, feeding the
// session lifecycle metrics.
type Manager struct {
	mu      sync.Mutex
	nextID  uint64
	active  int32
	metrics Metrics
}

// NewManager returns a Manager recording lifecycle events to m, which
// may be nil.
func NewManager(m Metrics) *Manager {
	return &Manager{metrics: m}
}

// Open creates a session for a newly connected client and counts it as
// active.
func (mgr *Manager) Open(remoteAddr net.Addr) *Session {
	mgr.mu.Lock()
	mgr.nextID++
	id := mgr.nextID
	mgr.active++
	active := mgr.active
	mgr.mu.Unlock()

	s := NewWithMetrics(id, remoteAddr, mgr.metrics)
	if mgr.metrics != nil {
		mgr.metrics.RecordSessionOpened()
		mgr.metrics.SetActiveSessions(active)
	}
	return s
}

// Close tears a session down: any in-flight driver transaction is
// rolled back, every cached open file is closed, and every directory
// search still holding a slot is released.
func (mgr *Manager) Close(ctx context.Context, s *Session) {
	_ = s.EndTransaction(ctx, false)
	for _, nf := range s.FileCache.RemoveAll() {
		nf.Mu.Lock()
		if nf.Driver != nil {
			_ = nf.Driver.Close(ctx)
		}
		nf.Mu.Unlock()
	}
	s.Slots.CloseAll()

	mgr.mu.Lock()
	mgr.active--
	active := mgr.active
	mgr.mu.Unlock()
	if mgr.metrics != nil {
		mgr.metrics.RecordSessionClosed()
		mgr.metrics.SetActiveSessions(active)
	}
}

// FindConnection returns the tree connection this session holds for
// shareID, if any.
func (s *Session) FindConnection(shareID uint32) (driver.TreeConnection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trees[shareID]
	return t, ok
}

// AddConnection binds a tree connection to shareID for this session.
func (s *Session) AddConnection(shareID uint32, tree driver.TreeConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[shareID] = tree
}

// HasDebug reports whether flag is set in this session's debug mask.
func (s *Session) HasDebug(flag DebugFlag) bool {
	return s.debugMask&flag != 0
}

// SetDebug sets the session's debug mask, replacing any previous value.
func (s *Session) SetDebug(mask DebugFlag) {
	s.debugMask = mask
}

// SetTransaction attaches the driver transaction opened for the
// in-flight request; at most one is live at a time.
func (s *Session) SetTransaction(t Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn = t
}

// EndTransaction commits the attached transaction when commit is
// true, rolls it back otherwise, and always clears it afterward. The
// dispatcher calls this unconditionally after every handler.
func (s *Session) EndTransaction(ctx context.Context, commit bool) error {
	s.mu.Lock()
	txn := s.txn
	s.txn = nil
	s.mu.Unlock()

	if txn == nil {
		return nil
	}
	if commit {
		return txn.Commit(ctx)
	}
	return txn.Rollback(ctx)
}

// GetNetworkFileForHandle is the open-through-cache helper READ, WRITE
// and truncating SETATTR share: on a file-cache miss it opens the file
// through the driver with the requested access and inserts the
// resulting NetworkFile into the session's cache before returning it.
func GetNetworkFileForHandle(
	ctx context.Context,
	s *Session,
	sd *share.Details,
	fileID uint32,
	path string,
	readOnly bool,
) (*filecache.NetworkFile, error) {
	if nf, ok := s.FileCache.FindFile(fileID, !readOnly); ok {
		return nf, nil
	}

	access := driver.ReadOnly
	if !readOnly {
		access = driver.ReadWrite
	}

	opened, err := sd.Driver.OpenFile(ctx, sd.Tree, path, driver.OpenParams{Access: access})
	if err != nil {
		return nil, fmt.Errorf("open %s for session %d: %w", path, s.ID, err)
	}

	info, err := sd.Driver.GetFileInformation(ctx, sd.Tree, path)
	var size uint64
	if err == nil {
		size = info.Size
	}

	nf := &filecache.NetworkFile{
		FileID: fileID,
		Path:   path,
		Access: access,
		Size:   size,
		Opened: true,
		Driver: opened,
	}
	s.FileCache.AddFile(nf)
	return nf, nil
}
