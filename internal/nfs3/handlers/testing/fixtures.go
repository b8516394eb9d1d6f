// Package handlertesting provides the shared fixture handler tests
// build on: an in-memory filesystem driver implementing the full
// driver contract (including the optional disk-size, symlink, and
// file-id-lookup capabilities), a share registry and session wired the
// way a transport would wire them, and small builders for packing
// procedure arguments and walking reply buffers.
package handlertesting

import (
	"bytes"
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/handle"
	"github.com/nfscore/nfsv3d/internal/nfs3/handlers"
	"github.com/nfscore/nfsv3d/internal/nfs3/session"
	"github.com/nfscore/nfsv3d/internal/nfs3/share"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// MemNode is one entry in the MemDriver's flat path-keyed tree.
type MemNode struct {
	Info   driver.FileInfo
	Data   []byte
	Target string // symlink target, when Info.Type is TypeSymbolicLink
}

// MemTree is the trivial TreeConnection the fixture binds to its share.
type MemTree struct {
	Name string
	RO   bool
}

func (t *MemTree) ShareName() string { return t.Name }
func (t *MemTree) ReadOnly() bool    { return t.RO }

// MemDriver is an in-memory driver.Driver with the optional
// capability interfaces. Paths are slash-separated and relative to the
// share root, which is the empty string.
type MemDriver struct {
	mu     sync.Mutex
	nodes  map[string]*MemNode
	nextID uint32
	clock  time.Time

	// MutationCalls counts every call to a mutating driver method, so
	// access-gating tests can assert the driver was never consulted.
	MutationCalls int

	// WriteErr, when set, is returned by every WriteFile call, for
	// exercising the write error paths.
	WriteErr error
}

// NewMemDriver returns a driver holding only the share root directory.
func NewMemDriver() *MemDriver {
	d := &MemDriver{
		nodes:  make(map[string]*MemNode),
		nextID: 2,
		clock:  time.Unix(1700000000, 0),
	}
	d.nodes[""] = &MemNode{Info: d.newInfo(1, driver.TypeDirectory, 0)}
	return d
}

func (d *MemDriver) newInfo(id uint32, ftype driver.FileType, mode uint32) driver.FileInfo {
	return driver.FileInfo{
		FileID:       id,
		Mode:         mode,
		Type:         ftype,
		AccessTime:   d.clock,
		ModifyTime:   d.clock,
		ChangeTime:   d.clock,
		CreationTime: d.clock,
	}
}

// tick advances the driver clock, so every mutation moves the parent
// directory's modify time forward the way a real filesystem would.
func (d *MemDriver) tick() time.Time {
	d.clock = d.clock.Add(time.Second)
	return d.clock
}

func (d *MemDriver) touchParent(p string) {
	parent := path.Dir(p)
	if parent == "." || parent == "/" {
		parent = ""
	}
	if n, ok := d.nodes[parent]; ok {
		now := d.tick()
		n.Info.ModifyTime = now
		n.Info.ChangeTime = now
	}
}

// AddFile seeds a regular file at p with an explicit file id.
func (d *MemDriver) AddFile(p string, fileID uint32, mode uint32, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	info := d.newInfo(fileID, driver.TypeRegular, mode)
	info.Size = uint64(len(data))
	d.nodes[p] = &MemNode{Info: info, Data: append([]byte(nil), data...)}
	if fileID >= d.nextID {
		d.nextID = fileID + 1
	}
}

// AddDirectory seeds a directory at p with an explicit file id.
func (d *MemDriver) AddDirectory(p string, fileID uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes[p] = &MemNode{Info: d.newInfo(fileID, driver.TypeDirectory, 0)}
	if fileID >= d.nextID {
		d.nextID = fileID + 1
	}
}

// AddSymlink seeds a symbolic link at p.
func (d *MemDriver) AddSymlink(p string, fileID uint32, target string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes[p] = &MemNode{Info: d.newInfo(fileID, driver.TypeSymbolicLink, 0), Target: target}
	if fileID >= d.nextID {
		d.nextID = fileID + 1
	}
}

// Node returns the node at p, for post-condition assertions.
func (d *MemDriver) Node(p string) (*MemNode, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[p]
	return n, ok
}

func (d *MemDriver) GetFileInformation(ctx context.Context, tree driver.TreeConnection, p string) (*driver.FileInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[p]
	if !ok {
		return nil, driver.ErrNotFound
	}
	info := n.Info
	return &info, nil
}

func (d *MemDriver) FileExists(ctx context.Context, tree driver.TreeConnection, p string) (driver.Existence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[p]
	if !ok {
		return driver.NotExist, nil
	}
	if n.Info.Type == driver.TypeDirectory {
		return driver.DirectoryExists, nil
	}
	return driver.FileExists, nil
}

// MemFile is the driver.NetworkFile MemDriver hands back from open and
// create calls.
type MemFile struct {
	path   string
	Closed bool
}

func (f *MemFile) Path() string                    { return f.path }
func (f *MemFile) Close(ctx context.Context) error { f.Closed = true; return nil }

func (d *MemDriver) OpenFile(ctx context.Context, tree driver.TreeConnection, p string, params driver.OpenParams) (driver.NetworkFile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[p]
	if !ok {
		return nil, driver.ErrNotFound
	}
	if n.Info.Type == driver.TypeDirectory {
		return nil, driver.ErrIsDirectory
	}
	return &MemFile{path: p}, nil
}

func (d *MemDriver) CreateFile(ctx context.Context, tree driver.TreeConnection, p string, params driver.OpenParams) (driver.NetworkFile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.MutationCalls++
	if _, ok := d.nodes[p]; ok && params.CreateMode == driver.Guarded {
		return nil, driver.ErrAlreadyExists
	}
	var mode uint32
	if params.Mode != nil {
		mode = *params.Mode
	}
	id := d.nextID
	d.nextID++
	d.nodes[p] = &MemNode{Info: d.newInfo(id, driver.TypeRegular, mode)}
	d.touchParent(p)
	return &MemFile{path: p}, nil
}

func (d *MemDriver) CreateDirectory(ctx context.Context, tree driver.TreeConnection, p string, params driver.OpenParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.MutationCalls++
	if _, ok := d.nodes[p]; ok {
		return driver.ErrAlreadyExists
	}
	var mode uint32
	if params.Mode != nil {
		mode = *params.Mode
	}
	id := d.nextID
	d.nextID++
	d.nodes[p] = &MemNode{Info: d.newInfo(id, driver.TypeDirectory, mode)}
	d.touchParent(p)
	return nil
}

func (d *MemDriver) DeleteFile(ctx context.Context, tree driver.TreeConnection, p string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.MutationCalls++
	n, ok := d.nodes[p]
	if !ok {
		return driver.ErrNotFound
	}
	if n.Info.Type == driver.TypeDirectory {
		return driver.ErrIsDirectory
	}
	delete(d.nodes, p)
	d.touchParent(p)
	return nil
}

func (d *MemDriver) DeleteDirectory(ctx context.Context, tree driver.TreeConnection, p string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.MutationCalls++
	n, ok := d.nodes[p]
	if !ok {
		return driver.ErrNotFound
	}
	if n.Info.Type != driver.TypeDirectory {
		return driver.ErrNotDirectory
	}
	for other := range d.nodes {
		if other != p && strings.HasPrefix(other, p+"/") {
			return driver.ErrDirectoryNotEmpty
		}
	}
	delete(d.nodes, p)
	d.touchParent(p)
	return nil
}

func (d *MemDriver) RenameFile(ctx context.Context, tree driver.TreeConnection, oldPath, newPath string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.MutationCalls++
	n, ok := d.nodes[oldPath]
	if !ok {
		return driver.ErrNotFound
	}
	delete(d.nodes, oldPath)
	d.nodes[newPath] = n
	if n.Info.Type == driver.TypeDirectory {
		for other, child := range d.nodes {
			if strings.HasPrefix(other, oldPath+"/") {
				delete(d.nodes, other)
				d.nodes[newPath+other[len(oldPath):]] = child
			}
		}
	}
	d.touchParent(oldPath)
	d.touchParent(newPath)
	return nil
}

func (d *MemDriver) ReadFile(ctx context.Context, tree driver.TreeConnection, file driver.NetworkFile, buf []byte, fileOffset uint64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[file.Path()]
	if !ok {
		return 0, driver.ErrStale
	}
	if fileOffset >= uint64(len(n.Data)) {
		return 0, nil
	}
	return copy(buf, n.Data[fileOffset:]), nil
}

func (d *MemDriver) WriteFile(ctx context.Context, tree driver.TreeConnection, file driver.NetworkFile, buf []byte, fileOffset uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.MutationCalls++
	if d.WriteErr != nil {
		return d.WriteErr
	}
	n, ok := d.nodes[file.Path()]
	if !ok {
		return driver.ErrStale
	}
	end := fileOffset + uint64(len(buf))
	if end > uint64(len(n.Data)) {
		grown := make([]byte, end)
		copy(grown, n.Data)
		n.Data = grown
	}
	copy(n.Data[fileOffset:], buf)
	n.Info.Size = uint64(len(n.Data))
	now := d.tick()
	n.Info.ModifyTime = now
	n.Info.ChangeTime = now
	return nil
}

func (d *MemDriver) TruncateFile(ctx context.Context, tree driver.TreeConnection, file driver.NetworkFile, newSize uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.MutationCalls++
	n, ok := d.nodes[file.Path()]
	if !ok {
		return driver.ErrStale
	}
	resized := make([]byte, newSize)
	copy(resized, n.Data)
	n.Data = resized
	n.Info.Size = newSize
	now := d.tick()
	n.Info.ModifyTime = now
	n.Info.ChangeTime = now
	return nil
}

func (d *MemDriver) SetAttributes(ctx context.Context, tree driver.TreeConnection, p string, attrs driver.SetAttrParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.MutationCalls++
	n, ok := d.nodes[p]
	if !ok {
		return driver.ErrNotFound
	}
	if attrs.Mode != nil {
		n.Info.Mode = *attrs.Mode
	}
	if attrs.UID != nil {
		n.Info.UID = *attrs.UID
	}
	if attrs.GID != nil {
		n.Info.GID = *attrs.GID
	}
	if attrs.SetAtime {
		n.Info.AccessTime = attrs.AtimeValue
	}
	if attrs.SetMtime {
		n.Info.ModifyTime = attrs.MtimeValue
	}
	n.Info.ChangeTime = d.tick()
	return nil
}

// memSearch iterates one directory's entries in sorted name order.
// Resume-ids are positions: id i means "the i-th entry is next", so
// RestartAt(i) makes NextFileInfo return entry i, and GetResumeID
// reports where the iterator currently stands.
type memSearch struct {
	names []string
	infos []driver.FileInfo
	pos   int
}

func (s *memSearch) NextFileInfo(ctx context.Context) (string, *driver.FileInfo, bool, error) {
	if s.pos >= len(s.names) {
		return "", nil, false, nil
	}
	name := s.names[s.pos]
	info := s.infos[s.pos]
	s.pos++
	return name, &info, true, nil
}

func (s *memSearch) RestartAt(ctx context.Context, resumeID uint32) error {
	if int(resumeID) > len(s.names) {
		return driver.ErrInvalid
	}
	s.pos = int(resumeID)
	return nil
}

func (s *memSearch) HasMoreFiles() bool { return s.pos < len(s.names) }

func (s *memSearch) GetResumeID() uint32 { return uint32(s.pos) }

func (s *memSearch) CloseSearch() error { return nil }

func (d *MemDriver) StartSearch(ctx context.Context, tree driver.TreeConnection, pattern string, flags driver.SearchFlags) (driver.SearchContext, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dir := path.Dir(pattern)
	if dir == "." || dir == "/" {
		dir = ""
	}
	if n, ok := d.nodes[dir]; !ok || n.Info.Type != driver.TypeDirectory {
		return nil, driver.ErrNotDirectory
	}
	s := &memSearch{}
	var names []string
	for p := range d.nodes {
		if p == "" {
			continue
		}
		parent := path.Dir(p)
		if parent == "." {
			parent = ""
		}
		if parent == dir {
			names = append(names, p)
		}
	}
	sort.Strings(names)
	for _, p := range names {
		s.names = append(s.names, path.Base(p))
		s.infos = append(s.infos, d.nodes[p].Info)
	}
	return s, nil
}

func (d *MemDriver) GetDiskInformation(ctx context.Context, tree driver.TreeConnection) (*driver.DiskInfo, error) {
	return &driver.DiskInfo{
		TotalBytes:     1 << 30,
		FreeBytes:      1 << 29,
		AvailableBytes: 1 << 29,
		TotalFiles:     1 << 16,
		FreeFiles:      1 << 15,
		AvailableFiles: 1 << 15,
	}, nil
}

func (d *MemDriver) ReadSymbolicLink(ctx context.Context, tree driver.TreeConnection, p string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[p]
	if !ok {
		return "", driver.ErrNotFound
	}
	if n.Info.Type != driver.TypeSymbolicLink {
		return "", driver.ErrInvalid
	}
	return n.Target, nil
}

func (d *MemDriver) CreateSymbolicLink(ctx context.Context, tree driver.TreeConnection, p, target string, params driver.OpenParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.MutationCalls++
	if _, ok := d.nodes[p]; ok {
		return driver.ErrAlreadyExists
	}
	id := d.nextID
	d.nextID++
	d.nodes[p] = &MemNode{Info: d.newInfo(id, driver.TypeSymbolicLink, 0), Target: target}
	d.touchParent(p)
	return nil
}

func (d *MemDriver) BuildPathForFileID(ctx context.Context, tree driver.TreeConnection, dirID, fileID uint32) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for p, n := range d.nodes {
		if n.Info.FileID == fileID {
			return p, nil
		}
	}
	return "", driver.ErrNotFound
}

// BasicDriver strips the optional capability interfaces off a full
// driver by hiding it behind the plain driver.Driver interface, for
// tests exercising the NotSupp and Stale fallback paths.
type BasicDriver struct {
	driver.Driver
}

// Options tweaks what NewFixture builds.
type Options struct {
	// ReadOnly binds a read-only tree connection to the share.
	ReadOnly bool

	// NoCapabilities hides the driver's optional interfaces (symlink,
	// disk-size, file-id lookup), so the share reports
	// FileIDSupport=false.
	NoCapabilities bool

	// DisableSymlinks turns the share's symlink setting off while the
	// driver still supports them.
	DisableSymlinks bool
}

// RecordingMetrics implements every consumer metrics interface the
// core declares, counting calls so tests can assert on what a request
// recorded.
type RecordingMetrics struct {
	mu sync.Mutex

	Requests        []string
	BytesRead       uint64
	BytesWritten    uint64
	FileIDHits      int
	FileIDMisses    int
	OpenFileHits    int
	OpenFileMisses  int
	SessionsOpened  int
	SessionsClosed  int
	ActiveSessions  int32
	SlotExhaustions int
}

func (m *RecordingMetrics) RecordRequest(procedure string, status uint32, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, procedure)
}

func (m *RecordingMetrics) RecordBytesTransferred(procedure string, direction string, bytes uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if direction == "read" {
		m.BytesRead += bytes
	} else {
		m.BytesWritten += bytes
	}
}

func (m *RecordingMetrics) RecordFileIDCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FileIDHits++
}

func (m *RecordingMetrics) RecordFileIDCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FileIDMisses++
}

func (m *RecordingMetrics) RecordOpenFileCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenFileHits++
}

func (m *RecordingMetrics) RecordOpenFileCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenFileMisses++
}

func (m *RecordingMetrics) SetActiveSessions(count int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ActiveSessions = count
}

func (m *RecordingMetrics) RecordSessionOpened() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionsOpened++
}

func (m *RecordingMetrics) RecordSessionClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionsClosed++
}

func (m *RecordingMetrics) RecordSearchSlotExhaustion() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SlotExhaustions++
}

// Fixture is a fully wired single-share core: the mock driver, the
// registry, one session, the recording metrics sink, and the
// share-root handle every test starts from.
type Fixture struct {
	t *testing.T

	Driver     *MemDriver
	Shares     *share.Registry
	Share      *share.Details
	Session    *session.Session
	Metrics    *RecordingMetrics
	RootHandle [handle.Size]byte
}

const fixtureShareID = 1

// NewFixture builds a Fixture around a share named "data".
func NewFixture(t *testing.T, opts ...Options) *Fixture {
	t.Helper()
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	mem := NewMemDriver()
	var drv driver.Driver = mem
	if o.NoCapabilities {
		drv = &BasicDriver{Driver: mem}
	}

	recorder := &RecordingMetrics{}
	reg := share.NewRegistry(0x6E66737633746573)
	reg.SetMetrics(recorder)
	tree := &MemTree{Name: "data", RO: o.ReadOnly}
	sd := reg.Add(fixtureShareID, "data", drv, tree, share.Settings{
		ReadOnly:             o.ReadOnly,
		SymbolicLinksEnabled: !o.DisableSymlinks && !o.NoCapabilities,
	})

	return &Fixture{
		t:          t,
		Driver:     mem,
		Shares:     reg,
		Share:      sd,
		Session:    session.NewWithMetrics(1, nil, recorder),
		Metrics:    recorder,
		RootHandle: handle.PackShareHandle(fixtureShareID),
	}
}

// Context returns a fresh per-request handler context.
func (f *Fixture) Context() *handlers.Context {
	return &handlers.Context{
		Ctx:     context.Background(),
		Session: f.Session,
		Shares:  f.Shares,
		Metrics: f.Metrics,
	}
}

// FileHandle packs a File handle for the node at p and primes the
// share's file-id cache, the state a prior LOOKUP would have left.
func (f *Fixture) FileHandle(p string) [handle.Size]byte {
	f.t.Helper()
	n, ok := f.Driver.Node(p)
	if !ok {
		f.t.Fatalf("fixture: no node at %q", p)
	}
	dir := path.Dir(p)
	if dir == "." {
		dir = ""
	}
	var dirID uint32
	if dn, ok := f.Driver.Node(dir); ok && dir != "" {
		dirID = dn.Info.FileID
	}
	f.Share.FileIDs.AddPath(n.Info.FileID, p)
	return handle.PackFileHandle(fixtureShareID, dirID, n.Info.FileID)
}

// DirHandle packs a Directory handle for the directory at p and primes
// the file-id cache.
func (f *Fixture) DirHandle(p string) [handle.Size]byte {
	f.t.Helper()
	n, ok := f.Driver.Node(p)
	if !ok {
		f.t.Fatalf("fixture: no node at %q", p)
	}
	f.Share.FileIDs.AddPath(n.Info.FileID, p)
	return handle.PackDirectoryHandle(fixtureShareID, n.Info.FileID)
}

// ArgBuilder packs XDR procedure arguments the way the RPC transport
// would deliver them.
type ArgBuilder struct {
	buf bytes.Buffer
}

func NewArgs() *ArgBuilder { return &ArgBuilder{} }

func (b *ArgBuilder) Handle(h [handle.Size]byte) *ArgBuilder {
	_ = xdr.WriteOpaque(&b.buf, handle.Bytes(h))
	return b
}

func (b *ArgBuilder) Uint32(v uint32) *ArgBuilder {
	_ = xdr.WriteUint32(&b.buf, v)
	return b
}

func (b *ArgBuilder) Uint64(v uint64) *ArgBuilder {
	_ = xdr.WriteUint64(&b.buf, v)
	return b
}

func (b *ArgBuilder) Bool(v bool) *ArgBuilder {
	_ = xdr.WriteBool(&b.buf, v)
	return b
}

func (b *ArgBuilder) Str(s string) *ArgBuilder {
	_ = xdr.WriteString(&b.buf, s)
	return b
}

func (b *ArgBuilder) Opaque(data []byte) *ArgBuilder {
	_ = xdr.WriteOpaque(&b.buf, data)
	return b
}

func (b *ArgBuilder) FixedOpaque(data []byte) *ArgBuilder {
	_ = xdr.WriteFixedOpaque(&b.buf, data)
	return b
}

// SAttr3 packs a sattr3 whose only set field is mode (nil leaves mode
// unset too); both time_how tags are DontChangeTime.
func (b *ArgBuilder) SAttr3(mode *uint32) *ArgBuilder {
	if mode != nil {
		b.Bool(true).Uint32(*mode)
	} else {
		b.Bool(false)
	}
	b.Bool(false) // uid
	b.Bool(false) // gid
	b.Bool(false) // size
	b.Uint32(types.DontChangeTime)
	b.Uint32(types.DontChangeTime)
	return b
}

// SAttr3Size packs a sattr3 that only sets the file size.
func (b *ArgBuilder) SAttr3Size(size uint64) *ArgBuilder {
	b.Bool(false) // mode
	b.Bool(false) // uid
	b.Bool(false) // gid
	b.Bool(true).Uint64(size)
	b.Uint32(types.DontChangeTime)
	b.Uint32(types.DontChangeTime)
	return b
}

func (b *ArgBuilder) Reader() *bytes.Reader {
	return bytes.NewReader(b.buf.Bytes())
}

// ReplyReader walks a packed reply buffer, failing the test on any
// decode error so assertions stay terse.
type ReplyReader struct {
	t *testing.T
	r *bytes.Reader
}

func NewReplyReader(t *testing.T, packed []byte) *ReplyReader {
	return &ReplyReader{t: t, r: bytes.NewReader(packed)}
}

func (rr *ReplyReader) Uint32() uint32 {
	rr.t.Helper()
	v, err := xdr.ReadUint32(rr.r)
	if err != nil {
		rr.t.Fatalf("reply uint32: %v", err)
	}
	return v
}

func (rr *ReplyReader) Uint64() uint64 {
	rr.t.Helper()
	v, err := xdr.ReadUint64(rr.r)
	if err != nil {
		rr.t.Fatalf("reply uint64: %v", err)
	}
	return v
}

func (rr *ReplyReader) Bool() bool {
	rr.t.Helper()
	v, err := xdr.ReadBool(rr.r)
	if err != nil {
		rr.t.Fatalf("reply bool: %v", err)
	}
	return v
}

func (rr *ReplyReader) Str() string {
	rr.t.Helper()
	v, err := xdr.ReadString(rr.r)
	if err != nil {
		rr.t.Fatalf("reply string: %v", err)
	}
	return v
}

func (rr *ReplyReader) Opaque() []byte {
	rr.t.Helper()
	v, err := xdr.ReadOpaque(rr.r)
	if err != nil {
		rr.t.Fatalf("reply opaque: %v", err)
	}
	return v
}

func (rr *ReplyReader) FixedOpaque(n int) []byte {
	rr.t.Helper()
	v, err := xdr.ReadFixedOpaque(rr.r, n)
	if err != nil {
		rr.t.Fatalf("reply fixed opaque: %v", err)
	}
	return v
}

// Handle reads an nfs_fh3 from the reply.
func (rr *ReplyReader) Handle() [handle.Size]byte {
	rr.t.Helper()
	data := rr.Opaque()
	h, ok := handle.FromBytes(data)
	if !ok {
		rr.t.Fatalf("reply handle: wrong length %d", len(data))
	}
	return h
}

// Fattr3 reads a bare fattr3.
func (rr *ReplyReader) Fattr3() types.FileAttr {
	rr.t.Helper()
	var a types.FileAttr
	a.Type = rr.Uint32()
	a.Mode = rr.Uint32()
	a.Nlink = rr.Uint32()
	a.UID = rr.Uint32()
	a.GID = rr.Uint32()
	a.Size = rr.Uint64()
	a.Used = rr.Uint64()
	a.Rdev[0] = rr.Uint32()
	a.Rdev[1] = rr.Uint32()
	a.Fsid = rr.Uint64()
	a.FileID = rr.Uint64()
	a.Atime = types.TimeVal{Seconds: rr.Uint32(), Nseconds: rr.Uint32()}
	a.Mtime = types.TimeVal{Seconds: rr.Uint32(), Nseconds: rr.Uint32()}
	a.Ctime = types.TimeVal{Seconds: rr.Uint32(), Nseconds: rr.Uint32()}
	return a
}

// PostOpAttr reads a post_op_attr, returning nil when absent.
func (rr *ReplyReader) PostOpAttr() *types.FileAttr {
	rr.t.Helper()
	if !rr.Bool() {
		return nil
	}
	a := rr.Fattr3()
	return &a
}

// WccData reads a wcc_data, discarding the pre half and returning the
// post_op_attr, which is what most assertions care about.
func (rr *ReplyReader) WccData() *types.FileAttr {
	rr.t.Helper()
	if rr.Bool() {
		_ = rr.Uint64() // size
		_ = rr.Uint32() // mtime seconds
		_ = rr.Uint32() // mtime nseconds
		_ = rr.Uint32() // ctime seconds
		_ = rr.Uint32() // ctime nseconds
	}
	return rr.PostOpAttr()
}

// Remaining reports how many unread bytes the reply still holds.
func (rr *ReplyReader) Remaining() int { return rr.r.Len() }
