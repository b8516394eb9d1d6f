// Package driver describes the Filesystem Driver contract the core
// consumes but never implements: the collaborator that
// actually touches bytes on disk, returns directory entries, and
// raises the filesystem-level errors the handlers translate into NFS
// status codes. Everything here is an interface or a plain value type;
// concrete drivers live outside this module.
package driver

import (
	"context"
	"errors"
	"time"
)

// FileType mirrors the NFS v3 ftype3 enumeration at the driver
// boundary so the driver never has to import the wire codec.
type FileType int

const (
	TypeRegular FileType = iota + 1
	TypeDirectory
	TypeBlock
	TypeCharacter
	TypeSymbolicLink
	TypeSocket
	TypeFifo
)

// FileInfo is the metadata record a filesystem driver returns. Times
// are kept at millisecond precision internally and only truncated to
// (seconds, nanoseconds) by the XDR attribute codec at the wire
// boundary.
type FileInfo struct {
	FileID         uint32
	Size           uint64
	AllocationSize uint64
	Mode           uint32
	UID            uint32
	GID            uint32
	Type           FileType
	Flags          uint32

	AccessTime   time.Time
	ModifyTime   time.Time
	ChangeTime   time.Time
	CreationTime time.Time
}

// AccessMode is the granted-access tag a NetworkFile carries.
type AccessMode int

const (
	ReadOnly AccessMode = iota
	ReadWrite
)

// OpenParams carries everything a driver needs to open or create a
// file: the requested access mode and, for the *_CREATE family, the
// initial attributes and create-mode semantics (createmode3, RFC 1813
// §3.3.9).
type OpenParams struct {
	Access     AccessMode
	CreateMode CreateMode
	Mode       *uint32
	UID        *uint32
	GID        *uint32
	Size       *uint64
	Truncate   bool
}

// CreateMode mirrors createmode3.
type CreateMode int

const (
	Unchecked CreateMode = iota
	Guarded
	Exclusive
)

// SetAttrParams is the driver-facing view of sattr3: only the fields the client actually asked to change are
// non-nil/non-zero-tagged.
type SetAttrParams struct {
	Mode *uint32
	UID  *uint32
	GID  *uint32
	Size *uint64

	SetAtime   bool
	AtimeValue time.Time
	SetMtime   bool
	MtimeValue time.Time
}

// SearchFlags controls what a startSearch call must return alongside
// each FileInfo; the driver is free to ignore flags it doesn't support
// and return the fuller record anyway.
type SearchFlags int

const (
	SearchNamesOnly SearchFlags = iota
	SearchWithAttrs
)

// SearchContext is the opaque directory-enumeration iterator a driver
// returns. NextFileInfo returns ("", nil, false, nil) once exhausted:
// exhaustion is never reported as an error, so the handler's only
// decision per entry is whether it fits the response budget.
type SearchContext interface {
	// NextFileInfo advances the iterator and returns the next entry's
	// name and metadata, or ok=false when the directory is exhausted.
	NextFileInfo(ctx context.Context) (name string, info *FileInfo, ok bool, err error)

	// RestartAt repositions the iterator at the entry whose driver
	// resume-id is resumeID, used when a cookie's resume-id doesn't
	// match what the slot last returned.
	RestartAt(ctx context.Context, resumeID uint32) error

	// HasMoreFiles reports whether a subsequent NextFileInfo call
	// would yield another entry, without consuming it.
	HasMoreFiles() bool

	// GetResumeID returns an opaque, driver-assigned identifier for
	// the iterator's current position, packed into the next cookie.
	GetResumeID() uint32

	// CloseSearch releases any resources the driver holds for this
	// iterator. Always called exactly once, on both success and error
	// exit paths.
	CloseSearch() error
}

// TreeConnection is the per-share, per-session binding the driver
// hands back from a connect call; the core threads it through to
// subsequent driver calls and reads only ReadOnly, to gate mutating
// procedures and the ACCESS mask.
type TreeConnection interface {
	ShareName() string
	ReadOnly() bool
}

// Driver is the filesystem contract the procedure handlers consume.
// Every method takes the ctx so a driver backed by network storage
// can honor cancellation; the core always passes through the
// request's context unchanged.
type Driver interface {
	GetFileInformation(ctx context.Context, tree TreeConnection, path string) (*FileInfo, error)
	FileExists(ctx context.Context, tree TreeConnection, path string) (Existence, error)

	OpenFile(ctx context.Context, tree TreeConnection, path string, params OpenParams) (NetworkFile, error)
	CreateFile(ctx context.Context, tree TreeConnection, path string, params OpenParams) (NetworkFile, error)
	CreateDirectory(ctx context.Context, tree TreeConnection, path string, params OpenParams) error

	DeleteFile(ctx context.Context, tree TreeConnection, path string) error
	DeleteDirectory(ctx context.Context, tree TreeConnection, path string) error
	RenameFile(ctx context.Context, tree TreeConnection, oldPath, newPath string) error

	ReadFile(ctx context.Context, tree TreeConnection, file NetworkFile, buf []byte, fileOffset uint64) (int, error)
	WriteFile(ctx context.Context, tree TreeConnection, file NetworkFile, buf []byte, fileOffset uint64) error
	TruncateFile(ctx context.Context, tree TreeConnection, file NetworkFile, newSize uint64) error

	StartSearch(ctx context.Context, tree TreeConnection, pattern string, flags SearchFlags) (SearchContext, error)

	SetAttributes(ctx context.Context, tree TreeConnection, path string, attrs SetAttrParams) error
}

// Existence is the three-way result of FileExists.
type Existence int

const (
	NotExist Existence = iota
	FileExists
	DirectoryExists
)

// DiskSizeInterface is the optional capability interface FsStat
// queries when present; a driver that doesn't implement it falls back
// to static defaults.
type DiskSizeInterface interface {
	GetDiskInformation(ctx context.Context, tree TreeConnection) (*DiskInfo, error)
}

// DiskInfo is the dynamic disk-size data backing FSSTAT3res.
type DiskInfo struct {
	TotalBytes     uint64
	FreeBytes      uint64
	AvailableBytes uint64
	TotalFiles     uint64
	FreeFiles      uint64
	AvailableFiles uint64
}

// SymbolicLinkInterface is the optional capability interface ReadLink
// and SymLink require; a driver lacking it makes both NotSupp.
type SymbolicLinkInterface interface {
	ReadSymbolicLink(ctx context.Context, tree TreeConnection, path string) (string, error)
	CreateSymbolicLink(ctx context.Context, tree TreeConnection, path, target string, params OpenParams) error
}

// FileIDLookupInterface is the optional capability a share advertises
// as ShareDetails.fileIdSupport: without it, a cold
// file-id cache miss can never be repaired and the handle is Stale.
type FileIDLookupInterface interface {
	BuildPathForFileID(ctx context.Context, tree TreeConnection, dirID, fileID uint32) (string, error)
}

// NetworkFile is the open-file handle a driver returns from
// OpenFile/CreateFile. It's distinct from filecache.NetworkFile, the
// core's own cache entry wrapping one of these.
type NetworkFile interface {
	Path() string
	Close(ctx context.Context) error
}

// Sentinel errors a driver raises for the standard failure modes. A driver may
// wrap one of these with fmt.Errorf("...: %w", ErrNotFound) and the core
// still maps it correctly, since handlers test with errors.Is.
var (
	ErrNotFound          = errors.New("driver: not found")
	ErrAccessDenied      = errors.New("driver: access denied")
	ErrAlreadyExists     = errors.New("driver: already exists")
	ErrNotDirectory      = errors.New("driver: not a directory")
	ErrIsDirectory       = errors.New("driver: is a directory")
	ErrDirectoryNotEmpty = errors.New("driver: directory not empty")
	ErrNoSpace           = errors.New("driver: no space left on device")
	ErrDiskQuota         = errors.New("driver: disk quota exceeded")
	ErrFileTooLarge      = errors.New("driver: file too large")
	ErrInvalid           = errors.New("driver: invalid argument")
	ErrNotSupported      = errors.New("driver: not supported")
	ErrStale             = errors.New("driver: stale")
)
