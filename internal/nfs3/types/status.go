// Package types holds the wire-level vocabulary shared by every NFS v3
// procedure handler: status codes, file attribute structures, and the
// constants the RFC 1813 argument structures are built from.
package types

// NFS v3 status codes (RFC 1813 §2.2, nfsstat3). Values match the RFC
// numbering exactly so they can be written straight onto the wire.
const (
	NFS3OK             uint32 = 0
	NFS3ErrPerm        uint32 = 1
	NFS3ErrNoEnt       uint32 = 2
	NFS3ErrIO          uint32 = 5
	NFS3ErrNxIO        uint32 = 6
	NFS3ErrAcces       uint32 = 13
	NFS3ErrExist       uint32 = 17
	NFS3ErrXDev        uint32 = 18
	NFS3ErrNoDev       uint32 = 19
	NFS3ErrNotDir      uint32 = 20
	NFS3ErrIsDir       uint32 = 21
	NFS3ErrInVal       uint32 = 22
	NFS3ErrFBig        uint32 = 27
	NFS3ErrNoSpc       uint32 = 28
	NFS3ErrRoFs        uint32 = 30
	NFS3ErrMLink       uint32 = 31
	NFS3ErrNameTooLong uint32 = 63
	NFS3ErrNotEmpty    uint32 = 66
	NFS3ErrDQuot       uint32 = 69
	NFS3ErrStale       uint32 = 70
	NFS3ErrRemote      uint32 = 71
	NFS3ErrBadHandle   uint32 = 10001
	NFS3ErrNotSync     uint32 = 10002
	NFS3ErrBadCookie   uint32 = 10003
	NFS3ErrNotSupp     uint32 = 10004
	NFS3ErrTooSmall    uint32 = 10005
	NFS3ErrServerFault uint32 = 10006
	NFS3ErrBadType     uint32 = 10007
	NFS3ErrJukebox     uint32 = 10008
)

// StatusName returns the RFC mnemonic for a status code, used for
// metrics labels and log fields so operators see "NFS3ERR_NOENT"
// instead of a bare integer.
func StatusName(status uint32) string {
	switch status {
	case NFS3OK:
		return "NFS3_OK"
	case NFS3ErrPerm:
		return "NFS3ERR_PERM"
	case NFS3ErrNoEnt:
		return "NFS3ERR_NOENT"
	case NFS3ErrIO:
		return "NFS3ERR_IO"
	case NFS3ErrNxIO:
		return "NFS3ERR_NXIO"
	case NFS3ErrAcces:
		return "NFS3ERR_ACCES"
	case NFS3ErrExist:
		return "NFS3ERR_EXIST"
	case NFS3ErrXDev:
		return "NFS3ERR_XDEV"
	case NFS3ErrNoDev:
		return "NFS3ERR_NODEV"
	case NFS3ErrNotDir:
		return "NFS3ERR_NOTDIR"
	case NFS3ErrIsDir:
		return "NFS3ERR_ISDIR"
	case NFS3ErrInVal:
		return "NFS3ERR_INVAL"
	case NFS3ErrFBig:
		return "NFS3ERR_FBIG"
	case NFS3ErrNoSpc:
		return "NFS3ERR_NOSPC"
	case NFS3ErrRoFs:
		return "NFS3ERR_ROFS"
	case NFS3ErrMLink:
		return "NFS3ERR_MLINK"
	case NFS3ErrNameTooLong:
		return "NFS3ERR_NAMETOOLONG"
	case NFS3ErrNotEmpty:
		return "NFS3ERR_NOTEMPTY"
	case NFS3ErrDQuot:
		return "NFS3ERR_DQUOT"
	case NFS3ErrStale:
		return "NFS3ERR_STALE"
	case NFS3ErrRemote:
		return "NFS3ERR_REMOTE"
	case NFS3ErrBadHandle:
		return "NFS3ERR_BADHANDLE"
	case NFS3ErrNotSync:
		return "NFS3ERR_NOT_SYNC"
	case NFS3ErrBadCookie:
		return "NFS3ERR_BAD_COOKIE"
	case NFS3ErrNotSupp:
		return "NFS3ERR_NOTSUPP"
	case NFS3ErrTooSmall:
		return "NFS3ERR_TOOSMALL"
	case NFS3ErrServerFault:
		return "NFS3ERR_SERVERFAULT"
	case NFS3ErrBadType:
		return "NFS3ERR_BADTYPE"
	case NFS3ErrJukebox:
		return "NFS3ERR_JUKEBOX"
	default:
		return "NFS3ERR_UNKNOWN"
	}
}

// File type tag (ftype3, RFC 1813 §2.5).
const (
	FTypeRegular uint32 = 1
	FTypeDir     uint32 = 2
	FTypeBlock   uint32 = 3
	FTypeChar    uint32 = 4
	FTypeLink    uint32 = 5
	FTypeSocket  uint32 = 6
	FTypeFifo    uint32 = 7
)

// Stable-storage level for WRITE (stable_how, RFC 1813 §3.3.8).
const (
	Unstable uint32 = 0
	DataSync uint32 = 1
	FileSync uint32 = 2
)

// Create mode (createmode3, RFC 1813 §3.3.9).
const (
	Unchecked uint32 = 0
	Guarded   uint32 = 1
	Exclusive uint32 = 2
)

// Time-setting tag shared by sattr3.atime/mtime (time_how, RFC 1813 §2.6).
const (
	DontChangeTime  uint32 = 0
	SetToServerTime uint32 = 1
	SetToClientTime uint32 = 2
)

// Access mask bits (ACCESS3args.access, RFC 1813 §3.3.4).
const (
	AccessRead    uint32 = 0x0001
	AccessLookup  uint32 = 0x0002
	AccessModify  uint32 = 0x0004
	AccessExtend  uint32 = 0x0008
	AccessDelete  uint32 = 0x0010
	AccessExecute uint32 = 0x0020
	AccessFull    = AccessRead | AccessLookup | AccessModify | AccessExtend | AccessDelete | AccessExecute
)

// FileIDOffset hides driver file ids 0 and 1 from the wire, which
// some NFS clients treat specially.
const FileIDOffset = 2
