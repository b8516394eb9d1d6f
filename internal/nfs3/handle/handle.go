// Package handle implements the opaque 32-byte NFS v3 file handle: a
// fixed-size, server-opaque token that discriminates between the three
// handle kinds a client ever holds (a share root, a directory, or a
// file) and carries just enough of the server's own addressing scheme,
// share id, directory id and file id, to resolve back to a path via
// the file-id cache.
//
// The layout is deliberately simple and fixed-width rather than
// reflection-packed; its shape never changes.
package handle

import "encoding/binary"

// Size is the wire length of a file handle.
const Size = 32

// magic identifies handles produced by this server generation. A
// handle whose first byte doesn't match is never considered valid,
// which is how IsValid() rejects handles from an unrelated server or
// garbage client input.
const magic byte = 0x4E // 'N'

// Kind discriminates the three handle variants.
type Kind int

const (
	// KindInvalid is returned for a handle that doesn't carry the
	// expected magic byte or an unrecognized kind tag.
	KindInvalid Kind = iota
	KindShare
	KindDirectory
	KindFile
)

const (
	offMagic = 0
	offKind  = 1
	offShare = 4
	offDir   = 8
	offFile  = 12
)

// kindTag is the wire byte for each Kind; KindInvalid never appears on
// the wire, only as a decode result.
func kindTag(k Kind) byte {
	switch k {
	case KindShare:
		return 1
	case KindDirectory:
		return 2
	case KindFile:
		return 3
	default:
		return 0
	}
}

func pack(kind Kind, shareID, dirID, fileID uint32) [Size]byte {
	var h [Size]byte
	h[offMagic] = magic
	h[offKind] = kindTag(kind)
	binary.BigEndian.PutUint32(h[offShare:], shareID)
	binary.BigEndian.PutUint32(h[offDir:], dirID)
	binary.BigEndian.PutUint32(h[offFile:], fileID)
	return h
}

// PackShareHandle builds the handle a client receives for a share's
// root: its directory and file ids are meaningless and left zero.
func PackShareHandle(shareID uint32) [Size]byte {
	return pack(KindShare, shareID, 0, 0)
}

// PackDirectoryHandle builds a handle addressing a directory by the
// driver's own directory id.
func PackDirectoryHandle(shareID, dirID uint32) [Size]byte {
	return pack(KindDirectory, shareID, dirID, 0)
}

// PackFileHandle builds a handle addressing a file within a directory.
func PackFileHandle(shareID, dirID, fileID uint32) [Size]byte {
	return pack(KindFile, shareID, dirID, fileID)
}

// KindOf reports which variant a handle encodes, or KindInvalid if the
// magic byte or kind tag is unrecognized.
func KindOf(h [Size]byte) Kind {
	if h[offMagic] != magic {
		return KindInvalid
	}
	switch h[offKind] {
	case 1:
		return KindShare
	case 2:
		return KindDirectory
	case 3:
		return KindFile
	default:
		return KindInvalid
	}
}

// IsValid reports whether h carries the server's magic byte and a
// recognized kind tag. It says nothing about whether the ids inside
// still resolve to a live object -- that's a Stale error, not an
// invalid-handle error.
func IsValid(h [Size]byte) bool {
	return KindOf(h) != KindInvalid
}

// UnpackShareID returns the share id embedded in any handle kind.
func UnpackShareID(h [Size]byte) uint32 {
	return binary.BigEndian.Uint32(h[offShare:])
}

// UnpackDirectoryID returns the directory id for a Directory or File
// handle. A Share handle has no directory id and this returns 0.
func UnpackDirectoryID(h [Size]byte) uint32 {
	if KindOf(h) == KindShare {
		return 0
	}
	return binary.BigEndian.Uint32(h[offDir:])
}

// UnpackFileID returns the file id for a File handle. Any other kind
// has no file id and this returns the sentinel -1.
func UnpackFileID(h [Size]byte) int64 {
	if KindOf(h) != KindFile {
		return -1
	}
	return int64(binary.BigEndian.Uint32(h[offFile:]))
}

// FromBytes copies a wire-received handle into the fixed array form
// used throughout the core, reporting ok=false when b is not exactly
// Size bytes long.
func FromBytes(b []byte) (h [Size]byte, ok bool) {
	if len(b) != Size {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

// Bytes returns the wire form of h.
func Bytes(h [Size]byte) []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}
