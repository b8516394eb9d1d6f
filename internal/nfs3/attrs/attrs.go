// Package attrs implements the NFS v3 attribute codec: packing fattr3,
// wcc_data, post_op_attr and file handles onto the wire, and unpacking
// the client-supplied sattr3 structure (RFC 1813 §2.5-2.6).
package attrs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/handle"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// defaultDirMode and defaultFileMode are the fallback Unix mode bits
// reported when the driver supplies no mode: 0040755 for directories,
// 0100777 for regular files.
const (
	defaultDirMode  uint32 = 0040755
	defaultFileMode uint32 = 0100777
)

func fileType(t driver.FileType) uint32 {
	switch t {
	case driver.TypeRegular:
		return types.FTypeRegular
	case driver.TypeDirectory:
		return types.FTypeDir
	case driver.TypeBlock:
		return types.FTypeBlock
	case driver.TypeCharacter:
		return types.FTypeChar
	case driver.TypeSymbolicLink:
		return types.FTypeLink
	case driver.TypeSocket:
		return types.FTypeSocket
	case driver.TypeFifo:
		return types.FTypeFifo
	default:
		return types.FTypeRegular
	}
}

func mode(info *driver.FileInfo) uint32 {
	if info.Mode != 0 {
		return info.Mode
	}
	if info.Type == driver.TypeDirectory {
		return defaultDirMode
	}
	return defaultFileMode
}

func size(info *driver.FileInfo) uint64 {
	if info.Type == driver.TypeDirectory {
		return 512
	}
	return info.Size
}

func used(info *driver.FileInfo) uint64 {
	if info.AllocationSize != 0 {
		return info.AllocationSize
	}
	return size(info)
}

// PackFattr3 encodes fattr3 (RFC 1813 §2.5) for info, using fsid as the
// filesystem id field. fileid3 is info.FileID offset by
// types.FileIDOffset.
func PackFattr3(buf *bytes.Buffer, info *driver.FileInfo, fsid uint64) error {
	writes := []func() error{
		func() error { return xdr.WriteUint32(buf, fileType(info.Type)) },
		func() error { return xdr.WriteUint32(buf, mode(info)) },
		func() error { return xdr.WriteUint32(buf, 1) }, // nlink
		func() error { return xdr.WriteUint32(buf, info.UID) },
		func() error { return xdr.WriteUint32(buf, info.GID) },
		func() error { return xdr.WriteUint64(buf, size(info)) },
		func() error { return xdr.WriteUint64(buf, used(info)) },
		func() error { return xdr.WriteUint32(buf, 0) }, // rdev.specdata1
		func() error { return xdr.WriteUint32(buf, 0) }, // rdev.specdata2
		func() error { return xdr.WriteUint64(buf, fsid) },
		func() error { return xdr.WriteUint64(buf, uint64(info.FileID)+uint64(types.FileIDOffset)) },
		func() error { return writeTime(buf, info.AccessTime) },
		func() error { return writeTime(buf, info.ModifyTime) },
		func() error { return writeTime(buf, info.ChangeTime) },
	}
	for _, w := range writes {
		if err := w(); err != nil {
			return fmt.Errorf("pack fattr3: %w", err)
		}
	}
	return nil
}

// writeTime packs an nfstime3 with nanoseconds always zero; times are
// only tracked to the second on the wire.
func writeTime(buf *bytes.Buffer, t interface{ Unix() int64 }) error {
	if err := xdr.WriteUint32(buf, uint32(t.Unix())); err != nil {
		return err
	}
	return xdr.WriteUint32(buf, 0)
}

// PackPostOpAttr encodes post_op_attr: (bool_present, fattr3?). info
// nil encodes the absent case.
func PackPostOpAttr(buf *bytes.Buffer, info *driver.FileInfo, fsid uint64) error {
	if info == nil {
		return xdr.WriteBool(buf, false)
	}
	if err := xdr.WriteBool(buf, true); err != nil {
		return err
	}
	return PackFattr3(buf, info, fsid)
}

// PackWccAttr encodes the minimal pre-operation snapshot wcc_attr:
// (bool_present, (size, mtime, ctime)?). info nil encodes the absent
// case.
func PackWccAttr(buf *bytes.Buffer, info *driver.FileInfo) error {
	if info == nil {
		return xdr.WriteBool(buf, false)
	}
	if err := xdr.WriteBool(buf, true); err != nil {
		return err
	}
	if err := xdr.WriteUint64(buf, size(info)); err != nil {
		return err
	}
	if err := writeTime(buf, info.ModifyTime); err != nil {
		return err
	}
	return writeTime(buf, info.ChangeTime)
}

// PackPreOpAttr is an alias of PackWccAttr.
func PackPreOpAttr(buf *bytes.Buffer, info *driver.FileInfo) error {
	return PackWccAttr(buf, info)
}

// PackWccData encodes a full wcc_data: the pre-operation wcc_attr
// followed by the post-operation post_op_attr, the bracket every
// mutating procedure emits around its operation.
func PackWccData(buf *bytes.Buffer, pre, post *driver.FileInfo, fsid uint64) error {
	if err := PackPreOpAttr(buf, pre); err != nil {
		return fmt.Errorf("pack wcc_data pre: %w", err)
	}
	if err := PackPostOpAttr(buf, post, fsid); err != nil {
		return fmt.Errorf("pack wcc_data post: %w", err)
	}
	return nil
}

// PackEmptyWccData encodes a wcc_data with both halves absent, the
// error-path shape for a mutating operation that failed before taking
// either snapshot.
func PackEmptyWccData(buf *bytes.Buffer) error {
	return PackWccData(buf, nil, nil, 0)
}

// PackFileHandle3 encodes a 32-byte file handle as the variable-length
// opaque nfs_fh3 (RFC 1813 §2.5.3: length-prefixed, clients must
// preserve the bytes verbatim).
func PackFileHandle3(buf *bytes.Buffer, h [handle.Size]byte) error {
	return xdr.WriteOpaque(buf, handle.Bytes(h))
}

// UnpackFileHandle3 decodes an nfs_fh3 into the fixed handle form.
func UnpackFileHandle3(r io.Reader) ([handle.Size]byte, error) {
	data, err := xdr.ReadOpaque(r)
	if err != nil {
		return [handle.Size]byte{}, fmt.Errorf("unpack file handle: %w", err)
	}
	h, ok := handle.FromBytes(data)
	if !ok {
		return h, fmt.Errorf("unpack file handle: wrong length %d, want %d", len(data), handle.Size)
	}
	return h, nil
}
