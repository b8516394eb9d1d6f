package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// staticDiskInfo is the fallback FSSTAT3res payload for a driver that
// doesn't implement driver.DiskSizeInterface: large
// enough that no client treats the share as nearly full.
var staticDiskInfo = driver.DiskInfo{
	TotalBytes:     1 << 40,
	FreeBytes:      1 << 39,
	AvailableBytes: 1 << 39,
	TotalFiles:     1 << 20,
	FreeFiles:      1 << 19,
	AvailableFiles: 1 << 19,
}

// FsStat implements NFSPROC3_FSSTAT (RFC 1813 §3.3.18). Disk sizes
// come from the driver's optional DiskSizeInterface when present,
// otherwise from the static fallback above.
func FsStat(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}

	reply := newReply(hc, 160)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return postOpReply(reply, nerr.Kind.ToStatus(), nil, 0)
	}

	var info *driver.FileInfo
	if res.Path != "" {
		info = getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	}

	disk := staticDiskInfo
	if sizer, ok := res.Share.Driver.(driver.DiskSizeInterface); ok {
		if d, derr := sizer.GetDiskInformation(hc.Ctx, res.Tree); derr == nil {
			disk = *d
		}
	}

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, info, fsid(res.Share)); err != nil {
		return nil, err
	}
	for _, v := range []uint64{disk.TotalBytes, disk.FreeBytes, disk.AvailableBytes, disk.TotalFiles, disk.FreeFiles, disk.AvailableFiles} {
		if err := xdr.WriteUint64(reply.Buf, v); err != nil {
			return nil, err
		}
	}
	if err := xdr.WriteUint32(reply.Buf, 0); err != nil { // invarsec: seconds until the above are likely to change
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
