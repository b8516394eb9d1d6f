package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// RmDir implements NFSPROC3_RMDIR (RFC 1813 §3.3.13). A non-directory
// target is NoEnt, a non-empty directory is NotEmpty; the driver's
// ErrDirectoryNotEmpty sentinel maps to the latter automatically via
// statusFromDriverErr.
func RmDir(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	name, err := xdr.ReadString(args)
	if err != nil {
		return nil, err
	}

	reply := newReply(hc, 128)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return wccErrorReply(reply, nerr.Kind.ToStatus())
	}
	if nerr := requireWritable(res.Tree); nerr != nil {
		return wccErrorReply(reply, nerr.Kind.ToStatus())
	}

	pre := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	target := childPath(res.Path, name)

	info, derr := res.Share.Driver.GetFileInformation(hc.Ctx, res.Tree, target)
	if derr != nil {
		return wccReply(reply, statusFromDriverErr(derr), pre, pre, fsid(res.Share))
	}
	if info.Type != driver.TypeDirectory {
		return wccReply(reply, types.NFS3ErrNoEnt, pre, pre, fsid(res.Share))
	}

	if derr := res.Share.Driver.DeleteDirectory(hc.Ctx, res.Tree, target); derr != nil {
		post := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
		return wccReply(reply, statusFromDriverErr(derr), pre, post, fsid(res.Share))
	}

	res.Share.FileIDs.DeletePath(info.FileID)

	post := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	return wccReply(reply, types.NFS3OK, pre, post, fsid(res.Share))
}
