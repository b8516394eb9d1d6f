package handlers

import (
	"bytes"
	"path"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/handle"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// MkDir implements NFSPROC3_MKDIR (RFC 1813 §3.3.9). Any existing
// entry at the target name, file or directory, is Exist, unlike
// CREATE which distinguishes the two.
func MkDir(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	name, err := xdr.ReadString(args)
	if err != nil {
		return nil, err
	}
	sa, err := attrs.UnpackSAttr3(args)
	if err != nil {
		return nil, err
	}

	reply := newReply(hc, 512)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return wccErrorReply(reply, nerr.Kind.ToStatus())
	}
	if nerr := requireWritable(res.Tree); nerr != nil {
		return wccErrorReply(reply, nerr.Kind.ToStatus())
	}

	pre := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	target := path.Join(res.Path, name)

	if existence, derr := res.Share.Driver.FileExists(hc.Ctx, res.Tree, target); derr == nil && existence != driver.NotExist {
		return wccReply(reply, types.NFS3ErrExist, pre, pre, fsid(res.Share))
	}

	params := driver.OpenParams{Mode: sa.Mode, UID: sa.UID, GID: sa.GID}
	if derr := res.Share.Driver.CreateDirectory(hc.Ctx, res.Tree, target, params); derr != nil {
		return wccReply(reply, statusFromDriverErr(derr), pre, pre, fsid(res.Share))
	}

	info, derr := res.Share.Driver.GetFileInformation(hc.Ctx, res.Tree, target)
	post := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	if derr != nil {
		return wccReply(reply, statusFromDriverErr(derr), pre, post, fsid(res.Share))
	}

	res.Share.FileIDs.AddPath(info.FileID, target)
	childHandle := handle.PackDirectoryHandle(res.Share.ID, info.FileID)

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := packHandleAndAttrs(reply.Buf, childHandle, info, fsid(res.Share)); err != nil {
		return nil, err
	}
	if err := attrs.PackWccData(reply.Buf, pre, post, fsid(res.Share)); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
