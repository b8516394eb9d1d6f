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

// SymLink implements NFSPROC3_SYMLINK (RFC 1813 §3.3.10). Disabled at
// the share level or unsupported by the driver, it's NotSupp outright;
// otherwise it shares CREATE/MKDIR's response shape.
func SymLink(hc *Context, args *bytes.Reader) (*Result, error) {
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
	target, err := xdr.ReadString(args)
	if err != nil {
		return nil, err
	}

	reply := newReply(hc, 512)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return wccErrorReply(reply, nerr.Kind.ToStatus())
	}
	if !res.Share.Settings.SymbolicLinksEnabled {
		return wccErrorReply(reply, types.NFS3ErrNotSupp)
	}
	symDriver, ok := res.Share.Driver.(driver.SymbolicLinkInterface)
	if !ok {
		return wccErrorReply(reply, types.NFS3ErrNotSupp)
	}
	if nerr := requireWritable(res.Tree); nerr != nil {
		return wccErrorReply(reply, nerr.Kind.ToStatus())
	}

	pre := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	linkPath := path.Join(res.Path, name)

	if existence, derr := res.Share.Driver.FileExists(hc.Ctx, res.Tree, linkPath); derr == nil && existence != driver.NotExist {
		return wccReply(reply, types.NFS3ErrExist, pre, pre, fsid(res.Share))
	}

	params := driver.OpenParams{Mode: sa.Mode, UID: sa.UID, GID: sa.GID}
	if derr := symDriver.CreateSymbolicLink(hc.Ctx, res.Tree, linkPath, target, params); derr != nil {
		return wccReply(reply, statusFromDriverErr(derr), pre, pre, fsid(res.Share))
	}

	info, derr := res.Share.Driver.GetFileInformation(hc.Ctx, res.Tree, linkPath)
	post := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	if derr != nil {
		return wccReply(reply, statusFromDriverErr(derr), pre, post, fsid(res.Share))
	}

	res.Share.FileIDs.AddPath(info.FileID, linkPath)
	childHandle := handle.PackFileHandle(res.Share.ID, dirIDOf(res), info.FileID)

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
