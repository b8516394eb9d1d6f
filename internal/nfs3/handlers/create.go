package handlers

import (
	"bytes"
	"path"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/filecache"
	"github.com/nfscore/nfsv3d/internal/nfs3/handle"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// Create implements NFSPROC3_CREATE (RFC 1813 §3.3.8). An existing
// file is Exist, an existing directory at the same name is IsDir; on
// success the new file is opened immediately and seeded into the
// session's file cache so the client's first WRITE doesn't pay a
// reopen.
func Create(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	name, err := xdr.ReadString(args)
	if err != nil {
		return nil, err
	}
	createMode, err := xdr.ReadUint32(args)
	if err != nil {
		return nil, err
	}

	var params driver.OpenParams
	switch createMode {
	case types.Exclusive:
		if _, err := xdr.ReadFixedOpaque(args, 8); err != nil {
			return nil, err
		}
		params.CreateMode = driver.Exclusive
	default:
		sa, err := attrs.UnpackSAttr3(args)
		if err != nil {
			return nil, err
		}
		params.Mode, params.UID, params.GID, params.Size = sa.Mode, sa.UID, sa.GID, sa.Size
		if createMode == types.Guarded {
			params.CreateMode = driver.Guarded
		} else {
			params.CreateMode = driver.Unchecked
		}
	}
	params.Access = driver.ReadWrite

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

	if params.CreateMode != driver.Exclusive {
		existence, derr := res.Share.Driver.FileExists(hc.Ctx, res.Tree, target)
		if derr == nil {
			switch existence {
			case driver.FileExists:
				return wccReply(reply, types.NFS3ErrExist, pre, pre, fsid(res.Share))
			case driver.DirectoryExists:
				return wccReply(reply, types.NFS3ErrIsDir, pre, pre, fsid(res.Share))
			}
		}
	}

	opened, derr := res.Share.Driver.CreateFile(hc.Ctx, res.Tree, target, params)
	if derr != nil {
		return wccReply(reply, statusFromDriverErr(derr), pre, pre, fsid(res.Share))
	}

	info, derr := res.Share.Driver.GetFileInformation(hc.Ctx, res.Tree, target)
	post := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	if derr != nil {
		return wccReply(reply, statusFromDriverErr(derr), pre, post, fsid(res.Share))
	}

	res.Share.FileIDs.AddPath(info.FileID, target)
	hc.Session.FileCache.AddFile(&filecache.NetworkFile{
		FileID: info.FileID,
		Path:   target,
		Access: driver.ReadWrite,
		Size:   info.Size,
		Opened: true,
		Driver: opened,
	})

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
