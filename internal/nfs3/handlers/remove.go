package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// Remove implements NFSPROC3_REMOVE (RFC 1813 §3.3.12). A directory
// at the target name is IsDir, not NoEnt; on success the file-id
// cache entry and any open NetworkFile for the removed path are
// evicted so neither outlives the file.
func Remove(hc *Context, args *bytes.Reader) (*Result, error) {
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
	if info.Type == driver.TypeDirectory {
		return wccReply(reply, types.NFS3ErrIsDir, pre, pre, fsid(res.Share))
	}

	if derr := res.Share.Driver.DeleteFile(hc.Ctx, res.Tree, target); derr != nil {
		post := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
		return wccReply(reply, statusFromDriverErr(derr), pre, post, fsid(res.Share))
	}

	if nf, ok := hc.Session.FileCache.RemoveFile(info.FileID); ok {
		nf.Mu.Lock()
		_ = nf.Driver.Close(hc.Ctx)
		nf.Mu.Unlock()
	}
	res.Share.FileIDs.DeletePath(info.FileID)

	post := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	return wccReply(reply, types.NFS3OK, pre, post, fsid(res.Share))
}
