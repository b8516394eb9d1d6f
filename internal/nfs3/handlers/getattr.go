package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// GetAttr implements NFSPROC3_GETATTR (RFC 1813 §3.3.1). A malformed
// handle maps to BadHandle; when the handle references a
// file the session already has open, the reported size is overridden
// from the open file rather than a possibly-stale driver snapshot.
func GetAttr(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	reply := newReply(hc, 128)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return statusOnly(reply, nerr.Kind.ToStatus())
	}

	info, derr := res.Share.Driver.GetFileInformation(hc.Ctx, res.Tree, res.Path)
	if derr != nil {
		return statusOnly(reply, statusFromDriverErr(derr))
	}

	if nf, ok := hc.Session.FileCache.FindFile(res.ID, false); ok {
		info.Size = nf.Size
	}

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackFattr3(reply.Buf, info, fsid(res.Share)); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
