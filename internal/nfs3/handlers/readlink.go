package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// ReadLink implements NFSPROC3_READLINK (RFC 1813 §3.3.5). A driver
// that doesn't implement driver.SymbolicLinkInterface makes this
// NotSupp outright; otherwise the target must actually be a symlink or
// the call is InVal.
func ReadLink(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}

	reply := newReply(hc, 4096)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return postOpReply(reply, nerr.Kind.ToStatus(), nil, 0)
	}

	symDriver, ok := res.Share.Driver.(driver.SymbolicLinkInterface)
	if !ok {
		return postOpReply(reply, types.NFS3ErrNotSupp, nil, 0)
	}

	info, derr := res.Share.Driver.GetFileInformation(hc.Ctx, res.Tree, res.Path)
	if derr != nil {
		return postOpReply(reply, statusFromDriverErr(derr), nil, fsid(res.Share))
	}
	if info.Type != driver.TypeSymbolicLink {
		return postOpReply(reply, types.NFS3ErrInVal, info, fsid(res.Share))
	}

	target, derr := symDriver.ReadSymbolicLink(hc.Ctx, res.Tree, res.Path)
	if derr != nil {
		return postOpReply(reply, statusFromDriverErr(derr), info, fsid(res.Share))
	}

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, info, fsid(res.Share)); err != nil {
		return nil, err
	}
	if err := xdr.WriteString(reply.Buf, target); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
