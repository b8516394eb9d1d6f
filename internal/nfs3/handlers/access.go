package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/handle"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// grantedMask computes the ACCESS3 grant: a share handle always
// grants the full requested mask, and a non-writable tree connection
// reduces the grant to read+lookup+execute regardless of what the
// driver would otherwise allow.
func grantedMask(res *resolved, tree driver.TreeConnection, requested uint32) uint32 {
	if res.Kind == handle.KindShare {
		return requested & types.AccessFull
	}
	if tree.ReadOnly() {
		allowed := uint32(types.AccessRead | types.AccessLookup | types.AccessExecute)
		return requested & allowed
	}
	return requested & types.AccessFull
}

// Access implements NFSPROC3_ACCESS (RFC 1813 §3.3.4).
func Access(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	requested, err := xdr.ReadUint32(args)
	if err != nil {
		return nil, err
	}

	reply := newReply(hc, 128)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return postOpReply(reply, nerr.Kind.ToStatus(), nil, 0)
	}

	var info *driver.FileInfo
	if res.Kind != handle.KindShare {
		info = getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	}

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, info, fsid(res.Share)); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(reply.Buf, grantedMask(res, res.Tree, requested)); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
