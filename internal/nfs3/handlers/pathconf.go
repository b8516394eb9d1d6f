package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// Fixed pathconf3 values every share reports. An NTFS-
// or SMB-backed driver genuinely behaves this way: case-insensitive,
// case-preserving, no silent name truncation.
const (
	pathConfLinkMax uint32 = 32767
	pathConfNameMax uint32 = 255
)

// PathConf implements NFSPROC3_PATHCONF (RFC 1813 §3.3.20).
func PathConf(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}

	reply := newReply(hc, 128)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return postOpReply(reply, nerr.Kind.ToStatus(), nil, 0)
	}

	info := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, info, fsid(res.Share)); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(reply.Buf, pathConfLinkMax); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(reply.Buf, pathConfNameMax); err != nil {
		return nil, err
	}
	for _, v := range []bool{true, true, true, true} { // no_trunc, chown_restricted, case_insensitive, case_preserving
		if err := xdr.WriteBool(reply.Buf, v); err != nil {
			return nil, err
		}
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
