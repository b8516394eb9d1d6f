package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// Link implements NFSPROC3_LINK (RFC 1813 §3.3.15). Hard links are
// always denied; the reply shape is LINK3res's
// post_op_attr (the linked object) followed by a wcc_data (the target
// directory), both empty.
func Link(hc *Context, args *bytes.Reader) (*Result, error) {
	if _, err := attrs.UnpackFileHandle3(args); err != nil {
		return nil, err
	}
	if _, err := attrs.UnpackFileHandle3(args); err != nil {
		return nil, err
	}
	if _, err := xdr.ReadString(args); err != nil {
		return nil, err
	}

	reply := newReply(hc, 128)
	if err := xdr.WriteUint32(reply.Buf, types.NFS3ErrAcces); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, nil, 0); err != nil {
		return nil, err
	}
	if err := attrs.PackEmptyWccData(reply.Buf); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3ErrAcces}, nil
}
