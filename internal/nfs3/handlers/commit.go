package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// Commit implements NFSPROC3_COMMIT (RFC 1813 §3.3.21). The driver
// contract gives the core no async-write buffer to flush, so this is a
// no-op beyond bracketing wcc_data and echoing the server's write
// verifier -- every WRITE this core performs is already
// durable by the time it returns.
func Commit(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	if _, err := xdr.ReadUint64(args); err != nil { // offset
		return nil, err
	}
	if _, err := xdr.ReadUint32(args); err != nil { // count
		return nil, err
	}

	reply := newReply(hc, 128)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return wccErrorReply(reply, nerr.Kind.ToStatus())
	}

	info := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackWccData(reply.Buf, info, info, fsid(res.Share)); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint64(reply.Buf, hc.Shares.WriteVerifier); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
