package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/logger"
	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/session"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// Read implements NFSPROC3_READ (RFC 1813 §3.3.6). The file is opened
// via the session's file cache in read mode; eof is
// true exactly when the requested range reaches or exceeds the
// file's current size.
func Read(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	offset, err := xdr.ReadUint64(args)
	if err != nil {
		return nil, err
	}
	count, err := xdr.ReadUint32(args)
	if err != nil {
		return nil, err
	}
	// count is client-controlled and sizes both the read buffer and the
	// reply; never honor more than the rtmax FSINFO advertises.
	if count > fsInfoMaxIOSize {
		count = fsInfoMaxIOSize
	}

	reply := newReply(hc, 128+int(count))

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return postOpReply(reply, nerr.Kind.ToStatus(), nil, 0)
	}

	nf, derr := session.GetNetworkFileForHandle(hc.Ctx, hc.Session, res.Share, res.ID, res.Path, true)
	if derr != nil {
		return postOpReply(reply, statusFromDriverErr(derr), nil, fsid(res.Share))
	}

	buf := make([]byte, count)
	nf.Mu.Lock()
	n, derr := res.Share.Driver.ReadFile(hc.Ctx, res.Tree, nf.Driver, buf, offset)
	size := nf.Size
	nf.Mu.Unlock()
	if derr != nil {
		info := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
		return postOpReply(reply, statusFromDriverErr(derr), info, fsid(res.Share))
	}
	buf = buf[:n]

	if hc.Session.HasDebug(session.DebugFileIO) {
		logger.DebugCtx(hc.Ctx, "READ", "path", res.Path, "offset", offset, "count", count, "read", n)
	}
	if hc.Metrics != nil {
		hc.Metrics.RecordBytesTransferred("READ", "read", uint64(len(buf)))
	}

	info := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	eof := offset+uint64(n) >= size

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, info, fsid(res.Share)); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(reply.Buf, uint32(len(buf))); err != nil {
		return nil, err
	}
	if err := xdr.WriteBool(reply.Buf, eof); err != nil {
		return nil, err
	}
	if err := xdr.WriteOpaque(reply.Buf, buf); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
