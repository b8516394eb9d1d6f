package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/logger"
	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/session"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// Write implements NFSPROC3_WRITE (RFC 1813 §3.3.7). The file's
// NetworkFile monitor is held for the duration of the driver call,
// and the session's file cache upgrades the entry to ReadWrite if it
// only had a ReadOnly one cached.
func Write(hc *Context, args *bytes.Reader) (*Result, error) {
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
	stable, err := xdr.ReadUint32(args)
	if err != nil {
		return nil, err
	}
	data, err := xdr.ReadOpaque(args)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) > count {
		data = data[:count]
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

	nf, derr := session.GetNetworkFileForHandle(hc.Ctx, hc.Session, res.Share, res.ID, res.Path, false)
	if derr != nil {
		return wccReply(reply, statusFromDriverErr(derr), pre, pre, fsid(res.Share))
	}

	nf.Mu.Lock()
	derr = res.Share.Driver.WriteFile(hc.Ctx, res.Tree, nf.Driver, data, offset)
	if derr == nil && offset+uint64(len(data)) > nf.Size {
		nf.Size = offset + uint64(len(data))
	}
	nf.Mu.Unlock()

	post := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	if derr != nil {
		return wccReply(reply, statusFromDriverErr(derr), pre, post, fsid(res.Share))
	}
	if hc.Session.HasDebug(session.DebugFileIO) {
		logger.DebugCtx(hc.Ctx, "WRITE", "path", res.Path, "offset", offset, "count", len(data), "stable", stable)
	}
	if hc.Metrics != nil {
		hc.Metrics.RecordBytesTransferred("WRITE", "write", uint64(len(data)))
	}

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackWccData(reply.Buf, pre, post, fsid(res.Share)); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(reply.Buf, uint32(len(data))); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(reply.Buf, stable); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint64(reply.Buf, hc.Shares.WriteVerifier); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
