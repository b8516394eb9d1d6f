package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// properties3 bits (FSF3_*, RFC 1813 §3.3.19).
const (
	fsfLink        uint32 = 0x0001
	fsfSymlink     uint32 = 0x0002
	fsfHomogeneous uint32 = 0x0008
	fsfCanSetTime  uint32 = 0x0010
)

// Static transfer-size caps reported for every share: the
// core never negotiates these up or down per request.
const (
	fsInfoMaxIOSize     uint32 = 64 * 1024
	fsInfoPreferredSize uint32 = 32 * 1024
	fsInfoIOMultiple    uint32 = 4096
	fsInfoDirPref       uint32 = 32 * 1024
	fsInfoMaxFileSize   uint64 = 1 << 44
)

// FsInfo implements NFSPROC3_FSINFO (RFC 1813 §3.3.19). All fields are
// fixed constants except the FSF3_SYMLINK bit, which tracks whether
// the share has symbolic links enabled.
func FsInfo(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}

	reply := newReply(hc, 160)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return postOpReply(reply, nerr.Kind.ToStatus(), nil, 0)
	}

	attrsInfo := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)

	props := fsfHomogeneous | fsfCanSetTime
	if res.Share.Settings.SymbolicLinksEnabled {
		props |= fsfSymlink
	}

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, attrsInfo, fsid(res.Share)); err != nil {
		return nil, err
	}
	for _, v := range []uint32{fsInfoMaxIOSize, fsInfoPreferredSize, fsInfoIOMultiple, fsInfoMaxIOSize, fsInfoPreferredSize, fsInfoIOMultiple, fsInfoDirPref} {
		if err := xdr.WriteUint32(reply.Buf, v); err != nil {
			return nil, err
		}
	}
	if err := xdr.WriteUint64(reply.Buf, fsInfoMaxFileSize); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(reply.Buf, 1); err != nil { // time_delta seconds
		return nil, err
	}
	if err := xdr.WriteUint32(reply.Buf, 0); err != nil { // time_delta nseconds
		return nil, err
	}
	if err := xdr.WriteUint32(reply.Buf, props); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
