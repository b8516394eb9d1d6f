package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// MkNode implements NFSPROC3_MKNOD (RFC 1813 §3.3.11). Device and
// special-file creation is always NotSupp; the handler
// still reads the directory handle and name so a malformed request is
// distinguished from a well-formed unsupported one.
func MkNode(hc *Context, args *bytes.Reader) (*Result, error) {
	if _, err := attrs.UnpackFileHandle3(args); err != nil {
		return nil, err
	}
	if _, err := xdr.ReadString(args); err != nil {
		return nil, err
	}

	reply := newReply(hc, 128)
	return wccErrorReply(reply, types.NFS3ErrNotSupp)
}
