package handlers

import "github.com/nfscore/nfsv3d/internal/nfs3/types"

// Null implements NFSPROC3_NULL (RFC 1813 §3.3.0): a void-in, void-out
// ping with no status code at all, used by clients and health checks
// to test connectivity without touching the filesystem.
func Null(hc *Context) (*Result, error) {
	reply := newReply(hc, 0)
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
