// Package handlers implements the 22 NFS v3 procedures of RFC 1813
// §3.3: argument unpacking, handle resolution through the
// file-id cache, the driver call, and response framing through the
// XDR attribute codec. Each procedure lives in its own file, named
// after the RFC 1813 procedure it implements.
package handlers

import (
	"context"

	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/session"
	"github.com/nfscore/nfsv3d/internal/nfs3/share"
	"github.com/nfscore/nfsv3d/internal/rpc"
)

// Metrics is the slice of the server's observability surface the
// handlers feed directly: payload byte counts for READ and WRITE. A
// nil Metrics disables recording; pkg/metrics.NFSMetrics satisfies it.
type Metrics interface {
	RecordBytesTransferred(procedure string, direction string, bytes uint64)
}

// Context is the per-request state threaded through exactly one
// procedure call: the request's Go context, the session it belongs to,
// the share registry used to resolve handles, the packet pool a
// handler draws from when it needs a reply larger than the caller's
// request packet, and the optional metrics sink.
type Context struct {
	Ctx     context.Context
	Session *session.Session
	Shares  *share.Registry
	Pool    rpc.Pool
	Metrics Metrics
}

// Result is what every handler hands back to the dispatcher: the
// packed reply and the status code it embeds, duplicated here so the
// dispatcher can log/meter it without re-parsing the buffer it just
// received.
type Result struct {
	Reply  *rpc.Reply
	Status uint32
}

// treeFor returns the tree connection this session has bound for sd,
// falling back to the share's own template connection when the
// session hasn't connected yet.
func treeFor(hc *Context, sd *share.Details) driver.TreeConnection {
	if t, ok := hc.Session.FindConnection(sd.ID); ok {
		return t
	}
	return sd.Tree
}
