// Package dispatch maps an NFS v3 procedure number to its handler and
// runs the fixed sequence of steps around every call: invoke the
// handler, end the session's driver transaction, record metrics, hand
// the response back.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/nfscore/nfsv3d/internal/logger"
	"github.com/nfscore/nfsv3d/internal/nfs3/handlers"
	"github.com/nfscore/nfsv3d/internal/nfs3/session"
	"github.com/nfscore/nfsv3d/internal/nfs3/share"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/rpc"
)

// Procedure numbers (NFS_PROGRAM version 3, RFC 1813 §3.3).
const (
	ProcNull uint32 = iota
	ProcGetAttr
	ProcSetAttr
	ProcLookup
	ProcAccess
	ProcReadLink
	ProcRead
	ProcWrite
	ProcCreate
	ProcMkDir
	ProcSymLink
	ProcMkNode
	ProcRemove
	ProcRmDir
	ProcRename
	ProcLink
	ProcReadDir
	ProcReadDirPlus
	ProcFsStat
	ProcFsInfo
	ProcPathConf
	ProcCommit
)

// ErrProcedureUnavailable is returned for a procedure number the
// table doesn't recognize; the RPC transport maps this to the
// generic accept_stat PROC_UNAVAIL reply, not
// to any NFS3ERR_* status -- an unknown procedure never reaches an
// NFS handler at all.
var ErrProcedureUnavailable = errors.New("dispatch: procedure unavailable")

type procedureHandler func(hc *handlers.Context, args *bytes.Reader) (*handlers.Result, error)

type procedure struct {
	Name    string
	Handler procedureHandler
}

// wrapNull adapts Null's void-in signature to procedureHandler so it
// can share the same table as every other procedure.
func wrapNull(hc *handlers.Context, args *bytes.Reader) (*handlers.Result, error) {
	return handlers.Null(hc)
}

var table = map[uint32]*procedure{
	ProcNull:        {Name: "NULL", Handler: wrapNull},
	ProcGetAttr:     {Name: "GETATTR", Handler: handlers.GetAttr},
	ProcSetAttr:     {Name: "SETATTR", Handler: handlers.SetAttr},
	ProcLookup:      {Name: "LOOKUP", Handler: handlers.Lookup},
	ProcAccess:      {Name: "ACCESS", Handler: handlers.Access},
	ProcReadLink:    {Name: "READLINK", Handler: handlers.ReadLink},
	ProcRead:        {Name: "READ", Handler: handlers.Read},
	ProcWrite:       {Name: "WRITE", Handler: handlers.Write},
	ProcCreate:      {Name: "CREATE", Handler: handlers.Create},
	ProcMkDir:       {Name: "MKDIR", Handler: handlers.MkDir},
	ProcSymLink:     {Name: "SYMLINK", Handler: handlers.SymLink},
	ProcMkNode:      {Name: "MKNOD", Handler: handlers.MkNode},
	ProcRemove:      {Name: "REMOVE", Handler: handlers.Remove},
	ProcRmDir:       {Name: "RMDIR", Handler: handlers.RmDir},
	ProcRename:      {Name: "RENAME", Handler: handlers.Rename},
	ProcLink:        {Name: "LINK", Handler: handlers.Link},
	ProcReadDir:     {Name: "READDIR", Handler: handlers.ReadDir},
	ProcReadDirPlus: {Name: "READDIRPLUS", Handler: handlers.ReadDirPlus},
	ProcFsStat:      {Name: "FSSTAT", Handler: handlers.FsStat},
	ProcFsInfo:      {Name: "FSINFO", Handler: handlers.FsInfo},
	ProcPathConf:    {Name: "PATHCONF", Handler: handlers.PathConf},
	ProcCommit:      {Name: "COMMIT", Handler: handlers.Commit},
}

// Metrics is the observability hook a Dispatcher records every
// completed call through; see pkg/metrics/prometheus for the production
// implementation backed by Prometheus collectors. A nil Metrics
// disables recording entirely.
type Metrics interface {
	RecordRequest(procedure string, status uint32, duration time.Duration)
}

// Deps are the collaborators a Dispatcher needs to resolve and answer
// a call, threaded into every handlers.Context it builds.
type Deps struct {
	Shares  *share.Registry
	Pool    rpc.Pool
	Metrics Metrics
}

// Dispatcher runs the per-request sequence for one NFS program.
type Dispatcher struct {
	deps Deps
}

// New returns a Dispatcher wired to deps.
func New(deps Deps) *Dispatcher {
	return &Dispatcher{deps: deps}
}

// Dispatch runs one RPC call to completion: look up the procedure,
// invoke its handler, end the session's driver transaction, and
// record metrics, in that order regardless of outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Session, call *rpc.Call) (*rpc.Reply, uint32, error) {
	proc, ok := table[call.Procedure]
	if !ok {
		logger.WarnCtx(ctx, "unknown NFS procedure", "procedure", call.Procedure, "xid", call.XID)
		return nil, 0, ErrProcedureUnavailable
	}

	hc := &handlers.Context{
		Ctx:     ctx,
		Session: sess,
		Shares:  d.deps.Shares,
		Pool:    d.deps.Pool,
	}
	if hm, ok := d.deps.Metrics.(handlers.Metrics); ok {
		hc.Metrics = hm
	}

	start := time.Now()
	result, err := proc.Handler(hc, call.Args)

	commitErr := sess.EndTransaction(ctx, err == nil)
	if commitErr != nil {
		logger.ErrorCtx(ctx, "transaction end failed", "procedure", proc.Name, "xid", call.XID, "error", commitErr)
	}

	if err != nil {
		logger.ErrorCtx(ctx, "procedure handler failed", "procedure", proc.Name, "xid", call.XID, "error", err)
		if d.deps.Metrics != nil {
			d.deps.Metrics.RecordRequest(proc.Name, types.NFS3ErrServerFault, time.Since(start))
		}
		return nil, 0, err
	}

	logger.InfoCtx(ctx, proc.Name, "status", types.StatusName(result.Status), "xid", call.XID)
	if d.deps.Metrics != nil {
		d.deps.Metrics.RecordRequest(proc.Name, result.Status, time.Since(start))
	}
	return result.Reply, result.Status, nil
}
