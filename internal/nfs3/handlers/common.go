package handlers

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/handle"
	"github.com/nfscore/nfsv3d/internal/nfs3/share"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/rpc"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// newReply starts a reply buffer for a handler, pre-growing it when the
// handler expects to project a response larger than a typical request
// packet. A minSize of 0
// leaves the buffer to grow on demand.
func newReply(hc *Context, minSize int) *rpc.Reply {
	r := rpc.NewReply()
	if minSize > 0 {
		if hc.Pool != nil {
			r.Buf = bytes.NewBuffer(hc.Pool.Get(minSize)[:0])
		} else {
			r.Buf.Grow(minSize)
		}
	}
	return r
}

// statusOnly finishes a reply that carries nothing beyond the status
// code -- the error-path shape for GETATTR, whose failure reply
// carries no attributes.
func statusOnly(reply *rpc.Reply, status uint32) (*Result, error) {
	if err := xdr.WriteUint32(reply.Buf, status); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: status}, nil
}

// resolved is what resolveHandle produces once a handle's ids have been
// turned into a path the driver can act on.
type resolved struct {
	Share *share.Details
	Tree  driver.TreeConnection
	Path  string
	ID    uint32 // fileId for a File handle, dirId for a Directory handle, 0 for Share
	Kind  handle.Kind
}

// idOf returns the numeric id a handle's kind carries: fileId for File,
// dirId for Directory, 0 (meaningless) for Share.
func idOf(h [handle.Size]byte) uint32 {
	switch handle.KindOf(h) {
	case handle.KindFile:
		return uint32(handle.UnpackFileID(h))
	case handle.KindDirectory:
		return handle.UnpackDirectoryID(h)
	default:
		return 0
	}
}

// resolveHandle turns a wire handle into a driver path: validate the
// handle's shape, find its share, and resolve its id through the
// share's file-id cache, repairing a cache miss through the driver's
// optional BuildPathForFileID when the share advertises support for
// it. A handle that is well-formed but whose id can't be resolved
// either way is Stale, never BadHandle.
func resolveHandle(hc *Context, h [handle.Size]byte) (*resolved, *types.NFSError) {
	if !handle.IsValid(h) {
		return nil, types.NewError(types.KindBadHandle, "resolve handle", errors.New("malformed handle"))
	}
	shareID := handle.UnpackShareID(h)
	sd, ok := hc.Shares.Get(shareID)
	if !ok {
		return nil, types.NewError(types.KindStale, "resolve handle", fmt.Errorf("unknown share %d", shareID))
	}
	tree := treeFor(hc, sd)
	kind := handle.KindOf(h)
	if kind == handle.KindShare {
		return &resolved{Share: sd, Tree: tree, Path: "", ID: 0, Kind: kind}, nil
	}

	id := idOf(h)
	if path, ok := sd.FileIDs.FindPath(id); ok {
		return &resolved{Share: sd, Tree: tree, Path: path, ID: id, Kind: kind}, nil
	}
	if sd.FileIDSupport {
		if builder, ok := sd.Driver.(driver.FileIDLookupInterface); ok {
			dirID := handle.UnpackDirectoryID(h)
			path, err := builder.BuildPathForFileID(hc.Ctx, tree, dirID, id)
			if err == nil {
				sd.FileIDs.AddPath(id, path)
				return &resolved{Share: sd, Tree: tree, Path: path, ID: id, Kind: kind}, nil
			}
		}
	}
	return nil, types.NewError(types.KindStale, "resolve handle", fmt.Errorf("file id %d not in cache", id))
}

// requireWritable gates every mutating procedure: against a read-only
// tree connection it returns Access before the driver is ever
// consulted.
func requireWritable(tree driver.TreeConnection) *types.NFSError {
	if tree.ReadOnly() {
		return types.NewError(types.KindAccess, "access check", errors.New("share is read-only"))
	}
	return nil
}

// mapDriverError translates a driver.Driver failure into the abstract
// error taxonomy by matching it against the sentinel
// errors driver.go defines. An error that matches none of them is an
// opaque I/O fault, the same fallback types.StatusFromError applies to
// an untyped error.
func mapDriverError(err error) types.ErrorKind {
	switch {
	case err == nil:
		return types.KindNone
	case errors.Is(err, driver.ErrNotFound):
		return types.KindNoEnt
	case errors.Is(err, driver.ErrAlreadyExists):
		return types.KindExist
	case errors.Is(err, driver.ErrAccessDenied):
		return types.KindAccess
	case errors.Is(err, driver.ErrNotDirectory):
		return types.KindNotDir
	case errors.Is(err, driver.ErrIsDirectory):
		return types.KindIsDir
	case errors.Is(err, driver.ErrDirectoryNotEmpty):
		return types.KindNotEmpty
	case errors.Is(err, driver.ErrNoSpace):
		return types.KindNoSpc
	case errors.Is(err, driver.ErrDiskQuota):
		return types.KindDQuot
	case errors.Is(err, driver.ErrFileTooLarge):
		return types.KindFBig
	case errors.Is(err, driver.ErrInvalid):
		return types.KindInVal
	case errors.Is(err, driver.ErrNotSupported):
		return types.KindNotSupp
	case errors.Is(err, driver.ErrStale):
		return types.KindStale
	default:
		return types.KindIO
	}
}

func statusFromDriverErr(err error) uint32 {
	return mapDriverError(err).ToStatus()
}

// fsid is the filesystem id fattr3 carries; the share id serves that
// purpose here since every object within a share shares one fsid.
func fsid(sd *share.Details) uint64 {
	return uint64(sd.ID)
}

// getInfoOrNil fetches a FileInfo snapshot for WCC bracketing, treating
// any failure (including "no longer exists") as an absent snapshot
// rather than a propagated error -- a pre-op snapshot taken for WCC
// purposes is best-effort.
func getInfoOrNil(hc *Context, tree driver.TreeConnection, drv driver.Driver, path string) *driver.FileInfo {
	info, err := drv.GetFileInformation(hc.Ctx, tree, path)
	if err != nil {
		return nil
	}
	return info
}

// packHandleAndAttrs writes the (handle3, post_op_attr) pair the
// *_CREATE family and LOOKUP emit on success.
func packHandleAndAttrs(buf *bytes.Buffer, h [handle.Size]byte, info *driver.FileInfo, fs uint64) error {
	if err := xdr.WriteBool(buf, true); err != nil {
		return err
	}
	if err := attrs.PackFileHandle3(buf, h); err != nil {
		return err
	}
	return attrs.PackPostOpAttr(buf, info, fs)
}

// wccReply finishes a reply whose entire shape is status followed by
// one wcc_data bracket: every SETATTR, REMOVE and RMDIR reply, and the
// failure replies of WRITE, COMMIT and the *_CREATE family.
func wccReply(reply *rpc.Reply, status uint32, pre, post *driver.FileInfo, fs uint64) (*Result, error) {
	if err := xdr.WriteUint32(reply.Buf, status); err != nil {
		return nil, err
	}
	if err := attrs.PackWccData(reply.Buf, pre, post, fs); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: status}, nil
}

// wccErrorReply is wccReply with both halves of the bracket absent,
// the shape a handler falls back to when it fails before it can take
// even a pre-operation snapshot.
func wccErrorReply(reply *rpc.Reply, status uint32) (*Result, error) {
	return wccReply(reply, status, nil, nil, 0)
}

// postOpReply finishes a reply whose shape is status followed by a
// single post_op_attr: the failure replies of ACCESS, LOOKUP, READLINK,
// READ, READDIR(PLUS), FSSTAT, FSINFO and PATHCONF.
func postOpReply(reply *rpc.Reply, status uint32, info *driver.FileInfo, fs uint64) (*Result, error) {
	if err := xdr.WriteUint32(reply.Buf, status); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, info, fs); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: status}, nil
}
