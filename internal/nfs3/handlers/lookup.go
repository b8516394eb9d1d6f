package handlers

import (
	"bytes"
	"path"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/handle"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// childPath resolves name against a directory's path, handling "."
// and ".." without touching the driver. Paths are relative to the
// share root, which is the empty string, so the root's parent
// normalizes back to "" rather than path.Dir's ".".
func childPath(dirPath, name string) string {
	switch name {
	case ".":
		return dirPath
	case "..":
		return parentPath(dirPath)
	default:
		return path.Join(dirPath, name)
	}
}

// dirIDOf returns the numeric id a resolved directory (or share root)
// contributes as the dirId field of a child File handle.
func dirIDOf(res *resolved) uint32 {
	if res.Kind == handle.KindDirectory {
		return res.ID
	}
	return 0
}

// Lookup implements NFSPROC3_LOOKUP (RFC 1813 §3.3.3). A successful
// lookup populates the file-id cache with the child's id so later
// handle resolutions hit. Name "." and ".." are
// resolved locally; any other missing entry is NoEnt.
func Lookup(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	name, err := xdr.ReadString(args)
	if err != nil {
		return nil, err
	}

	reply := newReply(hc, 160)

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return postOpReply(reply, nerr.Kind.ToStatus(), nil, 0)
	}

	dirInfo := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	target := childPath(res.Path, name)

	childInfo, derr := res.Share.Driver.GetFileInformation(hc.Ctx, res.Tree, target)
	if derr != nil {
		return postOpReply(reply, statusFromDriverErr(derr), dirInfo, fsid(res.Share))
	}

	var childHandle [handle.Size]byte
	if childInfo.Type == driver.TypeDirectory {
		childHandle = handle.PackDirectoryHandle(res.Share.ID, childInfo.FileID)
	} else {
		childHandle = handle.PackFileHandle(res.Share.ID, dirIDOf(res), childInfo.FileID)
	}
	res.Share.FileIDs.AddPath(childInfo.FileID, target)

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackFileHandle3(reply.Buf, childHandle); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, childInfo, fsid(res.Share)); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, dirInfo, fsid(res.Share)); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
