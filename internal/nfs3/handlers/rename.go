package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// Rename implements NFSPROC3_RENAME (RFC 1813 §3.3.14). An existing
// file at the target name is deleted first; any open NetworkFile on
// the source is closed and evicted; when the source and target
// directories are the same, its pre-operation snapshot is captured
// once and reused for both wcc brackets.
func Rename(hc *Context, args *bytes.Reader) (*Result, error) {
	fromH, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	fromName, err := xdr.ReadString(args)
	if err != nil {
		return nil, err
	}
	toH, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	toName, err := xdr.ReadString(args)
	if err != nil {
		return nil, err
	}

	reply := newReply(hc, 512)

	fail := func(status uint32, preFrom, postFrom, preTo, postTo *driver.FileInfo, fs uint64) (*Result, error) {
		if err := xdr.WriteUint32(reply.Buf, status); err != nil {
			return nil, err
		}
		if err := attrs.PackWccData(reply.Buf, preFrom, postFrom, fs); err != nil {
			return nil, err
		}
		if err := attrs.PackWccData(reply.Buf, preTo, postTo, fs); err != nil {
			return nil, err
		}
		reply.Finish()
		return &Result{Reply: reply, Status: status}, nil
	}

	fromRes, nerr := resolveHandle(hc, fromH)
	if nerr != nil {
		return fail(nerr.Kind.ToStatus(), nil, nil, nil, nil, 0)
	}
	toRes, nerr := resolveHandle(hc, toH)
	if nerr != nil {
		return fail(nerr.Kind.ToStatus(), nil, nil, nil, nil, 0)
	}
	if fromRes.Share.ID != toRes.Share.ID {
		return fail(types.NFS3ErrXDev, nil, nil, nil, nil, 0)
	}
	if nerr := requireWritable(fromRes.Tree); nerr != nil {
		return fail(nerr.Kind.ToStatus(), nil, nil, nil, nil, 0)
	}

	sameDir := fromRes.Path == toRes.Path
	preFrom := getInfoOrNil(hc, fromRes.Tree, fromRes.Share.Driver, fromRes.Path)
	preTo := preFrom
	if !sameDir {
		preTo = getInfoOrNil(hc, toRes.Tree, toRes.Share.Driver, toRes.Path)
	}

	oldPath := childPath(fromRes.Path, fromName)
	newPath := childPath(toRes.Path, toName)
	fs := fsid(fromRes.Share)

	oldInfo, derr := fromRes.Share.Driver.GetFileInformation(hc.Ctx, fromRes.Tree, oldPath)
	if derr != nil {
		return fail(statusFromDriverErr(derr), preFrom, preFrom, preTo, preTo, fs)
	}

	if existence, derr := toRes.Share.Driver.FileExists(hc.Ctx, toRes.Tree, newPath); derr == nil && existence == driver.FileExists {
		if derr := toRes.Share.Driver.DeleteFile(hc.Ctx, toRes.Tree, newPath); derr != nil {
			postFrom := getInfoOrNil(hc, fromRes.Tree, fromRes.Share.Driver, fromRes.Path)
			postTo := postFrom
			if !sameDir {
				postTo = getInfoOrNil(hc, toRes.Tree, toRes.Share.Driver, toRes.Path)
			}
			return fail(statusFromDriverErr(derr), preFrom, postFrom, preTo, postTo, fs)
		}
	}

	if derr := fromRes.Share.Driver.RenameFile(hc.Ctx, fromRes.Tree, oldPath, newPath); derr != nil {
		postFrom := getInfoOrNil(hc, fromRes.Tree, fromRes.Share.Driver, fromRes.Path)
		postTo := postFrom
		if !sameDir {
			postTo = getInfoOrNil(hc, toRes.Tree, toRes.Share.Driver, toRes.Path)
		}
		return fail(statusFromDriverErr(derr), preFrom, postFrom, preTo, postTo, fs)
	}

	if nf, ok := hc.Session.FileCache.RemoveFile(oldInfo.FileID); ok {
		nf.Mu.Lock()
		_ = nf.Driver.Close(hc.Ctx)
		nf.Mu.Unlock()
	}
	fromRes.Share.FileIDs.Rename(oldInfo.FileID, newPath)

	if newInfo, derr := fromRes.Share.Driver.GetFileInformation(hc.Ctx, fromRes.Tree, newPath); derr == nil && newInfo.FileID != oldInfo.FileID {
		fromRes.Share.FileIDs.AddPath(newInfo.FileID, newPath)
	}

	postFrom := getInfoOrNil(hc, fromRes.Tree, fromRes.Share.Driver, fromRes.Path)
	postTo := postFrom
	if !sameDir {
		postTo = getInfoOrNil(hc, toRes.Tree, toRes.Share.Driver, toRes.Path)
	}
	return fail(types.NFS3OK, preFrom, postFrom, preTo, postTo, fs)
}
