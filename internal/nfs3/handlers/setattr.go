package handlers

import (
	"bytes"
	"time"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/session"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// SetAttr implements NFSPROC3_SETATTR (RFC 1813 §3.3.2). The reply is
// wcc_data bracketing the mutation regardless of outcome. Truncation
// goes through the session's open-file cache (opening the file if
// needed) so the driver sees the same NetworkFile subsequent
// Read/Write calls would reuse; the remaining attribute changes are
// delegated to the driver as a single SetAttributes call.
func SetAttr(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	sa, err := attrs.UnpackSAttr3(args)
	if err != nil {
		return nil, err
	}
	guardCheck, err := xdr.ReadBool(args)
	if err != nil {
		return nil, err
	}
	var guardCtime types.TimeVal
	if guardCheck {
		secs, err := xdr.ReadUint32(args)
		if err != nil {
			return nil, err
		}
		nsecs, err := xdr.ReadUint32(args)
		if err != nil {
			return nil, err
		}
		guardCtime = types.TimeVal{Seconds: secs, Nseconds: nsecs}
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

	if guardCheck && pre != nil {
		if uint32(pre.ChangeTime.Unix()) != guardCtime.Seconds {
			return wccReply(reply, types.NFS3ErrNotSync, pre, pre, fsid(res.Share))
		}
	}

	if sa.Size != nil {
		nf, derr := session.GetNetworkFileForHandle(hc.Ctx, hc.Session, res.Share, res.ID, res.Path, false)
		if derr != nil {
			return wccReply(reply, statusFromDriverErr(derr), pre, pre, fsid(res.Share))
		}
		nf.Mu.Lock()
		derr = res.Share.Driver.TruncateFile(hc.Ctx, res.Tree, nf.Driver, *sa.Size)
		if derr == nil {
			nf.Size = *sa.Size
		}
		nf.Mu.Unlock()
		if derr != nil {
			return wccReply(reply, statusFromDriverErr(derr), pre, pre, fsid(res.Share))
		}
	}

	params := driver.SetAttrParams{Mode: sa.Mode, UID: sa.UID, GID: sa.GID}
	if sa.AtimeSet == types.SetToClientTime {
		params.SetAtime = true
		params.AtimeValue = time.Unix(int64(sa.Atime.Seconds), int64(sa.Atime.Nseconds))
	}
	if sa.MtimeSet == types.SetToClientTime {
		params.SetMtime = true
		params.MtimeValue = time.Unix(int64(sa.Mtime.Seconds), int64(sa.Mtime.Nseconds))
	}
	if sa.Mode != nil || sa.UID != nil || sa.GID != nil || params.SetAtime || params.SetMtime {
		if derr := res.Share.Driver.SetAttributes(hc.Ctx, res.Tree, res.Path, params); derr != nil {
			post := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
			return wccReply(reply, statusFromDriverErr(derr), pre, post, fsid(res.Share))
		}
	}

	// The post-op snapshot is trusted as-is even for a truncate-only
	// request; the driver's view of the size wins.
	post := getInfoOrNil(hc, res.Tree, res.Share.Driver, res.Path)
	return wccReply(reply, types.NFS3OK, pre, post, fsid(res.Share))
}
