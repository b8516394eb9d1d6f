package handlers

import (
	"bytes"
	"path"

	"github.com/nfscore/nfsv3d/internal/logger"
	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/search"
	"github.com/nfscore/nfsv3d/internal/nfs3/session"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// dirEntryFileID applies the same FILE_ID_OFFSET the attribute codec
// uses, so fileid3 values in a directory listing agree with the
// fileid3 GETATTR would report for the same object.
func dirEntryFileID(id uint32) uint64 {
	return uint64(id) + uint64(types.FileIDOffset)
}

// startDirSearch opens a fresh SearchContext over res's directory and
// allocates a slot for it, the common path both a cookie==0 request
// and a lost-slot restart take.
func startDirSearch(hc *Context, res *resolved) (uint8, driver.SearchContext, *types.NFSError) {
	pattern := path.Join(res.Path, "*")
	ctx, derr := res.Share.Driver.StartSearch(hc.Ctx, res.Tree, pattern, driver.SearchWithAttrs)
	if derr != nil {
		return 0, nil, types.NewError(mapDriverError(derr), "start search", derr)
	}
	slotID, err := hc.Session.Slots.AllocateSlot(ctx)
	if err != nil {
		_ = ctx.CloseSearch()
		return 0, nil, types.NewError(types.KindServerFault, "allocate search slot", err)
	}
	return slotID, ctx, nil
}

// parentPath returns the directory a path's ".." refers to, with the
// share root spelled "" as everywhere else in the core.
func parentPath(p string) string {
	parent := path.Dir(p)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

// parentFileID resolves the fileid to report for the synthetic ".."
// entry, falling back to the directory's own id if the parent can't
// be looked up. At a share root parentPath yields the root itself, so
// ".." reports the root's own id.
func parentFileID(hc *Context, res *resolved, dirInfo *driver.FileInfo) uint64 {
	if parentInfo, err := res.Share.Driver.GetFileInformation(hc.Ctx, res.Tree, parentPath(res.Path)); err == nil {
		return dirEntryFileID(parentInfo.FileID)
	}
	return dirEntryFileID(dirInfo.FileID)
}

// ReadDir implements NFSPROC3_READDIR (RFC 1813 §3.3.16). The cookie
// carries the session search slot in bits 24-31 and the driver
// resume-id in the low 24; the verifier is the directory's mtime.
func ReadDir(hc *Context, args *bytes.Reader) (*Result, error) {
	h, err := attrs.UnpackFileHandle3(args)
	if err != nil {
		return nil, err
	}
	cookie, err := xdr.ReadUint64(args)
	if err != nil {
		return nil, err
	}
	verfBytes, err := xdr.ReadFixedOpaque(args, 8)
	if err != nil {
		return nil, err
	}
	maxCount, err := xdr.ReadUint32(args)
	if err != nil {
		return nil, err
	}
	var presented [8]byte
	copy(presented[:], verfBytes)

	reply := newReply(hc, int(maxCount))

	res, nerr := resolveHandle(hc, h)
	if nerr != nil {
		return postOpReply(reply, nerr.Kind.ToStatus(), nil, 0)
	}

	dirInfo, derr := res.Share.Driver.GetFileInformation(hc.Ctx, res.Tree, res.Path)
	if derr != nil {
		return postOpReply(reply, statusFromDriverErr(derr), nil, fsid(res.Share))
	}
	mtimeMillis := uint64(dirInfo.ModifyTime.UnixMilli())

	if !search.VerifierMatches(presented, mtimeMillis) {
		return postOpReply(reply, types.NFS3ErrBadCookie, dirInfo, fsid(res.Share))
	}

	slotID, resumeID := search.UnpackCookie(cookie)
	var sctx driver.SearchContext
	emitDots := cookie == 0

	if cookie == 0 {
		var nerr *types.NFSError
		slotID, sctx, nerr = startDirSearch(hc, res)
		if nerr != nil {
			return postOpReply(reply, nerr.Kind.ToStatus(), dirInfo, fsid(res.Share))
		}
	} else if existing, ok := hc.Session.Slots.GetSlot(slotID); ok {
		sctx = existing
		if sctx.GetResumeID() != resumeID && search.IsRealResumeID(resumeID) {
			if err := sctx.RestartAt(hc.Ctx, resumeID); err != nil {
				return postOpReply(reply, types.NFS3ErrIO, dirInfo, fsid(res.Share))
			}
		}
	} else {
		if hc.Session.HasDebug(session.DebugSearch) {
			logger.DebugCtx(hc.Ctx, "READDIR restarting lost search slot", "path", res.Path, "slot", slotID)
		}
		var nerr *types.NFSError
		slotID, sctx, nerr = startDirSearch(hc, res)
		if nerr != nil {
			return postOpReply(reply, nerr.Kind.ToStatus(), dirInfo, fsid(res.Share))
		}
		mtimeMillis = uint64(dirInfo.ModifyTime.UnixMilli())
	}

	if err := xdr.WriteUint32(reply.Buf, types.NFS3OK); err != nil {
		return nil, err
	}
	if err := attrs.PackPostOpAttr(reply.Buf, dirInfo, fsid(res.Share)); err != nil {
		return nil, err
	}
	verifier := search.VerifierFromMtimeMillis(mtimeMillis)
	if err := xdr.WriteFixedOpaque(reply.Buf, verifier[:]); err != nil {
		return nil, err
	}

	// Budget accounting: the fixed header above already consumed from
	// maxCount, and the trailing no-more-entries and eof booleans are
	// reserved up front so the finished reply never exceeds maxCount.
	budget := int(maxCount) - 8
	used := reply.Buf.Len()
	eof := false
	full := false

	writeEntry := func(fileID uint64, name string, entryCookie uint64) error {
		if err := xdr.WriteBool(reply.Buf, true); err != nil {
			return err
		}
		if err := xdr.WriteUint64(reply.Buf, fileID); err != nil {
			return err
		}
		if err := xdr.WriteString(reply.Buf, name); err != nil {
			return err
		}
		return xdr.WriteUint64(reply.Buf, entryCookie)
	}

	if emitDots {
		// The synthetic entries consume budget like any other entry,
		// as a pair: emitting "." without ".." would lose ".." for
		// good, since dots only appear on the cookie==0 response.
		dotsEstimate := (4 + 8 + 4 + 1 + 3 + 8) + (4 + 8 + 4 + 2 + 3 + 8)
		if used+dotsEstimate > budget {
			full = true
		} else {
			dotCookie := search.PackCookie(slotID, search.ResumeIDDot)
			if err := writeEntry(dirEntryFileID(dirInfo.FileID), ".", dotCookie); err != nil {
				return nil, err
			}
			dotdotCookie := search.PackCookie(slotID, search.ResumeIDDotDot)
			if err := writeEntry(parentFileID(hc, res, dirInfo), "..", dotdotCookie); err != nil {
				return nil, err
			}
			used = reply.Buf.Len()
		}
	}

loop:
	for !full {
		entryResumeID := sctx.GetResumeID()
		name, info, ok, derr := sctx.NextFileInfo(hc.Ctx)
		if derr != nil {
			break loop
		}
		if !ok {
			eof = true
			break loop
		}
		// The entry's cookie carries the position AFTER it, so a client
		// resuming with it continues at the next entry.
		entryCookie := search.PackCookie(slotID, sctx.GetResumeID())
		estimate := 4 + 8 + 4 + len(name) + 3 + 8 // value-follows + fileid + name header/pad + cookie

		if used+estimate > budget {
			// Doesn't fit: put the entry back so the next request
			// re-fetches it.
			_ = sctx.RestartAt(hc.Ctx, entryResumeID)
			eof = false
			break loop
		}
		if err := writeEntry(dirEntryFileID(info.FileID), name, entryCookie); err != nil {
			return nil, err
		}
		used = reply.Buf.Len()
	}

	if eof {
		hc.Session.Slots.DeallocateSlot(slotID)
	}

	if err := xdr.WriteBool(reply.Buf, false); err != nil {
		return nil, err
	}
	if err := xdr.WriteBool(reply.Buf, eof); err != nil {
		return nil, err
	}
	reply.Finish()
	return &Result{Reply: reply, Status: types.NFS3OK}, nil
}
