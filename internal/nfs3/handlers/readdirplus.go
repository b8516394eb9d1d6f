package handlers

import (
	"bytes"

	"github.com/nfscore/nfsv3d/internal/nfs3/attrs"
	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
	"github.com/nfscore/nfsv3d/internal/nfs3/handle"
	"github.com/nfscore/nfsv3d/internal/nfs3/search"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// writeEntryPlus packs one entryplus3 (RFC 1813 §3.3.17): the fileid,
// name and cookie common to ReadDir, followed by the entry's
// post_op_attr and post_op_fh3.
func writeEntryPlus(reply *bytes.Buffer, fs uint64, info *driver.FileInfo, name string, cookie uint64, h [handle.Size]byte) error {
	if err := xdr.WriteBool(reply, true); err != nil {
		return err
	}
	if err := xdr.WriteUint64(reply, dirEntryFileID(info.FileID)); err != nil {
		return err
	}
	if err := xdr.WriteString(reply, name); err != nil {
		return err
	}
	if err := xdr.WriteUint64(reply, cookie); err != nil {
		return err
	}
	if err := attrs.PackPostOpAttr(reply, info, fs); err != nil {
		return err
	}
	if err := xdr.WriteBool(reply, true); err != nil {
		return err
	}
	return attrs.PackFileHandle3(reply, h)
}

// ReadDirPlus implements NFSPROC3_READDIRPLUS (RFC 1813 §3.3.17). It
// shares ReadDir's cookie/slot/verifier handling but
// packs a post_op_attr and a post_op_fh3 per entry, and is bounded by
// two independent limits instead of one: at most maxDir entries, and
// at most maxCount response bytes.
func ReadDirPlus(hc *Context, args *bytes.Reader) (*Result, error) {
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
	maxDir, err := xdr.ReadUint32(args)
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
		var nerr *types.NFSError
		slotID, sctx, nerr = startDirSearch(hc, res)
		if nerr != nil {
			return postOpReply(reply, nerr.Kind.ToStatus(), dirInfo, fsid(res.Share))
		}
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

	fs := fsid(res.Share)
	dirID := dirIDOf(res)
	// Reserve the trailing no-more-entries and eof booleans so the
	// finished reply never exceeds maxCount.
	budget := int(maxCount) - 8
	used := reply.Buf.Len()
	entryCount := 0
	eof := false
	full := false

	if emitDots {
		// Both synthetic entries count against the budget, as a pair:
		// they only appear on the cookie==0 response, so a "." emitted
		// without its ".." would lose ".." for good.
		perEntry := 4 + 8 + 4 + 3 + 8 + 96 + 4 + handle.Size
		dotsEstimate := (perEntry + 1) + (perEntry + 2)
		if used+dotsEstimate > budget {
			full = true
		} else {
			selfHandle := handle.PackDirectoryHandle(res.Share.ID, dirInfo.FileID)
			dotCookie := search.PackCookie(slotID, search.ResumeIDDot)
			if err := writeEntryPlus(reply.Buf, fs, dirInfo, ".", dotCookie, selfHandle); err != nil {
				return nil, err
			}
			entryCount++

			parentHandle := selfHandle
			parentInfo := dirInfo
			if info, perr := res.Share.Driver.GetFileInformation(hc.Ctx, res.Tree, parentPath(res.Path)); perr == nil {
				parentInfo = info
				parentHandle = handle.PackDirectoryHandle(res.Share.ID, info.FileID)
			}
			dotdotCookie := search.PackCookie(slotID, search.ResumeIDDotDot)
			if err := writeEntryPlus(reply.Buf, fs, parentInfo, "..", dotdotCookie, parentHandle); err != nil {
				return nil, err
			}
			entryCount++
			used = reply.Buf.Len()
		}
	}

loop:
	for !full && entryCount < int(maxDir) {
		entryResumeID := sctx.GetResumeID()
		name, info, ok, derr := sctx.NextFileInfo(hc.Ctx)
		if derr != nil {
			break loop
		}
		if !ok {
			eof = true
			break loop
		}
		entryCookie := search.PackCookie(slotID, sctx.GetResumeID())
		// Rough upper bound for the entry's wire size: fixed fields
		// plus name, attrs and a full handle.
		estimate := 4 + 8 + 4 + len(name) + 3 + 8 + 96 + 4 + handle.Size

		if used+estimate > budget {
			_ = sctx.RestartAt(hc.Ctx, entryResumeID)
			eof = false
			break loop
		}

		var childHandle [handle.Size]byte
		if info.Type == driver.TypeDirectory {
			childHandle = handle.PackDirectoryHandle(res.Share.ID, info.FileID)
		} else {
			childHandle = handle.PackFileHandle(res.Share.ID, dirID, info.FileID)
		}
		if err := writeEntryPlus(reply.Buf, fs, info, name, entryCookie, childHandle); err != nil {
			return nil, err
		}
		entryCount++
		used = reply.Buf.Len()
	}
	if !eof && entryCount >= int(maxDir) && !sctx.HasMoreFiles() {
		eof = true
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
