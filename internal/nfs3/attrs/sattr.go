package attrs

import (
	"fmt"
	"io"

	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/xdr"
)

// UnpackSAttr3 decodes the client-supplied sattr3 structure (RFC 1813
// §2.6): mode, uid, gid and size are each an optional (bool + value)
// pair, and atime/mtime carry a time_how tag followed by an nfstime3
// only when the tag is SetToClientTime.
//
// The mtime seconds field is read exactly once, as an unsigned
// 32-bit value.
func UnpackSAttr3(r io.Reader) (*types.SAttr3, error) {
	sa := &types.SAttr3{}

	if present, err := xdr.ReadBool(r); err != nil {
		return nil, fmt.Errorf("unpack sattr3 mode present: %w", err)
	} else if present {
		v, err := xdr.ReadUint32(r)
		if err != nil {
			return nil, fmt.Errorf("unpack sattr3 mode: %w", err)
		}
		sa.Mode = &v
	}

	if present, err := xdr.ReadBool(r); err != nil {
		return nil, fmt.Errorf("unpack sattr3 uid present: %w", err)
	} else if present {
		v, err := xdr.ReadUint32(r)
		if err != nil {
			return nil, fmt.Errorf("unpack sattr3 uid: %w", err)
		}
		sa.UID = &v
	}

	if present, err := xdr.ReadBool(r); err != nil {
		return nil, fmt.Errorf("unpack sattr3 gid present: %w", err)
	} else if present {
		v, err := xdr.ReadUint32(r)
		if err != nil {
			return nil, fmt.Errorf("unpack sattr3 gid: %w", err)
		}
		sa.GID = &v
	}

	if present, err := xdr.ReadBool(r); err != nil {
		return nil, fmt.Errorf("unpack sattr3 size present: %w", err)
	} else if present {
		v, err := xdr.ReadUint64(r)
		if err != nil {
			return nil, fmt.Errorf("unpack sattr3 size: %w", err)
		}
		sa.Size = &v
	}

	atimeTag, err := xdr.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("unpack sattr3 atime tag: %w", err)
	}
	sa.AtimeSet = atimeTag
	if atimeTag == types.SetToClientTime {
		seconds, err := xdr.ReadUint32(r)
		if err != nil {
			return nil, fmt.Errorf("unpack sattr3 atime seconds: %w", err)
		}
		nseconds, err := xdr.ReadUint32(r)
		if err != nil {
			return nil, fmt.Errorf("unpack sattr3 atime nseconds: %w", err)
		}
		sa.Atime = types.TimeVal{Seconds: seconds, Nseconds: nseconds}
	}

	mtimeTag, err := xdr.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("unpack sattr3 mtime tag: %w", err)
	}
	sa.MtimeSet = mtimeTag
	if mtimeTag == types.SetToClientTime {
		seconds, err := xdr.ReadUint32(r)
		if err != nil {
			return nil, fmt.Errorf("unpack sattr3 mtime seconds: %w", err)
		}
		nseconds, err := xdr.ReadUint32(r)
		if err != nil {
			return nil, fmt.Errorf("unpack sattr3 mtime nseconds: %w", err)
		}
		sa.Mtime = types.TimeVal{Seconds: seconds, Nseconds: nseconds}
	}

	return sa, nil
}
