package types

// TimeVal is the wire representation of nfstime3: seconds and
// nanoseconds since the Unix epoch (RFC 1813 §2.6).
type TimeVal struct {
	Seconds  uint32
	Nseconds uint32
}

// FileAttr is fattr3 (RFC 1813 §2.5), the attribute structure returned
// by GETATTR and embedded in post_op_attr.
type FileAttr struct {
	Type   uint32
	Mode   uint32
	Nlink  uint32
	UID    uint32
	GID    uint32
	Size   uint64
	Used   uint64
	Rdev   [2]uint32
	Fsid   uint64
	FileID uint64
	Atime  TimeVal
	Mtime  TimeVal
	Ctime  TimeVal
}

// WccAttr is wcc_attr (RFC 1813 §2.6): the minimal pre-operation
// snapshot bracketed against a post_op_attr to form wcc_data.
type WccAttr struct {
	Size  uint64
	Mtime TimeVal
	Ctime TimeVal
}

// SAttr3 is sattr3 (RFC 1813 §2.6), the client-supplied "set
// attributes" structure accepted by SETATTR and the *_CREATE family.
// Each field is a pointer/optional-tagged value: nil/false means the
// client did not ask to change that attribute.
type SAttr3 struct {
	Mode *uint32
	UID  *uint32
	GID  *uint32
	Size *uint64

	// AtimeSet/MtimeSet mirror the time_how wire tag: DontChangeTime,
	// SetToServerTime, or SetToClientTime. When set to
	// SetToClientTime the corresponding *Time field carries the
	// client-supplied value.
	AtimeSet uint32
	Atime    TimeVal
	MtimeSet uint32
	Mtime    TimeVal
}
