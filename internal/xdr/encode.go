// Package xdr implements the RFC 4506 External Data Representation
// primitives the NFS v3 core needs to pack and unpack procedure
// arguments and results. It is intentionally hand-rolled rather than
// reflection-based: the wire layout of every structure in RFC 1813 is
// fixed and known ahead of time, so a small set of big-endian
// read/write helpers is all the codec layer above needs.
package xdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// WriteOpaque encodes variable-length opaque data: length, data, then
// zero padding out to a 4-byte boundary (RFC 4506 §4.10).
func WriteOpaque(buf *bytes.Buffer, data []byte) error {
	if err := WriteUint32(buf, uint32(len(data))); err != nil {
		return fmt.Errorf("write opaque length: %w", err)
	}
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("write opaque data: %w", err)
	}
	return WritePadding(buf, uint32(len(data)))
}

// WriteFixedOpaque encodes fixed-length opaque data with no length
// prefix, padded to a 4-byte boundary (RFC 4506 §4.9). Used for the
// 8-byte cookie verifier, whose length is implicit; file handles are
// variable-length and go through WriteOpaque.
func WriteFixedOpaque(buf *bytes.Buffer, data []byte) error {
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("write fixed opaque: %w", err)
	}
	return WritePadding(buf, uint32(len(data)))
}

// WriteString encodes an XDR string: identical wire shape to WriteOpaque.
func WriteString(buf *bytes.Buffer, s string) error {
	return WriteOpaque(buf, []byte(s))
}

// WritePadding writes the 0-3 zero bytes needed to align dataLen to a
// 4-byte boundary.
func WritePadding(buf *bytes.Buffer, dataLen uint32) error {
	if pad := (4 - (dataLen % 4)) % 4; pad > 0 {
		var zero [3]byte
		if _, err := buf.Write(zero[:pad]); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}
	return nil
}

// WriteUint32 encodes an unsigned 32-bit integer (RFC 4506 §4.1).
func WriteUint32(buf *bytes.Buffer, v uint32) error {
	return binary.Write(buf, binary.BigEndian, v)
}

// WriteUint64 encodes an unsigned 64-bit integer (RFC 4506 §4.5).
func WriteUint64(buf *bytes.Buffer, v uint64) error {
	return binary.Write(buf, binary.BigEndian, v)
}

// WriteInt32 encodes a signed 32-bit integer.
func WriteInt32(buf *bytes.Buffer, v int32) error {
	return binary.Write(buf, binary.BigEndian, v)
}

// WriteInt64 encodes a signed 64-bit integer.
func WriteInt64(buf *bytes.Buffer, v int64) error {
	return binary.Write(buf, binary.BigEndian, v)
}

// WriteBool encodes a boolean as a uint32 (0 = false, 1 = true).
func WriteBool(buf *bytes.Buffer, v bool) error {
	var n uint32
	if v {
		n = 1
	}
	return WriteUint32(buf, n)
}
