package xdr

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxOpaqueLength bounds variable-length opaque reads so a malformed or
// hostile length prefix cannot force an unbounded allocation.
const MaxOpaqueLength = 1 << 20 // 1 MiB

// ReadOpaque decodes variable-length opaque data: length, data, padding.
func ReadOpaque(r io.Reader) ([]byte, error) {
	length, err := ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read opaque length: %w", err)
	}
	if length > MaxOpaqueLength {
		return nil, fmt.Errorf("opaque length %d exceeds maximum %d", length, MaxOpaqueLength)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read opaque data: %w", err)
	}
	if err := skipPadding(r, length); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadFixedOpaque decodes n bytes of fixed-length opaque data followed
// by its padding, with no length prefix on the wire.
func ReadFixedOpaque(r io.Reader, n int) ([]byte, error) {
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read fixed opaque: %w", err)
	}
	if err := skipPadding(r, uint32(n)); err != nil {
		return nil, err
	}
	return data, nil
}

func skipPadding(r io.Reader, dataLen uint32) error {
	pad := (4 - (dataLen % 4)) % 4
	if pad == 0 {
		return nil
	}
	var buf [3]byte
	if _, err := io.ReadFull(r, buf[:pad]); err != nil {
		return fmt.Errorf("skip padding: %w", err)
	}
	return nil
}

// ReadString decodes an XDR string (identical wire shape to opaque data).
func ReadString(r io.Reader) (string, error) {
	data, err := ReadOpaque(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadUint32 decodes an unsigned 32-bit integer.
func ReadUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("read uint32: %w", err)
	}
	return v, nil
}

// ReadUint64 decodes an unsigned 64-bit integer.
func ReadUint64(r io.Reader) (uint64, error) {
	var v uint64
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("read uint64: %w", err)
	}
	return v, nil
}

// ReadInt32 decodes a signed 32-bit integer.
func ReadInt32(r io.Reader) (int32, error) {
	var v int32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("read int32: %w", err)
	}
	return v, nil
}

// ReadBool decodes a boolean (any non-zero uint32 is true).
func ReadBool(r io.Reader) (bool, error) {
	v, err := ReadUint32(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}
