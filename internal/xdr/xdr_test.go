package xdr

import (
	"bytes"
	"testing"
)

func TestOpaqueRoundTripPadding(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x01},
		{0x01, 0x02, 0x03},
		{0x01, 0x02, 0x03, 0x04},
		[]byte("hello world"),
	}
	for _, data := range cases {
		var buf bytes.Buffer
		if err := WriteOpaque(&buf, data); err != nil {
			t.Fatalf("write opaque: %v", err)
		}
		if buf.Len()%4 != 0 {
			t.Fatalf("encoded length %d not 4-byte aligned", buf.Len())
		}
		got, err := ReadOpaque(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("read opaque: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("round trip = %x, want %x", got, data)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteString(&buf, "a.bin"); err != nil {
		t.Fatalf("write string: %v", err)
	}
	got, err := ReadString(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read string: %v", err)
	}
	if got != "a.bin" {
		t.Fatalf("round trip = %q", got)
	}
}

func TestIntegerEncodingIsBigEndian(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUint32(&buf, 0x01020304); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{1, 2, 3, 4}) {
		t.Fatalf("uint32 wire form = %x", buf.Bytes())
	}

	buf.Reset()
	if err := WriteUint64(&buf, 0x0102030405060708); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("uint64 wire form = %x", buf.Bytes())
	}
}

func TestBoolEncoding(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBool(&buf, true); err != nil {
		t.Fatal(err)
	}
	if err := WriteBool(&buf, false); err != nil {
		t.Fatal(err)
	}
	r := bytes.NewReader(buf.Bytes())
	v, err := ReadBool(r)
	if err != nil || !v {
		t.Fatalf("first bool = %v, %v", v, err)
	}
	v, err = ReadBool(r)
	if err != nil || v {
		t.Fatalf("second bool = %v, %v", v, err)
	}
}

func TestReadFixedOpaque(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFixedOpaque(&buf, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 8 {
		t.Fatalf("fixed opaque of 5 should pad to 8, got %d", buf.Len())
	}
	got, err := ReadFixedOpaque(bytes.NewReader(buf.Bytes()), 5)
	if err != nil {
		t.Fatalf("read fixed opaque: %v", err)
	}
	if !bytes.Equal(got, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}) {
		t.Fatalf("fixed opaque = %x", got)
	}
}
