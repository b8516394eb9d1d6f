package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfscore/nfsv3d/internal/nfs3/handlers"
	handlertesting "github.com/nfscore/nfsv3d/internal/nfs3/handlers/testing"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
)

// readOnce drives one READ call and parses the reply.
func readOnce(t *testing.T, fx *handlertesting.Fixture, h [32]byte, offset uint64, count uint32) (status uint32, data []byte, eof bool) {
	t.Helper()
	args := handlertesting.NewArgs().Handle(h).Uint64(offset).Uint32(count).Reader()
	result, err := handlers.Read(fx.Context(), args)
	require.NoError(t, err)

	rr := handlertesting.NewReplyReader(t, result.Reply.Bytes())
	status = rr.Uint32()
	if status != types.NFS3OK {
		return status, nil, false
	}
	rr.PostOpAttr()
	n := rr.Uint32()
	eof = rr.Bool()
	data = rr.Opaque()
	require.EqualValues(t, n, len(data), "count field must match the opaque payload")
	return status, data, eof
}

// TestReadMiddleOfFile reads a range that ends before the file does:
// no eof.
func TestReadMiddleOfFile(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("f", 9, 0100644, []byte("0123456789"))
	h := fx.FileHandle("f")

	status, data, eof := readOnce(t, fx, h, 2, 4)
	require.EqualValues(t, types.NFS3OK, status)
	assert.Equal(t, []byte("2345"), data)
	assert.False(t, eof, "4 bytes at offset 2 of a 10-byte file is not eof")
}

// TestReadToEnd reads past the last byte: a short count and eof.
func TestReadToEnd(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("f", 9, 0100644, []byte("0123456789"))
	h := fx.FileHandle("f")

	status, data, eof := readOnce(t, fx, h, 6, 10)
	require.EqualValues(t, types.NFS3OK, status)
	assert.Equal(t, []byte("6789"), data)
	assert.True(t, eof)
}

// TestReadHugeCountClamped serves a READ whose count far exceeds the
// rtmax FSINFO advertises: the request still succeeds, bounded by the
// file's actual content, with no buffer ever sized by the raw count.
func TestReadHugeCountClamped(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("f", 9, 0100644, []byte("abcd"))
	h := fx.FileHandle("f")

	status, data, eof := readOnce(t, fx, h, 0, 0xFFFFFFFF)
	require.EqualValues(t, types.NFS3OK, status)
	assert.Equal(t, []byte("abcd"), data)
	assert.True(t, eof)
}

// TestReadPastEnd reads entirely beyond the file: zero bytes, eof.
func TestReadPastEnd(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("f", 9, 0100644, []byte("0123456789"))
	h := fx.FileHandle("f")

	status, data, eof := readOnce(t, fx, h, 20, 4)
	require.EqualValues(t, types.NFS3OK, status)
	assert.Empty(t, data)
	assert.True(t, eof)
}

// TestReadReusesOpenFile opens the file on the first READ and serves
// the second from the session's cache, visible in the cache counters.
func TestReadReusesOpenFile(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("f", 9, 0100644, []byte("0123456789"))
	h := fx.FileHandle("f")

	status, _, _ := readOnce(t, fx, h, 0, 4)
	require.EqualValues(t, types.NFS3OK, status)
	misses := fx.Metrics.OpenFileMisses
	assert.GreaterOrEqual(t, misses, 1, "first read opens through a cache miss")

	status, _, _ = readOnce(t, fx, h, 4, 4)
	require.EqualValues(t, types.NFS3OK, status)
	assert.GreaterOrEqual(t, fx.Metrics.OpenFileHits, 1, "second read is served from the cache")
	assert.Equal(t, misses, fx.Metrics.OpenFileMisses, "second read must not reopen")
	assert.Equal(t, 1, fx.Session.FileCache.NumberOfEntries())
}

// TestReadRecordsBytesAndCacheOutcomes checks the metrics a READ
// feeds: payload bytes and file-id cache hits.
func TestReadRecordsBytesAndCacheOutcomes(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("f", 9, 0100644, []byte("0123456789"))
	h := fx.FileHandle("f")

	status, data, _ := readOnce(t, fx, h, 0, 6)
	require.EqualValues(t, types.NFS3OK, status)
	assert.EqualValues(t, len(data), fx.Metrics.BytesRead)
	assert.GreaterOrEqual(t, fx.Metrics.FileIDHits, 1, "handle resolution hits the primed file-id cache")
}
