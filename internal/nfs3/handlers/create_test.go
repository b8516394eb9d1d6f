package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfscore/nfsv3d/internal/nfs3/handle"
	"github.com/nfscore/nfsv3d/internal/nfs3/handlers"
	handlertesting "github.com/nfscore/nfsv3d/internal/nfs3/handlers/testing"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
)

// TestCreateWriteReadCommit drives a file through its whole write
// path: guarded create, a 4-byte write, a read past the data that
// reports eof, and a commit echoing the same write verifier.
func TestCreateWriteReadCommit(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	mode := uint32(0644)

	args := handlertesting.NewArgs().
		Handle(fx.RootHandle).
		Str("a.bin").
		Uint32(types.Guarded).
		SAttr3(&mode).
		Reader()
	result, err := handlers.Create(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)

	rr := handlertesting.NewReplyReader(t, result.Reply.Bytes())
	require.EqualValues(t, types.NFS3OK, rr.Uint32())
	require.True(t, rr.Bool(), "handle follows")
	h := rr.Handle()
	assert.Equal(t, handle.KindFile, handle.KindOf(h))
	attr := rr.PostOpAttr()
	require.NotNil(t, attr)
	assert.EqualValues(t, types.FTypeRegular, attr.Type)
	assert.EqualValues(t, 0, attr.Size)

	// The new file is seeded into the session cache, write-capable.
	fileID := uint32(handle.UnpackFileID(h))
	_, cached := fx.Session.FileCache.FindFile(fileID, true)
	assert.True(t, cached, "create should cache the open file in ReadWrite mode")

	// Write 4 bytes at offset 0.
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	args = handlertesting.NewArgs().
		Handle(h).
		Uint64(0).
		Uint32(4).
		Uint32(types.DataSync).
		Opaque(payload).
		Reader()
	result, err = handlers.Write(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)

	rr = handlertesting.NewReplyReader(t, result.Reply.Bytes())
	require.EqualValues(t, types.NFS3OK, rr.Uint32())
	post := rr.WccData()
	require.NotNil(t, post)
	assert.EqualValues(t, 4, post.Size)
	assert.EqualValues(t, 4, rr.Uint32(), "committed count")
	assert.EqualValues(t, types.DataSync, rr.Uint32(), "committed stability")
	verifier := rr.Uint64()

	// Read 8 bytes back: only 4 exist, so eof.
	args = handlertesting.NewArgs().Handle(h).Uint64(0).Uint32(8).Reader()
	result, err = handlers.Read(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)

	rr = handlertesting.NewReplyReader(t, result.Reply.Bytes())
	require.EqualValues(t, types.NFS3OK, rr.Uint32())
	rr.PostOpAttr()
	assert.EqualValues(t, 4, rr.Uint32(), "read count")
	assert.True(t, rr.Bool(), "eof")
	assert.Equal(t, payload, rr.Opaque())

	// Commit echoes the same server-instance write verifier.
	args = handlertesting.NewArgs().Handle(h).Uint64(0).Uint32(0).Reader()
	result, err = handlers.Commit(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)

	rr = handlertesting.NewReplyReader(t, result.Reply.Bytes())
	require.EqualValues(t, types.NFS3OK, rr.Uint32())
	rr.WccData()
	assert.Equal(t, verifier, rr.Uint64(), "commit verifier matches write verifier")
}

func TestCreateExistingFile(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("taken.txt", 12, 0, []byte("data"))
	mode := uint32(0644)

	args := handlertesting.NewArgs().
		Handle(fx.RootHandle).
		Str("taken.txt").
		Uint32(types.Guarded).
		SAttr3(&mode).
		Reader()
	result, err := handlers.Create(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3ErrExist, result.Status)
}

func TestCreateOverExistingDirectory(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddDirectory("dir", 12)
	mode := uint32(0644)

	args := handlertesting.NewArgs().
		Handle(fx.RootHandle).
		Str("dir").
		Uint32(types.Unchecked).
		SAttr3(&mode).
		Reader()
	result, err := handlers.Create(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3ErrIsDir, result.Status)
}
