package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfscore/nfsv3d/internal/nfs3/handlers"
	handlertesting "github.com/nfscore/nfsv3d/internal/nfs3/handlers/testing"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
)

// TestRenameEvictsOpenFile renames a file the session holds open: the
// open file must be closed and evicted, the old name must be gone, and
// the new name must resolve.
func TestRenameEvictsOpenFile(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddDirectory("d", 100)
	fx.Driver.AddFile("d/a", 7, 0100644, []byte("payload"))
	dirH := fx.DirHandle("d")

	// Open d/a through the read path, as a client would.
	fileH := lookupHandle(t, fx, dirH, "a")
	args := handlertesting.NewArgs().Handle(fileH).Uint64(0).Uint32(4).Reader()
	result, err := handlers.Read(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)
	_, open := fx.Session.FileCache.FindFile(7, false)
	require.True(t, open, "read should leave the file open in the session cache")

	args = handlertesting.NewArgs().
		Handle(dirH).Str("a").
		Handle(dirH).Str("b").
		Reader()
	result, err = handlers.Rename(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)

	_, open = fx.Session.FileCache.FindFile(7, false)
	assert.False(t, open, "rename must evict the open file")

	p, ok := fx.Share.FileIDs.FindPath(7)
	require.True(t, ok)
	assert.Equal(t, "d/b", p, "file-id cache remaps to the new path")

	// The new name resolves; the old one is gone.
	args = handlertesting.NewArgs().Handle(dirH).Str("b").Reader()
	result, err = handlers.Lookup(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3OK, result.Status)

	args = handlertesting.NewArgs().Handle(dirH).Str("a").Reader()
	result, err = handlers.Lookup(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3ErrNoEnt, result.Status)
}

// TestRenameReplacesTarget deletes an existing file at the target name
// before renaming over it.
func TestRenameReplacesTarget(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddDirectory("d", 100)
	fx.Driver.AddFile("d/src", 7, 0, []byte("new"))
	fx.Driver.AddFile("d/dst", 8, 0, []byte("old"))
	dirH := fx.DirHandle("d")

	args := handlertesting.NewArgs().
		Handle(dirH).Str("src").
		Handle(dirH).Str("dst").
		Reader()
	result, err := handlers.Rename(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)

	n, ok := fx.Driver.Node("d/dst")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), n.Data, "target now holds the source's content")
	_, ok = fx.Driver.Node("d/src")
	assert.False(t, ok)
}

// lookupHandle runs LOOKUP and returns the child handle.
func lookupHandle(t *testing.T, fx *handlertesting.Fixture, dirH [32]byte, name string) [32]byte {
	t.Helper()
	args := handlertesting.NewArgs().Handle(dirH).Str(name).Reader()
	result, err := handlers.Lookup(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)
	rr := handlertesting.NewReplyReader(t, result.Reply.Bytes())
	require.EqualValues(t, types.NFS3OK, rr.Uint32())
	return rr.Handle()
}
