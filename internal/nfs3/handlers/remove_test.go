package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfscore/nfsv3d/internal/nfs3/handlers"
	handlertesting "github.com/nfscore/nfsv3d/internal/nfs3/handlers/testing"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
)

// TestRemoveEvictsCaches removes a file and verifies both the file-id
// cache entry and the session's open file are gone.
func TestRemoveEvictsCaches(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("victim", 7, 0, []byte("x"))
	fileH := fx.FileHandle("victim")

	args := handlertesting.NewArgs().Handle(fileH).Uint64(0).Uint32(1).Reader()
	result, err := handlers.Read(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)

	args = handlertesting.NewArgs().Handle(fx.RootHandle).Str("victim").Reader()
	result, err = handlers.Remove(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)

	_, ok := fx.Share.FileIDs.FindPath(7)
	assert.False(t, ok, "file-id cache entry must be evicted")
	_, ok2 := fx.Session.FileCache.FindFile(7, false)
	assert.False(t, ok2, "open file must be evicted")
	_, ok3 := fx.Driver.Node("victim")
	assert.False(t, ok3)
}

func TestRemoveDirectoryIsIsDir(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddDirectory("d", 100)

	args := handlertesting.NewArgs().Handle(fx.RootHandle).Str("d").Reader()
	result, err := handlers.Remove(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3ErrIsDir, result.Status)
}

func TestRemoveMissingIsNoEnt(t *testing.T) {
	fx := handlertesting.NewFixture(t)

	args := handlertesting.NewArgs().Handle(fx.RootHandle).Str("ghost").Reader()
	result, err := handlers.Remove(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3ErrNoEnt, result.Status)
}
