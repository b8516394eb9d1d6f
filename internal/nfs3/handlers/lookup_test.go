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

// TestLookupThenGetAttr walks the share root to a pre-populated file
// and reads its attributes back through the returned handle. The wire
// fileid3 must be the driver file id offset by 2.
func TestLookupThenGetAttr(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("hello.txt", 42, 0100644, []byte("hello"))

	args := handlertesting.NewArgs().Handle(fx.RootHandle).Str("hello.txt").Reader()
	result, err := handlers.Lookup(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3OK, result.Status)

	rr := handlertesting.NewReplyReader(t, result.Reply.Bytes())
	require.EqualValues(t, types.NFS3OK, rr.Uint32())
	h := rr.Handle()
	assert.Equal(t, handle.KindFile, handle.KindOf(h))
	assert.EqualValues(t, 42, handle.UnpackFileID(h))

	childAttr := rr.PostOpAttr()
	require.NotNil(t, childAttr, "lookup should return the child's post-op attrs")
	assert.EqualValues(t, 5, childAttr.Size)
	assert.EqualValues(t, 0100644, childAttr.Mode)
	assert.EqualValues(t, 44, childAttr.FileID, "wire fileid3 is driver id + 2")

	dirAttr := rr.PostOpAttr()
	require.NotNil(t, dirAttr, "lookup should return the parent's post-op attrs")
	assert.EqualValues(t, types.FTypeDir, dirAttr.Type)

	// The file-id cache must now resolve the handle without the driver.
	p, ok := fx.Share.FileIDs.FindPath(42)
	require.True(t, ok)
	assert.Equal(t, "hello.txt", p)

	// GetAttr through the returned handle agrees with the lookup attrs.
	result, err = handlers.GetAttr(fx.Context(), handlertesting.NewArgs().Handle(h).Reader())
	require.NoError(t, err)
	rr = handlertesting.NewReplyReader(t, result.Reply.Bytes())
	require.EqualValues(t, types.NFS3OK, rr.Uint32())
	attr := rr.Fattr3()
	assert.EqualValues(t, 5, attr.Size)
	assert.EqualValues(t, 0100644, attr.Mode)
	assert.EqualValues(t, 44, attr.FileID)
}

func TestLookupMissingFile(t *testing.T) {
	fx := handlertesting.NewFixture(t)

	args := handlertesting.NewArgs().Handle(fx.RootHandle).Str("nope.txt").Reader()
	result, err := handlers.Lookup(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3ErrNoEnt, result.Status)

	rr := handlertesting.NewReplyReader(t, result.Reply.Bytes())
	require.EqualValues(t, types.NFS3ErrNoEnt, rr.Uint32())
	assert.NotNil(t, rr.PostOpAttr(), "error reply still carries the directory's attrs")
}

func TestLookupDotDot(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddDirectory("sub", 10)
	fx.Driver.AddFile("sub/inner.txt", 11, 0, nil)

	args := handlertesting.NewArgs().Handle(fx.DirHandle("sub")).Str("..").Reader()
	result, err := handlers.Lookup(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3OK, result.Status)

	rr := handlertesting.NewReplyReader(t, result.Reply.Bytes())
	require.EqualValues(t, types.NFS3OK, rr.Uint32())
	h := rr.Handle()
	assert.Equal(t, handle.KindDirectory, handle.KindOf(h), ".. resolves to the root directory")
}

// TestStaleHandleWithoutFileIDSupport is the cold-cache scenario: a
// well-formed File handle whose id is in no cache, on a share whose
// driver cannot rebuild paths from ids. Every operation must be Stale,
// not BadHandle.
func TestStaleHandleWithoutFileIDSupport(t *testing.T) {
	fx := handlertesting.NewFixture(t, handlertesting.Options{NoCapabilities: true})
	require.False(t, fx.Share.FileIDSupport)

	h := handle.PackFileHandle(1, 0, 999)

	result, err := handlers.GetAttr(fx.Context(), handlertesting.NewArgs().Handle(h).Reader())
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3ErrStale, result.Status)

	args := handlertesting.NewArgs().Handle(h).Uint64(0).Uint32(16).Reader()
	result, err = handlers.Read(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3ErrStale, result.Status)
}

// TestColdCacheRepairedByFileIDLookup is the counterpart: with file-id
// support the driver rebuilds the path and the operation succeeds.
func TestColdCacheRepairedByFileIDLookup(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("deep.txt", 77, 0100644, []byte("x"))
	require.True(t, fx.Share.FileIDSupport)

	// No FileIDs priming: the handle arrives with a cold cache.
	h := handle.PackFileHandle(1, 0, 77)

	result, err := handlers.GetAttr(fx.Context(), handlertesting.NewArgs().Handle(h).Reader())
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3OK, result.Status)

	p, ok := fx.Share.FileIDs.FindPath(77)
	require.True(t, ok, "repairing the miss should warm the cache")
	assert.Equal(t, "deep.txt", p)
}
