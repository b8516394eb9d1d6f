package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfscore/nfsv3d/internal/nfs3/handlers"
	handlertesting "github.com/nfscore/nfsv3d/internal/nfs3/handlers/testing"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
)

func TestLinkAlwaysDenied(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("f", 9, 0, nil)
	fx.Driver.AddDirectory("d", 100)

	args := handlertesting.NewArgs().
		Handle(fx.FileHandle("f")).
		Handle(fx.DirHandle("d")).
		Str("hardlink").
		Reader()
	result, err := handlers.Link(fx.Context(), args)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3ErrAcces, result.Status)
}
