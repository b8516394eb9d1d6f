package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfscore/nfsv3d/internal/nfs3/handlers"
	handlertesting "github.com/nfscore/nfsv3d/internal/nfs3/handlers/testing"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
)

func TestPathConf(t *testing.T) {
	fx := handlertesting.NewFixture(t)

	args := handlertesting.NewArgs().Handle(fx.RootHandle).Reader()
	result, err := handlers.PathConf(fx.Context(), args)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, result.Status)

	rr := handlertesting.NewReplyReader(t, result.Reply.Bytes())
	require.EqualValues(t, types.NFS3OK, rr.Uint32())
	rr.PostOpAttr()
	assert.EqualValues(t, 32767, rr.Uint32(), "link_max")
	assert.EqualValues(t, 255, rr.Uint32(), "name_max")
	assert.True(t, rr.Bool(), "no_trunc")
	assert.True(t, rr.Bool(), "chown_restricted")
	assert.True(t, rr.Bool(), "case_insensitive")
	assert.True(t, rr.Bool(), "case_preserving")
}
