package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfscore/nfsv3d/internal/nfs3/handlers"
	handlertesting "github.com/nfscore/nfsv3d/internal/nfs3/handlers/testing"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
)

func TestNullEmptyReply(t *testing.T) {
	fx := handlertesting.NewFixture(t)

	result, err := handlers.Null(fx.Context())
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3OK, result.Status)
	assert.Empty(t, result.Reply.Bytes())
}
