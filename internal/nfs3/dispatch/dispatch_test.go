package dispatch_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfscore/nfsv3d/internal/nfs3/dispatch"
	handlertesting "github.com/nfscore/nfsv3d/internal/nfs3/handlers/testing"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/internal/rpc"
)

type recordedCall struct {
	procedure string
	status    uint32
}

type fakeMetrics struct {
	calls []recordedCall
}

func (m *fakeMetrics) RecordRequest(procedure string, status uint32, duration time.Duration) {
	m.calls = append(m.calls, recordedCall{procedure: procedure, status: status})
}

type fakeTxn struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTxn) Commit(ctx context.Context) error   { t.committed = true; return nil }
func (t *fakeTxn) Rollback(ctx context.Context) error { t.rolledBack = true; return nil }

func TestDispatchNull(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	metrics := &fakeMetrics{}
	d := dispatch.New(dispatch.Deps{Shares: fx.Shares, Metrics: metrics})

	call := &rpc.Call{XID: 1, Procedure: dispatch.ProcNull, Args: bytes.NewReader(nil)}
	reply, status, err := d.Dispatch(context.Background(), fx.Session, call)
	require.NoError(t, err)
	assert.EqualValues(t, types.NFS3OK, status)
	assert.Empty(t, reply.Bytes())

	require.Len(t, metrics.calls, 1)
	assert.Equal(t, "NULL", metrics.calls[0].procedure)
	assert.EqualValues(t, types.NFS3OK, metrics.calls[0].status)
}

func TestDispatchGetAttr(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("f", 9, 0100644, []byte("abcde"))
	d := dispatch.New(dispatch.Deps{Shares: fx.Shares})

	args := handlertesting.NewArgs().Handle(fx.FileHandle("f")).Reader()
	call := &rpc.Call{XID: 2, Procedure: dispatch.ProcGetAttr, Args: args}
	reply, status, err := d.Dispatch(context.Background(), fx.Session, call)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, status)

	rr := handlertesting.NewReplyReader(t, reply.Bytes())
	require.EqualValues(t, types.NFS3OK, rr.Uint32())
	assert.EqualValues(t, 5, rr.Fattr3().Size)
}

func TestDispatchUnknownProcedure(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	d := dispatch.New(dispatch.Deps{Shares: fx.Shares})

	call := &rpc.Call{XID: 3, Procedure: 99, Args: bytes.NewReader(nil)}
	_, _, err := d.Dispatch(context.Background(), fx.Session, call)
	assert.ErrorIs(t, err, dispatch.ErrProcedureUnavailable)
}

// TestDispatchCommitsTransaction commits an attached driver
// transaction after a successful handler.
func TestDispatchCommitsTransaction(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	d := dispatch.New(dispatch.Deps{Shares: fx.Shares})

	txn := &fakeTxn{}
	fx.Session.SetTransaction(txn)

	call := &rpc.Call{XID: 4, Procedure: dispatch.ProcNull, Args: bytes.NewReader(nil)}
	_, _, err := d.Dispatch(context.Background(), fx.Session, call)
	require.NoError(t, err)
	assert.True(t, txn.committed)
	assert.False(t, txn.rolledBack)
}

// TestDispatchRollsBackOnHandlerError rolls the transaction back when
// the handler fails hard (malformed arguments it cannot even parse).
func TestDispatchRollsBackOnHandlerError(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	metrics := &fakeMetrics{}
	d := dispatch.New(dispatch.Deps{Shares: fx.Shares, Metrics: metrics})

	txn := &fakeTxn{}
	fx.Session.SetTransaction(txn)

	// GETATTR with a truncated argument buffer: the handler returns a
	// hard error before producing any reply.
	call := &rpc.Call{XID: 5, Procedure: dispatch.ProcGetAttr, Args: bytes.NewReader([]byte{0, 0})}
	_, _, err := d.Dispatch(context.Background(), fx.Session, call)
	require.Error(t, err)
	assert.False(t, errors.Is(err, dispatch.ErrProcedureUnavailable))
	assert.True(t, txn.rolledBack)
	assert.False(t, txn.committed)

	require.Len(t, metrics.calls, 1)
	assert.EqualValues(t, types.NFS3ErrServerFault, metrics.calls[0].status)
}

// TestDispatchForwardsHandlerMetrics: a metrics sink that also
// implements handlers.Metrics receives the byte counts READ records.
func TestDispatchForwardsHandlerMetrics(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddFile("f", 9, 0100644, []byte("abcdef"))
	recorder := &handlertesting.RecordingMetrics{}
	d := dispatch.New(dispatch.Deps{Shares: fx.Shares, Metrics: recorder})

	args := handlertesting.NewArgs().Handle(fx.FileHandle("f")).Uint64(0).Uint32(6).Reader()
	call := &rpc.Call{XID: 6, Procedure: dispatch.ProcRead, Args: args}
	_, status, err := d.Dispatch(context.Background(), fx.Session, call)
	require.NoError(t, err)
	require.EqualValues(t, types.NFS3OK, status)
	assert.EqualValues(t, 6, recorder.BytesRead)
	assert.Equal(t, []string{"READ"}, recorder.Requests)
}
