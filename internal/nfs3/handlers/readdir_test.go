package handlers_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfscore/nfsv3d/internal/nfs3/handle"
	"github.com/nfscore/nfsv3d/internal/nfs3/handlers"
	handlertesting "github.com/nfscore/nfsv3d/internal/nfs3/handlers/testing"
	"github.com/nfscore/nfsv3d/internal/nfs3/types"
)

type dirEntry struct {
	fileID uint64
	name   string
	cookie uint64
}

// readDirOnce drives one READDIR call and parses the full reply.
func readDirOnce(t *testing.T, fx *handlertesting.Fixture, dirH [handle.Size]byte, cookie uint64, verf []byte, maxCount uint32) (status uint32, outVerf []byte, entries []dirEntry, eof bool, wireLen int) {
	t.Helper()
	args := handlertesting.NewArgs().
		Handle(dirH).
		Uint64(cookie).
		FixedOpaque(verf).
		Uint32(maxCount).
		Reader()
	result, err := handlers.ReadDir(fx.Context(), args)
	require.NoError(t, err)

	packed := result.Reply.Bytes()
	rr := handlertesting.NewReplyReader(t, packed)
	status = rr.Uint32()
	if status != types.NFS3OK {
		rr.PostOpAttr()
		return status, nil, nil, false, len(packed)
	}
	rr.PostOpAttr()
	outVerf = rr.FixedOpaque(8)
	for rr.Bool() {
		entries = append(entries, dirEntry{
			fileID: rr.Uint64(),
			name:   rr.Str(),
			cookie: rr.Uint64(),
		})
	}
	eof = rr.Bool()
	require.Zero(t, rr.Remaining(), "reply has trailing bytes")
	return status, outVerf, entries, eof, len(packed)
}

// TestReadDirResumption lists a 1,000-entry directory in 1 KiB pages:
// the first page leads with "." and "..", every page fits maxCount,
// resumption loses and duplicates nothing, and a corrupted verifier is
// BadCookie.
func TestReadDirResumption(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddDirectory("big", 5000)
	const fileCount = 1000
	for i := 0; i < fileCount; i++ {
		fx.Driver.AddFile(fmt.Sprintf("big/entry-%04d.data0", i), uint32(6000+i), 0100644, nil)
	}
	dirH := fx.DirHandle("big")
	const maxCount = 1024

	var zeroVerf [8]byte
	status, verf, entries, eof, wireLen := readDirOnce(t, fx, dirH, 0, zeroVerf[:], maxCount)
	require.EqualValues(t, types.NFS3OK, status)
	require.False(t, eof, "1,000 entries cannot fit one 1 KiB page")
	assert.LessOrEqual(t, wireLen, maxCount, "reply must not exceed maxCount")
	require.GreaterOrEqual(t, len(entries), 3)
	assert.Equal(t, ".", entries[0].name)
	assert.Equal(t, "..", entries[1].name)

	seen := make(map[string]int)
	for _, e := range entries[2:] {
		seen[e.name]++
	}

	// Drain the rest, resuming from each page's last cookie.
	cookie := entries[len(entries)-1].cookie
	for !eof {
		var page []dirEntry
		status, _, page, eof, wireLen = readDirOnce(t, fx, dirH, cookie, verf, maxCount)
		require.EqualValues(t, types.NFS3OK, status)
		assert.LessOrEqual(t, wireLen, maxCount)
		if !eof {
			require.NotEmpty(t, page, "a non-eof page must make progress")
		}
		for _, e := range page {
			require.NotEqual(t, ".", e.name, "dot entries appear only on the first page")
			require.NotEqual(t, "..", e.name)
			seen[e.name]++
		}
		if len(page) > 0 {
			cookie = page[len(page)-1].cookie
		}
	}

	assert.Len(t, seen, fileCount, "every file listed")
	for name, count := range seen {
		require.Equal(t, 1, count, "entry %s duplicated", name)
	}

	// The search slot is released once the listing completes.
	slotID, _ := searchCookieParts(cookie)
	_, ok := fx.Session.Slots.GetSlot(slotID)
	assert.False(t, ok, "slot should be deallocated at eof")

	// A verifier that matches neither native nor swapped order is
	// rejected.
	bad := append([]byte(nil), verf...)
	bad[7]++
	status, _, _, _, _ = readDirOnce(t, fx, dirH, cookie, bad, maxCount)
	assert.EqualValues(t, types.NFS3ErrBadCookie, status)
}

// TestReadDirTinyMaxCount: a maxCount too small to hold even the
// synthetic "." and ".." entries yields an empty, non-eof page that
// still fits the budget, rather than a reply exceeding maxCount.
func TestReadDirTinyMaxCount(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddDirectory("d", 500)
	fx.Driver.AddFile("d/file", 600, 0, nil)
	dirH := fx.DirHandle("d")

	const maxCount = 120
	var zeroVerf [8]byte
	status, _, entries, eof, wireLen := readDirOnce(t, fx, dirH, 0, zeroVerf[:], maxCount)
	require.EqualValues(t, types.NFS3OK, status)
	assert.LessOrEqual(t, wireLen, maxCount, "reply must not exceed maxCount even when nothing fits")
	assert.False(t, eof)
	assert.Empty(t, entries, "dot entries must not be packed past the budget")
}

func searchCookieParts(cookie uint64) (uint8, uint32) {
	low := uint32(cookie)
	return uint8(low >> 24), low & 0x00FFFFFF
}

// TestReadDirSwappedVerifier accepts the byte-swapped verifier older
// clients present.
func TestReadDirSwappedVerifier(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddDirectory("d", 500)
	for i := 0; i < 20; i++ {
		fx.Driver.AddFile(fmt.Sprintf("d/file-%02d", i), uint32(600+i), 0, nil)
	}
	dirH := fx.DirHandle("d")

	var zeroVerf [8]byte
	status, verf, entries, eof, _ := readDirOnce(t, fx, dirH, 0, zeroVerf[:], 256)
	require.EqualValues(t, types.NFS3OK, status)
	require.False(t, eof)

	swapped := make([]byte, 8)
	for i := range verf {
		swapped[i] = verf[7-i]
	}
	cookie := entries[len(entries)-1].cookie
	status, _, _, _, _ = readDirOnce(t, fx, dirH, cookie, swapped, 256)
	assert.EqualValues(t, types.NFS3OK, status, "byte-swapped verifier must be tolerated")
}

// TestReadDirRestartAfterLostSlot silently restarts the listing when
// the cookie's slot has been deallocated.
func TestReadDirRestartAfterLostSlot(t *testing.T) {
	fx := handlertesting.NewFixture(t)
	fx.Driver.AddDirectory("d", 500)
	for i := 0; i < 20; i++ {
		fx.Driver.AddFile(fmt.Sprintf("d/file-%02d", i), uint32(600+i), 0, nil)
	}
	dirH := fx.DirHandle("d")

	var zeroVerf [8]byte
	status, verf, entries, eof, _ := readDirOnce(t, fx, dirH, 0, zeroVerf[:], 256)
	require.EqualValues(t, types.NFS3OK, status)
	require.False(t, eof)

	cookie := entries[len(entries)-1].cookie
	slotID, _ := searchCookieParts(cookie)
	fx.Session.Slots.DeallocateSlot(slotID)

	status, _, page, _, _ := readDirOnce(t, fx, dirH, cookie, verf, 256)
	require.EqualValues(t, types.NFS3OK, status)
	require.NotEmpty(t, page, "lost slot restarts the search instead of failing")
}
