// Package search implements the per-session search slot table and the
// directory-search cookie encoding: an array-of-slots table that
// allocates an 8-bit slot id packed into the upper byte of every NFS
// cookie it issues, and the cookie/resume-id bit layout the
// ReadDir(Plus) handlers depend on.
package search

import (
	"sync"

	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
)

// SlotCount is the fixed size of the slot array. An 8-bit slot id
// could address 256 slots; we size the table to that
// maximum so the slot id space and the array size agree exactly.
const SlotCount = 256

// ErrTooManySessions is returned by AllocateSlot when every slot is in
// use.
type ErrTooManySessions struct{}

func (ErrTooManySessions) Error() string { return "too many active searches for this session" }

// Metrics receives slot-allocation failures. A nil Metrics disables
// recording; pkg/metrics.NFSMetrics satisfies it.
type Metrics interface {
	RecordSearchSlotExhaustion()
}

// Table is the per-session table of active directory searches.
// Allocation/deallocation is serialized; a concurrent
// GetSlot racing a DeallocateSlot is resolved by treating "not found"
// as "restart the search", which is why GetSlot never blocks on mu
// longer than a map lookup.
type Table struct {
	mu    sync.Mutex
	slots [SlotCount]driver.SearchContext
	used  [SlotCount]bool

	metrics Metrics
}

// NewTable returns an empty slot table feeding allocation failures to
// m, which may be nil.
func NewTable(m Metrics) *Table {
	return &Table{metrics: m}
}

// AllocateSlot reserves the first free slot for ctx and returns its id.
func (t *Table) AllocateSlot(ctx driver.SearchContext) (uint8, error) {
	t.mu.Lock()
	for i := 0; i < SlotCount; i++ {
		if !t.used[i] {
			t.used[i] = true
			t.slots[i] = ctx
			t.mu.Unlock()
			return uint8(i), nil
		}
	}
	t.mu.Unlock()
	if t.metrics != nil {
		t.metrics.RecordSearchSlotExhaustion()
	}
	return 0, ErrTooManySessions{}
}

// GetSlot returns the search context at slotID, or ok=false if the
// slot is free -- including the case where it raced a concurrent
// DeallocateSlot.
func (t *Table) GetSlot(slotID uint8) (driver.SearchContext, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.used[slotID] {
		return nil, false
	}
	return t.slots[slotID], true
}

// DeallocateSlot frees slotID, closing its search context first. Safe
// to call on an already-free slot.
func (t *Table) DeallocateSlot(slotID uint8) {
	t.mu.Lock()
	ctx := t.slots[slotID]
	wasUsed := t.used[slotID]
	t.used[slotID] = false
	t.slots[slotID] = nil
	t.mu.Unlock()

	if wasUsed && ctx != nil {
		_ = ctx.CloseSearch()
	}
}

// CloseAll deallocates every slot, closing any search contexts still
// active. Called on session teardown.
func (t *Table) CloseAll() {
	for i := 0; i < SlotCount; i++ {
		t.DeallocateSlot(uint8(i))
	}
}
