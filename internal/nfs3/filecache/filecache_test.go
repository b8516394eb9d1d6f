package filecache

import (
	"testing"

	"github.com/nfscore/nfsv3d/internal/nfs3/driver"
)

func TestFindFileRespectsAccess(t *testing.T) {
	c := New(nil)
	c.AddFile(&NetworkFile{FileID: 1, Path: "/a", Access: driver.ReadOnly})

	if _, ok := c.FindFile(1, true); ok {
		t.Fatal("read-only entry should not satisfy a write requirement")
	}
	if _, ok := c.FindFile(1, false); !ok {
		t.Fatal("read-only entry should satisfy a read requirement")
	}
}

func TestUpgradeReplacesEntry(t *testing.T) {
	c := New(nil)
	c.AddFile(&NetworkFile{FileID: 1, Path: "/a", Access: driver.ReadOnly})
	c.AddFile(&NetworkFile{FileID: 1, Path: "/a", Access: driver.ReadWrite})

	nf, ok := c.FindFile(1, true)
	if !ok || nf.Access != driver.ReadWrite {
		t.Fatalf("expected upgraded read-write entry, got %+v, %v", nf, ok)
	}
	if c.NumberOfEntries() != 1 {
		t.Fatalf("expected exactly one entry after upgrade, got %d", c.NumberOfEntries())
	}
}

func TestRemoveFile(t *testing.T) {
	c := New(nil)
	c.AddFile(&NetworkFile{FileID: 7, Path: "/d/a"})

	nf, ok := c.RemoveFile(7)
	if !ok || nf.FileID != 7 {
		t.Fatalf("RemoveFile(7) = %+v, %v", nf, ok)
	}
	if _, ok := c.FindFile(7, false); ok {
		t.Fatal("expected miss after removal")
	}
}

type countingMetrics struct {
	hits, misses int
}

func (m *countingMetrics) RecordOpenFileCacheHit()  { m.hits++ }
func (m *countingMetrics) RecordOpenFileCacheMiss() { m.misses++ }

func TestFindFileRecordsOutcomes(t *testing.T) {
	m := &countingMetrics{}
	c := New(m)
	c.AddFile(&NetworkFile{FileID: 1, Path: "/a", Access: driver.ReadOnly})

	if _, ok := c.FindFile(1, false); !ok {
		t.Fatal("expected hit")
	}
	// Insufficient access counts as a miss: the caller has to reopen.
	if _, ok := c.FindFile(1, true); ok {
		t.Fatal("expected access-mode miss")
	}
	if _, ok := c.FindFile(2, false); ok {
		t.Fatal("expected absent-entry miss")
	}
	if m.hits != 1 || m.misses != 2 {
		t.Fatalf("recorded hits=%d misses=%d, want 1/2", m.hits, m.misses)
	}
}

func TestRemoveAll(t *testing.T) {
	c := New(nil)
	c.AddFile(&NetworkFile{FileID: 1, Path: "/a"})
	c.AddFile(&NetworkFile{FileID: 2, Path: "/b"})

	drained := c.RemoveAll()
	if len(drained) != 2 {
		t.Fatalf("RemoveAll returned %d entries, want 2", len(drained))
	}
	if c.NumberOfEntries() != 0 {
		t.Fatalf("cache not empty after RemoveAll: %d", c.NumberOfEntries())
	}
}
