package pf

import (
	"bytes"
	"path/filepath"
	"testing"
)

// TestSyntheticStoreDeterministic tests that unwritten pages always
// read the same content
func TestSyntheticStoreDeterministic(t *testing.T) {
	store := NewSyntheticStore()

	first, err := store.ReadPage(42)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	second, err := store.ReadPage(42)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Repeated reads of an unwritten page must agree")
	}

	other, err := store.ReadPage(43)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if bytes.Equal(first, other) {
		t.Error("Different pages should have different generated content")
	}
}

// TestSyntheticStoreRoundTrip tests read-after-write
func TestSyntheticStoreRoundTrip(t *testing.T) {
	store := NewSyntheticStore()

	data := make([]byte, PageSize)
	for i := range data {
		data[i] = byte(i % 251)
	}

	if err := store.WritePage(7, data); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	got, err := store.ReadPage(7)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Read after write must return the written bytes")
	}

	// The returned slice is a copy; mutating it must not leak back
	got[0] ^= 0xFF
	again, err := store.ReadPage(7)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if again[0] == got[0] {
		t.Error("ReadPage must hand out an independent copy")
	}
}

// TestSyntheticStoreAllocate tests page id allocation
func TestSyntheticStoreAllocate(t *testing.T) {
	store := NewSyntheticStore()

	for expected := uint32(0); expected < 5; expected++ {
		pageID, err := store.AllocatePage()
		if err != nil {
			t.Fatalf("AllocatePage failed: %v", err)
		}
		if pageID != expected {
			t.Errorf("Expected page id %d, got %d", expected, pageID)
		}
	}
}

// TestDiskStoreRoundTrip tests the file-backed store
func TestDiskStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pf")
	store, err := NewDiskStore(path)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	defer store.Close()

	data := make([]byte, PageSize)
	copy(data, []byte("disk store round trip"))

	pageID, err := store.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage failed: %v", err)
	}
	if err := store.WritePage(pageID, data); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	got, err := store.ReadPage(pageID)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Read after write must return the written bytes")
	}
}

// TestDiskStoreReopen tests that allocation resumes past existing pages
func TestDiskStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pf")

	store, err := NewDiskStore(path)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	data := make([]byte, PageSize)
	for i := 0; i < 3; i++ {
		pageID, err := store.AllocatePage()
		if err != nil {
			t.Fatalf("AllocatePage failed: %v", err)
		}
		if err := store.WritePage(pageID, data); err != nil {
			t.Fatalf("WritePage failed: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewDiskStore(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	pageID, err := reopened.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage failed: %v", err)
	}
	if pageID != 3 {
		t.Errorf("Expected allocation to resume at page 3, got %d", pageID)
	}
}

// TestDiskStoreCompressedRoundTrip tests transparent compression
// through the store for both algorithms
func TestDiskStoreCompressedRoundTrip(t *testing.T) {
	for _, ctype := range []CompressionType{CompressionLZ4, CompressionSnappy} {
		path := filepath.Join(t.TempDir(), "test.pf")
		store, err := NewDiskStoreWithCompression(path, ctype)
		if err != nil {
			t.Fatalf("NewDiskStoreWithCompression failed: %v", err)
		}

		// Highly compressible content
		data := make([]byte, PageSize)
		for i := range data {
			data[i] = byte(i % 4)
		}

		if err := store.WritePage(0, data); err != nil {
			t.Fatalf("WritePage failed: %v", err)
		}
		got, err := store.ReadPage(0)
		if err != nil {
			t.Fatalf("ReadPage failed: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Compression type %d: round trip mismatch", ctype)
		}
		store.Close()
	}
}

// TestMmapStoreRoundTrip tests the memory-mapped store
func TestMmapStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pf")
	store, err := NewMmapStore(path)
	if err != nil {
		t.Fatalf("NewMmapStore failed: %v", err)
	}
	defer store.Close()

	data := make([]byte, PageSize)
	copy(data, []byte("mmap store round trip"))

	pageID, err := store.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage failed: %v", err)
	}
	if err := store.WritePage(pageID, data); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	got, err := store.ReadPage(pageID)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Read after write must return the written bytes")
	}

	if err := store.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
}

// TestMmapStoreBadSize tests write size validation
func TestMmapStoreBadSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pf")
	store, err := NewMmapStore(path)
	if err != nil {
		t.Fatalf("NewMmapStore failed: %v", err)
	}
	defer store.Close()

	if err := store.WritePage(0, make([]byte, 100)); err == nil {
		t.Error("Expected error for short page write")
	}
}

// TestPoolOverDiskStore tests the full stack: pool faults, dirty
// evictions and flushes against a real page file
func TestPoolOverDiskStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.pf")
	store, err := NewDiskStore(path)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	pool, err := NewBufferPool(2, store, PolicyLRU)
	if err != nil {
		t.Fatalf("NewBufferPool failed: %v", err)
	}

	// Materialize 4 pages, each stamped and written back
	for i := 0; i < 4; i++ {
		h, err := pool.AllocPage()
		if err != nil {
			t.Fatalf("AllocPage failed: %v", err)
		}
		h.Data[0] = byte(0xA0 + i)
		if err := pool.Unfix(h.PageID, true); err != nil {
			t.Fatalf("Unfix failed: %v", err)
		}
	}

	if err := pool.FlushAll(); err != nil {
		t.Fatalf("FlushAll failed: %v", err)
	}

	// Fault everything back in and verify content survived eviction
	for i := uint32(0); i < 4; i++ {
		h, err := pool.Fix(i, AccessRead)
		if err != nil {
			t.Fatalf("Fix of page %d failed: %v", i, err)
		}
		if h.Data[0] != byte(0xA0+i) {
			t.Errorf("Page %d content lost: got 0x%02X", i, h.Data[0])
		}
		if err := pool.Unfix(i, false); err != nil {
			t.Fatalf("Unfix failed: %v", err)
		}
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
