package pf

import (
	"encoding/binary"
	"fmt"
)

// PageStore is a page-addressable backing store. Implementations never
// count their own I/O; the buffer pool owns all accounting so counters
// stay centralized and testable.
//
// A store is owned by exactly one buffer pool for the pool's lifetime.
type PageStore interface {
	// ReadPage reads the page with the given ID. The returned slice is
	// always exactly PageSize bytes and owned by the caller.
	ReadPage(pageID uint32) ([]byte, error)

	// WritePage persists exactly PageSize bytes under the given ID
	WritePage(pageID uint32, data []byte) error

	// AllocatePage reserves a fresh page ID
	AllocatePage() (uint32, error)

	// Close releases the store's resources
	Close() error
}

// SyntheticStore is a deterministic in-memory backing store for
// benchmarking. Reads of never-written pages return content derived
// from the page ID; written pages are kept in an overlay so that read
// after write round-trips for the lifetime of the run. No real I/O
// happens, which isolates the benchmark from disk latency noise.
type SyntheticStore struct {
	overlay    map[uint32][]byte
	nextPageID uint32
}

// NewSyntheticStore creates an empty synthetic store
func NewSyntheticStore() *SyntheticStore {
	return &SyntheticStore{
		overlay: make(map[uint32][]byte),
	}
}

// ReadPage returns the overlay content if the page was written, or
// deterministic generated content otherwise
func (ss *SyntheticStore) ReadPage(pageID uint32) ([]byte, error) {
	data := make([]byte, PageSize)
	if stored, exists := ss.overlay[pageID]; exists {
		copy(data, stored)
		return data, nil
	}

	synthesizePage(pageID, data)
	return data, nil
}

// WritePage stores the page in the overlay
func (ss *SyntheticStore) WritePage(pageID uint32, data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("page data must be exactly %d bytes, got %d", PageSize, len(data))
	}

	stored := make([]byte, PageSize)
	copy(stored, data)
	ss.overlay[pageID] = stored
	return nil
}

// AllocatePage reserves the next page ID
func (ss *SyntheticStore) AllocatePage() (uint32, error) {
	pageID := ss.nextPageID
	ss.nextPageID++
	return pageID, nil
}

// Close discards the overlay
func (ss *SyntheticStore) Close() error {
	ss.overlay = nil
	return nil
}

// synthesizePage fills buf with content derived only from the page ID,
// so repeated reads of an unwritten page always agree
func synthesizePage(pageID uint32, buf []byte) {
	seed := pageID*2654435761 + 0x9E3779B9
	for off := 0; off+4 <= len(buf); off += 4 {
		binary.LittleEndian.PutUint32(buf[off:], seed+uint32(off))
	}
}
