package pf

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	// Initial mapping: 64MB (16K pages)
	mmapInitialSize = 64 * 1024 * 1024
	// Grow by 64MB when the mapping runs out of space
	mmapGrowSize = 64 * 1024 * 1024
)

// MmapStore is a page store backed by a memory-mapped file. Reads and
// writes go straight through the mapping; Msync on close pushes the
// pages to disk. Useful when benchmarking against a store whose access
// cost is a memory copy rather than a syscall per page.
type MmapStore struct {
	file       *os.File
	path       string
	mapped     []byte
	fileSize   int64
	nextPageID uint32
}

// NewMmapStore opens or creates a memory-mapped page file
func NewMmapStore(path string) (*MmapStore, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open/create page file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat page file %s: %w", path, err)
	}

	fileSize := info.Size()
	nextPageID := uint32(fileSize / PageSize)
	if fileSize < mmapInitialSize {
		if err := file.Truncate(mmapInitialSize); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to grow page file: %w", err)
		}
		fileSize = mmapInitialSize
	}

	ms := &MmapStore{
		file:       file,
		path:       path,
		fileSize:   fileSize,
		nextPageID: nextPageID,
	}

	if err := ms.mapFile(); err != nil {
		file.Close()
		return nil, err
	}

	return ms, nil
}

// mapFile creates or recreates the memory mapping
func (ms *MmapStore) mapFile() error {
	mapped, err := unix.Mmap(
		int(ms.file.Fd()),
		0,
		int(ms.fileSize),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return fmt.Errorf("failed to mmap page file: %w", err)
	}

	ms.mapped = mapped
	return nil
}

// grow expands the file and recreates the mapping
func (ms *MmapStore) grow() error {
	if ms.mapped != nil {
		if err := unix.Munmap(ms.mapped); err != nil {
			return fmt.Errorf("failed to unmap page file: %w", err)
		}
		ms.mapped = nil
	}

	newSize := ms.fileSize + mmapGrowSize
	if err := ms.file.Truncate(newSize); err != nil {
		// Try to restore the old mapping before reporting
		mapErr := ms.mapFile()
		if mapErr != nil {
			return fmt.Errorf("failed to grow page file (remap also failed: %v): %w", mapErr, err)
		}
		return fmt.Errorf("failed to grow page file: %w", err)
	}
	ms.fileSize = newSize

	return ms.mapFile()
}

// ReadPage reads a page by copying it out of the mapping
func (ms *MmapStore) ReadPage(pageID uint32) ([]byte, error) {
	offset := int64(pageID) * PageSize
	if offset+PageSize > ms.fileSize {
		return nil, fmt.Errorf("page %d out of bounds (file size: %d)", pageID, ms.fileSize)
	}

	data := make([]byte, PageSize)
	copy(data, ms.mapped[offset:offset+PageSize])
	return data, nil
}

// WritePage copies a page into the mapping
func (ms *MmapStore) WritePage(pageID uint32, data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("page data must be exactly %d bytes, got %d", PageSize, len(data))
	}

	offset := int64(pageID) * PageSize
	if offset+PageSize > ms.fileSize {
		return fmt.Errorf("page %d out of bounds (file size: %d)", pageID, ms.fileSize)
	}

	copy(ms.mapped[offset:offset+PageSize], data)
	return nil
}

// AllocatePage allocates a new page, growing the mapping if needed
func (ms *MmapStore) AllocatePage() (uint32, error) {
	pageID := ms.nextPageID

	if int64(pageID+1)*PageSize > ms.fileSize {
		if err := ms.grow(); err != nil {
			return 0, err
		}
	}

	ms.nextPageID++
	return pageID, nil
}

// Sync pushes all mapped pages to disk
func (ms *MmapStore) Sync() error {
	if ms.mapped == nil {
		return nil
	}
	if err := unix.Msync(ms.mapped, unix.MS_SYNC); err != nil {
		return fmt.Errorf("failed to msync page file: %w", err)
	}
	return nil
}

// Close syncs, unmaps and closes the page file
func (ms *MmapStore) Close() error {
	if err := ms.Sync(); err != nil {
		return err
	}

	if ms.mapped != nil {
		if err := unix.Munmap(ms.mapped); err != nil {
			return fmt.Errorf("failed to unmap page file: %w", err)
		}
		ms.mapped = nil
	}

	if ms.file != nil {
		return ms.file.Close()
	}
	return nil
}
