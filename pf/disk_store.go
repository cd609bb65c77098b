package pf

import (
	"fmt"
	"os"
)

// DiskStore is a file-backed page store. Pages live at fixed offsets
// (pageID * PageSize) in a single file; writes are synced so that the
// store survives the process when used outside pure benchmarking.
// Optional transparent compression shrinks page images on disk while
// keeping the fixed-slot layout.
type DiskStore struct {
	file        *os.File
	path        string
	nextPageID  uint32
	compression CompressionType
}

// NewDiskStore opens or creates a page file at the given path
func NewDiskStore(path string) (*DiskStore, error) {
	return NewDiskStoreWithCompression(path, CompressionNone)
}

// NewDiskStoreWithCompression opens a page file with transparent page
// compression enabled
func NewDiskStoreWithCompression(path string, ctype CompressionType) (*DiskStore, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open/create page file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat page file %s: %w", path, err)
	}

	return &DiskStore{
		file:        file,
		path:        path,
		nextPageID:  uint32(info.Size() / PageSize),
		compression: ctype,
	}, nil
}

// ReadPage reads a page from the file given its page ID
func (ds *DiskStore) ReadPage(pageID uint32) ([]byte, error) {
	offset := int64(pageID) * PageSize
	data := make([]byte, PageSize)

	if _, err := ds.file.ReadAt(data, offset); err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", pageID, err)
	}

	image, err := DecompressPageImage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress page %d: %w", pageID, err)
	}
	if len(image) != PageSize {
		padded := make([]byte, PageSize)
		copy(padded, image)
		image = padded
	}

	return image, nil
}

// WritePage writes a page to the file at the specified page ID
func (ds *DiskStore) WritePage(pageID uint32, data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("page data must be exactly %d bytes, got %d", PageSize, len(data))
	}

	image, err := CompressPageImage(data, ds.compression)
	if err != nil {
		return fmt.Errorf("failed to compress page %d: %w", pageID, err)
	}

	offset := int64(pageID) * PageSize
	if _, err := ds.file.WriteAt(image, offset); err != nil {
		return fmt.Errorf("failed to write page %d: %w", pageID, err)
	}

	return ds.file.Sync()
}

// AllocatePage allocates a new page and returns its page ID
func (ds *DiskStore) AllocatePage() (uint32, error) {
	pageID := ds.nextPageID
	ds.nextPageID++
	return pageID, nil
}

// Close closes the underlying page file
func (ds *DiskStore) Close() error {
	if ds.file != nil {
		return ds.file.Close()
	}
	return nil
}
