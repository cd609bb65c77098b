package pf

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the on-disk page compression algorithm
type CompressionType uint8

const (
	CompressionNone   CompressionType = 0
	CompressionLZ4    CompressionType = 1
	CompressionSnappy CompressionType = 2
)

// ParseCompression maps a config/CLI name to a CompressionType
func ParseCompression(name string) (CompressionType, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "snappy":
		return CompressionSnappy, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q (must be none, lz4 or snappy)", name)
	}
}

// Compressed page layout (always padded to PageSize on disk):
// [0-1]: Magic number (0xC0DE for compressed pages)
// [2]: Compression type
// [3]: Reserved
// [4-5]: Uncompressed size
// [6-7]: Compressed size
// [8-11]: CRC32 of original data
// [12+]: Compressed data
const (
	compressedPageMagic  = 0xC0DE
	compressedHeaderSize = 12

	// Minimum bytes saved for compression to be worthwhile; below this
	// the page is stored uncompressed
	minCompressionSavings = 100
)

// CompressPageImage compresses a page image and returns a PageSize
// buffer ready for the backing store. Falls back to raw storage when
// the compressed form would not fit or saves too little.
func CompressPageImage(data []byte, ctype CompressionType) ([]byte, error) {
	if len(data) != PageSize {
		return nil, fmt.Errorf("page image must be exactly %d bytes, got %d", PageSize, len(data))
	}
	if ctype == CompressionNone {
		out := make([]byte, PageSize)
		copy(out, data)
		return out, nil
	}

	var compressed []byte
	switch ctype {
	case CompressionLZ4:
		compressed = make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("LZ4 compression failed: %w", err)
		}
		compressed = compressed[:n]

	case CompressionSnappy:
		compressed = snappy.Encode(nil, data)

	default:
		return nil, fmt.Errorf("unsupported compression type: %d", ctype)
	}

	// Store raw if compression does not pay for itself or would not
	// fit alongside the header
	if len(data)-len(compressed) < minCompressionSavings ||
		compressedHeaderSize+len(compressed) > PageSize {
		out := make([]byte, PageSize)
		copy(out, data)
		return out, nil
	}

	out := make([]byte, PageSize)
	binary.LittleEndian.PutUint16(out[0:2], compressedPageMagic)
	out[2] = uint8(ctype)
	out[3] = 0
	binary.LittleEndian.PutUint16(out[4:6], uint16(len(data)))
	binary.LittleEndian.PutUint16(out[6:8], uint16(len(compressed)))
	binary.LittleEndian.PutUint32(out[8:12], crc32.ChecksumIEEE(data))
	copy(out[compressedHeaderSize:], compressed)

	return out, nil
}

// DecompressPageImage restores a page image read from the backing
// store. Pages without the compression magic are returned as-is.
func DecompressPageImage(data []byte) ([]byte, error) {
	if !isCompressedPage(data) {
		return data, nil
	}

	ctype := CompressionType(data[2])
	uncompressedSize := binary.LittleEndian.Uint16(data[4:6])
	compressedSize := binary.LittleEndian.Uint16(data[6:8])
	checksum := binary.LittleEndian.Uint32(data[8:12])

	if compressedHeaderSize+int(compressedSize) > len(data) {
		return nil, fmt.Errorf("truncated compressed page: need %d bytes, have %d",
			compressedHeaderSize+int(compressedSize), len(data))
	}
	payload := data[compressedHeaderSize : compressedHeaderSize+int(compressedSize)]

	var decompressed []byte
	switch ctype {
	case CompressionLZ4:
		decompressed = make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(payload, decompressed)
		if err != nil {
			return nil, fmt.Errorf("LZ4 decompression failed: %w", err)
		}
		if n != int(uncompressedSize) {
			return nil, fmt.Errorf("LZ4 decompression size mismatch: got %d, expected %d", n, uncompressedSize)
		}

	case CompressionSnappy:
		var err error
		decompressed, err = snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("snappy decompression failed: %w", err)
		}
		if len(decompressed) != int(uncompressedSize) {
			return nil, fmt.Errorf("snappy decompression size mismatch: got %d, expected %d", len(decompressed), uncompressedSize)
		}

	default:
		return nil, fmt.Errorf("unsupported compression type: %d", ctype)
	}

	if crc32.ChecksumIEEE(decompressed) != checksum {
		return nil, fmt.Errorf("checksum mismatch on compressed page")
	}

	return decompressed, nil
}

func isCompressedPage(data []byte) bool {
	if len(data) < compressedHeaderSize {
		return false
	}
	return binary.LittleEndian.Uint16(data[0:2]) == compressedPageMagic
}
