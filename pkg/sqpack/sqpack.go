// Package sqpack decodes entries out of SqPack-style data files, where every
// entry is stored as a header followed by independently compressed blocks.
package sqpack

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/mmap"
)

// Decode errors.
var (
	ErrMalformedHeader  = errors.New("malformed header")
	ErrInvalidEntryKind = errors.New("invalid entry kind")
	ErrDecompression    = errors.New("block decompression failed")
	ErrOutOfBounds      = errors.New("out of bounds")
)

// Archive is a read-only data file holding packed entries.
// ReadFile and Stat may be called concurrently.
type Archive struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer
}

// Open wraps an in-memory data file.
func Open(data []byte) (*Archive, error) {
	if data == nil {
		return nil, errors.New("nil data")
	}
	return NewArchive(bytes.NewReader(data), int64(len(data)))
}

// NewArchive wraps size bytes of r.
func NewArchive(r io.ReaderAt, size int64) (*Archive, error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}
	if size < 0 {
		return nil, fmt.Errorf("negative size %d", size)
	}
	return &Archive{r: r, size: size}, nil
}

// OpenFile memory-maps a data file for reading.
func OpenFile(path string) (*Archive, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapping file: %w", err)
	}
	a, err := NewArchive(m, int64(m.Len()))
	if err != nil {
		m.Close()
		return nil, err
	}
	a.closer = m
	return a, nil
}

// Close releases the mapping created by OpenFile.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Size returns the size of the data file in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// Stat reads the header of the entry at offset.
func (a *Archive) Stat(offset uint32) (*EntryHeader, error) {
	hdr, err := readEntryHeader(newStream(a.r, a.size), int64(offset))
	if err != nil {
		return nil, fmt.Errorf("entry at 0x%x: %w", offset, err)
	}
	return hdr, nil
}

// ReadFile decodes the entry whose header starts at offset and returns the
// original file content.
func (a *Archive) ReadFile(offset uint32) ([]byte, error) {
	s := newStream(a.r, a.size)
	hdr, err := readEntryHeader(s, int64(offset))
	if err != nil {
		return nil, fmt.Errorf("entry at 0x%x: %w", offset, err)
	}

	base := int64(offset) + int64(hdr.HeaderSize)

	var data []byte
	switch hdr.Kind {
	case KindStandard:
		data, err = readStandard(s, base, hdr.Standard)
	case KindTexture:
		data, err = readTexture(s, base, hdr.Texture)
	case KindModel:
		data, err = readModel(s, base, hdr.Model)
	default:
		err = fmt.Errorf("%w: %s", ErrInvalidEntryKind, hdr.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("entry at 0x%x: %w", offset, err)
	}
	return data, nil
}
