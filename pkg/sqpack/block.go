package sqpack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

const (
	// BlockHeaderSize is the fixed size of the prefix in front of every block payload.
	BlockHeaderSize = 16

	// UncompressedMarker in the first length field marks a block stored verbatim.
	UncompressedMarker = 32000
)

// CompressionMode describes how a block payload is stored.
// It is either Compressed or Uncompressed.
type CompressionMode interface {
	isCompressionMode()
}

// Compressed is a raw DEFLATE payload.
type Compressed struct {
	CompressedLength   uint32
	DecompressedLength uint32
}

// Uncompressed is a payload stored as-is.
type Uncompressed struct {
	FileSize uint32
}

func (Compressed) isCompressionMode()   {}
func (Uncompressed) isCompressionMode() {}

// BlockHeader is the decoded 16-byte block prefix.
type BlockHeader struct {
	Size        uint32
	Compression CompressionMode
}

type rawBlockHeader struct {
	Size    uint32
	_       uint32
	Length1 uint32
	Length2 uint32
}

// NewCompressionMode classifies the two raw length fields of a block header.
func NewCompressionMode(length1, length2 uint32) CompressionMode {
	if length1 == UncompressedMarker {
		return Uncompressed{FileSize: length2}
	}
	return Compressed{CompressedLength: length1, DecompressedLength: length2}
}

func readBlockHeader(s *stream) (BlockHeader, error) {
	var raw rawBlockHeader
	if err := binary.Read(s, binary.LittleEndian, &raw); err != nil {
		return BlockHeader{}, fmt.Errorf("%w: block header: %w", ErrMalformedHeader, err)
	}
	return BlockHeader{
		Size:        raw.Size,
		Compression: NewCompressionMode(raw.Length1, raw.Length2),
	}, nil
}

// decodeBlock decodes the block at pos. With restore set the cursor goes back
// to where it was before the call, otherwise it is left after the payload.
func decodeBlock(s *stream, pos int64, restore bool) ([]byte, error) {
	orig := s.pos
	if err := s.seek(pos); err != nil {
		return nil, fmt.Errorf("block at 0x%x: %w", pos, err)
	}

	hdr, err := readBlockHeader(s)
	if err != nil {
		return nil, fmt.Errorf("block at 0x%x: %w", pos, err)
	}

	var data []byte
	switch mode := hdr.Compression.(type) {
	case Compressed:
		raw, err := s.readBytes(int64(mode.CompressedLength))
		if err != nil {
			return nil, fmt.Errorf("block at 0x%x: %w", pos, err)
		}
		data, err = inflate(raw, mode.DecompressedLength)
		if err != nil {
			return nil, fmt.Errorf("block at 0x%x: %w", pos, err)
		}
	case Uncompressed:
		data, err = s.readBytes(int64(mode.FileSize))
		if err != nil {
			return nil, fmt.Errorf("block at 0x%x: %w", pos, err)
		}
	}

	if restore {
		if err := s.seek(orig); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// inflatePrealloc caps the buffer reserved up front from a declared size.
// The buffer grows with the actual output past that.
const inflatePrealloc = 64 << 10

// inflate decompresses a headerless DEFLATE stream into at most size bytes.
// A stream that yields fewer bytes than declared is cut to what it produced.
func inflate(compressed []byte, size uint32) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()

	var out bytes.Buffer
	out.Grow(int(min(size, inflatePrealloc)))
	_, err := io.CopyN(&out, fr, int64(size))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return out.Bytes(), nil
}
