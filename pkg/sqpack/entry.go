package sqpack

import (
	"encoding/binary"
	"fmt"
)

// MaxLODs is the number of model detail levels stored per section.
const MaxLODs = 3

// MaxTextureLODs bounds the mip level table of a texture entry.
const MaxTextureLODs = 16

// EntryKind is the storage shape of an archive entry.
type EntryKind uint32

const (
	KindEmpty    EntryKind = 1
	KindStandard EntryKind = 2
	KindModel    EntryKind = 3
	KindTexture  EntryKind = 4
)

func (k EntryKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindStandard:
		return "standard"
	case KindModel:
		return "model"
	case KindTexture:
		return "texture"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(k))
	}
}

// EntryHeader is the leading header of an entry. Exactly one of Standard,
// Texture and Model is set, matching Kind; none is set for KindEmpty.
type EntryHeader struct {
	HeaderSize   uint32
	Kind         EntryKind
	DeclaredSize uint32

	Standard []StandardBlock
	Texture  []TextureLOD
	Model    *ModelBlock
}

// StandardBlock locates one block of a standard entry. Offset is relative
// to the end of the entry header.
type StandardBlock struct {
	Offset           uint32
	CompressedSize   uint16
	UncompressedSize uint16
}

// TextureLOD describes the block chain of one mip level.
type TextureLOD struct {
	CompressedOffset uint32
	CompressedSize   uint32
	DecompressedSize uint32
	BlockOffset      uint32
	BlockCount       uint32
}

// SectionInfo holds one value per model section.
type SectionInfo[T uint16 | uint32] struct {
	Stack   T
	Runtime T
	Vertex  [MaxLODs]T
	Edge    [MaxLODs]T
	Index   [MaxLODs]T
}

// ModelBlock is the block table of a model entry.
type ModelBlock struct {
	BlockCount     uint32
	UsedBlockCount uint32
	Version        uint32

	UncompressedSize SectionInfo[uint32]
	CompressedSize   SectionInfo[uint32]
	Offset           SectionInfo[uint32]
	BlockIndex       SectionInfo[uint16]
	BlockNum         SectionInfo[uint16]

	VertexDeclarationCount uint16
	MaterialCount          uint16
	LODCount               uint8
	IndexStreaming         bool
	EdgeGeometry           bool
	_                      uint8
}

type entryPrefix struct {
	HeaderSize   uint32
	Kind         EntryKind
	DeclaredSize uint32
}

// blockTablePrefix precedes the standard and texture tables.
type blockTablePrefix struct {
	_     [2]uint32
	Count uint32
}

var (
	standardBlockSize = int64(binary.Size(StandardBlock{}))
	textureLODSize    = int64(binary.Size(TextureLOD{}))
)

// readEntryHeader reads the entry header at offset and leaves the stream
// right after its kind-specific table.
func readEntryHeader(s *stream, offset int64) (*EntryHeader, error) {
	if err := s.seek(offset); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}

	var prefix entryPrefix
	if err := binary.Read(s, binary.LittleEndian, &prefix); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}

	hdr := &EntryHeader{
		HeaderSize:   prefix.HeaderSize,
		Kind:         prefix.Kind,
		DeclaredSize: prefix.DeclaredSize,
	}

	var err error
	switch prefix.Kind {
	case KindEmpty:
	case KindStandard:
		hdr.Standard, err = readStandardTable(s)
	case KindTexture:
		hdr.Texture, err = readTextureTable(s)
	case KindModel:
		hdr.Model = new(ModelBlock)
		if err = binary.Read(s, binary.LittleEndian, hdr.Model); err != nil {
			err = fmt.Errorf("%w: model table: %w", ErrMalformedHeader, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntryKind, prefix.Kind)
	}
	if err != nil {
		return nil, err
	}
	return hdr, nil
}

func readTableCount(s *stream, entrySize int64) (uint32, error) {
	var prefix blockTablePrefix
	if err := binary.Read(s, binary.LittleEndian, &prefix); err != nil {
		return 0, fmt.Errorf("%w: block table: %w", ErrMalformedHeader, err)
	}
	if int64(prefix.Count)*entrySize > s.remaining() {
		return 0, fmt.Errorf("%w: %d table entries exceed the source", ErrMalformedHeader, prefix.Count)
	}
	return prefix.Count, nil
}

func readStandardTable(s *stream) ([]StandardBlock, error) {
	count, err := readTableCount(s, standardBlockSize)
	if err != nil {
		return nil, err
	}
	blocks := make([]StandardBlock, count)
	if err := binary.Read(s, binary.LittleEndian, blocks); err != nil {
		return nil, fmt.Errorf("%w: standard table: %w", ErrMalformedHeader, err)
	}
	return blocks, nil
}

func readTextureTable(s *stream) ([]TextureLOD, error) {
	count, err := readTableCount(s, textureLODSize)
	if err != nil {
		return nil, err
	}
	if count == 0 || count > MaxTextureLODs {
		return nil, fmt.Errorf("%w: texture with %d levels", ErrMalformedHeader, count)
	}
	lods := make([]TextureLOD, count)
	if err := binary.Read(s, binary.LittleEndian, lods); err != nil {
		return nil, fmt.Errorf("%w: texture table: %w", ErrMalformedHeader, err)
	}
	return lods, nil
}
