// Package sqpacktest lays out synthetic data files for tests.
package sqpacktest

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/flate"

	"github.com/Faultbox/sqpack-tools/pkg/sqpack"
)

// BlockAlign is the alignment of every block written by a Builder.
const BlockAlign = 128

// Block is one stored block of an entry.
type Block struct {
	Data     []byte
	Compress bool

	// DeclaredSize replaces the decompressed length in the block header
	// when non-zero.
	DeclaredSize uint32

	// Encoded, when set, is written verbatim instead of encoding Data.
	Encoded []byte
}

// Raw returns a block stored uncompressed.
func Raw(data []byte) Block {
	return Block{Data: data}
}

// Deflate returns a block stored as raw DEFLATE.
func Deflate(data []byte) Block {
	return Block{Data: data, Compress: true}
}

// BlockBytes returns a block header with the two given length fields
// followed by payload.
func BlockBytes(length1, length2 uint32, payload []byte) []byte {
	out := make([]byte, sqpack.BlockHeaderSize, sqpack.BlockHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:], sqpack.BlockHeaderSize)
	binary.LittleEndian.PutUint32(out[8:], length1)
	binary.LittleEndian.PutUint32(out[12:], length2)
	return append(out, payload...)
}

// Encode returns the on-disk bytes of b, padded to BlockAlign.
func (b Block) Encode() []byte {
	out := b.Encoded
	if out == nil {
		size := uint32(len(b.Data))
		if b.DeclaredSize != 0 {
			size = b.DeclaredSize
		}
		if b.Compress {
			packed := compress(b.Data)
			out = BlockBytes(uint32(len(packed)), size, packed)
		} else {
			out = BlockBytes(sqpack.UncompressedMarker, uint32(len(b.Data)), b.Data)
		}
	}
	if rem := len(out) % BlockAlign; rem != 0 {
		out = append(out, make([]byte, BlockAlign-rem)...)
	}
	return out
}

func compress(data []byte) []byte {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		panic(err)
	}
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// Builder appends entries to an in-memory data file.
type Builder struct {
	buf bytes.Buffer
}

// Bytes returns the data file built so far.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Pad appends n filler bytes.
func (b *Builder) Pad(n int) {
	b.buf.Write(make([]byte, n))
}

func (b *Builder) offset() uint32 {
	return uint32(b.buf.Len())
}

func (b *Builder) write(v any) {
	binary.Write(&b.buf, binary.LittleEndian, v)
}

func (b *Builder) writePrefix(headerSize uint32, kind sqpack.EntryKind, declared uint32) {
	b.write(headerSize)
	b.write(kind)
	b.write(declared)
}

func (b *Builder) writeTablePrefix(count int) {
	b.write([2]uint32{})
	b.write(uint32(count))
}

// AddEmpty appends an empty entry and returns its offset.
func (b *Builder) AddEmpty() uint32 {
	off := b.offset()
	b.writePrefix(12, sqpack.KindEmpty, 0)
	return off
}

// AddStandard appends a standard entry and returns its offset.
func (b *Builder) AddStandard(blocks ...Block) uint32 {
	off := b.offset()

	var encoded [][]byte
	var declared uint32
	for _, blk := range blocks {
		encoded = append(encoded, blk.Encode())
		declared += uint32(len(blk.Data))
	}

	headerSize := 24 + 8*len(blocks)
	b.writePrefix(uint32(headerSize), sqpack.KindStandard, declared)
	b.writeTablePrefix(len(blocks))

	var rel uint32
	for i, enc := range encoded {
		b.write(sqpack.StandardBlock{
			Offset:           rel,
			CompressedSize:   uint16(len(enc)),
			UncompressedSize: uint16(len(blocks[i].Data)),
		})
		rel += uint32(len(enc))
	}
	for _, enc := range encoded {
		b.buf.Write(enc)
	}
	return off
}

// AddTexture appends a texture entry with an optional raw texture header and
// one block chain per mip level, and returns its offset.
func (b *Builder) AddTexture(header []byte, lods ...[]Block) uint32 {
	off := b.offset()

	var table []sqpack.TextureLOD
	var sizes []uint16
	var body [][]byte
	declared := uint32(len(header))
	rel := uint32(len(header))
	for _, lod := range lods {
		entry := sqpack.TextureLOD{
			CompressedOffset: rel,
			BlockOffset:      uint32(len(sizes)),
			BlockCount:       uint32(len(lod)),
		}
		for _, blk := range lod {
			enc := blk.Encode()
			body = append(body, enc)
			sizes = append(sizes, uint16(len(enc)))
			entry.CompressedSize += uint32(len(enc))
			entry.DecompressedSize += uint32(len(blk.Data))
			rel += uint32(len(enc))
		}
		declared += entry.DecompressedSize
		table = append(table, entry)
	}

	headerSize := 24 + 20*len(lods) + 2*len(sizes)
	b.writePrefix(uint32(headerSize), sqpack.KindTexture, declared)
	b.writeTablePrefix(len(lods))
	b.write(table)
	b.write(sizes)

	b.buf.Write(header)
	for _, enc := range body {
		b.buf.Write(enc)
	}
	return off
}

// Model describes the sections of a model entry.
type Model struct {
	Version                uint32
	VertexDeclarationCount uint16
	MaterialCount          uint16
	LODCount               uint8
	IndexStreaming         bool
	EdgeGeometry           bool

	Stack   []Block
	Runtime []Block
	Vertex  [sqpack.MaxLODs][]Block
	Edge    [sqpack.MaxLODs][]Block
	Index   [sqpack.MaxLODs][]Block
}

type section struct {
	blocks     []Block
	offset     *uint32
	compressed *uint32
	raw        *uint32
	index      *uint16
	num        *uint16
}

// AddModel appends a model entry and returns its offset.
func (b *Builder) AddModel(m Model) uint32 {
	off := b.offset()

	mb := &sqpack.ModelBlock{
		Version:                m.Version,
		VertexDeclarationCount: m.VertexDeclarationCount,
		MaterialCount:          m.MaterialCount,
		LODCount:               m.LODCount,
		IndexStreaming:         m.IndexStreaming,
		EdgeGeometry:           m.EdgeGeometry,
	}

	sections := []section{
		{m.Stack, &mb.Offset.Stack, &mb.CompressedSize.Stack, &mb.UncompressedSize.Stack, &mb.BlockIndex.Stack, &mb.BlockNum.Stack},
		{m.Runtime, &mb.Offset.Runtime, &mb.CompressedSize.Runtime, &mb.UncompressedSize.Runtime, &mb.BlockIndex.Runtime, &mb.BlockNum.Runtime},
	}
	for i := 0; i < sqpack.MaxLODs; i++ {
		sections = append(sections,
			section{m.Vertex[i], &mb.Offset.Vertex[i], &mb.CompressedSize.Vertex[i], &mb.UncompressedSize.Vertex[i], &mb.BlockIndex.Vertex[i], &mb.BlockNum.Vertex[i]},
			section{m.Edge[i], &mb.Offset.Edge[i], &mb.CompressedSize.Edge[i], &mb.UncompressedSize.Edge[i], &mb.BlockIndex.Edge[i], &mb.BlockNum.Edge[i]},
			section{m.Index[i], &mb.Offset.Index[i], &mb.CompressedSize.Index[i], &mb.UncompressedSize.Index[i], &mb.BlockIndex.Index[i], &mb.BlockNum.Index[i]},
		)
	}

	var body [][]byte
	var strides []uint16
	var rel uint32
	var declared uint32
	for _, sec := range sections {
		*sec.offset = rel
		*sec.index = uint16(len(strides))
		*sec.num = uint16(len(sec.blocks))
		for _, blk := range sec.blocks {
			enc := blk.Encode()
			body = append(body, enc)
			strides = append(strides, uint16(len(enc)))
			*sec.compressed += uint32(len(enc))
			*sec.raw += uint32(len(blk.Data))
			rel += uint32(len(enc))
		}
		declared += *sec.raw
	}
	mb.BlockCount = uint32(len(strides))
	mb.UsedBlockCount = mb.BlockCount

	// The reader consumes StrideCount entries; the unused tail stays zero.
	table := make([]uint16, mb.StrideCount())
	copy(table, strides)

	headerSize := 12 + binary.Size(mb) + 2*len(table)
	b.writePrefix(uint32(headerSize), sqpack.KindModel, declared+sqpack.ModelHeaderSize)
	b.write(mb)
	b.write(table)

	for _, enc := range body {
		b.buf.Write(enc)
	}
	return off
}
