package sqpack

import (
	"encoding/binary"
	"fmt"
)

// ModelHeaderSize is the size of the header rebuilt in front of a model.
const ModelHeaderSize = 68

// ModelFileHeader is the header written at the start of a reconstructed
// model. Its sizes and offsets describe the decoded layout, not the archive.
type ModelFileHeader struct {
	Version                uint32
	StackSize              int32
	RuntimeSize            int32
	VertexDeclarationCount uint16
	MaterialCount          uint16
	VertexOffset           [MaxLODs]int32
	IndexOffset            [MaxLODs]int32
	VertexBufferSize       [MaxLODs]int32
	IndexBufferSize        [MaxLODs]int32
	LODCount               uint8
	IndexStreaming         bool
	EdgeGeometry           bool
	_                      uint8
}

// ParseModelFileHeader decodes the leading header of a reconstructed model.
func ParseModelFileHeader(data []byte) (*ModelFileHeader, error) {
	hdr := new(ModelFileHeader)
	if _, err := binary.Decode(data, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("%w: model file header: %v", ErrMalformedHeader, err)
	}
	return hdr, nil
}

// strideTable is the flat list of distances between consecutive model blocks,
// shared by all sections in traversal order.
type strideTable struct {
	strides []uint16
	next    int
}

func (t *strideTable) take() (uint16, error) {
	if t.next >= len(t.strides) {
		return 0, fmt.Errorf("%w: stride table exhausted after %d entries", ErrOutOfBounds, len(t.strides))
	}
	v := t.strides[t.next]
	t.next++
	return v, nil
}

// StrideCount is the number of stride entries read after a model table.
// The stack count is left out while runtime and per-LOD counts are added on
// top of BlockCount, matching how existing archives were laid out.
func (mb *ModelBlock) StrideCount() uint32 {
	total := mb.BlockCount + uint32(mb.BlockNum.Runtime)
	for i := 0; i < MaxLODs; i++ {
		total += uint32(mb.BlockNum.Vertex[i])
		total += uint32(mb.BlockNum.Edge[i])
		total += uint32(mb.BlockNum.Index[i])
	}
	return total
}

func readStrideTable(s *stream, mb *ModelBlock) (*strideTable, error) {
	count := mb.StrideCount()
	if int64(count)*2 > s.remaining() {
		return nil, fmt.Errorf("%w: %d strides at 0x%x beyond 0x%x", ErrOutOfBounds, count, s.pos, s.size)
	}
	strides := make([]uint16, count)
	if err := binary.Read(s, binary.LittleEndian, strides); err != nil {
		return nil, err
	}
	return &strideTable{strides: strides}, nil
}

// readBlocks decodes count blocks starting at the current position, moving
// from each block to the next by its stride.
func readBlocks(s *stream, table *strideTable, count uint16, data []byte) ([]byte, int, error) {
	start := len(data)
	for i := uint16(0); i < count; i++ {
		pos := s.pos
		chunk, err := decodeBlock(s, pos, false)
		if err != nil {
			return nil, 0, fmt.Errorf("block %d: %w", i, err)
		}
		data = append(data, chunk...)

		stride, err := table.take()
		if err != nil {
			return nil, 0, err
		}
		if err := s.seek(pos + int64(stride)); err != nil {
			return nil, 0, fmt.Errorf("block %d stride: %w", i, err)
		}
	}
	return data, len(data) - start, nil
}

// lodOffset is the output offset recorded for a LOD buffer, or 0 when it
// starts where the previous level's buffer did.
func lodOffset(data []byte, recorded *[MaxLODs]int32, lod int) int32 {
	cur := int32(len(data))
	if lod == 0 || cur != recorded[lod-1] {
		return cur
	}
	return 0
}

// readModel rebuilds a model entry and synthesizes its file header.
// The stream must sit right after the model table.
func readModel(s *stream, base int64, mb *ModelBlock) ([]byte, error) {
	table, err := readStrideTable(s, mb)
	if err != nil {
		return nil, fmt.Errorf("model stride table: %w", err)
	}

	data := make([]byte, ModelHeaderSize)
	hdr := ModelFileHeader{
		Version:                mb.Version,
		VertexDeclarationCount: mb.VertexDeclarationCount,
		MaterialCount:          mb.MaterialCount,
		LODCount:               mb.LODCount,
		IndexStreaming:         mb.IndexStreaming,
		EdgeGeometry:           mb.EdgeGeometry,
	}

	var n int
	if err := s.seek(base + int64(mb.Offset.Stack)); err != nil {
		return nil, fmt.Errorf("stack section: %w", err)
	}
	if data, n, err = readBlocks(s, table, mb.BlockNum.Stack, data); err != nil {
		return nil, fmt.Errorf("stack section: %w", err)
	}
	hdr.StackSize = int32(n)

	if err := s.seek(base + int64(mb.Offset.Runtime)); err != nil {
		return nil, fmt.Errorf("runtime section: %w", err)
	}
	if data, n, err = readBlocks(s, table, mb.BlockNum.Runtime, data); err != nil {
		return nil, fmt.Errorf("runtime section: %w", err)
	}
	hdr.RuntimeSize = int32(n)

	for i := 0; i < MaxLODs; i++ {
		if count := mb.BlockNum.Vertex[i]; count != 0 {
			hdr.VertexOffset[i] = lodOffset(data, &hdr.VertexOffset, i)
			if err := s.seek(base + int64(mb.Offset.Vertex[i])); err != nil {
				return nil, fmt.Errorf("lod %d vertex section: %w", i, err)
			}
			if data, n, err = readBlocks(s, table, count, data); err != nil {
				return nil, fmt.Errorf("lod %d vertex section: %w", i, err)
			}
			hdr.VertexBufferSize[i] = int32(n)
		}

		// Edge and index data follow the vertex blocks directly.
		if count := mb.BlockNum.Edge[i]; count != 0 {
			if data, _, err = readBlocks(s, table, count, data); err != nil {
				return nil, fmt.Errorf("lod %d edge section: %w", i, err)
			}
		}

		if count := mb.BlockNum.Index[i]; count != 0 {
			hdr.IndexOffset[i] = lodOffset(data, &hdr.IndexOffset, i)
			if data, n, err = readBlocks(s, table, count, data); err != nil {
				return nil, fmt.Errorf("lod %d index section: %w", i, err)
			}
			hdr.IndexBufferSize[i] = int32(n)
		}
	}

	if _, err := binary.Encode(data[:ModelHeaderSize], binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("model file header: %w", err)
	}
	return data, nil
}
