package sqpack

import "fmt"

// readTexture rebuilds a texture entry: the raw texture header (if any)
// followed by every mip level's block chain.
//
// The stream must sit right after the LOD table; the chain deltas are read
// from there in order while each block decode restores that position.
func readTexture(s *stream, base int64, lods []TextureLOD) ([]byte, error) {
	var data []byte

	if headerSize := lods[0].CompressedOffset; headerSize != 0 {
		raw, err := readRaw(s, base, int64(headerSize))
		if err != nil {
			return nil, fmt.Errorf("texture header: %w", err)
		}
		data = append(data, raw...)
	}

	for i, lod := range lods {
		pos := base + int64(lod.CompressedOffset)
		chunk, err := decodeBlock(s, pos, true)
		if err != nil {
			return nil, fmt.Errorf("lod %d block 0: %w", i, err)
		}
		data = append(data, chunk...)

		for j := uint32(1); j < lod.BlockCount; j++ {
			delta, err := s.readInt16()
			if err != nil {
				return nil, fmt.Errorf("lod %d delta %d: %w", i, j, err)
			}
			pos += int64(delta)
			chunk, err := decodeBlock(s, pos, true)
			if err != nil {
				return nil, fmt.Errorf("lod %d block %d: %w", i, j, err)
			}
			data = append(data, chunk...)
		}

		// Trailing delta of the chain, unused.
		if _, err := s.readInt16(); err != nil {
			return nil, fmt.Errorf("lod %d trailing delta: %w", i, err)
		}
	}

	return data, nil
}

// readRaw copies n bytes at pos without disturbing the cursor.
func readRaw(s *stream, pos, n int64) ([]byte, error) {
	orig := s.pos
	if err := s.seek(pos); err != nil {
		return nil, err
	}
	raw, err := s.readBytes(n)
	if err != nil {
		return nil, err
	}
	return raw, s.seek(orig)
}
