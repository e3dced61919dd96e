package sqpack

import "fmt"

// readStandard concatenates the listed blocks in table order.
func readStandard(s *stream, base int64, blocks []StandardBlock) ([]byte, error) {
	data := []byte{}
	for i, block := range blocks {
		chunk, err := decodeBlock(s, base+int64(block.Offset), true)
		if err != nil {
			return nil, fmt.Errorf("standard block %d: %w", i, err)
		}
		data = append(data, chunk...)
	}
	return data, nil
}
