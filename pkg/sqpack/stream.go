package sqpack

import (
	"encoding/binary"
	"fmt"
	"io"
)

// stream is a seekable cursor over a read-only source. Each decode owns its
// own stream, so several decodes may share one io.ReaderAt.
type stream struct {
	r    io.ReaderAt
	size int64
	pos  int64
}

func newStream(r io.ReaderAt, size int64) *stream {
	return &stream{r: r, size: size}
}

func (s *stream) seek(pos int64) error {
	if pos < 0 || pos > s.size {
		return fmt.Errorf("%w: seek to 0x%x beyond 0x%x", ErrOutOfBounds, pos, s.size)
	}
	s.pos = pos
	return nil
}

func (s *stream) remaining() int64 {
	return s.size - s.pos
}

// Read fills p entirely or fails without moving the cursor.
func (s *stream) Read(p []byte) (int, error) {
	if int64(len(p)) > s.remaining() {
		return 0, fmt.Errorf("%w: %d bytes at 0x%x beyond 0x%x", ErrOutOfBounds, len(p), s.pos, s.size)
	}
	n, err := s.r.ReadAt(p, s.pos)
	if n < len(p) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, fmt.Errorf("%w: reading %d bytes at 0x%x: %v", ErrOutOfBounds, len(p), s.pos, err)
	}
	s.pos += int64(n)
	return n, nil
}

func (s *stream) readBytes(n int64) ([]byte, error) {
	if n < 0 || n > s.remaining() {
		return nil, fmt.Errorf("%w: %d bytes at 0x%x beyond 0x%x", ErrOutOfBounds, n, s.pos, s.size)
	}
	buf := make([]byte, n)
	if _, err := s.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *stream) readInt16() (int16, error) {
	var v int16
	if err := binary.Read(s, binary.LittleEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}
