package stream

import (
	"errors"
	"io"
)

// Backend is the byte source or sink under a Stream.
//
// Read fills as much of p as possible; a count smaller than len(p) means
// the end of the data. Write stores as much of p as possible; a short
// count means the backend is full. SeekTo and Tell use absolute offsets.
type Backend interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SeekTo(pos int64) (int64, error)
	Tell() int64
}

// MemBackend is a Backend over a caller-owned byte slice. It never grows
// the slice.
type MemBackend struct {
	data []byte
	pos  int
	size int // highest offset written
}

// NewMemBackend returns a backend reading from, or writing into, data.
func NewMemBackend(data []byte) *MemBackend {
	return &MemBackend{data: data}
}

func (m *MemBackend) Read(p []byte) (int, error) {
	n := copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func (m *MemBackend) Write(p []byte) (int, error) {
	n := copy(m.data[m.pos:], p)
	m.pos += n
	if m.pos > m.size {
		m.size = m.pos
	}
	return n, nil
}

var (
	_ Backend = (*MemBackend)(nil)
	_ Backend = (*FileBackend)(nil)
)

// SeekTo moves to pos, clamped to the bounds of the slice.
func (m *MemBackend) SeekTo(pos int64) (int64, error) {
	switch {
	case pos < 0:
		pos = 0
	case pos > int64(len(m.data)):
		pos = int64(len(m.data))
	}
	m.pos = int(pos)
	return pos, nil
}

func (m *MemBackend) Tell() int64 { return int64(m.pos) }

// Bytes returns the part of the slice that has been written.
func (m *MemBackend) Bytes() []byte { return m.data[:m.size] }

// FileBackend is a Backend over an open file or any other
// io.ReadWriteSeeker. It does not close the file.
type FileBackend struct {
	f   io.ReadWriteSeeker
	pos int64
}

// NewFileBackend returns a backend positioned at offset. The file is only
// sought when offset is not zero, so unseekable files such as pipes work
// for purely sequential use.
func NewFileBackend(f io.ReadWriteSeeker, offset int64) (*FileBackend, error) {
	b := &FileBackend{f: f}
	if offset != 0 {
		if _, err := b.SeekTo(offset); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *FileBackend) Read(p []byte) (int, error) {
	n, err := io.ReadFull(b.f, p)
	b.pos += int64(n)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	return n, err
}

func (b *FileBackend) Write(p []byte) (int, error) {
	n, err := b.f.Write(p)
	b.pos += int64(n)
	return n, err
}

func (b *FileBackend) SeekTo(pos int64) (int64, error) {
	off, err := b.f.Seek(pos, io.SeekStart)
	if err != nil {
		return b.pos, err
	}
	b.pos = off
	return off, nil
}

func (b *FileBackend) Tell() int64 { return b.pos }
