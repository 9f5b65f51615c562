// Package buffer implements the fixed-capacity byte buffer shared by
// streams, filters and the tokenizer.
//
// A Buffer has a read cursor RP and a write cursor WP with
// 0 <= RP <= WP <= Size(). Bytes in Data[RP:WP] are pending; bytes in
// Data[WP:] are free space. The buffer never grows.
package buffer

import "github.com/tsawler/pdfsyntax/pdferr"

// Buffer is a fixed-capacity byte buffer with read and write cursors.
type Buffer struct {
	Data []byte
	RP   int // read position
	WP   int // write position
}

// New creates a buffer with the given capacity and both cursors at 0.
func New(size int) *Buffer {
	if size < 0 {
		size = 0
	}
	return &Buffer{Data: make([]byte, size)}
}

// Size returns the capacity of the buffer.
func (b *Buffer) Size() int { return len(b.Data) }

// Full reports whether the write cursor reached the end of the buffer.
func (b *Buffer) Full() bool { return b.WP == len(b.Data) }

// EOB reports whether all written bytes have been read.
func (b *Buffer) EOB() bool { return b.RP == b.WP }

// Len returns the number of pending (written but unread) bytes.
func (b *Buffer) Len() int { return b.WP - b.RP }

// Free returns the number of bytes that can still be written.
func (b *Buffer) Free() int { return len(b.Data) - b.WP }

// Rewind resets both cursors to 0.
func (b *Buffer) Rewind() {
	b.RP = 0
	b.WP = 0
}

// Bytes returns the pending bytes. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.Data[b.RP:b.WP] }

// Written returns every byte written since the last rewind, including
// bytes already read.
func (b *Buffer) Written() []byte { return b.Data[:b.WP] }

// WriteByte stores c at the write cursor. It fails with an
// implementation-limit error when the buffer is full.
func (b *Buffer) WriteByte(c byte) error {
	if b.Full() {
		return pdferr.New(pdferr.ErrImplLimit, "buffer", "buffer is full")
	}
	b.Data[b.WP] = c
	b.WP++
	return nil
}

// Write copies as much of p as fits and returns the number of bytes copied.
func (b *Buffer) Write(p []byte) int {
	n := copy(b.Data[b.WP:], p)
	b.WP += n
	return n
}

// Read copies pending bytes into p and returns the number of bytes copied.
func (b *Buffer) Read(p []byte) int {
	n := copy(p, b.Data[b.RP:b.WP])
	b.RP += n
	return n
}

// CopyTo moves as many pending bytes as fit from b into dst.
func (b *Buffer) CopyTo(dst *Buffer) int {
	n := copy(dst.Data[dst.WP:], b.Data[b.RP:b.WP])
	b.RP += n
	dst.WP += n
	return n
}
