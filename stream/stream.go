package stream

import (
	"io"

	"github.com/tsawler/pdfsyntax/internal/buffer"
	"github.com/tsawler/pdfsyntax/pdferr"
)

// DefaultCacheSize is the cache size used when zero is requested.
const DefaultCacheSize = 4096

// Mode selects whether a stream reads (decodes) or writes (encodes).
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Stream reads from or writes to a Backend through a chain of filters.
//
// The chain always holds at least one (null) filter. filters[0] is the
// head, which writes into the cache; the last element is the tail, which
// is fed directly by the backend (read mode) or by Write (write mode).
type Stream struct {
	backend Backend
	mode    Mode
	cache   *buffer.Buffer
	filters []*Filter

	base int64 // offset of the last seek
	seq  int64 // bytes delivered or accepted since the last seek
}

// New creates a stream over backend. A cacheSize of zero selects
// DefaultCacheSize.
func New(backend Backend, cacheSize int, mode Mode) (*Stream, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	s := &Stream{
		backend: backend,
		mode:    mode,
		cache:   buffer.New(cacheSize),
		base:    backend.Tell(),
	}
	null, err := newFilter(NullFilter, nil, cacheSize, mode)
	if err != nil {
		return nil, err
	}
	s.filters = []*Filter{null}
	s.rewire()
	return s, nil
}

// NewMem creates a stream over a caller-owned byte slice. In write mode
// the slice is the capacity of the stream.
func NewMem(data []byte, cacheSize int, mode Mode) (*Stream, error) {
	return New(NewMemBackend(data), cacheSize, mode)
}

// NewFile creates a stream over f starting at offset.
func NewFile(f io.ReadWriteSeeker, offset int64, cacheSize int, mode Mode) (*Stream, error) {
	backend, err := NewFileBackend(f, offset)
	if err != nil {
		return nil, err
	}
	return New(backend, cacheSize, mode)
}

// Mode returns the mode the stream was created with.
func (s *Stream) Mode() Mode { return s.mode }

// Backend returns the backend of the stream.
func (s *Stream) Backend() Backend { return s.backend }

// Filters returns the installed filters, head first. The initial null
// filter is included.
func (s *Stream) Filters() []*Filter { return s.filters }

func (s *Stream) tail() *Filter { return s.filters[len(s.filters)-1] }

// rewire binds every filter's output to the input of its downstream
// neighbour, and the head's output to the cache.
func (s *Stream) rewire() {
	for i, f := range s.filters {
		if i == 0 {
			f.out = s.cache
		} else {
			f.out = s.filters[i-1].in
		}
	}
}

// InstallFilter adds a filter to the chain. In read mode it becomes the
// head, so earlier filters see the backend bytes first. In write mode it
// becomes the tail, so it sees the caller's bytes first.
func (s *Stream) InstallFilter(t FilterType, params Params) error {
	if s.mode == ModeWrite {
		if err := s.Flush(false); err != nil {
			return err
		}
	}

	f, err := newFilter(t, params, s.cache.Size(), s.mode)
	if err != nil {
		return err
	}
	if s.mode == ModeRead {
		s.filters = append([]*Filter{f}, s.filters...)
	} else {
		s.filters = append(s.filters, f)
	}
	s.rewire()
	return nil
}

// UninstallFilters removes every filter but the initial null filter.
// Pending encoder state is discarded; call Flush(true) first to keep it.
func (s *Stream) UninstallFilters() error {
	null := s.filters[0]
	if s.mode == ModeRead {
		null = s.tail()
	}

	var first error
	for _, f := range s.filters {
		if f == null {
			continue
		}
		if err := f.close(); err != nil && first == nil {
			first = err
		}
	}
	s.filters = []*Filter{null}
	s.rewire()
	return first
}

// applyChain runs filter i, pulling its input from filter i+1 or, for the
// tail, from the backend.
func (s *Stream) applyChain(i int, finish bool) (bool, error) {
	return s.filters[i].apply(finish, func(in *buffer.Buffer, finish bool) (bool, error) {
		if i+1 < len(s.filters) {
			return s.applyChain(i+1, finish)
		}
		return s.fill(in)
	})
}

// fill reads backend bytes into the tail's input buffer. A short read
// means the backend is exhausted. Write streams have no backend input.
func (s *Stream) fill(in *buffer.Buffer) (bool, error) {
	if s.mode == ModeWrite {
		return true, nil
	}
	free := in.Data[in.WP:]
	n, err := s.backend.Read(free)
	in.WP += n
	if err != nil {
		return false, err
	}
	return n < len(free), nil
}

// Read fills p with filtered bytes. It returns io.EOF, possibly along with
// n > 0, when fewer than len(p) bytes remain.
func (s *Stream) Read(p []byte) (int, error) {
	if s.mode != ModeRead {
		return 0, pdferr.New(pdferr.ErrInvalidOp, "stream read", "cannot read from a write stream")
	}

	n := 0
	eof := false
	for n < len(p) && !eof {
		if s.cache.EOB() {
			s.cache.Rewind()
			var err error
			eof, err = s.applyChain(0, false)
			if err != nil {
				s.seq += int64(n)
				return n, err
			}
		}
		n += s.cache.Read(p[n:])
	}

	s.seq += int64(n)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// PeekByte returns the next byte without consuming it.
func (s *Stream) PeekByte() (byte, error) {
	return s.nextByte(true)
}

// ReadByte consumes and returns the next byte.
func (s *Stream) ReadByte() (byte, error) {
	return s.nextByte(false)
}

func (s *Stream) nextByte(peek bool) (byte, error) {
	if s.mode != ModeRead {
		return 0, pdferr.New(pdferr.ErrInvalidOp, "stream read", "cannot read from a write stream")
	}

	if s.cache.EOB() {
		s.cache.Rewind()
		if _, err := s.applyChain(0, false); err != nil {
			return 0, err
		}
	}
	if s.cache.EOB() {
		return 0, io.EOF
	}

	c := s.cache.Data[s.cache.RP]
	if !peek {
		s.cache.RP++
		s.seq++
	}
	return c, nil
}

// Write pushes p into the filter chain. Data reaches the backend when the
// chain's input buffer fills up or on Flush. A full backend is reported as
// io.ErrShortWrite.
func (s *Stream) Write(p []byte) (int, error) {
	if s.mode != ModeWrite {
		return 0, pdferr.New(pdferr.ErrInvalidOp, "stream write", "cannot write to a read stream")
	}

	in := s.tail().in
	n := 0
	for n < len(p) {
		if in.Full() {
			if err := s.Flush(false); err != nil {
				s.seq += int64(n)
				return n, err
			}
		}
		n += in.Write(p[n:])
	}

	s.seq += int64(n)
	return n, nil
}

// Flush drives pending bytes through the chain into the backend. With
// finish set the codecs also emit their trailing state (final blocks,
// padding, end markers), and the chain is then reset so further writes
// start a new encoded segment.
func (s *Stream) Flush(finish bool) error {
	if s.mode != ModeWrite {
		return pdferr.New(pdferr.ErrInvalidOp, "stream flush", "cannot flush a read stream")
	}

	in := s.tail().in
	for {
		eof, err := s.applyChain(0, finish)
		if err != nil {
			return err
		}

		if eof && s.cache.EOB() {
			in.Rewind()
			break
		}

		pending := s.cache.Bytes()
		n, err := s.backend.Write(pending)
		s.cache.RP += n
		if err != nil {
			return err
		}
		if n < len(pending) {
			return io.ErrShortWrite
		}
		s.cache.Rewind()
	}

	if finish {
		return s.resetFilters()
	}
	return nil
}

func (s *Stream) resetFilters() error {
	for _, f := range s.filters {
		if err := f.reset(); err != nil {
			return err
		}
	}
	return nil
}

// SeekTo repositions the backend and discards all filter state. A write
// stream is flushed first.
func (s *Stream) SeekTo(pos int64) (int64, error) {
	if s.mode == ModeWrite {
		if in := s.tail().in; !in.EOB() {
			if err := s.Flush(false); err != nil {
				return s.Tell(), err
			}
		}
	}

	s.cache.Rewind()
	if err := s.resetFilters(); err != nil {
		return s.Tell(), err
	}

	off, err := s.backend.SeekTo(pos)
	if err != nil {
		return s.Tell(), err
	}
	s.base = off
	s.seq = 0
	return off, nil
}

// Tell returns the offset of the last seek plus the number of bytes read
// or written since. Without filters this is the backend offset of the
// next byte.
func (s *Stream) Tell() int64 { return s.base + s.seq }

// Close flushes a write stream with finish set and releases the filters.
// The backend is not closed.
func (s *Stream) Close() error {
	var err error
	if s.mode == ModeWrite {
		err = s.Flush(true)
	}
	for _, f := range s.filters {
		if cerr := f.close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
