package filters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/tsawler/pdfsyntax/internal/buffer"
)

// FlateDecode decompresses Flate (zlib/deflate) compressed data.
// This is the most common compression filter in PDFs. It optionally applies
// a predictor algorithm for image data decompression.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	decompressed, err := zlibDecompress(data)
	if err != nil {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}
	return predict(decompressed, params)
}

// predict applies the Predictor parameter, if any.
func predict(data []byte, params Params) ([]byte, error) {
	predictor := getIntParam(params, "Predictor", 1)
	if predictor == 1 {
		return data, nil
	}
	decoded, err := applyPredictor(data, predictor, params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return decoded, nil
}

// zlibDecompress decompresses zlib-compressed data. A stream truncated
// after valid deflate blocks yields the bytes decoded so far.
func zlibDecompress(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, reader)
	if err == io.ErrUnexpectedEOF && buf.Len() > 0 {
		return buf.Bytes(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}

	return buf.Bytes(), nil
}

func newFlateDecoder(params Params) (Codec, error) {
	if getIntParam(params, "Predictor", 1) == 1 {
		return newFlateStreamDecoder(), nil
	}
	return newWholeDecoder(func(data []byte) ([]byte, error) {
		return FlateDecode(data, params)
	}), nil
}

// flateStreamDecoder inflates its input as it arrives. The zlib reader runs
// in its own goroutine behind a pipe and hands decoded chunks back over a
// channel, so only one input chunk and its output are held at a time.
type flateStreamDecoder struct {
	pw     *io.PipeWriter
	chunks chan []byte
	err    error // set by inflate before chunks is closed
	ended  bool
	closed bool
	out    pending
}

func newFlateStreamDecoder() *flateStreamDecoder {
	pr, pw := io.Pipe()
	d := &flateStreamDecoder{pw: pw, chunks: make(chan []byte)}
	go d.inflate(pr, d.chunks)
	return d
}

func (d *flateStreamDecoder) inflate(pr *io.PipeReader, chunks chan<- []byte) {
	defer close(chunks)
	produced := 0
	err := func() error {
		zr, err := zlib.NewReader(pr)
		if err != nil {
			return fmt.Errorf("failed to create zlib reader: %w", err)
		}
		defer zr.Close()

		buf := make([]byte, 4096)
		for {
			n, err := zr.Read(buf)
			if n > 0 {
				produced += n
				chunks <- append([]byte(nil), buf[:n]...)
			}
			if err == io.EOF {
				return nil
			}
			if err == io.ErrUnexpectedEOF && produced > 0 {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to decompress: %w", err)
			}
		}
	}()
	if err != nil {
		d.err = fmt.Errorf("zlib decompression failed: %w", err)
	}
	// Input after the end of the zlib stream is ignored.
	pr.CloseWithError(io.ErrClosedPipe)
}

// feed writes data to the inflater while collecting what it produces.
func (d *flateStreamDecoder) feed(data []byte) {
	written := make(chan struct{})
	go func() {
		d.pw.Write(data)
		close(written)
	}()

	for {
		var chunks chan []byte
		if !d.ended {
			chunks = d.chunks
		}
		select {
		case chunk, ok := <-chunks:
			if !ok {
				d.ended = true
				continue
			}
			d.out.add(chunk...)
		case <-written:
			return
		}
	}
}

func (d *flateStreamDecoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	if !d.out.drain(out) {
		return StatusNeedOutput, nil
	}

	if !in.EOB() {
		d.feed(in.Bytes())
		in.RP = in.WP
		if !d.out.drain(out) {
			return StatusNeedOutput, nil
		}
	}

	if !finish {
		return StatusNeedInput, nil
	}

	if !d.closed {
		d.pw.Close()
		d.closed = true
	}
	for !d.ended {
		chunk, ok := <-d.chunks
		if !ok {
			d.ended = true
			break
		}
		d.out.add(chunk...)
		if !d.out.drain(out) {
			return StatusNeedOutput, nil
		}
	}
	return StatusEOF, d.err
}

// Close stops the inflater goroutine.
func (d *flateStreamDecoder) Close() error {
	if !d.closed {
		d.pw.CloseWithError(io.ErrClosedPipe)
		d.closed = true
	}
	for !d.ended {
		if _, ok := <-d.chunks; !ok {
			d.ended = true
		}
	}
	return nil
}

// flateEncoder compresses its input into a zlib stream as it arrives.
type flateEncoder struct {
	zw     *zlib.Writer
	buf    bytes.Buffer
	closed bool
	out    pending
}

func newFlateEncoder(params Params) (Codec, error) {
	e := &flateEncoder{}
	level := getIntParam(params, "Level", zlib.DefaultCompression)
	zw, err := zlib.NewWriterLevel(&e.buf, level)
	if err != nil {
		return nil, err
	}
	e.zw = zw
	return e, nil
}

func (e *flateEncoder) collect() {
	if e.buf.Len() > 0 {
		e.out.add(e.buf.Bytes()...)
		e.buf.Reset()
	}
}

func (e *flateEncoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	if !e.out.drain(out) {
		return StatusNeedOutput, nil
	}

	if !in.EOB() {
		if _, err := e.zw.Write(in.Bytes()); err != nil {
			return StatusEOF, err
		}
		in.RP = in.WP
		e.collect()
		if !e.out.drain(out) {
			return StatusNeedOutput, nil
		}
	}

	if !finish {
		return StatusNeedInput, nil
	}

	if !e.closed {
		if err := e.zw.Close(); err != nil {
			return StatusEOF, err
		}
		e.closed = true
		e.collect()
	}
	if !e.out.drain(out) {
		return StatusNeedOutput, nil
	}
	return StatusEOF, nil
}

func (e *flateEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.zw.Close()
}
