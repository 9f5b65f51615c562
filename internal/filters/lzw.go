package filters

import (
	"bytes"
	"compress/lzw"
	"fmt"
	"io"

	tifflzw "golang.org/x/image/tiff/lzw"

	"github.com/tsawler/pdfsyntax/internal/buffer"
)

const (
	lzwClear    = 256
	lzwEOD      = 257
	lzwFirst    = 258
	lzwMinWidth = 9
	lzwMaxWidth = 12
	// The encoder restarts the table before the decoder's table of 4096
	// entries can overflow.
	lzwLimit = 4094
)

// LZWDecode decompresses LZW data. EarlyChange 1 (the default) switches to
// a wider code one code early, as TIFF does; EarlyChange 0 follows the GIF
// convention. A predictor is applied afterwards as for FlateDecode.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	var r io.ReadCloser
	if getIntParam(params, "EarlyChange", 1) == 0 {
		r = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	} else {
		r = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	}
	defer r.Close()

	decoded, err := io.ReadAll(r)
	// Many producers omit the EOD code.
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("lzw decompression failed: %w", err)
	}
	return predict(decoded, params)
}

func newLZWDecoder(params Params) (Codec, error) {
	switch getIntParam(params, "EarlyChange", 1) {
	case 0, 1:
	default:
		return nil, fmt.Errorf("invalid EarlyChange value")
	}
	return newWholeDecoder(func(data []byte) ([]byte, error) {
		return LZWDecode(data, params)
	}), nil
}

type lzwKey struct {
	prefix int
	c      byte
}

// lzwEncoder produces MSB-first LZW codes with early change. The output
// starts with a clear code and ends with the EOD code.
type lzwEncoder struct {
	table    map[lzwKey]int
	next     int
	width    uint
	prefix   int // current string code, or -1
	acc      uint32
	nbits    uint
	started  bool
	finished bool
	out      pending
}

func newLZWEncoder(Params) (Codec, error) {
	e := &lzwEncoder{prefix: -1}
	e.resetTable()
	return e, nil
}

func (e *lzwEncoder) resetTable() {
	e.table = make(map[lzwKey]int)
	e.next = lzwFirst
	e.width = lzwMinWidth
}

func (e *lzwEncoder) emit(code int) {
	e.acc = e.acc<<e.width | uint32(code)
	e.nbits += e.width
	for e.nbits >= 8 {
		e.out.add(byte(e.acc >> (e.nbits - 8)))
		e.nbits -= 8
	}
}

// grow advances the next code and widens codes when the decoder will.
func (e *lzwEncoder) grow() {
	e.next++
	if e.next >= 1<<e.width && e.width < lzwMaxWidth {
		e.width++
	}
}

func (e *lzwEncoder) push(c byte) {
	if e.prefix < 0 {
		e.prefix = int(c)
		return
	}
	key := lzwKey{e.prefix, c}
	if code, ok := e.table[key]; ok {
		e.prefix = code
		return
	}

	e.emit(e.prefix)
	e.table[key] = e.next
	e.grow()
	if e.next >= lzwLimit {
		e.emit(lzwClear)
		e.resetTable()
	}
	e.prefix = int(c)
}

func (e *lzwEncoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	if !e.started {
		e.emit(lzwClear)
		e.started = true
	}

	for {
		if !e.out.drain(out) {
			return StatusNeedOutput, nil
		}
		if e.finished {
			return StatusEOF, nil
		}
		if in.EOB() {
			break
		}
		e.push(in.Data[in.RP])
		in.RP++
	}

	if !finish {
		return StatusNeedInput, nil
	}

	if e.prefix >= 0 {
		e.emit(e.prefix)
		e.grow()
	}
	e.emit(lzwEOD)
	if e.nbits > 0 {
		e.out.add(byte(e.acc << (8 - e.nbits)))
		e.nbits = 0
	}
	e.finished = true
	if !e.out.drain(out) {
		return StatusNeedOutput, nil
	}
	return StatusEOF, nil
}
