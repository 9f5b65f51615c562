package filters

import "github.com/tsawler/pdfsyntax/internal/buffer"

// RunLengthDecode length bytes: 0-127 copy the next n+1 bytes literally,
// 129-255 repeat the next byte 257-n times, 128 ends the data.
const (
	rlEOD     = 128
	rlMaxSpan = 128
)

type runLengthEncoder struct {
	lit      []byte
	run      byte
	runLen   int
	finished bool
	out      pending
}

func newRunLengthEncoder(Params) (Codec, error) {
	return &runLengthEncoder{lit: make([]byte, 0, rlMaxSpan)}, nil
}

func (e *runLengthEncoder) flushLiteral() {
	if len(e.lit) == 0 {
		return
	}
	e.out.add(byte(len(e.lit) - 1))
	e.out.add(e.lit...)
	e.lit = e.lit[:0]
}

func (e *runLengthEncoder) flushRun() {
	if e.runLen == 0 {
		return
	}
	e.out.add(byte(257-e.runLen), e.run)
	e.runLen = 0
}

func (e *runLengthEncoder) push(c byte) {
	if e.runLen > 0 {
		if c == e.run && e.runLen < rlMaxSpan {
			e.runLen++
			return
		}
		e.flushRun()
	}

	// Two equal bytes in a row start a run.
	if n := len(e.lit); n > 0 && e.lit[n-1] == c {
		e.lit = e.lit[:n-1]
		e.flushLiteral()
		e.run = c
		e.runLen = 2
		return
	}

	e.lit = append(e.lit, c)
	if len(e.lit) == rlMaxSpan {
		e.flushLiteral()
	}
}

func (e *runLengthEncoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
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
	e.flushRun()
	e.flushLiteral()
	e.out.add(rlEOD)
	e.finished = true
	if !e.out.drain(out) {
		return StatusNeedOutput, nil
	}
	return StatusEOF, nil
}

type runLengthDecoder struct {
	literal int  // literal bytes still to copy
	repeat  int  // copies of repByte still to write
	pendRep int  // repeat count waiting for its byte
	repByte byte
}

func newRunLengthDecoder(Params) (Codec, error) { return &runLengthDecoder{}, nil }

func (d *runLengthDecoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	for {
		if d.repeat > 0 {
			for d.repeat > 0 && !out.Full() {
				out.WriteByte(d.repByte)
				d.repeat--
			}
			if d.repeat > 0 {
				return StatusNeedOutput, nil
			}
			continue
		}

		if in.EOB() {
			if finish {
				// Truncated data without an EOD marker
				return StatusEOF, nil
			}
			return StatusNeedInput, nil
		}

		if d.literal > 0 {
			if out.Full() {
				return StatusNeedOutput, nil
			}
			n := d.literal
			if avail := in.Len(); avail < n {
				n = avail
			}
			if free := out.Free(); free < n {
				n = free
			}
			out.Write(in.Data[in.RP : in.RP+n])
			in.RP += n
			d.literal -= n
			continue
		}

		c := in.Data[in.RP]
		in.RP++

		if d.pendRep > 0 {
			d.repByte = c
			d.repeat = d.pendRep
			d.pendRep = 0
			continue
		}

		switch {
		case c == rlEOD:
			return StatusEOF, nil
		case c < rlEOD:
			d.literal = int(c) + 1
		default:
			d.pendRep = 257 - int(c)
		}
	}
}
