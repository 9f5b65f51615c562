package filters

import (
	"bytes"

	"github.com/tsawler/pdfsyntax/internal/buffer"
)

// pending holds output a codec has produced but not yet delivered.
type pending struct {
	data []byte
}

func (p *pending) add(b ...byte) { p.data = append(p.data, b...) }

func (p *pending) empty() bool { return len(p.data) == 0 }

// drain moves as much pending output as fits into out and reports whether
// everything was delivered.
func (p *pending) drain(out *buffer.Buffer) bool {
	n := out.Write(p.data)
	p.data = p.data[n:]
	if len(p.data) == 0 {
		p.data = nil
		return true
	}
	return false
}

// wholeDecoder adapts a one-shot decode function to the Codec contract.
// It buffers every input byte until finish, decodes them in one call and
// then delivers the result with output backpressure.
type wholeDecoder struct {
	decode  func([]byte) ([]byte, error)
	input   bytes.Buffer
	out     pending
	decoded bool
}

func newWholeDecoder(decode func([]byte) ([]byte, error)) *wholeDecoder {
	return &wholeDecoder{decode: decode}
}

func (d *wholeDecoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	if !d.decoded {
		d.input.Write(in.Bytes())
		in.RP = in.WP
		if !finish {
			return StatusNeedInput, nil
		}

		result, err := d.decode(d.input.Bytes())
		if err != nil {
			return StatusEOF, err
		}
		d.input.Reset()
		d.out.add(result...)
		d.decoded = true
	}

	if !d.out.drain(out) {
		return StatusNeedOutput, nil
	}
	return StatusEOF, nil
}
