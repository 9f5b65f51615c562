package filters

import (
	"fmt"

	"github.com/tsawler/pdfsyntax/internal/buffer"
)

const (
	ahexLineWidth = 60
	a85LineWidth  = 75
)

const hexDigits = "0123456789ABCDEF"

// ASCIIHexDecode decodes ASCII hexadecimal encoded data.
// Each pair of hexadecimal digits (0-9, A-F, a-f) represents one byte.
// Whitespace is ignored, and > marks end of data.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	return Run(&ahexDecoder{nibble: -1}, data, len(data)+1)
}

// ASCII85Decode decodes ASCII base-85 (Ascii85) encoded data.
// Each group of 5 ASCII characters (! to u, values 33-117) represents 4 bytes.
// The special character 'z' represents four zero bytes. The sequence ~> marks
// end of data.
func ASCII85Decode(data []byte) ([]byte, error) {
	return Run(&a85Decoder{}, data, len(data)+4)
}

// ahexEncoder writes two upper-case hex digits per byte, breaking lines
// every ahexLineWidth digits, and terminates the data with '>'.
type ahexEncoder struct {
	col int
	out pending
}

func newAHexEncoder(Params) (Codec, error) { return &ahexEncoder{}, nil }

func (e *ahexEncoder) put(c byte) {
	if e.col == ahexLineWidth {
		e.out.add('\n')
		e.col = 0
	}
	e.out.add(c)
	e.col++
}

func (e *ahexEncoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	for {
		if !e.out.drain(out) {
			return StatusNeedOutput, nil
		}
		if in.EOB() {
			break
		}
		c := in.Data[in.RP]
		in.RP++
		e.put(hexDigits[c>>4])
		e.put(hexDigits[c&0x0f])
	}

	if !finish {
		return StatusNeedInput, nil
	}
	if out.Full() {
		return StatusNeedOutput, nil
	}
	out.WriteByte('>')
	return StatusEOF, nil
}

// ahexDecoder decodes hex digit pairs, skipping whitespace. A lone final
// digit is completed with a 0 nibble.
type ahexDecoder struct {
	nibble int // pending high nibble, or -1
}

func newAHexDecoder(Params) (Codec, error) { return &ahexDecoder{nibble: -1}, nil }

func (d *ahexDecoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	for !out.Full() {
		if in.EOB() {
			if finish {
				d.flushNibble(out)
				return StatusEOF, nil
			}
			return StatusNeedInput, nil
		}

		c := in.Data[in.RP]
		if isWhitespace(c) {
			in.RP++
			continue
		}
		if c == '>' {
			in.RP++
			d.flushNibble(out)
			return StatusEOF, nil
		}

		v, err := hexDigitToByte(c)
		if err != nil {
			return StatusEOF, err
		}
		in.RP++

		if d.nibble < 0 {
			d.nibble = int(v)
			continue
		}
		out.WriteByte(byte(d.nibble)<<4 | v)
		d.nibble = -1
	}

	if in.EOB() && !finish {
		return StatusNeedInput, nil
	}
	return StatusNeedOutput, nil
}

// flushNibble writes a pending high nibble. The caller guarantees room
// for one byte.
func (d *ahexDecoder) flushNibble(out *buffer.Buffer) {
	if d.nibble >= 0 {
		out.WriteByte(byte(d.nibble) << 4)
		d.nibble = -1
	}
}

// a85Encoder encodes 4-byte groups as 5 base-85 digits, 'z' for an
// all-zero group, and terminates the data with "~>".
type a85Encoder struct {
	group    [4]byte
	n        int
	col      int
	finished bool
	out      pending
}

func newA85Encoder(Params) (Codec, error) { return &a85Encoder{}, nil }

func (e *a85Encoder) put(c byte) {
	if e.col == a85LineWidth {
		e.out.add('\n')
		e.col = 0
	}
	e.out.add(c)
	e.col++
}

// emit encodes the first n bytes of the current group.
func (e *a85Encoder) emit(n int) {
	for i := n; i < 4; i++ {
		e.group[i] = 0
	}
	v := uint32(e.group[0])<<24 | uint32(e.group[1])<<16 | uint32(e.group[2])<<8 | uint32(e.group[3])
	if n == 4 && v == 0 {
		e.put('z')
		return
	}

	var digits [5]byte
	for i := 4; i >= 0; i-- {
		digits[i] = byte(v%85) + '!'
		v /= 85
	}
	for i := 0; i <= n; i++ {
		e.put(digits[i])
	}
}

func (e *a85Encoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
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
		e.group[e.n] = in.Data[in.RP]
		in.RP++
		e.n++
		if e.n == 4 {
			e.emit(4)
			e.n = 0
		}
	}

	if !finish {
		return StatusNeedInput, nil
	}
	if e.n > 0 {
		e.emit(e.n)
		e.n = 0
	}
	e.out.add('~', '>')
	e.finished = true
	if !e.out.drain(out) {
		return StatusNeedOutput, nil
	}
	return StatusEOF, nil
}

// a85Decoder decodes base-85 groups, 'z' groups and partial final groups.
type a85Decoder struct {
	digits [5]byte
	n      int
	tilde  bool
	done   bool
	out    pending
}

func newA85Decoder(Params) (Codec, error) { return &a85Decoder{}, nil }

// emit decodes the first n digits of the current group into n-1 bytes.
func (d *a85Decoder) emit(n int) error {
	if n == 1 {
		return fmt.Errorf("ASCII85 final group has a single digit")
	}
	for i := n; i < 5; i++ {
		d.digits[i] = 84 // 'u' - '!'
	}

	var v uint64
	for _, digit := range d.digits {
		v = v*85 + uint64(digit)
	}
	if v > 0xffffffff {
		return fmt.Errorf("ASCII85 group out of range")
	}
	for j := 0; j < n-1; j++ {
		d.out.add(byte(v >> (24 - j*8)))
	}
	d.n = 0
	return nil
}

func (d *a85Decoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	for {
		if !d.out.drain(out) {
			return StatusNeedOutput, nil
		}
		if d.done {
			return StatusEOF, nil
		}
		if in.EOB() {
			break
		}

		c := in.Data[in.RP]
		in.RP++

		if d.tilde {
			if c != '>' {
				return StatusEOF, fmt.Errorf("invalid ASCII85 end marker: ~%c", c)
			}
			if d.n > 0 {
				if err := d.emit(d.n); err != nil {
					return StatusEOF, err
				}
			}
			d.done = true
			continue
		}

		switch {
		case isWhitespace(c):
		case c == '~':
			d.tilde = true
		case c == 'z':
			if d.n != 0 {
				return StatusEOF, fmt.Errorf("ASCII85 'z' inside a group")
			}
			d.out.add(0, 0, 0, 0)
		case c < '!' || c > 'u':
			return StatusEOF, fmt.Errorf("invalid ASCII85 character: %c", c)
		default:
			d.digits[d.n] = c - '!'
			d.n++
			if d.n == 5 {
				if err := d.emit(5); err != nil {
					return StatusEOF, err
				}
			}
		}
	}

	if !finish {
		return StatusNeedInput, nil
	}

	// End of data without "~>"
	if d.n > 0 {
		if err := d.emit(d.n); err != nil {
			return StatusEOF, err
		}
	}
	d.done = true
	if !d.out.drain(out) {
		return StatusNeedOutput, nil
	}
	return StatusEOF, nil
}

// hexDigitToByte converts a hexadecimal character to its numeric value (0-15).
func hexDigitToByte(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit: %c", c)
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
