package filters

import (
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/pdfsyntax/internal/buffer"
	"github.com/tsawler/pdfsyntax/pdferr"
)

// Type identifies a codec in the dispatch table.
type Type int

// Codec types, in dispatch table order.
const (
	Null Type = iota
	AHexEncoder
	AHexDecoder
	A85Encoder
	A85Decoder
	LZWEncoder
	LZWDecoder
	FlateEncoder
	FlateDecoder
	RunLengthEncoder
	RunLengthDecoder
	CCITTFaxEncoder
	CCITTFaxDecoder
	JBIG2Encoder
	JBIG2Decoder
	DCTEncoder
	DCTDecoder
	JPXEncoder
	JPXDecoder
	AESv2Encoder
	AESv2Decoder
	V2Encoder
	V2Decoder
	MD5Encoder
	numTypes
)

// Status is the result of a single Codec.Apply call.
type Status int

const (
	StatusOK Status = iota
	StatusNeedInput
	StatusNeedOutput
	StatusEOF
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNeedInput:
		return "need-input"
	case StatusNeedOutput:
		return "need-output"
	case StatusEOF:
		return "eof"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Codec is a resumable encode or decode transformation.
//
// Apply reads from in (advancing in.RP) and writes to out (advancing
// out.WP). When it returns StatusNeedInput it must have consumed every
// pending input byte, since the caller rewinds the input buffer before
// refilling it.
type Codec interface {
	Apply(in, out *buffer.Buffer, finish bool) (Status, error)
}

// Factory creates a codec from its parameters.
type Factory func(params Params) (Codec, error)

type entry struct {
	name    string
	factory Factory
}

// registry is the fixed dispatch table. Entries with a nil factory have no
// implementation.
var registry = [numTypes]entry{
	Null:             {"null", newNull},
	AHexEncoder:      {"ahexenc", newAHexEncoder},
	AHexDecoder:      {"ahexdec", newAHexDecoder},
	A85Encoder:       {"a85enc", newA85Encoder},
	A85Decoder:       {"a85dec", newA85Decoder},
	LZWEncoder:       {"lzwenc", newLZWEncoder},
	LZWDecoder:       {"lzwdec", newLZWDecoder},
	FlateEncoder:     {"flateenc", newFlateEncoder},
	FlateDecoder:     {"flatedec", newFlateDecoder},
	RunLengthEncoder: {"rlenc", newRunLengthEncoder},
	RunLengthDecoder: {"rldec", newRunLengthDecoder},
	CCITTFaxEncoder:  {"ccittfaxenc", nil},
	CCITTFaxDecoder:  {"ccittfaxdec", newCCITTFaxDecoder},
	JBIG2Encoder:     {"jbig2enc", nil},
	JBIG2Decoder:     {"jbig2dec", nil},
	DCTEncoder:       {"dctenc", nil},
	DCTDecoder:       {"dctdec", newDCTDecoder},
	JPXEncoder:       {"jpxenc", nil},
	JPXDecoder:       {"jpxdec", nil},
	AESv2Encoder:     {"aesv2enc", newAESv2Encoder},
	AESv2Decoder:     {"aesv2dec", newAESv2Decoder},
	V2Encoder:        {"v2enc", newV2Codec},
	V2Decoder:        {"v2dec", newV2Codec},
	MD5Encoder:       {"md5enc", newMD5Encoder},
}

func (t Type) String() string {
	if t < 0 || t >= numTypes {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return registry[t].name
}

// ParseType returns the codec type with the given short name
// ("flatedec", "ahexenc", ...). Matching is case-insensitive.
func ParseType(name string) (Type, bool) {
	for t := Type(0); t < numTypes; t++ {
		if strings.EqualFold(registry[t].name, name) {
			return t, true
		}
	}
	return 0, false
}

// Types returns every codec type in dispatch table order.
func Types() []Type {
	types := make([]Type, numTypes)
	for i := range types {
		types[i] = Type(i)
	}
	return types
}

// Supported reports whether the codec type has an implementation.
func Supported(t Type) bool {
	return t >= 0 && t < numTypes && registry[t].factory != nil
}

// New creates a codec of type t.
func New(t Type, params Params) (Codec, error) {
	if !Supported(t) {
		return nil, pdferr.New(pdferr.ErrUnsupported, "filter", fmt.Sprintf("no codec for %s", t))
	}
	c, err := registry[t].factory(params)
	if err != nil {
		return nil, pdferr.Wrap(pdferr.ErrFilter, "filter "+t.String(), err)
	}
	return c, nil
}

// Dispose releases the resources held by a codec, if any.
func Dispose(c Codec) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Run drives a codec over data using buffers of bufSize bytes and returns
// everything it produced.
func Run(c Codec, data []byte, bufSize int) ([]byte, error) {
	if bufSize <= 0 {
		bufSize = 4096
	}
	in := buffer.New(bufSize)
	out := buffer.New(bufSize)
	var result []byte
	finish := false

	for {
		status, err := c.Apply(in, out, finish)
		if err != nil {
			return result, err
		}
		result = append(result, out.Bytes()...)
		out.Rewind()

		switch status {
		case StatusEOF:
			return result, nil
		case StatusNeedInput:
			in.Rewind()
			if len(data) == 0 {
				if finish {
					return result, fmt.Errorf("codec requested input after finish")
				}
				finish = true
				continue
			}
			n := in.Write(data)
			data = data[n:]
		}
	}
}
