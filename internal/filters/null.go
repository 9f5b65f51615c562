package filters

import "github.com/tsawler/pdfsyntax/internal/buffer"

// nullCodec copies its input unchanged.
type nullCodec struct{}

func newNull(Params) (Codec, error) { return nullCodec{}, nil }

func (nullCodec) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	in.CopyTo(out)
	if !in.EOB() {
		return StatusNeedOutput, nil
	}
	if finish {
		return StatusEOF, nil
	}
	return StatusNeedInput, nil
}
