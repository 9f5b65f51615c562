package filters

import (
	"crypto/md5"
	"hash"

	"github.com/tsawler/pdfsyntax/internal/buffer"
)

// md5Encoder consumes its whole input and outputs the 16-byte digest.
type md5Encoder struct {
	h        hash.Hash
	finished bool
	out      pending
}

func newMD5Encoder(Params) (Codec, error) { return &md5Encoder{h: md5.New()}, nil }

func (e *md5Encoder) Apply(in, out *buffer.Buffer, finish bool) (Status, error) {
	if !in.EOB() {
		e.h.Write(in.Bytes())
		in.RP = in.WP
	}
	if !finish {
		return StatusNeedInput, nil
	}

	if !e.finished {
		e.out.add(e.h.Sum(nil)...)
		e.finished = true
	}
	if !e.out.drain(out) {
		return StatusNeedOutput, nil
	}
	return StatusEOF, nil
}
