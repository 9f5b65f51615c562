package stream

import (
	"errors"

	"github.com/tsawler/pdfsyntax/internal/buffer"
	"github.com/tsawler/pdfsyntax/internal/filters"
	"github.com/tsawler/pdfsyntax/pdferr"
)

// Filter is one codec stage of a Stream's filter chain. Its output buffer
// is either the stream cache or the input buffer of the next stage towards
// the consumer.
//
// Once a filter reports an error or the end of its data, it keeps
// reporting the same result until it is reset.
type Filter struct {
	typ    filters.Type
	mode   Mode
	params filters.Params
	codec  filters.Codec
	in     *buffer.Buffer
	out    *buffer.Buffer

	err          error
	eof          bool
	reallyFinish bool
}

// inputFunc refills a filter's (rewound) input buffer and reports whether
// the source is exhausted.
type inputFunc func(in *buffer.Buffer, finish bool) (eof bool, err error)

func newFilter(typ filters.Type, params filters.Params, bufSize int, mode Mode) (*Filter, error) {
	codec, err := filters.New(typ, params)
	if err != nil {
		return nil, err
	}
	return &Filter{
		typ:    typ,
		mode:   mode,
		params: params,
		codec:  codec,
		in:     buffer.New(bufSize),
	}, nil
}

// Type returns the codec type of the filter.
func (f *Filter) Type() FilterType { return f.typ }

// Err returns the sticky error of the filter, if any.
func (f *Filter) Err() error { return f.err }

// EOF reports whether the filter has finished producing output.
func (f *Filter) EOF() bool { return f.eof }

// apply runs the codec until the output buffer is full, the codec ends or
// fails, or the input source is exhausted. It reports eof when no more
// output will be produced by this call.
func (f *Filter) apply(finish bool, pull inputFunc) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.eof {
		return true, nil
	}

	for !f.out.Full() {
		status, err := f.codec.Apply(f.in, f.out, f.reallyFinish)
		if err != nil {
			f.err = codecError(f.typ, err)
			return false, f.err
		}

		switch status {
		case filters.StatusEOF:
			f.eof = true
			return true, nil
		case filters.StatusNeedOutput:
			return false, nil
		case filters.StatusOK:
			continue
		}

		f.in.Rewind()
		inputEOF, err := pull(f.in, finish)
		if err != nil {
			f.err = err
			return false, err
		}
		if !inputEOF || !f.in.EOB() {
			continue
		}

		// Upstream is exhausted: let the codec flush its trailing state
		// once before reporting the end of the data.
		if !f.reallyFinish && (f.mode == ModeRead || finish) {
			f.reallyFinish = true
			continue
		}
		return true, nil
	}

	return false, nil
}

// reset discards the codec state and clears the sticky status.
func (f *Filter) reset() error {
	filters.Dispose(f.codec)
	codec, err := filters.New(f.typ, f.params)
	if err != nil {
		f.err = err
		return err
	}
	f.codec = codec
	f.in.Rewind()
	f.err = nil
	f.eof = false
	f.reallyFinish = false
	return nil
}

func (f *Filter) close() error {
	return filters.Dispose(f.codec)
}

func codecError(typ filters.Type, err error) error {
	var perr *pdferr.Error
	if errors.As(err, &perr) {
		return err
	}
	return pdferr.Wrap(pdferr.ErrFilter, "filter "+typ.String(), err)
}
