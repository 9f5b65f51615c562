// Package pdferr defines the error kinds reported by the stream, filter,
// tokenizer and parser layers.
//
// Every hard failure is returned as an *Error whose Kind is one of the
// sentinel values below, so callers can test the kind with errors.Is:
//
//	if errors.Is(err, pdferr.ErrMalformed) {
//	    // abort loading the document
//	}
//
// End of input is never an *Error. It is always reported as io.EOF.
package pdferr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrMalformed reports bad syntax in the input (unbalanced delimiters,
	// invalid escapes, bad dictionary keys, a broken R operator...).
	ErrMalformed = errors.New("malformed file")

	// ErrImplLimit reports that a fixed-size buffer would overflow.
	ErrImplLimit = errors.New("implementation limit exceeded")

	// ErrInvalidOp reports an operation that does not match the object's
	// mode or state, such as writing to a read stream.
	ErrInvalidOp = errors.New("invalid operation")

	// ErrUnsupported reports a filter type with no implementation.
	ErrUnsupported = errors.New("unsupported")

	// ErrFilter reports a codec failure (bad encoded data, bad padding,
	// missing parameters).
	ErrFilter = errors.New("filter error")
)

// Error is the structured error value returned by the core packages.
type Error struct {
	Kind error  // one of the Err* kinds
	Op   string // operation that failed, e.g. "tokenize", "parse"
	Pos  int64  // byte offset in the input, or -1 when unknown
	Msg  string
	Err  error // underlying cause, may be nil
}

// New returns an *Error of the given kind with no position information.
func New(kind error, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Pos: -1, Msg: msg}
}

// At returns an *Error of the given kind at byte offset pos.
func At(kind error, op string, pos int64, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error of the given kind caused by err.
func Wrap(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Pos: -1, Msg: err.Error(), Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	} else {
		msg = e.Kind.Error() + ": " + msg
	}
	if e.Pos >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", e.Op, e.Pos, msg)
	}
	return e.Op + ": " + msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is and
// errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
