package core

import (
	"bytes"
	"math"
	"strconv"

	"github.com/tsawler/pdfsyntax/pdferr"
	"github.com/tsawler/pdfsyntax/stream"
)

// DefaultMaxLineLength is the default output line limit of a Writer.
const DefaultMaxLineLength = 255

// WriterOptions configures a Writer.
type WriterOptions struct {
	// MaxLineLength is the line length the writer tries to stay under.
	// Zero means no limit.
	MaxLineLength int

	// HexStrings writes every string in hex form.
	HexStrings bool
}

// DefaultWriterOptions returns the default writer configuration.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{MaxLineLength: DefaultMaxLineLength}
}

// Writer serialises tokens and objects to a write-mode stream, inserting
// whitespace only where two tokens would otherwise run together.
type Writer struct {
	stm  *stream.Stream
	opts WriterOptions

	buf       []byte
	lineLen   int
	inKeyword bool // last byte written was a regular character
	inComment bool // a comment is open and still needs its line feed
}

// NewWriter returns a writer on stm, which must be in write mode.
func NewWriter(stm *stream.Stream, opts WriterOptions) (*Writer, error) {
	if stm.Mode() != stream.ModeWrite {
		return nil, pdferr.New(pdferr.ErrInvalidOp, "write token", "stream is not in write mode")
	}
	return &Writer{stm: stm, opts: opts}, nil
}

// WriteToken writes one token. Continued comment tokens are joined to the
// comment before them.
func (w *Writer) WriteToken(tok Token) error {
	if err := checkToken(tok); err != nil {
		return err
	}

	if w.inComment && !(tok.Type == TokenComment && tok.Continued) {
		w.putByte('\n')
		w.inComment = false
	}

	switch tok.Type {
	case TokenInteger:
		w.writeRegular(strconv.AppendInt(nil, int64(tok.Int), 10))
	case TokenReal:
		b := strconv.AppendFloat(nil, float64(tok.Real), 'f', -1, 32)
		if bytes.IndexByte(b, '.') < 0 {
			b = append(b, '.')
		}
		w.writeRegular(b)
	case TokenString:
		w.writeString(tok.Data)
	case TokenName:
		w.writeName(tok.Data)
	case TokenKeyword:
		w.writeRegular(tok.Data)
	case TokenComment:
		w.writeComment(tok)
	case TokenDictStart:
		w.writeDelimiter("<<")
	case TokenDictEnd:
		w.writeDelimiter(">>")
	case TokenArrayStart:
		w.writeDelimiter("[")
	case TokenArrayEnd:
		w.writeDelimiter("]")
	case TokenProcStart:
		w.writeDelimiter("{")
	case TokenProcEnd:
		w.writeDelimiter("}")
	}
	return w.commit()
}

// WriteObject writes an object as the tokens that parse back to it.
// Dictionary keys are written in sorted order.
func (w *Writer) WriteObject(obj Object) error {
	switch o := obj.(type) {
	case Null:
		return w.WriteToken(Token{Type: TokenKeyword, Data: []byte("null")})
	case Bool:
		return w.WriteToken(Token{Type: TokenKeyword, Data: []byte(o.String())})
	case Int:
		return w.WriteToken(Token{Type: TokenInteger, Int: int32(o)})
	case Real:
		tok, err := NewRealToken(float32(o))
		if err != nil {
			return err
		}
		return w.WriteToken(tok)
	case String:
		return w.WriteToken(Token{Type: TokenString, Data: []byte(o)})
	case Name:
		return w.WriteToken(Token{Type: TokenName, Data: []byte(o)})
	case Keyword:
		return w.WriteToken(Token{Type: TokenKeyword, Data: []byte(o)})
	case Comment:
		return w.WriteToken(Token{Type: TokenComment, Data: []byte(o.Text), Continued: o.Continued})
	case IndirectRef:
		if err := w.WriteToken(Token{Type: TokenInteger, Int: int32(o.Number)}); err != nil {
			return err
		}
		if err := w.WriteToken(Token{Type: TokenInteger, Int: int32(o.Generation)}); err != nil {
			return err
		}
		return w.WriteToken(Token{Type: TokenKeyword, Data: []byte("R")})
	case Array:
		if err := w.WriteToken(Token{Type: TokenArrayStart}); err != nil {
			return err
		}
		for _, elem := range o {
			if err := w.WriteObject(elem); err != nil {
				return err
			}
		}
		return w.WriteToken(Token{Type: TokenArrayEnd})
	case Dict:
		if err := w.WriteToken(Token{Type: TokenDictStart}); err != nil {
			return err
		}
		for _, key := range o.Keys() {
			if err := w.WriteToken(Token{Type: TokenName, Data: []byte(key)}); err != nil {
				return err
			}
			if err := w.WriteObject(o[key]); err != nil {
				return err
			}
		}
		return w.WriteToken(Token{Type: TokenDictEnd})
	case *StreamObject:
		return w.writeStream(o)
	}
	return pdferr.New(pdferr.ErrInvalidOp, "write object", "cannot write a nil object")
}

// writeStream writes the dictionary with /Length set to the data size,
// then the raw data between "stream" and "endstream".
func (w *Writer) writeStream(s *StreamObject) error {
	data, err := s.Raw()
	if err != nil {
		return err
	}

	dict := make(Dict, len(s.Dict)+1)
	for k, v := range s.Dict {
		dict[k] = v
	}
	dict["Length"] = Int(len(data))

	if err := w.WriteObject(dict); err != nil {
		return err
	}
	if err := w.WriteToken(Token{Type: TokenKeyword, Data: []byte("stream")}); err != nil {
		return err
	}
	w.putByte('\n')
	w.putBytes(data)
	w.putByte('\n')
	if err := w.commit(); err != nil {
		return err
	}
	return w.WriteToken(Token{Type: TokenKeyword, Data: []byte("endstream")})
}

// EndLine ends the current output line unless it is empty.
func (w *Writer) EndLine() error {
	if w.inComment {
		w.inComment = false
	} else if w.lineLen == 0 {
		return nil
	}
	w.putByte('\n')
	return w.commit()
}

// Flush terminates an open comment and flushes the stream. With finish
// set the stream's filters write their trailing data.
func (w *Writer) Flush(finish bool) error {
	if w.inComment {
		w.putByte('\n')
		w.inComment = false
	}
	if err := w.commit(); err != nil {
		return err
	}
	return w.stm.Flush(finish)
}

// checkToken rejects tokens that cannot be written so that nothing is
// output for them.
func checkToken(tok Token) error {
	switch tok.Type {
	case TokenReal:
		if math.IsNaN(float64(tok.Real)) || math.IsInf(float64(tok.Real), 0) {
			return pdferr.New(pdferr.ErrInvalidOp, "write token", "NaN or infinite real")
		}
	case TokenName:
		if bytes.IndexByte(tok.Data, 0) >= 0 {
			return pdferr.New(pdferr.ErrInvalidOp, "write token", "name contains a NUL byte")
		}
	case TokenKeyword:
		if len(tok.Data) == 0 {
			return pdferr.New(pdferr.ErrInvalidOp, "write token", "empty keyword")
		}
		for _, c := range tok.Data {
			if !isRegular(c) {
				return pdferr.New(pdferr.ErrInvalidOp, "write token", "keyword contains "+strconv.QuoteRune(rune(c)))
			}
		}
	case TokenComment:
		if bytes.IndexByte(tok.Data, '\n') >= 0 || bytes.IndexByte(tok.Data, '\r') >= 0 {
			return pdferr.New(pdferr.ErrInvalidOp, "write token", "comment contains a line break")
		}
	}
	return nil
}

func (w *Writer) putByte(c byte) {
	w.buf = append(w.buf, c)
	if isEOL(c) {
		w.lineLen = 0
	} else {
		w.lineLen++
	}
	w.inKeyword = isRegular(c)
}

func (w *Writer) putBytes(b []byte) {
	for _, c := range b {
		w.putByte(c)
	}
}

func (w *Writer) commit() error {
	if len(w.buf) == 0 {
		return nil
	}
	_, err := w.stm.Write(w.buf)
	w.buf = w.buf[:0]
	return err
}

// start prepares for a token of n bytes: a space if it would merge with
// the previous token, or a line feed if the line would grow too long.
func (w *Writer) start(needSpace bool, n int) {
	var sep byte
	if needSpace && w.inKeyword {
		sep = ' '
		n++
	}
	if w.opts.MaxLineLength > 0 && w.lineLen > 0 && w.lineLen+n > w.opts.MaxLineLength {
		sep = '\n'
	}
	if sep != 0 {
		w.putByte(sep)
	}
}

func (w *Writer) writeRegular(b []byte) {
	w.start(true, len(b))
	w.putBytes(b)
}

func (w *Writer) writeDelimiter(s string) {
	w.start(false, len(s))
	w.putBytes([]byte(s))
}

func (w *Writer) writeComment(tok Token) {
	if tok.Continued && w.inComment {
		w.putBytes(tok.Data)
		return
	}
	n := len(tok.Data)
	prefix := len(tok.Data) == 0 || tok.Data[0] != '%'
	if prefix {
		n++
	}
	w.start(false, n)
	if prefix {
		w.putByte('%')
	}
	w.putBytes(tok.Data)
	w.inComment = true
}

func nameNeedsEscape(c byte) bool {
	return !isRegular(c) || c == '#' || c < 33 || c >= 127
}

func (w *Writer) writeName(data []byte) {
	n := 1 + len(data)
	for _, c := range data {
		if nameNeedsEscape(c) {
			n += 2
		}
	}
	w.start(false, n)
	w.putByte('/')
	for _, c := range data {
		if nameNeedsEscape(c) {
			w.putByte('#')
			w.putByte(hexDigits[c>>4])
			w.putByte(hexDigits[c&15])
			continue
		}
		w.putByte(c)
	}
}

const hexDigits = "0123456789ABCDEF"

func (w *Writer) writeString(data []byte) {
	quoteParens := !balancedParens(data)
	if w.opts.HexStrings || escapedLen(data, quoteParens) > 2*len(data) {
		w.writeHexString(data)
		return
	}

	w.start(false, min(20, len(data)+2))
	w.putByte('(')
	var esc [4]byte
	for _, c := range data {
		piece := escapeStringByte(esc[:0], c, quoteParens)
		// a backslash before the line feed makes the break invisible
		if w.opts.MaxLineLength > 0 && c != '\n' && w.lineLen+len(piece) >= w.opts.MaxLineLength {
			w.putByte('\\')
			w.putByte('\n')
		}
		w.putBytes(piece)
	}
	w.putByte(')')
}

func (w *Writer) writeHexString(data []byte) {
	w.start(false, min(20, 2*len(data)+2))
	w.putByte('<')
	for _, c := range data {
		if w.opts.MaxLineLength > 0 && w.lineLen+2 > w.opts.MaxLineLength {
			w.putByte('\n')
		}
		w.putByte(hexDigits[c>>4])
		w.putByte(hexDigits[c&15])
	}
	w.putByte('>')
}

// balancedParens reports whether the parentheses in data nest properly, in
// which case they can be written without escapes.
func balancedParens(data []byte) bool {
	depth := 0
	for _, c := range data {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// escapeStringByte appends the literal-string form of c to dst.
func escapeStringByte(dst []byte, c byte, quoteParens bool) []byte {
	switch c {
	case '\\':
		return append(dst, '\\', '\\')
	case '(', ')':
		if quoteParens {
			return append(dst, '\\', c)
		}
		return append(dst, c)
	case '\r':
		return append(dst, '\\', 'r')
	case '\b':
		return append(dst, '\\', 'b')
	case '\f':
		return append(dst, '\\', 'f')
	case '\n', '\t':
		return append(dst, c)
	}
	if c < 32 || c == 127 {
		return append(dst, '\\', '0'+c>>6, '0'+(c>>3)&7, '0'+c&7)
	}
	return append(dst, c)
}

func escapedLen(data []byte, quoteParens bool) int {
	var esc [4]byte
	n := 0
	for _, c := range data {
		n += len(escapeStringByte(esc[:0], c, quoteParens))
	}
	return n
}
