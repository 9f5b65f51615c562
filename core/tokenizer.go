package core

import (
	"errors"
	"io"

	"github.com/tsawler/pdfsyntax/pdferr"
)

// DefaultBufferSize is the default maximum token length in bytes.
const DefaultBufferSize = 32767

// TokenizerOptions configures a Tokenizer.
type TokenizerOptions struct {
	// ReturnComments makes Read return comment tokens instead of
	// discarding them.
	ReturnComments bool

	// PDF11 disables '#' escapes in names, as in PDF 1.1 and earlier.
	PDF11 bool

	// BufferSize is the maximum length of a keyword, name, number or
	// string. Longer comments are split into continued tokens.
	BufferSize int
}

// DefaultTokenizerOptions returns the default tokenizer configuration.
func DefaultTokenizerOptions() TokenizerOptions {
	return TokenizerOptions{BufferSize: DefaultBufferSize}
}

// Source is the byte supply of a Tokenizer. *stream.Stream implements it.
type Source interface {
	PeekByte() (byte, error)
	ReadByte() (byte, error)
	Tell() int64
}

type tokState int

const (
	stateNone tokState = iota
	stateComment
	stateKeyword
	stateName
	stateString
	stateHexString
	stateDictEnd
	statePending // a one-character structural token is queued
	stateEOF
)

// string substates
const (
	strNormal = iota
	strSkipLF // saw CR; drop a following LF
	strEscape // saw '\'
	strOctal1 // saw one octal digit
	strOctal2 // saw two octal digits
)

// hex string substates
const (
	hexFirst = iota // first byte after '<'
	hexHigh
	hexLow
	hexDone
)

// name substates
const (
	nameNormal = iota
	nameEscHigh
	nameEscLow
)

// charResult tells Read whether the peeked byte was consumed.
type charResult int

const (
	charAccept charResult = iota
	charRetry             // the state changed without using the byte
)

// Tokenizer splits a byte stream into tokens.
type Tokenizer struct {
	src  Source
	opts TokenizerOptions

	state     tokState
	substate  int
	nesting   int  // open parentheses in a string; -1 once closed
	continued bool // next comment token continues a split comment
	charparam byte
	buf       []byte
	start     int64 // offset where the current token began

	findStream bool
	out        *Token
	err        error
}

// NewTokenizer returns a tokenizer reading from src.
func NewTokenizer(src Source, opts TokenizerOptions) *Tokenizer {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	return &Tokenizer{
		src:  src,
		opts: opts,
		buf:  make([]byte, 0, opts.BufferSize),
	}
}

// Options returns the tokenizer configuration.
func (t *Tokenizer) Options() TokenizerOptions { return t.opts }

// Reset clears all state, including a recorded error or end of input, so
// reading can continue after the source was repositioned.
func (t *Tokenizer) Reset() {
	t.state = stateNone
	t.substate = 0
	t.nesting = 0
	t.continued = false
	t.buf = t.buf[:0]
	t.findStream = false
	t.out = nil
	t.err = nil
}

// EndAtStream makes the tokenizer stop right after the next line feed.
// Only whitespace and comments may appear before it. It is used after a
// "stream" keyword so the source is left at the first byte of the raw
// stream data; Read returns io.EOF once the line feed has been consumed.
func (t *Tokenizer) EndAtStream() error {
	if t.state != stateNone && t.state != stateComment {
		return pdferr.At(pdferr.ErrMalformed, "tokenize", t.src.Tell(), "stream keyword not followed by end of line")
	}
	t.findStream = true
	return nil
}

// Read returns the next token. At the end of input it returns io.EOF, and
// keeps doing so until Reset. Syntax errors are *pdferr.Error values and
// are returned again by every later call.
func (t *Tokenizer) Read() (Token, error) {
	if t.err != nil {
		return Token{}, t.err
	}

	for {
		ch, err := t.src.PeekByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Token{}, t.fail(err)
		}

		res, err := t.handleChar(ch)
		if err == nil && res == charAccept {
			if _, err := t.src.ReadByte(); err != nil {
				return Token{}, t.fail(err)
			}
		}
		if tok, ok := t.take(); ok {
			return tok, nil
		}
		if errors.Is(err, io.EOF) {
			return Token{}, io.EOF
		}
		if err != nil {
			return Token{}, t.fail(err)
		}
	}

	if t.state == stateEOF {
		return Token{}, io.EOF
	}
	if err := t.exitState(); err != nil {
		return Token{}, t.fail(err)
	}
	t.state = stateEOF
	if tok, ok := t.take(); ok {
		return tok, nil
	}
	return Token{}, io.EOF
}

func (t *Tokenizer) take() (Token, bool) {
	if t.out == nil {
		return Token{}, false
	}
	tok := *t.out
	t.out = nil
	return tok, true
}

func (t *Tokenizer) fail(err error) error {
	t.err = err
	return err
}

func (t *Tokenizer) malformed(format string, args ...interface{}) error {
	return pdferr.At(pdferr.ErrMalformed, "tokenize", t.src.Tell(), format, args...)
}

func (t *Tokenizer) enterState(s tokState) {
	t.state = s
	t.substate = 0
	t.start = t.src.Tell()
}

// handleChar feeds one peeked byte to the state machine. A completed token
// is left in t.out; it may be produced whether or not the byte was used.
func (t *Tokenizer) handleChar(ch byte) (charResult, error) {
	// states that whitespace and delimiters do not end
	switch t.state {
	case stateEOF:
		return charRetry, io.EOF

	case stateString:
		return t.stringChar(ch)

	case stateHexString:
		return t.hexStringChar(ch)

	case stateDictEnd:
		if ch != '>' {
			return charRetry, t.malformed("unexpected %q after '>'", ch)
		}
		t.substate = 1
		return charAccept, t.exitState()

	case stateComment:
		if isEOL(ch) {
			if err := t.exitState(); err != nil {
				return charRetry, err
			}
			return charRetry, nil
		}
		if len(t.buf) >= t.opts.BufferSize {
			// split the comment; the rest becomes a continued token
			if err := t.flushToken(); err != nil {
				return charRetry, err
			}
			t.continued = true
			t.start = t.src.Tell()
		}
		t.buf = append(t.buf, ch)
		return charAccept, nil
	}

	if isWhitespace(ch) {
		if t.state != stateNone {
			// leave the byte unread so a CR before the stream data is
			// seen again with the state cleared
			if err := t.exitState(); err != nil {
				return charRetry, err
			}
			return charRetry, nil
		}
		if t.findStream && ch == '\n' {
			t.state = stateEOF
			t.findStream = false
		}
		return charAccept, nil
	}
	if t.findStream && ch != '%' {
		return charRetry, t.malformed("unexpected %q before stream data", ch)
	}

	if isDelimiter(ch) {
		if t.state != stateNone {
			if err := t.exitState(); err != nil {
				return charRetry, err
			}
			return charRetry, nil
		}

		switch ch {
		case '%':
			t.enterState(stateComment)
			t.continued = false
			t.buf = append(t.buf, ch)
		case '(':
			t.enterState(stateString)
			t.nesting = 0
		case ')':
			return charRetry, t.malformed("unbalanced ')'")
		case '/':
			t.enterState(stateName)
		case '<':
			t.enterState(stateHexString)
		case '>':
			t.enterState(stateDictEnd)
		default: // [ ] { }
			// exitState may have produced a token already, so this one
			// is emitted when the pending state is left
			t.enterState(statePending)
			t.charparam = ch
		}
		return charAccept, nil
	}

	// regular character
	switch t.state {
	case statePending:
		if err := t.exitState(); err != nil {
			return charRetry, err
		}
		return charRetry, nil

	case stateNone:
		t.enterState(stateKeyword)
		fallthrough

	case stateKeyword:
		return t.store(ch)

	case stateName:
		return t.nameChar(ch)
	}
	return charRetry, pdferr.New(pdferr.ErrInvalidOp, "tokenize", "invalid tokenizer state")
}

func (t *Tokenizer) store(ch byte) (charResult, error) {
	if len(t.buf) >= t.opts.BufferSize {
		return charRetry, pdferr.At(pdferr.ErrImplLimit, "tokenize", t.start,
			"token longer than %d bytes", t.opts.BufferSize)
	}
	t.buf = append(t.buf, ch)
	return charAccept, nil
}

func (t *Tokenizer) nameChar(ch byte) (charResult, error) {
	if t.substate == nameNormal {
		if ch != '#' || t.opts.PDF11 {
			return t.store(ch)
		}
		t.substate = nameEscHigh
		return charAccept, nil
	}

	v := hexValue(ch)
	if v > 15 {
		return charRetry, t.malformed("invalid escape digit %q in name", ch)
	}
	if t.substate == nameEscHigh {
		t.substate = nameEscLow
		t.charparam = v
		return charAccept, nil
	}

	c := t.charparam<<4 | v
	if c == 0 {
		return charRetry, t.malformed("#00 escape in name")
	}
	res, err := t.store(c)
	if err == nil {
		t.substate = nameNormal
	}
	return res, err
}

func (t *Tokenizer) stringChar(ch byte) (charResult, error) {
	for {
		switch t.substate {
		case strSkipLF:
			t.substate = strNormal
			if ch == '\n' {
				return charAccept, nil
			}
			continue

		case strNormal:
			if ch == '\\' {
				t.substate = strEscape
				return charAccept, nil
			}
			if ch == ')' && t.nesting <= 0 {
				t.nesting = -1
				return charAccept, t.exitState()
			}
			if len(t.buf) >= t.opts.BufferSize {
				return t.store(ch)
			}
			switch ch {
			case '(':
				t.nesting++
			case ')':
				t.nesting--
			case '\r':
				ch = '\n'
				t.substate = strSkipLF
			}
			return t.store(ch)

		case strEscape:
			t.substate = strNormal
			switch ch {
			case 'b':
				ch = '\b'
			case 'f':
				ch = '\f'
			case 'n':
				ch = '\n'
			case 'r':
				ch = '\r'
			case 't':
				ch = '\t'
			case '\n':
				return charAccept, nil
			case '\r':
				t.substate = strSkipLF
				return charAccept, nil
			case '0', '1', '2', '3', '4', '5', '6', '7':
				// three digits are read even when the value overflows a
				// byte; the high bits are dropped
				t.substate = strOctal1
				t.charparam = ch - '0'
				return charAccept, nil
			}
			// any other byte, including '(', ')' and '\', stands for itself
			return t.store(ch)

		case strOctal1, strOctal2:
			if ch < '0' || ch > '7' {
				if _, err := t.store(t.charparam); err != nil {
					return charRetry, err
				}
				// ch is not part of the escape
				t.substate = strNormal
				continue
			}
			t.charparam = t.charparam<<3 | (ch - '0')
			if t.substate == strOctal2 {
				if _, err := t.store(t.charparam); err != nil {
					return charRetry, err
				}
				t.substate = strNormal
				return charAccept, nil
			}
			t.substate = strOctal2
			return charAccept, nil

		default:
			return charRetry, pdferr.New(pdferr.ErrInvalidOp, "tokenize", "invalid string state")
		}
	}
}

func (t *Tokenizer) hexStringChar(ch byte) (charResult, error) {
	if t.substate == hexFirst {
		if ch == '<' {
			// "<<" starts a dictionary
			t.state = statePending
			t.charparam = ch
			return charAccept, t.exitState()
		}
		t.substate = hexHigh
	}

	if isWhitespace(ch) {
		return charAccept, nil
	}

	if ch == '>' {
		if t.substate == hexLow {
			// odd number of digits; the missing one is 0
			if _, err := t.store(t.charparam << 4); err != nil {
				return charRetry, err
			}
		}
		t.substate = hexDone
		return charAccept, t.exitState()
	}

	v := hexValue(ch)
	if v > 15 {
		return charRetry, t.malformed("invalid character %q in hex string", ch)
	}
	if t.substate == hexHigh {
		t.substate = hexLow
		t.charparam = v
		return charAccept, nil
	}

	res, err := t.store(t.charparam<<4 | v)
	if err == nil {
		t.substate = hexHigh
	}
	return res, err
}

// flushToken turns the accumulated state into a token in t.out, without
// leaving the state.
func (t *Tokenizer) flushToken() error {
	tok := Token{Pos: t.start}

	switch t.state {
	case stateNone:
		return nil

	case stateEOF:
		return io.EOF

	case stateComment:
		if !t.opts.ReturnComments {
			t.buf = t.buf[:0]
			return nil
		}
		tok.Type = TokenComment
		tok.Data = t.data()
		tok.Continued = t.continued

	case stateKeyword:
		switch kind, v := recogniseNumber(t.buf); kind {
		case integerNumber:
			tok.Type = TokenInteger
			tok.Int = v
		case realNumber:
			r, err := parseReal(t.buf, t.start)
			if err != nil {
				return err
			}
			tok.Type = TokenReal
			tok.Real = r
		default:
			tok.Type = TokenKeyword
			tok.Data = t.data()
		}

	case stateName:
		if t.substate != nameNormal {
			return t.malformed("incomplete escape in name")
		}
		tok.Type = TokenName
		tok.Data = t.data()

	case stateString:
		if t.nesting >= 0 {
			return t.malformed("unterminated string")
		}
		tok.Type = TokenString
		tok.Data = t.data()

	case stateHexString:
		if t.substate != hexDone {
			return t.malformed("unterminated hex string")
		}
		tok.Type = TokenString
		tok.Data = t.data()

	case stateDictEnd:
		if t.substate != 1 {
			return t.malformed("single '>' outside a hex string")
		}
		tok.Type = TokenDictEnd

	case statePending:
		switch t.charparam {
		case '<':
			tok.Type = TokenDictStart
		case '[':
			tok.Type = TokenArrayStart
		case ']':
			tok.Type = TokenArrayEnd
		case '{':
			tok.Type = TokenProcStart
		case '}':
			tok.Type = TokenProcEnd
		}
	}

	t.out = &tok
	t.buf = t.buf[:0]
	return nil
}

func (t *Tokenizer) exitState() error {
	if err := t.flushToken(); err != nil {
		return err
	}
	t.state = stateNone
	t.substate = 0
	return nil
}

func (t *Tokenizer) data() []byte {
	return append([]byte(nil), t.buf...)
}

// isWhitespace reports NUL, HT, LF, FF, CR and SP.
func isWhitespace(ch byte) bool {
	return ch == 0 || ch == '\t' || ch == '\n' || ch == '\f' || ch == '\r' || ch == ' '
}

func isDelimiter(ch byte) bool {
	switch ch {
	case '%', '(', ')', '/', '<', '>', '[', ']', '{', '}':
		return true
	}
	return false
}

func isEOL(ch byte) bool {
	return ch == '\n' || ch == '\r'
}

func isRegular(ch byte) bool {
	return !isWhitespace(ch) && !isDelimiter(ch)
}

// hexValue returns the value of a hex digit, or 255.
func hexValue(ch byte) byte {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0'
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10
	}
	return 255
}
