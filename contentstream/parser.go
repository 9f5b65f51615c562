package contentstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/pdferr"
	"github.com/tsawler/pdfsyntax/stream"
)

// Operation represents a single content stream operation consisting of an
// operator and its operands. Operands are PDF objects that precede the operator.
type Operation struct {
	Operator string        // The operator (e.g., "Tj", "Tm", "q")
	Operands []core.Object // The operands

	// Data holds the image data of an inline image. The operator is then
	// "BI" and the only operand is the image dictionary.
	Data []byte
}

// InlineImage returns an inline image operation as a stream object whose
// Decode applies the image's /F filters. The abbreviated /F and /DP keys
// are expanded.
func (op Operation) InlineImage() (*core.StreamObject, bool) {
	if op.Operator != "BI" || len(op.Operands) != 1 {
		return nil, false
	}
	dict, ok := op.Operands[0].(core.Dict)
	if !ok {
		return nil, false
	}

	full := make(core.Dict, len(dict))
	for k, v := range dict {
		switch k {
		case "F":
			k = "Filter"
		case "DP":
			k = "DecodeParms"
		}
		full[k] = v
	}

	src, err := stream.NewMem(op.Data, 0, stream.ModeRead)
	if err != nil {
		return nil, false
	}
	return &core.StreamObject{Dict: full, Source: src, Length: int64(len(op.Data))}, true
}

// Parser parses PDF content streams into a sequence of operations.
// Each operation consists of an operator and its operands.
type Parser struct {
	src    *stream.Stream
	parser *core.Parser
	err    error
}

// NewParser creates a new content stream parser for the given data.
func NewParser(data []byte) *Parser {
	src, err := stream.NewMem(data, 0, stream.ModeRead)
	if err != nil {
		return &Parser{err: err}
	}
	return NewStreamParser(src)
}

// NewStreamParser creates a parser reading from a read-mode stream, such
// as one returned by core.StreamObject.Open.
func NewStreamParser(src *stream.Stream) *Parser {
	return &Parser{
		src:    src,
		parser: core.NewParser(src, core.DefaultTokenizerOptions()),
	}
}

// Parse parses the content stream and returns all operations in order.
// Operands left at the end without an operator are dropped.
func (p *Parser) Parse() ([]Operation, error) {
	var ops []Operation
	for {
		op, err := p.Next()
		if errors.Is(err, io.EOF) {
			return ops, nil
		}
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
}

// Next returns the next operation, or io.EOF at the end of the content
// stream. Errors are sticky.
func (p *Parser) Next() (Operation, error) {
	if p.err != nil {
		return Operation{}, p.err
	}

	items, err := p.parser.ReadToCommand()
	if err != nil {
		p.err = err
		return Operation{}, err
	}

	n := len(items) - 1
	op := Operation{
		Operator: string(items[n].(core.Keyword)),
		Operands: make([]core.Object, n),
	}
	copy(op.Operands, items[:n])
	p.parser.DiscardCommand()

	if op.Operator == "BI" {
		if err := p.readInlineImage(&op); err != nil {
			p.err = err
			return Operation{}, err
		}
	}
	return op, nil
}

// readInlineImage reads the "key value ... ID data EI" that follows a BI
// operator.
func (p *Parser) readInlineImage(op *Operation) error {
	if len(op.Operands) != 0 {
		return p.malformed("BI with operands")
	}

	items, err := p.parser.ReadToCommand()
	if errors.Is(err, io.EOF) {
		return p.malformed("inline image without ID")
	}
	if err != nil {
		return err
	}
	n := len(items) - 1
	if kw := items[n].(core.Keyword); kw != "ID" {
		return p.malformed(fmt.Sprintf("unexpected %s in inline image dictionary", kw))
	}
	if n%2 != 0 {
		return p.malformed("inline image dictionary has a key without a value")
	}
	dict := make(core.Dict, n/2)
	for i := 0; i < n; i += 2 {
		key, ok := items[i].(core.Name)
		if !ok {
			return p.malformed(fmt.Sprintf("inline image key %s is not a name", items[i]))
		}
		dict[string(key)] = items[i+1]
	}
	p.parser.DiscardCommand()

	data, err := p.readImageData(dict)
	if err != nil {
		return err
	}
	// the tokenizer did not see the data; start it afresh after EI
	p.parser.Reset()

	op.Operands = []core.Object{dict}
	op.Data = data
	return nil
}

// readImageData reads the data after ID and consumes the EI operator. With
// an /L or /Length entry exactly that many bytes are read; otherwise the
// data ends at the first "EI" standing alone as a token.
func (p *Parser) readImageData(dict core.Dict) ([]byte, error) {
	// a single whitespace byte separates ID from the data
	c, err := p.src.ReadByte()
	if err != nil || !isWhitespace(c) {
		return nil, p.malformed("ID not followed by whitespace")
	}

	if length, ok := imageLength(dict); ok {
		data := make([]byte, length)
		if _, err := io.ReadFull(p.src, data); err != nil {
			return nil, p.malformed("inline image data shorter than its length")
		}
		if err := p.skipEI(); err != nil {
			return nil, err
		}
		return data, nil
	}

	var buf []byte
	for {
		c, err := p.src.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil, p.malformed("inline image without EI")
		}
		if err != nil {
			return nil, err
		}
		buf = append(buf, c)

		n := len(buf)
		if n >= 2 && buf[n-2] == 'E' && buf[n-1] == 'I' && (n == 2 || isWhitespace(buf[n-3])) && p.atTokenEnd() {
			data := buf[:n-2]
			if len(data) > 0 {
				data = data[:len(data)-1]
			}
			return data, nil
		}
	}
}

// skipEI consumes the whitespace and EI operator after inline image data
// of known length.
func (p *Parser) skipEI() error {
	for {
		c, err := p.src.PeekByte()
		if err != nil || !isWhitespace(c) {
			break
		}
		p.src.ReadByte()
	}
	e, err1 := p.src.ReadByte()
	i, err2 := p.src.ReadByte()
	if err1 != nil || err2 != nil || e != 'E' || i != 'I' || !p.atTokenEnd() {
		return p.malformed("inline image data not followed by EI")
	}
	return nil
}

// atTokenEnd reports whether the next byte ends a keyword.
func (p *Parser) atTokenEnd() bool {
	c, err := p.src.PeekByte()
	if err != nil {
		return true
	}
	return isWhitespace(c) || isDelimiter(c)
}

func (p *Parser) malformed(msg string) error {
	return pdferr.At(pdferr.ErrMalformed, "content", p.src.Tell(), "%s", msg)
}

func imageLength(dict core.Dict) (int, bool) {
	for _, key := range []string{"L", "Length"} {
		if n, ok := dict.GetInt(key); ok && n >= 0 {
			return int(n), true
		}
	}
	return 0, false
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return c == '(' || c == ')' || c == '<' || c == '>' ||
		c == '[' || c == ']' || c == '{' || c == '}' ||
		c == '/' || c == '%'
}
