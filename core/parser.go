package core

import (
	"errors"
	"io"

	"github.com/tsawler/pdfsyntax/pdferr"
	"github.com/tsawler/pdfsyntax/stream"
)

// frame is an open array or dictionary. The bottom frame has no parent
// and collects the operands of the next command.
type frame struct {
	items  Array
	isDict bool
	parent *frame
}

// Parser groups tokens into objects and stops at commands: keywords that
// appear outside any array or dictionary.
type Parser struct {
	src      *stream.Stream
	tok      *Tokenizer
	stack    *frame
	resolver ReferenceResolver
	err      error
}

// NewParser creates a parser reading from a read-mode stream.
func NewParser(src *stream.Stream, opts TokenizerOptions) *Parser {
	return &Parser{
		src:   src,
		tok:   NewTokenizer(src, opts),
		stack: &frame{},
	}
}

// SetResolver sets the resolver used for indirect stream lengths.
func (p *Parser) SetResolver(r ReferenceResolver) {
	p.resolver = r
}

// Tokenizer returns the underlying tokenizer.
func (p *Parser) Tokenizer() *Tokenizer { return p.tok }

// Stack returns the objects collected at the top level: the operands of
// the current command followed by the command keyword itself once
// ReadToCommand has returned.
func (p *Parser) Stack() Array {
	return p.bottom().items
}

// DiscardCommand clears the top-level objects. Call it after handling the
// command returned by ReadToCommand.
func (p *Parser) DiscardCommand() {
	p.bottom().items = nil
}

// Reset discards all open arrays and dictionaries, the top-level objects
// and any recorded error, and resets the tokenizer.
func (p *Parser) Reset() {
	p.stack = &frame{}
	p.err = nil
	p.tok.Reset()
}

func (p *Parser) bottom() *frame {
	f := p.stack
	for f.parent != nil {
		f = f.parent
	}
	return f
}

// ReadToCommand reads tokens until a keyword appears at the top level and
// returns the top-level objects, ending with that Keyword. The objects
// stay on the stack until DiscardCommand.
//
// At the end of input it returns io.EOF, leaving any operands not
// followed by a command on the stack. An array or dictionary still open
// at the end of input is a malformed-file error. Errors are sticky until
// Reset.
func (p *Parser) ReadToCommand() (Array, error) {
	if p.err != nil {
		return nil, p.err
	}

	for {
		tok, err := p.tok.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, p.fail(err)
		}

		if err := p.handleToken(tok); err != nil {
			return nil, p.fail(err)
		}

		if p.stack.parent == nil {
			items := p.stack.items
			if n := len(items); n > 0 {
				if _, ok := items[n-1].(Keyword); ok {
					return items, nil
				}
			}
		}
	}

	if p.stack.parent != nil {
		return nil, p.fail(pdferr.At(pdferr.ErrMalformed, "parse", p.src.Tell(),
			"unexpected end of input inside array or dictionary"))
	}
	return nil, io.EOF
}

func (p *Parser) fail(err error) error {
	p.err = err
	return err
}

func (p *Parser) handleToken(tok Token) error {
	var obj Object

	switch tok.Type {
	case TokenArrayStart:
		p.stack = &frame{parent: p.stack}
		return nil

	case TokenDictStart:
		p.stack = &frame{isDict: true, parent: p.stack}
		return nil

	case TokenArrayEnd:
		closed, err := p.closeFrame(false, tok.Pos)
		if err != nil {
			return err
		}
		obj = closed

	case TokenDictEnd:
		closed, err := p.closeFrame(true, tok.Pos)
		if err != nil {
			return err
		}
		obj = closed

	case TokenProcStart, TokenProcEnd:
		return pdferr.At(pdferr.ErrMalformed, "parse", tok.Pos, "procedure braces are not allowed here")

	case TokenComment:
		// only kept between commands
		if p.stack.parent != nil {
			return nil
		}
		obj, _ = objectFromToken(tok)

	case TokenKeyword:
		kw, err := p.handleKeyword(tok)
		if err != nil {
			return err
		}
		obj = kw

	default:
		obj, _ = objectFromToken(tok)
	}

	p.stack.items = append(p.stack.items, obj)
	return nil
}

// handleKeyword turns R, null, true and false into objects. Other keywords
// are only valid at the top level.
func (p *Parser) handleKeyword(tok Token) (Object, error) {
	switch string(tok.Data) {
	case "R":
		items := p.stack.items
		n := len(items)
		if n < 2 {
			return nil, pdferr.At(pdferr.ErrMalformed, "parse", tok.Pos, "R operator needs two integers")
		}
		num, ok1 := items[n-2].(Int)
		gen, ok2 := items[n-1].(Int)
		if !ok1 || !ok2 {
			return nil, pdferr.At(pdferr.ErrMalformed, "parse", tok.Pos, "R operator needs two integers")
		}
		p.stack.items.Remove(n - 1)
		p.stack.items.Remove(n - 2)
		return IndirectRef{Number: int(num), Generation: int(gen)}, nil

	case "null":
		return Null{}, nil

	case "true":
		return Bool(true), nil

	case "false":
		return Bool(false), nil
	}

	if p.stack.parent != nil {
		return nil, pdferr.At(pdferr.ErrMalformed, "parse", tok.Pos,
			"command %q inside array or dictionary", tok.Data)
	}
	return Keyword(tok.Data), nil
}

// closeFrame pops the current frame and returns it as an Array or Dict.
func (p *Parser) closeFrame(isDict bool, pos int64) (Object, error) {
	f := p.stack
	if f.parent == nil || f.isDict != isDict {
		if isDict {
			return nil, pdferr.At(pdferr.ErrMalformed, "parse", pos, "unbalanced '>>'")
		}
		return nil, pdferr.At(pdferr.ErrMalformed, "parse", pos, "unbalanced ']'")
	}

	var obj Object
	if isDict {
		if len(f.items)%2 != 0 {
			return nil, pdferr.At(pdferr.ErrMalformed, "parse", pos, "dictionary key without a value")
		}
		dict := make(Dict, len(f.items)/2)
		for i := 0; i < len(f.items); i += 2 {
			key, ok := f.items[i].(Name)
			if !ok {
				return nil, pdferr.At(pdferr.ErrMalformed, "parse", pos,
					"dictionary key is a %s, not a name", f.items[i].Type())
			}
			if dict.Has(string(key)) {
				return nil, pdferr.At(pdferr.ErrMalformed, "parse", pos, "duplicate dictionary key %s", key)
			}
			dict[string(key)] = f.items[i+1]
		}
		obj = dict
	} else {
		items := f.items
		if items == nil {
			items = Array{}
		}
		obj = items
	}

	p.stack = f.parent
	return obj, nil
}

// ReadStream reads the stream that follows a "stream" command whose
// dictionary is dict. It records where the data starts, skips /Length
// bytes and leaves the parser ready to read "endstream".
func (p *Parser) ReadStream(dict Dict) (*StreamObject, error) {
	if p.err != nil {
		return nil, p.err
	}

	if err := p.tok.EndAtStream(); err != nil {
		return nil, p.fail(err)
	}
	for {
		tok, err := p.tok.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, p.fail(err)
		}
		if tok.Type != TokenComment {
			return nil, p.fail(pdferr.At(pdferr.ErrMalformed, "parse", tok.Pos, "unexpected %s before stream data", tok.Type))
		}
	}

	length, err := p.streamLength(dict)
	if err != nil {
		return nil, p.fail(err)
	}

	offset := p.src.Tell()
	n, err := io.CopyN(io.Discard, p.src, length)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = pdferr.At(pdferr.ErrMalformed, "parse", offset+n, "stream data shorter than /Length %d", length)
		}
		return nil, p.fail(err)
	}

	p.tok.Reset()
	return &StreamObject{Dict: dict, Source: p.src, Offset: offset, Length: length}, nil
}

func (p *Parser) streamLength(dict Dict) (int64, error) {
	obj := dict.Get("Length")
	if ref, ok := obj.(IndirectRef); ok {
		if p.resolver == nil {
			return 0, pdferr.New(pdferr.ErrMalformed, "parse", "indirect /Length "+ref.String()+" without a resolver")
		}
		resolved, err := p.resolver.ResolveReference(ref)
		if err != nil {
			return 0, err
		}
		obj = resolved
	}

	length, ok := obj.(Int)
	if !ok || length < 0 {
		return 0, pdferr.New(pdferr.ErrMalformed, "parse", "stream dictionary has no valid /Length")
	}
	return int64(length), nil
}
