package core

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/tsawler/pdfsyntax/pdferr"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenInteger TokenType = iota
	TokenReal
	TokenString
	TokenName
	TokenKeyword
	TokenComment
	TokenDictStart  // <<
	TokenDictEnd    // >>
	TokenArrayStart // [
	TokenArrayEnd   // ]
	TokenProcStart  // {
	TokenProcEnd    // }
)

var tokenTypeNames = [...]string{
	TokenInteger:    "Integer",
	TokenReal:       "Real",
	TokenString:     "String",
	TokenName:       "Name",
	TokenKeyword:    "Keyword",
	TokenComment:    "Comment",
	TokenDictStart:  "DictStart",
	TokenDictEnd:    "DictEnd",
	TokenArrayStart: "ArrayStart",
	TokenArrayEnd:   "ArrayEnd",
	TokenProcStart:  "ProcStart",
	TokenProcEnd:    "ProcEnd",
}

// String returns the name of the token type
func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "Unknown"
}

// Token is one lexical unit produced by the Tokenizer.
//
// Only the field matching Type is meaningful: Int for integers, Real for
// reals, Data for strings, names, keywords and comments. Data never has a
// trailing NUL; strings may contain embedded NULs. Continued is set on a
// comment token that carries the rest of a comment split because it did
// not fit in the tokenizer buffer.
type Token struct {
	Type      TokenType
	Int       int32
	Real      float32
	Data      []byte
	Continued bool
	Pos       int64 // offset of the first byte of the token
}

// NewRealToken returns a real token. NaN and infinite values are rejected.
func NewRealToken(v float32) (Token, error) {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return Token{}, pdferr.New(pdferr.ErrInvalidOp, "real token", "NaN or infinite value")
	}
	return Token{Type: TokenReal, Real: v}, nil
}

// IsValueless reports whether the token is a structural marker.
func (t Token) IsValueless() bool {
	return t.Type >= TokenDictStart
}

// Equal reports whether two tokens have the same type and value. Positions
// are ignored.
func (t Token) Equal(u Token) bool {
	if t.Type != u.Type {
		return false
	}
	switch t.Type {
	case TokenInteger:
		return t.Int == u.Int
	case TokenReal:
		return t.Real == u.Real
	case TokenString, TokenName, TokenKeyword:
		return bytes.Equal(t.Data, u.Data)
	case TokenComment:
		return t.Continued == u.Continued && bytes.Equal(t.Data, u.Data)
	}
	return true
}

func (t Token) String() string {
	switch t.Type {
	case TokenInteger:
		return fmt.Sprintf("Integer(%d)", t.Int)
	case TokenReal:
		return "Real(" + strconv.FormatFloat(float64(t.Real), 'f', -1, 32) + ")"
	case TokenString, TokenName, TokenKeyword:
		return fmt.Sprintf("%s(%q)", t.Type, t.Data)
	case TokenComment:
		if t.Continued {
			return fmt.Sprintf("Comment(%q, continued)", t.Data)
		}
		return fmt.Sprintf("Comment(%q)", t.Data)
	}
	return t.Type.String()
}
