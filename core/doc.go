// Package core turns the bytes of a PDF file into tokens and objects, and
// tokens back into bytes.
//
// # Object Types
//
// Every value satisfies the [Object] interface:
//
//   - [Null], [Bool], [Int] and [Real] - the scalar types
//   - [String] - literal and hexadecimal strings, as raw bytes
//   - [Name] - names, with '#' escapes already decoded
//   - [Keyword] - a bare keyword such as an operator or "obj"
//   - [Comment] - a comment, when the tokenizer is asked to keep them
//   - [Array] and [Dict] - the containers
//   - [IndirectRef] - an "n g R" reference
//   - [*StreamObject] - a stream dictionary and the location of its data
//
// # Tokenizing
//
// A [Tokenizer] reads bytes from a [Source], normally a read-mode
// *stream.Stream, one at a time and returns [Token] values. It never reads
// past the end of the token it returns, so the source can be handed to
// other code between tokens. Numbers that overflow a 32-bit integer are
// returned as reals.
//
// # Parsing
//
// A [Parser] groups tokens into objects. It has no notion of the structure
// of a PDF file: it collects operands until a keyword appears outside any
// array or dictionary and returns them together with that keyword, which
// suits both the body of a file ("1 0 obj", "endobj", "stream") and content
// streams ("BT", "Tj", "ET").
//
// # Writing
//
// A [Writer] serialises tokens or whole objects to a write-mode stream with
// the minimum whitespace needed to read them back.
package core
