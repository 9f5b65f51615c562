package core

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

const (
	utf16BOM = "\xfe\xff"
	utf8BOM  = "\xef\xbb\xbf"
)

// pdfDocHigh maps the PDFDocEncoding bytes that differ from Latin-1.
// Zero marks an undefined code.
var pdfDocHigh = map[byte]rune{
	0x18: 0x02D8, 0x19: 0x02C7, 0x1A: 0x02C6, 0x1B: 0x02D9,
	0x1C: 0x02DD, 0x1D: 0x02DB, 0x1E: 0x02DA, 0x1F: 0x02DC,
	0x7F: 0,
	0x80: 0x2022, 0x81: 0x2020, 0x82: 0x2021, 0x83: 0x2026,
	0x84: 0x2014, 0x85: 0x2013, 0x86: 0x0192, 0x87: 0x2044,
	0x88: 0x2039, 0x89: 0x203A, 0x8A: 0x2212, 0x8B: 0x2030,
	0x8C: 0x201E, 0x8D: 0x201C, 0x8E: 0x201D, 0x8F: 0x2018,
	0x90: 0x2019, 0x91: 0x201A, 0x92: 0x2122, 0x93: 0xFB01,
	0x94: 0xFB02, 0x95: 0x0141, 0x96: 0x0152, 0x97: 0x0160,
	0x98: 0x0178, 0x99: 0x017D, 0x9A: 0x0131, 0x9B: 0x0142,
	0x9C: 0x0153, 0x9D: 0x0161, 0x9E: 0x017E, 0x9F: 0,
	0xA0: 0x20AC, 0xAD: 0,
}

var pdfDocReverse = func() map[rune]byte {
	m := make(map[rune]byte, len(pdfDocHigh))
	for b, r := range pdfDocHigh {
		if r != 0 {
			m[r] = b
		}
	}
	return m
}()

func pdfDocRune(b byte) rune {
	if r, ok := pdfDocHigh[b]; ok {
		if r == 0 {
			return utf8.RuneError
		}
		return r
	}
	return rune(b)
}

func pdfDocByte(r rune) (byte, bool) {
	if b, ok := pdfDocReverse[r]; ok {
		return b, true
	}
	if r > 0xFF {
		return 0, false
	}
	if _, ok := pdfDocHigh[byte(r)]; ok {
		return 0, false
	}
	return byte(r), true
}

// Text decodes a text string: UTF-16BE or UTF-8 when the string starts
// with the matching byte order mark, PDFDocEncoding otherwise.
func (s String) Text() (string, error) {
	str := string(s)
	switch {
	case strings.HasPrefix(str, utf16BOM):
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		return dec.String(str[len(utf16BOM):])
	case strings.HasPrefix(str, utf8BOM):
		return strings.ToValidUTF8(str[len(utf8BOM):], "\uFFFD"), nil
	}

	var b strings.Builder
	b.Grow(len(str))
	for i := 0; i < len(str); i++ {
		b.WriteRune(pdfDocRune(str[i]))
	}
	return b.String(), nil
}

// TextString encodes text as a String: PDFDocEncoding when every rune has
// a code there, UTF-16BE with a byte order mark otherwise.
func TextString(text string) (String, error) {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		c, ok := pdfDocByte(r)
		if !ok {
			enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
			u, err := enc.String(text)
			if err != nil {
				return "", err
			}
			return String(utf16BOM + u), nil
		}
		out = append(out, c)
	}
	return String(out), nil
}
