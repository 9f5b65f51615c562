package filters

import (
	"bytes"
	"strings"
	"testing"
)

// TestASCIIHexDecode tests ASCII hex decoding
func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    []byte
	}{
		{"basic", "48656C6C6F>", []byte("Hello")},
		{"whitespace", "48 65\n6C\t6C 6F>", []byte("Hello")},
		{"lower case", "48656c6c6f>", []byte("Hello")},
		{"odd digits", "48656C6C6>", []byte("Hell`")},
		{"odd digits without EOD", "48656C6C6", []byte("Hell`")},
		{"no EOD", "48656C6C6F", []byte("Hello")},
		{"data after EOD", "4142>4344", []byte("AB")},
		{"empty", ">", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := ASCIIHexDecode([]byte(tt.encoded))
			if err != nil {
				t.Fatalf("ASCIIHexDecode failed: %v", err)
			}
			if !bytes.Equal(decoded, tt.want) {
				t.Errorf("decoded data doesn't match\ngot:  %q\nwant: %q", decoded, tt.want)
			}
		})
	}
}

// TestASCIIHexDecodeInvalidChar tests error handling for invalid characters
func TestASCIIHexDecodeInvalidChar(t *testing.T) {
	_, err := ASCIIHexDecode([]byte("48G5"))
	if err == nil {
		t.Error("expected error for invalid hex character")
	}
}

// TestASCIIHexEncode tests the encoder output format
func TestASCIIHexEncode(t *testing.T) {
	enc, _ := newAHexEncoder(nil)
	got, err := Run(enc, []byte("Hello"), 3)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(got) != "48656C6C6F>" {
		t.Errorf("got %q, want %q", got, "48656C6C6F>")
	}

	enc, _ = newAHexEncoder(nil)
	got, err = Run(enc, bytes.Repeat([]byte{0xab}, 40), 0)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(got), ">"), "\n")
	if len(lines) != 2 || len(lines[0]) != ahexLineWidth || len(lines[1]) != 20 {
		t.Errorf("unexpected line layout: %q", got)
	}
}

// TestASCII85Decode tests ASCII85 decoding
func TestASCII85Decode(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    []byte
	}{
		{"full group", "9jqo^~>", []byte("Man ")},
		{"partial group", "9jn~>", []byte("Ma")},
		{"whitespace", " 9j\nqo ^ ~>", []byte("Man ")},
		{"zero group", "z~>", []byte{0, 0, 0, 0}},
		{"zero then data", "z9jqo^~>", []byte("\x00\x00\x00\x00Man ")},
		{"no EOD", "9jqo^9jn", []byte("Man Ma")},
		{"empty", "~>", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := ASCII85Decode([]byte(tt.encoded))
			if err != nil {
				t.Fatalf("ASCII85Decode failed: %v", err)
			}
			if !bytes.Equal(decoded, tt.want) {
				t.Errorf("decoded data doesn't match\ngot:  %q\nwant: %q", decoded, tt.want)
			}
		})
	}
}

// TestASCII85DecodeErrors tests error handling for malformed ASCII85 data
func TestASCII85DecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"invalid character", "87\xFFcURD~>"},
		{"z inside group", "9jzqo^~>"},
		{"single digit final group", "9jqo^9~>"},
		{"bad end marker", "9jqo^~x"},
		{"group overflow", "uuuuu~>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ASCII85Decode([]byte(tt.encoded)); err == nil {
				t.Errorf("expected error for %q", tt.encoded)
			}
		})
	}
}

// TestASCII85Encode tests the encoder output format
func TestASCII85Encode(t *testing.T) {
	tests := []struct {
		input []byte
		want  string
	}{
		{[]byte("Man "), "9jqo^~>"},
		{[]byte("Ma"), "9jn~>"},
		{[]byte{0, 0, 0, 0, 'M', 'a'}, "z9jn~>"},
		{nil, "~>"},
	}

	for _, tt := range tests {
		enc, _ := newA85Encoder(nil)
		got, err := Run(enc, tt.input, 2)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("encode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// TestHexDigitToByte tests the hex conversion helper
func TestHexDigitToByte(t *testing.T) {
	tests := []struct {
		input    byte
		expected byte
		hasError bool
	}{
		{'0', 0, false},
		{'9', 9, false},
		{'A', 10, false},
		{'f', 15, false},
		{'G', 0, true},
		{'@', 0, true},
	}

	for _, tt := range tests {
		result, err := hexDigitToByte(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("hexDigitToByte(%c) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("hexDigitToByte(%c) unexpected error: %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("hexDigitToByte(%c) = %d, want %d", tt.input, result, tt.expected)
		}
	}
}

// TestIsWhitespace tests the whitespace check helper
func TestIsWhitespace(t *testing.T) {
	for _, c := range []byte{' ', '\t', '\r', '\n', '\f', 0} {
		if !isWhitespace(c) {
			t.Errorf("isWhitespace(%d) should be true", c)
		}
	}
	for _, c := range []byte{'a', 'Z', '0', '!', '\x01'} {
		if isWhitespace(c) {
			t.Errorf("isWhitespace(%c) should be false", c)
		}
	}
}
