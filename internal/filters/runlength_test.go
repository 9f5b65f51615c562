package filters

import (
	"bytes"
	"testing"
)

// TestRunLengthDecode tests decoding literal and repeat runs
func TestRunLengthDecode(t *testing.T) {
	tests := []struct {
		name    string
		encoded []byte
		want    []byte
	}{
		{"literal", []byte{2, 'a', 'b', 'c', 128}, []byte("abc")},
		{"repeat", []byte{254, 'x', 128}, []byte("xxx")},
		{"mixed", []byte{1, 'a', 'b', 253, '-', 0, 'z', 128}, []byte("ab----z")},
		{"no EOD", []byte{0, 'q'}, []byte("q")},
		{"data after EOD", []byte{0, 'q', 128, 0, 'r'}, []byte("q")},
		{"empty", []byte{128}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, bufSize := range []int{1, 2, 64} {
				dec, _ := newRunLengthDecoder(nil)
				got, err := Run(dec, tt.encoded, bufSize)
				if err != nil {
					t.Fatalf("decode failed: %v", err)
				}
				if !bytes.Equal(got, tt.want) {
					t.Errorf("buffer %d: got %q, want %q", bufSize, got, tt.want)
				}
			}
		})
	}
}

// TestRunLengthEncode tests the encoder output
func TestRunLengthEncode(t *testing.T) {
	tests := []struct {
		input []byte
		want  []byte
	}{
		{[]byte("abc"), []byte{2, 'a', 'b', 'c', 128}},
		{[]byte("xxxx"), []byte{253, 'x', 128}},
		{[]byte("abbb"), []byte{0, 'a', 254, 'b', 128}},
		{nil, []byte{128}},
	}

	for _, tt := range tests {
		enc, _ := newRunLengthEncoder(nil)
		got, err := Run(enc, tt.input, 3)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("encode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// TestRunLengthEncodeLongRuns tests runs and literals longer than 128 bytes
func TestRunLengthEncodeLongRuns(t *testing.T) {
	input := append(bytes.Repeat([]byte{'a'}, 300), sampleInput(400)...)
	enc, _ := newRunLengthEncoder(nil)
	encoded, err := Run(enc, input, 16)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if encoded[0] != 129 || encoded[1] != 'a' {
		t.Errorf("expected a 128 byte run first, got %v", encoded[:2])
	}

	dec, _ := newRunLengthDecoder(nil)
	decoded, err := Run(dec, encoded, 16)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(decoded, input) {
		t.Errorf("round trip mismatch")
	}
}
