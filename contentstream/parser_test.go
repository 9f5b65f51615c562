package contentstream

import (
	"errors"
	"io"
	"testing"

	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/pdferr"
	"github.com/tsawler/pdfsyntax/stream"
)

// TestParseOperations tests splitting content into operators and operands
func TestParseOperations(t *testing.T) {
	input := []byte(`q
1 0 0 1 72 720 cm
BT
/F1 12 Tf
[(Hel) -20 (lo)] TJ
0 -14 Td
(line) '
1 2 (x) "
ET
0.5 g
Q`)

	want := []Operation{
		{Operator: "q", Operands: []core.Object{}},
		{Operator: "cm", Operands: []core.Object{core.Int(1), core.Int(0), core.Int(0), core.Int(1), core.Int(72), core.Int(720)}},
		{Operator: "BT", Operands: []core.Object{}},
		{Operator: "Tf", Operands: []core.Object{core.Name("F1"), core.Int(12)}},
		{Operator: "TJ", Operands: []core.Object{core.Array{core.String("Hel"), core.Int(-20), core.String("lo")}}},
		{Operator: "Td", Operands: []core.Object{core.Int(0), core.Int(-14)}},
		{Operator: "'", Operands: []core.Object{core.String("line")}},
		{Operator: `"`, Operands: []core.Object{core.Int(1), core.Int(2), core.String("x")}},
		{Operator: "ET", Operands: []core.Object{}},
		{Operator: "g", Operands: []core.Object{core.Real(0.5)}},
		{Operator: "Q", Operands: []core.Object{}},
	}

	ops, err := NewParser(input).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	compareOperations(t, ops, want)
}

// TestParseOperandTypes tests every kind of operand
func TestParseOperandTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  core.Object
	}{
		{"integer", "100 Tz", core.Int(100)},
		{"negative real", "-.5 Tc", core.Real(-0.5)},
		{"string", "(a\\(b\\)) Tj", core.String("a(b)")},
		{"hex string", "<48 65 6c6C 6f> Tj", core.String("Hello")},
		{"odd hex string", "<414> Tj", core.String("A@")},
		{"name escape", "/#41#42 Do", core.Name("AB")},
		{"dictionary", "/OC << /MCID 3 >> BDC", core.Dict{"MCID": core.Int(3)}},
		{"boolean", "true op", core.Bool(true)},
		{"null", "null op", core.Null{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := NewParser([]byte(tt.input)).Parse()
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(ops) != 1 {
				t.Fatalf("expected 1 operation, got %d", len(ops))
			}
			last := ops[0].Operands[len(ops[0].Operands)-1]
			if !core.Equal(last, tt.want) {
				t.Errorf("got %v, want %v", last, tt.want)
			}
		})
	}
}

// TestParseEmptyInput tests content with no operations
func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t ", "% only a comment\n", "1 2 3"} {
		ops, err := NewParser([]byte(input)).Parse()
		if err != nil {
			t.Errorf("%q: unexpected error: %v", input, err)
		}
		if len(ops) != 0 {
			t.Errorf("%q: expected no operations, got %d", input, len(ops))
		}
	}
}

// TestParseWithComments tests that comments are skipped
func TestParseWithComments(t *testing.T) {
	ops, err := NewParser([]byte("BT % begin\n/F1 12 Tf %font\nET")).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	compareOperations(t, ops, []Operation{
		{Operator: "BT", Operands: []core.Object{}},
		{Operator: "Tf", Operands: []core.Object{core.Name("F1"), core.Int(12)}},
		{Operator: "ET", Operands: []core.Object{}},
	})
}

// TestParseInlineImage tests inline image parsing (BI/ID/EI)
func TestParseInlineImage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		data  string
	}{
		{"scanned", "q BI /W 2 /H 1 /CS /G /BPC 8 ID \x00\xff EI Q", "\x00\xff"},
		{"EI inside data", "q BI /W 4 /H 1 ID\nxEIyEI\nEI Q", "xEIyEI"},
		{"empty data", "q BI /W 0 ID\nEI Q", ""},
		{"known length", "q BI /W 5 /L 5 ID 1 EI2\nEI Q", "1 EI2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := NewParser([]byte(tt.input)).Parse()
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(ops) != 3 || ops[0].Operator != "q" || ops[1].Operator != "BI" || ops[2].Operator != "Q" {
				t.Fatalf("got operations %v", ops)
			}
			if string(ops[1].Data) != tt.data {
				t.Errorf("data = %q, want %q", ops[1].Data, tt.data)
			}
			dict, ok := ops[1].Operands[0].(core.Dict)
			if !ok || !dict.Has("W") {
				t.Errorf("image dictionary = %v", ops[1].Operands)
			}
		})
	}
}

// TestParseInlineImageErrors tests malformed inline images
func TestParseInlineImageErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no ID", "BI /W 1"},
		{"no EI", "BI /W 1 ID abc"},
		{"EI inside a token", "BI /W 1 ID zEI"},
		{"operator in dictionary", "BI /W 1 Do ID x EI"},
		{"dangling key", "BI /W ID x EI"},
		{"key not a name", "BI 1 2 ID x EI"},
		{"short data", "BI /L 10 ID abc EI"},
		{"data not followed by EI", "BI /L 1 ID a Q"},
		{"no whitespace after ID", "BI /W 1 ID"},
		{"operands before BI", "1 BI /W 1 ID x EI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser([]byte(tt.input))
			_, err := p.Parse()
			if !errors.Is(err, pdferr.ErrMalformed) {
				t.Fatalf("got %v, want ErrMalformed", err)
			}
			if _, again := p.Next(); again != err {
				t.Errorf("error is not sticky: %v", again)
			}
		})
	}
}

// TestParseInlineImageData tests that the image filters are applied
func TestParseInlineImageData(t *testing.T) {
	ops, err := NewParser([]byte("BI /W 2 /H 1 /F /AHx ID\n00FF>\nEI")).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	img, ok := ops[0].InlineImage()
	if !ok {
		t.Fatal("expected an inline image")
	}
	if _, ok := img.Dict.GetName("Filter"); !ok {
		t.Errorf("/F was not expanded: %v", img.Dict)
	}
	data, err := img.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(data) != "\x00\xff" {
		t.Errorf("decoded %q", data)
	}

	if _, ok := (Operation{Operator: "Tj"}).InlineImage(); ok {
		t.Error("Tj is not an inline image")
	}
}

// TestParseMalformed tests syntax errors in content
func TestParseMalformed(t *testing.T) {
	for _, input := range []string{"[1 2 Tj", "1 R", "(unterminated Tj", "<< /A >> op", "[1 Tj] TJ"} {
		if _, err := NewParser([]byte(input)).Parse(); !errors.Is(err, pdferr.ErrMalformed) {
			t.Errorf("%q: got %v, want ErrMalformed", input, err)
		}
	}
}

// TestNextFromStream tests reading operations from a filtered stream
func TestNextFromStream(t *testing.T) {
	src, err := stream.NewMem([]byte("42542035203020546420455420>"), 0, stream.ModeRead)
	if err != nil {
		t.Fatalf("NewMem: %v", err)
	}
	if err := src.InstallFilter(stream.AHexDecoder, nil); err != nil {
		t.Fatalf("InstallFilter: %v", err)
	}

	p := NewStreamParser(src)
	var operators []string
	for {
		op, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		operators = append(operators, op.Operator)
	}
	if len(operators) != 3 || operators[0] != "BT" || operators[1] != "Td" || operators[2] != "ET" {
		t.Errorf("got %v", operators)
	}
}

// TestIsDelimiter tests delimiter detection
func TestIsDelimiter(t *testing.T) {
	delimiters := []byte{'(', ')', '<', '>', '[', ']', '{', '}', '/', '%'}
	nonDelimiters := []byte{'a', 'z', '0', '9', ' ', '\n'}

	for _, d := range delimiters {
		if !isDelimiter(d) {
			t.Errorf("isDelimiter(%q) = false, want true", d)
		}
	}

	for _, nd := range nonDelimiters {
		if isDelimiter(nd) {
			t.Errorf("isDelimiter(%q) = true, want false", nd)
		}
	}
}

// TestIsWhitespace tests whitespace detection
func TestIsWhitespace(t *testing.T) {
	whitespace := []byte{' ', '\t', '\r', '\n', '\f', 0}
	nonWhitespace := []byte{'a', '0', '/', '('}

	for _, w := range whitespace {
		if !isWhitespace(w) {
			t.Errorf("isWhitespace(%d) = false, want true", w)
		}
	}

	for _, nw := range nonWhitespace {
		if isWhitespace(nw) {
			t.Errorf("isWhitespace(%q) = true, want false", nw)
		}
	}
}

func compareOperations(t *testing.T, got, want []Operation) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d operations, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Operator != want[i].Operator {
			t.Errorf("operation %d: expected operator %q, got %q", i, want[i].Operator, got[i].Operator)
			continue
		}
		if !core.Equal(core.Array(got[i].Operands), core.Array(want[i].Operands)) {
			t.Errorf("operation %d (%s): expected operands %v, got %v", i, want[i].Operator, want[i].Operands, got[i].Operands)
		}
	}
}

// Benchmark tests
func BenchmarkParseSimple(b *testing.B) {
	input := []byte("BT /F1 12 Tf (Hello) Tj ET")
	for i := 0; i < b.N; i++ {
		parser := NewParser(input)
		_, _ = parser.Parse()
	}
}
