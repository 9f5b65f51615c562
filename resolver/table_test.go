package resolver

import (
	"errors"
	"testing"

	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/pdferr"
	"github.com/tsawler/pdfsyntax/stream"
)

const sampleDocument = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>
endobj
5 0 obj
13
endobj
4 0 obj
<< /Length 5 0 R >>
stream
BT (Hi) Tj ET
endstream
endobj
xref
0 6
0000000000 65535 f
0000000009 00000 n
trailer
<< /Size 6 /Root 1 0 R >>
startxref
123
%%EOF
`

func newTestParser(t *testing.T, input string) *core.Parser {
	t.Helper()
	stm, err := stream.NewMem([]byte(input), 0, stream.ModeRead)
	if err != nil {
		t.Fatalf("NewMem: %v", err)
	}
	return core.NewParser(stm, core.DefaultTokenizerOptions())
}

// TestLoad tests collecting the objects and trailer of a document
func TestLoad(t *testing.T) {
	table, err := Load(newTestParser(t, sampleDocument))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	wantRefs := []core.IndirectRef{ref(1), ref(2), ref(3), ref(5), ref(4)}
	refs := table.Refs()
	if len(refs) != len(wantRefs) || table.Len() != len(wantRefs) {
		t.Fatalf("got refs %v, want %v", refs, wantRefs)
	}
	for i := range wantRefs {
		if refs[i] != wantRefs[i] {
			t.Errorf("ref %d: got %v, want %v", i, refs[i], wantRefs[i])
		}
	}

	if root, ok := table.Trailer().GetIndirectRef("Root"); !ok || root != ref(1) {
		t.Errorf("trailer /Root = %v", table.Trailer().Get("Root"))
	}

	obj, err := table.GetObject(4)
	if err != nil {
		t.Fatalf("GetObject(4): %v", err)
	}
	so, ok := obj.(*core.StreamObject)
	if !ok {
		t.Fatalf("object 4 is %T, want a stream", obj)
	}
	raw, err := so.Raw()
	if err != nil || string(raw) != "BT (Hi) Tj ET" {
		t.Errorf("stream data %q, %v", raw, err)
	}

	r := NewResolver(table)
	pages, err := r.Resolve(core.IndirectRef{Number: 2})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if n, _ := pages.(core.Dict).GetInt("Count"); n != 1 {
		t.Errorf("/Count = %v, want 1", n)
	}

	// pages and their parents refer to each other
	if _, err := r.ResolveDeep(table.Trailer().Get("Root")); !errors.Is(err, pdferr.ErrMalformed) {
		t.Errorf("deep resolution of the page tree: got %v, want a circular reference error", err)
	}
}

// TestLoadIncrementalUpdate tests that later definitions replace earlier
// ones and that generations are kept apart
func TestLoadIncrementalUpdate(t *testing.T) {
	doc := "1 0 obj (old) endobj trailer << /Size 2 >> startxref 10 %%EOF\n" +
		"1 0 obj (new) endobj 1 1 obj (gen1) endobj trailer << /Size 3 >> startxref 50 %%EOF\n"

	table, err := Load(newTestParser(t, doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}

	got, _ := table.ResolveReference(ref(1))
	if !core.Equal(got, core.String("new")) {
		t.Errorf("1 0 R = %v, want (new)", got)
	}
	got, err = table.GetObject(1)
	if err != nil || !core.Equal(got, core.String("gen1")) {
		t.Errorf("GetObject(1) = %v, %v; want the highest generation", got, err)
	}
	if size, _ := table.Trailer().GetInt("Size"); size != 3 {
		t.Errorf("trailer /Size = %v, want the last trailer", size)
	}
}

// TestLoadSpecialObjects tests empty objects, keyword values and
// cross-reference stream dictionaries
func TestLoadSpecialObjects(t *testing.T) {
	doc := "1 0 obj endobj\n2 0 obj true endobj\n" +
		"3 0 obj << /Type /XRef /Size 4 /Root 2 0 R /Length 0 >> stream\n\nendstream endobj\n"

	table, err := Load(newTestParser(t, doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, _ := table.GetObject(1); !core.Equal(got, core.Null{}) {
		t.Errorf("object 1 = %v, want null", got)
	}
	if got, _ := table.GetObject(2); !core.Equal(got, core.Bool(true)) {
		t.Errorf("object 2 = %v, want true", got)
	}
	if root, ok := table.Trailer().GetIndirectRef("Root"); !ok || root.Number != 2 {
		t.Errorf("trailer from the cross-reference stream: %v", table.Trailer())
	}
}

// TestLoadErrors tests malformed object definitions
func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing endobj", "1 0 obj 5"},
		{"endobj without obj", "5 endobj"},
		{"obj without numbers", "obj"},
		{"two values", "1 0 obj 1 2 endobj"},
		{"nested definition", "1 0 obj 2 0 obj"},
		{"stream outside an object", "<< /Length 1 >> stream\nx\nendstream"},
		{"stream without a dictionary", "1 0 obj [1] stream\nx\nendstream endobj"},
		{"stream without a length", "1 0 obj << >> stream\nx\nendstream endobj"},
		{"length defined after the stream", "1 0 obj << /Length 2 0 R >> stream\nx\nendstream endobj 2 0 obj 1 endobj"},
		{"parse error", "1 0 obj [1 endobj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(newTestParser(t, tt.doc)); !errors.Is(err, pdferr.ErrMalformed) {
				t.Errorf("got %v, want ErrMalformed", err)
			}
		})
	}
}
