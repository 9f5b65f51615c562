package pages

import (
	"errors"
	"testing"

	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/pdferr"
	"github.com/tsawler/pdfsyntax/resolver"
	"github.com/tsawler/pdfsyntax/stream"
)

const sampleDocument = `%PDF-1.7
1 0 obj << /Type /Catalog /Pages 2 0 R /Version /1.7 /Metadata 10 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R 4 0 R] /Count 3 /MediaBox [0 0 612 792]
  /Resources << /Font << /F1 9 0 R >> >> /Rotate 90 >> endobj
3 0 obj << /Type /Page /Parent 2 0 R /Contents 5 0 R >> endobj
4 0 obj << /Type /Pages /Parent 2 0 R /Kids [6 0 R 7 0 R] /Count 2 /CropBox [10 10 600 780] >> endobj
5 0 obj << /Length 13 >> stream
BT (Hi) Tj ET
endstream endobj
6 0 obj << /Type /Page /Parent 4 0 R /MediaBox [0 0 200 100.5] /Rotate 0 /Contents [8 0 R 5 0 R] >> endobj
7 0 obj << /Type /Page /Parent 4 0 R >> endobj
8 0 obj << /Length 4 /Filter /AHx >> stream
710A
endstream endobj
9 0 obj << /Type /Font >> endobj
10 0 obj << /Type /Metadata /Length 0 >> stream

endstream endobj
trailer << /Root 1 0 R >>
startxref
0
%%EOF
`

// loadDocument loads a document and returns its catalog
func loadDocument(t *testing.T, doc string) *Catalog {
	t.Helper()
	src, err := stream.NewMem([]byte(doc), 0, stream.ModeRead)
	if err != nil {
		t.Fatalf("NewMem: %v", err)
	}
	table, err := resolver.Load(core.NewParser(src, core.DefaultTokenizerOptions()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := resolver.NewResolver(table)
	root, err := r.Resolve(table.Trailer().Get("Root"))
	if err != nil {
		t.Fatalf("Resolve root: %v", err)
	}
	return NewCatalog(root.(core.Dict), r)
}

func tableResolver(objs map[int]core.Object) Resolver {
	table := resolver.NewTable()
	for num, obj := range objs {
		table.Add(core.IndirectRef{Number: num}, obj)
	}
	return resolver.NewResolver(table)
}

func equalBoxes(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestCatalog tests catalog entries
func TestCatalog(t *testing.T) {
	catalog := loadDocument(t, sampleDocument)

	if catalog.Type() != "Catalog" {
		t.Errorf("expected Type=Catalog, got %s", catalog.Type())
	}
	if catalog.Version() != "1.7" {
		t.Errorf("expected Version=1.7, got %s", catalog.Version())
	}

	meta, err := catalog.Metadata()
	if err != nil || meta == nil {
		t.Fatalf("Metadata: %v, %v", meta, err)
	}
	if typ, _ := meta.Dict.GetName("Type"); typ != "Metadata" {
		t.Errorf("metadata dictionary %v", meta.Dict)
	}

	bare := NewCatalog(core.Dict{"Type": core.Name("Catalog")}, tableResolver(nil))
	if meta, err := bare.Metadata(); meta != nil || err != nil {
		t.Errorf("missing metadata: got %v, %v", meta, err)
	}
	if _, err := bare.PageTree(); !errors.Is(err, pdferr.ErrMalformed) {
		t.Errorf("missing /Pages: got %v, want ErrMalformed", err)
	}
}

// TestPageTree tests flattening a nested page tree
func TestPageTree(t *testing.T) {
	tree, err := loadDocument(t, sampleDocument).PageTree()
	if err != nil {
		t.Fatalf("PageTree: %v", err)
	}

	count, err := tree.Count()
	if err != nil || count != 3 {
		t.Errorf("Count() = %d, %v; want 3", count, err)
	}
	all, err := tree.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(all))
	}

	if _, err := tree.GetPage(3); err == nil {
		t.Error("expected an error for page index 3")
	}
	if _, err := tree.GetPage(-1); err == nil {
		t.Error("expected an error for page index -1")
	}
}

// TestPageAttributes tests own and inherited page attributes
func TestPageAttributes(t *testing.T) {
	tree, err := loadDocument(t, sampleDocument).PageTree()
	if err != nil {
		t.Fatalf("PageTree: %v", err)
	}

	tests := []struct {
		index         int
		mediaBox      []float64
		cropBox       []float64
		rotate        int
		width, height float64
	}{
		{0, []float64{0, 0, 612, 792}, []float64{0, 0, 612, 792}, 90, 792, 612},
		{1, []float64{0, 0, 200, 100.5}, []float64{10, 10, 600, 780}, 0, 200, 100.5},
		{2, []float64{0, 0, 612, 792}, []float64{10, 10, 600, 780}, 90, 792, 612},
	}

	for _, tt := range tests {
		page, err := tree.GetPage(tt.index)
		if err != nil {
			t.Fatalf("GetPage(%d): %v", tt.index, err)
		}
		if box, err := page.MediaBox(); err != nil || !equalBoxes(box, tt.mediaBox) {
			t.Errorf("page %d: MediaBox = %v, %v; want %v", tt.index, box, err, tt.mediaBox)
		}
		if box, err := page.CropBox(); err != nil || !equalBoxes(box, tt.cropBox) {
			t.Errorf("page %d: CropBox = %v, %v; want %v", tt.index, box, err, tt.cropBox)
		}
		if r := page.Rotate(); r != tt.rotate {
			t.Errorf("page %d: Rotate = %d, want %d", tt.index, r, tt.rotate)
		}
		if w, err := page.Width(); err != nil || w != tt.width {
			t.Errorf("page %d: Width = %v, %v; want %v", tt.index, w, err, tt.width)
		}
		if h, err := page.Height(); err != nil || h != tt.height {
			t.Errorf("page %d: Height = %v, %v; want %v", tt.index, h, err, tt.height)
		}

		res, err := page.Resources()
		if err != nil {
			t.Errorf("page %d: Resources: %v", tt.index, err)
		} else if _, ok := res.GetDict("Font"); !ok {
			t.Errorf("page %d: inherited resources %v", tt.index, res)
		}
	}
}

// TestPageOperations tests decoding and splitting page content
func TestPageOperations(t *testing.T) {
	tree, err := loadDocument(t, sampleDocument).PageTree()
	if err != nil {
		t.Fatalf("PageTree: %v", err)
	}

	tests := []struct {
		index     int
		operators []string
	}{
		{0, []string{"BT", "Tj", "ET"}},
		{1, []string{"q", "BT", "Tj", "ET"}},
		{2, nil},
	}

	for _, tt := range tests {
		page, _ := tree.GetPage(tt.index)
		ops, err := page.Operations()
		if err != nil {
			t.Fatalf("page %d: Operations: %v", tt.index, err)
		}
		if len(ops) != len(tt.operators) {
			t.Fatalf("page %d: got %d operations, want %d", tt.index, len(ops), len(tt.operators))
		}
		for i, op := range ops {
			if op.Operator != tt.operators[i] {
				t.Errorf("page %d, operation %d: got %q, want %q", tt.index, i, op.Operator, tt.operators[i])
			}
		}
	}

	page, _ := tree.GetPage(1)
	contents, err := page.Contents()
	if err != nil || len(contents) != 2 {
		t.Errorf("Contents() = %v, %v; want two streams", contents, err)
	}
}

// TestPageTreeErrors tests malformed page trees
func TestPageTreeErrors(t *testing.T) {
	ref := func(n int) core.IndirectRef { return core.IndirectRef{Number: n} }

	tests := []struct {
		name string
		objs map[int]core.Object
		kind error
	}{
		{"kid cycle", map[int]core.Object{
			1: core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(1)}},
		}, pdferr.ErrMalformed},
		{"kid listed twice", map[int]core.Object{
			1: core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(2), ref(2)}},
			2: core.Dict{"Type": core.Name("Page")},
		}, pdferr.ErrMalformed},
		{"no kids", map[int]core.Object{
			1: core.Dict{"Type": core.Name("Pages")},
		}, pdferr.ErrMalformed},
		{"kid not a dictionary", map[int]core.Object{
			1: core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{core.Int(5)}},
		}, pdferr.ErrMalformed},
		{"unknown node type", map[int]core.Object{
			1: core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{core.Dict{"Type": core.Name("Font"), "Kids": core.Array{}}}},
		}, pdferr.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tableResolver(tt.objs)
			root, err := r.Resolve(ref(1))
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if _, err := NewPageTree(root.(core.Dict), r).Pages(); !errors.Is(err, tt.kind) {
				t.Errorf("got %v, want %v", err, tt.kind)
			}
		})
	}
}

// TestPageTreeDepth tests the depth limit
func TestPageTreeDepth(t *testing.T) {
	node := core.Dict{"Type": core.Name("Page")}
	for i := 0; i <= MaxTreeDepth; i++ {
		node = core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{node}}
	}
	if _, err := NewPageTree(node, tableResolver(nil)).Pages(); !errors.Is(err, pdferr.ErrImplLimit) {
		t.Errorf("got %v, want ErrImplLimit", err)
	}
}

// TestPageRotate tests rotation normalisation
func TestPageRotate(t *testing.T) {
	tests := []struct {
		rotate core.Object
		want   int
	}{
		{core.Int(90), 90},
		{core.Int(-90), 270},
		{core.Int(450), 90},
		{core.Int(45), 0},
		{core.Real(90), 0},
	}

	for _, tt := range tests {
		page := &Page{dict: core.Dict{"Rotate": tt.rotate}, resolver: tableResolver(nil)}
		if got := page.Rotate(); got != tt.want {
			t.Errorf("Rotate %v: got %d, want %d", tt.rotate, got, tt.want)
		}
	}
}

// TestPageMissingBoxes tests pages without usable boxes
func TestPageMissingBoxes(t *testing.T) {
	r := tableResolver(nil)
	tests := []struct {
		name string
		dict core.Dict
	}{
		{"missing", core.Dict{}},
		{"short", core.Dict{"MediaBox": core.Array{core.Int(0), core.Int(0), core.Int(1)}}},
		{"not numbers", core.Dict{"MediaBox": core.Array{core.Int(0), core.Int(0), core.Name("x"), core.Int(1)}}},
	}

	for _, tt := range tests {
		page := &Page{dict: tt.dict, resolver: r}
		if _, err := page.MediaBox(); !errors.Is(err, pdferr.ErrMalformed) {
			t.Errorf("%s: got %v, want ErrMalformed", tt.name, err)
		}
		if _, err := page.Width(); err == nil {
			t.Errorf("%s: expected a Width error", tt.name)
		}
	}
}
