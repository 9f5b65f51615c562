package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/pdferr"
	"github.com/tsawler/pdfsyntax/resolver"
)

// minimalPDF is a minimal valid PDF for testing
const minimalPDF = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [] /Count 0 >>
endobj
xref
0 3
0000000000 65535 f
0000000009 00000 n
0000000058 00000 n
trailer
<< /Size 3 /Root 1 0 R >>
startxref
110
%%EOF`

// pdfWithInfo is a PDF with an Info dictionary and an incremental update
const pdfWithInfo = `%PDF-1.3
1 0 obj
<< /Type /Catalog /Pages 2 0 R /Version /1.7 >>
endobj
2 0 obj
<< /Type /Pages /Kids [] /Count 0 >>
endobj
3 0 obj
<< /Title (Old Title) >>
endobj
trailer
<< /Size 4 /Root 1 0 R /Info 3 0 R >>
startxref
0
%%EOF
3 0 obj
<< /Title (Test Document) /Author (Test Author) /Parent 1 0 R >>
endobj
trailer
<< /Size 4 /Root 1 0 R /Info 3 0 R /Prev 0 >>
startxref
0
%%EOF`

func streamObj(num int, dict, data string) string {
	return fmt.Sprintf("%d 0 obj\n<< %s /Length %d >>\nstream\n%s\nendstream\nendobj\n", num, dict, len(data), data)
}

// imagePDF has one page drawing an image XObject and an inline image
func imagePDF() string {
	return "%PDF-1.5\n" +
		"1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n" +
		"2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 100 100] >> endobj\n" +
		"3 0 obj << /Type /Page /Parent 2 0 R /Contents 4 0 R\n" +
		"  /Resources << /XObject << /Im1 5 0 R /Fm1 6 0 R >> >> >> endobj\n" +
		streamObj(4, "", "q /Im1 Do BI /W 1 /H 1 /CS /G /F /AHx ID 7F> EI Q") +
		streamObj(5, "/Type /XObject /Subtype /Image /Width 2 /Height 1 /ColorSpace [/Indexed /DeviceRGB 1 <000000FFFFFF>] /BitsPerComponent 1 /Filter [/ASCIIHexDecode]", "40>") +
		streamObj(6, "/Type /XObject /Subtype /Form /BBox [0 0 1 1]", "") +
		"trailer << /Size 7 /Root 1 0 R >>\nstartxref\n0\n%%EOF\n"
}

// createTempPDF creates a temporary PDF file with the given content
func createTempPDF(t *testing.T, content string) string {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return tmpFile
}

func mustNew(t *testing.T, content string) *Reader {
	t.Helper()
	r, err := New([]byte(content))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

// TestOpen tests opening a PDF file
func TestOpen(t *testing.T) {
	r, err := Open(createTempPDF(t, minimalPDF))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if r.Version() != (PDFVersion{1, 4}) {
		t.Errorf("expected version 1.4, got %s", r.Version())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

// TestOpenNonExistent tests opening a missing file
func TestOpenNonExistent(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected an error opening a missing file")
	}
}

// TestParseHeader tests header detection
func TestParseHeader(t *testing.T) {
	body := "\n1 0 obj << /Type /Catalog >> endobj trailer << /Root 1 0 R >> startxref 0"

	tests := []struct {
		name    string
		header  string
		want    PDFVersion
		wantErr bool
	}{
		{"1.4", "%PDF-1.4", PDFVersion{1, 4}, false},
		{"2.0", "%PDF-2.0", PDFVersion{2, 0}, false},
		{"leading garbage", "garbage\n%PDF-1.6", PDFVersion{1, 6}, false},
		{"bad version", "%PDF-x.y", PDFVersion{}, true},
		{"no header", "%!PS-Adobe-3.0", PDFVersion{}, true},
		{"empty", "", PDFVersion{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New([]byte(tt.header + body))
			if tt.wantErr {
				if !errors.Is(err, pdferr.ErrMalformed) {
					t.Errorf("got %v, want ErrMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if r.HeaderVersion() != tt.want {
				t.Errorf("got %s, want %s", r.HeaderVersion(), tt.want)
			}
		})
	}
}

// TestParseVersion tests version string parsing and ordering
func TestParseVersion(t *testing.T) {
	tests := []struct {
		input string
		want  PDFVersion
		ok    bool
	}{
		{"1.7", PDFVersion{1, 7}, true},
		{"1.10 trailing", PDFVersion{1, 10}, true},
		{"1", PDFVersion{}, false},
		{"", PDFVersion{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseVersion(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseVersion(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}

	if !(PDFVersion{1, 9}).Less(PDFVersion{1, 10}) || (PDFVersion{2, 0}).Less(PDFVersion{1, 7}) {
		t.Error("Less orders versions incorrectly")
	}
}

// TestVersion tests that the catalog /Version raises the header version
func TestVersion(t *testing.T) {
	r := mustNew(t, pdfWithInfo)
	if r.HeaderVersion() != (PDFVersion{1, 3}) {
		t.Errorf("header version %s, want 1.3", r.HeaderVersion())
	}
	if r.Version() != (PDFVersion{1, 7}) {
		t.Errorf("version %s, want 1.7", r.Version())
	}

	older := strings.Replace(pdfWithInfo, "/Version /1.7", "/Version /1.2", 1)
	if v := mustNew(t, older).Version(); v != (PDFVersion{1, 3}) {
		t.Errorf("an older catalog version gave %s, want 1.3", v)
	}
}

// TestTrailer tests the trailer of an incrementally updated file
func TestTrailer(t *testing.T) {
	r := mustNew(t, pdfWithInfo)
	trailer := r.Trailer()
	if _, ok := trailer.GetInt("Prev"); !ok {
		t.Errorf("expected the last trailer, got %v", trailer)
	}
	if r.NumObjects() != 4 {
		t.Errorf("NumObjects() = %d, want 4", r.NumObjects())
	}
	if r.Table().Len() != 3 {
		t.Errorf("table holds %d objects, want 3", r.Table().Len())
	}
}

// TestNoTrailer tests a file without a trailer dictionary
func TestNoTrailer(t *testing.T) {
	_, err := New([]byte("%PDF-1.4\n1 0 obj 5 endobj\n"))
	if !errors.Is(err, pdferr.ErrMalformed) {
		t.Errorf("got %v, want ErrMalformed", err)
	}
}

// TestLoadError tests that syntax errors are reported
func TestLoadError(t *testing.T) {
	_, err := New([]byte("%PDF-1.4\n1 0 obj << /A ] >> endobj\n"))
	if !errors.Is(err, pdferr.ErrMalformed) {
		t.Errorf("got %v, want ErrMalformed", err)
	}
}

// TestGetObject tests object lookup
func TestGetObject(t *testing.T) {
	r := mustNew(t, minimalPDF)

	obj, err := r.GetObject(2)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		t.Fatalf("expected Dict, got %T", obj)
	}
	if typ, _ := dict.GetName("Type"); typ != "Pages" {
		t.Errorf("expected Type=Pages, got %s", typ)
	}

	if _, err := r.GetObject(99); !errors.Is(err, resolver.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

// TestResolveReference tests resolving references, including missing ones
func TestResolveReference(t *testing.T) {
	r := mustNew(t, minimalPDF)

	obj, err := r.ResolveReference(core.IndirectRef{Number: 1})
	if err != nil {
		t.Fatalf("ResolveReference failed: %v", err)
	}
	if _, ok := obj.(core.Dict); !ok {
		t.Errorf("expected Dict, got %T", obj)
	}

	obj, err = r.ResolveReference(core.IndirectRef{Number: 42})
	if err != nil || !core.Equal(obj, core.Null{}) {
		t.Errorf("missing object: got %v, %v; want null", obj, err)
	}

	if obj, err := r.Resolve(core.Int(7)); err != nil || !core.Equal(obj, core.Int(7)) {
		t.Errorf("Resolve(7) = %v, %v", obj, err)
	}
}

// TestResolveDeep tests resolving every reference below an object
func TestResolveDeep(t *testing.T) {
	r := mustNew(t, pdfWithInfo)

	obj, err := r.ResolveDeep(core.Array{core.IndirectRef{Number: 1}})
	if err != nil {
		t.Fatalf("ResolveDeep failed: %v", err)
	}
	catalog := obj.(core.Array)[0].(core.Dict)
	pagesDict, ok := catalog.GetDict("Pages")
	if !ok {
		t.Fatalf("/Pages was not resolved: %v", catalog)
	}
	if typ, _ := pagesDict.GetName("Type"); typ != "Pages" {
		t.Errorf("resolved /Pages %v", pagesDict)
	}

	// the info dictionary points back at the catalog, which does not
	// lead back to it
	if _, err := r.ResolveDeep(r.Trailer()); err != nil {
		t.Errorf("ResolveDeep(trailer): %v", err)
	}
}

// TestGetCatalog tests catalog lookup
func TestGetCatalog(t *testing.T) {
	catalog, err := mustNew(t, minimalPDF).GetCatalog()
	if err != nil {
		t.Fatalf("GetCatalog failed: %v", err)
	}
	if typ, _ := catalog.GetName("Type"); typ != "Catalog" {
		t.Errorf("expected Type=Catalog, got %s", typ)
	}
}

// TestGetCatalog_MissingRoot tests a trailer without /Root
func TestGetCatalog_MissingRoot(t *testing.T) {
	r := mustNew(t, strings.Replace(minimalPDF, "/Root 1 0 R", "", 1))
	if _, err := r.GetCatalog(); !errors.Is(err, pdferr.ErrMalformed) {
		t.Errorf("got %v, want ErrMalformed", err)
	}
	if _, err := r.PageCount(); err == nil {
		t.Error("expected PageCount to fail without a catalog")
	}
}

// TestGetInfo tests that the latest info dictionary is returned
func TestGetInfo(t *testing.T) {
	info, err := mustNew(t, pdfWithInfo).GetInfo()
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if title, _ := info.Get("Title").(core.String); title != "Test Document" {
		t.Errorf("expected Title='Test Document', got %v", info.Get("Title"))
	}
}

// TestGetInfoMissing tests a document without an info dictionary
func TestGetInfoMissing(t *testing.T) {
	info, err := mustNew(t, minimalPDF).GetInfo()
	if err != nil || info != nil {
		t.Errorf("GetInfo() = %v, %v; want nil, nil", info, err)
	}
}

// TestNumObjects_MissingSize tests a trailer without /Size
func TestNumObjects_MissingSize(t *testing.T) {
	r := mustNew(t, strings.Replace(minimalPDF, "/Size 3 ", "", 1))
	if r.NumObjects() != 0 {
		t.Errorf("NumObjects() = %d, want 0", r.NumObjects())
	}
}

// TestPageCount tests counting pages
func TestPageCount(t *testing.T) {
	tests := []struct {
		name string
		pdf  string
		want int
	}{
		{"empty tree", minimalPDF, 0},
		{"one page", imagePDF(), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := mustNew(t, tt.pdf).PageCount()
			if err != nil {
				t.Fatalf("PageCount failed: %v", err)
			}
			if count != tt.want {
				t.Errorf("got %d pages, want %d", count, tt.want)
			}
		})
	}
}

// TestGetPage tests page access by index
func TestGetPage(t *testing.T) {
	r := mustNew(t, imagePDF())

	page, err := r.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if w, err := page.Width(); err != nil || w != 100 {
		t.Errorf("Width() = %v, %v; want 100", w, err)
	}
	if _, err := r.GetPage(1); err == nil {
		t.Error("expected an error for page index 1")
	}

	again, _ := r.GetPage(0)
	if again != page {
		t.Error("expected the page tree to be cached")
	}
}

// TestExtractPageImages tests listing image XObjects and inline images
func TestExtractPageImages(t *testing.T) {
	r := mustNew(t, imagePDF())
	page, err := r.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}

	images, err := r.ExtractPageImages(page)
	if err != nil {
		t.Fatalf("ExtractPageImages failed: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}

	tests := []struct {
		name       string
		inline     bool
		width      int
		colorSpace string
		bpc        int
		filter     string
		data       string
	}{
		{"Im1", false, 2, "DeviceRGB", 1, "ASCIIHexDecode", "\x40"},
		{"", true, 1, "DeviceGray", 8, "ASCIIHexDecode", "\x7f"},
	}

	for i, tt := range tests {
		img := images[i]
		if img.Name != tt.name || img.Inline != tt.inline {
			t.Errorf("image %d: name %q inline %v", i, img.Name, img.Inline)
		}
		if img.Width != tt.width || img.Height != 1 {
			t.Errorf("image %d: size %dx%d", i, img.Width, img.Height)
		}
		if img.ColorSpace != tt.colorSpace || img.BitsPerComponent != tt.bpc {
			t.Errorf("image %d: %s %d bpc", i, img.ColorSpace, img.BitsPerComponent)
		}
		if img.Filter != tt.filter {
			t.Errorf("image %d: filter %q, want %q", i, img.Filter, tt.filter)
		}
		data, err := img.Decode()
		if err != nil || string(data) != tt.data {
			t.Errorf("image %d: Decode() = %q, %v; want %q", i, data, err, tt.data)
		}
	}
}

// TestStreamsReadFromFile tests that stream data is read from the open file
func TestStreamsReadFromFile(t *testing.T) {
	r, err := Open(createTempPDF(t, imagePDF()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	page, err := r.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	ops, err := page.Operations()
	if err != nil {
		t.Fatalf("Operations failed: %v", err)
	}
	var operators []string
	for _, op := range ops {
		operators = append(operators, op.Operator)
	}
	if got := strings.Join(operators, " "); got != "q Do BI Q" {
		t.Errorf("got operators %q", got)
	}
}

// TestClose_NilFile tests closing a reader not opened from a file
func TestClose_NilFile(t *testing.T) {
	if err := mustNew(t, minimalPDF).Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

// TestWithOptions tests that options reach the loader and resolver
func TestWithOptions(t *testing.T) {
	opts := core.DefaultTokenizerOptions()
	opts.ReturnComments = true
	r, err := New([]byte(minimalPDF), WithCacheSize(16), WithTokenizerOptions(opts), WithMaxDepth(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.ResolveDeep(r.Trailer()); !errors.Is(err, pdferr.ErrImplLimit) {
		t.Errorf("got %v, want ErrImplLimit", err)
	}
}
