package pages

import (
	"bytes"
	"fmt"

	"github.com/tsawler/pdfsyntax/contentstream"
	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/pdferr"
)

// MaxTreeDepth is the deepest page tree that is traversed.
const MaxTreeDepth = 64

// Resolver resolves indirect references. *resolver.ObjectResolver
// implements it.
type Resolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// inheritable lists the page attributes a page takes from its ancestors
// when it does not set them itself.
var inheritable = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// Catalog represents the PDF document catalog (root of document structure)
type Catalog struct {
	dict     core.Dict
	resolver Resolver
}

// NewCatalog creates a new catalog from a dictionary
func NewCatalog(dict core.Dict, resolver Resolver) *Catalog {
	return &Catalog{
		dict:     dict,
		resolver: resolver,
	}
}

// Type returns the catalog type (should be "Catalog")
func (c *Catalog) Type() string {
	name, _ := c.dict.GetName("Type")
	return string(name)
}

// Version returns the /Version entry, which overrides the header version
// of the file, or "" if there is none.
func (c *Catalog) Version() string {
	name, _ := c.dict.GetName("Version")
	return string(name)
}

// PageTree returns the page tree rooted at /Pages.
func (c *Catalog) PageTree() (*PageTree, error) {
	obj := c.dict.Get("Pages")
	if obj == nil {
		return nil, pdferr.New(pdferr.ErrMalformed, "pages", "catalog missing /Pages entry")
	}
	resolved, err := c.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Pages: %w", err)
	}
	root, ok := resolved.(core.Dict)
	if !ok {
		return nil, pdferr.New(pdferr.ErrMalformed, "pages", "/Pages is "+resolved.Type().String())
	}
	return NewPageTree(root, c.resolver), nil
}

// Metadata returns the metadata stream, or nil if there is none.
func (c *Catalog) Metadata() (*core.StreamObject, error) {
	obj := c.dict.Get("Metadata")
	if obj == nil {
		return nil, nil
	}
	resolved, err := c.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Metadata: %w", err)
	}
	so, ok := resolved.(*core.StreamObject)
	if !ok {
		return nil, pdferr.New(pdferr.ErrMalformed, "pages", "/Metadata is "+resolved.Type().String())
	}
	return so, nil
}

// PageTree represents the PDF page tree
type PageTree struct {
	root     core.Dict
	resolver Resolver
	pages    []*Page // flattened on first use
}

// NewPageTree creates a new page tree from the root pages dictionary
func NewPageTree(root core.Dict, resolver Resolver) *PageTree {
	return &PageTree{
		root:     root,
		resolver: resolver,
	}
}

// Count returns the /Count entry of the root, the number of pages the file
// claims to have.
func (t *PageTree) Count() (int, error) {
	count, ok := t.root.GetInt("Count")
	if !ok {
		return 0, pdferr.New(pdferr.ErrMalformed, "pages", "page tree missing /Count entry")
	}
	return int(count), nil
}

// GetPage returns the page at the given index (0-based)
func (t *PageTree) GetPage(index int) (*Page, error) {
	pages, err := t.Pages()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(pages))
	}
	return pages[index], nil
}

// Pages returns every page in document order.
func (t *PageTree) Pages() ([]*Page, error) {
	if t.pages == nil {
		pages := make([]*Page, 0)
		w := walker{resolver: t.resolver, visited: make(map[core.IndirectRef]bool)}
		if err := w.walk(t.root, nil, 0, &pages); err != nil {
			return nil, fmt.Errorf("failed to traverse page tree: %w", err)
		}
		t.pages = pages
	}
	return t.pages, nil
}

type walker struct {
	resolver Resolver
	visited  map[core.IndirectRef]bool
}

// walk visits a page tree node. inherited holds the inheritable
// attributes set by its ancestors.
func (w *walker) walk(node, inherited core.Dict, depth int, pages *[]*Page) error {
	if depth > MaxTreeDepth {
		return pdferr.New(pdferr.ErrImplLimit, "pages", fmt.Sprintf("page tree deeper than %d", MaxTreeDepth))
	}

	typ, _ := node.GetName("Type")
	if typ == "Page" || (typ == "" && !node.Has("Kids")) {
		*pages = append(*pages, &Page{dict: node, inherited: inherited, resolver: w.resolver})
		return nil
	}
	if typ != "Pages" && typ != "" {
		return pdferr.New(pdferr.ErrMalformed, "pages", "unexpected page node type "+string(typ))
	}

	attrs := make(core.Dict, len(inherited)+len(inheritable))
	for k, v := range inherited {
		attrs[k] = v
	}
	for _, key := range inheritable {
		if v, ok := node[key]; ok {
			attrs[key] = v
		}
	}

	kidsObj, err := w.resolver.Resolve(node.Get("Kids"))
	if err != nil {
		return fmt.Errorf("failed to resolve /Kids: %w", err)
	}
	kids, ok := kidsObj.(core.Array)
	if !ok {
		return pdferr.New(pdferr.ErrMalformed, "pages", "Pages node without a /Kids array")
	}

	for i, kid := range kids {
		if ref, ok := kid.(core.IndirectRef); ok {
			if w.visited[ref] {
				return pdferr.New(pdferr.ErrMalformed, "pages", "page tree visits "+ref.String()+" twice")
			}
			w.visited[ref] = true
		}
		resolved, err := w.resolver.Resolve(kid)
		if err != nil {
			return fmt.Errorf("failed to resolve kid %d: %w", i, err)
		}
		kidDict, ok := resolved.(core.Dict)
		if !ok {
			return pdferr.New(pdferr.ErrMalformed, "pages", fmt.Sprintf("kid %d is %s", i, resolved.Type()))
		}
		if err := w.walk(kidDict, attrs, depth+1, pages); err != nil {
			return err
		}
	}
	return nil
}

// Page represents a single PDF page
type Page struct {
	dict      core.Dict
	inherited core.Dict
	resolver  Resolver
}

// Dict returns the page dictionary.
func (p *Page) Dict() core.Dict { return p.dict }

// attr returns a page attribute, taking inheritable attributes from the
// ancestors when the page does not set them.
func (p *Page) attr(name string) (core.Object, error) {
	obj, ok := p.dict[name]
	if !ok {
		obj, ok = p.inherited[name]
	}
	if !ok {
		return nil, nil
	}
	return p.resolver.Resolve(obj)
}

// MediaBox returns the page media box [x1 y1 x2 y2]
func (p *Page) MediaBox() ([]float64, error) {
	return p.box("MediaBox")
}

// CropBox returns the page crop box, which defaults to the media box.
func (p *Page) CropBox() ([]float64, error) {
	obj, err := p.attr("CropBox")
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return p.MediaBox()
	}
	return p.box("CropBox")
}

func (p *Page) box(name string) ([]float64, error) {
	obj, err := p.attr(name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	if obj == nil {
		return nil, pdferr.New(pdferr.ErrMalformed, "pages", name+" not found")
	}
	arr, ok := obj.(core.Array)
	if !ok || len(arr) != 4 {
		return nil, pdferr.New(pdferr.ErrMalformed, "pages", "invalid "+name+" "+obj.String())
	}

	box := make([]float64, 4)
	for i, elem := range arr {
		v, err := p.resolver.Resolve(elem)
		if err != nil {
			return nil, err
		}
		switch n := v.(type) {
		case core.Int:
			box[i] = float64(n)
		case core.Real:
			box[i] = float64(n)
		default:
			return nil, pdferr.New(pdferr.ErrMalformed, "pages", "invalid "+name+" element "+v.String())
		}
	}
	return box, nil
}

// Resources returns the page resources dictionary
func (p *Page) Resources() (core.Dict, error) {
	obj, err := p.attr("Resources")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Resources: %w", err)
	}
	if obj == nil {
		return nil, pdferr.New(pdferr.ErrMalformed, "pages", "resources not found")
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		return nil, pdferr.New(pdferr.ErrMalformed, "pages", "invalid Resources "+obj.String())
	}
	return dict, nil
}

// Contents returns the page content streams. A page without /Contents has
// none.
func (p *Page) Contents() ([]*core.StreamObject, error) {
	obj, err := p.resolver.Resolve(p.dict.Get("Contents"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Contents: %w", err)
	}

	var items core.Array
	switch v := obj.(type) {
	case nil, core.Null:
		return nil, nil
	case *core.StreamObject:
		return []*core.StreamObject{v}, nil
	case core.Array:
		items = v
	default:
		return nil, pdferr.New(pdferr.ErrMalformed, "pages", "invalid Contents "+v.String())
	}

	streams := make([]*core.StreamObject, 0, len(items))
	for i, elem := range items {
		resolved, err := p.resolver.Resolve(elem)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve contents[%d]: %w", i, err)
		}
		so, ok := resolved.(*core.StreamObject)
		if !ok {
			return nil, pdferr.New(pdferr.ErrMalformed, "pages", fmt.Sprintf("contents[%d] is %s", i, resolved.Type()))
		}
		streams = append(streams, so)
	}
	return streams, nil
}

// Operations decodes the content streams of the page and splits them into
// operations. The streams of a /Contents array are joined as one.
func (p *Page) Operations() ([]contentstream.Operation, error) {
	streams, err := p.Contents()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for i, so := range streams {
		data, err := so.Decode()
		if err != nil {
			return nil, fmt.Errorf("contents[%d]: %w", i, err)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}
	return contentstream.NewParser(buf.Bytes()).Parse()
}

// Rotate returns the page rotation: 0, 90, 180 or 270. A value that is not
// a multiple of 90 counts as 0.
func (p *Page) Rotate() int {
	obj, err := p.attr("Rotate")
	if err != nil {
		return 0
	}
	r, ok := obj.(core.Int)
	if !ok || r%90 != 0 {
		return 0
	}
	return int((r%360 + 360) % 360)
}

// Width returns the displayed page width: the media box width, or its
// height when the page is rotated by 90 or 270 degrees.
func (p *Page) Width() (float64, error) {
	w, h, err := p.size()
	if p.Rotate()%180 != 0 {
		return h, err
	}
	return w, err
}

// Height returns the displayed page height.
func (p *Page) Height() (float64, error) {
	w, h, err := p.size()
	if p.Rotate()%180 != 0 {
		return w, err
	}
	return h, err
}

func (p *Page) size() (float64, float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, 0, err
	}
	return box[2] - box[0], box[3] - box[1], nil
}
