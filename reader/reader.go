package reader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/pages"
	"github.com/tsawler/pdfsyntax/pdferr"
	"github.com/tsawler/pdfsyntax/resolver"
	"github.com/tsawler/pdfsyntax/stream"
)

// headerWindow is how far into the file the %PDF- header is looked for.
const headerWindow = 1024

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)`)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is an earlier version than o.
func (v PDFVersion) Less(o PDFVersion) bool {
	return v.Major < o.Major || (v.Major == o.Major && v.Minor < o.Minor)
}

// ParseVersion parses "major.minor".
func ParseVersion(s string) (PDFVersion, bool) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return PDFVersion{}, false
	}
	major, err1 := strconv.Atoi(m[1])
	minor, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return PDFVersion{}, false
	}
	return PDFVersion{Major: major, Minor: minor}, true
}

type config struct {
	cacheSize int
	tokenizer core.TokenizerOptions
	maxDepth  int
}

// Option configures a Reader
type Option func(*config)

// WithCacheSize sets the cache size of the underlying stream
func WithCacheSize(size int) Option {
	return func(c *config) {
		c.cacheSize = size
	}
}

// WithTokenizerOptions sets the options used to tokenize the file
func WithTokenizerOptions(opts core.TokenizerOptions) Option {
	return func(c *config) {
		c.tokenizer = opts
	}
}

// WithMaxDepth limits how deeply references are followed by ResolveDeep
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// Reader represents a loaded PDF document
type Reader struct {
	closer   io.Closer
	src      *stream.Stream
	version  PDFVersion
	table    *resolver.Table
	resolver *resolver.ObjectResolver
	pageTree *pages.PageTree // Cached page tree
}

// Ensure Reader implements pages.Resolver
var _ pages.Resolver = (*Reader)(nil)

// NewReader loads the document read from f. Stream data is read from f on
// demand, so f must stay open while the Reader is used.
func NewReader(f io.ReadWriteSeeker, opts ...Option) (*Reader, error) {
	cfg := newConfig(opts)
	src, err := stream.NewFile(f, 0, cfg.cacheSize, stream.ModeRead)
	if err != nil {
		return nil, err
	}
	return load(src, cfg)
}

// New loads a document held in memory.
func New(data []byte, opts ...Option) (*Reader, error) {
	cfg := newConfig(opts)
	src, err := stream.NewMem(data, cfg.cacheSize, stream.ModeRead)
	if err != nil {
		return nil, err
	}
	return load(src, cfg)
}

// Open opens a PDF file and returns a Reader
func Open(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r, err := NewReader(file, opts...)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

func newConfig(opts []Option) config {
	cfg := config{
		cacheSize: stream.DefaultCacheSize,
		tokenizer: core.DefaultTokenizerOptions(),
		maxDepth:  resolver.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func load(src *stream.Stream, cfg config) (*Reader, error) {
	version, err := parseHeader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if _, err := src.SeekTo(0); err != nil {
		return nil, err
	}

	table, err := resolver.Load(core.NewParser(src, cfg.tokenizer))
	if err != nil {
		return nil, fmt.Errorf("failed to load objects: %w", err)
	}
	if table.Trailer() == nil {
		return nil, pdferr.New(pdferr.ErrMalformed, "reader", "no trailer dictionary")
	}

	return &Reader{
		src:      src,
		version:  version,
		table:    table,
		resolver: resolver.NewResolver(table, resolver.WithMaxDepth(cfg.maxDepth)),
	}, nil
}

// parseHeader finds the %PDF-x.y header near the start of the file.
func parseHeader(src *stream.Stream) (PDFVersion, error) {
	head := make([]byte, headerWindow)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return PDFVersion{}, err
	}
	head = head[:n]

	i := bytes.Index(head, []byte("%PDF-"))
	if i < 0 {
		return PDFVersion{}, pdferr.New(pdferr.ErrMalformed, "header", "no %PDF- header")
	}
	version, ok := ParseVersion(string(head[i+5:]))
	if !ok {
		return PDFVersion{}, pdferr.At(pdferr.ErrMalformed, "header", int64(i), "invalid version %q", bytes.TrimSpace(head[i:min(n, i+16)]))
	}
	return version, nil
}

// Close closes the file opened by Open.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Version returns the PDF version: the header version, or the catalog
// /Version when that is later.
func (r *Reader) Version() PDFVersion {
	catalog, err := r.GetCatalog()
	if err != nil {
		return r.version
	}
	if v, ok := ParseVersion(pages.NewCatalog(catalog, r).Version()); ok && r.version.Less(v) {
		return v
	}
	return r.version
}

// HeaderVersion returns the version in the file header.
func (r *Reader) HeaderVersion() PDFVersion {
	return r.version
}

// Trailer returns the trailer dictionary
func (r *Reader) Trailer() core.Dict {
	return r.table.Trailer()
}

// Table returns the object table
func (r *Reader) Table() *resolver.Table {
	return r.table
}

// GetObject returns the latest definition of an object.
func (r *Reader) GetObject(objNum int) (core.Object, error) {
	return r.table.GetObject(objNum)
}

// ResolveReference resolves an indirect reference. A reference to a
// missing object resolves to null.
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.resolver.ResolveReference(ref)
}

// Resolve follows obj while it is an indirect reference
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	return r.resolver.Resolve(obj)
}

// ResolveDeep returns a copy of obj with every reference below it resolved
func (r *Reader) ResolveDeep(obj core.Object) (core.Object, error) {
	return r.resolver.ResolveDeep(obj)
}

// GetCatalog returns the document catalog (root object)
func (r *Reader) GetCatalog() (core.Dict, error) {
	return r.trailerDict("Root", true)
}

// GetInfo returns the document info dictionary, or nil if there is none.
func (r *Reader) GetInfo() (core.Dict, error) {
	return r.trailerDict("Info", false)
}

func (r *Reader) trailerDict(key string, required bool) (core.Dict, error) {
	obj := r.Trailer().Get(key)
	if obj == nil {
		if required {
			return nil, pdferr.New(pdferr.ErrMalformed, "reader", "trailer missing /"+key+" entry")
		}
		return nil, nil
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /%s: %w", key, err)
	}
	dict, ok := resolved.(core.Dict)
	if !ok {
		return nil, pdferr.New(pdferr.ErrMalformed, "reader", "/"+key+" is "+resolved.Type().String())
	}
	return dict, nil
}

// Catalog returns the document catalog with its page tree and metadata
// accessors.
func (r *Reader) Catalog() (*pages.Catalog, error) {
	dict, err := r.GetCatalog()
	if err != nil {
		return nil, err
	}
	return pages.NewCatalog(dict, r), nil
}

// NumObjects returns the /Size entry of the trailer, or 0 if there is none.
func (r *Reader) NumObjects() int {
	size, ok := r.Trailer().GetInt("Size")
	if !ok {
		return 0
	}
	return int(size)
}

// PageCount returns the number of pages in the document
func (r *Reader) PageCount() (int, error) {
	all, err := r.Pages()
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// GetPage returns the page at the given index (0-based)
func (r *Reader) GetPage(index int) (*pages.Page, error) {
	if err := r.ensurePageTree(); err != nil {
		return nil, err
	}
	return r.pageTree.GetPage(index)
}

// Pages returns every page in document order.
func (r *Reader) Pages() ([]*pages.Page, error) {
	if err := r.ensurePageTree(); err != nil {
		return nil, err
	}
	return r.pageTree.Pages()
}

// ensurePageTree loads the page tree if not already loaded
func (r *Reader) ensurePageTree() error {
	if r.pageTree != nil {
		return nil
	}
	catalog, err := r.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}
	tree, err := catalog.PageTree()
	if err != nil {
		return err
	}
	r.pageTree = tree
	return nil
}
