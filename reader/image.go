package reader

import (
	"fmt"

	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/pages"
)

// PageImage is an image drawn by a page: an image XObject named in the
// page resources, or an inline image in the page content.
type PageImage struct {
	Name             string // XObject name (e.g., "Im1"); empty for inline images
	Inline           bool
	Width            int
	Height           int
	ColorSpace       string // DeviceGray, DeviceRGB, DeviceCMYK, etc.
	BitsPerComponent int
	Filter           string // First filter of the image data, if any
	Stream           *core.StreamObject
}

// Decode returns the image data with its filters applied.
func (img *PageImage) Decode() ([]byte, error) {
	return img.Stream.Decode()
}

// abbreviations used by inline image dictionaries
var inlineNames = map[string]string{
	"G": "DeviceGray", "RGB": "DeviceRGB", "CMYK": "DeviceCMYK", "I": "Indexed",
	"AHx": "ASCIIHexDecode", "A85": "ASCII85Decode", "LZW": "LZWDecode",
	"Fl": "FlateDecode", "RL": "RunLengthDecode", "CCF": "CCITTFaxDecode", "DCT": "DCTDecode",
}

// ExtractPageImages returns the image XObjects of a page, sorted by name,
// followed by its inline images in content order.
func (r *Reader) ExtractPageImages(page *pages.Page) ([]PageImage, error) {
	var images []PageImage

	resources, err := page.Resources()
	if err == nil {
		xobjectResolved, err := r.Resolve(resources.Get("XObject"))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve XObject dictionary: %w", err)
		}
		if xobjects, ok := xobjectResolved.(core.Dict); ok {
			for _, name := range xobjects.Keys() {
				resolved, err := r.Resolve(xobjects[name])
				if err != nil {
					return nil, fmt.Errorf("failed to resolve XObject %s: %w", name, err)
				}
				so, ok := resolved.(*core.StreamObject)
				if !ok {
					continue
				}
				if subtype, _ := so.Dict.GetName("Subtype"); subtype != "Image" {
					continue
				}
				img := r.describe(so, false)
				img.Name = name
				images = append(images, img)
			}
		}
	}

	ops, err := page.Operations()
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if so, ok := op.InlineImage(); ok {
			images = append(images, r.describe(so, true))
		}
	}
	return images, nil
}

// describe reads the image attributes of an image stream. Inline images
// may use the abbreviated keys.
func (r *Reader) describe(so *core.StreamObject, inline bool) PageImage {
	img := PageImage{
		Inline:           inline,
		ColorSpace:       "DeviceGray",
		BitsPerComponent: 8,
		Stream:           so,
	}

	get := func(long, short string) core.Object {
		if obj := so.Dict.Get(long); obj != nil || !inline {
			return obj
		}
		return so.Dict.Get(short)
	}
	intValue := func(obj core.Object) (int, bool) {
		resolved, err := r.Resolve(obj)
		if err != nil {
			return 0, false
		}
		n, ok := resolved.(core.Int)
		return int(n), ok
	}

	if n, ok := intValue(get("Width", "W")); ok {
		img.Width = n
	}
	if n, ok := intValue(get("Height", "H")); ok {
		img.Height = n
	}
	if n, ok := intValue(get("BitsPerComponent", "BPC")); ok {
		img.BitsPerComponent = n
	}
	if cs := get("ColorSpace", "CS"); cs != nil {
		img.ColorSpace = r.parseColorSpace(cs, inline)
	}

	switch f := so.Dict.Get("Filter").(type) {
	case core.Name:
		img.Filter = expand(string(f), inline)
	case core.Array:
		if len(f) > 0 {
			if name, ok := f[0].(core.Name); ok {
				img.Filter = expand(string(name), inline)
			}
		}
	}
	return img
}

// parseColorSpace parses a color space object and returns its name.
func (r *Reader) parseColorSpace(obj core.Object, inline bool) string {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return "DeviceGray"
	}

	switch v := resolved.(type) {
	case core.Name:
		return expand(string(v), inline)
	case core.Array:
		// [/Indexed base hival lookup] takes the name of its base
		if len(v) > 0 {
			if name, ok := v[0].(core.Name); ok {
				csName := expand(string(name), inline)
				if csName == "Indexed" && len(v) > 1 {
					return r.parseColorSpace(v[1], inline)
				}
				return csName
			}
		}
	}
	return "DeviceGray"
}

func expand(name string, inline bool) string {
	if full, ok := inlineNames[name]; ok && inline {
		return full
	}
	return name
}
