package filters

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// DCTDecode decodes baseline or progressive JPEG data into raw interleaved
// samples: one byte per pixel for gray images, three for color images and
// four for CMYK images.
func DCTDecode(data []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("jpeg decoding failed: %w", err)
	}
	return rawSamples(img), nil
}

func rawSamples(img image.Image) []byte {
	b := img.Bounds()
	switch m := img.(type) {
	case *image.Gray:
		out := make([]byte, 0, b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := m.PixOffset(b.Min.X, y)
			out = append(out, m.Pix[i:i+b.Dx()]...)
		}
		return out
	case *image.CMYK:
		out := make([]byte, 0, 4*b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := m.PixOffset(b.Min.X, y)
			out = append(out, m.Pix[i:i+4*b.Dx()]...)
		}
		return out
	}

	out := make([]byte, 0, 3*b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out = append(out, c.R, c.G, c.B)
		}
	}
	return out
}

func newDCTDecoder(Params) (Codec, error) {
	return newWholeDecoder(DCTDecode), nil
}
