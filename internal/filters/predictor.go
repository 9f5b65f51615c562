package filters

import "fmt"

// predictorLayout describes the sample layout predictors operate on.
type predictorLayout struct {
	colors  int
	bpc     int
	columns int
}

func newPredictorLayout(params Params) (predictorLayout, error) {
	l := predictorLayout{
		colors:  getIntParam(params, "Colors", 1),
		bpc:     getIntParam(params, "BitsPerComponent", 8),
		columns: getIntParam(params, "Columns", 1),
	}
	switch l.bpc {
	case 1, 2, 4, 8, 16:
	default:
		return l, fmt.Errorf("unsupported bits per component: %d", l.bpc)
	}
	if l.colors < 1 || l.colors > 32 {
		return l, fmt.Errorf("invalid number of colors: %d", l.colors)
	}
	if l.columns < 1 {
		return l, fmt.Errorf("invalid number of columns: %d", l.columns)
	}
	return l, nil
}

// pixelBytes is the distance in bytes to the corresponding byte of the
// previous pixel, at least 1.
func (l predictorLayout) pixelBytes() int {
	return (l.colors*l.bpc + 7) / 8
}

// rowBytes is the size of one row of samples.
func (l predictorLayout) rowBytes() int {
	return (l.columns*l.colors*l.bpc + 7) / 8
}

// applyPredictor undoes a prediction step. Predictor 1 is identity, 2 is
// TIFF Predictor 2, and 10-15 are PNG predictors, where each row carries
// its own algorithm tag (None, Sub, Up, Average, Paeth).
func applyPredictor(data []byte, predictor int, params Params) ([]byte, error) {
	if predictor == 1 {
		return data, nil
	}

	layout, err := newPredictorLayout(params)
	if err != nil {
		return nil, err
	}

	switch {
	case predictor == 2:
		return layout.undoTIFF(data)
	case predictor >= 10 && predictor <= 15:
		return layout.undoPNG(data)
	default:
		return nil, fmt.Errorf("unsupported predictor: %d", predictor)
	}
}

// undoTIFF adds each sample to the same component of the pixel on its left.
func (l predictorLayout) undoTIFF(data []byte) ([]byte, error) {
	rowSize := l.rowBytes()
	if len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowSize)
	}

	result := make([]byte, len(data))
	copy(result, data)
	mask := 1<<l.bpc - 1
	samples := l.columns * l.colors

	for start := 0; start < len(result); start += rowSize {
		row := result[start : start+rowSize]
		for i := l.colors; i < samples; i++ {
			v := getSample(row, i, l.bpc) + getSample(row, i-l.colors, l.bpc)
			setSample(row, i, l.bpc, v&mask)
		}
	}
	return result, nil
}

// undoPNG decodes PNG-filtered rows. The algorithm tag byte at the start
// of every row is dropped from the result.
func (l predictorLayout) undoPNG(data []byte) ([]byte, error) {
	rowSize := l.rowBytes()
	if len(data)%(rowSize+1) != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowSize+1)
	}

	bpp := l.pixelBytes()
	numRows := len(data) / (rowSize + 1)
	result := make([]byte, numRows*rowSize)
	prev := make([]byte, rowSize)

	for r := 0; r < numRows; r++ {
		tag := data[r*(rowSize+1)]
		src := data[r*(rowSize+1)+1 : (r+1)*(rowSize+1)]
		cur := result[r*rowSize : (r+1)*rowSize]

		for i, x := range src {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]

			switch tag {
			case 0:
				cur[i] = x
			case 1:
				cur[i] = x + left
			case 2:
				cur[i] = x + up
			case 3:
				cur[i] = x + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = x + paethPredictor(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG predictor %d in row %d", tag, r)
			}
		}
		prev = cur
	}

	return result, nil
}

// paethPredictor implements the Paeth predictor algorithm from the PNG specification.
// It selects the neighbor (left, above, or upper-left) closest to a linear prediction.
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

// getSample returns sample i of a packed row.
func getSample(row []byte, i, bpc int) int {
	switch bpc {
	case 8:
		return int(row[i])
	case 16:
		return int(row[2*i])<<8 | int(row[2*i+1])
	}
	bit := i * bpc
	shift := 8 - bpc - bit%8
	return int(row[bit/8]>>shift) & (1<<bpc - 1)
}

// setSample stores v as sample i of a packed row.
func setSample(row []byte, i, bpc, v int) {
	switch bpc {
	case 8:
		row[i] = byte(v)
		return
	case 16:
		row[2*i] = byte(v >> 8)
		row[2*i+1] = byte(v)
		return
	}
	bit := i * bpc
	shift := 8 - bpc - bit%8
	mask := byte(1<<bpc-1) << shift
	row[bit/8] = row[bit/8]&^mask | byte(v)<<shift&mask
}

// abs returns the absolute value of an integer.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
