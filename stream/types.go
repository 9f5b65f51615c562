package stream

import "github.com/tsawler/pdfsyntax/internal/filters"

// FilterType identifies a codec that can be installed on a Stream.
type FilterType = filters.Type

// Params holds codec parameters such as Predictor, Columns or Key.
type Params = filters.Params

// Filter types.
const (
	NullFilter       = filters.Null
	AHexEncoder      = filters.AHexEncoder
	AHexDecoder      = filters.AHexDecoder
	A85Encoder       = filters.A85Encoder
	A85Decoder       = filters.A85Decoder
	LZWEncoder       = filters.LZWEncoder
	LZWDecoder       = filters.LZWDecoder
	FlateEncoder     = filters.FlateEncoder
	FlateDecoder     = filters.FlateDecoder
	RunLengthEncoder = filters.RunLengthEncoder
	RunLengthDecoder = filters.RunLengthDecoder
	CCITTFaxEncoder  = filters.CCITTFaxEncoder
	CCITTFaxDecoder  = filters.CCITTFaxDecoder
	JBIG2Encoder     = filters.JBIG2Encoder
	JBIG2Decoder     = filters.JBIG2Decoder
	DCTEncoder       = filters.DCTEncoder
	DCTDecoder       = filters.DCTDecoder
	JPXEncoder       = filters.JPXEncoder
	JPXDecoder       = filters.JPXDecoder
	AESv2Encoder     = filters.AESv2Encoder
	AESv2Decoder     = filters.AESv2Decoder
	V2Encoder        = filters.V2Encoder
	V2Decoder        = filters.V2Decoder
	MD5Encoder       = filters.MD5Encoder
)

// SupportedFilter reports whether a filter type has an implementation.
func SupportedFilter(t FilterType) bool { return filters.Supported(t) }

// ParseFilterType looks up a filter type by its short name, such as
// "flatedec" or "ahexenc".
func ParseFilterType(name string) (FilterType, bool) { return filters.ParseType(name) }

// FilterTypes returns every filter type, supported or not.
func FilterTypes() []FilterType { return filters.Types() }
