// Package filters implements the stream codecs used by the stream package.
//
// Every codec satisfies the Codec contract: it is created from a Params
// map by the factory registered for its Type, then driven repeatedly by
// Apply with an input and an output buffer until it reports EOF or an
// error. A codec keeps whatever it needs between calls in its own state,
// so it can be resumed with arbitrarily small buffers.
//
// # Status protocol
//
// Apply returns one of:
//   - StatusNeedInput: every input byte was consumed and more is needed.
//   - StatusNeedOutput: the output buffer is full.
//   - StatusEOF: the codec is done. Further calls are not allowed
//     without creating a new codec.
//   - StatusOK: progress was made; call again.
//
// The finish argument is true once upstream input is exhausted and the
// codec must flush any trailing state (a partial group, an end code,
// padding, a digest).
//
// # Supported codecs
//
//	Type              Params
//	Null              none
//	AHexEncoder       none
//	AHexDecoder       none
//	A85Encoder        none
//	A85Decoder        none
//	LZWEncoder        none
//	LZWDecoder        EarlyChange, Predictor, Colors, BitsPerComponent, Columns
//	FlateEncoder      Level
//	FlateDecoder      Predictor, Colors, BitsPerComponent, Columns
//	RunLengthEncoder  none
//	RunLengthDecoder  none
//	CCITTFaxDecoder   K, Columns, Rows, BlackIs1
//	DCTDecoder        none
//	AESv2Encoder      Key, KeySize, IV
//	AESv2Decoder      Key, KeySize
//	V2Encoder         Key, KeySize
//	V2Decoder         Key, KeySize
//	MD5Encoder        none
//
// The one-shot helpers FlateDecode, LZWDecode, ASCIIHexDecode,
// ASCII85Decode, CCITTFaxDecode and DCTDecode decode a complete byte slice:
//
//	params := filters.Params{
//	    "Predictor": 12,
//	    "Columns":   100,
//	    "Colors":    3,
//	}
//	decoded, err := filters.FlateDecode(data, params)
package filters
