package core

import (
	"fmt"
	"io"

	"github.com/tsawler/pdfsyntax/pdferr"
	"github.com/tsawler/pdfsyntax/stream"
)

// ReferenceResolver looks up the object an indirect reference points to.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// DataSource is the byte source a StreamObject reads its data from.
// *stream.Stream implements it.
type DataSource interface {
	io.Reader
	SeekTo(pos int64) (int64, error)
	Tell() int64
}

var _ DataSource = (*stream.Stream)(nil)

// StreamObject is a stream: a dictionary plus Length bytes of data that
// start at Offset in Source. The source is shared, not owned.
type StreamObject struct {
	Dict   Dict
	Source DataSource
	Offset int64
	Length int64
}

func (s *StreamObject) Type() ObjectType { return ObjStream }
func (s *StreamObject) String() string {
	return fmt.Sprintf("stream %s (%d bytes at %d)", s.Dict.String(), s.Length, s.Offset)
}

// Raw returns the undecoded stream data. The position of Source is
// restored afterwards.
func (s *StreamObject) Raw() ([]byte, error) {
	if s.Source == nil {
		return nil, pdferr.New(pdferr.ErrInvalidOp, "stream object", "no data source")
	}

	saved := s.Source.Tell()
	if _, err := s.Source.SeekTo(s.Offset); err != nil {
		return nil, fmt.Errorf("seek to stream data: %w", err)
	}

	data := make([]byte, s.Length)
	n, err := io.ReadFull(s.Source, data)
	if _, serr := s.Source.SeekTo(saved); serr != nil && err == nil {
		err = fmt.Errorf("restore source position: %w", serr)
	}
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, pdferr.At(pdferr.ErrMalformed, "stream object", s.Offset+int64(n),
				"stream data shorter than /Length %d", s.Length)
		}
		return nil, err
	}
	return data, nil
}

// Open returns a read stream over the stream data with the decode filters
// named by /Filter installed, first filter first.
func (s *StreamObject) Open(cacheSize int) (*stream.Stream, error) {
	raw, err := s.Raw()
	if err != nil {
		return nil, err
	}

	chain, err := decodeChain(s.Dict)
	if err != nil {
		return nil, err
	}

	stm, err := stream.NewMem(raw, cacheSize, stream.ModeRead)
	if err != nil {
		return nil, err
	}
	for i, f := range chain {
		if err := stm.InstallFilter(f.typ, f.params); err != nil {
			return nil, fmt.Errorf("filter %d (%s): %w", i, f.name, err)
		}
	}
	return stm, nil
}

// Decode returns the fully decoded stream data.
func (s *StreamObject) Decode() ([]byte, error) {
	stm, err := s.Open(0)
	if err != nil {
		return nil, err
	}
	defer stm.Close()

	data, err := io.ReadAll(stm)
	if err != nil {
		return nil, err
	}
	return data, nil
}

type decodeStage struct {
	name   string
	typ    stream.FilterType
	params stream.Params
}

// decodeChain reads /Filter and /DecodeParms. A single filter may be given
// as a name, a chain as an array; parameters follow the same shape.
func decodeChain(dict Dict) ([]decodeStage, error) {
	filterObj := dict.Get("Filter")
	if filterObj == nil {
		return nil, nil
	}
	paramsObj := dict.Get("DecodeParms")

	var filterArray Array
	switch f := filterObj.(type) {
	case Name:
		filterArray = Array{f}
	case Array:
		filterArray = f
	default:
		return nil, pdferr.New(pdferr.ErrMalformed, "stream object", "invalid /Filter type "+filterObj.Type().String())
	}

	var chain []decodeStage
	for i, f := range filterArray {
		name, ok := f.(Name)
		if !ok {
			return nil, pdferr.New(pdferr.ErrMalformed, "stream object", fmt.Sprintf("filter %d is not a name: %s", i, f.Type()))
		}

		var params Dict
		if paramsArray, ok := paramsObj.(Array); ok {
			params = paramsToDict(paramsArray.Get(i))
		} else {
			params = paramsToDict(paramsObj)
		}

		stage, err := decodeStageFor(string(name), params)
		if err != nil {
			return nil, err
		}
		if stage.typ == stream.NullFilter {
			continue
		}
		chain = append(chain, stage)
	}
	return chain, nil
}

// decodeStageFor maps a filter name, or its inline-image abbreviation, to
// a decoder.
func decodeStageFor(name string, params Dict) (decodeStage, error) {
	stage := decodeStage{name: name, params: dictToParams(params)}

	switch name {
	case "FlateDecode", "Fl":
		stage.typ = stream.FlateDecoder
	case "ASCIIHexDecode", "AHx":
		stage.typ = stream.AHexDecoder
	case "ASCII85Decode", "A85":
		stage.typ = stream.A85Decoder
	case "LZWDecode", "LZW":
		stage.typ = stream.LZWDecoder
	case "RunLengthDecode", "RL":
		stage.typ = stream.RunLengthDecoder
	case "CCITTFaxDecode", "CCF":
		stage.typ = stream.CCITTFaxDecoder
	case "JBIG2Decode":
		stage.typ = stream.JBIG2Decoder
	case "DCTDecode", "DCT":
		stage.typ = stream.DCTDecoder
	case "JPXDecode":
		stage.typ = stream.JPXDecoder
	case "Crypt":
		// only the Identity crypt filter needs no security handler
		if n, ok := params.GetName("Name"); ok && n != "Identity" {
			return stage, pdferr.New(pdferr.ErrUnsupported, "stream object", "crypt filter /"+string(n))
		}
		stage.typ = stream.NullFilter
	default:
		return stage, pdferr.New(pdferr.ErrUnsupported, "stream object", "unknown filter /"+name)
	}
	return stage, nil
}

// paramsToDict converts a DecodeParms entry to a Dict. Null and other
// types mean no parameters.
func paramsToDict(obj Object) Dict {
	if dict, ok := obj.(Dict); ok {
		return dict
	}
	return nil
}

// dictToParams converts a Dict to filter parameters, translating objects
// to Go values (Int to int, Real to float64, Bool to bool, String to
// []byte, Name to string).
func dictToParams(dict Dict) stream.Params {
	if dict == nil {
		return nil
	}

	params := make(stream.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = []byte(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
