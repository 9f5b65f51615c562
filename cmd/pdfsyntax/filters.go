package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tsawler/pdfsyntax/pdferr"
	"github.com/tsawler/pdfsyntax/stream"
)

// filterList collects repeated -filter flags.
type filterList []string

func (f *filterList) String() string { return strings.Join(*f, ",") }

func (f *filterList) Set(name string) error {
	*f = append(*f, name)
	return nil
}

// paramList collects repeated -param name=value flags.
type paramList stream.Params

func (p *paramList) String() string {
	keys := make([]string, 0, len(*p))
	for k, v := range *p {
		keys = append(keys, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(keys, ",")
}

// Set parses a value as an integer, a real, a boolean or, with a "hex:"
// prefix, bytes. Anything else is kept as a name.
func (p *paramList) Set(arg string) error {
	name, value, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return fmt.Errorf("parameter %q is not name=value", arg)
	}
	if *p == nil {
		*p = make(paramList)
	}

	if h, ok := strings.CutPrefix(value, "hex:"); ok {
		b, err := hex.DecodeString(h)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", name, err)
		}
		(*p)[name] = b
		return nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		(*p)[name] = n
		return nil
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		(*p)[name] = f
		return nil
	}
	if b, err := strconv.ParseBool(value); err == nil {
		(*p)[name] = b
		return nil
	}
	(*p)[name] = value
	return nil
}

type filterPair struct {
	enc, dec stream.FilterType
}

// pdfFilters maps PDF filter names and their inline-image abbreviations
// to codecs.
var pdfFilters = map[string]filterPair{
	"ASCIIHexDecode":  {stream.AHexEncoder, stream.AHexDecoder},
	"AHx":             {stream.AHexEncoder, stream.AHexDecoder},
	"ASCII85Decode":   {stream.A85Encoder, stream.A85Decoder},
	"A85":             {stream.A85Encoder, stream.A85Decoder},
	"LZWDecode":       {stream.LZWEncoder, stream.LZWDecoder},
	"LZW":             {stream.LZWEncoder, stream.LZWDecoder},
	"FlateDecode":     {stream.FlateEncoder, stream.FlateDecoder},
	"Fl":              {stream.FlateEncoder, stream.FlateDecoder},
	"RunLengthDecode": {stream.RunLengthEncoder, stream.RunLengthDecoder},
	"RL":              {stream.RunLengthEncoder, stream.RunLengthDecoder},
	"CCITTFaxDecode":  {stream.CCITTFaxEncoder, stream.CCITTFaxDecoder},
	"CCF":             {stream.CCITTFaxEncoder, stream.CCITTFaxDecoder},
	"JBIG2Decode":     {stream.JBIG2Encoder, stream.JBIG2Decoder},
	"DCTDecode":       {stream.DCTEncoder, stream.DCTDecoder},
	"DCT":             {stream.DCTEncoder, stream.DCTDecoder},
	"JPXDecode":       {stream.JPXEncoder, stream.JPXDecoder},
}

// resolveFilter accepts a codec name such as "flatedec" or a PDF filter
// name. For a PDF filter name, encode selects the encoder.
func resolveFilter(name string, encode bool) (stream.FilterType, error) {
	if t, ok := stream.ParseFilterType(name); ok {
		return t, nil
	}
	pair, ok := pdfFilters[name]
	if !ok {
		return 0, pdferr.New(pdferr.ErrUnsupported, "filter", "unknown filter "+strconv.Quote(name))
	}
	if encode {
		return pair.enc, nil
	}
	return pair.dec, nil
}

// runFilter copies in to out through the filter chain. Without -encode
// the chain is installed on a read stream over in, first filter first, and
// the result is pulled out. With -encode it is installed on out so the
// data is pushed through the filters in the order given.
func runFilter(in io.ReadWriteSeeker, out *stream.Stream, cfg config, logger *slog.Logger) error {
	if len(cfg.filters) == 0 {
		return fmt.Errorf("no -filter given")
	}
	types := make([]stream.FilterType, len(cfg.filters))
	for i, name := range cfg.filters {
		t, err := resolveFilter(name, cfg.encode)
		if err != nil {
			return err
		}
		types[i] = t
	}
	params := stream.Params(cfg.params)

	if cfg.encode {
		// the newest filter of a write stream sees the data first
		for i := len(types) - 1; i >= 0; i-- {
			if err := out.InstallFilter(types[i], params); err != nil {
				return fmt.Errorf("install %s: %w", types[i], err)
			}
			logger.Debug("installed filter", "filter", types[i], "mode", out.Mode())
		}
		n, err := io.Copy(out, in)
		logger.Debug("filtered", "in", n)
		return err
	}

	src, err := stream.NewFile(in, 0, cfg.cacheSize, stream.ModeRead)
	if err != nil {
		return err
	}
	defer src.Close()
	for _, t := range types {
		if err := src.InstallFilter(t, params); err != nil {
			return fmt.Errorf("install %s: %w", t, err)
		}
		logger.Debug("installed filter", "filter", t, "mode", src.Mode())
	}
	n, err := io.Copy(out, src)
	logger.Debug("filtered", "in", src.Backend().Tell(), "out", n)
	return err
}
