// pdfsyntax - PDF syntax layer tool
//
// Usage:
//
//	pdfsyntax [flags] tokens [file]    Print the tokens of a file
//	pdfsyntax [flags] parse [file]     Print each command with its operands
//	pdfsyntax [flags] objects [file]   List the indirect objects and trailer
//	pdfsyntax [flags] pages [file]     List the pages of a document
//	pdfsyntax [flags] content [file]   Print the operations of a content stream
//	pdfsyntax [flags] rewrite [file]   Write a file back with minimal whitespace
//	pdfsyntax [flags] filter [file]    Run data through a chain of codecs
//
// If no file is given, reads from stdin. Output goes to stdout, log
// messages to stderr.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/resolver"
	"github.com/tsawler/pdfsyntax/stream"
)

type config struct {
	cacheSize  int
	comments   bool
	pdf11      bool
	hexStrings bool
	lineLength int
	maxDepth   int
	encode     bool
	decode     bool
	filters    filterList
	params     paramList
}

func (c config) tokenizerOptions() core.TokenizerOptions {
	opts := core.DefaultTokenizerOptions()
	opts.ReturnComments = c.comments
	opts.PDF11 = c.pdf11
	return opts
}

func (c config) writerOptions() core.WriterOptions {
	return core.WriterOptions{MaxLineLength: c.lineLength, HexStrings: c.hexStrings}
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	var cfg config
	flag.IntVar(&cfg.cacheSize, "cache", stream.DefaultCacheSize, "stream cache size in bytes")
	flag.BoolVar(&cfg.comments, "comments", false, "keep comments")
	flag.BoolVar(&cfg.pdf11, "pdf11", false, "read names with PDF 1.1 rules (no # escapes)")
	flag.BoolVar(&cfg.hexStrings, "hex", false, "rewrite: write every string in hex")
	flag.IntVar(&cfg.lineLength, "width", core.DefaultMaxLineLength, "rewrite: maximum line length, 0 for none")
	flag.IntVar(&cfg.maxDepth, "depth", resolver.DefaultMaxDepth, "objects, pages: maximum reference nesting")
	flag.BoolVar(&cfg.encode, "encode", false, "filter: push the data through the chain in write mode")
	flag.BoolVar(&cfg.decode, "decode", false, "objects, pages: decode streams and report their size or operations")
	flag.Var(&cfg.filters, "filter", "filter: codec to apply, in order (repeatable)")
	flag.Var(&cfg.params, "param", "filter: codec parameter name=value (repeatable)")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Usage = printUsage
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() < 1 {
		printUsage()
		return 2
	}
	cmd := flag.Arg(0)

	in := os.Stdin
	if flag.NArg() > 1 && flag.Arg(1) != "-" {
		f, err := os.Open(flag.Arg(1))
		if err != nil {
			logger.Error("open input", "err", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	out, err := stream.NewFile(os.Stdout, 0, cfg.cacheSize, stream.ModeWrite)
	if err != nil {
		logger.Error("open output", "err", err)
		return 1
	}

	err = run(cmd, cfg, in, out, logger)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		logger.Error(cmd+" failed", "err", err)
		return 1
	}
	return 0
}

// run executes one command. The filter command streams its input; the
// others need random access and read it into memory first.
func run(cmd string, cfg config, in io.ReadWriteSeeker, out *stream.Stream, logger *slog.Logger) error {
	if cmd == "filter" {
		return runFilter(in, out, cfg, logger)
	}

	var runner func([]byte, *stream.Stream, config, *slog.Logger) error
	switch cmd {
	case "tokens":
		runner = runTokens
	case "parse":
		runner = runParse
	case "objects":
		runner = runObjects
	case "pages":
		runner = runPages
	case "content":
		runner = runContent
	case "rewrite":
		runner = runRewrite
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	logger.Debug("read input", "bytes", len(data))
	return runner(data, out, cfg, logger)
}

func printUsage() {
	fmt.Fprint(os.Stderr, `pdfsyntax - PDF syntax layer tool

Usage:
  pdfsyntax [flags] tokens [file]    Print the tokens of a file
  pdfsyntax [flags] parse [file]     Print each command with its operands
  pdfsyntax [flags] objects [file]   List the indirect objects and trailer
  pdfsyntax [flags] pages [file]     List the pages of a document
  pdfsyntax [flags] content [file]   Print the operations of a content stream
  pdfsyntax [flags] rewrite [file]   Write a file back with minimal whitespace
  pdfsyntax [flags] filter [file]    Run data through a chain of codecs

Filters are named by codec (flatedec, ahexenc, aesv2dec, ...) or by PDF
filter name (FlateDecode, AHx, ...); with -encode a PDF filter name selects
the encoder. Parameters apply to every filter in the chain; a value of
hex:0A1B gives bytes, such as an encryption key.

rewrite does not update cross-reference offsets.

If no file is given, reads from stdin.

Examples:
  pdfsyntax -comments tokens doc.pdf
  pdfsyntax -decode objects doc.pdf
  pdfsyntax -decode pages doc.pdf
  pdfsyntax -filter Fl filter < page.bin | pdfsyntax content
  pdfsyntax -filter AHx -filter Fl filter < data.hex > data.bin
  pdfsyntax -encode -filter flateenc -filter a85enc filter < page.txt
  pdfsyntax -filter v2dec -param Key=hex:0102030405 filter < secret.bin

Flags:
`)
	flag.PrintDefaults()
}
