package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tsawler/pdfsyntax/contentstream"
	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/reader"
	"github.com/tsawler/pdfsyntax/resolver"
	"github.com/tsawler/pdfsyntax/stream"
)

// runTokens prints one token per line with its byte offset. Stream data
// is skipped and reported by size.
func runTokens(data []byte, out *stream.Stream, cfg config, logger *slog.Logger) error {
	src, err := stream.NewMem(data, cfg.cacheSize, stream.ModeRead)
	if err != nil {
		return err
	}
	tok := core.NewTokenizer(src, cfg.tokenizerOptions())

	count := 0
	for {
		t, err := tok.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("token %d: %w", count, err)
		}
		count++
		fmt.Fprintf(out, "%d\t%s\n", t.Pos, t)

		if t.Type == core.TokenKeyword && string(t.Data) == "stream" {
			if err := skipStreamData(tok, src, data, out); err != nil {
				return err
			}
		}
	}
	logger.Debug("tokenized", "tokens", count)
	return nil
}

// skipStreamData moves the tokenizer past the raw data following a
// "stream" keyword, up to the next "endstream".
func skipStreamData(tok *core.Tokenizer, src *stream.Stream, data []byte, out io.Writer) error {
	if err := tok.EndAtStream(); err != nil {
		return err
	}
	// only comments can come before the data
	for {
		t, err := tok.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d\t%s\n", t.Pos, t)
	}

	start := int(src.Tell())
	end := bytes.Index(data[start:], []byte("endstream"))
	if end < 0 {
		return fmt.Errorf("stream data at %d has no endstream", start)
	}
	n := end
	if n > 0 && data[start+n-1] == '\n' {
		n--
	}
	if n > 0 && data[start+n-1] == '\r' {
		n--
	}
	fmt.Fprintf(out, "%d\t<%d bytes of stream data>\n", start, n)

	if _, err := src.SeekTo(int64(start + end)); err != nil {
		return err
	}
	tok.Reset()
	return nil
}

// runParse prints each command on a line after its operands. The data of
// a stream is reported by position and size.
func runParse(data []byte, out *stream.Stream, cfg config, logger *slog.Logger) error {
	p, err := newParser(data, cfg)
	if err != nil {
		return err
	}
	if table := loadTable(data, cfg, logger); table != nil {
		p.SetResolver(table)
	}

	commands := 0
	for {
		items, err := p.ReadToCommand()
		if errors.Is(err, io.EOF) {
			if rest := p.Stack(); len(rest) > 0 {
				fmt.Fprintf(out, "%s\n", formatObjects(rest))
			}
			break
		}
		if err != nil {
			return fmt.Errorf("command %d: %w", commands+1, err)
		}
		commands++
		fmt.Fprintf(out, "%s\n", formatObjects(items))

		cmd := items[len(items)-1].(core.Keyword)
		logger.Debug("command", "keyword", string(cmd), "operands", len(items)-1)
		if cmd == "stream" && len(items) >= 2 {
			if dict, ok := items[len(items)-2].(core.Dict); ok {
				so, err := p.ReadStream(dict)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "<%d bytes of stream data at %d>\n", so.Length, so.Offset)
			}
		}
		p.DiscardCommand()
	}
	logger.Debug("parsed", "commands", commands)
	return nil
}

// runObjects loads the indirect objects of a file and prints each one,
// followed by the trailer and the document catalog.
func runObjects(data []byte, out *stream.Stream, cfg config, logger *slog.Logger) error {
	p, err := newParser(data, cfg)
	if err != nil {
		return err
	}
	table, err := resolver.Load(p)
	if err != nil {
		return err
	}
	logger.Debug("loaded", "objects", table.Len())

	for _, ref := range table.Refs() {
		obj, _ := table.ResolveReference(ref)
		fmt.Fprintf(out, "%d %d obj %s\n", ref.Number, ref.Generation, obj)

		so, ok := obj.(*core.StreamObject)
		if !ok || !cfg.decode {
			continue
		}
		decoded, err := so.Decode()
		if err != nil {
			fmt.Fprintf(out, "\tdecode: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\t%d bytes decoded\n", len(decoded))
	}

	trailer := table.Trailer()
	if trailer == nil {
		return nil
	}
	fmt.Fprintf(out, "trailer %s\n", trailer)

	if root, ok := trailer["Root"]; ok {
		catalog, err := resolver.NewResolver(table, resolver.WithMaxDepth(cfg.maxDepth)).Resolve(root)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "root %s\n", catalog)
	}
	return nil
}

// runPages walks the page tree of a file and prints the size and rotation
// of each page. With -decode the content of each page is split into
// operations and its images are counted.
func runPages(data []byte, out *stream.Stream, cfg config, logger *slog.Logger) error {
	doc, err := reader.New(data,
		reader.WithCacheSize(cfg.cacheSize),
		reader.WithTokenizerOptions(cfg.tokenizerOptions()),
		reader.WithMaxDepth(cfg.maxDepth))
	if err != nil {
		return err
	}
	all, err := doc.Pages()
	if err != nil {
		return err
	}
	logger.Debug("page tree", "pages", len(all), "objects", doc.Table().Len())
	fmt.Fprintf(out, "version %s\n", doc.Version())

	for i, page := range all {
		w, err := page.Width()
		if err != nil {
			fmt.Fprintf(out, "page %d: %v\n", i+1, err)
			continue
		}
		h, _ := page.Height()
		fmt.Fprintf(out, "page %d: %gx%g rotate %d\n", i+1, w, h, page.Rotate())

		if cfg.decode {
			ops, err := page.Operations()
			if err != nil {
				fmt.Fprintf(out, "\tcontent: %v\n", err)
				continue
			}
			images, err := doc.ExtractPageImages(page)
			if err != nil {
				fmt.Fprintf(out, "\timages: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "\t%d operations, %d images\n", len(ops), len(images))
		}
	}
	return nil
}

// runContent prints the operations of a decoded content stream, one per
// line. Inline image data is reported by size.
func runContent(data []byte, out *stream.Stream, cfg config, logger *slog.Logger) error {
	src, err := stream.NewMem(data, cfg.cacheSize, stream.ModeRead)
	if err != nil {
		return err
	}
	p := contentstream.NewStreamParser(src)

	count := 0
	for {
		op, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("operation %d: %w", count+1, err)
		}
		count++

		line := formatObjects(append(core.Array(op.Operands), core.Keyword(op.Operator)))
		if op.Operator == "BI" {
			line += fmt.Sprintf(" ID <%d bytes> EI", len(op.Data))
		}
		fmt.Fprintln(out, line)
	}
	logger.Debug("content", "operations", count)
	return nil
}

// runRewrite writes the commands of a file back with only the whitespace
// needed to separate tokens, one command per line.
func runRewrite(data []byte, out *stream.Stream, cfg config, logger *slog.Logger) error {
	p, err := newParser(data, cfg)
	if err != nil {
		return err
	}
	if table := loadTable(data, cfg, logger); table != nil {
		p.SetResolver(table)
	}

	w, err := core.NewWriter(out, cfg.writerOptions())
	if err != nil {
		return err
	}

	// writing a stream object also writes its endstream
	afterStream := false
	for {
		items, err := p.ReadToCommand()
		if errors.Is(err, io.EOF) {
			if err := writeObjects(w, p.Stack()); err != nil {
				return err
			}
			break
		}
		if err != nil {
			return err
		}

		cmd := items[len(items)-1].(core.Keyword)
		operands := items[:len(items)-1]
		switch {
		case cmd == "stream" && len(operands) > 0:
			dict, ok := operands[len(operands)-1].(core.Dict)
			if !ok {
				return fmt.Errorf("stream without a dictionary")
			}
			so, err := p.ReadStream(dict)
			if err != nil {
				return err
			}
			if err := writeObjects(w, operands[:len(operands)-1]); err != nil {
				return err
			}
			if err := w.WriteObject(so); err != nil {
				return err
			}
			afterStream = true

		case cmd == "endstream" && afterStream:
			if err := writeObjects(w, operands); err != nil {
				return err
			}
			afterStream = false

		default:
			if err := writeObjects(w, items); err != nil {
				return err
			}
		}
		if err := w.EndLine(); err != nil {
			return err
		}
		p.DiscardCommand()
	}

	return w.Flush(false)
}

func newParser(data []byte, cfg config) (*core.Parser, error) {
	src, err := stream.NewMem(data, cfg.cacheSize, stream.ModeRead)
	if err != nil {
		return nil, err
	}
	return core.NewParser(src, cfg.tokenizerOptions()), nil
}

// loadTable reads the object definitions of data in a separate pass so
// that indirect stream lengths can be resolved. It returns nil if the file
// cannot be loaded.
func loadTable(data []byte, cfg config, logger *slog.Logger) *resolver.Table {
	p, err := newParser(data, cfg)
	if err != nil {
		return nil
	}
	table, err := resolver.Load(p)
	if err != nil {
		logger.Debug("indirect stream lengths unavailable", "err", err)
		return nil
	}
	return table
}

func writeObjects(w *core.Writer, objs core.Array) error {
	for _, obj := range objs {
		if err := w.WriteObject(obj); err != nil {
			return err
		}
	}
	return nil
}

func formatObjects(objs core.Array) string {
	parts := make([]string, len(objs))
	for i, obj := range objs {
		parts[i] = obj.String()
	}
	return strings.Join(parts, " ")
}
