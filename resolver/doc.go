// Package resolver collects the indirect objects of a document and
// resolves references to them.
//
// # Loading
//
// [Load] drives a core.Parser over a whole file and records every
// "n g obj ... endobj" definition in a [Table], along with the trailer
// dictionary. Stream objects keep a reference to the parser's source, so
// their data can be read or decoded later:
//
//	p := core.NewParser(stm, core.DefaultTokenizerOptions())
//	table, err := resolver.Load(p)
//
// # Resolution
//
// An [ObjectResolver] follows references through a Table or any other
// [ObjectReader]:
//
//	r := resolver.NewResolver(table)
//	root, err := r.ResolveDeep(table.Trailer().Get("Root"))
//
// Circular references are reported as malformed-file errors, and the
// nesting depth is limited:
//
//	r := resolver.NewResolver(table, resolver.WithMaxDepth(50))
package resolver
