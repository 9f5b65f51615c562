package resolver

import (
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/pdferr"
)

// ErrNotFound is returned by GetObject for an object number that has no
// definition.
var ErrNotFound = errors.New("object not found")

// Table holds the indirect objects of a document.
type Table struct {
	objects map[core.IndirectRef]core.Object
	refs    []core.IndirectRef // first definition order
	trailer core.Dict
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{objects: make(map[core.IndirectRef]core.Object)}
}

// Add defines or replaces an object.
func (t *Table) Add(ref core.IndirectRef, obj core.Object) {
	if _, ok := t.objects[ref]; !ok {
		t.refs = append(t.refs, ref)
	}
	t.objects[ref] = obj
}

// Len returns the number of objects.
func (t *Table) Len() int { return len(t.refs) }

// Refs returns the references of all objects in the order they were first
// defined.
func (t *Table) Refs() []core.IndirectRef {
	return append([]core.IndirectRef(nil), t.refs...)
}

// Trailer returns the last trailer dictionary, or cross-reference stream
// dictionary, seen by Load. It is nil if there was none.
func (t *Table) Trailer() core.Dict { return t.trailer }

// GetObject returns the object with the given number and the highest
// generation.
func (t *Table) GetObject(objNum int) (core.Object, error) {
	found := false
	var best core.IndirectRef
	for _, ref := range t.refs {
		if ref.Number == objNum && (!found || ref.Generation > best.Generation) {
			best, found = ref, true
		}
	}
	if !found {
		return nil, fmt.Errorf("object %d: %w", objNum, ErrNotFound)
	}
	return t.objects[best], nil
}

// ResolveReference returns the object ref points to. A reference to an
// undefined object resolves to null.
func (t *Table) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	if obj, ok := t.objects[ref]; ok {
		return obj, nil
	}
	return core.Null{}, nil
}

// Load reads the object definitions ("n g obj ... endobj") and trailer
// dictionaries of a document. Other commands, such as cross-reference
// sections, are skipped. A later definition of the same object replaces
// the earlier one, as in an incrementally updated file.
//
// The table is installed as the parser's resolver, so a stream /Length
// may refer to an object defined before the stream.
func Load(p *core.Parser) (*Table, error) {
	t := NewTable()
	p.SetResolver(t)

	var (
		cur   core.IndirectRef
		inObj bool
		value core.Object
	)
	for {
		items, err := p.ReadToCommand()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return t, err
		}

		cmd := items[len(items)-1].(core.Keyword)
		operands := withoutComments(items[:len(items)-1])

		switch cmd {
		case "obj":
			ref, ok := objectHeader(operands)
			if !ok {
				return t, pdferr.New(pdferr.ErrMalformed, "load", "obj without object and generation numbers")
			}
			if inObj {
				return t, pdferr.New(pdferr.ErrMalformed, "load", "object "+ref.String()+" starts inside "+cur.String())
			}
			cur, inObj, value = ref, true, nil

		case "stream":
			if !inObj || value != nil || len(operands) != 1 {
				return t, pdferr.New(pdferr.ErrMalformed, "load", "stream outside an object definition")
			}
			dict, ok := operands[0].(core.Dict)
			if !ok {
				return t, pdferr.New(pdferr.ErrMalformed, "load", "stream without a dictionary in "+cur.String())
			}
			so, err := p.ReadStream(dict)
			if err != nil {
				return t, fmt.Errorf("object %s: %w", cur, err)
			}
			value = so
			// a cross-reference stream carries the trailer entries
			if typ, _ := dict.GetName("Type"); typ == "XRef" {
				t.trailer = dict
			}

		case "endobj":
			if !inObj {
				return t, pdferr.New(pdferr.ErrMalformed, "load", "endobj without obj")
			}
			if value == nil {
				switch len(operands) {
				case 0:
					value = core.Null{}
				case 1:
					value = operands[0]
				default:
					return t, pdferr.New(pdferr.ErrMalformed, "load",
						fmt.Sprintf("object %s holds %d values", cur, len(operands)))
				}
			}
			t.Add(cur, value)
			inObj = false

		case "startxref":
			if len(operands) > 0 {
				if dict, ok := operands[0].(core.Dict); ok {
					t.trailer = dict
				}
			}
		}

		p.DiscardCommand()
	}

	if inObj {
		return t, pdferr.New(pdferr.ErrMalformed, "load", "object "+cur.String()+" has no endobj")
	}
	return t, nil
}

// objectHeader takes the object and generation numbers from the last two
// operands. Anything before them, such as the offset after startxref, is
// ignored.
func objectHeader(operands core.Array) (core.IndirectRef, bool) {
	n := len(operands)
	if n < 2 {
		return core.IndirectRef{}, false
	}
	num, ok1 := operands[n-2].(core.Int)
	gen, ok2 := operands[n-1].(core.Int)
	if !ok1 || !ok2 || num < 0 || gen < 0 {
		return core.IndirectRef{}, false
	}
	return core.IndirectRef{Number: int(num), Generation: int(gen)}, true
}

func withoutComments(objs core.Array) core.Array {
	out := objs[:0:0]
	for _, obj := range objs {
		if _, ok := obj.(core.Comment); !ok {
			out = append(out, obj)
		}
	}
	return out
}
