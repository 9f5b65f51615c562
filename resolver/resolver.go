package resolver

import (
	"fmt"

	"github.com/tsawler/pdfsyntax/core"
	"github.com/tsawler/pdfsyntax/pdferr"
)

// DefaultMaxDepth limits how deeply nested references are followed.
const DefaultMaxDepth = 100

// ObjectReader supplies the objects references point to. *Table
// implements it.
type ObjectReader interface {
	GetObject(objNum int) (core.Object, error)
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// ObjectResolver follows indirect references, optionally through the whole
// tree of arrays, dictionaries and stream dictionaries below an object.
type ObjectResolver struct {
	reader   ObjectReader
	maxDepth int
	active   map[core.IndirectRef]bool // references on the current path
}

// Option configures the resolver
type Option func(*ObjectResolver)

// WithMaxDepth sets the maximum nesting depth (default: DefaultMaxDepth)
func WithMaxDepth(depth int) Option {
	return func(r *ObjectResolver) {
		r.maxDepth = depth
	}
}

// NewResolver creates a resolver reading objects from reader
func NewResolver(reader ObjectReader, opts ...Option) *ObjectResolver {
	r := &ObjectResolver{
		reader:   reader,
		maxDepth: DefaultMaxDepth,
		active:   make(map[core.IndirectRef]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve follows obj while it is a reference, including a reference to a
// reference. Containers are returned as they are.
func (r *ObjectResolver) Resolve(obj core.Object) (core.Object, error) {
	defer r.Reset()
	return r.resolve(obj, false, 0)
}

// ResolveDeep returns a copy of obj with every reference below it
// replaced by its target. A reference that leads back to an object on the
// current path is a malformed-file error.
func (r *ObjectResolver) ResolveDeep(obj core.Object) (core.Object, error) {
	defer r.Reset()
	return r.resolve(obj, true, 0)
}

// ResolveReference follows a reference to a direct object. It makes
// ObjectResolver usable as a core.ReferenceResolver.
func (r *ObjectResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.Resolve(ref)
}

// ResolveDict resolves every value of dict
func (r *ObjectResolver) ResolveDict(dict core.Dict) (core.Dict, error) {
	resolved, err := r.ResolveDeep(dict)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Dict), nil
}

// ResolveArray resolves every element of arr
func (r *ObjectResolver) ResolveArray(arr core.Array) (core.Array, error) {
	resolved, err := r.ResolveDeep(arr)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Array), nil
}

// GetObject loads an object by number without resolving it
func (r *ObjectResolver) GetObject(objNum int) (core.Object, error) {
	return r.reader.GetObject(objNum)
}

// GetObjectResolvedDeep loads an object by number and resolves everything
// below it
func (r *ObjectResolver) GetObjectResolvedDeep(objNum int) (core.Object, error) {
	obj, err := r.reader.GetObject(objNum)
	if err != nil {
		return nil, err
	}
	return r.ResolveDeep(obj)
}

// Reset forgets the references on the current path. Resolve and
// ResolveDeep call it when they return.
func (r *ObjectResolver) Reset() {
	clear(r.active)
}

func (r *ObjectResolver) resolve(obj core.Object, deep bool, depth int) (core.Object, error) {
	if depth >= r.maxDepth {
		return nil, pdferr.New(pdferr.ErrImplLimit, "resolve",
			fmt.Sprintf("references nested deeper than %d", r.maxDepth))
	}

	switch v := obj.(type) {
	case core.IndirectRef:
		if r.active[v] {
			return nil, pdferr.New(pdferr.ErrMalformed, "resolve", "circular reference to "+v.String())
		}
		r.active[v] = true
		defer delete(r.active, v)

		target, err := r.reader.ResolveReference(v)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", v, err)
		}
		return r.resolve(target, deep, depth+1)

	case core.Dict:
		if !deep {
			return v, nil
		}
		out := make(core.Dict, len(v))
		for key, value := range v {
			resolved, err := r.resolve(value, deep, depth+1)
			if err != nil {
				return nil, fmt.Errorf("dict key /%s: %w", key, err)
			}
			out[key] = resolved
		}
		return out, nil

	case core.Array:
		if !deep {
			return v, nil
		}
		out := make(core.Array, len(v))
		for i, elem := range v {
			resolved, err := r.resolve(elem, deep, depth+1)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil

	case *core.StreamObject:
		if !deep {
			return v, nil
		}
		dict, err := r.resolve(v.Dict, deep, depth+1)
		if err != nil {
			return nil, fmt.Errorf("stream dictionary: %w", err)
		}
		// the data stays where it is; only the dictionary is copied
		return &core.StreamObject{
			Dict:   dict.(core.Dict),
			Source: v.Source,
			Offset: v.Offset,
			Length: v.Length,
		}, nil
	}

	return obj, nil
}
