package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Object represents a parsed object
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType represents the type of an object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjKeyword
	ObjComment
	ObjArray
	ObjDict
	ObjStream
	ObjIndirect
)

// String returns the string representation of the object type
func (t ObjectType) String() string {
	switch t {
	case ObjNull:
		return "Null"
	case ObjBool:
		return "Bool"
	case ObjInt:
		return "Int"
	case ObjReal:
		return "Real"
	case ObjString:
		return "String"
	case ObjName:
		return "Name"
	case ObjKeyword:
		return "Keyword"
	case ObjComment:
		return "Comment"
	case ObjArray:
		return "Array"
	case ObjDict:
		return "Dict"
	case ObjStream:
		return "Stream"
	case ObjIndirect:
		return "IndirectRef"
	default:
		return "Unknown"
	}
}

// Null represents the null object
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Bool represents a boolean
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int represents a 32-bit integer
type Int int32

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real represents a real number. It is never NaN or infinite.
type Real float32

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 32) }

// String represents a byte string. It may contain NUL bytes.
type String string

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string   { return "(" + string(s) + ")" }

// Name represents a name, without the leading slash
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }

// Keyword represents a bare word that is not a number, boolean or null.
// At the top level of a Parser it marks the end of a command.
type Keyword string

func (k Keyword) Type() ObjectType { return ObjKeyword }
func (k Keyword) String() string   { return string(k) }

// Comment represents a comment, including its leading '%' unless it is
// the continuation of a split comment
type Comment struct {
	Text      string
	Continued bool
}

func (c Comment) Type() ObjectType { return ObjComment }
func (c Comment) String() string   { return c.Text }

// Array represents an ordered sequence of objects
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	var parts []string
	for _, obj := range a {
		parts = append(parts, obj.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the length of the array
func (a Array) Len() int {
	return len(a)
}

// Get retrieves an element at the given index
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// GetInt retrieves an integer at the given index
func (a Array) GetInt(index int) (Int, bool) {
	i, ok := a.Get(index).(Int)
	return i, ok
}

// GetReal retrieves a real number at the given index
func (a Array) GetReal(index int) (Real, bool) {
	r, ok := a.Get(index).(Real)
	return r, ok
}

// GetName retrieves a name at the given index
func (a Array) GetName(index int) (Name, bool) {
	n, ok := a.Get(index).(Name)
	return n, ok
}

// GetDict retrieves a dictionary at the given index
func (a Array) GetDict(index int) (Dict, bool) {
	d, ok := a.Get(index).(Dict)
	return d, ok
}

// Append adds objects to the end of the array
func (a *Array) Append(objs ...Object) {
	*a = append(*a, objs...)
}

// Set replaces the element at index and returns the previous value.
// It returns nil if the index is out of range.
func (a Array) Set(index int, obj Object) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	old := a[index]
	a[index] = obj
	return old
}

// Take removes the element at index and returns it. The caller becomes
// the sole holder of the value; the remaining elements shift down.
func (a *Array) Take(index int) (Object, bool) {
	s := *a
	if index < 0 || index >= len(s) {
		return nil, false
	}
	obj := s[index]
	copy(s[index:], s[index+1:])
	s[len(s)-1] = nil
	*a = s[:len(s)-1]
	return obj, true
}

// Remove deletes the element at index
func (a *Array) Remove(index int) bool {
	_, ok := a.Take(index)
	return ok
}

// Dict represents a dictionary. Keys are names without the leading slash.
type Dict map[string]Object

func (d Dict) Type() ObjectType { return ObjDict }
func (d Dict) String() string {
	var parts []string
	for _, key := range d.Keys() {
		parts = append(parts, fmt.Sprintf("/%s %s", key, d[key].String()))
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get retrieves a value from the dictionary
func (d Dict) Get(key string) Object {
	return d[key]
}

// GetName retrieves a name value
func (d Dict) GetName(key string) (Name, bool) {
	name, ok := d[key].(Name)
	return name, ok
}

// GetInt retrieves an integer value
func (d Dict) GetInt(key string) (Int, bool) {
	i, ok := d[key].(Int)
	return i, ok
}

// GetDict retrieves a dictionary value
func (d Dict) GetDict(key string) (Dict, bool) {
	dict, ok := d[key].(Dict)
	return dict, ok
}

// GetArray retrieves an array value
func (d Dict) GetArray(key string) (Array, bool) {
	arr, ok := d[key].(Array)
	return arr, ok
}

// GetReal retrieves a real number value
func (d Dict) GetReal(key string) (Real, bool) {
	r, ok := d[key].(Real)
	return r, ok
}

// GetString retrieves a string value
func (d Dict) GetString(key string) (String, bool) {
	s, ok := d[key].(String)
	return s, ok
}

// GetBool retrieves a boolean value
func (d Dict) GetBool(key string) (Bool, bool) {
	b, ok := d[key].(Bool)
	return b, ok
}

// GetStream retrieves a stream value
func (d Dict) GetStream(key string) (*StreamObject, bool) {
	s, ok := d[key].(*StreamObject)
	return s, ok
}

// GetIndirectRef retrieves an indirect reference
func (d Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	ref, ok := d[key].(IndirectRef)
	return ref, ok
}

// Has checks if a key exists in the dictionary
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Set sets a value in the dictionary
func (d Dict) Set(key string, value Object) {
	d[key] = value
}

// Delete removes a key from the dictionary
func (d Dict) Delete(key string) {
	delete(d, key)
}

// Take removes a key and returns its value
func (d Dict) Take(key string) (Object, bool) {
	obj, ok := d[key]
	if ok {
		delete(d, key)
	}
	return obj, ok
}

// Keys returns all keys in the dictionary in sorted order
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IndirectRef represents an indirect object reference
type IndirectRef struct {
	Number     int
	Generation int
}

func (r IndirectRef) Type() ObjectType { return ObjIndirect }
func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// Equal reports whether two objects are structurally equal. Stream objects
// are equal only if they are the same object.
func Equal(a, b Object) bool {
	switch x := a.(type) {
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Dict:
		y, ok := b.(Dict)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	case *StreamObject:
		y, ok := b.(*StreamObject)
		return ok && x == y
	case nil:
		return b == nil
	}
	return a == b
}

// objectFromToken converts a value token to an object. Structural markers
// have no object form.
func objectFromToken(tok Token) (Object, bool) {
	switch tok.Type {
	case TokenInteger:
		return Int(tok.Int), true
	case TokenReal:
		return Real(tok.Real), true
	case TokenString:
		return String(tok.Data), true
	case TokenName:
		return Name(tok.Data), true
	case TokenKeyword:
		return Keyword(tok.Data), true
	case TokenComment:
		return Comment{Text: string(tok.Data), Continued: tok.Continued}, true
	}
	return nil, false
}

