// Package pdf provides PDF parsing and manipulation functionality
package pdf

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ObjectType represents the type of a PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBoolean
	ObjInteger
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDictionary
	ObjStream
	ObjReference
)

var objectTypeNames = [...]string{
	ObjNull:       "null",
	ObjBoolean:    "boolean",
	ObjInteger:    "integer",
	ObjReal:       "real",
	ObjString:     "string",
	ObjName:       "name",
	ObjArray:      "array",
	ObjDictionary: "dictionary",
	ObjStream:     "stream",
	ObjReference:  "reference",
}

func (t ObjectType) String() string {
	if int(t) >= 0 && int(t) < len(objectTypeNames) {
		return objectTypeNames[t]
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// Object represents a PDF object. The set of implementations is closed:
// Null, Boolean, Integer, Real, String, Name, Array, Dictionary, Stream
// and Reference.
type Object interface {
	Type() ObjectType
	String() string
}

// Null represents a PDF null object
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Boolean represents a PDF boolean object
type Boolean bool

func (b Boolean) Type() ObjectType { return ObjBoolean }
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Integer represents a PDF integer object
type Integer int64

func (i Integer) Type() ObjectType { return ObjInteger }
func (i Integer) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real number object
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return formatReal(float64(r)) }

// String represents a PDF string object
type String struct {
	Value []byte
	IsHex bool
}

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string {
	var b strings.Builder
	writeString(&b, s)
	return b.String()
}

// Text returns the string value as text. Strings starting with a UTF-16BE
// byte order mark are decoded as UTF-16, everything else as PDFDocEncoding.
func (s String) Text() string {
	if len(s.Value) >= 2 && s.Value[0] == 0xFE && s.Value[1] == 0xFF {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(s.Value); err == nil {
			return string(out)
		}
	}
	if len(s.Value) >= 3 && s.Value[0] == 0xEF && s.Value[1] == 0xBB && s.Value[2] == 0xBF {
		return string(s.Value[3:])
	}
	// PDFDocEncoding agrees with Latin-1 outside a few control positions
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(s.Value)
	if err != nil {
		return string(s.Value)
	}
	return string(out)
}

// Name represents a PDF name object
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string {
	var b strings.Builder
	writeName(&b, n)
	return b.String()
}

// Array represents a PDF array object
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	var b strings.Builder
	writeObject(&b, a)
	return b.String()
}

// Dictionary represents a PDF dictionary object
type Dictionary map[Name]Object

func (d Dictionary) Type() ObjectType { return ObjDictionary }

// String renders the dictionary with its keys in sorted order.
func (d Dictionary) String() string {
	var b strings.Builder
	writeObject(&b, d)
	return b.String()
}

// Keys returns the dictionary keys in sorted order.
func (d Dictionary) Keys() []Name {
	keys := make([]Name, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Get returns the value for a key without resolving references
func (d Dictionary) Get(key string) Object {
	return d[Name(key)]
}

// GetName returns the name value for a key
func (d Dictionary) GetName(key string) (Name, bool) {
	n, ok := d.Get(key).(Name)
	return n, ok
}

// GetInt returns the integer value for a key
func (d Dictionary) GetInt(key string) (int64, bool) {
	switch v := d.Get(key).(type) {
	case Integer:
		return int64(v), true
	case Real:
		return int64(v), true
	}
	return 0, false
}

// GetArray returns the array value for a key
func (d Dictionary) GetArray(key string) (Array, bool) {
	a, ok := d.Get(key).(Array)
	return a, ok
}

// GetDict returns the dictionary value for a key
func (d Dictionary) GetDict(key string) (Dictionary, bool) {
	dict, ok := d.Get(key).(Dictionary)
	return dict, ok
}

// GetRef returns the reference value for a key
func (d Dictionary) GetRef(key string) (Reference, bool) {
	r, ok := d.Get(key).(Reference)
	return r, ok
}

// Stream represents a PDF stream object. Data holds the payload exactly as
// stored in the file, still encoded with the filters named by /Filter.
type Stream struct {
	Dictionary Dictionary
	Data       []byte
}

func (s Stream) Type() ObjectType { return ObjStream }
func (s Stream) String() string {
	return s.Dictionary.String() + " stream...endstream"
}

// Reference represents a PDF indirect object reference
type Reference struct {
	ObjectNumber     int
	GenerationNumber int
}

func (r Reference) Type() ObjectType { return ObjReference }
func (r Reference) String() string {
	return strconv.Itoa(r.ObjectNumber) + " " + strconv.Itoa(r.GenerationNumber) + " R"
}

// IndirectObject is an object stored in a document under its reference
type IndirectObject struct {
	Reference Reference
	Value     Object
}

// Clone returns a deep copy of obj. Stream payloads are shared since the
// engine never modifies them in place.
func Clone(obj Object) Object {
	switch v := obj.(type) {
	case Array:
		out := make(Array, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	case Dictionary:
		out := make(Dictionary, len(v))
		for k, item := range v {
			out[k] = Clone(item)
		}
		return out
	case Stream:
		return Stream{Dictionary: Clone(v.Dictionary).(Dictionary), Data: v.Data}
	case String:
		return String{Value: append([]byte(nil), v.Value...), IsHex: v.IsHex}
	}
	return obj
}

// objectToFloat converts a PDF number to float64
func objectToFloat(obj Object) float64 {
	switch v := obj.(type) {
	case Integer:
		return float64(v)
	case Real:
		return float64(v)
	}
	return 0
}
