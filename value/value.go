package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface representing every storable value.
// Only Null, Bool, Int, Float, String, Array and Object implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents a JSON null (a missing or None-like argument).
type Null struct{}

func (Null) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Int represents an integer value. Always int64.
type Int int64

func (Int) value() {}

// Float represents a finite floating point value.
type Float float64

func (Float) value() {}

// String represents a string value.
type String string

func (String) value() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) value() {}

// Object represents a mapping from string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// Kind names the variant held by v. Used in error messages and CLI output.
func Kind(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs for astral runes.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// Clone returns a shallow copy of obj. Nested values are immutable by
// convention and are shared.
func (obj Object) Clone() Object {
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out
}

// compareKeys compares strings by UTF-16 code units as required by RFC 8785.
func compareKeys(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON implements json.Marshaler for Float.
// The output always has a decimal point or exponent.
func (f Float) MarshalJSON() ([]byte, error) {
	return formatFloat(float64(f))
}

// MarshalJSON implements json.Marshaler for Array. A nil Array encodes as [].
func (arr Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := Marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler for Object with sorted keys.
// NOTE: this is not canonical (HTML escaping, no NFC). Use MarshalCanonical for hashing.
func (obj Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := Marshal(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Marshal encodes v as JSON. A nil Value encodes as null.
func Marshal(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case Int:
		return json.Marshal(int64(val))
	case Float:
		return val.MarshalJSON()
	case String:
		return json.Marshal(string(val))
	case Array:
		return val.MarshalJSON()
	case Object:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// Format renders v as compact canonical JSON for logs and error messages.
func Format(v Value) string {
	b, err := MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%s: %v>", Kind(v), err)
	}
	return string(b)
}
