package shape

import (
	"strconv"

	"github.com/roach88/pers/value"
)

// Shape is a sealed tagged union classifying a raw result:
// Mapping, Sequence or Scalar.
type Shape interface {
	shape()
}

// Mapping is a result whose entries become one field per key.
type Mapping struct {
	Entries value.Object
}

func (Mapping) shape() {}

// Sequence is a result whose elements become one field per index.
type Sequence struct {
	Elements value.Array
}

func (Sequence) shape() {}

// Scalar is a result stored whole under a single field.
type Scalar struct {
	Value value.Value
}

func (Scalar) shape() {}

// Classify tags a result value with its Shape.
func Classify(v value.Value) Shape {
	switch val := v.(type) {
	case value.Object:
		return Mapping{Entries: val}
	case value.Array:
		return Sequence{Elements: val}
	case nil:
		return Scalar{Value: value.Null{}}
	default:
		return Scalar{Value: val}
	}
}

// fields expands a Shape into named result fields.
func fields(s Shape, prefix, scalarKey string) value.Object {
	switch sh := s.(type) {
	case Mapping:
		out := make(value.Object, len(sh.Entries))
		for k, v := range sh.Entries {
			out[prefix+k] = v
		}
		return out
	case Sequence:
		out := make(value.Object, len(sh.Elements))
		for i, v := range sh.Elements {
			out[prefix+strconv.Itoa(i)] = v
		}
		return out
	case Scalar:
		return value.Object{scalarKey: sh.Value}
	default:
		// Sealed interface: an unknown variant is a programming error.
		panic("shape: unknown variant")
	}
}
