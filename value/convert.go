package value

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// FromGo converts a Go value to a Value.
//
// Supported inputs: nil, Value, bool, every integer kind, float32/float64
// (finite only), string, json.Number, slices and arrays, maps (non-string keys
// are rendered with fmt), pointers (nil becomes Null) and structs. Structs that
// implement encoding.TextMarshaler or fmt.Stringer become String; other structs
// go through encoding/json.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		return fromUint(uint64(val))
	case uint64:
		return fromUint(val)
	case float32:
		return fromFloat(float64(val))
	case float64:
		return fromFloat(val)
	case json.Number:
		return parseNumber(val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			e, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			e, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	case encoding.TextMarshaler:
		text, err := val.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("marshal text %T: %w", v, err)
		}
		return String(text), nil
	case fmt.Stringer:
		return String(val.String()), nil
	}
	return fromReflect(reflect.ValueOf(v))
}

// MustFromGo is like FromGo but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFromGo(v any) Value {
	out, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return out
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("unsigned integer out of int64 range: %d", u)
	}
	return Int(u), nil
}

func fromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float is not supported: %v", f)
	}
	return Float(f), nil
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return fromFloat(rv.Float())
	case reflect.Slice:
		if rv.IsNil() {
			return Array{}, nil
		}
		fallthrough
	case reflect.Array:
		arr := make(Array, rv.Len())
		for i := range arr {
			e, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case reflect.Map:
		obj := make(Object, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := mapKey(iter.Key())
			if _, dup := obj[k]; dup {
				return nil, fmt.Errorf("map keys collide after formatting: %q", k)
			}
			e, err := FromGo(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	case reflect.Struct:
		data, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", rv.Type(), err)
		}
		return Unmarshal(data)
	default:
		return nil, fmt.Errorf("unsupported type: %s", rv.Type())
	}
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

// ToGo converts v to plain Go values: nil, bool, int64, float64, string,
// []any and map[string]any.
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// Decode stores v into the value pointed to by target using encoding/json
// rules, so any type that can be decoded from JSON is supported.
func Decode(v Value, target any) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s into %T: %w", Kind(v), target, err)
	}
	return nil
}
