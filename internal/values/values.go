// Package values holds the dynamic-value helpers shared by the schema parser,
// the destination validator and the codec. This package is internal and not
// part of the public API.
package values

import (
	"math"
	"math/big"
	"reflect"
	"time"
)

// IsNumber reports whether v is a Go numeric value or a json.Number. NaN is
// not a number for our purposes.
func IsNumber(v any) bool {
	switch t := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return !math.IsNaN(float64(t))
	case float64:
		return !math.IsNaN(t)
	case numberLike:
		_, err := t.Float64()
		return err == nil
	}
	return false
}

// numberLike covers json.Number and drop-in decoders' number types.
type numberLike interface {
	Float64() (float64, error)
	Int64() (int64, error)
	String() string
}

// Float64 converts a numeric value to float64.
func Float64(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case numberLike:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// Int64 converts an integral value to int64. Floats are accepted only when
// they carry no fractional part.
func Int64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, false
		}
		return int64(t), true
	case float32:
		f := float64(t)
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return int64(f), true
	case *big.Int:
		if t == nil || !t.IsInt64() {
			return 0, false
		}
		return t.Int64(), true
	case numberLike:
		i, err := t.Int64()
		return i, err == nil
	}
	return 0, false
}

// Time returns the time carried by a time.Time or non-nil *time.Time.
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	}
	return time.Time{}, false
}

// Slice returns v as []any. Typed slices are converted via reflection.
func Slice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a scalar on the wire, not a list.
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Map returns v as map[string]any. Maps with string keys of other value
// types are converted via reflection.
func Map(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// Equal compares literal-like values, treating numerics of different Go
// types as equal when they hold the same number.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if IsNumber(a) && IsNumber(b) {
		fa, _ := Float64(a)
		fb, _ := Float64(b)
		return fa == fb
	}
	if ba, ok := a.(*big.Int); ok {
		bb, ok := b.(*big.Int)
		return ok && ba != nil && bb != nil && ba.Cmp(bb) == 0
	}
	if ta, ok := Time(a); ok {
		tb, ok := Time(b)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

// TypeName names the dynamic type of v in the vocabulary used by issue
// messages.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case *big.Int:
		return "bigint"
	case time.Time, *time.Time:
		return "date"
	case []byte:
		return "bytes"
	}
	if IsNumber(v) {
		return "number"
	}
	if _, ok := v.(map[string]any); ok {
		return "object"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map:
		return "object"
	case reflect.Func:
		return "function"
	}
	return rv.Type().String()
}
