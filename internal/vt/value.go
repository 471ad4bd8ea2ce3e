// Package vt holds the dynamically typed values stored in layers and
// exchanged with composition contexts.
package vt

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Type names as they appear in layer attribute specs.
const (
	TypeBool      = "bool"
	TypeInt       = "int"
	TypeFloat     = "float"
	TypeDouble    = "double"
	TypeString    = "string"
	TypeToken     = "token"
	TypeIntArray  = "int[]"
	TypeFloat3    = "float3"
	TypePoint3f   = "point3f[]"
	TypeUnknown   = "unknown"
	TypeEmptyName = ""
)

// Token is an interned-style identifier value (e.g. a subdivision scheme).
type Token string

// Vec3f is a single-precision 3-vector.
type Vec3f [3]float32

// Value is an immutable container for one typed value. The zero Value is empty.
type Value struct {
	v any
}

// New wraps v. Callers should pass one of the supported concrete types;
// anything else is carried but reports TypeUnknown.
func New(v any) Value {
	return Value{v: v}
}

// IsEmpty reports whether the value holds nothing.
func (v Value) IsEmpty() bool { return v.v == nil }

// Interface returns the held value.
func (v Value) Interface() any { return v.v }

// Holding reports whether v holds a T.
func Holding[T any](v Value) bool {
	_, ok := v.v.(T)
	return ok
}

// Get returns the held T, or the zero T and false.
func Get[T any](v Value) (T, bool) {
	t, ok := v.v.(T)
	return t, ok
}

// TypeName returns the layer type name for the held value.
func (v Value) TypeName() string {
	switch v.v.(type) {
	case nil:
		return TypeEmptyName
	case bool:
		return TypeBool
	case int:
		return TypeInt
	case float32:
		return TypeFloat
	case float64:
		return TypeDouble
	case string:
		return TypeString
	case Token:
		return TypeToken
	case []int:
		return TypeIntArray
	case Vec3f:
		return TypeFloat3
	case []Vec3f:
		return TypePoint3f
	default:
		return TypeUnknown
	}
}

// Equal reports deep equality of the held values.
func Equal(a, b Value) bool {
	return reflect.DeepEqual(a.v, b.v)
}

// Clone returns a copy that shares no slice storage with v.
func (v Value) Clone() Value {
	switch t := v.v.(type) {
	case []int:
		return Value{v: append([]int(nil), t...)}
	case []Vec3f:
		return Value{v: append([]Vec3f(nil), t...)}
	default:
		return v
	}
}

// String renders the value as a text-layer literal.
func (v Value) String() string {
	switch t := v.v.(type) {
	case nil:
		return "None"
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float32:
		return FormatFloat(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return strconv.Quote(t)
	case Token:
		return strconv.Quote(string(t))
	case []int:
		parts := make([]string, len(t))
		for i, n := range t {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Vec3f:
		return formatVec3f(t)
	case []Vec3f:
		parts := make([]string, len(t))
		for i, p := range t {
			parts[i] = formatVec3f(p)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatVec3f(p Vec3f) string {
	return "(" + FormatFloat(p[0]) + ", " + FormatFloat(p[1]) + ", " + FormatFloat(p[2]) + ")"
}
