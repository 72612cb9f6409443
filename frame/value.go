package frame

import (
	"fmt"
	"strings"
)

// ValueType represents the type of a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
	TypeList // list of values (from group collection)
)

// Value is a dynamically-typed cell in a column.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Str   string
	Bool  bool
	List  []Value
}

// Null returns a null value.
func Null() Value {
	return Value{Type: TypeNull}
}

// Int64 creates an integer value.
func Int64(v int64) Value {
	return Value{Type: TypeInt, Int: v}
}

// Float64 creates a float value.
func Float64(v float64) Value {
	return Value{Type: TypeFloat, Float: v}
}

// Str creates a string value.
func Str(v string) Value {
	return Value{Type: TypeString, Str: v}
}

// Bool creates a boolean value.
func Boolean(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

// ListOf creates a list value.
func ListOf(vs []Value) Value {
	return Value{Type: TypeList, List: vs}
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// AsFloat attempts to coerce to float64 for arithmetic.
func (v Value) AsFloat() (float64, bool) {
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// AsBool coerces to boolean for logical operations. Null is false.
func (v Value) AsBool() (bool, bool) {
	switch v.Type {
	case TypeBool:
		return v.Bool, true
	case TypeNull:
		return false, true
	default:
		return false, false
	}
}

// AsString returns the string representation.
func (v Value) AsString() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeInt:
		return fmt.Sprintf("%d", v.Int)
	case TypeFloat:
		return fmt.Sprintf("%g", v.Float)
	case TypeString:
		return v.Str
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.AsString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "?"
	}
}

// Equal reports deep value equality. Null equals only null.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		// int/float cross comparison
		vf, vok := v.AsFloat()
		of, ook := o.AsFloat()
		return vok && ook && vf == of
	}
	switch v.Type {
	case TypeNull:
		return true
	case TypeInt:
		return v.Int == o.Int
	case TypeFloat:
		return v.Float == o.Float
	case TypeString:
		return v.Str == o.Str
	case TypeBool:
		return v.Bool == o.Bool
	case TypeList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two values: nulls last, numbers numerically, strings
// lexicographically. Mixed incomparable types compare by string form.
func Compare(a, b Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}

	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		if af < bf {
			return -1
		}
		if af > bf {
			return 1
		}
		return 0
	}

	return strings.Compare(a.AsString(), b.AsString())
}
