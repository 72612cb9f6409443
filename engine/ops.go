package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/zundertj/lazyframe/frame"
)

// applyBinaryValue combines two values, mapping over list values so a
// scalar can combine with every element of a list and two equal-length
// lists combine pairwise.
func applyBinaryValue(op string, left, right frame.Value) (frame.Value, error) {
	lList := left.Type == frame.TypeList
	rList := right.Type == frame.TypeList
	switch {
	case lList && rList:
		if len(left.List) != len(right.List) {
			return frame.Null(), fmt.Errorf("%w: list lengths %d and %d",
				ErrShapeMismatch, len(left.List), len(right.List))
		}
		out := make([]frame.Value, len(left.List))
		for i := range left.List {
			v, err := applyBinaryValue(op, left.List[i], right.List[i])
			if err != nil {
				return frame.Null(), err
			}
			out[i] = v
		}
		return frame.ListOf(out), nil
	case lList:
		out := make([]frame.Value, len(left.List))
		for i, e := range left.List {
			v, err := applyBinaryValue(op, e, right)
			if err != nil {
				return frame.Null(), err
			}
			out[i] = v
		}
		return frame.ListOf(out), nil
	case rList:
		out := make([]frame.Value, len(right.List))
		for i, e := range right.List {
			v, err := applyBinaryValue(op, left, e)
			if err != nil {
				return frame.Null(), err
			}
			out[i] = v
		}
		return frame.ListOf(out), nil
	default:
		return applyBinary(op, left, right)
	}
}

// applyBinary combines two scalar values with the given operator.
// Arithmetic propagates nulls; comparisons treat null as equal only to
// null; logical operators require booleans.
func applyBinary(op string, left, right frame.Value) (frame.Value, error) {
	switch op {
	case "+", "-", "*", "/", "%", "**":
		if left.IsNull() || right.IsNull() {
			return frame.Null(), nil
		}
		return Arith(op, left, right)
	case "==", "!=", "<", ">", "<=", ">=":
		return applyComparison(op, left, right)
	case "and":
		return applyLogical(op, left, right)
	case "or":
		return applyLogical(op, left, right)
	default:
		return frame.Null(), fmt.Errorf("%w: unknown operator %q", ErrInvalidExpr, op)
	}
}

// Arith applies an arithmetic operator to two non-null values. It is
// exported for use as a fold combiner. Integer inputs keep integer
// results where exact; division by zero yields null.
func Arith(op string, left, right frame.Value) (frame.Value, error) {
	// String concatenation with +
	if op == "+" && left.Type == frame.TypeString && right.Type == frame.TypeString {
		return frame.Str(left.Str + right.Str), nil
	}

	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		return frame.Null(), fmt.Errorf("%w: cannot perform %s on %v and %v",
			ErrType, op, left.AsString(), right.AsString())
	}

	bothInt := left.Type == frame.TypeInt && right.Type == frame.TypeInt

	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return frame.Null(), nil // division by zero returns null
		}
		if bothInt && left.Int%right.Int == 0 {
			return frame.Int64(left.Int / right.Int), nil
		}
		return frame.Float64(lf / rf), nil
	case "%":
		if rf == 0 {
			return frame.Null(), nil
		}
		if bothInt {
			return frame.Int64(left.Int % right.Int), nil
		}
		result = math.Mod(lf, rf)
	case "**":
		result = math.Pow(lf, rf)
	}

	if bothInt && result == math.Trunc(result) && !math.IsInf(result, 0) {
		return frame.Int64(int64(result)), nil
	}
	return frame.Float64(result), nil
}

func applyComparison(op string, left, right frame.Value) (frame.Value, error) {
	// Null comparisons: null == null is true, null == anything is false
	if left.IsNull() || right.IsNull() {
		bothNull := left.IsNull() && right.IsNull()
		switch op {
		case "==":
			return frame.Boolean(bothNull), nil
		case "!=":
			return frame.Boolean(!bothNull), nil
		default:
			return frame.Null(), nil
		}
	}

	if left.Type == frame.TypeString && right.Type == frame.TypeString {
		return frame.Boolean(cmpResult(op, strings.Compare(left.Str, right.Str))), nil
	}

	if left.Type == frame.TypeBool && right.Type == frame.TypeBool {
		switch op {
		case "==":
			return frame.Boolean(left.Bool == right.Bool), nil
		case "!=":
			return frame.Boolean(left.Bool != right.Bool), nil
		default:
			return frame.Null(), fmt.Errorf("%w: cannot use %s on booleans", ErrType, op)
		}
	}

	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if lok && rok {
		var cmp int
		if lf < rf {
			cmp = -1
		} else if lf > rf {
			cmp = 1
		}
		return frame.Boolean(cmpResult(op, cmp)), nil
	}

	return frame.Null(), fmt.Errorf("%w: cannot compare %v with %v",
		ErrType, left.AsString(), right.AsString())
}

func cmpResult(op string, cmp int) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func applyLogical(op string, left, right frame.Value) (frame.Value, error) {
	lb, lok := left.AsBool()
	rb, rok := right.AsBool()
	if !lok || !rok {
		return frame.Null(), fmt.Errorf("%w: %q requires boolean operands", ErrType, op)
	}
	if op == "and" {
		return frame.Boolean(lb && rb), nil
	}
	return frame.Boolean(lb || rb), nil
}

func applyUnary(op string, v frame.Value) (frame.Value, error) {
	switch op {
	case "not":
		b, ok := v.AsBool()
		if !ok {
			return frame.Null(), fmt.Errorf("%w: 'not' requires boolean operand", ErrType)
		}
		return frame.Boolean(!b), nil
	case "-":
		if v.IsNull() {
			return frame.Null(), nil
		}
		switch v.Type {
		case frame.TypeInt:
			return frame.Int64(-v.Int), nil
		case frame.TypeFloat:
			return frame.Float64(-v.Float), nil
		default:
			return frame.Null(), fmt.Errorf("%w: cannot negate %v", ErrType, v.AsString())
		}
	default:
		return frame.Null(), fmt.Errorf("%w: unknown unary operator %q", ErrInvalidExpr, op)
	}
}
