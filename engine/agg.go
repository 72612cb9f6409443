package engine

import (
	"fmt"
	"math"

	"github.com/zundertj/lazyframe/frame"
)

// reduce collapses a sequence of values to a single value. Nulls are
// skipped; reducing an empty or all-null sequence yields null, except
// count which yields 0.
func reduce(op string, values []frame.Value) (frame.Value, error) {
	switch op {
	case "sum":
		return reduceSum(values)
	case "mean":
		return reduceMean(values)
	case "min":
		return reduceExtremum(values, true)
	case "max":
		return reduceExtremum(values, false)
	case "first":
		return reduceFirst(values)
	case "last":
		return reduceLast(values)
	case "count":
		return reduceCount(values), nil
	case "list":
		out := make([]frame.Value, len(values))
		copy(out, values)
		return frame.ListOf(out), nil
	default:
		return frame.Null(), fmt.Errorf("%w: unknown aggregation %q", ErrInvalidExpr, op)
	}
}

func reduceSum(values []frame.Value) (frame.Value, error) {
	var sum float64
	var intSum int64
	allInt := true
	any := false
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return frame.Null(), fmt.Errorf("%w: sum over non-numeric value %v", ErrType, v.AsString())
		}
		sum += f
		any = true
		if v.Type == frame.TypeInt {
			intSum += v.Int
		} else {
			allInt = false
		}
	}
	if !any {
		return frame.Null(), nil
	}
	if allInt {
		return frame.Int64(intSum), nil
	}
	return frame.Float64(sum), nil
}

func reduceMean(values []frame.Value) (frame.Value, error) {
	var sum float64
	count := 0
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return frame.Null(), fmt.Errorf("%w: mean over non-numeric value %v", ErrType, v.AsString())
		}
		sum += f
		count++
	}
	if count == 0 {
		return frame.Null(), nil
	}
	return frame.Float64(sum / float64(count)), nil
}

func reduceExtremum(values []frame.Value, min bool) (frame.Value, error) {
	best := math.Inf(1)
	if !min {
		best = math.Inf(-1)
	}
	var bestVal frame.Value
	any := false
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			op := "min"
			if !min {
				op = "max"
			}
			return frame.Null(), fmt.Errorf("%w: %s over non-numeric value %v", ErrType, op, v.AsString())
		}
		if !any || (min && f < best) || (!min && f > best) {
			best = f
			bestVal = v
		}
		any = true
	}
	if !any {
		return frame.Null(), nil
	}
	return bestVal, nil
}

func reduceFirst(values []frame.Value) (frame.Value, error) {
	if len(values) == 0 {
		return frame.Null(), nil
	}
	return values[0], nil
}

func reduceLast(values []frame.Value) (frame.Value, error) {
	if len(values) == 0 {
		return frame.Null(), nil
	}
	return values[len(values)-1], nil
}

func reduceCount(values []frame.Value) frame.Value {
	n := int64(0)
	for _, v := range values {
		if !v.IsNull() {
			n++
		}
	}
	return frame.Int64(n)
}
