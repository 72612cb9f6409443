package engine

import (
	"fmt"

	"github.com/zundertj/lazyframe/frame"
)

// Shape classifies an intermediate evaluation result.
type Shape int

const (
	// ShapeFull holds one value per row of the current row domain.
	ShapeFull Shape = iota
	// ShapeScalar holds a single value, broadcast on demand.
	ShapeScalar
	// ShapePerGroup holds one value per group of a partition.
	ShapePerGroup
	// ShapeNested holds one list per group of a partition.
	ShapeNested
)

func (s Shape) String() string {
	switch s {
	case ShapeFull:
		return "full"
	case ShapeScalar:
		return "scalar"
	case ShapePerGroup:
		return "per-group"
	case ShapeNested:
		return "nested"
	}
	return "?"
}

// result is the outcome of evaluating one node. part records the
// originating partition for per-group and nested results.
type result struct {
	shape  Shape
	values []frame.Value
	part   *Partition
}

func scalarResult(v frame.Value) result {
	return result{shape: ShapeScalar, values: []frame.Value{v}}
}

func fullResult(vs []frame.Value) result {
	return result{shape: ShapeFull, values: vs}
}

// reconcile reshapes two results so they can be combined elementwise:
//
//  1. a scalar replicates to the other operand's length;
//  2. two full results must have equal lengths;
//  3. two per-group results must come from the same partition;
//  4. a nested result combines only with a scalar or a nested result
//     with the same group count.
//
// Null propagation is orthogonal and applied by the caller elementwise
// after reconciliation.
func reconcile(a, b result) (result, result, error) {
	if a.shape == ShapeScalar && b.shape != ShapeScalar {
		return broadcast(a, b), b, nil
	}
	if b.shape == ShapeScalar && a.shape != ShapeScalar {
		return a, broadcast(b, a), nil
	}

	switch {
	case a.shape == ShapeScalar && b.shape == ShapeScalar:
		return a, b, nil
	case a.shape == ShapeFull && b.shape == ShapeFull:
		if len(a.values) != len(b.values) {
			return a, b, fmt.Errorf("%w: lengths %d and %d", ErrShapeMismatch, len(a.values), len(b.values))
		}
		return a, b, nil
	case a.shape == ShapePerGroup && b.shape == ShapePerGroup:
		if a.part != b.part {
			return a, b, fmt.Errorf("%w: per-group results from different partitions", ErrShapeMismatch)
		}
		return a, b, nil
	case a.shape == ShapeNested && b.shape == ShapeNested:
		if len(a.values) != len(b.values) {
			return a, b, fmt.Errorf("%w: group counts %d and %d", ErrShapeMismatch, len(a.values), len(b.values))
		}
		return a, b, nil
	default:
		return a, b, fmt.Errorf("%w: cannot combine %s with %s", ErrShapeMismatch, a.shape, b.shape)
	}
}

// broadcast replicates a scalar to the shape and length of target.
func broadcast(s, target result) result {
	values := make([]frame.Value, len(target.values))
	for i := range values {
		values[i] = s.values[0]
	}
	return result{shape: target.shape, values: values, part: target.part}
}

// combineElementwise reconciles two results and applies fn value by
// value, producing a result of the common shape.
func combineElementwise(a, b result, fn func(x, y frame.Value) (frame.Value, error)) (result, error) {
	a, b, err := reconcile(a, b)
	if err != nil {
		return result{}, err
	}
	values := make([]frame.Value, len(a.values))
	for i := range a.values {
		v, err := fn(a.values[i], b.values[i])
		if err != nil {
			return result{}, err
		}
		values[i] = v
	}
	return result{shape: a.shape, values: values, part: a.part}, nil
}
