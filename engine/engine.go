// Package engine evaluates expression trees against a frame. The same
// tree produces different result shapes depending on the invocation:
// Select binds every row, GroupBy.Agg binds one group at a time, and
// window expressions partition and reassemble inside a selection.
//
// Top-level expressions in one call never observe each other's results,
// so every call evaluates them concurrently and assembles columns only
// after all of them succeed. Input frames are read-only throughout.
package engine

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/zundertj/lazyframe/expr"
	"github.com/zundertj/lazyframe/frame"
)

// Select evaluates the expressions against the frame and returns a new
// frame with one column per expanded expression. Scalars broadcast to
// the common output length; full results must agree on length.
func Select(f *frame.Frame, exprs ...expr.Expr) (*frame.Frame, error) {
	cols := f.Columns()
	plan, names, err := planExprs(exprs, cols, cols, nil)
	if err != nil {
		return nil, err
	}

	results, err := evalParallel(plan, func(n expr.Node) (result, error) {
		return eval(n, &evalCtx{f: f})
	})
	if err != nil {
		return nil, err
	}

	length, err := outputLength(results, f.Len())
	if err != nil {
		return nil, err
	}

	series := make([]frame.Series, len(results))
	for i, r := range results {
		values, err := materialize(r, length)
		if err != nil {
			return nil, err
		}
		series[i] = frame.NewSeries(names[i], values)
	}
	return frame.New(series...)
}

// WithColumns evaluates the expressions and merges the outputs into the
// frame: a result named after an existing column replaces it, anything
// else is appended. Output lengths must match the frame's row count.
func WithColumns(f *frame.Frame, exprs ...expr.Expr) (*frame.Frame, error) {
	cols := f.Columns()
	plan, names, err := planExprs(exprs, cols, cols, nil)
	if err != nil {
		return nil, err
	}

	results, err := evalParallel(plan, func(n expr.Node) (result, error) {
		return eval(n, &evalCtx{f: f})
	})
	if err != nil {
		return nil, err
	}

	series := make([]frame.Series, 0, f.Width()+len(results))
	at := make(map[string]int, f.Width()+len(results))
	for _, name := range cols {
		s, _ := f.Column(name)
		series = append(series, s)
		at[name] = len(series) - 1
	}
	for i, r := range results {
		values, err := materialize(r, f.Len())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", names[i], err)
		}
		s := frame.NewSeries(names[i], values)
		if idx, ok := at[names[i]]; ok {
			series[idx] = s
		} else {
			series = append(series, s)
			at[names[i]] = len(series) - 1
		}
	}
	return frame.New(series...)
}

// Filter returns the rows where the predicate is true. Null predicate
// values drop the row.
func Filter(f *frame.Frame, pred expr.Expr) (*frame.Frame, error) {
	r, err := eval(pred.Node(), &evalCtx{f: f})
	if err != nil {
		return nil, err
	}
	mask, err := materialize(r, f.Len())
	if err != nil {
		return nil, err
	}

	indices := make([]int, 0, f.Len())
	for i, v := range mask {
		keep, ok := v.AsBool()
		if !ok {
			return nil, fmt.Errorf("%w: filter predicate must be boolean, got %v", ErrType, v.AsString())
		}
		if keep {
			indices = append(indices, i)
		}
	}
	return f.Take(indices), nil
}

// Sort returns the frame stably sorted ascending by the key columns.
// Nulls sort last.
func Sort(f *frame.Frame, keys ...string) (*frame.Frame, error) {
	return f.SortBy(keys...)
}

// SortDesc is Sort in descending order.
func SortDesc(f *frame.Frame, keys ...string) (*frame.Frame, error) {
	return f.SortByDesc(keys...)
}

// Grouped is a frame partitioned by key columns, awaiting aggregation.
type Grouped struct {
	f    *frame.Frame
	keys []string
}

// GroupBy partitions the frame by the key columns. Group order is first
// occurrence of each key in the current row order, so sorting first
// fixes the group order.
func GroupBy(f *frame.Frame, keys ...string) *Grouped {
	return &Grouped{f: f, keys: keys}
}

// Agg evaluates each expression once per group, producing one row per
// group: the key columns followed by one column per expression. A
// scalar group result becomes a plain column; a sequence group result
// becomes a list column. Wildcards exclude the grouping keys; a key
// re-included without an explicit alias is named key_op.
func (g *Grouped) Agg(exprs ...expr.Expr) (*frame.Frame, error) {
	part, err := partition(g.f, g.keys, nil)
	if err != nil {
		return nil, err
	}

	cols := g.f.Columns()
	isKey := make(map[string]bool, len(g.keys))
	for _, k := range g.keys {
		isKey[k] = true
	}
	wildcardCols := make([]string, 0, len(cols))
	for _, c := range cols {
		if !isKey[c] {
			wildcardCols = append(wildcardCols, c)
		}
	}

	plan, names, err := planExprs(exprs, cols, wildcardCols, g.keys)
	if err != nil {
		return nil, err
	}

	columns, err := evalParallel(plan, func(n expr.Node) ([]frame.Value, error) {
		return evalPerGroup(n, g.f, part)
	})
	if err != nil {
		return nil, err
	}

	series := make([]frame.Series, 0, len(g.keys)+len(columns))
	for ki, key := range g.keys {
		values := make([]frame.Value, len(part.Groups))
		for gi, grp := range part.Groups {
			values[gi] = grp.Key[ki]
		}
		series = append(series, frame.NewSeries(key, values))
	}
	for i, values := range columns {
		series = append(series, frame.NewSeries(names[i], values))
	}
	return frame.New(series...)
}

// evalPerGroup evaluates a node once per group; the node sees only the
// group's rows. Scalar results collapse to one value per group, full
// results collect into a list per group.
func evalPerGroup(n expr.Node, f *frame.Frame, part *Partition) ([]frame.Value, error) {
	values := make([]frame.Value, len(part.Groups))
	for gi, grp := range part.Groups {
		sub := &evalCtx{f: f, rows: grp.Rows, grouped: true}
		r, err := eval(n, sub)
		if err != nil {
			return nil, err
		}
		switch r.shape {
		case ShapeScalar:
			values[gi] = r.values[0]
		case ShapeFull:
			out := make([]frame.Value, len(r.values))
			copy(out, r.values)
			values[gi] = frame.ListOf(out)
		default:
			return nil, fmt.Errorf("%w: aggregation produced %s result", ErrShapeMismatch, r.shape)
		}
	}
	return values, nil
}

// planExprs expands multi-column references and resolves output names,
// rejecting duplicates. Reserved names (the grouping keys) collide too,
// except that an aggregation re-including a key without an explicit
// alias gets the key name suffixed with the aggregation op, so
// first(key) inside Agg works out of the box.
func planExprs(exprs []expr.Expr, cols, wildcardCols, reserved []string) ([]expr.Node, []string, error) {
	var plan []expr.Node
	var names []string
	seen := make(map[string]bool, len(exprs)+len(reserved))
	reservedSet := make(map[string]bool, len(reserved))
	for _, r := range reserved {
		seen[r] = true
		reservedSet[r] = true
	}

	for _, e := range exprs {
		expanded, err := expand(e.Node(), cols, wildcardCols)
		if err != nil {
			return nil, nil, err
		}
		for _, n := range expanded {
			name := outputName(n)
			if reservedSet[name] && !explicitlyNamed(n) {
				if op := outerAggOp(n); op != "" {
					name = name + "_" + op
				}
			}
			if seen[name] {
				return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
			}
			seen[name] = true
			plan = append(plan, n)
			names = append(names, name)
		}
	}
	return plan, names, nil
}

// explicitlyNamed reports whether the caller chose the output name
// themselves via alias, suffix or keep-name.
func explicitlyNamed(n expr.Node) bool {
	_, ok := n.(*expr.AliasNode)
	return ok
}

// outerAggOp returns the op of the outermost aggregation node, looking
// through wrappers that keep the inferred name, or "" if there is none.
func outerAggOp(n expr.Node) string {
	switch x := n.(type) {
	case *expr.AggNode:
		return x.Op
	case *expr.FilterNode:
		return outerAggOp(x.Child)
	case *expr.OverNode:
		return outerAggOp(x.Child)
	}
	return ""
}

// evalParallel runs fn for every node concurrently. No expression may
// block on a sibling; the only synchronization point is the final wait.
func evalParallel[T any](plan []expr.Node, fn func(expr.Node) (T, error)) ([]T, error) {
	results := make([]T, len(plan))
	var eg errgroup.Group
	for i, n := range plan {
		i, n := i, n
		eg.Go(func() error {
			r, err := fn(n)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// outputLength determines the row count of a selection's output: the
// common length of all full results, the frame length when a per-group
// result must broadcast onto rows, and 1 when everything is scalar.
func outputLength(results []result, frameLen int) (int, error) {
	length := -1
	for _, r := range results {
		var want int
		switch r.shape {
		case ShapeFull:
			want = len(r.values)
		case ShapePerGroup, ShapeNested:
			want = frameLen
		default:
			continue
		}
		if length == -1 {
			length = want
		} else if length != want {
			return 0, fmt.Errorf("%w: output lengths %d and %d", ErrShapeMismatch, length, want)
		}
	}
	if length == -1 {
		length = 1 // all scalars
	}
	return length, nil
}

// materialize converts a result into a column of the requested length.
// Scalars broadcast; per-group and nested results replicate each group's
// value over its member rows.
func materialize(r result, length int) ([]frame.Value, error) {
	switch r.shape {
	case ShapeScalar:
		values := make([]frame.Value, length)
		for i := range values {
			values[i] = r.values[0]
		}
		return values, nil
	case ShapeFull:
		if len(r.values) != length {
			return nil, fmt.Errorf("%w: result has %d rows, output has %d", ErrShapeMismatch, len(r.values), length)
		}
		return r.values, nil
	case ShapePerGroup, ShapeNested:
		if r.part.memberCount() != length {
			return nil, fmt.Errorf("%w: partition covers %d rows, output has %d", ErrShapeMismatch, r.part.memberCount(), length)
		}
		values := make([]frame.Value, length)
		for gi, grp := range r.part.Groups {
			for _, row := range grp.Rows {
				values[row] = r.values[gi]
			}
		}
		return values, nil
	default:
		return nil, fmt.Errorf("%w: cannot materialize %s result", ErrShapeMismatch, r.shape)
	}
}
