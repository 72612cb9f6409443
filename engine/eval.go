package engine

import (
	"fmt"
	"regexp"

	"github.com/zundertj/lazyframe/expr"
	"github.com/zundertj/lazyframe/frame"
)

// evalCtx binds an expression to a frame and a row domain. A nil domain
// means every row. grouped marks per-group sub-evaluation so window
// expressions can reject nesting inside an aggregation.
type evalCtx struct {
	f       *frame.Frame
	rows    []int
	grouped bool
}

func (c *evalCtx) rowCount() int {
	if c.rows == nil {
		return c.f.Len()
	}
	return len(c.rows)
}

// column gathers the named column over the context's row domain.
func (c *evalCtx) column(name string) (result, error) {
	s, ok := c.f.Column(name)
	if !ok {
		return result{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if c.rows == nil {
		values := make([]frame.Value, len(s.Values))
		copy(values, s.Values)
		return fullResult(values), nil
	}
	values := make([]frame.Value, len(c.rows))
	for i, row := range c.rows {
		values[i] = s.Values[row]
	}
	return fullResult(values), nil
}

// eval walks the tree post-order, children before parents, and returns
// the node's result in the given context.
func eval(n expr.Node, ctx *evalCtx) (result, error) {
	switch x := n.(type) {
	case *expr.ColumnNode:
		// Multi-column references are expanded before evaluation; only
		// exact names reach this point.
		if x.Wildcard || x.Names != nil || isRegexRef(x.Name) {
			return result{}, fmt.Errorf("%w: unexpanded multi-column reference %q", ErrInvalidExpr, x.Name)
		}
		return ctx.column(x.Name)

	case *expr.LiteralNode:
		return scalarResult(x.Value), nil

	case *expr.RangeNode:
		if x.Stop < x.Start {
			return result{}, fmt.Errorf("%w: arange stop %d before start %d", ErrInvalidExpr, x.Stop, x.Start)
		}
		values := make([]frame.Value, 0, x.Stop-x.Start)
		for i := x.Start; i < x.Stop; i++ {
			values = append(values, frame.Int64(i))
		}
		return fullResult(values), nil

	case *expr.UnaryNode:
		return evalUnary(x, ctx)

	case *expr.BinaryNode:
		left, err := eval(x.Left, ctx)
		if err != nil {
			return result{}, err
		}
		right, err := eval(x.Right, ctx)
		if err != nil {
			return result{}, err
		}
		return combineElementwise(left, right, func(a, b frame.Value) (frame.Value, error) {
			return applyBinaryValue(x.Op, a, b)
		})

	case *expr.AggNode:
		child, err := eval(x.Child, ctx)
		if err != nil {
			return result{}, err
		}
		v, err := reduce(x.Op, child.values)
		if err != nil {
			return result{}, err
		}
		return scalarResult(v), nil

	case *expr.FilterNode:
		return evalFilter(x, ctx)

	case *expr.WhenNode:
		return evalWhen(x, ctx)

	case *expr.FoldNode:
		return evalFold(x, ctx)

	case *expr.ConcatStrNode:
		return evalConcatStr(x, ctx)

	case *expr.OverNode:
		return evalOver(x, ctx)

	case *expr.AliasNode:
		return eval(x.Child, ctx)

	case *expr.NamespacedNode:
		return evalNamespaced(x, ctx)

	default:
		return result{}, fmt.Errorf("%w: unknown node type %T", ErrInvalidExpr, n)
	}
}

func evalUnary(x *expr.UnaryNode, ctx *evalCtx) (result, error) {
	child, err := eval(x.Operand, ctx)
	if err != nil {
		return result{}, err
	}
	if x.Op == "reverse" {
		values := make([]frame.Value, len(child.values))
		for i, v := range child.values {
			values[len(values)-1-i] = v
		}
		return result{shape: child.shape, values: values, part: child.part}, nil
	}
	values := make([]frame.Value, len(child.values))
	for i, v := range child.values {
		out, err := applyUnary(x.Op, v)
		if err != nil {
			return result{}, err
		}
		values[i] = out
	}
	return result{shape: child.shape, values: values, part: child.part}, nil
}

func evalFilter(x *expr.FilterNode, ctx *evalCtx) (result, error) {
	child, err := eval(x.Child, ctx)
	if err != nil {
		return result{}, err
	}
	pred, err := eval(x.Predicate, ctx)
	if err != nil {
		return result{}, err
	}
	child, pred, err = reconcile(child, pred)
	if err != nil {
		return result{}, err
	}

	values := make([]frame.Value, 0, len(child.values))
	for i, p := range pred.values {
		keep, ok := p.AsBool()
		if !ok {
			return result{}, fmt.Errorf("%w: filter predicate must be boolean, got %v", ErrType, p.AsString())
		}
		if keep {
			values = append(values, child.values[i])
		}
	}
	return result{shape: child.shape, values: values, part: child.part}, nil
}

func evalWhen(x *expr.WhenNode, ctx *evalCtx) (result, error) {
	pred, err := eval(x.Predicate, ctx)
	if err != nil {
		return result{}, err
	}
	then, err := eval(x.Then, ctx)
	if err != nil {
		return result{}, err
	}
	otherwise, err := eval(x.Otherwise, ctx)
	if err != nil {
		return result{}, err
	}

	then, pred, err = reconcile(then, pred)
	if err != nil {
		return result{}, err
	}
	otherwise, pred, err = reconcile(otherwise, pred)
	if err != nil {
		return result{}, err
	}
	// then and otherwise may still disagree when pred was the scalar.
	then, otherwise, err = reconcile(then, otherwise)
	if err != nil {
		return result{}, err
	}
	pred, then, err = reconcile(pred, then)
	if err != nil {
		return result{}, err
	}

	values := make([]frame.Value, len(pred.values))
	for i, p := range pred.values {
		take, ok := p.AsBool()
		if !ok {
			return result{}, fmt.Errorf("%w: conditional predicate must be boolean, got %v", ErrType, p.AsString())
		}
		if take {
			values[i] = then.values[i]
		} else {
			values[i] = otherwise.values[i]
		}
	}
	return result{shape: then.shape, values: values, part: then.part}, nil
}

func evalFold(x *expr.FoldNode, ctx *evalCtx) (result, error) {
	if len(x.Exprs) == 0 {
		return result{}, fmt.Errorf("%w: fold requires at least one expression", ErrInvalidExpr)
	}
	if x.Combine == nil {
		return result{}, fmt.Errorf("%w: fold requires a combiner", ErrInvalidExpr)
	}

	acc, err := eval(x.Init, ctx)
	if err != nil {
		return result{}, err
	}
	// Strictly left to right: the combiner need not be associative or
	// commutative, so this is a sequential dependency.
	for _, child := range x.Exprs {
		r, err := eval(child, ctx)
		if err != nil {
			return result{}, err
		}
		acc, err = combineElementwise(acc, r, x.Combine)
		if err != nil {
			return result{}, err
		}
	}
	return acc, nil
}

func evalConcatStr(x *expr.ConcatStrNode, ctx *evalCtx) (result, error) {
	if len(x.Exprs) == 0 {
		return result{}, fmt.Errorf("%w: concat_str requires at least one expression", ErrInvalidExpr)
	}
	results := make([]result, len(x.Exprs))
	length := 1
	for i, child := range x.Exprs {
		r, err := eval(child, ctx)
		if err != nil {
			return result{}, err
		}
		if r.shape == ShapeFull {
			if length != 1 && len(r.values) != length {
				return result{}, fmt.Errorf("%w: concat_str lengths %d and %d", ErrShapeMismatch, length, len(r.values))
			}
			length = len(r.values)
		} else if r.shape != ShapeScalar {
			return result{}, fmt.Errorf("%w: concat_str cannot take %s results", ErrShapeMismatch, r.shape)
		}
		results[i] = r
	}

	values := make([]frame.Value, length)
rows:
	for i := 0; i < length; i++ {
		var sb []byte
		for j, r := range results {
			v := r.values[0]
			if r.shape == ShapeFull {
				v = r.values[i]
			}
			if v.IsNull() {
				values[i] = frame.Null()
				continue rows
			}
			if j > 0 {
				sb = append(sb, x.Sep...)
			}
			sb = append(sb, v.AsString()...)
		}
		values[i] = frame.Str(string(sb))
	}
	return fullResult(values), nil
}

func evalOver(x *expr.OverNode, ctx *evalCtx) (result, error) {
	if ctx.grouped {
		return result{}, fmt.Errorf("%w: window expression inside an aggregation", ErrInvalidExpr)
	}
	part, err := partition(ctx.f, x.PartitionBy, ctx.rows)
	if err != nil {
		return result{}, err
	}

	perGroup := make([]frame.Value, len(part.Groups))
	anySequence := false
	for gi, g := range part.Groups {
		sub := &evalCtx{f: ctx.f, rows: g.Rows, grouped: true}
		r, err := eval(x.Child, sub)
		if err != nil {
			return result{}, err
		}
		switch r.shape {
		case ShapeScalar:
			perGroup[gi] = r.values[0]
		case ShapeFull:
			anySequence = true
			perGroup[gi] = frame.ListOf(r.values)
		default:
			return result{}, fmt.Errorf("%w: window child produced %s result", ErrShapeMismatch, r.shape)
		}
	}

	if !anySequence {
		// Per-group scalars: broadcast onto the original row positions.
		out, err := part.scatterToRows(result{shape: ShapePerGroup, values: perGroup, part: part}, ctx.f.Len())
		if err != nil {
			return result{}, err
		}
		return fullResult(out), nil
	}

	nested := result{shape: ShapeNested, values: perGroup, part: part}
	if x.Flatten {
		out, err := part.scatterToRows(nested, ctx.f.Len())
		if err != nil {
			return result{}, err
		}
		return fullResult(out), nil
	}
	return nested, nil
}

// --- Multi-column expansion ---

var regexRef = regexp.MustCompile(`^\^.*\$$`)

func isRegexRef(name string) bool {
	return regexRef.MatchString(name)
}

// expand replicates an expression once per column matched by the
// multi-column reference it contains, substituting the concrete name.
// Expressions without a multi-reference pass through unchanged. A regex
// or wildcard matching nothing expands to zero expressions; an explicit
// name list must match in full. Wildcards resolve against wildcardCols,
// which excludes the grouping keys in an aggregation.
func expand(n expr.Node, cols, wildcardCols []string) ([]expr.Node, error) {
	ref := findMultiRef(n)
	if ref == nil {
		return []expr.Node{n}, nil
	}

	var matched []string
	switch {
	case ref.Wildcard:
		excluded := make(map[string]bool, len(ref.Exclude))
		for _, e := range ref.Exclude {
			excluded[e] = true
		}
		for _, c := range wildcardCols {
			if !excluded[c] {
				matched = append(matched, c)
			}
		}
	case ref.Names != nil:
		if len(ref.Names) == 0 {
			return nil, fmt.Errorf("%w: empty column name list", ErrInvalidExpr)
		}
		set := make(map[string]bool, len(cols))
		for _, c := range cols {
			set[c] = true
		}
		for _, name := range ref.Names {
			if !set[name] {
				return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
			}
		}
		matched = ref.Names
	default: // anchored regex
		re, err := regexp.Compile(ref.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: bad column regex %q: %v", ErrInvalidExpr, ref.Name, err)
		}
		for _, c := range cols {
			if re.MatchString(c) {
				matched = append(matched, c)
			}
		}
	}

	out := make([]expr.Node, 0, len(matched))
	for _, name := range matched {
		out = append(out, substitute(n, name))
	}
	return out, nil
}

// findMultiRef returns the first wildcard, name-list or regex column
// reference in the tree, or nil.
func findMultiRef(n expr.Node) *expr.ColumnNode {
	switch x := n.(type) {
	case *expr.ColumnNode:
		if x.Wildcard || x.Names != nil || isRegexRef(x.Name) {
			return x
		}
	case *expr.UnaryNode:
		return findMultiRef(x.Operand)
	case *expr.BinaryNode:
		if r := findMultiRef(x.Left); r != nil {
			return r
		}
		return findMultiRef(x.Right)
	case *expr.AggNode:
		return findMultiRef(x.Child)
	case *expr.FilterNode:
		if r := findMultiRef(x.Child); r != nil {
			return r
		}
		return findMultiRef(x.Predicate)
	case *expr.WhenNode:
		if r := findMultiRef(x.Predicate); r != nil {
			return r
		}
		if r := findMultiRef(x.Then); r != nil {
			return r
		}
		return findMultiRef(x.Otherwise)
	case *expr.FoldNode:
		for _, c := range x.Exprs {
			if r := findMultiRef(c); r != nil {
				return r
			}
		}
		return findMultiRef(x.Init)
	case *expr.ConcatStrNode:
		for _, c := range x.Exprs {
			if r := findMultiRef(c); r != nil {
				return r
			}
		}
	case *expr.OverNode:
		return findMultiRef(x.Child)
	case *expr.AliasNode:
		return findMultiRef(x.Child)
	case *expr.NamespacedNode:
		return findMultiRef(x.Child)
	}
	return nil
}

// substitute clones the tree, replacing every multi-column reference
// with an exact reference to name.
func substitute(n expr.Node, name string) expr.Node {
	switch x := n.(type) {
	case *expr.ColumnNode:
		if x.Wildcard || x.Names != nil || isRegexRef(x.Name) {
			return &expr.ColumnNode{Name: name}
		}
		return x
	case *expr.UnaryNode:
		return &expr.UnaryNode{Op: x.Op, Operand: substitute(x.Operand, name)}
	case *expr.BinaryNode:
		return &expr.BinaryNode{Op: x.Op, Left: substitute(x.Left, name), Right: substitute(x.Right, name)}
	case *expr.AggNode:
		return &expr.AggNode{Op: x.Op, Child: substitute(x.Child, name)}
	case *expr.FilterNode:
		return &expr.FilterNode{Child: substitute(x.Child, name), Predicate: substitute(x.Predicate, name)}
	case *expr.WhenNode:
		return &expr.WhenNode{
			Predicate: substitute(x.Predicate, name),
			Then:      substitute(x.Then, name),
			Otherwise: substitute(x.Otherwise, name),
		}
	case *expr.FoldNode:
		exprs := make([]expr.Node, len(x.Exprs))
		for i, c := range x.Exprs {
			exprs[i] = substitute(c, name)
		}
		return &expr.FoldNode{Init: substitute(x.Init, name), Combine: x.Combine, Exprs: exprs}
	case *expr.ConcatStrNode:
		exprs := make([]expr.Node, len(x.Exprs))
		for i, c := range x.Exprs {
			exprs[i] = substitute(c, name)
		}
		return &expr.ConcatStrNode{Sep: x.Sep, Exprs: exprs}
	case *expr.OverNode:
		return &expr.OverNode{Child: substitute(x.Child, name), PartitionBy: x.PartitionBy, Flatten: x.Flatten}
	case *expr.AliasNode:
		return &expr.AliasNode{Child: substitute(x.Child, name), Name: x.Name, Suffix: x.Suffix, KeepName: x.KeepName}
	case *expr.NamespacedNode:
		return &expr.NamespacedNode{Child: substitute(x.Child, name), Namespace: x.Namespace, Op: x.Op, Args: x.Args}
	default:
		return n
	}
}

// --- Output naming ---

// outputName infers the result column name: an explicit alias wins, a
// suffix appends to the inferred child name, keep-name restores the
// source column, and everything else falls back to the leftmost source
// column or a synthesized identifier. Naming is deterministic; callers
// reject collisions with ErrDuplicateName.
func outputName(n expr.Node) string {
	switch x := n.(type) {
	case *expr.ColumnNode:
		return x.Name
	case *expr.LiteralNode:
		return "literal"
	case *expr.RangeNode:
		return "arange"
	case *expr.UnaryNode:
		return outputName(x.Operand)
	case *expr.BinaryNode:
		return outputName(x.Left)
	case *expr.AggNode:
		return outputName(x.Child)
	case *expr.FilterNode:
		return outputName(x.Child)
	case *expr.WhenNode:
		return outputName(x.Then)
	case *expr.FoldNode:
		return "fold"
	case *expr.ConcatStrNode:
		return "str_concat"
	case *expr.OverNode:
		return outputName(x.Child)
	case *expr.AliasNode:
		switch {
		case x.KeepName:
			return rootName(x.Child)
		case x.Suffix != "":
			return outputName(x.Child) + x.Suffix
		default:
			return x.Name
		}
	case *expr.NamespacedNode:
		return outputName(x.Child)
	default:
		return "expr"
	}
}

// rootName finds the leftmost source column name in the subtree.
func rootName(n expr.Node) string {
	switch x := n.(type) {
	case *expr.ColumnNode:
		return x.Name
	case *expr.UnaryNode:
		return rootName(x.Operand)
	case *expr.BinaryNode:
		if name := rootName(x.Left); name != "" {
			return name
		}
		return rootName(x.Right)
	case *expr.AggNode:
		return rootName(x.Child)
	case *expr.FilterNode:
		return rootName(x.Child)
	case *expr.WhenNode:
		return rootName(x.Then)
	case *expr.OverNode:
		return rootName(x.Child)
	case *expr.AliasNode:
		return rootName(x.Child)
	case *expr.NamespacedNode:
		return rootName(x.Child)
	default:
		return ""
	}
}
